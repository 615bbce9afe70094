package tron

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/crypto"
)

// addressPrefix is the TRON mainnet Base58Check version byte.
const addressPrefix = 0x41

// ErrPrivateKeyInvalid is returned when a stored private key cannot be
// resolved to a sending address.
var ErrPrivateKeyInvalid = errors.New("wallet.private.key.invalid")

// Account is a freshly generated deposit keypair.
type Account struct {
	Address    string
	PublicKey  string
	PrivateKey string
}

// NewAccount generates a new secp256k1 keypair and derives its TRON address.
func NewAccount() (*Account, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate account key: %w", err)
	}

	return &Account{
		Address:    addressFromKey(&key.PublicKey),
		PublicKey:  hex.EncodeToString(crypto.FromECDSAPub(&key.PublicKey)),
		PrivateKey: hex.EncodeToString(crypto.FromECDSA(key)),
	}, nil
}

// AddressFromPrivateKey deterministically resolves the TRON address for a
// hex-encoded private key.
func AddressFromPrivateKey(privateKey string) (string, error) {
	key, err := parsePrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	return addressFromKey(&key.PublicKey), nil
}

func parsePrivateKey(privateKey string) (*ecdsa.PrivateKey, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(privateKey), "0x")
	key, err := crypto.HexToECDSA(strings.ToLower(trimmed))
	if err != nil {
		return nil, ErrPrivateKeyInvalid
	}
	return key, nil
}

// addressFromKey maps a public key to its Base58Check TRON address: the
// keccak256 account hash with the 0x41 prefix.
func addressFromKey(pub *ecdsa.PublicKey) string {
	account := crypto.PubkeyToAddress(*pub)
	return base58.CheckEncode(account.Bytes(), addressPrefix)
}

// decodeAddress returns the 20-byte account hash of a Base58Check address.
func decodeAddress(address string) ([]byte, error) {
	payload, version, err := base58.CheckDecode(address)
	if err != nil {
		return nil, fmt.Errorf("decode address %q: %w", address, err)
	}
	if version != addressPrefix || len(payload) != 20 {
		return nil, fmt.Errorf("decode address %q: not a tron address", address)
	}
	return payload, nil
}

package tron

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

const transferSelector = "transfer(address,uint256)"
const balanceOfSelector = "balanceOf(address)"

// Client talks to a TronGrid-compatible full node over its HTTP API.
// All addresses cross the wire in Base58Check ("visible") form.
type Client struct {
	baseURL         string
	contractAddress string
	httpc           *http.Client
}

// NewClient creates a Client bound to one TRC20 token contract.
func NewClient(baseURL, contractAddress string) *Client {
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		contractAddress: contractAddress,
		httpc:           &http.Client{Timeout: 10 * time.Second},
	}
}

// Trc20Transfer is one confirmed incoming token transfer.
type Trc20Transfer struct {
	TransactionID  string `json:"transaction_id"`
	From           string `json:"from"`
	To             string `json:"to"`
	Value          string `json:"value"`
	BlockTimestamp int64  `json:"block_timestamp"`
}

// Trc20TransferList fetches the confirmed incoming token transfers for a
// deposit address, newest first.
func (c *Client) Trc20TransferList(ctx context.Context, walletAddress string) ([]Trc20Transfer, error) {
	endpoint := fmt.Sprintf(
		"%s/v1/accounts/%s/transactions/trc20?only_confirmed=true&contract_address=%s&only_to=true",
		c.baseURL,
		url.PathEscape(walletAddress),
		url.QueryEscape(c.contractAddress),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("trc20 transfer list request build: %w", err)
	}

	var result struct {
		Data []Trc20Transfer `json:"data"`
	}
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("trc20 transfer list: %w", err)
	}

	return result.Data, nil
}

// Trc20Balance reads the token balance of a wallet via a constant
// balanceOf call.
func (c *Client) Trc20Balance(ctx context.Context, walletAddress string) (decimal.Decimal, error) {
	parameter, err := encodeBalanceOfParameter(walletAddress)
	if err != nil {
		return decimal.Zero, err
	}

	var result struct {
		Result struct {
			Result bool `json:"result"`
		} `json:"result"`
		ConstantResult []string `json:"constant_result"`
	}
	err = c.post(ctx, "/wallet/triggerconstantcontract", map[string]any{
		"owner_address":     walletAddress,
		"contract_address":  c.contractAddress,
		"function_selector": balanceOfSelector,
		"parameter":         parameter,
		"visible":           true,
	}, &result)
	if err != nil {
		return decimal.Zero, fmt.Errorf("trc20 balance: %w", err)
	}

	if !result.Result.Result || len(result.ConstantResult) == 0 {
		return decimal.Zero, fmt.Errorf("trc20 balance of %s: constant call rejected", walletAddress)
	}

	value, ok := new(big.Int).SetString(result.ConstantResult[0], 16)
	if !ok {
		return decimal.Zero, fmt.Errorf("trc20 balance of %s: bad constant result %q", walletAddress, result.ConstantResult[0])
	}

	return decimal.NewFromBigInt(value, 0), nil
}

// TrxBalance reads the native TRX balance in sun. Unknown accounts report 0.
func (c *Client) TrxBalance(ctx context.Context, address string) (int64, error) {
	var result struct {
		Balance int64 `json:"balance"`
	}
	err := c.post(ctx, "/wallet/getaccount", map[string]any{
		"address": address,
		"visible": true,
	}, &result)
	if err != nil {
		return 0, fmt.Errorf("trx balance: %w", err)
	}
	return result.Balance, nil
}

// AccountResources holds the bandwidth quota counters of an account.
type AccountResources struct {
	FreeNetLimit int64 `json:"freeNetLimit"`
	FreeNetUsed  int64 `json:"freeNetUsed"`
	NetLimit     int64 `json:"NetLimit"`
	NetUsed      int64 `json:"NetUsed"`
}

// AccountResources fetches the bandwidth counters of an account.
func (c *Client) AccountResources(ctx context.Context, address string) (*AccountResources, error) {
	var result AccountResources
	err := c.post(ctx, "/wallet/getaccountresource", map[string]any{
		"address": address,
		"visible": true,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("account resources: %w", err)
	}
	return &result, nil
}

// ChainParameter looks up a network parameter value by key. A parameter the
// node does not report is returned as 0.
func (c *Client) ChainParameter(ctx context.Context, key string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/wallet/getchainparameters", nil)
	if err != nil {
		return 0, fmt.Errorf("chain parameters request build: %w", err)
	}

	var result struct {
		ChainParameter []struct {
			Key   string `json:"key"`
			Value int64  `json:"value"`
		} `json:"chainParameter"`
	}
	if err := c.do(req, &result); err != nil {
		return 0, fmt.Errorf("chain parameters: %w", err)
	}

	for _, parameter := range result.ChainParameter {
		if parameter.Key == key {
			return parameter.Value, nil
		}
	}
	return 0, nil
}

// EnergyEstimate is the node's simulation result for a contract call.
type EnergyEstimate struct {
	Result struct {
		Result bool `json:"result"`
	} `json:"result"`
	EnergyRequired int64 `json:"energy_required"`
}

// EstimateEnergy simulates a token transfer to obtain its energy cost.
func (c *Client) EstimateEnergy(ctx context.Context, ownerAddress, parameter string) (*EnergyEstimate, error) {
	var result EnergyEstimate
	err := c.post(ctx, "/wallet/estimateenergy", map[string]any{
		"owner_address":     ownerAddress,
		"contract_address":  c.contractAddress,
		"function_selector": transferSelector,
		"parameter":         parameter,
		"visible":           true,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("estimate energy: %w", err)
	}
	return &result, nil
}

// Transaction is an unsigned or signed transaction as the node serializes it.
type Transaction struct {
	Visible    bool            `json:"visible"`
	TxID       string          `json:"txID"`
	RawData    json.RawMessage `json:"raw_data"`
	RawDataHex string          `json:"raw_data_hex"`
	Signature  []string        `json:"signature,omitempty"`
}

// BuildTrc20Transfer builds (but does not broadcast) a token transfer
// transaction with the given fee ceiling.
func (c *Client) BuildTrc20Transfer(ctx context.Context, ownerAddress, parameter string, feeLimit int64) (*Transaction, error) {
	var result struct {
		Result struct {
			Result  bool   `json:"result"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"result"`
		Transaction *Transaction `json:"transaction"`
	}
	err := c.post(ctx, "/wallet/triggersmartcontract", map[string]any{
		"owner_address":     ownerAddress,
		"contract_address":  c.contractAddress,
		"function_selector": transferSelector,
		"parameter":         parameter,
		"fee_limit":         feeLimit,
		"visible":           true,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("build trc20 transfer: %w", err)
	}

	if !result.Result.Result || result.Transaction == nil {
		return nil, fmt.Errorf("build trc20 transfer rejected: %s %s", result.Result.Code, result.Result.Message)
	}

	return result.Transaction, nil
}

// CreateTrxTransfer builds (but does not broadcast) a native TRX payment.
func (c *Client) CreateTrxTransfer(ctx context.Context, ownerAddress, toAddress string, amount int64) (*Transaction, error) {
	var result struct {
		Transaction
		Error string `json:"Error"`
	}
	err := c.post(ctx, "/wallet/createtransaction", map[string]any{
		"owner_address": ownerAddress,
		"to_address":    toAddress,
		"amount":        amount,
		"visible":       true,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("create trx transfer: %w", err)
	}

	if result.Error != "" || result.TxID == "" {
		return nil, fmt.Errorf("create trx transfer rejected: %s", result.Error)
	}

	tx := result.Transaction
	return &tx, nil
}

// SignTransaction signs the transaction hash in place. The txID is the
// sha256 of the raw transaction, which is exactly what gets signed.
func SignTransaction(tx *Transaction, privateKey string) error {
	key, err := parsePrivateKey(privateKey)
	if err != nil {
		return err
	}

	hash, err := hex.DecodeString(tx.TxID)
	if err != nil || len(hash) != 32 {
		return fmt.Errorf("sign transaction: bad txID %q", tx.TxID)
	}

	signature, err := crypto.Sign(hash, key)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}

	tx.Signature = append(tx.Signature, hex.EncodeToString(signature))
	return nil
}

// BroadcastResult is the node's answer to a broadcast attempt.
type BroadcastResult struct {
	Result  bool   `json:"result"`
	TxID    string `json:"txid"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Broadcast submits a signed transaction to the network.
func (c *Client) Broadcast(ctx context.Context, tx *Transaction) (*BroadcastResult, error) {
	var result BroadcastResult
	if err := c.post(ctx, "/wallet/broadcasttransaction", tx, &result); err != nil {
		return nil, fmt.Errorf("broadcast transaction: %w", err)
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// encodeTransferParameter ABI-encodes transfer(address,uint256) arguments.
func encodeTransferParameter(toAddress, amount string) (string, error) {
	account, err := decodeAddress(toAddress)
	if err != nil {
		return "", err
	}

	value, ok := new(big.Int).SetString(amount, 10)
	if !ok || value.Sign() < 0 || value.BitLen() > 256 {
		return "", fmt.Errorf("invalid transfer amount %q", amount)
	}

	var buf [64]byte
	copy(buf[12:32], account)
	value.FillBytes(buf[32:])
	return hex.EncodeToString(buf[:]), nil
}

// encodeBalanceOfParameter ABI-encodes a balanceOf(address) argument.
func encodeBalanceOfParameter(walletAddress string) (string, error) {
	account, err := decodeAddress(walletAddress)
	if err != nil {
		return "", err
	}

	var buf [32]byte
	copy(buf[12:], account)
	return hex.EncodeToString(buf[:]), nil
}

package tron

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTransferTxID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testTopUpTxID    = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// fakeNode emulates the subset of the TronGrid HTTP API the transfer engine
// touches. The scenario defaults match the deterministic fee case: 10 energy
// at price 420, no missing bandwidth, wallet TRX balance 0.
type fakeNode struct {
	t *testing.T

	energySuccess  bool
	energyRequired int64
	energyFee      int64
	bandwidthFee   int64
	freeNetLimit   int64
	walletBalance  int64
	topUpAccepted  bool
	rawDataHex     string

	calls        []string
	topUpAmounts []int64
	topUpTo      string
	broadcasts   []Transaction
}

func newFakeNode(t *testing.T) *fakeNode {
	return &fakeNode{
		t:              t,
		energySuccess:  true,
		energyRequired: 10,
		energyFee:      420,
		bandwidthFee:   1000,
		freeNetLimit:   600,
		walletBalance:  0,
		topUpAccepted:  true,
		rawDataHex:     strings.Repeat("ab", 100),
	}
}

func (n *fakeNode) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/wallet/estimateenergy", func(w http.ResponseWriter, r *http.Request) {
		n.calls = append(n.calls, "estimateenergy")
		writeJSON(w, map[string]any{
			"result":          map[string]any{"result": n.energySuccess},
			"energy_required": n.energyRequired,
		})
	})

	mux.HandleFunc("/wallet/getchainparameters", func(w http.ResponseWriter, r *http.Request) {
		n.calls = append(n.calls, "getchainparameters")
		parameters := []map[string]any{}
		if n.energyFee != 0 {
			parameters = append(parameters, map[string]any{"key": "getEnergyFee", "value": n.energyFee})
		}
		if n.bandwidthFee != 0 {
			parameters = append(parameters, map[string]any{"key": "getTransactionFee", "value": n.bandwidthFee})
		}
		writeJSON(w, map[string]any{"chainParameter": parameters})
	})

	mux.HandleFunc("/wallet/triggersmartcontract", func(w http.ResponseWriter, r *http.Request) {
		n.calls = append(n.calls, "triggersmartcontract")
		writeJSON(w, map[string]any{
			"result": map[string]any{"result": true},
			"transaction": map[string]any{
				"visible":      true,
				"txID":         testTransferTxID,
				"raw_data":     map[string]any{},
				"raw_data_hex": n.rawDataHex,
			},
		})
	})

	mux.HandleFunc("/wallet/getaccountresource", func(w http.ResponseWriter, r *http.Request) {
		n.calls = append(n.calls, "getaccountresource")
		writeJSON(w, map[string]any{
			"freeNetLimit": n.freeNetLimit,
			"freeNetUsed":  0,
		})
	})

	mux.HandleFunc("/wallet/getaccount", func(w http.ResponseWriter, r *http.Request) {
		n.calls = append(n.calls, "getaccount")
		writeJSON(w, map[string]any{"balance": n.walletBalance})
	})

	mux.HandleFunc("/wallet/createtransaction", func(w http.ResponseWriter, r *http.Request) {
		n.calls = append(n.calls, "createtransaction")
		var body struct {
			OwnerAddress string `json:"owner_address"`
			ToAddress    string `json:"to_address"`
			Amount       int64  `json:"amount"`
		}
		require.NoError(n.t, json.NewDecoder(r.Body).Decode(&body))
		n.topUpAmounts = append(n.topUpAmounts, body.Amount)
		n.topUpTo = body.ToAddress
		writeJSON(w, map[string]any{
			"visible":      true,
			"txID":         testTopUpTxID,
			"raw_data":     map[string]any{},
			"raw_data_hex": "aabb",
		})
	})

	mux.HandleFunc("/wallet/broadcasttransaction", func(w http.ResponseWriter, r *http.Request) {
		n.calls = append(n.calls, "broadcasttransaction")
		var tx Transaction
		require.NoError(n.t, json.NewDecoder(r.Body).Decode(&tx))
		n.broadcasts = append(n.broadcasts, tx)

		accepted := true
		if tx.TxID == testTopUpTxID {
			accepted = n.topUpAccepted
		}
		writeJSON(w, map[string]any{"result": accepted})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func newTestTransfer(t *testing.T, node *fakeNode) (*Client, SponsoredTransferParams) {
	t.Helper()

	server := httptest.NewServer(node.handler())
	t.Cleanup(server.Close)

	wallet, err := NewAccount()
	require.NoError(t, err)
	feePayer, err := NewAccount()
	require.NoError(t, err)
	treasury, err := NewAccount()
	require.NoError(t, err)

	client := NewClient(server.URL, "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t")
	return client, SponsoredTransferParams{
		PrivateKey:         wallet.PrivateKey,
		FeePayerPrivateKey: feePayer.PrivateKey,
		ToAddress:          treasury.Address,
		Amount:             "1000000",
	}
}

func TestSendTrc20SponsorsFee(t *testing.T) {
	node := newFakeNode(t)
	client, params := newTestTransfer(t, node)

	txID, err := client.SendTrc20(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, testTransferTxID, txID)

	// ceil(10 * 420 * 1.2) with no missing bandwidth, against a 0 balance.
	require.Len(t, node.topUpAmounts, 1)
	assert.Equal(t, int64(5040), node.topUpAmounts[0])

	walletAddress, err := AddressFromPrivateKey(params.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, walletAddress, node.topUpTo)

	// The top-up must hit the chain before the token transfer broadcast.
	require.Len(t, node.broadcasts, 2)
	assert.Equal(t, testTopUpTxID, node.broadcasts[0].TxID)
	assert.Equal(t, testTransferTxID, node.broadcasts[1].TxID)
	for _, tx := range node.broadcasts {
		require.Len(t, tx.Signature, 1)
		assert.Len(t, tx.Signature[0], 130)
	}
}

func TestSendTrc20SkipsTopUpWhenFunded(t *testing.T) {
	node := newFakeNode(t)
	node.walletBalance = 1_000_000
	client, params := newTestTransfer(t, node)

	txID, err := client.SendTrc20(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, testTransferTxID, txID)

	assert.Empty(t, node.topUpAmounts)
	require.Len(t, node.broadcasts, 1)
	assert.Equal(t, testTransferTxID, node.broadcasts[0].TxID)
}

func TestSendTrc20ChargesMissingBandwidth(t *testing.T) {
	node := newFakeNode(t)
	// 100 estimated bytes against 40 available: 60 missing at price 1000.
	node.freeNetLimit = 40
	client, params := newTestTransfer(t, node)

	_, err := client.SendTrc20(context.Background(), params)
	require.NoError(t, err)

	require.Len(t, node.topUpAmounts, 1)
	assert.Equal(t, int64(5040+60*1000), node.topUpAmounts[0])
}

func TestSendTrc20EnergyEstimateFailed(t *testing.T) {
	node := newFakeNode(t)
	node.energySuccess = false
	client, params := newTestTransfer(t, node)

	_, err := client.SendTrc20(context.Background(), params)
	assert.ErrorIs(t, err, ErrEnergyEstimateFailed)
	assert.Empty(t, node.broadcasts)
}

func TestSendTrc20EnergyFeeNotAvailable(t *testing.T) {
	node := newFakeNode(t)
	node.energyFee = 0
	client, params := newTestTransfer(t, node)

	_, err := client.SendTrc20(context.Background(), params)
	assert.ErrorIs(t, err, ErrEnergyFeeNotAvailable)
}

func TestSendTrc20BandwidthFeeNotAvailable(t *testing.T) {
	node := newFakeNode(t)
	node.bandwidthFee = 0
	client, params := newTestTransfer(t, node)

	_, err := client.SendTrc20(context.Background(), params)
	assert.ErrorIs(t, err, ErrBandwidthFeeNotAvailable)
}

func TestSendTrc20TopUpRejected(t *testing.T) {
	node := newFakeNode(t)
	node.topUpAccepted = false
	client, params := newTestTransfer(t, node)

	_, err := client.SendTrc20(context.Background(), params)
	assert.ErrorIs(t, err, ErrTopUpFailed)

	// The token transfer must not be broadcast after a failed top-up.
	require.Len(t, node.broadcasts, 1)
	assert.Equal(t, testTopUpTxID, node.broadcasts[0].TxID)
}

func TestSendTrc20InvalidPrivateKey(t *testing.T) {
	node := newFakeNode(t)
	client, params := newTestTransfer(t, node)
	params.PrivateKey = "not-hex"

	_, err := client.SendTrc20(context.Background(), params)
	assert.ErrorIs(t, err, ErrPrivateKeyInvalid)
	assert.Empty(t, node.calls)
}

package btc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(account.Testnet, &ClientOptions{
		BaseURL:    server.URL + "/v1/btc/test3/",
		HTTPClient: server.Client(),
		Limiter:    chain.NewRateLimiter(1000, 10),
		Retry:      &chain.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient_Endpoints(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MainnetEndpoint, NewClient(account.Mainnet, nil).BaseURL())
	assert.Equal(t, TestnetEndpoint, NewClient(account.Testnet, nil).BaseURL())
	assert.Equal(t, "http://localhost:1", NewClient(account.Mainnet, &ClientOptions{BaseURL: "http://localhost:1/"}).BaseURL())
}

func TestClient_ForNetwork(t *testing.T) {
	t.Parallel()

	limiter := chain.NewRateLimiter(5, 1)
	main := NewClient(account.Mainnet, &ClientOptions{Token: "tok", Limiter: limiter})
	test, ok := main.ForNetwork(account.Testnet).(*Client)
	require.True(t, ok)
	assert.Equal(t, TestnetEndpoint, test.BaseURL())
	assert.Equal(t, "tok", test.token)
	assert.Same(t, limiter, test.rateLimiter)
	assert.Equal(t, MainnetEndpoint, main.BaseURL(), "original client unchanged")

	pinned := NewClient(account.Mainnet, &ClientOptions{BaseURL: "http://localhost:1"})
	assert.Equal(t, "http://localhost:1", pinned.ForNetwork(account.Testnet).(*Client).BaseURL())
}

func TestClient_FeeRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lowPerKB int64
		want     int64
	}{
		{"floored", 12000, 11},
		{"exact", 2048, 2},
		{"below relay floor", 500, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/btc/test3", r.URL.Path)
				writeJSON(t, w, map[string]any{"name": "BTC.test3", "low_fee_per_kb": tt.lowPerKB})
			})
			rate, err := c.FeeRate(context.Background())
			require.NoError(t, err)
			assert.True(t, rate.Equal(decimal.NewFromInt(tt.want)), "got %s", rate)
		})
	}
}

func TestClient_SpendableOutputs(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/btc/test3/addrs/mkAddr", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("unspentOnly"))
		assert.Equal(t, "true", r.URL.Query().Get("includeScript"))
		writeJSON(t, w, map[string]any{
			"address": "mkAddr",
			"txrefs": []map[string]any{
				{"tx_hash": "aa", "tx_output_n": 1, "value": 5000, "script": "76a9"},
				{"tx_hash": "bb", "tx_output_n": -1, "value": 7000},
				{"tx_hash": "cc", "tx_output_n": 0, "value": 900, "script": "0014"},
			},
		})
	})

	outs, err := c.SpendableOutputs(context.Background(), "mkAddr")
	require.NoError(t, err)
	assert.Equal(t, []chain.UnspentOutput{
		{TxID: "aa", OutputIndex: 1, Value: 5000, Script: "76a9"},
		{TxID: "cc", OutputIndex: 0, Value: 900, Script: "0014"},
	}, outs)
}

func TestClient_SpendableOutputs_UnknownAddress(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	})
	_, err := c.SpendableOutputs(context.Background(), "bogus")
	require.ErrorIs(t, err, gwerr.ErrInvalidAddress)
}

func TestClient_Balance(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/btc/test3/addrs/mkAddr/balance", r.URL.Path)
		writeJSON(t, w, map[string]any{"address": "mkAddr", "balance": 123456, "final_balance": 100000})
	})
	bal, err := c.Balance(context.Background(), "mkAddr")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), bal.Int64())
}

func TestClient_RawTransaction(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/btc/test3/txs/good":
			assert.Equal(t, "true", r.URL.Query().Get("includeHex"))
			writeJSON(t, w, map[string]any{"hash": "good", "hex": "0200000001"})
		case "/v1/btc/test3/txs/bad":
			writeJSON(t, w, map[string]any{"hash": "bad", "hex": "zz"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	raw, err := c.RawTransaction(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0, 0, 0, 1}, raw)

	_, err = c.RawTransaction(context.Background(), "bad")
	require.ErrorIs(t, err, gwerr.ErrRPC)

	_, err = c.RawTransaction(context.Background(), "missing")
	require.ErrorIs(t, err, gwerr.ErrTransactionNotFound)
}

func TestClient_TransactionStatus(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/btc/test3/txs/mined":
			writeJSON(t, w, map[string]any{"hash": "mined", "confirmations": 3})
		case "/v1/btc/test3/txs/mempool":
			writeJSON(t, w, map[string]any{"hash": "mempool", "confirmations": 0})
		case "/v1/btc/test3/txs/doublespent":
			writeJSON(t, w, map[string]any{"hash": "doublespent", "double_spend": true, "double_spend_tx": "ff"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	tests := []struct {
		hash string
		want chain.TxStatus
	}{
		{"mined", chain.TxStatus{Found: true, Confirmations: 3}},
		{"mempool", chain.TxStatus{Found: true}},
		{"doublespent", chain.TxStatus{Found: true, Rejected: true, Reason: "double spend by ff"}},
		{"unknown", chain.TxStatus{}},
	}
	for _, tt := range tests {
		got, err := c.TransactionStatus(context.Background(), tt.hash)
		require.NoError(t, err, tt.hash)
		assert.Equal(t, tt.want, got, tt.hash)
	}
}

func TestClient_PushTransaction(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/btc/test3/txs/push", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0102", body["tx"])
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]any{"tx": map[string]any{"hash": "abc"}})
	})
	c.token = "tok"

	hash, err := c.PushTransaction(context.Background(), []byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "abc", hash)
}

func TestClient_PushTransaction_TranslatesRejection(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Error validating transaction: Transaction with hash ff already exists."}`)
	})

	_, err := c.PushTransaction(context.Background(), []byte{1})
	require.ErrorIs(t, err, gwerr.ErrTxRejected)
	assert.Contains(t, err.Error(), "already sent")
}

func TestClient_DecodeTransaction(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/btc/test3/txs/decode", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"inputs": []map[string]any{
				{"addresses": []string{"mA"}},
				{"addresses": []string{"mB", "mA"}},
			},
		})
	})

	addrs, err := c.DecodeTransaction(context.Background(), []byte{1})
	require.NoError(t, err)
	assert.Equal(t, []string{"mA", "mB"}, addrs)
}

func TestClient_RetriesServerErrorsAndRateLimits(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			writeJSON(t, w, map[string]any{"low_fee_per_kb": 4096})
		}
	})

	rate, err := c.FeeRate(context.Background())
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad token"}`)
	})

	_, err := c.Balance(context.Background(), "mkAddr")
	require.ErrorIs(t, err, gwerr.ErrRPC)
	assert.Contains(t, err.Error(), "bad token")
	assert.Equal(t, int32(1), calls.Load())
}

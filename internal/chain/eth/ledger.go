// Package eth implements the account chain adapter for Ethereum, backed by a
// JSON-RPC node.
package eth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/metrics"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// Connection is the transport used to reach the node.
type Connection string

// Supported connections.
const (
	ConnectionHTTP      Connection = "http"
	ConnectionWebsocket Connection = "websocket"
)

// httpTimeout is the default HTTP request timeout.
const httpTimeout = 30 * time.Second

// ParseConnection parses a connection name. Empty means HTTP.
func ParseConnection(s string) (Connection, error) {
	switch Connection(strings.ToLower(strings.TrimSpace(s))) {
	case "", ConnectionHTTP:
		return ConnectionHTTP, nil
	case ConnectionWebsocket, "ws":
		return ConnectionWebsocket, nil
	default:
		return "", gwerr.WithDetails(gwerr.ErrInvalidConnection, map[string]string{
			"connection": s,
			"allowed":    "http, websocket",
		})
	}
}

// schemes returns the URL schemes a connection accepts.
func (c Connection) schemes() []string {
	if c == ConnectionWebsocket {
		return []string{"ws", "wss"}
	}
	return []string{"http", "https"}
}

// LedgerOptions configures a Ledger.
type LedgerOptions struct {
	// Connection selects the transport. The URL scheme must match it.
	Connection Connection
	// HTTPClient overrides the default client for HTTP connections.
	HTTPClient *http.Client
	// Retry overrides the retry policy for read calls.
	Retry *chain.RetryConfig
}

// Ledger is a chain.AccountLedger over go-ethereum's ethclient.
type Ledger struct {
	client *ethclient.Client
	retry  chain.RetryConfig
}

// Dial connects to the node at rawURL. The connection kind is taken from
// opts, never inferred from the URL.
func Dial(ctx context.Context, rawURL string, opts *LedgerOptions) (*Ledger, error) {
	if opts == nil {
		opts = &LedgerOptions{}
	}
	conn := opts.Connection
	if conn == "" {
		conn = ConnectionHTTP
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, gwerr.WithDetails(gwerr.ErrInvalidConnection, map[string]string{"url": rawURL})
	}
	if !schemeAllowed(conn, u.Scheme) {
		return nil, gwerr.WithDetails(gwerr.ErrInvalidConnection, map[string]string{
			"url":        rawURL,
			"connection": string(conn),
		})
	}

	var dialOpts []rpc.ClientOption
	if conn == ConnectionHTTP {
		httpClient := opts.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{
				Timeout: httpTimeout,
				Transport: &http.Transport{
					TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
				},
			}
		}
		dialOpts = append(dialOpts, rpc.WithHTTPClient(httpClient))
	}

	rpcClient, err := rpc.DialOptions(ctx, rawURL, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %w", gwerr.ErrRPC, u.Host, err)
	}

	l := &Ledger{client: ethclient.NewClient(rpcClient), retry: chain.DefaultRetryConfig()}
	if opts.Retry != nil {
		l.retry = *opts.Retry
	}
	return l, nil
}

func schemeAllowed(c Connection, scheme string) bool {
	for _, s := range c.schemes() {
		if strings.EqualFold(s, scheme) {
			return true
		}
	}
	return false
}

// Close releases the underlying connection.
func (l *Ledger) Close() {
	l.client.Close()
}

// Balance returns the latest balance of address in wei.
func (l *Ledger) Balance(ctx context.Context, address string) (*big.Int, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	return read(ctx, l, func() (*big.Int, error) {
		return l.client.BalanceAt(ctx, addr, nil)
	})
}

// EstimateGas estimates the gas needed for a value transfer.
func (l *Ledger) EstimateGas(ctx context.Context, call chain.CallRequest) (uint64, error) {
	from, err := NormalizeAddress(call.From)
	if err != nil {
		return 0, err
	}
	to, err := NormalizeAddress(call.To)
	if err != nil {
		return 0, err
	}
	msg := ethereum.CallMsg{From: from, To: &to, Value: call.Value, Gas: call.Gas}
	return read(ctx, l, func() (uint64, error) {
		return l.client.EstimateGas(ctx, msg)
	})
}

// GasPrice returns the node's suggested legacy gas price in wei.
func (l *Ledger) GasPrice(ctx context.Context) (*big.Int, error) {
	return read(ctx, l, func() (*big.Int, error) {
		return l.client.SuggestGasPrice(ctx)
	})
}

// PendingNonce returns the next nonce including pending transactions.
func (l *Ledger) PendingNonce(ctx context.Context, address string) (uint64, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return 0, err
	}
	return read(ctx, l, func() (uint64, error) {
		return l.client.PendingNonceAt(ctx, addr)
	})
}

// SendTransaction submits a signed transaction. It is never retried; node
// rejections are translated into stable messages.
func (l *Ledger) SendTransaction(ctx context.Context, raw []byte) (string, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return "", fmt.Errorf("%w: %w", gwerr.ErrInvalidTransaction, err)
	}

	start := time.Now()
	err := l.client.SendTransaction(ctx, tx)
	metrics.Global.RecordRPCCall(chain.ETH.String(), time.Since(start), err)
	if err != nil {
		return "", gwerr.Translate(fmt.Errorf("%w: %w", gwerr.ErrRPC, err))
	}
	return tx.Hash().Hex(), nil
}

// Receipt returns the receipt of a mined transaction, or
// ErrTransactionNotFound while it is pending.
func (l *Ledger) Receipt(ctx context.Context, hash string) (*chain.Receipt, error) {
	if !isTxHash(hash) {
		return nil, fmt.Errorf("%w: %q", gwerr.ErrInvalidInput, hash)
	}
	r, err := read(ctx, l, func() (*types.Receipt, error) {
		return l.client.TransactionReceipt(ctx, common.HexToHash(hash))
	})
	if errors.Is(err, ethereum.NotFound) {
		return nil, fmt.Errorf("%w: %s", gwerr.ErrTransactionNotFound, hash)
	}
	if err != nil {
		return nil, err
	}

	out := &chain.Receipt{Status: r.Status, GasUsed: r.GasUsed}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	return out, nil
}

// read runs one idempotent call with retries and metrics. Rate limiting and
// server errors from the node are retried.
func read[T any](ctx context.Context, l *Ledger, call func() (T, error)) (T, error) {
	start := time.Now()
	result, err := chain.RetryWithConfig(ctx, l.retry, func() (T, error) {
		v, err := call()
		return v, classify(err)
	})
	metrics.Global.RecordRPCCall(chain.ETH.String(), time.Since(start), err)
	return result, err
}

// classify marks transient transport failures as retryable and wraps other
// node errors as ErrRPC. ethereum.NotFound is passed through.
func classify(err error) error {
	if err == nil || errors.Is(err, ethereum.NotFound) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w", chain.ErrRateLimited, err)
		}
		if httpErr.StatusCode >= http.StatusInternalServerError {
			return chain.WrapRetryable(fmt.Errorf("%w: %w", gwerr.ErrRPC, err))
		}
	}
	return fmt.Errorf("%w: %w", gwerr.ErrRPC, err)
}

func isTxHash(s string) bool {
	return len(s) == 66 && strings.HasPrefix(s, "0x") && isHex(s[2:])
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

var _ chain.AccountLedger = (*Ledger)(nil)

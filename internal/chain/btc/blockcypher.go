// Package btc implements the UTXO chain adapter for Bitcoin, backed by the
// BlockCypher REST API.
package btc

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/metrics"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

const (
	// MainnetEndpoint is the BlockCypher API root for Bitcoin mainnet.
	MainnetEndpoint = "https://api.blockcypher.com/v1/btc/main"

	// TestnetEndpoint is the BlockCypher API root for Bitcoin testnet3.
	TestnetEndpoint = "https://api.blockcypher.com/v1/btc/test3"

	// httpTimeout is the default HTTP request timeout.
	httpTimeout = 30 * time.Second

	// maxResponseBody is the maximum response body size to read (4 MB).
	maxResponseBody = 4 << 20

	// minFeeRate is the relay floor in satoshis per byte.
	minFeeRate = 1
)

// errNotFound marks a 404 from the API. Callers map it to their own meaning.
var errNotFound = errors.New("blockcypher: not found")

// ClientOptions configures the BlockCypher client.
type ClientOptions struct {
	// BaseURL overrides the network endpoint (useful for testing).
	BaseURL string
	// Token is the optional BlockCypher access token.
	Token string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// Limiter overrides the default 3 req/s limiter.
	Limiter *chain.RateLimiter
	// Retry overrides the retry policy for rate-limited and 5xx responses.
	Retry *chain.RetryConfig
}

// Client is a BlockCypher API client. It is safe for concurrent use.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	rateLimiter *chain.RateLimiter
	retry       chain.RetryConfig
	pinned      bool // baseURL came from ClientOptions
}

// NewClient creates a BlockCypher client for the given network type.
func NewClient(network account.NetworkType, opts *ClientOptions) *Client {
	c := &Client{
		baseURL: MainnetEndpoint,
		httpClient: &http.Client{
			Timeout: httpTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		rateLimiter: chain.DefaultRateLimiter(),
		retry:       chain.DefaultRetryConfig(),
	}
	if network.IsTestnet() {
		c.baseURL = TestnetEndpoint
	}

	if opts != nil {
		if opts.BaseURL != "" {
			c.baseURL = strings.TrimRight(opts.BaseURL, "/")
			c.pinned = true
		}
		c.token = opts.Token
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
		if opts.Limiter != nil {
			c.rateLimiter = opts.Limiter
		}
		if opts.Retry != nil {
			c.retry = *opts.Retry
		}
	}

	return c
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ForNetwork returns a client for network that shares this client's HTTP
// client, token, limiter and retry policy. A base URL set through
// ClientOptions is kept as is.
func (c *Client) ForNetwork(network account.NetworkType) chain.UTXOLedger {
	next := *c
	if !c.pinned {
		next.baseURL = MainnetEndpoint
		if network.IsTestnet() {
			next.baseURL = TestnetEndpoint
		}
	}
	return &next
}

// chainInfo is the subset of the blockchain endpoint we use.
type chainInfo struct {
	Name           string `json:"name"`
	Height         uint64 `json:"height"`
	HighFeePerKB   int64  `json:"high_fee_per_kb"`
	MediumFeePerKB int64  `json:"medium_fee_per_kb"`
	LowFeePerKB    int64  `json:"low_fee_per_kb"`
}

// txRef is an output reference in the address endpoint.
type txRef struct {
	TxHash        string `json:"tx_hash"`
	TxOutputN     int64  `json:"tx_output_n"`
	Value         uint64 `json:"value"`
	Script        string `json:"script"`
	Confirmations uint64 `json:"confirmations"`
}

// addressInfo is the address endpoint response.
type addressInfo struct {
	Address      string  `json:"address"`
	Balance      int64   `json:"balance"`
	FinalBalance int64   `json:"final_balance"`
	TxRefs       []txRef `json:"txrefs"`
}

// txInput is an input of a decoded transaction.
type txInput struct {
	PrevHash  string   `json:"prev_hash"`
	OutputIdx int64    `json:"output_index"`
	Addresses []string `json:"addresses"`
}

// txInfo is the transaction endpoint response.
type txInfo struct {
	Hash          string    `json:"hash"`
	Hex           string    `json:"hex"`
	Confirmations uint64    `json:"confirmations"`
	BlockHeight   int64     `json:"block_height"`
	DoubleSpend   bool      `json:"double_spend"`
	DoubleSpendTx string    `json:"double_spend_tx"`
	Inputs        []txInput `json:"inputs"`
}

// pushResponse wraps the pushed transaction.
type pushResponse struct {
	Hash string  `json:"hash"`
	Tx   *txInfo `json:"tx"`
}

// apiError is BlockCypher's error body.
type apiError struct {
	Error string `json:"error"`
}

// FeeRate returns the low-priority fee rate in satoshis per byte:
// floor(low_fee_per_kb / 1024), never below the relay floor.
func (c *Client) FeeRate(ctx context.Context) (decimal.Decimal, error) {
	var info chainInfo
	if err := c.get(ctx, "", nil, &info); err != nil {
		return decimal.Zero, err
	}

	rate := info.LowFeePerKB / 1024
	if rate < minFeeRate {
		rate = minFeeRate
	}
	return decimal.NewFromInt(rate), nil
}

// SpendableOutputs lists the confirmed unspent outputs of address.
func (c *Client) SpendableOutputs(ctx context.Context, address string) ([]chain.UnspentOutput, error) {
	params := url.Values{
		"unspentOnly":   {"true"},
		"includeScript": {"true"},
	}

	var info addressInfo
	if err := c.get(ctx, "addrs/"+url.PathEscape(address), params, &info); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", gwerr.ErrInvalidAddress, address)
		}
		return nil, err
	}

	outputs := make([]chain.UnspentOutput, 0, len(info.TxRefs))
	for _, ref := range info.TxRefs {
		if ref.TxOutputN < 0 {
			continue
		}
		outputs = append(outputs, chain.UnspentOutput{
			TxID:        ref.TxHash,
			OutputIndex: uint32(ref.TxOutputN), //nolint:gosec // G115: checked non-negative above
			Value:       ref.Value,
			Script:      ref.Script,
		})
	}
	return outputs, nil
}

// Balance returns the confirmed balance of address in satoshis.
func (c *Client) Balance(ctx context.Context, address string) (*big.Int, error) {
	var info addressInfo
	if err := c.get(ctx, "addrs/"+url.PathEscape(address)+"/balance", nil, &info); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", gwerr.ErrInvalidAddress, address)
		}
		return nil, err
	}
	return big.NewInt(info.Balance), nil
}

// RawTransaction returns the serialized transaction with the given hash.
func (c *Client) RawTransaction(ctx context.Context, txID string) ([]byte, error) {
	var info txInfo
	params := url.Values{"includeHex": {"true"}}
	if err := c.get(ctx, "txs/"+url.PathEscape(txID), params, &info); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", gwerr.ErrTransactionNotFound, txID)
		}
		return nil, err
	}

	raw, err := hex.DecodeString(info.Hex)
	if err != nil {
		return nil, gwerr.WithDetails(gwerr.ErrRPC, map[string]string{
			"tx":    txID,
			"error": "malformed transaction hex",
		})
	}
	return raw, nil
}

// TransactionStatus reports whether the transaction is known, how many
// confirmations it has and whether it lost a double spend.
func (c *Client) TransactionStatus(ctx context.Context, txID string) (chain.TxStatus, error) {
	var info txInfo
	if err := c.get(ctx, "txs/"+url.PathEscape(txID), nil, &info); err != nil {
		if errors.Is(err, errNotFound) {
			return chain.TxStatus{}, nil
		}
		return chain.TxStatus{}, err
	}

	status := chain.TxStatus{
		Found:         true,
		Confirmations: info.Confirmations,
	}
	if info.DoubleSpend && info.Confirmations == 0 {
		status.Rejected = true
		status.Reason = "double spend"
		if info.DoubleSpendTx != "" {
			status.Reason += " by " + info.DoubleSpendTx
		}
	}
	return status, nil
}

// PushTransaction broadcasts a raw transaction and returns its hash.
// Node rejections are translated into stable messages.
func (c *Client) PushTransaction(ctx context.Context, raw []byte) (string, error) {
	var resp pushResponse
	body := map[string]string{"tx": hex.EncodeToString(raw)}
	if err := c.post(ctx, "txs/push", body, &resp); err != nil {
		return "", gwerr.Translate(err)
	}

	switch {
	case resp.Tx != nil && resp.Tx.Hash != "":
		return resp.Tx.Hash, nil
	case resp.Hash != "":
		return resp.Hash, nil
	default:
		return "", gwerr.WithDetails(gwerr.ErrRPC, map[string]string{"error": "push response without hash"})
	}
}

// DecodeTransaction returns the distinct input addresses of a raw
// transaction, in first-seen order.
func (c *Client) DecodeTransaction(ctx context.Context, raw []byte) ([]string, error) {
	var info txInfo
	body := map[string]string{"tx": hex.EncodeToString(raw)}
	if err := c.post(ctx, "txs/decode", body, &info); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var addresses []string
	for _, in := range info.Inputs {
		for _, addr := range in.Addresses {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			addresses = append(addresses, addr)
		}
	}
	return addresses, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// do performs one logical request, retrying rate-limited and server errors.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	start := time.Now()
	_, err := chain.RetryWithConfig(ctx, c.retry, func() (struct{}, error) {
		return struct{}{}, c.doOnce(ctx, method, path, params, body, out)
	})
	metrics.Global.RecordRPCCall(chain.BTC.String(), time.Since(start), err)
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if params == nil {
		params = url.Values{}
	}
	if c.token != "" {
		params.Set("token", c.token)
	}

	reqURL := c.baseURL
	if path != "" {
		reqURL += "/" + path
	}
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if err := c.rateLimiter.WaitURL(ctx, reqURL); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL is built from config, not user input
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", gwerr.ErrRPC, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: reading response: %w", gwerr.ErrRPC, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &chain.RetryAfterError{
			Err:   chain.ErrRateLimited,
			After: chain.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		return chain.WrapRetryable(statusError(resp.StatusCode, data))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return statusError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: parsing response: %w", gwerr.ErrRPC, err)
	}
	return nil
}

// statusError builds an ErrRPC carrying the API's own error text.
func statusError(status int, data []byte) error {
	msg := strings.TrimSpace(string(data))
	var apiErr apiError
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	return fmt.Errorf("%w: status %d: %s", gwerr.ErrRPC, status, msg)
}

// Compile-time interface check
var _ chain.UTXOLedger = (*Client)(nil)

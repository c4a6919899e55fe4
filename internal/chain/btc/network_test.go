package btc

import (
	"context"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

func instantPoller(waits *[]time.Duration) *chain.Poller {
	return chain.NewPoller(chain.WithSleep(func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}))
}

func TestNetwork_Defaults(t *testing.T) {
	t.Parallel()

	n := New(account.Testnet, &Options{Ledger: &fakeLedger{}})
	assert.Equal(t, chain.BTC, n.ID())
	assert.Equal(t, "bitcoin", n.State().Protocol())
	assert.Equal(t, account.Testnet, n.State().NetworkType())
	assert.Equal(t, "https://live.blockcypher.com/btc-testnet/tx/ab", n.Explorer().TransactionLink("ab"))
	assert.Equal(t, uint64(546), n.selector.Dust)
	assert.True(t, n.feeRate.Equal(decimal.NewFromInt(DefaultFeeRate)))

	custom := New(account.Mainnet, &Options{Ledger: &fakeLedger{}, ExplorerURL: "https://example.com/btc/", Dust: 1000, MinSpend: 1})
	assert.Equal(t, "https://example.com/btc/block/7", custom.Explorer().BlockLink(7))
	assert.Equal(t, uint64(1000), custom.selector.Dust)
	assert.Equal(t, uint64(1), custom.selector.MinSpend)
}

func TestNetwork_ConnectNotifiesAccountChange(t *testing.T) {
	t.Parallel()

	n := New(account.Testnet, &Options{Ledger: &fakeLedger{}})
	var changes [][2]string
	n.State().OnAccountChange(func(previous, current string) {
		changes = append(changes, [2]string{previous, current})
	})

	kp, err := n.GenerateKeypair()
	require.NoError(t, err)
	assert.Empty(t, n.State().Address(), "generating must not connect")

	require.NoError(t, n.Connect(kp.PrivateKey))
	assert.Equal(t, kp.Address, n.State().Address())
	require.NoError(t, n.Connect(kp.PrivateKey))
	assert.Equal(t, [][2]string{{"", kp.Address}}, changes)

	main, err := GenerateKeypair(account.Mainnet)
	require.NoError(t, err)
	require.ErrorIs(t, n.Connect(main.PrivateKey), gwerr.ErrInvalidKey)
	assert.Equal(t, kp.Address, n.State().Address())
}

func TestNetwork_RequiresConnection(t *testing.T) {
	t.Parallel()

	n := New(account.Testnet, &Options{Ledger: &fakeLedger{}})
	_, err := n.Balance(context.Background(), "")
	require.ErrorIs(t, err, gwerr.ErrNotConnected)

	_, err = n.CreateTransaction(context.Background(), chain.SendRequest{To: "x", Amount: big.NewInt(1)})
	require.ErrorIs(t, err, gwerr.ErrNotConnected)

	_, err = n.SignTransaction(context.Background(), &UnsignedTx{Packet: nil})
	require.ErrorIs(t, err, gwerr.ErrInvalidTransaction)
}

func TestNetwork_SendFlow(t *testing.T) {
	t.Parallel()

	priv, from := testKey(t, 11)
	_, to := testKey(t, 12)
	fromScript, err := addressScript(from, account.Testnet)
	require.NoError(t, err)
	prev, raw := fundingTx(t, 100000, fromScript, false, 7)
	ledger := newLedgerWith(raw)
	ledger.statuses = []chain.TxStatus{{}, {Found: true}, {Found: true, Confirmations: 1}}

	var waits []time.Duration
	n := New(account.Testnet, &Options{Ledger: ledger, Poller: instantPoller(&waits)})

	wif, err := btcutil.NewWIF(priv, Params(account.Testnet), true)
	require.NoError(t, err)
	require.NoError(t, n.Connect(wif.String()))

	utx, err := n.CreateTransaction(context.Background(), chain.SendRequest{To: to, Amount: big.NewInt(40000)})
	require.NoError(t, err)

	signed, err := n.SignTransaction(context.Background(), utx)
	require.NoError(t, err)
	verifyInputs(t, signed, map[wire.OutPoint]*wire.TxOut{
		{Hash: prev.TxHash(), Index: 0}: prev.TxOut[0],
	})

	hash, err := n.BroadcastTransaction(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, signed.Hash, hash)
	require.Len(t, ledger.pushed, 1)

	state, err := n.WaitForConfirmation(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, chain.Confirmed, state)
	assert.Equal(t, chain.DefaultSchedule()[:2], waits)
}

func TestNetwork_WaitForConfirmation_DoubleSpend(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{statuses: []chain.TxStatus{{Found: true, Rejected: true, Reason: "double spend"}}}
	var waits []time.Duration
	n := New(account.Testnet, &Options{Ledger: ledger, Poller: instantPoller(&waits)})

	state, err := n.WaitForConfirmation(context.Background(), "ff")
	require.ErrorIs(t, err, gwerr.ErrTxRejected)
	assert.Equal(t, chain.Rejected, state)
	assert.Empty(t, waits)
}

func TestNetwork_BroadcastPropagatesRejection(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{pushErr: gwerr.ErrTxRejected}
	n := New(account.Testnet, &Options{Ledger: ledger})

	_, err := n.BroadcastTransaction(context.Background(), &chain.SignedTx{Raw: []byte{1}})
	require.ErrorIs(t, err, gwerr.ErrTxRejected)

	_, err = n.BroadcastTransaction(context.Background(), &chain.SignedTx{})
	require.ErrorIs(t, err, gwerr.ErrInvalidTransaction)
}

func TestNetwork_RecoverTransactionNeedsDecoder(t *testing.T) {
	t.Parallel()

	n := New(account.Testnet, &Options{Ledger: &fakeLedger{}})
	_, err := n.RecoverTransaction(context.Background(), &chain.SignedTx{Raw: []byte{1}})
	require.ErrorIs(t, err, gwerr.ErrNotSupported)
}

// recordingTransport answers every request with an empty address balance and
// remembers the requested URLs.
type recordingTransport struct {
	mu   sync.Mutex
	urls []string
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	rt.urls = append(rt.urls, req.URL.Scheme+"://"+req.URL.Host+req.URL.Path)
	rt.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{"balance": 42}`)),
		Request:    req,
	}, nil
}

func TestNetwork_LedgerFollowsNetworkType(t *testing.T) {
	t.Parallel()

	rt := &recordingTransport{}
	client := NewClient(account.Mainnet, &ClientOptions{
		HTTPClient: &http.Client{Transport: rt},
		Limiter:    chain.NewRateLimiter(1000, 10),
	})
	n := New(account.Mainnet, &Options{Ledger: client})
	ctx := context.Background()

	const (
		mainAddr = "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"
		testAddr = "mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn"
	)

	_, err := n.Balance(ctx, mainAddr)
	require.NoError(t, err)

	n.State().SetNetworkType(account.Testnet)
	bal, err := n.Balance(ctx, testAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(42), bal.Int64())
	_, err = n.Balance(ctx, mainAddr)
	require.ErrorIs(t, err, gwerr.ErrInvalidAddress, "mainnet address rejected on testnet")

	require.Len(t, rt.urls, 2)
	assert.Equal(t, MainnetEndpoint+"/addrs/"+mainAddr+"/balance", rt.urls[0])
	assert.Equal(t, TestnetEndpoint+"/addrs/"+testAddr+"/balance", rt.urls[1])
	assert.Equal(t, "https://live.blockcypher.com/btc-testnet/tx/ab", n.Explorer().TransactionLink("ab"))

	n.State().SetNetworkType(account.Mainnet)
	_, err = n.Balance(ctx, mainAddr)
	require.NoError(t, err)
	require.Len(t, rt.urls, 3)
	assert.Equal(t, MainnetEndpoint+"/addrs/"+mainAddr+"/balance", rt.urls[2])
}

func TestNetwork_DefaultLedgerFollowsNetworkType(t *testing.T) {
	t.Parallel()

	n := New(account.Mainnet, nil)
	assert.Equal(t, MainnetEndpoint, n.currentLedger().(*Client).BaseURL())

	n.State().SetNetworkType(account.Testnet)
	assert.Equal(t, TestnetEndpoint, n.currentLedger().(*Client).BaseURL())
}

func TestNetwork_FixedLedgerKeptOnNetworkChange(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{}
	n := New(account.Mainnet, &Options{Ledger: ledger})
	n.State().SetNetworkType(account.Testnet)
	assert.Same(t, ledger, n.currentLedger())
}

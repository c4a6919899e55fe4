package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	testETHKey     = "0x4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"
	testETHAddress = "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"
	testETHTo      = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"

	testBTCTo   = "mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn"
	testFakeKey = "fake-key"
	testFrom    = "from-address"
	testHash    = "9f0c5ba7c36ef3b2b6f9a4d0b8a4f2e1d6c3b2a19f8e7d6c5b4a39281706f5e4"
)

// fakeUnsigned is a prepared transaction with a known fee.
type fakeUnsigned struct {
	id  chain.ID
	fee *big.Int
}

func (u *fakeUnsigned) Chain() chain.ID { return u.id }
func (u *fakeUnsigned) Fee() *big.Int   { return u.fee }

// fakeNetwork is a scripted chain.Network.
type fakeNetwork struct {
	id    chain.ID
	state *account.State

	balance      *big.Int
	fee          *big.Int
	createErr    error
	broadcastErr error
	status       chain.TxStatus
	statusErr    error
	waitState    chain.ConfirmationState
	waitErr      error
	signers      []string

	lastRequest   chain.SendRequest
	signed        int
	broadcasts    int
	waits         int
	balanceLookup string
	closed        bool
}

func newFakeNetwork(id chain.ID, network account.NetworkType) *fakeNetwork {
	return &fakeNetwork{
		id:        id,
		state:     account.NewState(network, id.Protocol()),
		balance:   big.NewInt(150000000),
		fee:       big.NewInt(2260),
		waitState: chain.Confirmed,
	}
}

func (n *fakeNetwork) ID() chain.ID          { return n.id }
func (n *fakeNetwork) State() *account.State { return n.state }
func (n *fakeNetwork) Explorer() chain.Explorer {
	return chain.NewExplorerLinks("https://explorer.test")
}
func (n *fakeNetwork) GenerateKeypair() (chain.Keypair, error) {
	return chain.Keypair{Address: testFrom, PrivateKey: testFakeKey}, nil
}

func (n *fakeNetwork) Connect(privateKey string) error {
	if privateKey != testFakeKey {
		return gwerr.ErrInvalidKey
	}
	n.state.SetAddress(testFrom)
	return nil
}

func (n *fakeNetwork) Balance(_ context.Context, address string) (*big.Int, error) {
	n.balanceLookup = address
	return n.balance, nil
}

func (n *fakeNetwork) CreateTransaction(_ context.Context, req chain.SendRequest) (chain.UnsignedTx, error) {
	n.lastRequest = req
	if n.createErr != nil {
		return nil, n.createErr
	}
	return &fakeUnsigned{id: n.id, fee: n.fee}, nil
}

func (n *fakeNetwork) SignTransaction(_ context.Context, _ chain.UnsignedTx) (*chain.SignedTx, error) {
	n.signed++
	return &chain.SignedTx{Raw: []byte{0xca, 0xfe}, Hash: testHash}, nil
}

func (n *fakeNetwork) BroadcastTransaction(_ context.Context, tx *chain.SignedTx) (string, error) {
	n.broadcasts++
	if n.broadcastErr != nil {
		return "", n.broadcastErr
	}
	return tx.Hash, nil
}

func (n *fakeNetwork) TransactionStatus(_ context.Context, _ string) (chain.TxStatus, error) {
	return n.status, n.statusErr
}

func (n *fakeNetwork) WaitForConfirmation(_ context.Context, _ string) (chain.ConfirmationState, error) {
	n.waits++
	return n.waitState, n.waitErr
}

func (n *fakeNetwork) RecoverTransaction(_ context.Context, _ *chain.SignedTx) ([]string, error) {
	return n.signers, nil
}

func (n *fakeNetwork) Close() { n.closed = true }

// fakeSigningNetwork adds message signing.
type fakeSigningNetwork struct {
	*fakeNetwork
}

func (n *fakeSigningNetwork) SignMessage(message []byte) ([]byte, error) {
	if n.state.Address() == "" {
		return nil, gwerr.ErrNotConnected
	}
	sig := make([]byte, 65)
	copy(sig, message)
	sig[64] = 27
	return sig, nil
}

// fakeFactory hands out one prepared adapter.
type fakeFactory struct {
	network chain.Network
	err     error
	calls   int
}

func (f *fakeFactory) NewNetwork(_ context.Context, _ chain.ID, _ account.NetworkType) (chain.Network, error) {
	f.calls++
	return f.network, f.err
}

func TestMain(m *testing.M) {
	_ = os.Unsetenv(EnvPrivateKey)
	os.Exit(m.Run())
}

// resetFlags restores every flag to its default between runs.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	walkCommands(rootCmd, func(c *cobra.Command) {
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
	})
}

// runCLI executes the root command with args against factory and returns
// what was written to stdout and stderr.
func runCLI(t *testing.T, factory chain.Factory, args ...string) (string, string, error) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	origOut, origErr, origFactory := stdout, stderr, factoryOverride
	t.Cleanup(func() {
		stdout, stderr, factoryOverride = origOut, origErr, origFactory
		resetFlags()
	})
	stdout, stderr, factoryOverride = &outBuf, &errBuf, factory

	home := t.TempDir()
	t.Setenv("HOME", home)

	resetFlags()
	rootCmd.SetArgs(append([]string{"--home", home}, args...))
	err := Execute()
	return outBuf.String(), errBuf.String(), err
}

// withPrompts replaces prompt functions for one test.
func withPrompts(t *testing.T, secret string, confirm bool) {
	t.Helper()
	origSecret, origConfirm, origMnemonic := promptSecretFn, promptConfirmFn, promptMnemonicFn
	t.Cleanup(func() {
		promptSecretFn, promptConfirmFn, promptMnemonicFn = origSecret, origConfirm, origMnemonic
	})
	promptSecretFn = func(_ string) (string, error) { return secret, nil }
	promptConfirmFn = func(_ string) bool { return confirm }
	promptMnemonicFn = func() (string, error) { return testMnemonic, nil }
}

func decodeJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

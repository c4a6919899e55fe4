package cli

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/config"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

func TestSetCmdContext_GetCmdContext_Roundtrip(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{}
	cc := &CommandContext{Cfg: config.Defaults(), Chain: chain.ETH}
	SetCmdContext(cmd, cc)
	assert.Same(t, cc, GetCmdContext(cmd))

	replacement := &CommandContext{Chain: chain.BTC}
	SetCmdContext(cmd, replacement)
	assert.Same(t, replacement, GetCmdContext(cmd), "latest context wins")
}

func TestGetCmdContext_NilContext(t *testing.T) {
	t.Parallel()

	assert.Nil(t, GetCmdContext(nil))
	assert.Nil(t, GetCmdContext(&cobra.Command{}))

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	assert.Nil(t, GetCmdContext(cmd))

	_, err := mustCmdContext(cmd)
	require.ErrorIs(t, err, gwerr.ErrGeneral)
}

package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rsc.io/qr"
)

func TestDefaultQRConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultQRConfig()
	assert.Equal(t, qr.L, cfg.Level)
	assert.Equal(t, 1, cfg.QuietZone)
	assert.True(t, cfg.HalfBlocks)
}

func TestPaymentURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scheme, address, want string
	}{
		{"bitcoin", "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", "bitcoin:1BoatSLRHtKNngkdXEeobR76b53LETtpyT"},
		{"Ethereum", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "ethereum:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		{"", "mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn", "mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PaymentURI(tt.scheme, tt.address))
	}
}

func TestCanRenderQR(t *testing.T) {
	t.Parallel()
	assert.False(t, CanRenderQR(&bytes.Buffer{}))
	assert.False(t, CanRenderQR(nil))
}

func TestRenderQR_NonTerminalWritesNothing(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderQR(&buf, PaymentURI("bitcoin", "1BoatSLRHtKNngkdXEeobR76b53LETtpyT"), DefaultQRConfig()))
	assert.Empty(t, buf.String())
}

package cli

import (
	"context"
	"math/big"

	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/chain/btc"
	"github.com/scifier/blockchain-gateway/internal/chain/eth"
	"github.com/scifier/blockchain-gateway/internal/config"
	"github.com/scifier/blockchain-gateway/internal/output"
)

// Compile-time interface checks.
var (
	_ ConfigProvider     = (*config.Config)(nil)
	_ LogWriter          = (*config.Logger)(nil)
	_ chain.LogWriter    = (*config.Logger)(nil)
	_ FormatProvider     = (*output.Formatter)(nil)
	_ feeReporter        = (*btc.UnsignedTx)(nil)
	_ feeReporter        = (*eth.UnsignedTx)(nil)
	_ messageSigner      = (*eth.Network)(nil)
	_ transactionDecoder = (*btc.Network)(nil)
	_ transactionDecoder = (*eth.Network)(nil)
)

// ConfigProvider provides read access to configuration values.
// This interface enables mocking configuration in tests.
type ConfigProvider interface {
	// GetHome returns the gateway home directory path.
	GetHome() string

	// GetLoggingLevel returns the configured logging level.
	GetLoggingLevel() string

	// GetLoggingFile returns the configured log file path.
	GetLoggingFile() string

	// GetOutputFormat returns the default output format.
	GetOutputFormat() string

	// IsVerbose returns true if verbose output is enabled.
	IsVerbose() bool
}

// LogWriter provides logging capabilities.
// This interface enables mocking logging in tests.
type LogWriter interface {
	// Debug logs a debug-level message.
	Debug(format string, args ...any)

	// Error logs an error-level message.
	Error(format string, args ...any)

	// Close closes the logger and releases resources.
	Close() error
}

// FormatProvider provides output format information.
// This interface enables mocking output formatting in tests.
type FormatProvider interface {
	// Format returns the current output format.
	Format() output.Format
}

// feeReporter is implemented by unsigned transactions that know their fee.
type feeReporter interface {
	Fee() *big.Int
}

// messageSigner is implemented by adapters that sign arbitrary messages.
type messageSigner interface {
	SignMessage(message []byte) ([]byte, error)
}

// transactionDecoder is implemented by adapters that can report the signers
// of a raw transaction.
type transactionDecoder interface {
	RecoverTransaction(ctx context.Context, tx *chain.SignedTx) ([]string, error)
}

package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var commandTimeout time.Duration

// contextWithTimeout bounds a command's network work. --timeout, when set,
// replaces the command's own default.
func contextWithTimeout(cmd *cobra.Command, fallback time.Duration) (context.Context, context.CancelFunc) {
	d := fallback
	if commandTimeout > 0 {
		d = commandTimeout
	}

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	return context.WithTimeout(base, d)
}

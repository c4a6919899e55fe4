package errors

import (
	"errors"
	"strings"
)

// ledgerMessage maps a fragment of a raw node/API error message to the
// stable message shown to callers and the sentinel whose code it carries.
type ledgerMessage struct {
	fragments []string
	message   string
	base      *GatewayError
}

//nolint:gochecknoglobals // Static lookup table
var ledgerMessages = []ledgerMessage{
	{[]string{"user denied account authorization"}, "user denied account authorization", ErrSigning},
	{[]string{"user denied transaction signature"}, "user denied transaction signature", ErrSigning},
	{[]string{"out of gas", "intrinsic gas too low", "gas limit is too low"}, "gas limit too low", ErrTxRejected},
	{[]string{"insufficient funds"}, "insufficient funds", ErrInsufficientFunds},
	{[]string{"always failing transaction", "execution reverted"}, "this transaction will fail", ErrTxRejected},
	{[]string{"transaction receipt"}, "failed to check transaction receipt, please retry", ErrRPC},
	{[]string{"transaction was not mined"}, ErrConfirmationTimeout.Message, ErrConfirmationTimeout},
	{[]string{"known transaction", "already known", "already exists"}, "this transaction is already sent", ErrTxRejected},
	{[]string{"replacement transaction underpriced"}, "replacement transaction is underpriced", ErrTxRejected},
	{[]string{"nonce too low"}, "nonce too low, please retry", ErrTxRejected},
	{[]string{"exceeds block gas limit"}, "block gas limit exceeded, please retry", ErrTxRejected},
	{[]string{"double spend", "double-spend", "missing inputs"}, "transaction inputs are already spent", ErrTxRejected},
}

// Translate maps a raw ledger or signer error to a GatewayError with a stable,
// human-readable message. The original error is kept as the cause so callers
// can still inspect it. A bare GatewayError, or an error that matches no known
// fragment, is returned unchanged. Wrapped errors are matched on their full
// text, so an RPC failure carrying a node message is still translated.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var ge *GatewayError
	if errors.As(err, &ge) && ge == err { //nolint:errorlint // identity check on the outermost error
		return err
	}

	raw := strings.ToLower(err.Error())
	for _, lm := range ledgerMessages {
		for _, fragment := range lm.fragments {
			if strings.Contains(raw, fragment) {
				return &GatewayError{
					Code:     lm.base.Code,
					Message:  lm.message,
					Cause:    err,
					ExitCode: lm.base.ExitCode,
				}
			}
		}
	}

	return err
}

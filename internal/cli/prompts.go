//nolint:gochecknoglobals // prompt functions are swapped in tests
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/scifier/blockchain-gateway/internal/wallet"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// EnvPrivateKey supplies the signing key without a prompt.
const EnvPrivateKey = "GATEWAY_PRIVATE_KEY" // #nosec G101 -- variable name, not a credential

var (
	promptSecretFn   = promptSecret
	promptConfirmFn  = promptConfirm
	promptMnemonicFn = promptMnemonic

	stdin io.Reader = os.Stdin
)

// out is a helper for CLI output.
//
//nolint:errcheck // CLI output writes are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

// promptSecret prompts for a secret with hidden input.
func promptSecret(prompt string) (string, error) {
	out(stderr, "%s", prompt)

	secret, err := term.ReadPassword(syscall.Stdin)
	outln(stderr) // Add newline after hidden input

	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	defer wallet.ZeroBytes(secret)

	return strings.TrimSpace(string(secret)), nil
}

// promptConfirm asks a yes/no question, defaulting to no.
func promptConfirm(question string) bool {
	out(stderr, "%s [y/N]: ", question)

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes"
}

// promptMnemonic reads a recovery phrase with hidden input and validates it.
// Misspelled words come back as suggestions on the error.
func promptMnemonic() (string, error) {
	outln(stderr, "Enter your recovery phrase (all words on one line).")
	phrase, err := promptSecretFn("Mnemonic: ")
	if err != nil {
		return "", err
	}

	phrase = wallet.NormalizeMnemonicInput(phrase)
	if phrase == "" {
		return "", gwerr.WithSuggestion(gwerr.ErrInvalidInput, "no input provided")
	}
	if err := wallet.ValidateMnemonic(phrase); err != nil {
		return "", err
	}
	return phrase, nil
}

// readPrivateKey returns the signing key from the environment or a prompt.
func readPrivateKey(cc *CommandContext) (string, error) {
	if key := strings.TrimSpace(os.Getenv(EnvPrivateKey)); key != "" {
		cc.Log.Debug("using private key from %s", EnvPrivateKey)
		return key, nil
	}

	prompt := cc.PromptKey
	if prompt == nil {
		prompt = promptSecretFn
	}
	key, err := prompt(fmt.Sprintf("%s private key: ", strings.ToUpper(cc.Chain.String())))
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", gwerr.WithSuggestion(
			gwerr.ErrInvalidKey,
			fmt.Sprintf("enter a key or set %s", EnvPrivateKey),
		)
	}
	return key, nil
}

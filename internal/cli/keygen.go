//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scifier/blockchain-gateway/internal/wallet"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

var (
	// keygenMnemonic derives the key from a new BIP39 mnemonic.
	keygenMnemonic bool
	// keygenRestore derives the key from a prompted mnemonic.
	keygenRestore bool
	// keygenWords is the number of words for mnemonic generation.
	keygenWords int
	// keygenIndex is the address index under the BIP44 account.
	keygenIndex uint32
	// keygenPassphrase prompts for a BIP39 passphrase.
	keygenPassphrase bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new keypair",
	Long: `Generate a keypair for the selected chain and network.

By default a random key is created. With --mnemonic a new BIP39 phrase is
generated and the key is derived from it at m/44'/coin'/0'/0/index; with
--restore the phrase is read from the terminal instead.

Nothing is stored. Keep the printed key material safe.`,
	Example: `  gateway keygen --chain btc
  gateway keygen --chain eth --mnemonic --words 24
  gateway keygen --chain btc --network mainnet --restore --index 2`,
	RunE: runKeygen,
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	cc, err := mustCmdContext(cmd)
	if err != nil {
		return err
	}
	if keygenMnemonic && keygenRestore {
		return gwerr.WithSuggestion(gwerr.ErrInvalidInput, "use either --mnemonic or --restore")
	}

	result := KeygenResult{Chain: cc.Chain, Network: cc.Network.String()}

	if !keygenMnemonic && !keygenRestore {
		kp, err := generateKeypair(cc.Chain, cc.Network)
		if err != nil {
			return err
		}
		result.Address, result.PrivateKey = kp.Address, kp.PrivateKey
		cc.Log.Debug("generated %s keypair %s", cc.Chain, kp.Address)
		return cc.Fmt.Print(result)
	}

	var phrase string
	if keygenRestore {
		if phrase, err = promptMnemonicFn(); err != nil {
			return err
		}
	} else {
		if phrase, err = wallet.GenerateMnemonic(keygenWords); err != nil {
			return err
		}
		result.Mnemonic = phrase
	}

	var passphrase string
	if keygenPassphrase {
		if passphrase, err = promptSecretFn("BIP39 passphrase: "); err != nil {
			return err
		}
	}

	kp, err := keypairFromMnemonic(cc.Chain, phrase, passphrase, cc.Network, keygenIndex)
	if err != nil {
		return fmt.Errorf("deriving key: %w", err)
	}
	result.Address, result.PrivateKey = kp.Address, kp.PrivateKey
	result.Path = wallet.AddressPath(cc.Chain.DerivationPath(cc.Network), keygenIndex)
	cc.Log.Debug("derived %s keypair %s at %s", cc.Chain, kp.Address, result.Path)

	return cc.Fmt.Print(result)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().BoolVar(&keygenMnemonic, "mnemonic", false, "derive from a new BIP39 mnemonic")
	keygenCmd.Flags().BoolVar(&keygenRestore, "restore", false, "derive from an existing mnemonic (prompted)")
	keygenCmd.Flags().IntVar(&keygenWords, "words", 12, "mnemonic word count: 12 or 24")
	keygenCmd.Flags().Uint32Var(&keygenIndex, "index", 0, "address index")
	keygenCmd.Flags().BoolVar(&keygenPassphrase, "passphrase", false, "prompt for a BIP39 passphrase")
}

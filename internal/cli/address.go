//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/output"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// addressQR renders a payment QR code after the address.
var addressQR bool

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show and validate addresses",
	Long:  `Derive the address of a private key or check an address against a network.`,
}

var addressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the address of a private key",
	Long: `Show the address controlled by a private key.

The key is read from GATEWAY_PRIVATE_KEY or prompted with hidden input.
Use --qr to print a payment QR code for receiving funds.`,
	Example: `  gateway address show --chain eth
  gateway address show --chain btc --qr`,
	Args: cobra.NoArgs,
	RunE: runAddressShow,
}

var addressValidateCmd = &cobra.Command{
	Use:   "validate <address>",
	Short: "Check that an address is valid for the chain and network",
	Example: `  gateway address validate --chain btc mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn
  gateway address validate --chain eth 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed`,
	Args: cobra.ExactArgs(1),
	RunE: runAddressValidate,
}

func runAddressShow(cmd *cobra.Command, _ []string) error {
	cc, err := mustCmdContext(cmd)
	if err != nil {
		return err
	}
	key, err := readPrivateKey(cc)
	if err != nil {
		return err
	}
	address, err := addressFromKey(cc.Chain, key, cc.Network)
	if err != nil {
		return err
	}

	result := AddressResult{
		Chain:   cc.Chain,
		Network: cc.Network.String(),
		Address: address,
		Valid:   true,
		URI:     output.PaymentURI(cc.Chain.Protocol(), address),
		Link:    explorerFor(cc).AddressLink(address),
	}
	if err := cc.Fmt.Print(result); err != nil {
		return err
	}

	if addressQR && !cc.Fmt.IsJSON() {
		w := cc.Fmt.Writer()
		if !output.CanRenderQR(w) {
			cc.Progress.Warnf("QR codes need a terminal; showing %s", result.URI)
			return nil
		}
		outln(w)
		return output.RenderQR(w, result.URI, output.DefaultQRConfig())
	}
	return nil
}

func runAddressValidate(cmd *cobra.Command, args []string) error {
	cc, err := mustCmdContext(cmd)
	if err != nil {
		return err
	}

	address := args[0]
	result := AddressResult{Chain: cc.Chain, Network: cc.Network.String(), Address: address}

	err = validateAddress(cc.Chain, address, cc.Network)
	switch {
	case err == nil:
		result.Valid = true
		result.Link = explorerFor(cc).AddressLink(address)
	case errors.Is(err, gwerr.ErrInvalidAddress):
		cc.Log.Debug("address %s rejected: %v", address, err)
	default:
		return err
	}
	if err := cc.Fmt.Print(result); err != nil {
		return err
	}
	if !result.Valid {
		return err
	}
	return nil
}

// explorerFor returns link builders for the selected chain without building
// an adapter, honouring a configured explorer override.
func explorerFor(cc *CommandContext) *chain.ExplorerLinks {
	base := ""
	if cc.Cfg != nil {
		switch cc.Chain {
		case chain.BTC:
			base = cc.Cfg.Networks.BTC.ExplorerURL
		case chain.ETH:
			base = cc.Cfg.Networks.ETH.ExplorerURL
		}
	}
	if base == "" {
		base = chain.DefaultExplorer(cc.Chain, cc.Network)
	}
	return chain.NewExplorerLinks(base)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	addressCmd.AddCommand(addressShowCmd)
	addressCmd.AddCommand(addressValidateCmd)
	rootCmd.AddCommand(addressCmd)
	enrichParentLong(addressCmd)

	addressShowCmd.Flags().BoolVar(&addressQR, "qr", false, "print a payment QR code")
}

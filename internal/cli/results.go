package cli

import (
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/output"
)

// Amount is a value in both display and smallest units.
type Amount struct {
	Value string `json:"value"`
	Units string `json:"units"`
}

func newAmount(id chain.ID, units *big.Int) Amount {
	if units == nil {
		units = new(big.Int)
	}
	return Amount{
		Value: chain.FormatDecimalAmount(units, id.Decimals()),
		Units: units.String(),
	}
}

func (a Amount) display(id chain.ID) string {
	return a.Value + " " + strings.ToUpper(id.String())
}

// KeygenResult is the output of keygen.
type KeygenResult struct {
	Chain      chain.ID `json:"chain"`
	Network    string   `json:"network"`
	Address    string   `json:"address"`
	PrivateKey string   `json:"private_key"`
	Mnemonic   string   `json:"mnemonic,omitempty"`
	Path       string   `json:"path,omitempty"`
}

// RenderText implements output.TextRenderer.
func (r KeygenResult) RenderText(w io.Writer) error {
	t := output.NewTable()
	t.AddRow("Chain:", r.Chain.String()+" ("+r.Network+")")
	t.AddRow("Address:", r.Address)
	t.AddRow("Private key:", r.PrivateKey)
	if r.Path != "" {
		t.AddRow("Path:", r.Path)
	}
	if r.Mnemonic != "" {
		t.AddRow("Mnemonic:", r.Mnemonic)
	}
	if err := t.Render(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\nStore the key material offline. Anyone holding it controls the funds.\n")
	return err
}

// AddressResult is the output of address show and validate.
type AddressResult struct {
	Chain   chain.ID `json:"chain"`
	Network string   `json:"network"`
	Address string   `json:"address"`
	Valid   bool     `json:"valid"`
	URI     string   `json:"uri,omitempty"`
	Link    string   `json:"link,omitempty"`
}

// RenderText implements output.TextRenderer.
func (r AddressResult) RenderText(w io.Writer) error {
	t := output.NewTable()
	t.AddRow("Address:", r.Address)
	t.AddRow("Chain:", r.Chain.String()+" ("+r.Network+")")
	if r.Valid {
		t.AddRow("Valid:", "yes")
	} else {
		t.AddRow("Valid:", "no")
	}
	if r.Link != "" {
		t.AddRow("Explorer:", r.Link)
	}
	return t.Render(w)
}

// BalanceResult is the output of balance.
type BalanceResult struct {
	Chain   chain.ID `json:"chain"`
	Network string   `json:"network"`
	Address string   `json:"address"`
	Balance Amount   `json:"balance"`
	// Cached is set when the balance came from the local cache.
	Cached    bool   `json:"cached,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// RenderText implements output.TextRenderer.
func (r BalanceResult) RenderText(w io.Writer) error {
	t := output.NewTable("CHAIN", "ADDRESS", "BALANCE")
	t.AlignRight(2)
	t.AddRow(r.Chain.String(), r.Address, r.Balance.display(r.Chain))
	return t.Render(w)
}

// SendResult is the output of send.
type SendResult struct {
	Chain   chain.ID `json:"chain"`
	Network string   `json:"network"`
	From    string   `json:"from"`
	To      string   `json:"to"`
	Amount  Amount   `json:"amount"`
	Fee     *Amount  `json:"fee,omitempty"`
	Hash    string   `json:"hash,omitempty"`
	State   string   `json:"state"`
	Link    string   `json:"link,omitempty"`
	Raw     string   `json:"raw,omitempty"`
	Signers []string `json:"signers,omitempty"`
}

// RenderText implements output.TextRenderer.
func (r SendResult) RenderText(w io.Writer) error {
	t := output.NewTable()
	t.AddRow("From:", r.From)
	t.AddRow("To:", r.To)
	t.AddRow("Amount:", r.Amount.display(r.Chain))
	if r.Fee != nil {
		t.AddRow("Fee:", r.Fee.display(r.Chain))
	}
	if r.Hash != "" {
		t.AddRow("Hash:", r.Hash)
	}
	t.AddRow("State:", r.State)
	if r.Link != "" {
		t.AddRow("Explorer:", r.Link)
	}
	if len(r.Signers) > 0 {
		t.AddRow("Signers:", strings.Join(r.Signers, ", "))
	}
	if r.Raw != "" {
		t.AddRow("Raw:", r.Raw)
	}
	return t.Render(w)
}

// StatusResult is the output of status.
type StatusResult struct {
	Chain         chain.ID `json:"chain"`
	Network       string   `json:"network"`
	Hash          string   `json:"hash"`
	State         string   `json:"state"`
	Confirmations uint64   `json:"confirmations"`
	Reason        string   `json:"reason,omitempty"`
	Link          string   `json:"link"`
}

// RenderText implements output.TextRenderer.
func (r StatusResult) RenderText(w io.Writer) error {
	t := output.NewTable()
	t.AddRow("Hash:", r.Hash)
	t.AddRow("State:", r.State)
	if r.Confirmations > 0 {
		t.AddRow("Confirmations:", strconv.FormatUint(r.Confirmations, 10))
	}
	if r.Reason != "" {
		t.AddRow("Reason:", r.Reason)
	}
	t.AddRow("Explorer:", r.Link)
	return t.Render(w)
}

// SignatureResult is the output of sign-message.
type SignatureResult struct {
	Chain     chain.ID `json:"chain"`
	Address   string   `json:"address"`
	Message   string   `json:"message"`
	Signature string   `json:"signature"`
}

// RenderText implements output.TextRenderer.
func (r SignatureResult) RenderText(w io.Writer) error {
	t := output.NewTable()
	t.AddRow("Address:", r.Address)
	t.AddRow("Message:", r.Message)
	t.AddRow("Signature:", r.Signature)
	return t.Render(w)
}

// stateOf maps a one-shot ledger status to a display state.
func stateOf(st chain.TxStatus) chain.ConfirmationState {
	switch {
	case st.Rejected:
		return chain.Rejected
	case st.Found && st.Confirmations >= 1:
		return chain.Confirmed
	default:
		return chain.Pending
	}
}

// Package account holds the reactive account and network state shared by
// every chain adapter.
package account

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// NetworkType selects between the production and test ledgers of a chain.
type NetworkType string

// Known network types. Unknown is the zero state before configuration.
const (
	Unknown NetworkType = ""
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// String returns the network type name.
func (n NetworkType) String() string {
	if n == Unknown {
		return "unknown"
	}
	return string(n)
}

// IsTestnet reports whether n is the test ledger.
func (n NetworkType) IsTestnet() bool {
	return n == Testnet
}

// ParseNetworkType parses a network name. A misspelled name gets a suggestion.
func ParseNetworkType(s string) (NetworkType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch NetworkType(name) {
	case Mainnet, Testnet:
		return NetworkType(name), nil
	case Unknown:
	}

	err := fmt.Errorf("%w: %q", gwerr.ErrInvalidNetwork, s)
	for _, candidate := range []NetworkType{Mainnet, Testnet} {
		if levenshtein.ComputeDistance(name, string(candidate)) <= 2 {
			return Unknown, gwerr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", candidate))
		}
	}
	return Unknown, err
}

// ChangeFunc is invoked with the previous and current value after a change.
type ChangeFunc func(previous, current string)

// State is the account/network state of one adapter instance.
// It is single-writer: callers must not mutate it from several goroutines.
type State struct {
	address     string
	networkType NetworkType
	protocol    string

	onAccountChange ChangeFunc
	onNetworkChange ChangeFunc
}

// NewState creates a state bound to the given network type and protocol.
func NewState(networkType NetworkType, protocol string) *State {
	return &State{networkType: networkType, protocol: protocol}
}

// Address returns the active account address, or "" if none is set.
func (s *State) Address() string {
	return s.address
}

// SetAddress replaces the active address. The account handler runs
// synchronously before SetAddress returns, and only if the value changed.
func (s *State) SetAddress(address string) {
	if s.address == address {
		return
	}
	previous := s.address
	s.address = address
	if s.onAccountChange != nil {
		s.onAccountChange(previous, address)
	}
}

// NetworkType returns the active network type.
func (s *State) NetworkType() NetworkType {
	return s.networkType
}

// SetNetworkType switches the network type, notifying the network handler
// on change.
func (s *State) SetNetworkType(networkType NetworkType) {
	if s.networkType == networkType {
		return
	}
	previous := s.networkType
	s.networkType = networkType
	if s.onNetworkChange != nil {
		s.onNetworkChange(string(previous), string(networkType))
	}
}

// Protocol returns the protocol identifier ("bitcoin", "ethereum").
func (s *State) Protocol() string {
	return s.protocol
}

// SetProtocol sets the protocol identifier once. Later calls are ignored.
func (s *State) SetProtocol(protocol string) {
	if s.protocol == "" {
		s.protocol = protocol
	}
}

// OnAccountChange registers the account handler, replacing any previous one.
// A nil handler disables notification.
func (s *State) OnAccountChange(fn ChangeFunc) {
	s.onAccountChange = fn
}

// OnNetworkChange registers the network handler, replacing any previous one.
func (s *State) OnNetworkChange(fn ChangeFunc) {
	s.onNetworkChange = fn
}

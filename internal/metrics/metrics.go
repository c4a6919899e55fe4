// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// RPC metrics
	rpcCallsTotal   atomic.Int64
	rpcErrorsTotal  atomic.Int64
	rpcLatencyNanos atomic.Int64

	// Chain-specific RPC calls
	btcRPCCalls atomic.Int64
	ethRPCCalls atomic.Int64

	// Coin selection
	selectionsTotal  atomic.Int64
	selectionsFailed atomic.Int64
	dustAbsorbed     atomic.Int64

	// Confirmation polling
	pollsTotal     atomic.Int64
	confirmed      atomic.Int64
	rejected       atomic.Int64
	exhausted      atomic.Int64
	broadcastTotal atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRPCCall records a ledger call with its duration and success status.
func (m *Metrics) RecordRPCCall(chain string, duration time.Duration, err error) {
	m.rpcCallsTotal.Add(1)
	m.rpcLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.rpcErrorsTotal.Add(1)
	}

	switch chain {
	case "btc":
		m.btcRPCCalls.Add(1)
	case "eth":
		m.ethRPCCalls.Add(1)
	}
}

// RecordSelection records one coin selection. absorbed is the change that
// fell below the dust threshold and went to the fee.
func (m *Metrics) RecordSelection(absorbed uint64, err error) {
	m.selectionsTotal.Add(1)
	if err != nil {
		m.selectionsFailed.Add(1)
		return
	}
	if absorbed > 0 {
		m.dustAbsorbed.Add(1)
	}
}

// RecordBroadcast records a successful broadcast.
func (m *Metrics) RecordBroadcast() {
	m.broadcastTotal.Add(1)
}

// RecordPoll records a single status poll.
func (m *Metrics) RecordPoll() {
	m.pollsTotal.Add(1)
}

// Outcome is the terminal result of a confirmation wait.
type Outcome int

// Poll outcomes.
const (
	OutcomeConfirmed Outcome = iota
	OutcomeRejected
	OutcomeExhausted
)

// RecordOutcome records the terminal state of a confirmation wait.
func (m *Metrics) RecordOutcome(o Outcome) {
	switch o {
	case OutcomeConfirmed:
		m.confirmed.Add(1)
	case OutcomeRejected:
		m.rejected.Add(1)
	case OutcomeExhausted:
		m.exhausted.Add(1)
	}
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RPCCallsTotal    int64 `json:"rpc_calls_total"`
	RPCErrorsTotal   int64 `json:"rpc_errors_total"`
	RPCLatencyNanos  int64 `json:"rpc_latency_nanos"`
	BTCRPCCalls      int64 `json:"btc_rpc_calls"`
	ETHRPCCalls      int64 `json:"eth_rpc_calls"`
	SelectionsTotal  int64 `json:"selections_total"`
	SelectionsFailed int64 `json:"selections_failed"`
	DustAbsorbed     int64 `json:"dust_absorbed"`
	BroadcastTotal   int64 `json:"broadcast_total"`
	PollsTotal       int64 `json:"polls_total"`
	Confirmed        int64 `json:"confirmed"`
	Rejected         int64 `json:"rejected"`
	Exhausted        int64 `json:"exhausted"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RPCCallsTotal:    m.rpcCallsTotal.Load(),
		RPCErrorsTotal:   m.rpcErrorsTotal.Load(),
		RPCLatencyNanos:  m.rpcLatencyNanos.Load(),
		BTCRPCCalls:      m.btcRPCCalls.Load(),
		ETHRPCCalls:      m.ethRPCCalls.Load(),
		SelectionsTotal:  m.selectionsTotal.Load(),
		SelectionsFailed: m.selectionsFailed.Load(),
		DustAbsorbed:     m.dustAbsorbed.Load(),
		BroadcastTotal:   m.broadcastTotal.Load(),
		PollsTotal:       m.pollsTotal.Load(),
		Confirmed:        m.confirmed.Load(),
		Rejected:         m.rejected.Load(),
		Exhausted:        m.exhausted.Load(),
	}
}

// RPCCallsTotal returns the total number of RPC calls made.
func (m *Metrics) RPCCallsTotal() int64 {
	return m.rpcCallsTotal.Load()
}

// RPCErrorsTotal returns the total number of RPC errors.
func (m *Metrics) RPCErrorsTotal() int64 {
	return m.rpcErrorsTotal.Load()
}

// RPCLatencyAvgMs returns the average RPC latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	calls := m.rpcCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.rpcLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.rpcCallsTotal.Store(0)
	m.rpcErrorsTotal.Store(0)
	m.rpcLatencyNanos.Store(0)
	m.btcRPCCalls.Store(0)
	m.ethRPCCalls.Store(0)
	m.selectionsTotal.Store(0)
	m.selectionsFailed.Store(0)
	m.dustAbsorbed.Store(0)
	m.broadcastTotal.Store(0)
	m.pollsTotal.Store(0)
	m.confirmed.Store(0)
	m.rejected.Store(0)
	m.exhausted.Store(0)
}

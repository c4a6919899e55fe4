package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scifier/blockchain-gateway/internal/metrics"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// ConfirmationState is the state of a confirmation wait.
type ConfirmationState int

// Confirmation states. Pending is the only non-terminal state.
const (
	Pending ConfirmationState = iota
	Confirmed
	Rejected
	Exhausted
)

// String returns the state name.
func (s ConfirmationState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Rejected:
		return "rejected"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// LogWriter provides logging capabilities.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// StatusFunc queries the ledger once for the status of a transaction.
// An error wrapping ErrTxRejected is terminal; any other error is treated as
// transient and the poll is repeated.
type StatusFunc func(ctx context.Context) (TxStatus, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// DefaultSchedule returns the wait before each retry poll:
// 1.25s, 2.5s, 5s, 10s, 20s. With the initial poll that is six polls.
func DefaultSchedule() []time.Duration {
	return []time.Duration{
		1250 * time.Millisecond,
		2500 * time.Millisecond,
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
	}
}

// Poller waits for a transaction to reach a terminal state on a bounded
// backoff schedule.
type Poller struct {
	schedule []time.Duration
	sleep    SleepFunc
	logger   LogWriter
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithSchedule replaces the backoff schedule.
func WithSchedule(schedule []time.Duration) PollerOption {
	return func(p *Poller) {
		p.schedule = append([]time.Duration(nil), schedule...)
	}
}

// WithSleep replaces the sleeper. Tests use it to observe the waits.
func WithSleep(sleep SleepFunc) PollerOption {
	return func(p *Poller) {
		p.sleep = sleep
	}
}

// WithLogger sets the logger used for poll progress.
func WithLogger(logger LogWriter) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// NewPoller creates a poller with the default schedule.
func NewPoller(opts ...PollerOption) *Poller {
	p := &Poller{
		schedule: DefaultSchedule(),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait polls status until the transaction is confirmed, rejected or the
// schedule runs out. Cancellation of ctx stops the wait and returns Pending
// together with the context error.
func (p *Poller) Wait(ctx context.Context, hash string, status StatusFunc) (ConfirmationState, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Pending, err
		}

		metrics.Global.RecordPoll()
		st, err := status(ctx)
		switch {
		case errors.Is(err, gwerr.ErrTxRejected):
			metrics.Global.RecordOutcome(metrics.OutcomeRejected)
			return Rejected, err
		case err != nil:
			if ctx.Err() != nil {
				return Pending, ctx.Err()
			}
			p.debug("status of %s unavailable (attempt %d): %v", hash, attempt+1, err)
		case st.Rejected:
			metrics.Global.RecordOutcome(metrics.OutcomeRejected)
			return Rejected, fmt.Errorf("%w: %s", gwerr.ErrTxRejected, st.Reason)
		case st.Found && st.Confirmations >= 1:
			metrics.Global.RecordOutcome(metrics.OutcomeConfirmed)
			p.debug("%s confirmed with %d confirmations", hash, st.Confirmations)
			return Confirmed, nil
		default:
			p.debug("%s not mined yet (attempt %d)", hash, attempt+1)
		}

		if attempt >= len(p.schedule) {
			metrics.Global.RecordOutcome(metrics.OutcomeExhausted)
			return Exhausted, fmt.Errorf("%w: %s", gwerr.ErrConfirmationTimeout, hash)
		}

		if err := p.sleep(ctx, p.schedule[attempt]); err != nil {
			return Pending, err
		}
	}
}

func (p *Poller) debug(format string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(format, args...)
	}
}

// sleepContext waits for d unless ctx is done first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

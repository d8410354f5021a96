package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
)

// State of a circuit breaker.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

const (
	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 300 * time.Second
)

// BreakerSnapshot is a point-in-time copy of the breaker's counters.
type BreakerSnapshot struct {
	State         State      `json:"state"`
	FailureCount  int        `json:"failureCount"`
	LastFailureAt *time.Time `json:"lastFailureAt,omitempty"`
}

// Breaker short-circuits calls after repeated failures and probes recovery
// with a single trial call once the reset timeout elapses.
type Breaker struct {
	mu            sync.Mutex
	state         State
	failureCount  int
	lastFailureAt time.Time
	trialInFlight bool

	threshold    int
	resetTimeout time.Duration
	now          func() time.Time
	onTransition func(from, to State)
}

// BreakerOption customises a Breaker.
type BreakerOption func(*Breaker)

// WithThreshold overrides failure threshold and reset timeout.
func WithThreshold(failures int, resetTimeout time.Duration) BreakerOption {
	return func(b *Breaker) {
		if failures > 0 {
			b.threshold = failures
		}
		if resetTimeout > 0 {
			b.resetTimeout = resetTimeout
		}
	}
}

// WithBreakerClock overrides the time source for deterministic testing.
func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// OnTransition registers a hook called (outside the lock) on every state change.
func OnTransition(fn func(from, to State)) BreakerOption {
	return func(b *Breaker) {
		b.onTransition = fn
	}
}

// NewBreaker constructs a closed breaker.
func NewBreaker(opts ...BreakerOption) *Breaker {
	b := &Breaker{
		state:        StateClosed,
		threshold:    DefaultFailureThreshold,
		resetTimeout: DefaultResetTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Execute runs fn unless the circuit is open. Any error returned by fn counts as a failure.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	trial, err := b.admit()
	if err != nil {
		return err
	}
	callErr := fn(ctx)
	b.record(callErr, trial)
	return callErr
}

// State returns the current state without side effects.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a copy of the counters.
func (b *Breaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := BreakerSnapshot{State: b.state, FailureCount: b.failureCount}
	if !b.lastFailureAt.IsZero() {
		last := b.lastFailureAt
		snap.LastFailureAt = &last
	}
	return snap
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.state
	b.state = StateClosed
	b.failureCount = 0
	b.lastFailureAt = time.Time{}
	b.trialInFlight = false
	b.mu.Unlock()
	b.notify(from, StateClosed)
}

func (b *Breaker) admit() (bool, error) {
	b.mu.Lock()
	from := b.state
	switch b.state {
	case StateOpen:
		elapsed := b.now().Sub(b.lastFailureAt)
		if elapsed < b.resetTimeout {
			retryIn := b.resetTimeout - elapsed
			b.mu.Unlock()
			return false, b.openError(retryIn)
		}
		b.state = StateHalfOpen
		b.trialInFlight = true
		b.mu.Unlock()
		b.notify(from, StateHalfOpen)
		return true, nil
	case StateHalfOpen:
		if b.trialInFlight {
			b.mu.Unlock()
			return false, b.openError(0)
		}
		b.trialInFlight = true
		b.mu.Unlock()
		return true, nil
	default:
		b.mu.Unlock()
		return false, nil
	}
}

func (b *Breaker) record(callErr error, trial bool) {
	b.mu.Lock()
	from := b.state
	if trial {
		b.trialInFlight = false
	}
	if callErr == nil {
		b.failureCount = 0
		b.state = StateClosed
	} else {
		b.failureCount++
		b.lastFailureAt = b.now()
		if b.state == StateHalfOpen || b.failureCount >= b.threshold {
			b.state = StateOpen
		}
	}
	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.onTransition != nil {
		b.onTransition(from, to)
	}
}

func (b *Breaker) openError(retryIn time.Duration) error {
	msg := "circuit breaker is open, remote calls are suspended"
	if retryIn > 0 {
		msg = fmt.Sprintf("%s, retry in %s", msg, retryIn.Round(time.Second))
	}
	return &errkind.Error{Kind: errkind.CircuitOpen, Op: "circuit breaker", Message: msg}
}

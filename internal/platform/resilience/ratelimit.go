// Package resilience holds the guards placed in front of every outbound call:
// a per-caller fixed-window rate limiter, a circuit breaker, and the backoff
// policies used between retries.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
)

const (
	DefaultMaxRequests = 100
	DefaultWindow      = 60 * time.Minute
)

// RateWindow is the persisted counter for one caller.
type RateWindow struct {
	CallerID    string
	Count       int
	WindowStart time.Time
	ExpiresAt   time.Time
}

// WindowStore persists rate windows. Expired windows may be returned; the
// limiter treats them as absent.
type WindowStore interface {
	Get(ctx context.Context, callerID string) (*RateWindow, error)
	Put(ctx context.Context, window RateWindow) error
	Delete(ctx context.Context, callerID string) error
}

// RateLimiter admits at most maxRequests calls per caller in each window.
type RateLimiter struct {
	mu          sync.Mutex
	store       WindowStore
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// RateLimiterOption customises a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithLimit overrides the default budget.
func WithLimit(maxRequests int, window time.Duration) RateLimiterOption {
	return func(l *RateLimiter) {
		if maxRequests > 0 {
			l.maxRequests = maxRequests
		}
		if window > 0 {
			l.window = window
		}
	}
}

// WithRateClock overrides the time source for deterministic testing.
func WithRateClock(now func() time.Time) RateLimiterOption {
	return func(l *RateLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewRateLimiter wires a limiter over the given store. A nil store falls back to memory.
func NewRateLimiter(store WindowStore, opts ...RateLimiterOption) *RateLimiter {
	if store == nil {
		store = NewMemoryWindowStore()
	}
	l := &RateLimiter{
		store:       store,
		maxRequests: DefaultMaxRequests,
		window:      DefaultWindow,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Check counts one call for callerID and fails once the window budget is spent.
// Rejected calls are not counted.
func (l *RateLimiter) Check(ctx context.Context, callerID string) error {
	callerID = normalizeCaller(callerID)
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	current, err := l.store.Get(ctx, callerID)
	if err != nil {
		return fmt.Errorf("load rate window: %w", err)
	}
	next := RateWindow{CallerID: callerID, Count: 1, WindowStart: now, ExpiresAt: now.Add(l.window)}
	if current != nil && now.Before(current.ExpiresAt) {
		next = *current
		next.Count++
	}
	if next.Count > l.maxRequests {
		return &errkind.Error{
			Kind:    errkind.RateLimitExceeded,
			Op:      "rate limiter",
			Message: fmt.Sprintf("caller %q exceeded %d requests per %s", callerID, l.maxRequests, l.window),
		}
	}
	if err := l.store.Put(ctx, next); err != nil {
		return fmt.Errorf("store rate window: %w", err)
	}
	return nil
}

// Reset clears the caller's window.
func (l *RateLimiter) Reset(ctx context.Context, callerID string) error {
	callerID = normalizeCaller(callerID)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Delete(ctx, callerID)
}

// Remaining reports how many calls the caller may still make in the current window.
func (l *RateLimiter) Remaining(ctx context.Context, callerID string) (int, error) {
	callerID = normalizeCaller(callerID)
	l.mu.Lock()
	defer l.mu.Unlock()
	current, err := l.store.Get(ctx, callerID)
	if err != nil {
		return 0, err
	}
	if current == nil || !l.now().Before(current.ExpiresAt) {
		return l.maxRequests, nil
	}
	if left := l.maxRequests - current.Count; left > 0 {
		return left, nil
	}
	return 0, nil
}

func normalizeCaller(callerID string) string {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return "default"
	}
	return callerID
}

var _ WindowStore = (*MemoryWindowStore)(nil)

// MemoryWindowStore keeps windows in process memory.
type MemoryWindowStore struct {
	mu      sync.RWMutex
	windows map[string]RateWindow
}

// NewMemoryWindowStore constructs an empty store.
func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{windows: map[string]RateWindow{}}
}

func (s *MemoryWindowStore) Get(_ context.Context, callerID string) (*RateWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.windows[callerID]
	if !ok {
		return nil, nil
	}
	copy := w
	return &copy, nil
}

func (s *MemoryWindowStore) Put(_ context.Context, window RateWindow) error {
	if window.CallerID == "" {
		return errors.New("rate window caller is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[window.CallerID] = window
	return nil
}

func (s *MemoryWindowStore) Delete(_ context.Context, callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, callerID)
	return nil
}

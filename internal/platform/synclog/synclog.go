// Package synclog keeps an append-only operator log of sync activity. A
// slog.Handler wrapper tees records into a Store; warnings and errors are
// always kept, info records only while logging is enabled.
package synclog

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Entry is one persisted log line.
type Entry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Data      string    `json:"data,omitempty"`
}

// Store persists log entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	// List returns the newest entries first; limit <= 0 returns everything.
	List(ctx context.Context, limit int) ([]Entry, error)
	Clear(ctx context.Context) error
}

// Switch toggles whether info records are persisted.
type Switch struct {
	enabled atomic.Bool
}

// NewSwitch returns a switch in the given position.
func NewSwitch(enabled bool) *Switch {
	s := &Switch{}
	s.enabled.Store(enabled)
	return s
}

func (s *Switch) Set(enabled bool) { s.enabled.Store(enabled) }

func (s *Switch) Enabled() bool { return s == nil || s.enabled.Load() }

// Handler forwards every record to next and persists the ones the switch allows.
type Handler struct {
	next   slog.Handler
	store  Store
	info   *Switch
	attrs  []slog.Attr
	groups []string
	now    func() time.Time
	mu     *sync.Mutex
}

// NewHandler wraps next. A nil info switch persists info records.
func NewHandler(next slog.Handler, store Store, info *Switch) *Handler {
	return &Handler{next: next, store: store, info: info, now: time.Now, mu: &sync.Mutex{}}
}

// Enabled reports true when either the wrapped handler or the store wants the level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level) || h.persists(level)
}

// Handle persists the record when allowed, then forwards it.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if h.store != nil && h.persists(r.Level) {
		entry := Entry{
			Timestamp: r.Time,
			Level:     r.Level.String(),
			Message:   r.Message,
			Data:      h.encodeData(r),
		}
		if entry.Timestamp.IsZero() {
			entry.Timestamp = h.now()
		}
		h.mu.Lock()
		// Persistence failures must not recurse into the logger.
		_ = h.store.Append(context.WithoutCancel(ctx), entry)
		h.mu.Unlock()
	}
	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), qualify(h.groups, attrs)...)
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.next = h.next.WithGroup(name)
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func (h *Handler) persists(level slog.Level) bool {
	if level >= slog.LevelWarn {
		return true
	}
	return level >= slog.LevelInfo && h.info.Enabled()
}

func (h *Handler) encodeData(r slog.Record) string {
	data := map[string]any{}
	for _, a := range h.attrs {
		data[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		for _, q := range qualify(h.groups, []slog.Attr{a}) {
			data[q.Key] = q.Value.Resolve().Any()
		}
		return true
	})
	if len(data) == 0 {
		return ""
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(raw)
}

func qualify(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	prefix := ""
	for _, g := range groups {
		prefix += g + "."
	}
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.Attr{Key: prefix + a.Key, Value: a.Value})
	}
	return out
}

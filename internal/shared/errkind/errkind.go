// Package errkind classifies sync failures so callers can branch on the kind
// of failure instead of on concrete error types.
package errkind

import (
	"errors"
	"fmt"
)

// Kind names a class of failure.
type Kind string

const (
	Unknown           Kind = ""
	Validation        Kind = "validation"
	RateLimitExceeded Kind = "rate_limit_exceeded"
	CircuitOpen       Kind = "circuit_open"
	Authentication    Kind = "authentication"
	NotFound          Kind = "not_found"
	RetryExhausted    Kind = "retry_exhausted"
	Unclassified      Kind = "unclassified"
	Transport         Kind = "transport"
	Conflict          Kind = "conflict"
)

// Sentinels usable with errors.Is; every *Error unwraps to the sentinel of its kind.
var (
	ErrValidation        = errors.New("validation failed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrCircuitOpen       = errors.New("circuit breaker open")
	ErrAuthentication    = errors.New("authentication failed")
	ErrNotFound          = errors.New("remote resource not found")
	ErrRetryExhausted    = errors.New("retries exhausted")
	ErrUnclassified      = errors.New("unclassified remote error")
	ErrTransport         = errors.New("transport failure")
	ErrConflict          = errors.New("conflict")
)

var sentinels = map[Kind]error{
	Validation:        ErrValidation,
	RateLimitExceeded: ErrRateLimitExceeded,
	CircuitOpen:       ErrCircuitOpen,
	Authentication:    ErrAuthentication,
	NotFound:          ErrNotFound,
	RetryExhausted:    ErrRetryExhausted,
	Unclassified:      ErrUnclassified,
	Transport:         ErrTransport,
	Conflict:          ErrConflict,
}

// Error carries a kind plus the context needed to report it.
type Error struct {
	Kind       Kind
	Op         string
	Message    string
	StatusCode int
	Body       string
	Err        error
}

// New builds an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		if s, ok := sentinels[e.Kind]; ok {
			msg = s.Error()
		} else {
			msg = "unknown error"
		}
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the wrapped cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Of reports the kind of err. Plain sentinels are recognised too.
func Of(err error) Kind {
	if err == nil {
		return Unknown
	}
	var kindErr *Error
	if errors.As(err, &kindErr) {
		return kindErr.Kind
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return Unknown
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && Of(err) == kind
}

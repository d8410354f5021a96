// Package errors renders sync failures as RFC 7807 Problem Details.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail represents an RFC 7807 Problem Details response.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Kind is the error kind that produced the problem, when known.
	Kind       string         `json:"kind,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Error implements the error interface.
func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with an additional extension property.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	ext := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		ext[k] = v
	}
	ext[key] = value
	p.Extensions = ext
	return p
}

const (
	TypeValidation     = "/problems/validation-error"
	TypeBadRequest     = "/problems/bad-request"
	TypeNotFound       = "/problems/not-found"
	TypeConflict       = "/problems/conflict"
	TypeRateLimited    = "/problems/rate-limited"
	TypeCircuitOpen    = "/problems/circuit-open"
	TypeUpstreamAuth   = "/problems/upstream-authentication"
	TypeUpstreamFailed = "/problems/upstream-failure"
	TypeInternal       = "/problems/internal-error"
)

var (
	ErrValidation = ProblemDetail{Type: TypeValidation, Title: "Validation Error", Status: http.StatusBadRequest}
	ErrBadRequest = ProblemDetail{Type: TypeBadRequest, Title: "Bad Request", Status: http.StatusBadRequest}
	ErrNotFound   = ProblemDetail{Type: TypeNotFound, Title: "Resource Not Found", Status: http.StatusNotFound}
	ErrConflict   = ProblemDetail{Type: TypeConflict, Title: "Conflict", Status: http.StatusConflict}

	// ErrRateLimited is returned when the local limiter rejected the call.
	ErrRateLimited = ProblemDetail{Type: TypeRateLimited, Title: "Rate Limit Exceeded", Status: http.StatusTooManyRequests}

	// ErrCircuitOpen is returned while remote calls are suspended.
	ErrCircuitOpen = ProblemDetail{Type: TypeCircuitOpen, Title: "Accounting Service Suspended", Status: http.StatusServiceUnavailable}

	// ErrUpstreamAuth means the stored API key was refused by the accounting service.
	ErrUpstreamAuth = ProblemDetail{Type: TypeUpstreamAuth, Title: "Accounting Service Rejected Credentials", Status: http.StatusBadGateway}

	// ErrUpstreamFailed covers exhausted retries, transport and unclassified remote errors.
	ErrUpstreamFailed = ProblemDetail{Type: TypeUpstreamFailed, Title: "Accounting Service Failure", Status: http.StatusBadGateway}

	ErrInternal = ProblemDetail{Type: TypeInternal, Title: "Internal Server Error", Status: http.StatusInternalServerError}
)

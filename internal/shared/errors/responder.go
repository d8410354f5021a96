package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
)

// ContentTypeProblemJSON is the media type for Problem Details responses.
const ContentTypeProblemJSON = "application/problem+json"

// Responder writes Problem Details responses.
type Responder struct {
	// BaseURI is prepended to problem type URIs if they are relative.
	BaseURI string
}

func NewResponder(baseURI string) *Responder {
	return &Responder{BaseURI: baseURI}
}

// Respond sends a ProblemDetail response with proper content type.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.BaseURI != "" && len(problem.Type) > 0 && problem.Type[0] == '/' {
		problem.Type = r.BaseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// RespondError converts err to a ProblemDetail. Errors that are already
// problems pass through, kinded errors are mapped, the rest become 500s.
func (r *Responder) RespondError(c *gin.Context, err error) {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	if mapped, ok := FromKind(err); ok {
		r.Respond(c, mapped)
		return
	}
	r.Respond(c, ErrInternal.WithDetail(err.Error()))
}

// BadRequest sends a 400 problem response.
func (r *Responder) BadRequest(c *gin.Context, detail string) {
	r.Respond(c, ErrBadRequest.WithDetail(detail))
}

// ErrorMapper maps domain/application errors to ProblemDetail.
type ErrorMapper func(err error) (ProblemDetail, bool)

// ChainedResponder supports custom error mapping ahead of the kind mapping.
type ChainedResponder struct {
	*Responder
	mappers []ErrorMapper
}

func NewChainedResponder(baseURI string, mappers ...ErrorMapper) *ChainedResponder {
	return &ChainedResponder{
		Responder: NewResponder(baseURI),
		mappers:   mappers,
	}
}

// RespondError tries each mapper before falling back to default handling.
func (r *ChainedResponder) RespondError(c *gin.Context, err error) {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			r.Respond(c, problem)
			return
		}
	}
	r.Responder.RespondError(c, err)
}

// FromKind maps an error kind to its problem. The remote status code, when
// present, is exposed as the upstreamStatus extension.
func FromKind(err error) (ProblemDetail, bool) {
	var problem ProblemDetail
	switch errkind.Of(err) {
	case errkind.Validation:
		problem = ErrValidation
	case errkind.NotFound:
		problem = ErrNotFound
	case errkind.Conflict:
		problem = ErrConflict
	case errkind.RateLimitExceeded:
		problem = ErrRateLimited
	case errkind.CircuitOpen:
		problem = ErrCircuitOpen
	case errkind.Authentication:
		problem = ErrUpstreamAuth
	case errkind.RetryExhausted, errkind.Transport, errkind.Unclassified:
		problem = ErrUpstreamFailed
	default:
		return ProblemDetail{}, false
	}
	problem = problem.WithDetail(err.Error())
	problem.Kind = string(errkind.Of(err))
	var kindErr *errkind.Error
	if errors.As(err, &kindErr) && kindErr.StatusCode != 0 {
		problem = problem.WithExtension("upstreamStatus", kindErr.StatusCode)
	}
	return problem, true
}

// HTTPStatusFromError extracts the response status an error would produce.
func HTTPStatusFromError(err error) int {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem.Status
	}
	if mapped, ok := FromKind(err); ok {
		return mapped.Status
	}
	return http.StatusInternalServerError
}

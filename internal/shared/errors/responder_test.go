package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
)

func TestFromKind(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{"validation", errkind.Wrap(errkind.Validation, "save", errors.New("api key too short")), http.StatusBadRequest, TypeValidation},
		{"limiter", errkind.New(errkind.RateLimitExceeded, "rate limiter", "caller exceeded"), http.StatusTooManyRequests, TypeRateLimited},
		{"breaker", errkind.New(errkind.CircuitOpen, "circuit breaker", "open"), http.StatusServiceUnavailable, TypeCircuitOpen},
		{"auth", &errkind.Error{Kind: errkind.Authentication, StatusCode: 401}, http.StatusBadGateway, TypeUpstreamAuth},
		{"exhausted", fmt.Errorf("sync: %w", errkind.New(errkind.RetryExhausted, "GET /products", "gave up")), http.StatusBadGateway, TypeUpstreamFailed},
		{"conflict", errkind.Wrap(errkind.Conflict, "create document", errors.New("idempotency conflict")), http.StatusConflict, TypeConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			problem, ok := FromKind(tc.err)
			require.True(t, ok)
			require.Equal(t, tc.status, problem.Status)
			require.Equal(t, tc.typ, problem.Type)
			require.Equal(t, tc.status, HTTPStatusFromError(tc.err))
		})
	}

	_, ok := FromKind(errors.New("plain"))
	require.False(t, ok)
	require.Equal(t, http.StatusInternalServerError, HTTPStatusFromError(errors.New("plain")))
}

func TestChainedResponder_WritesProblemJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sentinel := errors.New("row locked")
	responder := NewChainedResponder("https://sync.example", func(err error) (ProblemDetail, bool) {
		if errors.Is(err, sentinel) {
			return ErrConflict.WithDetail("row is being edited"), true
		}
		return ProblemDetail{}, false
	})

	for name, tc := range map[string]struct {
		err    error
		status int
		kind   string
	}{
		"custom mapper": {sentinel, http.StatusConflict, ""},
		"kinded":        {&errkind.Error{Kind: errkind.Unclassified, Op: "POST /issued_documents", StatusCode: 422}, http.StatusBadGateway, "unclassified"},
		"plain":         {errors.New("disk full"), http.StatusInternalServerError, ""},
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodPost, "/v1/sync/orders", nil)

			responder.RespondError(c, tc.err)

			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
			var body ProblemDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, "/v1/sync/orders", body.Instance)
			require.Equal(t, tc.kind, body.Kind)
			require.Contains(t, body.Type, "https://sync.example/problems/")
		})
	}
}

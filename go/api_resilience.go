package syncserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/storelink-fic-sync/internal/platform/resilience"
	"github.com/Apurer/storelink-fic-sync/internal/platform/synclog"
)

// CounterSource reports process counters by instrument name.
type CounterSource interface {
	Counters(ctx context.Context) (map[string]int64, error)
}

// ResilienceAPI exposes the breaker and per-caller rate windows.
type ResilienceAPI struct {
	breaker  *resilience.Breaker
	limiter  *resilience.RateLimiter
	counters CounterSource
}

func NewResilienceAPI(breaker *resilience.Breaker, limiter *resilience.RateLimiter) ResilienceAPI {
	return ResilienceAPI{breaker: breaker, limiter: limiter}
}

// WithCounters serves src on the metrics route.
func (api ResilienceAPI) WithCounters(src CounterSource) ResilienceAPI {
	api.counters = src
	return api
}

// Get /v1/resilience/metrics
func (api *ResilienceAPI) GetMetrics(c *gin.Context) {
	counters := map[string]int64{}
	if api.counters != nil {
		var err error
		if counters, err = api.counters.Counters(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, counters)
}

// Get /v1/resilience/breaker
func (api *ResilienceAPI) GetBreaker(c *gin.Context) {
	c.JSON(http.StatusOK, api.breaker.Snapshot())
}

// Post /v1/resilience/breaker/reset
// Forces the breaker closed
func (api *ResilienceAPI) ResetBreaker(c *gin.Context) {
	api.breaker.Reset()
	c.JSON(http.StatusOK, api.breaker.Snapshot())
}

// Get /v1/resilience/rate-limit/:caller
func (api *ResilienceAPI) GetRateLimit(c *gin.Context) {
	caller := c.Param("caller")
	remaining, err := api.limiter.Remaining(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"caller": caller, "remaining": remaining})
}

// Delete /v1/resilience/rate-limit/:caller
// Clears the caller's window
func (api *ResilienceAPI) ResetRateLimit(c *gin.Context) {
	if err := api.limiter.Reset(c.Request.Context(), c.Param("caller")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LogsAPI reads and clears the persisted sync log.
type LogsAPI struct {
	store synclog.Store
}

func NewLogsAPI(store synclog.Store) LogsAPI {
	return LogsAPI{store: store}
}

// DefaultLogLimit caps log listings without an explicit limit.
const DefaultLogLimit = 100

// Get /v1/logs
// Newest entries first; ?limit=0 returns everything
func (api *LogsAPI) ListLogs(c *gin.Context) {
	entries, err := api.store.List(c.Request.Context(), synclog.ParseLimit(c.Query("limit"), DefaultLogLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Delete /v1/logs
func (api *LogsAPI) ClearLogs(c *gin.Context) {
	if err := api.store.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

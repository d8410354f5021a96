package syncserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/storelink-fic-sync/internal/clients/http/fic"
)

// CallerHeader scopes rate limiting to the calling operator or integration.
const CallerHeader = "X-Caller-Id"

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	router.Use(callerScope())
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes whose API is not wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// ApiHandleFunctions groups the APIs served by the router.
type ApiHandleFunctions struct {
	CredentialsAPI CredentialsAPI
	SyncAPI        SyncAPI
	ResilienceAPI  ResilienceAPI
	LogsAPI        LogsAPI
}

func callerScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		if caller := c.GetHeader(CallerHeader); caller != "" {
			c.Request = c.Request.WithContext(fic.WithCaller(c.Request.Context(), caller))
		}
		c.Next()
	}
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"Healthz", http.MethodGet, "/healthz", Healthz},

		{"GetCredentials", http.MethodGet, "/v1/credentials", handleFunctions.CredentialsAPI.GetCredentials},
		{"SaveCredentials", http.MethodPost, "/v1/credentials", handleFunctions.CredentialsAPI.SaveCredentials},
		{"DeleteCredentials", http.MethodDelete, "/v1/credentials", handleFunctions.CredentialsAPI.DeleteCredentials},
		{"TestCredentials", http.MethodPost, "/v1/credentials/test", handleFunctions.CredentialsAPI.TestCredentials},

		{"SyncProducts", http.MethodPost, "/v1/sync/products", handleFunctions.SyncAPI.SyncProducts},
		{"ListProducts", http.MethodGet, "/v1/products", handleFunctions.SyncAPI.ListProducts},
		{"PublishProduct", http.MethodPost, "/v1/products/:rowId/publish", handleFunctions.SyncAPI.PublishProduct},
		{"SyncOrders", http.MethodPost, "/v1/sync/orders", handleFunctions.SyncAPI.SyncOrders},
		{"ListOrders", http.MethodGet, "/v1/orders", handleFunctions.SyncAPI.ListOrders},
		{"SyncOrder", http.MethodPost, "/v1/orders/:rowId/sync", handleFunctions.SyncAPI.SyncOrder},
		{"NotifyOrder", http.MethodPost, "/v1/orders/:rowId/notify", handleFunctions.SyncAPI.NotifyOrder},

		{"GetBreaker", http.MethodGet, "/v1/resilience/breaker", handleFunctions.ResilienceAPI.GetBreaker},
		{"ResetBreaker", http.MethodPost, "/v1/resilience/breaker/reset", handleFunctions.ResilienceAPI.ResetBreaker},
		{"GetMetrics", http.MethodGet, "/v1/resilience/metrics", handleFunctions.ResilienceAPI.GetMetrics},
		{"GetRateLimit", http.MethodGet, "/v1/resilience/rate-limit/:caller", handleFunctions.ResilienceAPI.GetRateLimit},
		{"ResetRateLimit", http.MethodDelete, "/v1/resilience/rate-limit/:caller", handleFunctions.ResilienceAPI.ResetRateLimit},

		{"ListLogs", http.MethodGet, "/v1/logs", handleFunctions.LogsAPI.ListLogs},
		{"ClearLogs", http.MethodDelete, "/v1/logs", handleFunctions.LogsAPI.ClearLogs},
	}
}

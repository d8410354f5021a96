package syncserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	catalogports "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/ports"
	ordersdomain "github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	ordersports "github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
)

// SyncAPI triggers catalog and order synchronisation.
type SyncAPI struct {
	catalog   catalogports.Service
	orders    ordersports.Service
	workflows ordersports.Workflows
}

// NewSyncAPI wires the catalog service and the order engine. Order runs go
// through workflows when set, otherwise straight to the engine.
func NewSyncAPI(catalog catalogports.Service, orders ordersports.Service, workflows ordersports.Workflows) SyncAPI {
	return SyncAPI{catalog: catalog, orders: orders, workflows: workflows}
}

// Post /v1/sync/products
// Pulls the remote catalog into the local store
func (api *SyncAPI) SyncProducts(c *gin.Context) {
	result, err := api.catalog.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get /v1/products
func (api *SyncAPI) ListProducts(c *gin.Context) {
	products, err := api.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromProducts(products))
}

// Post /v1/products/:rowId/publish
// Creates or updates the remote product for a local record
func (api *SyncAPI) PublishProduct(c *gin.Context) {
	rowID, ok := parseRowParam(c)
	if !ok {
		return
	}
	product, err := api.catalog.Publish(c.Request.Context(), rowID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromProduct(product))
}

// Post /v1/sync/orders
// Processes every order whose status is empty, PENDING or ERROR
func (api *SyncAPI) SyncOrders(c *gin.Context) {
	var (
		result ordersports.BatchResult
		err    error
	)
	if api.workflows != nil {
		result, err = api.workflows.SyncPending(c.Request.Context())
	} else {
		result, err = api.orders.ProcessPending(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get /v1/orders
func (api *SyncAPI) ListOrders(c *gin.Context) {
	orders, err := api.orders.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrders(orders))
}

// Post /v1/orders/:rowId/sync
// Processes one order regardless of its status
func (api *SyncAPI) SyncOrder(c *gin.Context) {
	rowID, ok := parseRowParam(c)
	if !ok {
		return
	}
	var (
		order ordersdomain.Order
		err   error
	)
	if api.workflows != nil {
		order, err = api.workflows.SyncOrder(c.Request.Context(), rowID)
	} else {
		order, err = api.orders.ProcessOrder(c.Request.Context(), rowID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrder(order))
}

// Post /v1/orders/:rowId/notify
// New-row notification: the order is processed only if its status is unset
func (api *SyncAPI) NotifyOrder(c *gin.Context) {
	rowID, ok := parseRowParam(c)
	if !ok {
		return
	}
	var (
		processed bool
		err       error
	)
	if api.workflows != nil {
		processed, err = api.workflows.NotifyNewRow(c.Request.Context(), rowID)
	} else {
		processed, err = api.orders.HandleNewRow(c.Request.Context(), rowID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rowId": rowID, "processed": processed})
}

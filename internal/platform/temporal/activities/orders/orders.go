package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	ordersports "github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
)

const (
	// PendingRowsActivityName lists the rows a batch run should process.
	PendingRowsActivityName = "orders.activities.PendingRows"
	// ProcessOrderActivityName runs one order through the sync state machine.
	ProcessOrderActivityName = "orders.activities.ProcessOrder"
	// HandleNewRowActivityName processes a row only when its status is unset.
	HandleNewRowActivityName = "orders.activities.HandleNewRow"
)

// NewRowResult reports what a new-row notification did.
type NewRowResult struct {
	Processed bool
	Order     domain.Order
}

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ordersports.Service
	repo    ordersports.Repository
}

// NewActivities wires the order engine into the Temporal activities bundle.
func NewActivities(service ordersports.Service, repo ordersports.Repository) *Activities {
	return &Activities{service: service, repo: repo}
}

// PendingRows returns eligible rows in storage order.
func (a *Activities) PendingRows(ctx context.Context) ([]int64, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("order activities not initialized")
		return nil, errors.New("order activities not initialized")
	}
	rows, err := a.service.PendingRows(ctx)
	if err != nil {
		logger.Error("PendingRows activity failed", "error", err)
		return nil, err
	}
	logger.Info("PendingRows activity completed", "count", len(rows))
	return rows, nil
}

// ProcessOrder imports one order. Order-level failures are recorded on the
// row and come back in the result, not as an activity error.
func (a *Activities) ProcessOrder(ctx context.Context, rowID int64) (domain.Order, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("order activities not initialized", "row", rowID)
		return domain.Order{}, errors.New("order activities not initialized")
	}
	logger.Info("ProcessOrder activity started", "row", rowID)
	order, err := a.service.ProcessOrder(ctx, rowID)
	if err != nil {
		logger.Error("ProcessOrder activity failed", "row", rowID, "error", err)
		return order, err
	}
	logger.Info("ProcessOrder activity completed", "row", rowID, "status", string(order.Sync.Status))
	return order, nil
}

// HandleNewRow reacts to a new-row notification.
func (a *Activities) HandleNewRow(ctx context.Context, rowID int64) (NewRowResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil || a.repo == nil {
		logger.Error("order activities not initialized", "row", rowID)
		return NewRowResult{}, errors.New("order activities not initialized")
	}
	processed, err := a.service.HandleNewRow(ctx, rowID)
	if err != nil {
		logger.Error("HandleNewRow activity failed", "row", rowID, "error", err)
		return NewRowResult{Processed: processed}, err
	}
	order, err := a.repo.Get(ctx, rowID)
	if err != nil {
		return NewRowResult{Processed: processed}, err
	}
	logger.Info("HandleNewRow activity completed", "row", rowID, "processed", processed)
	return NewRowResult{Processed: processed, Order: *order}, nil
}

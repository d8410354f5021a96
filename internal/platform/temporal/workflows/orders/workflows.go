package orders

import (
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	ordersports "github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/storelink-fic-sync/internal/platform/temporal/activities/orders"
	"github.com/Apurer/storelink-fic-sync/internal/platform/temporal/sequences"
)

const (
	// PendingBatchWorkflowName is the public identifier of the batch workflow.
	PendingBatchWorkflowName = "orders.workflows.PendingBatch"
	// ProcessOrderWorkflowName is the public identifier of the single-order workflow.
	ProcessOrderWorkflowName = "orders.workflows.ProcessOrder"
	// NewRowWorkflowName is the public identifier of the new-row workflow.
	NewRowWorkflowName = "orders.workflows.NewRow"
	// OrderSyncTaskQueue is the queue consumed by the worker processing order workflows.
	OrderSyncTaskQueue = "ORDER_SYNC"
)

// PendingBatchInput configures a batch run.
type PendingBatchInput struct {
	Pause   time.Duration
	TraceID string
}

// OrderInput names the row a single-order workflow works on.
type OrderInput struct {
	RowID   int64
	TraceID string
}

// PendingBatchWorkflow processes every eligible order sequentially.
func PendingBatchWorkflow(ctx workflow.Context, input PendingBatchInput) (ordersports.BatchResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("PendingBatchWorkflow started", withTraceID(input.TraceID)...)
	result, err := sequences.RunPendingBatchSequence(ctx, input.Pause)
	if err != nil {
		logger.Error("PendingBatchWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return result, err
	}
	logger.Info("PendingBatchWorkflow completed", withTraceID(input.TraceID, "processed", result.Processed)...)
	return result, nil
}

// ProcessOrderWorkflow runs a single order regardless of its status.
func ProcessOrderWorkflow(ctx workflow.Context, input OrderInput) (domain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("ProcessOrderWorkflow started", withTraceID(input.TraceID, "row", input.RowID)...)
	return sequences.RunOrderSequence(ctx, input.RowID)
}

// NewRowWorkflow handles a new-row notification.
func NewRowWorkflow(ctx workflow.Context, input OrderInput) (orderactivities.NewRowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("NewRowWorkflow started", withTraceID(input.TraceID, "row", input.RowID)...)
	return sequences.RunNewRowSequence(ctx, input.RowID)
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}

package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	ordersports "github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/storelink-fic-sync/internal/platform/temporal/activities/orders"
)

// orderActivityOptions disables Temporal retries: the API client already
// retries transient failures and a repeated order attempt is recorded on the row.
func orderActivityOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
}

// RunOrderSequence processes a single order row.
func RunOrderSequence(ctx workflow.Context, rowID int64) (domain.Order, error) {
	var order domain.Order
	err := workflow.ExecuteActivity(orderActivityOptions(ctx), orderactivities.ProcessOrderActivityName, rowID).Get(ctx, &order)
	if err != nil {
		workflow.GetLogger(ctx).Error("order sequence failed", "row", rowID, "error", err)
		return order, err
	}
	return order, nil
}

// RunPendingBatchSequence lists eligible rows and processes them one at a
// time, sleeping pause between rows.
func RunPendingBatchSequence(ctx workflow.Context, pause time.Duration) (ordersports.BatchResult, error) {
	logger := workflow.GetLogger(ctx)
	var result ordersports.BatchResult

	var rows []int64
	if err := workflow.ExecuteActivity(orderActivityOptions(ctx), orderactivities.PendingRowsActivityName).Get(ctx, &rows); err != nil {
		logger.Error("pending batch could not list rows", "error", err)
		return result, err
	}
	logger.Info("pending batch started", "rows", len(rows))
	for i, rowID := range rows {
		if i > 0 && pause > 0 {
			if err := workflow.Sleep(ctx, pause); err != nil {
				return result, err
			}
		}
		order, err := RunOrderSequence(ctx, rowID)
		if err != nil {
			return result, err
		}
		result.Add(order)
	}
	logger.Info("pending batch completed", "processed", result.Processed, "imported", result.Imported, "failed", result.Failed)
	return result, nil
}

// RunNewRowSequence handles a new-row notification.
func RunNewRowSequence(ctx workflow.Context, rowID int64) (orderactivities.NewRowResult, error) {
	var result orderactivities.NewRowResult
	err := workflow.ExecuteActivity(orderActivityOptions(ctx), orderactivities.HandleNewRowActivityName, rowID).Get(ctx, &result)
	return result, err
}

package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/storelink-fic-sync/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/storelink-fic-sync/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.Workflows = (*TemporalOrderWorkflows)(nil)
	_ ports.Workflows = (*InlineOrderWorkflows)(nil)
)

// ScheduleWorkflowID identifies the recurring batch run.
const ScheduleWorkflowID = "order-sync-schedule"

// TemporalOrderWorkflows starts order workflows on a Temporal cluster.
type TemporalOrderWorkflows struct {
	client    client.Client
	taskQueue string
	pause     time.Duration
}

// NewTemporalOrderWorkflows wires a Temporal client into the orchestrator.
func NewTemporalOrderWorkflows(c client.Client, pause time.Duration) *TemporalOrderWorkflows {
	return &TemporalOrderWorkflows{client: c, taskQueue: orderworkflows.OrderSyncTaskQueue, pause: pause}
}

// SyncPending runs a batch and waits for its result.
func (o *TemporalOrderWorkflows) SyncPending(ctx context.Context) (ports.BatchResult, error) {
	if o == nil || o.client == nil {
		return ports.BatchResult{}, errors.New("temporal order workflows not configured")
	}
	trace := workflowTraceComponent(ctx)
	run, err := o.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "order-sync-pending-" + trace,
		TaskQueue: o.taskQueue,
	}, orderworkflows.PendingBatchWorkflowName, orderworkflows.PendingBatchInput{Pause: o.pause, TraceID: trace})
	if err != nil {
		return ports.BatchResult{}, err
	}
	var result ports.BatchResult
	if err := run.Get(ctx, &result); err != nil {
		return ports.BatchResult{}, err
	}
	return result, nil
}

// SyncOrder processes one row. A run already in flight for the row is joined
// instead of started twice.
func (o *TemporalOrderWorkflows) SyncOrder(ctx context.Context, rowID int64) (domain.Order, error) {
	var order domain.Order
	err := o.executeForRow(ctx, fmt.Sprintf("order-sync-row-%d", rowID), orderworkflows.ProcessOrderWorkflowName, rowID, &order)
	return order, err
}

// NotifyNewRow handles a new-row notification.
func (o *TemporalOrderWorkflows) NotifyNewRow(ctx context.Context, rowID int64) (bool, error) {
	var result orderactivities.NewRowResult
	err := o.executeForRow(ctx, fmt.Sprintf("order-sync-row-%d", rowID), orderworkflows.NewRowWorkflowName, rowID, &result)
	return result.Processed, err
}

func (o *TemporalOrderWorkflows) executeForRow(ctx context.Context, workflowID, workflowName string, rowID int64, out any) error {
	if o == nil || o.client == nil {
		return errors.New("temporal order workflows not configured")
	}
	input := orderworkflows.OrderInput{RowID: rowID, TraceID: workflowTraceComponent(ctx)}
	run, err := o.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}, workflowName, input)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	return run.Get(ctx, out)
}

// EnsureSchedule starts the recurring batch workflow unless it already runs.
func (o *TemporalOrderWorkflows) EnsureSchedule(ctx context.Context, interval time.Duration) error {
	if o == nil || o.client == nil {
		return errors.New("temporal order workflows not configured")
	}
	if interval <= 0 {
		return errors.New("sync interval must be positive")
	}
	_, err := o.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           ScheduleWorkflowID,
		TaskQueue:    o.taskQueue,
		CronSchedule: CronSpec(interval),
	}, orderworkflows.PendingBatchWorkflowName, orderworkflows.PendingBatchInput{Pause: o.pause})
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		return nil
	}
	return err
}

// CronSpec renders the interval as a cron schedule.
func CronSpec(interval time.Duration) string {
	return "@every " + interval.String()
}

// InlineOrderWorkflows executes the engine directly without Temporal, useful for tests or dev fallbacks.
type InlineOrderWorkflows struct {
	service ports.Service
}

// NewInlineOrderWorkflows wraps the order engine for synchronous execution.
func NewInlineOrderWorkflows(service ports.Service) *InlineOrderWorkflows {
	return &InlineOrderWorkflows{service: service}
}

func (o *InlineOrderWorkflows) SyncPending(ctx context.Context) (ports.BatchResult, error) {
	if o == nil || o.service == nil {
		return ports.BatchResult{}, errors.New("inline order workflows not configured")
	}
	return o.service.ProcessPending(ctx)
}

func (o *InlineOrderWorkflows) SyncOrder(ctx context.Context, rowID int64) (domain.Order, error) {
	if o == nil || o.service == nil {
		return domain.Order{}, errors.New("inline order workflows not configured")
	}
	return o.service.ProcessOrder(ctx, rowID)
}

func (o *InlineOrderWorkflows) NotifyNewRow(ctx context.Context, rowID int64) (bool, error) {
	if o == nil || o.service == nil {
		return false, errors.New("inline order workflows not configured")
	}
	return o.service.HandleNewRow(ctx, rowID)
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	ordersmemory "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/memory"
	ordersapp "github.com/Apurer/storelink-fic-sync/internal/domains/orders/application"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	ordersports "github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/storelink-fic-sync/internal/platform/temporal/activities/orders"
)

type stubAccounting struct {
	documents int
}

func (s *stubAccounting) FindClientByEmail(context.Context, string) (int64, error) { return 7, nil }

func (s *stubAccounting) CreateClient(context.Context, domain.Customer) (int64, error) { return 8, nil }

func (s *stubAccounting) CreateDocument(context.Context, domain.Document) (int64, error) {
	s.documents++
	return int64(100 + s.documents), nil
}

type stubPrices struct{}

func (stubPrices) PriceOf(context.Context, string) (float64, bool, error) { return 12.5, true, nil }

func order(number string, status domain.Status) domain.Order {
	return domain.Order{
		Number:       number,
		Date:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ProductsText: "Lamp x2",
		Total:        25,
		Customer:     domain.Customer{Name: "Anna", Email: "anna@example.com"},
		Sync:         domain.Sync{Status: status},
	}
}

func newEnv(t *testing.T, repo *ordersmemory.Repository, accounting *stubAccounting) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	engine := ordersapp.NewEngine(repo, accounting, stubPrices{})
	acts := orderactivities.NewActivities(engine, repo)
	env.RegisterActivityWithOptions(acts.PendingRows, activity.RegisterOptions{Name: orderactivities.PendingRowsActivityName})
	env.RegisterActivityWithOptions(acts.ProcessOrder, activity.RegisterOptions{Name: orderactivities.ProcessOrderActivityName})
	env.RegisterActivityWithOptions(acts.HandleNewRow, activity.RegisterOptions{Name: orderactivities.HandleNewRowActivityName})
	return env
}

func TestPendingBatchWorkflow_ProcessesEligibleRows(t *testing.T) {
	repo := ordersmemory.NewRepository(
		order("1001", domain.StatusEmpty),
		order("1002", domain.StatusImported),
		order("1003", domain.StatusError),
	)
	accounting := &stubAccounting{}
	env := newEnv(t, repo, accounting)

	env.ExecuteWorkflow(PendingBatchWorkflow, PendingBatchInput{Pause: time.Second, TraceID: "trace-1"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var result ordersports.BatchResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, 2, result.Processed)
	require.Equal(t, 2, result.Imported)
	require.Equal(t, []int64{1, 3}, result.Rows)
	require.Equal(t, 2, accounting.documents)
}

func TestProcessOrderWorkflow_ReturnsRecordedOutcome(t *testing.T) {
	bad := order("2001", domain.StatusEmpty)
	bad.ProductsText = ""
	repo := ordersmemory.NewRepository(bad)
	env := newEnv(t, repo, &stubAccounting{})

	env.ExecuteWorkflow(ProcessOrderWorkflow, OrderInput{RowID: 1})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var got domain.Order
	require.NoError(t, env.GetWorkflowResult(&got))
	require.Equal(t, domain.StatusError, got.Sync.Status)
	require.NotEmpty(t, got.Sync.Error)
}

func TestNewRowWorkflow_IgnoresRowsWithStatus(t *testing.T) {
	repo := ordersmemory.NewRepository(order("3001", domain.StatusError))
	accounting := &stubAccounting{}
	env := newEnv(t, repo, accounting)

	env.ExecuteWorkflow(NewRowWorkflow, OrderInput{RowID: 1})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var got orderactivities.NewRowResult
	require.NoError(t, env.GetWorkflowResult(&got))
	require.False(t, got.Processed)
	require.Equal(t, domain.StatusError, got.Order.Sync.Status)
	require.Zero(t, accounting.documents)
}

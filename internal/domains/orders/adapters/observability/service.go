package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
)

const tracerName = "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/observability/service"

// Service decorates the order sync port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

func (s *Service) ProcessOrder(ctx context.Context, rowID int64) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.ProcessOrder", trace.WithAttributes(attribute.Int64("order.row", rowID)))
	defer span.End()

	order, err := s.inner.ProcessOrder(ctx, rowID)
	if err != nil {
		return order, s.handleError(ctx, span, err, "order processing aborted", slog.Int64("row", rowID))
	}
	span.SetAttributes(
		attribute.String("order.number", order.Number),
		attribute.String("order.status", string(order.Sync.Status)),
	)
	s.metrics.recordOutcome(ctx, order)
	return order, nil
}

func (s *Service) ProcessPending(ctx context.Context) (ports.BatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.ProcessPending")
	defer span.End()

	s.logger.LogAttrs(ctx, slog.LevelInfo, "processing pending orders")
	result, err := s.inner.ProcessPending(ctx)
	span.SetAttributes(
		attribute.Int("orders.processed", result.Processed),
		attribute.Int("orders.imported", result.Imported),
		attribute.Int("orders.failed", result.Failed),
	)
	s.metrics.recordBatch(ctx, result)
	if err != nil {
		return result, s.handleError(ctx, span, err, "pending batch aborted", slog.Int("processed", result.Processed))
	}
	return result, nil
}

func (s *Service) HandleNewRow(ctx context.Context, rowID int64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.HandleNewRow", trace.WithAttributes(attribute.Int64("order.row", rowID)))
	defer span.End()

	processed, err := s.inner.HandleNewRow(ctx, rowID)
	span.SetAttributes(attribute.Bool("order.processed", processed))
	if err != nil {
		return processed, s.handleError(ctx, span, err, "new row handling failed", slog.Int64("row", rowID))
	}
	return processed, nil
}

func (s *Service) PendingRows(ctx context.Context) ([]int64, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.PendingRows")
	defer span.End()

	rows, err := s.inner.PendingRows(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list pending rows")
	}
	span.SetAttributes(attribute.Int("orders.pending", len(rows)))
	return rows, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.List")
	defer span.End()

	orders, err := s.inner.List(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(orders)))
	return orders, nil
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	attrs = append(attrs, slog.String("kind", string(errkind.Of(err))), slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	return err
}

type serviceMetrics struct {
	imported metric.Int64Counter
	failed   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	imported, _ := m.Int64Counter("orders.sync.imported", metric.WithDescription("Orders issued as documents"))
	failed, _ := m.Int64Counter("orders.sync.failed", metric.WithDescription("Orders left in ERROR"))
	return serviceMetrics{imported: imported, failed: failed}
}

func (m serviceMetrics) recordOutcome(ctx context.Context, order domain.Order) {
	attrs := metric.WithAttributes(attribute.Bool("order.warned", len(order.Sync.Warnings) > 0))
	switch order.Sync.Status {
	case domain.StatusImported:
		if m.imported != nil {
			m.imported.Add(ctx, 1, attrs)
		}
	case domain.StatusError:
		if m.failed != nil {
			m.failed.Add(ctx, 1, attrs)
		}
	}
}

func (m serviceMetrics) recordBatch(ctx context.Context, result ports.BatchResult) {
	if m.imported != nil && result.Imported > 0 {
		m.imported.Add(ctx, int64(result.Imported))
	}
	if m.failed != nil && result.Failed > 0 {
		m.failed.Add(ctx, int64(result.Failed))
	}
}

var _ ports.Service = (*Service)(nil)

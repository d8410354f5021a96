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

	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/ports"
	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
)

const tracerName = "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/adapters/observability/service"

// Service decorates the catalog port with tracing, logging, and metrics.
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
		logger:  defaultLogger(),
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
		s.logger = defaultLogger()
	}
	return s
}

// Reconcile runs a catalog pass with instrumentation.
func (s *Service) Reconcile(ctx context.Context) (ports.ReconcileResult, error) {
	ctx, span := s.startSpan(ctx, "Catalog.Reconcile")
	defer span.End()

	s.logInfo(ctx, "reconciling products")
	result, err := s.inner.Reconcile(ctx)
	span.SetAttributes(
		attribute.Int("catalog.fetched", result.Fetched),
		attribute.Int("catalog.inserted", result.Inserted),
		attribute.Int("catalog.updated", result.Updated),
	)
	s.metrics.recordReconcile(ctx, result)
	if err != nil {
		return result, s.handleError(ctx, span, err, "product reconciliation failed",
			slog.Int("inserted", result.Inserted), slog.Int("updated", result.Updated))
	}
	return result, nil
}

// Publish pushes a product upstream with instrumentation.
func (s *Service) Publish(ctx context.Context, rowID int64) (domain.Product, error) {
	ctx, span := s.startSpan(ctx, "Catalog.Publish", attribute.Int64("product.row", rowID))
	defer span.End()

	product, err := s.inner.Publish(ctx, rowID)
	if err != nil {
		return product, s.handleError(ctx, span, err, "failed to publish product", slog.Int64("row", rowID))
	}
	span.SetAttributes(attribute.Int64("product.remote_id", product.RemoteID))
	s.metrics.recordPublished(ctx)
	return product, nil
}

// PriceOf looks up a price with tracing only; it runs once per order line.
func (s *Service) PriceOf(ctx context.Context, name string) (float64, bool, error) {
	ctx, span := s.startSpan(ctx, "Catalog.PriceOf")
	defer span.End()

	price, found, err := s.inner.PriceOf(ctx, name)
	if err != nil {
		return 0, false, s.handleError(ctx, span, err, "price lookup failed")
	}
	span.SetAttributes(attribute.Bool("product.found", found))
	return price, found, nil
}

// List returns the local catalog with tracing.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	ctx, span := s.startSpan(ctx, "Catalog.List")
	defer span.End()

	products, err := s.inner.List(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list products")
	}
	span.SetAttributes(attribute.Int("product.result.count", len(products)))
	return products, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	attrs = append(attrs, slog.String("kind", string(errkind.Of(err))), slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	inserted  metric.Int64Counter
	updated   metric.Int64Counter
	published metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	inserted, _ := m.Int64Counter("catalog.reconcile.inserted", metric.WithDescription("Products inserted by reconciliation"))
	updated, _ := m.Int64Counter("catalog.reconcile.updated", metric.WithDescription("Products updated by reconciliation"))
	published, _ := m.Int64Counter("catalog.publish.completed", metric.WithDescription("Products pushed upstream"))
	return serviceMetrics{inserted: inserted, updated: updated, published: published}
}

func (m serviceMetrics) recordReconcile(ctx context.Context, result ports.ReconcileResult) {
	addCounter(ctx, m.inserted, int64(result.Inserted))
	addCounter(ctx, m.updated, int64(result.Updated))
}

func (m serviceMetrics) recordPublished(ctx context.Context) {
	addCounter(ctx, m.published, 1)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil || value == 0 {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)

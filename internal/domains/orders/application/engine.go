package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
	"github.com/Apurer/storelink-fic-sync/internal/platform/resilience"
	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
)

// Settings are the configured document defaults and line-item policy.
type Settings struct {
	DocumentType   string
	VATRate        float64
	PaymentAccount domain.PaymentAccount
	DefaultCountry string
	// Strict turns dropped lines and unpriced items into order failures.
	Strict bool
	// Pause separates orders within a batch run.
	Pause time.Duration
}

// DefaultSettings mirrors the stock configuration.
func DefaultSettings() Settings {
	return Settings{
		DocumentType:   "invoice",
		VATRate:        22,
		PaymentAccount: domain.PaymentAccount{ID: 3, Name: "Bonifico bancario"},
		DefaultCountry: "Italia",
		Pause:          time.Second,
	}
}

// Engine drives orders from EMPTY through PENDING to IMPORTED or ERROR.
type Engine struct {
	repo        ports.Repository
	accounting  ports.Accounting
	prices      ports.PriceBook
	idempotency ports.IdempotencyStore
	settings    Settings
	sleep       resilience.Sleeper
	now         func() time.Time
	logger      *slog.Logger
}

type Option func(*Engine)

// WithSettings overrides the document defaults.
func WithSettings(s Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithIdempotencyStore records created documents so retries never duplicate them.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(e *Engine) {
		if store != nil {
			e.idempotency = store
		}
	}
}

// WithSleeper replaces the wait used between batch records.
func WithSleeper(s resilience.Sleeper) Option {
	return func(e *Engine) {
		if s != nil {
			e.sleep = s
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine wires the engine with its dependencies.
func NewEngine(repo ports.Repository, accounting ports.Accounting, prices ports.PriceBook, opts ...Option) *Engine {
	e := &Engine{
		repo:       repo,
		accounting: accounting,
		prices:     prices,
		settings:   DefaultSettings(),
		sleep:      resilience.Sleep,
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

var _ ports.Service = (*Engine)(nil)

// ProcessOrder marks the order PENDING, imports it, and records the outcome.
func (e *Engine) ProcessOrder(ctx context.Context, rowID int64) (domain.Order, error) {
	order, err := e.repo.Get(ctx, rowID)
	if err != nil {
		return domain.Order{}, mapError("process order", err)
	}
	order.RowID = rowID
	order.Sync.MarkPending()
	if err := e.repo.SaveSync(ctx, rowID, order.Sync); err != nil {
		return *order, fmt.Errorf("mark order %d pending: %w", rowID, err)
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "processing order",
		slog.String("order", order.Number), slog.Int64("row", rowID))

	documentID, importErr := e.importOrder(ctx, order)
	if importErr != nil {
		order.Sync.MarkFailed(importErr.Error())
		e.logger.LogAttrs(ctx, slog.LevelError, "order import failed",
			slog.Int64("row", rowID),
			slog.String("order", order.Number),
			slog.String("kind", string(errkind.Of(importErr))),
			slog.String("error", importErr.Error()),
		)
	} else {
		order.Sync.MarkImported(documentID, e.now())
		e.logger.LogAttrs(ctx, slog.LevelInfo, "order imported",
			slog.String("order", order.Number), slog.Int64("document_id", documentID))
	}
	if err := e.repo.SaveSync(ctx, rowID, order.Sync); err != nil {
		return *order, fmt.Errorf("record order %d outcome: %w", rowID, err)
	}
	return *order, nil
}

func (e *Engine) importOrder(ctx context.Context, order *domain.Order) (int64, error) {
	const op = "import order"
	if err := order.Validate(); err != nil {
		return 0, mapError(op, err)
	}
	items, err := e.priceItems(ctx, order)
	if err != nil {
		return 0, err
	}

	clientID, err := e.resolveClient(ctx, order)
	if err != nil {
		return 0, err
	}

	doc := domain.BuildDocument(*order, clientID, items, domain.DocumentOptions{
		Type:    e.settings.DocumentType,
		VATRate: e.settings.VATRate,
		Account: e.settings.PaymentAccount,
	}, e.today())
	return e.createDocument(ctx, order, doc)
}

func (e *Engine) priceItems(ctx context.Context, order *domain.Order) ([]domain.DocumentItem, error) {
	const op = "price line items"
	parsed, dropped := domain.ParseLineItems(order.ProductsText)
	for _, line := range dropped {
		if e.settings.Strict {
			return nil, mapError(op, fmt.Errorf("%w: %q", domain.ErrDroppedLine, line))
		}
		e.warn(ctx, order, fmt.Sprintf("dropped unreadable line item %q", line))
	}
	if len(parsed) == 0 {
		return nil, mapError(op, domain.ErrNoLineItems)
	}

	items := make([]domain.DocumentItem, 0, len(parsed))
	for _, line := range parsed {
		price, found, err := e.prices.PriceOf(ctx, line.Name)
		if err != nil {
			return nil, fmt.Errorf("look up price of %q: %w", line.Name, err)
		}
		if !found {
			if e.settings.Strict {
				return nil, mapError(op, fmt.Errorf("%w: %q", domain.ErrUnpricedItem, line.Name))
			}
			e.warn(ctx, order, fmt.Sprintf("no catalog price for %q, using 0", line.Name))
		}
		items = append(items, domain.DocumentItem{
			Name:     line.Name,
			Qty:      line.Qty,
			NetPrice: price,
			VATRate:  e.settings.VATRate,
		})
	}
	return items, nil
}

// resolveClient reuses a client id recorded by an earlier attempt, then tries
// the email lookup, then creates the client. The id is persisted at once.
func (e *Engine) resolveClient(ctx context.Context, order *domain.Order) (int64, error) {
	if order.Sync.RemoteClientID != 0 {
		return order.Sync.RemoteClientID, nil
	}
	email := strings.TrimSpace(order.Customer.Email)
	var clientID int64
	if email != "" {
		found, err := e.accounting.FindClientByEmail(ctx, email)
		if err != nil {
			return 0, err
		}
		clientID = found
	}
	if clientID != 0 {
		e.logger.LogAttrs(ctx, slog.LevelInfo, "existing client", slog.Int64("client_id", clientID))
	} else {
		customer := order.Customer
		if strings.TrimSpace(customer.Country) == "" {
			customer.Country = e.settings.DefaultCountry
		}
		created, err := e.accounting.CreateClient(ctx, customer)
		if err != nil {
			return 0, err
		}
		clientID = created
		e.logger.LogAttrs(ctx, slog.LevelInfo, "client created", slog.Int64("client_id", clientID))
	}
	order.Sync.RemoteClientID = clientID
	if err := e.repo.SaveSync(ctx, order.RowID, order.Sync); err != nil {
		return 0, fmt.Errorf("record client id: %w", err)
	}
	return clientID, nil
}

func (e *Engine) createDocument(ctx context.Context, order *domain.Order, doc domain.Document) (int64, error) {
	const op = "create document"
	if e.idempotency == nil {
		return e.accounting.CreateDocument(ctx, doc)
	}
	key := IdempotencyKey(order.Number)
	hash, err := FingerprintDocument(doc)
	if err != nil {
		return 0, fmt.Errorf("fingerprint document: %w", err)
	}
	existing, err := e.idempotency.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		if existing.RequestHash != hash {
			return 0, mapError(op, fmt.Errorf("%w: order %s already issued as document %d with different content",
				ports.ErrIdempotencyConflict, order.Number, existing.DocumentID))
		}
		e.logger.LogAttrs(ctx, slog.LevelInfo, "reusing document from earlier attempt",
			slog.String("order", order.Number), slog.Int64("document_id", existing.DocumentID))
		return existing.DocumentID, nil
	}

	documentID, err := e.accounting.CreateDocument(ctx, doc)
	if err != nil {
		return 0, err
	}
	saved, err := e.idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: hash, DocumentID: documentID})
	if err != nil {
		if errors.Is(err, ports.ErrIdempotencyConflict) && saved != nil {
			return 0, mapError(op, fmt.Errorf("%w: order %s raced with document %d", err, order.Number, saved.DocumentID))
		}
		e.logger.LogAttrs(ctx, slog.LevelWarn, "document created but not recorded for replay",
			slog.String("order", order.Number), slog.Int64("document_id", documentID), slog.String("error", err.Error()))
	}
	return documentID, nil
}

func (e *Engine) warn(ctx context.Context, order *domain.Order, message string) {
	order.Sync.Warn(message)
	e.logger.LogAttrs(ctx, slog.LevelWarn, message, slog.String("order", order.Number), slog.Int64("row", order.RowID))
}

func (e *Engine) today() time.Time {
	now := e.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// ProcessPending walks eligible orders in storage order, one at a time, with
// the configured pause between them. Per-order failures never stop the run.
func (e *Engine) ProcessPending(ctx context.Context) (ports.BatchResult, error) {
	var result ports.BatchResult
	rows, err := e.PendingRows(ctx)
	if err != nil {
		return result, err
	}
	for i, rowID := range rows {
		if i > 0 && e.settings.Pause > 0 {
			if err := e.sleep(ctx, e.settings.Pause); err != nil {
				return result, fmt.Errorf("batch interrupted: %w", err)
			}
		}
		order, err := e.ProcessOrder(ctx, rowID)
		if err != nil {
			return result, err
		}
		result.Add(order)
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "pending orders processed",
		slog.Int("processed", result.Processed),
		slog.Int("imported", result.Imported),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

// PendingRows lists the rows a batch run would process.
func (e *Engine) PendingRows(ctx context.Context) ([]int64, error) {
	orders, err := e.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]int64, 0, len(orders))
	for _, o := range orders {
		if o.Eligible() {
			rows = append(rows, o.RowID)
		}
	}
	return rows, nil
}

// HandleNewRow reacts to a new-row notification.
func (e *Engine) HandleNewRow(ctx context.Context, rowID int64) (bool, error) {
	order, err := e.repo.Get(ctx, rowID)
	if err != nil {
		return false, mapError("handle new row", err)
	}
	if order.Sync.Status != domain.StatusEmpty {
		return false, nil
	}
	if _, err := e.ProcessOrder(ctx, rowID); err != nil {
		return true, err
	}
	return true, nil
}

// List returns every order.
func (e *Engine) List(ctx context.Context) ([]domain.Order, error) {
	return e.repo.List(ctx)
}

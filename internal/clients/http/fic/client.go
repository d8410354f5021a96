// Package fic is the outbound client for the Fatture in Cloud v2 API. Every
// attempt passes the rate limiter and the circuit breaker; throttling and
// server errors are retried with separate backoff policies.
package fic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	credentialsdomain "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/domain"
	credentialsports "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/ports"
	"github.com/Apurer/storelink-fic-sync/internal/platform/resilience"
	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
)

const (
	DefaultBaseURL = "https://api-v2.fattureincloud.it"
	UserAgent      = "StoreLink-Sync/1.0"
	DefaultPerPage = 50

	tracerName = "github.com/Apurer/storelink-fic-sync/internal/clients/http/fic"
)

// Client talks to one company's endpoints of the accounting API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	credentials   credentialsports.CredentialSource
	limiter       *resilience.RateLimiter
	breaker       *resilience.Breaker
	sleep         resilience.Sleeper
	maxRetries    int
	throttled     resilience.Backoff
	unavailable   resilience.Backoff
	defaultCaller string
	logger        *slog.Logger
	tracer        trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimiter shares a limiter with other components.
func WithRateLimiter(l *resilience.RateLimiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithBreaker shares a circuit breaker with other components.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

// WithSleeper replaces the wait used between retries.
func WithSleeper(s resilience.Sleeper) Option {
	return func(c *Client) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithRetryPolicy overrides the retry budget and both backoff curves.
func WithRetryPolicy(maxRetries int, throttled, unavailable resilience.Backoff) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if throttled != nil {
			c.throttled = throttled
		}
		if unavailable != nil {
			c.unavailable = unavailable
		}
	}
}

// WithDefaultCaller names the limiter window used when the context carries no caller.
func WithDefaultCaller(caller string) Option {
	return func(c *Client) {
		if strings.TrimSpace(caller) != "" {
			c.defaultCaller = strings.TrimSpace(caller)
		}
	}
}

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer injects a tracer.
func WithTracer(tr trace.Tracer) Option {
	return func(c *Client) {
		if tr != nil {
			c.tracer = tr
		}
	}
}

// New builds a client. Credentials are loaded from source on every call so a
// rotated key is picked up without rebuilding the client.
func New(baseURL string, source credentialsports.CredentialSource, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if source == nil {
		return nil, errors.New("credential source is required")
	}
	c := &Client{
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		credentials:   source,
		sleep:         resilience.Sleep,
		maxRetries:    resilience.DefaultMaxRetries,
		throttled:     resilience.Exponential(time.Second),
		unavailable:   resilience.Linear(2 * time.Second),
		defaultCaller: "default",
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:        nooptrace.NewTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.limiter == nil {
		c.limiter = resilience.NewRateLimiter(nil)
	}
	if c.breaker == nil {
		c.breaker = resilience.NewBreaker()
	}
	return c, nil
}

type callerKey struct{}

// WithCaller scopes the rate-limit window of calls made with ctx.
func WithCaller(ctx context.Context, caller string) context.Context {
	if strings.TrimSpace(caller) == "" {
		return ctx
	}
	return context.WithValue(ctx, callerKey{}, strings.TrimSpace(caller))
}

func (c *Client) callerFrom(ctx context.Context) string {
	if caller, ok := ctx.Value(callerKey{}).(string); ok && caller != "" {
		return caller
	}
	return c.defaultCaller
}

// TestConnection fetches a single product to prove the credentials work.
func (c *Client) TestConnection(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/products", url.Values{"per_page": {"1"}}, nil, nil)
}

// GetProducts fetches one page of the remote catalog.
func (c *Client) GetProducts(ctx context.Context, page, perPage int) (ProductPage, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	query := url.Values{}
	query.Set("page", fmt.Sprint(page))
	query.Set("per_page", fmt.Sprint(perPage))
	var out ProductPage
	if err := c.do(ctx, http.MethodGet, "/products", query, nil, &out); err != nil {
		return ProductPage{}, err
	}
	return out, nil
}

// UpsertProduct updates the product when it has a remote id and creates it otherwise.
func (c *Client) UpsertProduct(ctx context.Context, product Product) (Product, error) {
	method, endpoint := http.MethodPost, "/products"
	if product.ID != 0 {
		method, endpoint = http.MethodPut, fmt.Sprintf("/products/%d", product.ID)
	}
	var out envelope[Product]
	if err := c.do(ctx, method, endpoint, nil, envelope[Product]{Data: product}, &out); err != nil {
		return Product{}, err
	}
	return out.Data, nil
}

// FindProductByCode searches by code and returns the exact match, if any.
func (c *Client) FindProductByCode(ctx context.Context, code string) (*Product, error) {
	var out envelope[[]Product]
	if err := c.do(ctx, http.MethodGet, "/products", url.Values{"q": {code}}, nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Data {
		if out.Data[i].Code == code {
			found := out.Data[i]
			return &found, nil
		}
	}
	return nil, nil
}

// FindClientByEmail searches clients and returns the one whose email matches exactly.
func (c *Client) FindClientByEmail(ctx context.Context, email string) (*Customer, error) {
	var out envelope[[]Customer]
	if err := c.do(ctx, http.MethodGet, "/entities/clients", url.Values{"q": {email}}, nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Data {
		if out.Data[i].Email == email {
			found := out.Data[i]
			return &found, nil
		}
	}
	return nil, nil
}

// CreateClient registers a new customer.
func (c *Client) CreateClient(ctx context.Context, client NewClient) (Customer, error) {
	var out envelope[Customer]
	if err := c.do(ctx, http.MethodPost, "/entities/clients", nil, envelope[NewClient]{Data: client}, &out); err != nil {
		return Customer{}, err
	}
	return out.Data, nil
}

// CreateDocument issues a document (invoice, receipt...) for a client.
func (c *Client) CreateDocument(ctx context.Context, doc Document) (IssuedDocument, error) {
	var out envelope[IssuedDocument]
	if err := c.do(ctx, http.MethodPost, "/issued_documents", nil, envelope[Document]{Data: doc}, &out); err != nil {
		return IssuedDocument{}, err
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, payload, out any) error {
	op := method + " " + endpoint
	ctx, span := c.tracer.Start(ctx, "fic "+op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.method", method), attribute.String("fic.endpoint", endpoint)))
	defer span.End()

	err := c.request(ctx, op, method, endpoint, query, payload, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.LogAttrs(ctx, slog.LevelError, "accounting API request failed",
			slog.String("endpoint", endpoint),
			slog.String("method", method),
			slog.String("kind", string(errkind.Of(err))),
			slog.String("caller", c.callerFrom(ctx)),
			slog.String("error", err.Error()),
		)
	}
	return err
}

func (c *Client) request(ctx context.Context, op, method, endpoint string, query url.Values, payload, out any) error {
	cred, err := c.credentials.Load(ctx)
	if err != nil {
		return err
	}
	var body []byte
	if payload != nil {
		if body, err = encodePayload(payload); err != nil {
			return errkind.Wrap(errkind.Validation, op, err)
		}
	}
	target := fmt.Sprintf("%s/c/%d%s", c.baseURL, cred.CompanyID, endpoint)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	caller := c.callerFrom(ctx)

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Check(ctx, caller); err != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "rate limit exceeded", slog.String("caller", caller))
			return err
		}
		var respBody []byte
		callErr := c.breaker.Execute(ctx, func(ctx context.Context) error {
			var sendErr error
			respBody, sendErr = c.send(ctx, op, cred, method, target, body)
			return sendErr
		})
		if callErr == nil {
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return errkind.Wrap(errkind.Unclassified, op, fmt.Errorf("decode response: %w", err))
			}
			return nil
		}

		backoff := c.backoffFor(callErr)
		if backoff == nil {
			return callErr
		}
		if attempt >= c.maxRetries {
			return &errkind.Error{Kind: errkind.RetryExhausted, Op: op, Message: fmt.Sprintf("gave up after %d retries", attempt), Err: callErr}
		}
		delay := backoff(attempt)
		c.logger.LogAttrs(ctx, slog.LevelInfo, "retrying accounting API request",
			slog.String("endpoint", endpoint),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("reason", callErr.Error()),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: retry aborted: %w", op, err)
		}
	}
}

func (c *Client) backoffFor(err error) resilience.Backoff {
	var kindErr *errkind.Error
	if !errors.As(err, &kindErr) {
		return nil
	}
	switch {
	case kindErr.StatusCode == http.StatusTooManyRequests:
		return c.throttled
	case kindErr.StatusCode >= http.StatusInternalServerError:
		return c.unavailable
	case kindErr.Kind == errkind.Transport:
		return c.unavailable
	default:
		return nil
	}
}

func (c *Client) send(ctx context.Context, op string, cred credentialsdomain.Credential, method, target string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errkind.Wrap(errkind.Validation, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errkind.Wrap(errkind.Transport, op, err)
	}
	defer resp.Body.Close()
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errkind.Wrap(errkind.Transport, op, fmt.Errorf("read body: %w", err))
	}
	return content, classify(op, resp.StatusCode, content)
}

func classify(op string, status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return &errkind.Error{Kind: errkind.Authentication, Op: op, StatusCode: status, Message: "api key invalid or expired"}
	case status == http.StatusNotFound:
		return &errkind.Error{Kind: errkind.NotFound, Op: op, StatusCode: status, Message: "company or resource not found"}
	case status == http.StatusTooManyRequests:
		return &errkind.Error{Kind: errkind.RateLimitExceeded, Op: op, StatusCode: status, Message: "throttled by remote service"}
	case status >= http.StatusInternalServerError:
		return &errkind.Error{Kind: errkind.Unclassified, Op: op, StatusCode: status, Message: "remote service unavailable"}
	default:
		return &errkind.Error{Kind: errkind.Unclassified, Op: op, StatusCode: status, Body: strings.TrimSpace(string(body))}
	}
}

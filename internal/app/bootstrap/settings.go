package bootstrap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	catalogsheet "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/adapters/sheet"
	catalogapp "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/application"
	catalogdomain "github.com/Apurer/storelink-fic-sync/internal/domains/catalog/domain"
	orderssheet "github.com/Apurer/storelink-fic-sync/internal/domains/orders/adapters/sheet"
	ordersapp "github.com/Apurer/storelink-fic-sync/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	"github.com/Apurer/storelink-fic-sync/internal/platform/resilience"
)

// Settings is the operator-facing sync configuration, read from YAML and
// overlaid on DefaultSettings.
type Settings struct {
	SyncInterval    time.Duration               `yaml:"sync_interval"`
	DocumentType    string                      `yaml:"document_type"`
	VATRate         float64                     `yaml:"vat_rate"`
	PaymentMethod   ordersdomain.PaymentAccount `yaml:"payment_method"`
	LoggingEnabled  bool                        `yaml:"logging_enabled"`
	StrictLineItems bool                        `yaml:"strict_line_items"`
	Pause           time.Duration               `yaml:"pause"`
	DefaultCountry  string                      `yaml:"default_country"`
	Products        ProductSettings             `yaml:"products"`
	Orders          OrderSettings               `yaml:"orders"`
	RateLimit       RateLimitSettings           `yaml:"rate_limit"`
	Breaker         BreakerSettings             `yaml:"breaker"`
}

type ProductSettings struct {
	PageSize        int                  `yaml:"page_size"`
	MaxPages        int                  `yaml:"max_pages"`
	DefaultCategory string               `yaml:"default_category"`
	Columns         catalogsheet.Columns `yaml:"columns"`
}

type OrderSettings struct {
	Columns orderssheet.Columns `yaml:"columns"`
}

type RateLimitSettings struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

type BreakerSettings struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
}

// DefaultSettings returns the stock configuration.
func DefaultSettings() Settings {
	orders := ordersapp.DefaultSettings()
	return Settings{
		SyncInterval:   time.Hour,
		DocumentType:   orders.DocumentType,
		VATRate:        orders.VATRate,
		PaymentMethod:  orders.PaymentAccount,
		LoggingEnabled: true,
		Pause:          orders.Pause,
		DefaultCountry: orders.DefaultCountry,
		Products: ProductSettings{
			PageSize:        catalogapp.DefaultPageSize,
			MaxPages:        catalogapp.DefaultMaxPages,
			DefaultCategory: catalogdomain.DefaultCategory,
			Columns:         catalogsheet.DefaultColumns(),
		},
		Orders:    OrderSettings{Columns: orderssheet.DefaultColumns()},
		RateLimit: RateLimitSettings{MaxRequests: resilience.DefaultMaxRequests, Window: resilience.DefaultWindow},
		Breaker:   BreakerSettings{FailureThreshold: resilience.DefaultFailureThreshold, ResetTimeout: resilience.DefaultResetTimeout},
	}
}

// LoadSettings reads path over the defaults. An empty path yields the defaults.
func LoadSettings(path string) (Settings, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSettings(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	settings, err := ParseSettings(bytes.NewReader(raw))
	if err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	return settings, nil
}

// ParseSettings decodes YAML from r over the defaults and validates the result.
func ParseSettings(r io.Reader) (Settings, error) {
	settings := DefaultSettings()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("decode: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Validate reports every invalid field at once.
func (s Settings) Validate() error {
	var problems []string
	if s.SyncInterval < time.Minute {
		problems = append(problems, "sync_interval must be at least 1m")
	}
	if strings.TrimSpace(s.DocumentType) == "" {
		problems = append(problems, "document_type is required")
	}
	if s.VATRate < 0 {
		problems = append(problems, "vat_rate must not be negative")
	}
	if s.Pause < 0 {
		problems = append(problems, "pause must not be negative")
	}
	if s.Products.PageSize <= 0 || s.Products.MaxPages <= 0 {
		problems = append(problems, "products.page_size and products.max_pages must be positive")
	}
	if s.Products.Columns.Name <= 0 || s.Products.Columns.Price <= 0 || s.Products.Columns.RemoteID <= 0 {
		problems = append(problems, "products.columns name, price and fic_id are required")
	}
	oc := s.Orders.Columns
	required := []struct {
		name string
		col  int
	}{
		{"order_no", oc.Number}, {"date", oc.Date}, {"products", oc.Products}, {"order_total", oc.Total},
		{"fic_status", oc.Status}, {"fic_doc_id", oc.DocumentID}, {"fic_client_id", oc.ClientID},
		{"fic_error", oc.Error}, {"sync_date", oc.SyncDate},
	}
	for _, r := range required {
		if r.col <= 0 {
			problems = append(problems, "orders.columns."+r.name+" is required")
		}
	}
	if s.RateLimit.MaxRequests <= 0 || s.RateLimit.Window <= 0 {
		problems = append(problems, "rate_limit.max_requests and rate_limit.window must be positive")
	}
	if s.Breaker.FailureThreshold <= 0 || s.Breaker.ResetTimeout <= 0 {
		problems = append(problems, "breaker.failure_threshold and breaker.reset_timeout must be positive")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
}

// OrderEngine returns the engine settings.
func (s Settings) OrderEngine() ordersapp.Settings {
	return ordersapp.Settings{
		DocumentType:   s.DocumentType,
		VATRate:        s.VATRate,
		PaymentAccount: s.PaymentMethod,
		DefaultCountry: s.DefaultCountry,
		Strict:         s.StrictLineItems,
		Pause:          s.Pause,
	}
}

// CatalogOptions returns the reconciler paging and category options.
func (s Settings) CatalogOptions() []catalogapp.Option {
	return []catalogapp.Option{
		catalogapp.WithPaging(s.Products.PageSize, s.Products.MaxPages),
		catalogapp.WithDefaultCategory(s.Products.DefaultCategory),
	}
}

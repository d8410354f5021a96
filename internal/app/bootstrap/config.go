package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"go.temporal.io/sdk/client"

	"github.com/Apurer/storelink-fic-sync/internal/clients/http/fic"
)

// Store backends selectable through SYNC_STORE.
const (
	StoreAuto     = ""
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSheet    = "sheet"
)

// Config carries environment-driven settings shared by every process.
type Config struct {
	Port              string
	PostgresDSN       string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	BaseURL           string
	InstallationID    string
	CallerID          string
	Store             string
	SheetDir          string
	SettingsFile      string
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		BaseURL:           envDefault("FIC_BASE_URL", fic.DefaultBaseURL),
		InstallationID:    strings.TrimSpace(os.Getenv("FIC_INSTALLATION_ID")),
		CallerID:          envDefault("FIC_CALLER_ID", "default"),
		Store:             strings.ToLower(strings.TrimSpace(os.Getenv("SYNC_STORE"))),
		SheetDir:          envDefault("SHEET_DIR", "data"),
		SettingsFile:      strings.TrimSpace(os.Getenv("SYNC_CONFIG_FILE")),
	}
	switch cfg.Store {
	case StoreAuto, StoreMemory, StoreSheet:
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			return Config{}, fmt.Errorf("SYNC_STORE=postgres requires POSTGRES_DSN")
		}
	default:
		return Config{}, fmt.Errorf("SYNC_STORE must be one of memory, postgres, sheet; got %q", cfg.Store)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Apurer/storelink-fic-sync/internal/domains/credentials/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/credentials/ports"
)

// Status describes the stored credentials without revealing them.
type Status struct {
	Configured bool     `json:"configured"`
	MaskedKey  string   `json:"maskedKey,omitempty"`
	CompanyID  int64    `json:"companyId,omitempty"`
	Problems   []string `json:"problems,omitempty"`
}

// Service manages the API key and company id kept in the vault.
type Service struct {
	vault  *Vault
	logger *slog.Logger
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(vault *Vault, opts ...Option) *Service {
	s := &Service{vault: vault, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SaveCredentials validates the trimmed input as given and stores the
// sanitized values. Markup or quoting characters fail validation rather than
// being stripped.
func (s *Service) SaveCredentials(ctx context.Context, apiKey, companyID string) (Status, error) {
	apiKey = strings.TrimSpace(apiKey)
	if err := domain.ValidateAPIKey(apiKey); err != nil {
		return Status{}, mapError("save credentials", err)
	}
	id, err := domain.ParseCompanyID(companyID)
	if err != nil {
		return Status{}, mapError("save credentials", err)
	}
	apiKey = domain.SanitizeInput(apiKey)
	if err := s.vault.Save(ctx, domain.KeyAPIKey, apiKey); err != nil {
		return Status{}, err
	}
	if err := s.vault.Save(ctx, domain.KeyCompanyID, strconv.FormatInt(id, 10)); err != nil {
		return Status{}, err
	}
	s.logger.InfoContext(ctx, "credentials saved", slog.String("apiKey", domain.MaskAPIKey(apiKey)), slog.Int64("companyId", id))
	return Status{Configured: true, MaskedKey: domain.MaskAPIKey(apiKey), CompanyID: id}, nil
}

// SaveAndTest stores the credentials and then probes the remote service with them.
// The credentials stay saved when the probe fails.
func (s *Service) SaveAndTest(ctx context.Context, apiKey, companyID string, tester ports.ConnectionTester) (Status, error) {
	status, err := s.SaveCredentials(ctx, apiKey, companyID)
	if err != nil {
		return status, err
	}
	if tester == nil {
		return status, nil
	}
	if err := tester.TestConnection(ctx); err != nil {
		s.logger.ErrorContext(ctx, "connection test failed", slog.String("error", err.Error()))
		return status, fmt.Errorf("connection test: %w", err)
	}
	s.logger.InfoContext(ctx, "connection test succeeded", slog.Int64("companyId", status.CompanyID))
	return status, nil
}

// Load returns the stored credential pair, validated.
func (s *Service) Load(ctx context.Context) (domain.Credential, error) {
	apiKey, _, err := s.vault.Get(ctx, domain.KeyAPIKey)
	if err != nil {
		return domain.Credential{}, err
	}
	if err := domain.ValidateAPIKey(apiKey); err != nil {
		return domain.Credential{}, mapError("load credentials", err)
	}
	rawID, _, err := s.vault.Get(ctx, domain.KeyCompanyID)
	if err != nil {
		return domain.Credential{}, err
	}
	id, err := domain.ParseCompanyID(rawID)
	if err != nil {
		return domain.Credential{}, mapError("load credentials", err)
	}
	return domain.Credential{APIKey: apiKey, CompanyID: id}, nil
}

// Revoke deletes both values.
func (s *Service) Revoke(ctx context.Context) error {
	if err := s.vault.Delete(ctx, domain.KeyAPIKey); err != nil {
		return err
	}
	if err := s.vault.Delete(ctx, domain.KeyCompanyID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "credentials revoked")
	return nil
}

// ValidateConfig lists every problem with the stored credentials; empty means usable.
func (s *Service) ValidateConfig(ctx context.Context) []string {
	var problems []string
	apiKey, _, err := s.vault.Get(ctx, domain.KeyAPIKey)
	if err != nil {
		problems = append(problems, fmt.Sprintf("api key unreadable: %v", err))
	} else if err := domain.ValidateAPIKey(apiKey); err != nil {
		problems = append(problems, err.Error())
	}
	rawID, _, err := s.vault.Get(ctx, domain.KeyCompanyID)
	if err != nil {
		problems = append(problems, fmt.Sprintf("company id unreadable: %v", err))
	} else if _, err := domain.ParseCompanyID(rawID); err != nil {
		problems = append(problems, err.Error())
	}
	return problems
}

// Status reports whether usable credentials exist, masking the key.
func (s *Service) Status(ctx context.Context) Status {
	problems := s.ValidateConfig(ctx)
	if len(problems) > 0 {
		return Status{Problems: problems}
	}
	cred, err := s.Load(ctx)
	if err != nil {
		return Status{Problems: []string{err.Error()}}
	}
	return Status{Configured: true, MaskedKey: cred.Masked(), CompanyID: cred.CompanyID}
}

var _ ports.CredentialSource = (*Service)(nil)

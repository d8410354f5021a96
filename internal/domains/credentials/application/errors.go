package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/storelink-fic-sync/internal/domains/credentials/domain"
	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
)

var (
	// ErrInvalidInput signals the supplied credentials violated a domain rule.
	ErrInvalidInput = errors.New("invalid credentials")
	// ErrNotConfigured signals no usable credentials are stored.
	ErrNotConfigured = errors.New("credentials not configured")
)

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrMissingAPIKey), errors.Is(err, domain.ErrMissingCompanyID):
		return errkind.Wrap(errkind.Validation, op, fmt.Errorf("%w: %w", ErrNotConfigured, err))
	case errors.Is(err, domain.ErrInvalidAPIKey), errors.Is(err, domain.ErrInvalidCompanyID):
		return errkind.Wrap(errkind.Validation, op, fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	return err
}

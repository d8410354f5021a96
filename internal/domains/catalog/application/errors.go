package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/catalog/ports"
	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
)

// ErrInvalidInput signals the product violated a domain invariant.
var ErrInvalidInput = errors.New("invalid product")

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrEmptyName):
		return errkind.Wrap(errkind.Validation, op, fmt.Errorf("%w: %w", ErrInvalidInput, err))
	case errors.Is(err, ports.ErrNotFound):
		return errkind.Wrap(errkind.NotFound, op, err)
	}
	return err
}

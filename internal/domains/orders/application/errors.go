package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/domain"
	"github.com/Apurer/storelink-fic-sync/internal/domains/orders/ports"
	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
)

// ErrInvalidOrder signals the order record cannot be turned into a document.
var ErrInvalidOrder = errors.New("invalid order")

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrMissingNumber),
		errors.Is(err, domain.ErrMissingDate),
		errors.Is(err, domain.ErrBadTotal),
		errors.Is(err, domain.ErrNoLineItems),
		errors.Is(err, domain.ErrDroppedLine),
		errors.Is(err, domain.ErrUnpricedItem):
		return errkind.Wrap(errkind.Validation, op, fmt.Errorf("%w: %w", ErrInvalidOrder, err))
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return errkind.Wrap(errkind.Conflict, op, err)
	case errors.Is(err, ports.ErrNotFound):
		return errkind.Wrap(errkind.NotFound, op, err)
	}
	return err
}

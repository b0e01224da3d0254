package pricing

import (
	"fmt"

	"backoffice/internal/apperrors"
	"backoffice/internal/models"
)

// StatusPolicy decides whether an order may move from one status to another.
type StatusPolicy interface {
	Allow(from, to models.OrderStatus) error
}

// PermissivePolicy allows any recognized status out of a non-terminal state,
// stage skipping included.
type PermissivePolicy struct{}

// Allow implements StatusPolicy.
func (PermissivePolicy) Allow(from, to models.OrderStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, to)
	}
	if from.Terminal() {
		return fmt.Errorf("%w: order is already %s", apperrors.ErrInvalidTransition, from)
	}
	return nil
}

// SequentialPolicy only allows the next forward stage, or cancellation.
type SequentialPolicy struct{}

// Allow implements StatusPolicy.
func (SequentialPolicy) Allow(from, to models.OrderStatus) error {
	if err := (PermissivePolicy{}).Allow(from, to); err != nil {
		return err
	}
	if to == models.OrderStatusCancelled {
		return nil
	}
	if next, ok := nextStatus(from); ok && next == to {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, from, to)
}

// NewStatusPolicy returns SequentialPolicy when strict is set, PermissivePolicy otherwise.
func NewStatusPolicy(strict bool) StatusPolicy {
	if strict {
		return SequentialPolicy{}
	}
	return PermissivePolicy{}
}

func nextStatus(from models.OrderStatus) (models.OrderStatus, bool) {
	switch from {
	case models.OrderStatusPending:
		return models.OrderStatusConfirmed, true
	case models.OrderStatusConfirmed:
		return models.OrderStatusProcessing, true
	case models.OrderStatusProcessing:
		return models.OrderStatusShipped, true
	case models.OrderStatusShipped:
		return models.OrderStatusDelivered, true
	}
	return "", false
}

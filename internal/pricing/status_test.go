package pricing_test

import (
	"testing"

	"backoffice/internal/apperrors"
	"backoffice/internal/models"
	"backoffice/internal/pricing"

	"github.com/stretchr/testify/assert"
)

var nonTerminal = []models.OrderStatus{
	models.OrderStatusPending,
	models.OrderStatusConfirmed,
	models.OrderStatusProcessing,
	models.OrderStatusShipped,
}

func TestPolicies_CancelFromAnyNonTerminal(t *testing.T) {
	for _, policy := range []pricing.StatusPolicy{pricing.PermissivePolicy{}, pricing.SequentialPolicy{}} {
		for _, from := range nonTerminal {
			assert.NoError(t, policy.Allow(from, models.OrderStatusCancelled), "%T from %s", policy, from)
		}
	}
}

func TestPolicies_RejectUnknownStatus(t *testing.T) {
	for _, policy := range []pricing.StatusPolicy{pricing.PermissivePolicy{}, pricing.SequentialPolicy{}} {
		assert.ErrorIs(t, policy.Allow(models.OrderStatusPending, "lost"), apperrors.ErrInvalidStatus)
		assert.ErrorIs(t, policy.Allow(models.OrderStatusDelivered, ""), apperrors.ErrInvalidStatus)
	}
}

func TestPolicies_TerminalStatesAreFinal(t *testing.T) {
	for _, policy := range []pricing.StatusPolicy{pricing.PermissivePolicy{}, pricing.SequentialPolicy{}} {
		assert.ErrorIs(t, policy.Allow(models.OrderStatusDelivered, models.OrderStatusCancelled), apperrors.ErrInvalidTransition)
		assert.ErrorIs(t, policy.Allow(models.OrderStatusCancelled, models.OrderStatusPending), apperrors.ErrInvalidTransition)
	}
}

func TestPermissivePolicy_AllowsSkipping(t *testing.T) {
	policy := pricing.NewStatusPolicy(false)
	assert.NoError(t, policy.Allow(models.OrderStatusPending, models.OrderStatusShipped))
	assert.NoError(t, policy.Allow(models.OrderStatusShipped, models.OrderStatusConfirmed))
}

func TestSequentialPolicy(t *testing.T) {
	policy := pricing.NewStatusPolicy(true)

	assert.NoError(t, policy.Allow(models.OrderStatusPending, models.OrderStatusConfirmed))
	assert.NoError(t, policy.Allow(models.OrderStatusConfirmed, models.OrderStatusProcessing))
	assert.NoError(t, policy.Allow(models.OrderStatusProcessing, models.OrderStatusShipped))
	assert.NoError(t, policy.Allow(models.OrderStatusShipped, models.OrderStatusDelivered))

	assert.ErrorIs(t, policy.Allow(models.OrderStatusPending, models.OrderStatusShipped), apperrors.ErrInvalidTransition)
	assert.ErrorIs(t, policy.Allow(models.OrderStatusShipped, models.OrderStatusProcessing), apperrors.ErrInvalidTransition)
	assert.ErrorIs(t, policy.Allow(models.OrderStatusPending, models.OrderStatusPending), apperrors.ErrInvalidTransition)
}

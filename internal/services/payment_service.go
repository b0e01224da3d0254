package services

import (
	"context"
	"errors"
	"fmt"

	"backoffice/internal/apperrors"
	"backoffice/internal/models"
	"backoffice/internal/repositories"
)

// PaymentService manages payment methods and the cards line items refer to.
type PaymentService struct {
	repo      repositories.PaymentRepository
	auditRepo repositories.AuditRepository
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(repo repositories.PaymentRepository, auditRepo repositories.AuditRepository) *PaymentService {
	return &PaymentService{repo: repo, auditRepo: auditRepo}
}

// CreatePaymentMethod stores a new active payment method.
func (s *PaymentService) CreatePaymentMethod(ctx context.Context, method *models.PaymentMethod, actor string) error {
	method.IsActive = true
	if err := s.repo.CreatePaymentMethod(ctx, method); err != nil {
		return err
	}
	recordAudit(ctx, s.auditRepo, actor, models.AuditCreated, "PaymentMethod", method.ID,
		fmt.Sprintf("Payment method %s created", method.Name))
	return nil
}

// GetPaymentMethods lists the active payment methods.
func (s *PaymentService) GetPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	return s.repo.GetPaymentMethods(ctx)
}

// CreateCardInfo stores a card under an existing payment method.
func (s *PaymentService) CreateCardInfo(ctx context.Context, card *models.CardInfo, actor string) error {
	method, err := s.repo.GetPaymentMethodByID(ctx, card.PaymentMethodID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: payment method %s does not exist", apperrors.ErrInvalid, card.PaymentMethodID)
		}
		return err
	}
	if !method.IsActive {
		return fmt.Errorf("%w: payment method %s is not active", apperrors.ErrInvalid, method.Name)
	}
	card.IsActive = true
	if err := s.repo.CreateCardInfo(ctx, card); err != nil {
		return err
	}
	recordAudit(ctx, s.auditRepo, actor, models.AuditCreated, "CardInfo", card.ID,
		fmt.Sprintf("Card ending in %s created", card.Last4))
	return nil
}

// GetCardInfos lists the active cards.
func (s *PaymentService) GetCardInfos(ctx context.Context) ([]models.CardInfo, error) {
	return s.repo.GetCardInfos(ctx)
}

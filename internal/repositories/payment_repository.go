package repositories

import (
	"context"
	"errors"
	"fmt"

	"backoffice/internal/apperrors"
	"backoffice/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRepository defines data access for payment methods and cards.
type PaymentRepository interface {
	CreatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error
	GetPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	GetPaymentMethodByID(ctx context.Context, id string) (*models.PaymentMethod, error)
	CreateCardInfo(ctx context.Context, card *models.CardInfo) error
	GetCardInfos(ctx context.Context) ([]models.CardInfo, error)
	GetCardInfoByID(ctx context.Context, id string) (*models.CardInfo, error)
}

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{db: db}
}

func (r *GORMPaymentRepository) CreatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	if method.ID == "" {
		method.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(method).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("payment method %q: %w", method.Name, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create payment method: %w", err)
	}
	return nil
}

func (r *GORMPaymentRepository) GetPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&methods).Error; err != nil {
		return nil, fmt.Errorf("failed to get payment methods: %w", err)
	}
	return methods, nil
}

func (r *GORMPaymentRepository) GetPaymentMethodByID(ctx context.Context, id string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).First(&method, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment method with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment method %s: %w", id, err)
	}
	return &method, nil
}

func (r *GORMPaymentRepository) CreateCardInfo(ctx context.Context, card *models.CardInfo) error {
	if card.ID == "" {
		card.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(card).Error; err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

func (r *GORMPaymentRepository) GetCardInfos(ctx context.Context) ([]models.CardInfo, error) {
	var cards []models.CardInfo
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("card_holder ASC").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	return cards, nil
}

func (r *GORMPaymentRepository) GetCardInfoByID(ctx context.Context, id string) (*models.CardInfo, error) {
	var card models.CardInfo
	if err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("card with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}
	return &card, nil
}

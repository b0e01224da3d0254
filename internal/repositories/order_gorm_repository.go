package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/apperrors"
	"backoffice/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Transaction runs fn inside a database transaction.
func (r *GORMOrderRepository) Transaction(ctx context.Context, fn func(repo OrderRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMOrderRepository{db: tx})
	})
}

func (r *GORMOrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("StandardItems", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("CardItems", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
}

// GetAll retrieves the orders matching filter, newest first.
func (r *GORMOrderRepository) GetAll(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	query := r.withItems(ctx).Model(&models.Order{})
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("(LOWER(order_number) LIKE ? OR LOWER(shipping_phone) LIKE ? OR LOWER(shipping_city) LIKE ?)", like, like, like)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at < ?", filter.To)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves an order with its line items and tracking history.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.withItems(ctx).
		Preload("Tracking", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, apperrors.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Create inserts the order together with its line items.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.StandardItems {
		order.StandardItems[i].OrderID = order.ID
		if order.StandardItems[i].ID == "" {
			order.StandardItems[i].ID = uuid.New().String()
		}
	}
	for i := range order.CardItems {
		order.CardItems[i].OrderID = order.ID
		if order.CardItems[i].ID == "" {
			order.CardItems[i].ID = uuid.New().String()
		}
	}

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order number %s: %w", order.OrderNumber, apperrors.ErrDuplicateOrderNumber)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Update writes the order's own columns if nobody saved it since it was read,
// then bumps its version.
func (r *GORMOrderRepository) Update(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"status":               order.Status,
			"payment_status":       order.PaymentStatus,
			"payment_method":       order.PaymentMethod,
			"payment_id":           order.PaymentID,
			"shipping_address":     order.ShippingAddress,
			"shipping_city":        order.ShippingCity,
			"shipping_postal_code": order.ShippingPostalCode,
			"shipping_phone":       order.ShippingPhone,
			"shipping_cost":        order.ShippingCost,
			"tax_amount":           order.TaxAmount,
			"total":                order.Total,
			"notes":                order.Notes,
			"estimated_delivery":   order.EstimatedDelivery,
			"version":              order.Version + 1,
			"updated_at":           now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update order %s: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check order %s: %w", order.ID, err)
		}
		if count == 0 {
			return fmt.Errorf("order with ID %s: %w", order.ID, apperrors.ErrOrderNotFound)
		}
		return fmt.Errorf("order %s at version %d: %w", order.ID, order.Version, apperrors.ErrConcurrentUpdate)
	}
	order.Version++
	order.UpdatedAt = now
	return nil
}

// SaveStandardItem inserts a new standard item or overwrites an existing one.
func (r *GORMOrderRepository) SaveStandardItem(ctx context.Context, item *models.OrderDetail) error {
	db := r.db.WithContext(ctx)
	if item.ID == "" {
		item.ID = uuid.New().String()
		if err := db.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
		return nil
	}
	if err := db.Save(item).Error; err != nil {
		return fmt.Errorf("failed to update order item %s: %w", item.ID, err)
	}
	return nil
}

// SaveCardItem inserts a new card item or overwrites an existing one.
func (r *GORMOrderRepository) SaveCardItem(ctx context.Context, item *models.OrderDetailCard) error {
	db := r.db.WithContext(ctx)
	if item.ID == "" {
		item.ID = uuid.New().String()
		if err := db.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create card item: %w", err)
		}
		return nil
	}
	if err := db.Save(item).Error; err != nil {
		return fmt.Errorf("failed to update card item %s: %w", item.ID, err)
	}
	return nil
}

// AppendTracking stores a status change record. Records are never updated.
func (r *GORMOrderRepository) AppendTracking(ctx context.Context, entry *models.OrderTracking) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append tracking for order %s: %w", entry.OrderID, err)
	}
	return nil
}

// Delete removes an order and everything it owns.
func (r *GORMOrderRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, owned := range []interface{}{&models.OrderDetail{}, &models.OrderDetailCard{}, &models.OrderTracking{}} {
			if err := tx.Where("order_id = ?", id).Delete(owned).Error; err != nil {
				return fmt.Errorf("failed to delete items of order %s: %w", id, err)
			}
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order with ID %s: %w", id, apperrors.ErrOrderNotFound)
		}
		return nil
	})
}

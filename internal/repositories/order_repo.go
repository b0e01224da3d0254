package repositories

import (
	"context"

	"backoffice/internal/models"
)

// OrderRepository defines the interface for order data access.
// Transaction runs fn against a repository bound to a single store
// transaction; fn returning an error rolls every write back.
type OrderRepository interface {
	Transaction(ctx context.Context, fn func(repo OrderRepository) error) error
	GetAll(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	SaveStandardItem(ctx context.Context, item *models.OrderDetail) error
	SaveCardItem(ctx context.Context, item *models.OrderDetailCard) error
	AppendTracking(ctx context.Context, entry *models.OrderTracking) error
	Delete(ctx context.Context, id string) error
}

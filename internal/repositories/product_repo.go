package repositories

import (
	"context"

	"backoffice/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// CatalogRepository defines data access for categories and brands.
type CatalogRepository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*models.Category, error)
	CreateBrand(ctx context.Context, brand *models.Brand) error
	GetBrands(ctx context.Context) ([]models.Brand, error)
	GetBrandByID(ctx context.Context, id string) (*models.Brand, error)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"backoffice/internal/apperrors"
	"backoffice/internal/models"
	"backoffice/internal/repositories"
)

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo          repositories.ProductRepository
	catalog       repositories.CatalogRepository
	auditRepo     repositories.AuditRepository
	notifications repositories.NotificationRepository
}

// NewProductService creates a new ProductService. catalog, auditRepo and
// notifications may be nil.
func NewProductService(
	repo repositories.ProductRepository,
	catalog repositories.CatalogRepository,
	auditRepo repositories.AuditRepository,
	notifications repositories.NotificationRepository,
) *ProductService {
	return &ProductService{
		repo:          repo,
		catalog:       catalog,
		auditRepo:     auditRepo,
		notifications: notifications,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct stores a new active product.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product, actor string) error {
	if err := s.checkReferences(ctx, product); err != nil {
		return err
	}
	product.Active = true
	product.CreatedBy = actor
	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}
	recordAudit(ctx, s.auditRepo, actor, models.AuditCreated, "Product", product.ID,
		fmt.Sprintf("Product %s created", product.Name))
	s.checkStock(ctx, product)
	return nil
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product, actor string) error {
	if err := s.checkReferences(ctx, product); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return err
	}
	recordAudit(ctx, s.auditRepo, actor, models.AuditUpdated, "Product", product.ID,
		fmt.Sprintf("Product %s updated", product.Name))
	s.checkStock(ctx, product)
	return nil
}

// DeleteProduct soft-deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id, actor string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	recordAudit(ctx, s.auditRepo, actor, models.AuditDeleted, "Product", id, "Product deleted")
	return nil
}

// CreateCategory adds a category to the catalog.
func (s *ProductService) CreateCategory(ctx context.Context, category *models.Category, actor string) error {
	category.Active = true
	if err := s.catalog.CreateCategory(ctx, category); err != nil {
		return err
	}
	recordAudit(ctx, s.auditRepo, actor, models.AuditCreated, "Category", category.ID,
		fmt.Sprintf("Category %s created", category.Name))
	return nil
}

// GetCategories lists the catalog categories.
func (s *ProductService) GetCategories(ctx context.Context) ([]models.Category, error) {
	return s.catalog.GetCategories(ctx)
}

// CreateBrand adds a brand to the catalog.
func (s *ProductService) CreateBrand(ctx context.Context, brand *models.Brand, actor string) error {
	brand.Active = true
	if err := s.catalog.CreateBrand(ctx, brand); err != nil {
		return err
	}
	recordAudit(ctx, s.auditRepo, actor, models.AuditCreated, "Brand", brand.ID,
		fmt.Sprintf("Brand %s created", brand.Name))
	return nil
}

// GetBrands lists the catalog brands.
func (s *ProductService) GetBrands(ctx context.Context) ([]models.Brand, error) {
	return s.catalog.GetBrands(ctx)
}

func (s *ProductService) checkReferences(ctx context.Context, product *models.Product) error {
	if s.catalog == nil {
		return nil
	}
	if product.CategoryID != "" {
		if _, err := s.catalog.GetCategoryByID(ctx, product.CategoryID); err != nil {
			return referenceError("category", product.CategoryID, err)
		}
	}
	if product.BrandID != "" {
		if _, err := s.catalog.GetBrandByID(ctx, product.BrandID); err != nil {
			return referenceError("brand", product.BrandID, err)
		}
	}
	return nil
}

func referenceError(kind, id string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("%w: %s %s does not exist", apperrors.ErrInvalid, kind, id)
	}
	return err
}

// checkStock raises a low_stock notification once a product drops below its minimum.
func (s *ProductService) checkStock(ctx context.Context, product *models.Product) {
	if s.notifications == nil || !product.IsBelowMinStock() {
		return
	}
	n := &models.Notification{
		Type:    models.NotificationLowStock,
		Title:   "Low stock",
		Message: fmt.Sprintf("Product %s has %d units left (minimum %d)", product.Name, product.Stock, product.MinStock),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		log.Printf("Warning: Failed to create low stock notification for product %s: %v", product.ID, err)
	}
}

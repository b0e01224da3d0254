package handlers

import (
	"backoffice/internal/middleware"
	"backoffice/internal/models"
	"backoffice/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the catalog routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	products := router.Group("/products")
	products.Get("/", guards.Auth, h.HandleGetProducts)
	products.Get("/:id", guards.Auth, h.HandleGetProductByID)
	products.Post("/", guards.Auth, guards.Admin, h.HandleCreateProduct)
	products.Put("/:id", guards.Auth, guards.Admin, h.HandleUpdateProduct)
	products.Delete("/:id", guards.Auth, guards.Admin, h.HandleDeleteProduct)

	router.Get("/categories", guards.Auth, h.HandleGetCategories)
	router.Post("/categories", guards.Auth, guards.Admin, h.HandleCreateCategory)
	router.Get("/brands", guards.Auth, h.HandleGetBrands)
	router.Post("/brands", guards.Auth, guards.Admin, h.HandleCreateBrand)
}

// HandleGetProducts lists the catalog.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID returns one product.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleCreateProduct adds a product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if ok, err := parseBody(c, h.validate, &product); !ok {
		return err
	}
	product.ID = ""
	if err := h.service.CreateProduct(c.UserContext(), &product, middleware.UserID(c)); err != nil {
		return respondError(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces a product's editable fields.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if ok, err := parseBody(c, h.validate, &product); !ok {
		return err
	}
	product.ID = c.Params("id")
	if err := h.service.UpdateProduct(c.UserContext(), &product, middleware.UserID(c)); err != nil {
		return respondError(c, "Could not update product", err)
	}
	updated, err := h.service.GetProductByID(c.UserContext(), product.ID)
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	return c.JSON(updated)
}

// HandleDeleteProduct soft-deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id"), middleware.UserID(c)); err != nil {
		return respondError(c, "Could not delete product", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleGetCategories lists categories.
func (h *ProductHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetCategories(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve categories", err)
	}
	return c.JSON(categories)
}

// HandleCreateCategory adds a category.
func (h *ProductHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var category models.Category
	if ok, err := parseBody(c, h.validate, &category); !ok {
		return err
	}
	category.ID = ""
	if err := h.service.CreateCategory(c.UserContext(), &category, middleware.UserID(c)); err != nil {
		return respondError(c, "Could not create category", err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleGetBrands lists brands.
func (h *ProductHandler) HandleGetBrands(c *fiber.Ctx) error {
	brands, err := h.service.GetBrands(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve brands", err)
	}
	return c.JSON(brands)
}

// HandleCreateBrand adds a brand.
func (h *ProductHandler) HandleCreateBrand(c *fiber.Ctx) error {
	var brand models.Brand
	if ok, err := parseBody(c, h.validate, &brand); !ok {
		return err
	}
	brand.ID = ""
	if err := h.service.CreateBrand(c.UserContext(), &brand, middleware.UserID(c)); err != nil {
		return respondError(c, "Could not create brand", err)
	}
	return c.Status(fiber.StatusCreated).JSON(brand)
}

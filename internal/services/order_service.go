package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"backoffice/internal/apperrors"
	"backoffice/internal/models"
	"backoffice/internal/pricing"
	"backoffice/internal/repositories"

	"github.com/shopspring/decimal"
)

// StandardItemInput describes a standard line item to add to an order.
// UnitPrice defaults to the catalog price when omitted.
type StandardItemInput struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

// CardItemInput describes an installment line item to add to an order.
type CardItemInput struct {
	ProductID    string           `json:"product_id" validate:"required"`
	CardInfoID   string           `json:"card_info_id" validate:"required"`
	Cuotas       int              `json:"cuotas" validate:"gte=0"`
	Installments int              `json:"installments" validate:"gte=0"`
	Quantity     int              `json:"quantity" validate:"gt=0"`
	Offer        bool             `json:"offer"`
	Discount     decimal.Decimal  `json:"discount" validate:"gte=0"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

// CreateOrderInput is everything a client may supply when placing an order.
// Totals are always derived, never read from the request.
type CreateOrderInput struct {
	CustomerID         string              `json:"-"`
	ShippingAddress    string              `json:"shipping_address" validate:"required,max=500"`
	ShippingCity       string              `json:"shipping_city" validate:"required,max=100"`
	ShippingPostalCode string              `json:"shipping_postal_code" validate:"required,max=20"`
	ShippingPhone      string              `json:"shipping_phone" validate:"required,max=20"`
	ShippingCost       decimal.Decimal     `json:"shipping_cost" validate:"gte=0"`
	TaxAmount          decimal.Decimal     `json:"tax_amount" validate:"gte=0"`
	PaymentMethod      string              `json:"payment_method" validate:"max=50"`
	Notes              string              `json:"notes" validate:"max=2000"`
	StandardItems      []StandardItemInput `json:"standard_items" validate:"dive"`
	CardItems          []CardItemInput     `json:"card_items" validate:"dive"`
}

// ShippingUpdate is a partial update of the shipping and charge fields.
// Nil fields are left untouched.
type ShippingUpdate struct {
	ShippingAddress    *string          `json:"shipping_address" validate:"omitempty,min=1,max=500"`
	ShippingCity       *string          `json:"shipping_city" validate:"omitempty,min=1,max=100"`
	ShippingPostalCode *string          `json:"shipping_postal_code" validate:"omitempty,min=1,max=20"`
	ShippingPhone      *string          `json:"shipping_phone" validate:"omitempty,min=1,max=20"`
	ShippingCost       *decimal.Decimal `json:"shipping_cost" validate:"omitempty,gte=0"`
	TaxAmount          *decimal.Decimal `json:"tax_amount" validate:"omitempty,gte=0"`
	Notes              *string          `json:"notes" validate:"omitempty,max=2000"`
}

func (u ShippingUpdate) apply(order *models.Order) {
	if u.ShippingAddress != nil {
		order.ShippingAddress = *u.ShippingAddress
	}
	if u.ShippingCity != nil {
		order.ShippingCity = *u.ShippingCity
	}
	if u.ShippingPostalCode != nil {
		order.ShippingPostalCode = *u.ShippingPostalCode
	}
	if u.ShippingPhone != nil {
		order.ShippingPhone = *u.ShippingPhone
	}
	if u.ShippingCost != nil {
		order.ShippingCost = *u.ShippingCost
	}
	if u.TaxAmount != nil {
		order.TaxAmount = *u.TaxAmount
	}
	if u.Notes != nil {
		order.Notes = *u.Notes
	}
}

// DashboardInvalidator drops cached figures an order change made stale.
// *ReportService satisfies it.
type DashboardInvalidator interface {
	InvalidateDashboard(ctx context.Context, now time.Time)
}

// OrderConfig tunes the order engine. Reports may be nil.
type OrderConfig struct {
	Policy            pricing.StatusPolicy
	Numbers           *pricing.OrderNumberGenerator
	MaxNumberAttempts int
	Reports           DashboardInvalidator
}

// OrderService handles business logic related to orders. Every mutation
// reloads the order, applies the change, recomputes the total and saves it
// inside one store transaction.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	paymentRepo repositories.PaymentRepository
	auditRepo   repositories.AuditRepository
	publisher   EventPublisher
	policy      pricing.StatusPolicy
	numbers     *pricing.OrderNumberGenerator
	maxAttempts int
	reports     DashboardInvalidator
}

// NewOrderService creates a new OrderService. auditRepo and publisher may be nil.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	paymentRepo repositories.PaymentRepository,
	auditRepo repositories.AuditRepository,
	publisher EventPublisher,
	cfg OrderConfig,
) *OrderService {
	if cfg.Policy == nil {
		cfg.Policy = pricing.PermissivePolicy{}
	}
	if cfg.Numbers == nil {
		cfg.Numbers = pricing.NewOrderNumberGenerator()
	}
	if cfg.MaxNumberAttempts < 1 {
		cfg.MaxNumberAttempts = 5
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		paymentRepo: paymentRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
		policy:      cfg.Policy,
		numbers:     cfg.Numbers,
		maxAttempts: cfg.MaxNumberAttempts,
		reports:     cfg.Reports,
	}
}

// GetAllOrders retrieves the orders matching filter.
func (s *OrderService) GetAllOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	return s.orderRepo.GetAll(ctx, filter)
}

// GetOrderByID retrieves a single order with its items and history.
func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// CreateOrder validates the request, prices it and stores it with a fresh
// order number. A number collision is retried with a new number.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer is required", apperrors.ErrInvalidLineItem)
	}
	if len(in.StandardItems)+len(in.CardItems) == 0 {
		return nil, fmt.Errorf("%w: an order needs at least one item", apperrors.ErrInvalidLineItem)
	}
	if err := pricing.ValidateCharges(in.ShippingCost, in.TaxAmount); err != nil {
		return nil, err
	}

	standard := make([]models.OrderDetail, 0, len(in.StandardItems))
	for _, item := range in.StandardItems {
		detail, err := s.resolveStandardItem(ctx, item)
		if err != nil {
			return nil, err
		}
		standard = append(standard, detail)
	}
	card := make([]models.OrderDetailCard, 0, len(in.CardItems))
	for _, item := range in.CardItems {
		detail, err := s.resolveCardItem(ctx, item)
		if err != nil {
			return nil, err
		}
		card = append(card, detail)
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		order := &models.Order{
			CustomerID:         in.CustomerID,
			Status:             models.OrderStatusPending,
			PaymentStatus:      models.PaymentStatusPending,
			PaymentMethod:      in.PaymentMethod,
			ShippingAddress:    in.ShippingAddress,
			ShippingCity:       in.ShippingCity,
			ShippingPostalCode: in.ShippingPostalCode,
			ShippingPhone:      in.ShippingPhone,
			ShippingCost:       in.ShippingCost,
			TaxAmount:          in.TaxAmount,
			Notes:              in.Notes,
			StandardItems:      append([]models.OrderDetail(nil), standard...),
			CardItems:          append([]models.OrderDetailCard(nil), card...),
		}
		s.AssignOrderNumber(order)

		err := s.orderRepo.Transaction(ctx, func(repo repositories.OrderRepository) error {
			pricing.Recalculate(order)
			return repo.Create(ctx, order)
		})
		if err == nil {
			log.Printf("Created order %s (%s) total %s", order.OrderNumber, order.ID, order.Total.StringFixed(2))
			s.invalidateReports(ctx)
			publishOrderEvent(s.publisher, models.EventOrderCreated, order, "")
			recordAudit(ctx, s.auditRepo, in.CustomerID, models.AuditCreated, "Order", order.ID,
				fmt.Sprintf("Order %s created with total %s", order.OrderNumber, order.Total.StringFixed(2)))
			return order, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicateOrderNumber) {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		log.Printf("Order number %s already taken (attempt %d/%d), regenerating", order.OrderNumber, attempt, s.maxAttempts)
	}
	return nil, fmt.Errorf("failed to assign a unique order number after %d attempts: %w", s.maxAttempts, apperrors.ErrDuplicateOrderNumber)
}

// AssignOrderNumber sets a generated order number if the order has none.
func (s *OrderService) AssignOrderNumber(order *models.Order) {
	if order.OrderNumber == "" {
		order.OrderNumber = s.numbers.Next()
	}
}

// AddStandardItem appends a standard line item and recomputes the total.
func (s *OrderService) AddStandardItem(ctx context.Context, orderID string, in StandardItemInput, actor string) (*models.Order, error) {
	detail, err := s.resolveStandardItem(ctx, in)
	if err != nil {
		return nil, err
	}
	order, err := s.mutate(ctx, orderID, func(repo repositories.OrderRepository, order *models.Order) error {
		if err := ensureOpen(order); err != nil {
			return err
		}
		detail.OrderID = order.ID
		if err := repo.SaveStandardItem(ctx, &detail); err != nil {
			return err
		}
		order.StandardItems = append(order.StandardItems, detail)
		return nil
	})
	if err != nil {
		return nil, err
	}
	recordAudit(ctx, s.auditRepo, actor, models.AuditUpdated, "Order", order.ID,
		fmt.Sprintf("Added %d x product %s to order %s", detail.Quantity, detail.ProductID, order.OrderNumber))
	return order, nil
}

// AddCardItem appends an installment line item and recomputes the total.
func (s *OrderService) AddCardItem(ctx context.Context, orderID string, in CardItemInput, actor string) (*models.Order, error) {
	detail, err := s.resolveCardItem(ctx, in)
	if err != nil {
		return nil, err
	}
	order, err := s.mutate(ctx, orderID, func(repo repositories.OrderRepository, order *models.Order) error {
		if err := ensureOpen(order); err != nil {
			return err
		}
		detail.OrderID = order.ID
		if err := repo.SaveCardItem(ctx, &detail); err != nil {
			return err
		}
		order.CardItems = append(order.CardItems, detail)
		return nil
	})
	if err != nil {
		return nil, err
	}
	recordAudit(ctx, s.auditRepo, actor, models.AuditUpdated, "Order", order.ID,
		fmt.Sprintf("Added card item %d x product %s to order %s", detail.Quantity, detail.ProductID, order.OrderNumber))
	return order, nil
}

// RemoveItem deactivates a standard or card line item and recomputes the total.
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID, actor string) (*models.Order, error) {
	order, err := s.mutate(ctx, orderID, func(repo repositories.OrderRepository, order *models.Order) error {
		if err := ensureOpen(order); err != nil {
			return err
		}
		for i := range order.StandardItems {
			if item := &order.StandardItems[i]; item.ID == itemID && item.IsActive {
				item.IsActive = false
				return repo.SaveStandardItem(ctx, item)
			}
		}
		for i := range order.CardItems {
			if item := &order.CardItems[i]; item.ID == itemID && item.IsActive {
				item.IsActive = false
				return repo.SaveCardItem(ctx, item)
			}
		}
		return fmt.Errorf("item %s of order %s: %w", itemID, order.ID, apperrors.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	recordAudit(ctx, s.auditRepo, actor, models.AuditUpdated, "Order", order.ID,
		fmt.Sprintf("Removed item %s from order %s", itemID, order.OrderNumber))
	return order, nil
}

// UpdateShipping applies a partial update of shipping and charge fields.
func (s *OrderService) UpdateShipping(ctx context.Context, orderID string, update ShippingUpdate, actor string) (*models.Order, error) {
	order, err := s.mutate(ctx, orderID, func(repo repositories.OrderRepository, order *models.Order) error {
		if err := ensureOpen(order); err != nil {
			return err
		}
		update.apply(order)
		return pricing.ValidateCharges(order.ShippingCost, order.TaxAmount)
	})
	if err != nil {
		return nil, err
	}
	recordAudit(ctx, s.auditRepo, actor, models.AuditUpdated, "Order", order.ID,
		fmt.Sprintf("Shipping details of order %s updated", order.OrderNumber))
	return order, nil
}

// UpdateOrderStatus moves an order to newStatus and appends a tracking
// record. Unrecognized statuses are rejected before anything is read or written.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, newStatus models.OrderStatus, actor, note string) (*models.Order, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, newStatus)
	}

	var previous models.OrderStatus
	order, err := s.mutate(ctx, orderID, func(repo repositories.OrderRepository, order *models.Order) error {
		previous = order.Status
		if err := s.policy.Allow(previous, newStatus); err != nil {
			return err
		}
		order.Status = newStatus
		if note == "" {
			note = fmt.Sprintf("Status changed from %s to %s", previous, newStatus)
		}
		entry := models.OrderTracking{
			OrderID:        order.ID,
			PreviousStatus: previous,
			NewStatus:      newStatus,
			Actor:          actor,
			Note:           note,
		}
		if err := repo.AppendTracking(ctx, &entry); err != nil {
			return err
		}
		order.Tracking = append(order.Tracking, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", orderID, err)
	}

	publishOrderEvent(s.publisher, models.EventOrderStatusChanged, order, previous)
	recordAudit(ctx, s.auditRepo, actor, models.AuditUpdated, "Order", order.ID,
		fmt.Sprintf("Status updated from %s to %s", previous, newStatus))
	return order, nil
}

// UpdatePaymentStatus records the settlement state of an order.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID string, status models.PaymentStatus, paymentID, actor string) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: payment status %q", apperrors.ErrInvalidStatus, status)
	}
	var previous models.PaymentStatus
	order, err := s.mutate(ctx, orderID, func(repo repositories.OrderRepository, order *models.Order) error {
		previous = order.PaymentStatus
		order.PaymentStatus = status
		if paymentID != "" {
			order.PaymentID = paymentID
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update payment status for order %s: %w", orderID, err)
	}

	publishOrderEvent(s.publisher, models.EventOrderPaymentChange, order, "")
	recordAudit(ctx, s.auditRepo, actor, models.AuditUpdated, "Order", order.ID,
		fmt.Sprintf("Payment status updated from %s to %s", previous, status))
	return order, nil
}

// DeleteOrder removes an order and everything it owns.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID, actor string) error {
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return err
	}
	s.invalidateReports(ctx)
	recordAudit(ctx, s.auditRepo, actor, models.AuditDeleted, "Order", orderID, "Order deleted")
	return nil
}

func (s *OrderService) invalidateReports(ctx context.Context) {
	if s.reports != nil {
		s.reports.InvalidateDashboard(ctx, time.Now())
	}
}

// mutate runs fn on a freshly loaded order and persists the recomputed total
// in the same transaction.
func (s *OrderService) mutate(ctx context.Context, orderID string, fn func(repo repositories.OrderRepository, order *models.Order) error) (*models.Order, error) {
	var result *models.Order
	err := s.orderRepo.Transaction(ctx, func(repo repositories.OrderRepository) error {
		order, err := repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := fn(repo, order); err != nil {
			return err
		}
		pricing.Recalculate(order)
		if err := repo.Update(ctx, order); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return result, nil
}

// resolveStandardItem checks the product and fills the catalog price.
// It runs outside any order transaction.
func (s *OrderService) resolveStandardItem(ctx context.Context, in StandardItemInput) (models.OrderDetail, error) {
	product, err := s.lookupProduct(ctx, in.ProductID, in.Quantity)
	if err != nil {
		return models.OrderDetail{}, err
	}
	detail := models.OrderDetail{
		ProductID: product.ID,
		Quantity:  in.Quantity,
		UnitPrice: product.Price,
		IsActive:  true,
	}
	if in.UnitPrice != nil {
		detail.UnitPrice = *in.UnitPrice
	}
	if err := pricing.ValidateStandardItem(detail); err != nil {
		return models.OrderDetail{}, err
	}
	return detail, nil
}

func (s *OrderService) resolveCardItem(ctx context.Context, in CardItemInput) (models.OrderDetailCard, error) {
	product, err := s.lookupProduct(ctx, in.ProductID, in.Quantity)
	if err != nil {
		return models.OrderDetailCard{}, err
	}
	if in.CardInfoID == "" {
		return models.OrderDetailCard{}, fmt.Errorf("%w: card is required", apperrors.ErrInvalidLineItem)
	}
	card, err := s.paymentRepo.GetCardInfoByID(ctx, in.CardInfoID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.OrderDetailCard{}, fmt.Errorf("%w: card %s does not exist", apperrors.ErrInvalidLineItem, in.CardInfoID)
		}
		return models.OrderDetailCard{}, err
	}
	if !card.IsActive {
		return models.OrderDetailCard{}, fmt.Errorf("%w: card %s is not active", apperrors.ErrInvalidLineItem, card.ID)
	}

	detail := models.OrderDetailCard{
		ProductID:    product.ID,
		CardInfoID:   card.ID,
		Cuotas:       in.Cuotas,
		Installments: in.Installments,
		Quantity:     in.Quantity,
		Offer:        in.Offer,
		Discount:     in.Discount,
		UnitPrice:    product.Price,
		IsActive:     true,
	}
	if in.UnitPrice != nil {
		detail.UnitPrice = *in.UnitPrice
	}
	if err := pricing.ValidateCardItem(detail); err != nil {
		return models.OrderDetailCard{}, err
	}
	return detail, nil
}

func (s *OrderService) lookupProduct(ctx context.Context, productID string, quantity int) (*models.Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product is required", apperrors.ErrInvalidLineItem)
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s does not exist", apperrors.ErrInvalidLineItem, productID)
		}
		return nil, err
	}
	if !product.Active {
		return nil, fmt.Errorf("%w: product %s is not available", apperrors.ErrInvalidLineItem, product.Name)
	}
	if product.Stock < quantity {
		return nil, fmt.Errorf("%w for product %s (requested: %d, available: %d)", apperrors.ErrInsufficientStock, product.Name, quantity, product.Stock)
	}
	return product, nil
}

func ensureOpen(order *models.Order) error {
	if order.Status.Terminal() {
		return fmt.Errorf("%w: order %s is %s", apperrors.ErrOrderClosed, order.OrderNumber, order.Status)
	}
	return nil
}

package handlers

import (
	"fmt"

	"backoffice/internal/apperrors"
	"backoffice/internal/middleware"
	"backoffice/internal/models"
	"backoffice/internal/pricing"
	"backoffice/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", guards.Auth, h.HandleGetOrders)
	orderRoutes.Get("/:id", guards.Auth, h.HandleGetOrderByID)
	orderRoutes.Post("/", guards.Auth, h.HandleCreateOrder)

	orderRoutes.Post("/:id/items", guards.Auth, guards.Admin, h.HandleAddStandardItem)
	orderRoutes.Post("/:id/card-items", guards.Auth, guards.Admin, h.HandleAddCardItem)
	orderRoutes.Delete("/:id/items/:itemId", guards.Auth, guards.Admin, h.HandleRemoveItem)
	orderRoutes.Patch("/:id/shipping", guards.Auth, guards.Admin, h.HandleUpdateShipping)
	orderRoutes.Patch("/:id/status", guards.Auth, guards.Admin, h.HandleUpdateOrderStatus)
	orderRoutes.Patch("/:id/payment", guards.Auth, guards.Admin, h.HandleUpdatePaymentStatus)
	orderRoutes.Delete("/:id", guards.Auth, guards.Admin, h.HandleDeleteOrder)
}

type orderItemResponse struct {
	models.OrderDetail
	Subtotal decimal.Decimal `json:"subtotal"`
}

type cardItemResponse struct {
	models.OrderDetailCard
	UnitPriceWithOffer decimal.Decimal `json:"unit_price_with_offer"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	TotalInstallments  decimal.Decimal `json:"total_installments"`
}

// OrderResponse is an order with its derived totals.
type OrderResponse struct {
	*models.Order
	StandardItems []orderItemResponse `json:"standard_items"`
	CardItems     []cardItemResponse  `json:"card_items"`
	TotalStandard decimal.Decimal     `json:"total_standard"`
	TotalCard     decimal.Decimal     `json:"total_card"`
}

func newOrderResponse(order *models.Order) OrderResponse {
	resp := OrderResponse{
		Order:         order,
		StandardItems: make([]orderItemResponse, 0, len(order.StandardItems)),
		CardItems:     make([]cardItemResponse, 0, len(order.CardItems)),
		TotalStandard: pricing.TotalStandard(order),
		TotalCard:     pricing.TotalCard(order),
	}
	for _, item := range order.StandardItems {
		resp.StandardItems = append(resp.StandardItems, orderItemResponse{
			OrderDetail: item,
			Subtotal:    pricing.StandardSubtotal(item),
		})
	}
	for _, item := range order.CardItems {
		resp.CardItems = append(resp.CardItems, cardItemResponse{
			OrderDetailCard:    item,
			UnitPriceWithOffer: pricing.EffectiveUnitPrice(item),
			Subtotal:           pricing.CardSubtotal(item),
			TotalInstallments:  pricing.InstallmentAmount(item),
		})
	}
	return resp
}

// HandleGetOrders lists orders. Customers only see their own orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	from, err := queryDate(c, "from")
	if err != nil {
		return respondError(c, "Invalid filter", err)
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return respondError(c, "Invalid filter", err)
	}
	filter := models.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
		Search: c.Query("search"),
		From:   from,
		Limit:  queryLimit(c, 20),
		Offset: queryInt(c, "offset", 0),
	}
	if !to.IsZero() {
		filter.To = to.AddDate(0, 0, 1)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return respondError(c, "Invalid filter", fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, filter.Status))
	}
	if middleware.IsAdmin(c) {
		filter.CustomerID = c.Query("customer_id")
	} else {
		filter.CustomerID = middleware.UserID(c)
	}

	orders, err := h.service.GetAllOrders(c.UserContext(), filter)
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	return c.JSON(out)
}

// HandleGetOrderByID retrieves a single order. Customers get 404 for orders
// that are not theirs.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(c.UserContext(), orderID)
	if err == nil && !middleware.IsAdmin(c) && order.CustomerID != middleware.UserID(c) {
		err = fmt.Errorf("order with ID %s: %w", orderID, apperrors.ErrOrderNotFound)
	}
	if err != nil {
		return respondError(c, "Could not retrieve order", err)
	}
	return c.JSON(newOrderResponse(order))
}

// HandleCreateOrder places an order for the authenticated user.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var in services.CreateOrderInput
	if ok, err := parseBody(c, h.validate, &in); !ok {
		return err
	}
	in.CustomerID = middleware.UserID(c)

	order, err := h.service.CreateOrder(c.UserContext(), in)
	if err != nil {
		return respondError(c, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(newOrderResponse(order))
}

// HandleAddStandardItem adds a standard line item to an order.
func (h *OrderHandler) HandleAddStandardItem(c *fiber.Ctx) error {
	var in services.StandardItemInput
	if ok, err := parseBody(c, h.validate, &in); !ok {
		return err
	}
	order, err := h.service.AddStandardItem(c.UserContext(), c.Params("id"), in, middleware.UserID(c))
	if err != nil {
		return respondError(c, "Could not add item", err)
	}
	return c.JSON(newOrderResponse(order))
}

// HandleAddCardItem adds an installment line item to an order.
func (h *OrderHandler) HandleAddCardItem(c *fiber.Ctx) error {
	var in services.CardItemInput
	if ok, err := parseBody(c, h.validate, &in); !ok {
		return err
	}
	order, err := h.service.AddCardItem(c.UserContext(), c.Params("id"), in, middleware.UserID(c))
	if err != nil {
		return respondError(c, "Could not add card item", err)
	}
	return c.JSON(newOrderResponse(order))
}

// HandleRemoveItem deactivates a line item.
func (h *OrderHandler) HandleRemoveItem(c *fiber.Ctx) error {
	order, err := h.service.RemoveItem(c.UserContext(), c.Params("id"), c.Params("itemId"), middleware.UserID(c))
	if err != nil {
		return respondError(c, "Could not remove item", err)
	}
	return c.JSON(newOrderResponse(order))
}

// HandleUpdateShipping applies a partial update of the shipping fields.
func (h *OrderHandler) HandleUpdateShipping(c *fiber.Ctx) error {
	var update services.ShippingUpdate
	if ok, err := parseBody(c, h.validate, &update); !ok {
		return err
	}
	order, err := h.service.UpdateShipping(c.UserContext(), c.Params("id"), update, middleware.UserID(c))
	if err != nil {
		return respondError(c, "Could not update shipping", err)
	}
	return c.JSON(newOrderResponse(order))
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=1000"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req statusRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), orderID, models.OrderStatus(req.Status), middleware.UserID(c), req.Note)
	if err != nil {
		return respondError(c, "Could not update order status", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", order.OrderNumber, order.Status),
		"order":   newOrderResponse(order),
	})
}

type paymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
	PaymentID     string `json:"payment_id" validate:"max=100"`
}

// HandleUpdatePaymentStatus records the payment state of an order.
func (h *OrderHandler) HandleUpdatePaymentStatus(c *fiber.Ctx) error {
	var req paymentRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}
	order, err := h.service.UpdatePaymentStatus(c.UserContext(), c.Params("id"), models.PaymentStatus(req.PaymentStatus), req.PaymentID, middleware.UserID(c))
	if err != nil {
		return respondError(c, "Could not update payment status", err)
	}
	return c.JSON(newOrderResponse(order))
}

// HandleDeleteOrder removes an order.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	if err := h.service.DeleteOrder(c.UserContext(), c.Params("id"), middleware.UserID(c)); err != nil {
		return respondError(c, "Could not delete order", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package handlers

import (
	"backoffice/internal/middleware"
	"backoffice/internal/models"
	"backoffice/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles HTTP requests for payment methods and cards.
type PaymentHandler struct {
	service  *services.PaymentService
	validate *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the payment routes. All of them require an admin.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	methods := router.Group("/payment-methods", guards.Auth, guards.Admin)
	methods.Get("/", h.HandleGetPaymentMethods)
	methods.Post("/", h.HandleCreatePaymentMethod)

	cards := router.Group("/cards", guards.Auth, guards.Admin)
	cards.Get("/", h.HandleGetCards)
	cards.Post("/", h.HandleCreateCard)
}

// HandleGetPaymentMethods lists the active payment methods.
func (h *PaymentHandler) HandleGetPaymentMethods(c *fiber.Ctx) error {
	methods, err := h.service.GetPaymentMethods(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve payment methods", err)
	}
	return c.JSON(methods)
}

// HandleCreatePaymentMethod adds a payment method.
func (h *PaymentHandler) HandleCreatePaymentMethod(c *fiber.Ctx) error {
	var method models.PaymentMethod
	if ok, err := parseBody(c, h.validate, &method); !ok {
		return err
	}
	method.ID = ""
	if err := h.service.CreatePaymentMethod(c.UserContext(), &method, middleware.UserID(c)); err != nil {
		return respondError(c, "Could not create payment method", err)
	}
	return c.Status(fiber.StatusCreated).JSON(method)
}

// HandleGetCards lists the active cards.
func (h *PaymentHandler) HandleGetCards(c *fiber.Ctx) error {
	cards, err := h.service.GetCardInfos(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve cards", err)
	}
	return c.JSON(cards)
}

// HandleCreateCard adds a card under an existing payment method.
func (h *PaymentHandler) HandleCreateCard(c *fiber.Ctx) error {
	var card models.CardInfo
	if ok, err := parseBody(c, h.validate, &card); !ok {
		return err
	}
	card.ID = ""
	if err := h.service.CreateCardInfo(c.UserContext(), &card, middleware.UserID(c)); err != nil {
		return respondError(c, "Could not create card", err)
	}
	return c.Status(fiber.StatusCreated).JSON(card)
}

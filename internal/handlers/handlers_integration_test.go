package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"backoffice/internal/database/dbtest"
	"backoffice/internal/handlers"
	"backoffice/internal/middleware"
	"backoffice/internal/models"
	"backoffice/internal/repositories"
	"backoffice/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-secret"
)

// setupApp wires every handler against a private in-memory SQLite database.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	db := dbtest.Open(t)

	orderRepo := repositories.NewGORMOrderRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	catalogRepo := repositories.NewGORMCatalogRepository(db)
	paymentRepo := repositories.NewGORMPaymentRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	auditRepo := repositories.NewGORMAuditRepository(db)
	notificationRepo := repositories.NewGORMNotificationRepository(db)
	reportRepo := repositories.NewGORMReportRepository(db)

	authService := services.NewAuthService(userRepo, "test_jwt_secret", 0)
	require.NoError(t, authService.EnsureAdmin(context.Background(), adminEmail, adminPassword))

	guards := handlers.Guards{
		Auth:  middleware.AuthRequired(authService),
		Admin: middleware.AdminRequired(),
	}
	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1, guards)
	handlers.NewProductHandler(services.NewProductService(productRepo, catalogRepo, auditRepo, notificationRepo)).RegisterRoutes(apiV1, guards)
	handlers.NewOrderHandler(services.NewOrderService(orderRepo, productRepo, paymentRepo, auditRepo, nil, services.OrderConfig{})).RegisterRoutes(apiV1, guards)
	handlers.NewPaymentHandler(services.NewPaymentService(paymentRepo, auditRepo)).RegisterRoutes(apiV1, guards)
	handlers.NewReportHandler(
		services.NewReportService(reportRepo, productRepo, notificationRepo, nil),
		services.NewNotificationService(notificationRepo),
		services.NewAuditService(auditRepo),
	).RegisterRoutes(apiV1, guards)
	return app
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// call sends body as JSON and decodes the response into out when out is non-nil.
func call(t *testing.T, app *fiber.App, method, path, token string, body, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	var resp map[string]interface{}
	status := call(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	require.Equal(t, http.StatusOK, status)
	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func registerCustomer(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status := call(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Test Customer",
		"email":    email,
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	return login(t, app, email, "password123")
}

func createProduct(t *testing.T, app *fiber.App, token, name string, price int64) models.Product {
	t.Helper()
	var product models.Product
	status := call(t, app, http.MethodPost, "/api/v1/products", token, map[string]interface{}{
		"name":  name,
		"price": price,
		"stock": 20,
	}, &product)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, product.ID)
	return product
}

func createCard(t *testing.T, app *fiber.App, token string) models.CardInfo {
	t.Helper()
	var method models.PaymentMethod
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/v1/payment-methods", token,
		map[string]string{"name": "Visa"}, &method))

	var card models.CardInfo
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/v1/cards", token, map[string]string{
		"payment_method_id": method.ID,
		"card_holder":       "Test Customer",
		"last4":             "4242",
		"expiration":        "12/2030",
	}, &card))
	return card
}

type orderResponse struct {
	ID            string             `json:"id"`
	OrderNumber   string             `json:"order_number"`
	CustomerID    string             `json:"customer_id"`
	Status        models.OrderStatus `json:"status"`
	Total         decimal.Decimal    `json:"total"`
	TotalStandard decimal.Decimal    `json:"total_standard"`
	TotalCard     decimal.Decimal    `json:"total_card"`
	StandardItems []struct {
		Subtotal decimal.Decimal `json:"subtotal"`
	} `json:"standard_items"`
	CardItems []struct {
		UnitPriceWithOffer decimal.Decimal `json:"unit_price_with_offer"`
		Subtotal           decimal.Decimal `json:"subtotal"`
		TotalInstallments  decimal.Decimal `json:"total_installments"`
	} `json:"card_items"`
	Tracking []models.OrderTracking `json:"tracking"`
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	body := map[string]string{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "password123",
	}
	var registerResp map[string]interface{}
	assert.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/v1/auth/register", "", body, &registerResp))
	assert.Equal(t, "User registered successfully", registerResp["message"])
	user, _ := registerResp["user"].(map[string]interface{})
	assert.NotContains(t, user, "password")

	// Duplicate registration
	assert.Equal(t, http.StatusConflict, call(t, app, http.MethodPost, "/api/v1/auth/register", "", body, nil))

	// Wrong password
	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"email": "test@example.com", "password": "wrong-password"}, nil))

	token := login(t, app, "test@example.com", "password123")
	var me models.User
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/v1/me", token, nil, &me))
	assert.Equal(t, "test@example.com", me.Email)
	assert.Equal(t, models.RoleCustomer, me.Role)
}

func TestRegisterValidation(t *testing.T) {
	app := setupApp(t)

	var resp map[string]interface{}
	status := call(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "X",
		"email":    "not-an-email",
		"password": "123",
	}, &resp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", resp["message"])
	assert.Len(t, resp["errors"], 3)
}

func TestProductEndpoints(t *testing.T) {
	app := setupApp(t)
	adminToken := login(t, app, adminEmail, adminPassword)
	customerToken := registerCustomer(t, app, "shopper@example.com")

	product := createProduct(t, app, adminToken, "Smartphone", 799)
	assertDecimal(t, "799", product.Price)
	assert.True(t, product.Active)

	// Customers can browse but not edit the catalog
	var products []models.Product
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/v1/products", customerToken, nil, &products))
	assert.Len(t, products, 1)
	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodPost, "/api/v1/products", customerToken,
		map[string]interface{}{"name": "Forbidden", "price": 1, "stock": 1}, nil))

	var updated models.Product
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodPut, "/api/v1/products/"+product.ID, adminToken,
		map[string]interface{}{"name": "Smartphone Pro", "price": 899, "stock": 45, "active": true}, &updated))
	assert.Equal(t, "Smartphone Pro", updated.Name)
	assertDecimal(t, "899", updated.Price)

	// Unknown category is rejected
	assert.Equal(t, http.StatusBadRequest, call(t, app, http.MethodPost, "/api/v1/products", adminToken,
		map[string]interface{}{"name": "Orphan", "price": 5, "stock": 1, "category_id": "missing"}, nil))

	assert.Equal(t, http.StatusNoContent, call(t, app, http.MethodDelete, "/api/v1/products/"+product.ID, adminToken, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodGet, "/api/v1/products/"+product.ID, adminToken, nil, nil))
}

func TestProductEndpointsWithoutAuth(t *testing.T) {
	app := setupApp(t)

	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/v1/products", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodPost, "/api/v1/products", "",
		map[string]interface{}{"name": "Unauthorized Product", "price": 100, "stock": 10}, nil))
}

func TestOrderLifecycle(t *testing.T) {
	app := setupApp(t)
	adminToken := login(t, app, adminEmail, adminPassword)
	customerToken := registerCustomer(t, app, "buyer@example.com")
	otherToken := registerCustomer(t, app, "other@example.com")

	laptop := createProduct(t, app, adminToken, "Laptop", 100)
	mouse := createProduct(t, app, adminToken, "Mouse", 50)
	card := createCard(t, app, adminToken)

	var order orderResponse
	status := call(t, app, http.MethodPost, "/api/v1/orders", customerToken, map[string]interface{}{
		"shipping_address":     "1 Main St",
		"shipping_city":        "Springfield",
		"shipping_postal_code": "12345",
		"shipping_phone":       "555-0100",
		"shipping_cost":        15,
		"tax_amount":           5,
		"total":                1,
		"standard_items": []map[string]interface{}{
			{"product_id": laptop.ID, "quantity": 2},
		},
		"card_items": []map[string]interface{}{
			{"product_id": mouse.ID, "card_info_id": card.ID, "cuotas": 3, "installments": 3, "quantity": 3, "offer": true, "discount": 10},
		},
	}, &order)
	require.Equal(t, http.StatusCreated, status)
	assert.Regexp(t, `^ORD-\d{14}-[0-9A-F]{8}$`, order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assertDecimal(t, "340", order.Total)
	assertDecimal(t, "200", order.TotalStandard)
	assertDecimal(t, "120", order.TotalCard)
	require.Len(t, order.StandardItems, 1)
	assertDecimal(t, "200", order.StandardItems[0].Subtotal)
	require.Len(t, order.CardItems, 1)
	assertDecimal(t, "40", order.CardItems[0].UnitPriceWithOffer)
	assertDecimal(t, "120", order.CardItems[0].Subtotal)
	assertDecimal(t, "40", order.CardItems[0].TotalInstallments)

	orderPath := "/api/v1/orders/" + order.ID

	// Ownership
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, orderPath, customerToken, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodGet, orderPath, otherToken, nil, nil))
	var otherOrders []orderResponse
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/v1/orders", otherToken, nil, &otherOrders))
	assert.Empty(t, otherOrders)

	// Customers cannot change the status
	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodPatch, orderPath+"/status", customerToken,
		map[string]string{"status": "confirmed"}, nil))

	// Invalid status is rejected and the order is unchanged
	assert.Equal(t, http.StatusBadRequest, call(t, app, http.MethodPatch, orderPath+"/status", adminToken,
		map[string]string{"status": "teleported"}, nil))
	var unchanged orderResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, orderPath, adminToken, nil, &unchanged))
	assert.Equal(t, models.OrderStatusPending, unchanged.Status)
	assert.Empty(t, unchanged.Tracking)

	var statusResp struct {
		Message string        `json:"message"`
		Order   orderResponse `json:"order"`
	}
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPatch, orderPath+"/status", adminToken,
		map[string]string{"status": "confirmed", "note": "stock checked"}, &statusResp))
	assert.Contains(t, statusResp.Message, "confirmed")
	assert.Equal(t, models.OrderStatusConfirmed, statusResp.Order.Status)
	require.Len(t, statusResp.Order.Tracking, 1)
	assert.Equal(t, models.OrderStatusPending, statusResp.Order.Tracking[0].PreviousStatus)
	assert.Equal(t, models.OrderStatusConfirmed, statusResp.Order.Tracking[0].NewStatus)
	assertDecimal(t, "340", statusResp.Order.Total)

	// Shipping changes recompute the total
	var shipped orderResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPatch, orderPath+"/shipping", adminToken,
		map[string]interface{}{"shipping_cost": 30}, &shipped))
	assertDecimal(t, "355", shipped.Total)

	// Unknown order
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodPatch, "/api/v1/orders/missing/status", adminToken,
		map[string]string{"status": "shipped"}, nil))

	// Admin listing filters by status
	var confirmed []orderResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/v1/orders?status=confirmed", adminToken, nil, &confirmed))
	require.Len(t, confirmed, 1)
	assert.Equal(t, order.ID, confirmed[0].ID)
	assert.Equal(t, http.StatusBadRequest, call(t, app, http.MethodGet, "/api/v1/orders?status=bogus", adminToken, nil, nil))

	// The audit trail saw the order and its status change
	var events []models.AuditEvent
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/v1/audit?entity=Order", adminToken, nil, &events))
	assert.GreaterOrEqual(t, len(events), 2)
}

func TestCreateOrderRejectsInvalidItems(t *testing.T) {
	app := setupApp(t)
	adminToken := login(t, app, adminEmail, adminPassword)
	customerToken := registerCustomer(t, app, "buyer@example.com")
	product := createProduct(t, app, adminToken, "Keyboard", 75)

	base := func(items []map[string]interface{}) map[string]interface{} {
		return map[string]interface{}{
			"shipping_address":     "1 Main St",
			"shipping_city":        "Springfield",
			"shipping_postal_code": "12345",
			"shipping_phone":       "555-0100",
			"standard_items":       items,
		}
	}

	tests := []struct {
		name  string
		items []map[string]interface{}
		want  int
	}{
		{"no items", nil, http.StatusBadRequest},
		{"zero quantity", []map[string]interface{}{{"product_id": product.ID, "quantity": 0}}, http.StatusBadRequest},
		{"unknown product", []map[string]interface{}{{"product_id": "missing", "quantity": 1}}, http.StatusBadRequest},
		{"too many", []map[string]interface{}{{"product_id": product.ID, "quantity": 500}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, call(t, app, http.MethodPost, "/api/v1/orders", customerToken, base(tt.items), nil))
		})
	}

	var orders []orderResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/v1/orders", adminToken, nil, &orders))
	assert.Empty(t, orders)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	app := setupApp(t)
	customerToken := registerCustomer(t, app, "buyer@example.com")
	adminToken := login(t, app, adminEmail, adminPassword)

	for _, path := range []string{"/api/v1/dashboard", "/api/v1/reports/sales", "/api/v1/reports/stats", "/api/v1/notifications", "/api/v1/audit", "/api/v1/cards"} {
		assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodGet, path, customerToken, nil, nil), path)
		assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, path, adminToken, nil, nil), path)
	}
	assert.Equal(t, http.StatusBadRequest, call(t, app, http.MethodGet,
		"/api/v1/reports/sales?date_from=2026-03-10&date_to=2026-03-01", adminToken, nil, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, app, http.MethodGet,
		"/api/v1/reports/sales?date_from=yesterday", adminToken, nil, nil))
}

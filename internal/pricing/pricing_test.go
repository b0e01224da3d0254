package pricing_test

import (
	"testing"

	"backoffice/internal/apperrors"
	"backoffice/internal/models"
	"backoffice/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func scenarioOrder() *models.Order {
	return &models.Order{
		ShippingCost: dec("15"),
		TaxAmount:    dec("5"),
		StandardItems: []models.OrderDetail{
			{ProductID: "p-1", Quantity: 2, UnitPrice: dec("100"), IsActive: true},
		},
		CardItems: []models.OrderDetailCard{
			{ProductID: "p-2", CardInfoID: "c-1", Quantity: 3, UnitPrice: dec("50"), Offer: true, Discount: dec("10"), Installments: 4, Cuotas: 4, IsActive: true},
		},
	}
}

func TestScenario_MixedOrder(t *testing.T) {
	order := scenarioOrder()

	assert.True(t, dec("200").Equal(pricing.TotalStandard(order)))
	assert.True(t, dec("120").Equal(pricing.TotalCard(order)))
	assert.True(t, dec("340").Equal(pricing.GrandTotal(order)))
	assert.True(t, dec("30").Equal(pricing.InstallmentAmount(order.CardItems[0])))
}

func TestRecalculate_Idempotent(t *testing.T) {
	order := scenarioOrder()
	order.Total = dec("9999")

	first := pricing.Recalculate(order)
	second := pricing.Recalculate(order)

	assert.True(t, dec("340").Equal(first))
	assert.True(t, first.Equal(second))
	assert.True(t, first.Equal(order.Total))
}

func TestTotals_IgnoreInactiveItems(t *testing.T) {
	order := scenarioOrder()
	order.StandardItems = append(order.StandardItems, models.OrderDetail{ProductID: "p-3", Quantity: 1, UnitPrice: dec("500"), IsActive: false})
	order.CardItems[0].IsActive = false

	assert.True(t, dec("200").Equal(pricing.TotalStandard(order)))
	assert.True(t, pricing.TotalCard(order).IsZero())
	assert.True(t, dec("220").Equal(pricing.GrandTotal(order)))
}

func TestTotals_EmptyOrder(t *testing.T) {
	order := &models.Order{}

	assert.True(t, pricing.TotalStandard(order).IsZero())
	assert.True(t, pricing.TotalCard(order).IsZero())
	assert.True(t, pricing.GrandTotal(order).IsZero())
}

func TestStandardSubtotal(t *testing.T) {
	tests := []struct {
		name string
		item models.OrderDetail
		want string
	}{
		{"price times quantity", models.OrderDetail{Quantity: 3, UnitPrice: dec("19.99")}, "59.97"},
		{"unset quantity", models.OrderDetail{UnitPrice: dec("10")}, "0"},
		{"unset price", models.OrderDetail{Quantity: 4}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, dec(tt.want).Equal(pricing.StandardSubtotal(tt.item)), "got %s", pricing.StandardSubtotal(tt.item))
		})
	}
}

func TestCardSubtotal(t *testing.T) {
	tests := []struct {
		name string
		item models.OrderDetailCard
		want string
	}{
		{"no offer ignores discount", models.OrderDetailCard{Quantity: 2, UnitPrice: dec("80"), Discount: dec("30")}, "160"},
		{"offer applies discount", models.OrderDetailCard{Quantity: 2, UnitPrice: dec("80"), Offer: true, Discount: dec("30")}, "100"},
		{"discount larger than price clamps to zero", models.OrderDetailCard{Quantity: 2, UnitPrice: dec("20"), Offer: true, Discount: dec("30")}, "0"},
		{"unset quantity", models.OrderDetailCard{UnitPrice: dec("20")}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, dec(tt.want).Equal(pricing.CardSubtotal(tt.item)), "got %s", pricing.CardSubtotal(tt.item))
		})
	}
}

func TestInstallmentAmount(t *testing.T) {
	item := models.OrderDetailCard{Quantity: 1, UnitPrice: dec("100"), Installments: 3}
	assert.True(t, dec("33.33").Equal(pricing.InstallmentAmount(item)))

	item.Installments = 0
	assert.True(t, dec("100").Equal(pricing.InstallmentAmount(item)))

	item.Installments = -2
	assert.True(t, dec("100").Equal(pricing.InstallmentAmount(item)))
}

func TestValidateStandardItem(t *testing.T) {
	assert.NoError(t, pricing.ValidateStandardItem(models.OrderDetail{ProductID: "p", Quantity: 1, UnitPrice: dec("0")}))

	bad := []models.OrderDetail{
		{Quantity: 1, UnitPrice: dec("1")},
		{ProductID: "p", Quantity: 0, UnitPrice: dec("1")},
		{ProductID: "p", Quantity: -1, UnitPrice: dec("1")},
		{ProductID: "p", Quantity: 1, UnitPrice: dec("-0.01")},
	}
	for _, item := range bad {
		assert.ErrorIs(t, pricing.ValidateStandardItem(item), apperrors.ErrInvalidLineItem)
	}
}

func TestValidateCardItem(t *testing.T) {
	valid := models.OrderDetailCard{ProductID: "p", CardInfoID: "c", Quantity: 1, UnitPrice: dec("50"), Offer: true, Discount: dec("50"), Installments: 6}
	assert.NoError(t, pricing.ValidateCardItem(valid))

	mutations := map[string]func(*models.OrderDetailCard){
		"missing card":        func(i *models.OrderDetailCard) { i.CardInfoID = "" },
		"zero quantity":       func(i *models.OrderDetailCard) { i.Quantity = 0 },
		"negative price":      func(i *models.OrderDetailCard) { i.UnitPrice = dec("-1") },
		"negative discount":   func(i *models.OrderDetailCard) { i.Discount = dec("-1") },
		"discount over price": func(i *models.OrderDetailCard) { i.Discount = dec("50.01") },
		"negative divisor":    func(i *models.OrderDetailCard) { i.Installments = -1 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			item := valid
			mutate(&item)
			assert.ErrorIs(t, pricing.ValidateCardItem(item), apperrors.ErrInvalidLineItem)
		})
	}
}

func TestValidateCharges(t *testing.T) {
	assert.NoError(t, pricing.ValidateCharges(dec("0"), dec("0")))
	assert.ErrorIs(t, pricing.ValidateCharges(dec("-1"), dec("0")), apperrors.ErrInvalidLineItem)
	assert.ErrorIs(t, pricing.ValidateCharges(dec("0"), dec("-1")), apperrors.ErrInvalidLineItem)
}

// Package pricing derives every financial figure of an order: line item
// subtotals, installment amounts and the order total. Functions here are
// pure; callers persist the results.
package pricing

import (
	"fmt"

	"backoffice/internal/apperrors"
	"backoffice/internal/models"

	"github.com/shopspring/decimal"
)

// centPlaces is the precision of per-installment amounts.
const centPlaces = 2

// StandardSubtotal returns unit_price x quantity, or zero when either is unset.
func StandardSubtotal(item models.OrderDetail) decimal.Decimal {
	if item.Quantity <= 0 || item.UnitPrice.IsZero() {
		return decimal.Zero
	}
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// EffectiveUnitPrice is the unit price after an offer discount, floored at zero.
func EffectiveUnitPrice(item models.OrderDetailCard) decimal.Decimal {
	if !item.Offer {
		return item.UnitPrice
	}
	price := item.UnitPrice.Sub(item.Discount)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// CardSubtotal returns the effective unit price x quantity.
func CardSubtotal(item models.OrderDetailCard) decimal.Decimal {
	if item.Quantity <= 0 {
		return decimal.Zero
	}
	return EffectiveUnitPrice(item).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// InstallmentAmount splits the card subtotal across the installments.
// With no installments the whole subtotal is a single payment.
func InstallmentAmount(item models.OrderDetailCard) decimal.Decimal {
	subtotal := CardSubtotal(item)
	if item.Installments <= 0 {
		return subtotal
	}
	return subtotal.DivRound(decimal.NewFromInt(int64(item.Installments)), centPlaces)
}

// TotalStandard sums the subtotals of the active standard items.
func TotalStandard(order *models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, item := range order.StandardItems {
		if item.IsActive {
			total = total.Add(StandardSubtotal(item))
		}
	}
	return total
}

// TotalCard sums the full subtotals, not the per-installment amounts, of the
// active card items.
func TotalCard(order *models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, item := range order.CardItems {
		if item.IsActive {
			total = total.Add(CardSubtotal(item))
		}
	}
	return total
}

// GrandTotal is standard + card subtotals plus shipping and tax.
func GrandTotal(order *models.Order) decimal.Decimal {
	return TotalStandard(order).
		Add(TotalCard(order)).
		Add(order.ShippingCost).
		Add(order.TaxAmount)
}

// Recalculate overwrites order.Total with the derived grand total and returns it.
func Recalculate(order *models.Order) decimal.Decimal {
	order.Total = GrandTotal(order)
	return order.Total
}

// ValidateStandardItem rejects items that would produce a negative or empty line.
func ValidateStandardItem(item models.OrderDetail) error {
	if item.ProductID == "" {
		return fmt.Errorf("%w: product is required", apperrors.ErrInvalidLineItem)
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", apperrors.ErrInvalidLineItem, item.Quantity)
	}
	if item.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative, got %s", apperrors.ErrInvalidLineItem, item.UnitPrice)
	}
	return nil
}

// ValidateCardItem applies the standard checks plus the installment and
// discount rules. A discount larger than the unit price is rejected.
func ValidateCardItem(item models.OrderDetailCard) error {
	if item.ProductID == "" {
		return fmt.Errorf("%w: product is required", apperrors.ErrInvalidLineItem)
	}
	if item.CardInfoID == "" {
		return fmt.Errorf("%w: card is required", apperrors.ErrInvalidLineItem)
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", apperrors.ErrInvalidLineItem, item.Quantity)
	}
	if item.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative, got %s", apperrors.ErrInvalidLineItem, item.UnitPrice)
	}
	if item.Cuotas < 0 || item.Installments < 0 {
		return fmt.Errorf("%w: installments must not be negative", apperrors.ErrInvalidLineItem)
	}
	if item.Discount.IsNegative() {
		return fmt.Errorf("%w: discount must not be negative, got %s", apperrors.ErrInvalidLineItem, item.Discount)
	}
	if item.Offer && item.Discount.GreaterThan(item.UnitPrice) {
		return fmt.Errorf("%w: discount %s exceeds unit price %s", apperrors.ErrInvalidLineItem, item.Discount, item.UnitPrice)
	}
	return nil
}

// ValidateCharges rejects negative shipping or tax amounts.
func ValidateCharges(shippingCost, taxAmount decimal.Decimal) error {
	if shippingCost.IsNegative() {
		return fmt.Errorf("%w: shipping cost must not be negative, got %s", apperrors.ErrInvalidLineItem, shippingCost)
	}
	if taxAmount.IsNegative() {
		return fmt.Errorf("%w: tax amount must not be negative, got %s", apperrors.ErrInvalidLineItem, taxAmount)
	}
	return nil
}

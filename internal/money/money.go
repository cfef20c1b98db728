// Package money holds the pure cart arithmetic: subtotal, discount amount
// and total. It performs no validation beyond treating absent or
// non-positive discounts as zero; range checks on discount values belong to
// the engine boundary.
package money

import (
	"github.com/shopspring/decimal"

	"caixapos/backend/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

func Subtotal(items []domain.SaleItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.PricePerItem.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}

// DiscountAmount computes the discount against a subtotal. Fixed discounts
// clamp to the subtotal so the total can never go negative; percentage
// discounts are applied as given.
func DiscountAmount(subtotal decimal.Decimal, discount domain.Discount) decimal.Decimal {
	if discount.IsZero() {
		return decimal.Zero
	}
	switch discount.Type {
	case domain.DiscountPercentage:
		return subtotal.Mul(discount.Value).Div(oneHundred)
	case domain.DiscountFixed:
		if discount.Value.GreaterThan(subtotal) {
			return subtotal
		}
		return discount.Value
	default:
		return decimal.Zero
	}
}

func Price(items []domain.SaleItem, discount domain.Discount) domain.CartPricing {
	subtotal := Subtotal(items)
	amount := DiscountAmount(subtotal, discount)
	return domain.CartPricing{
		Subtotal:       subtotal,
		DiscountAmount: amount,
		Total:          subtotal.Sub(amount),
	}
}

package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caixapos/backend/internal/domain"
	"caixapos/backend/internal/inventory"
)

func TestApplyStockDeduction(t *testing.T) {
	products := []domain.Product{
		{ID: "prd-1", Name: "coffee", Stock: 10, Price: decimal.NewFromInt(5)},
		{ID: "prd-2", Name: "cake", Stock: 3, Price: decimal.NewFromInt(8)},
	}
	items := []domain.SaleItem{
		{ProductID: "prd-1", Quantity: 4},
		{ProductID: "prd-2", Quantity: 1},
	}

	updated := inventory.ApplyStockDeduction(products, items)
	require.Len(t, updated, 2)
	assert.Equal(t, 6, updated[0].Stock)
	assert.Equal(t, 2, updated[1].Stock)

	// Originals untouched.
	assert.Equal(t, 10, products[0].Stock)
	assert.Equal(t, 3, products[1].Stock)
}

func TestApplyStockDeductionClampsAtZero(t *testing.T) {
	products := []domain.Product{{ID: "prd-1", Stock: 2}}
	items := []domain.SaleItem{{ProductID: "prd-1", Quantity: 5}}

	updated := inventory.ApplyStockDeduction(products, items)
	require.Len(t, updated, 1)
	assert.Equal(t, 0, updated[0].Stock)
}

func TestApplyStockDeductionSkipsUnknownProducts(t *testing.T) {
	products := []domain.Product{{ID: "prd-1", Stock: 2}}
	items := []domain.SaleItem{
		{ProductID: "prd-gone", Quantity: 3},
		{ProductID: "prd-1", Quantity: 1},
	}

	updated := inventory.ApplyStockDeduction(products, items)
	require.Len(t, updated, 1)
	assert.Equal(t, 1, updated[0].Stock)
}

func TestApplyStockDeductionAccumulatesRepeatedLines(t *testing.T) {
	products := []domain.Product{{ID: "prd-1", Stock: 10}}
	items := []domain.SaleItem{
		{ProductID: "prd-1", Quantity: 2},
		{ProductID: "prd-1", Quantity: 3},
	}

	updated := inventory.ApplyStockDeduction(products, items)
	assert.Equal(t, 5, updated[0].Stock)
}

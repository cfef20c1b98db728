// Package inventory applies committed sale quantities to product stock.
package inventory

import "caixapos/backend/internal/domain"

// ApplyStockDeduction returns a new product slice with each sold quantity
// subtracted, clamped at zero. Items whose product no longer exists are
// skipped: the sale is already paid when stock is applied, so the ledger
// never fails a committed sale. The input slice is not mutated.
func ApplyStockDeduction(products []domain.Product, items []domain.SaleItem) []domain.Product {
	sold := make(map[string]int, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			continue
		}
		sold[item.ProductID] += item.Quantity
	}

	updated := make([]domain.Product, len(products))
	copy(updated, products)
	for i := range updated {
		qty, ok := sold[updated[i].ID]
		if !ok {
			continue
		}
		next := updated[i].Stock - qty
		if next < 0 {
			next = 0
		}
		updated[i].Stock = next
	}
	return updated
}

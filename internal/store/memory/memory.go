// Package memory is the authoritative in-process store for the register.
// All reads and writes on the request path go through it; remote persistence
// happens afterwards, off the critical path.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"caixapos/backend/internal/domain"
	"caixapos/backend/internal/store"
	"caixapos/backend/internal/xid"
)

type Store struct {
	mu           sync.RWMutex
	products     map[string]domain.Product
	sales        []domain.Sale
	drawer       domain.CashDrawer
	reportsByDay map[string]domain.HistoricalReport
}

func New() *Store {
	return &Store{
		products:     make(map[string]domain.Product),
		sales:        make([]domain.Sale, 0, 128),
		drawer:       domain.CashDrawer{OpeningCash: decimal.Zero, PreviousClosingCash: decimal.Zero},
		reportsByDay: make(map[string]domain.HistoricalReport),
	}
}

func (s *Store) Bootstrap(_ context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range snapshot.Products {
		if p.ID == "" {
			continue
		}
		s.products[p.ID] = p
	}
	s.sales = append(s.sales, snapshot.Sales...)
	s.drawer = snapshot.Drawer
	for _, r := range snapshot.Reports {
		if r.Date == "" {
			continue
		}
		s.reportsByDay[r.Date] = cloneReport(r)
	}
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(string(a.Category), string(b.Category))
	})

	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(product.Name) == "" || product.Stock < 0 || product.Price.Sign() < 0 {
		return nil, store.ErrInvalidProduct
	}
	if !domain.IsSupportedCategory(product.Category) {
		return nil, store.ErrInvalidProduct
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrInvalidProduct
	}

	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(product.Name) == "" || product.Stock < 0 || product.Price.Sign() < 0 {
		return nil, store.ErrInvalidProduct
	}
	if !domain.IsSupportedCategory(product.Category) {
		return nil, store.ErrInvalidProduct
	}
	if _, exists := s.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}

	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) UpsertProducts(_ context.Context, products []domain.Product) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		if strings.TrimSpace(p.Name) == "" || p.Stock < 0 || p.Price.Sign() < 0 {
			return nil, store.ErrInvalidProduct
		}
		if !domain.IsSupportedCategory(p.Category) {
			return nil, store.ErrInvalidProduct
		}
	}

	saved := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.ID == "" {
			p.ID = xid.New("prd")
		}
		s.products[p.ID] = p
		saved = append(saved, p)
	}
	return saved, nil
}

// AppendSale records the sale and the post-sale product states under one
// lock, so a concurrent reader never sees the sale without its stock effect.
func (s *Store) AppendSale(_ context.Context, sale domain.Sale, updatedProducts []domain.Product) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalidSale
	}

	s.sales = append(s.sales, cloneSale(sale))
	for _, p := range updatedProducts {
		if _, exists := s.products[p.ID]; !exists {
			continue
		}
		s.products[p.ID] = p
	}

	saved := cloneSale(sale)
	return &saved, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, cloneSale(sale))
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if a.Timestamp.Equal(b.Timestamp) {
			return cmpString(a.ID, b.ID)
		}
		if a.Timestamp.Before(b.Timestamp) {
			return -1
		}
		return 1
	})
	return sales, nil
}

func (s *Store) GetDrawer(_ context.Context) (domain.CashDrawer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.drawer, nil
}

func (s *Store) SetDrawer(_ context.Context, drawer domain.CashDrawer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drawer = drawer
	return nil
}

func (s *Store) GetReport(_ context.Context, dayKey string) (*domain.HistoricalReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, exists := s.reportsByDay[dayKey]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyReport := cloneReport(report)
	return &copyReport, nil
}

func (s *Store) UpsertReport(_ context.Context, report domain.HistoricalReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.Date == "" {
		return store.ErrInvalidSale
	}
	s.reportsByDay[report.Date] = cloneReport(report)
	return nil
}

func (s *Store) ListReports(_ context.Context) ([]domain.HistoricalReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]domain.HistoricalReport, 0, len(s.reportsByDay))
	for _, report := range s.reportsByDay {
		reports = append(reports, cloneReport(report))
	}
	slices.SortFunc(reports, func(a, b domain.HistoricalReport) int {
		// Most recent day first; keys sort lexicographically in date order.
		return cmpString(b.Date, a.Date)
	})
	return reports, nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneSale(src domain.Sale) domain.Sale {
	dup := src
	items := make([]domain.SaleItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}

func cloneReport(src domain.HistoricalReport) domain.HistoricalReport {
	dup := src
	withdrawals := make([]domain.Withdrawal, len(src.Withdrawals))
	copy(withdrawals, src.Withdrawals)
	dup.Withdrawals = withdrawals
	return dup
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"caixapos/backend/internal/domain"
	"caixapos/backend/internal/store"
)

func newProduct(name string, stock int, price string) domain.Product {
	return domain.Product{
		Name:     name,
		Stock:    stock,
		Price:    decimal.RequireFromString(price),
		Category: domain.CategoryFood,
	}
}

func TestCreateAndGetProduct(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateProduct(ctx, newProduct("coffee", 10, "5.00"))
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated product id")
	}

	got, err := s.GetProductByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetProductByID: %v", err)
	}
	if got.Name != "coffee" || got.Stock != 10 {
		t.Fatalf("unexpected product: %+v", got)
	}
}

func TestCreateProductRejectsInvalid(t *testing.T) {
	s := New()
	ctx := context.Background()

	cases := []domain.Product{
		{Name: "", Stock: 1, Price: decimal.NewFromInt(1), Category: domain.CategoryFood},
		{Name: "x", Stock: -1, Price: decimal.NewFromInt(1), Category: domain.CategoryFood},
		{Name: "x", Stock: 1, Price: decimal.NewFromInt(-1), Category: domain.CategoryFood},
		{Name: "x", Stock: 1, Price: decimal.NewFromInt(1), Category: "toys"},
	}
	for _, p := range cases {
		if _, err := s.CreateProduct(ctx, p); !errors.Is(err, store.ErrInvalidProduct) {
			t.Fatalf("expected ErrInvalidProduct for %+v, got %v", p, err)
		}
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	s := New()

	p := newProduct("cake", 3, "8.00")
	p.ID = "prd-missing"
	if _, err := s.UpdateProduct(context.Background(), p); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListProductsSortedByCategoryThenName(t *testing.T) {
	s := New()
	ctx := context.Background()

	mustCreate := func(name string, category domain.Category) {
		p := newProduct(name, 1, "1.00")
		p.Category = category
		if _, err := s.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct %s: %v", name, err)
		}
	}
	mustCreate("soda", domain.CategoryStore)
	mustCreate("bread", domain.CategoryFood)
	mustCreate("apple", domain.CategoryFood)

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
	if products[0].Name != "apple" || products[1].Name != "bread" || products[2].Name != "soda" {
		t.Fatalf("unexpected order: %s, %s, %s", products[0].Name, products[1].Name, products[2].Name)
	}
}

func TestAppendSaleAppliesStockAtomically(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateProduct(ctx, newProduct("coffee", 10, "5.00"))
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	updated := *created
	updated.Stock = 8
	sale := domain.Sale{
		ID:            "sal-1",
		Items:         []domain.SaleItem{{ProductID: created.ID, ProductName: "coffee", Quantity: 2, PricePerItem: created.Price}},
		Total:         decimal.NewFromInt(10),
		PaymentMethod: domain.PaymentCash,
		Timestamp:     time.Now(),
	}

	if _, err := s.AppendSale(ctx, sale, []domain.Product{updated}); err != nil {
		t.Fatalf("AppendSale: %v", err)
	}

	got, err := s.GetProductByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetProductByID: %v", err)
	}
	if got.Stock != 8 {
		t.Fatalf("expected stock 8, got %d", got.Stock)
	}

	sales, err := s.ListSales(ctx)
	if err != nil {
		t.Fatalf("ListSales: %v", err)
	}
	if len(sales) != 1 || sales[0].ID != "sal-1" {
		t.Fatalf("unexpected sales: %+v", sales)
	}
}

func TestAppendSaleRejectsEmpty(t *testing.T) {
	s := New()

	if _, err := s.AppendSale(context.Background(), domain.Sale{ID: "sal-1"}, nil); !errors.Is(err, store.ErrInvalidSale) {
		t.Fatalf("expected ErrInvalidSale, got %v", err)
	}
}

func TestDrawerRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	drawer, err := s.GetDrawer(ctx)
	if err != nil {
		t.Fatalf("GetDrawer: %v", err)
	}
	if drawer.IsOpen {
		t.Fatal("expected drawer closed initially")
	}

	drawer.IsOpen = true
	drawer.OpeningCash = decimal.NewFromInt(50)
	if err := s.SetDrawer(ctx, drawer); err != nil {
		t.Fatalf("SetDrawer: %v", err)
	}

	got, err := s.GetDrawer(ctx)
	if err != nil {
		t.Fatalf("GetDrawer: %v", err)
	}
	if !got.IsOpen || !got.OpeningCash.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected drawer: %+v", got)
	}
}

func TestReportsSortedMostRecentFirst(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, day := range []string{"2026-03-08", "2026-03-10", "2026-03-09"} {
		err := s.UpsertReport(ctx, domain.HistoricalReport{Date: day, Closed: true})
		if err != nil {
			t.Fatalf("UpsertReport %s: %v", day, err)
		}
	}

	reports, err := s.ListReports(ctx)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	if reports[0].Date != "2026-03-10" || reports[2].Date != "2026-03-08" {
		t.Fatalf("unexpected order: %s, %s, %s", reports[0].Date, reports[1].Date, reports[2].Date)
	}
}

func TestReportCloneIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()

	report := domain.HistoricalReport{
		Date:        "2026-03-10",
		Withdrawals: []domain.Withdrawal{{ID: "wdr-1", Amount: decimal.NewFromInt(20)}},
	}
	if err := s.UpsertReport(ctx, report); err != nil {
		t.Fatalf("UpsertReport: %v", err)
	}

	got, err := s.GetReport(ctx, "2026-03-10")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	got.Withdrawals[0].Amount = decimal.NewFromInt(999)

	again, err := s.GetReport(ctx, "2026-03-10")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if !again.Withdrawals[0].Amount.Equal(decimal.NewFromInt(20)) {
		t.Fatal("stored report mutated through returned copy")
	}
}

func TestBootstrapSeedsState(t *testing.T) {
	s := New()
	ctx := context.Background()

	snapshot := domain.Snapshot{
		Products: []domain.Product{{ID: "prd-1", Name: "coffee", Stock: 5, Price: decimal.NewFromInt(5), Category: domain.CategoryFood}},
		Sales:    []domain.Sale{{ID: "sal-1", Items: []domain.SaleItem{{ProductID: "prd-1", Quantity: 1}}, Timestamp: time.Now()}},
		Drawer:   domain.CashDrawer{PreviousClosingCash: decimal.NewFromInt(80)},
		Reports:  []domain.HistoricalReport{{Date: "2026-03-09", Closed: true, ClosingCash: decimal.NewFromInt(80)}},
	}
	if err := s.Bootstrap(ctx, snapshot); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if _, err := s.GetProductByID(ctx, "prd-1"); err != nil {
		t.Fatalf("GetProductByID after bootstrap: %v", err)
	}
	drawer, _ := s.GetDrawer(ctx)
	if !drawer.PreviousClosingCash.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("unexpected drawer: %+v", drawer)
	}
	if _, err := s.GetReport(ctx, "2026-03-09"); err != nil {
		t.Fatalf("GetReport after bootstrap: %v", err)
	}
}

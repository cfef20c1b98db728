// Package service is the reconciliation engine: it owns the sale ledger,
// the drawer state machine and the withdrawal ledger, and orchestrates the
// store, the report cache and the remote outbox. Every transition commits
// locally first; remote persistence is enqueued afterwards and its failure
// never surfaces to the caller.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"caixapos/backend/internal/cache"
	"caixapos/backend/internal/domain"
	"caixapos/backend/internal/inventory"
	"caixapos/backend/internal/money"
	"caixapos/backend/internal/outbox"
	"caixapos/backend/internal/remote"
	"caixapos/backend/internal/report"
	"caixapos/backend/internal/store"
	"caixapos/backend/internal/xid"
)

var oneHundred = decimal.NewFromInt(100)

type Service struct {
	repo     store.Repository
	remote   remote.Store
	outbox   *outbox.Outbox
	reports  cache.ReportCache
	loc      *time.Location
	cacheTTL time.Duration
	now      func() time.Time
}

func New(repo store.Repository, rs remote.Store, ob *outbox.Outbox, reports cache.ReportCache, loc *time.Location, cacheTTL time.Duration) *Service {
	if loc == nil {
		loc = time.Local
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	return &Service{
		repo:     repo,
		remote:   rs,
		outbox:   ob,
		reports:  reports,
		loc:      loc,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Bootstrap seeds the local store from the remote snapshot. A fetch failure
// is a warning; the register starts empty and stays usable.
func (s *Service) Bootstrap(ctx context.Context) {
	snapshot, err := s.remote.FetchSnapshot(ctx)
	if err != nil {
		log.Printf("[service] WARN: snapshot fetch failed, starting from empty state: %v", err)
		return
	}
	if err := s.repo.Bootstrap(ctx, snapshot); err != nil {
		log.Printf("[service] WARN: bootstrap failed, starting from empty state: %v", err)
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) RegisterProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Stock < 0 || req.Price.Sign() < 0 {
		return domain.Product{}, store.ErrInvalidProduct
	}
	if !domain.IsSupportedCategory(req.Category) {
		return domain.Product{}, store.ErrInvalidProduct
	}

	product := domain.Product{
		ID:       xid.New("prd"),
		Name:     req.Name,
		Stock:    req.Stock,
		Price:    req.Price,
		Category: req.Category,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.enqueueProduct(*created)
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidProduct
		}
		updated.Name = name
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, store.ErrInvalidProduct
		}
		updated.Stock = *req.Stock
	}
	if req.Price != nil {
		if req.Price.Sign() < 0 {
			return domain.Product{}, store.ErrInvalidProduct
		}
		updated.Price = *req.Price
	}
	if req.Category != nil {
		if !domain.IsSupportedCategory(*req.Category) {
			return domain.Product{}, store.ErrInvalidProduct
		}
		updated.Category = *req.Category
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.enqueueProduct(*saved)
	return *saved, nil
}

// ImportProducts bulk-upserts the register's catalog, for seeding a fresh
// install or restoring from an export.
func (s *Service) ImportProducts(ctx context.Context, req domain.ProductImportRequest) ([]domain.Product, error) {
	if len(req.Products) == 0 {
		return nil, store.ErrInvalidProduct
	}

	products := make([]domain.Product, 0, len(req.Products))
	for _, entry := range req.Products {
		name := strings.TrimSpace(entry.Name)
		if name == "" || entry.Stock < 0 || entry.Price.Sign() < 0 {
			return nil, store.ErrInvalidProduct
		}
		if !domain.IsSupportedCategory(entry.Category) {
			return nil, store.ErrInvalidProduct
		}
		products = append(products, domain.Product{
			ID:       xid.New("prd"),
			Name:     name,
			Stock:    entry.Stock,
			Price:    entry.Price,
			Category: entry.Category,
		})
	}

	saved, err := s.repo.UpsertProducts(ctx, products)
	if err != nil {
		return nil, err
	}

	s.enqueue(fmt.Sprintf("persist-products n=%d", len(saved)), func(ctx context.Context) error {
		return s.remote.PersistProducts(ctx, saved)
	})
	return saved, nil
}

func (s *Service) PriceCart(ctx context.Context, req domain.PriceCartRequest) (domain.CartPricing, error) {
	items, err := s.resolveCart(ctx, req.Items)
	if err != nil {
		return domain.CartPricing{}, err
	}
	if err := validateDiscount(req.Discount); err != nil {
		return domain.CartPricing{}, err
	}
	return money.Price(items, req.Discount), nil
}

// CommitSale turns a cart into an immutable sale: price, snapshot, append
// to the ledger and deduct stock in one store transition. Requires an open
// drawer.
func (s *Service) CommitSale(ctx context.Context, req domain.SaleRequest) (domain.Sale, error) {
	drawer, err := s.repo.GetDrawer(ctx)
	if err != nil {
		return domain.Sale{}, err
	}
	if !drawer.IsOpen {
		return domain.Sale{}, store.ErrDrawerClosed
	}
	if !domain.IsSupportedPaymentMethod(req.PaymentMethod) {
		return domain.Sale{}, store.ErrInvalidSale
	}

	items, err := s.resolveCart(ctx, req.Items)
	if err != nil {
		return domain.Sale{}, err
	}
	if err := validateDiscount(req.Discount); err != nil {
		return domain.Sale{}, err
	}

	pricing := money.Price(items, req.Discount)
	now := s.now().In(s.loc)
	sale := domain.Sale{
		ID:             xid.New("sal"),
		Items:          items,
		Subtotal:       pricing.Subtotal,
		DiscountType:   req.Discount.Type,
		DiscountValue:  req.Discount.Value,
		DiscountAmount: pricing.DiscountAmount,
		Total:          pricing.Total,
		PaymentMethod:  req.PaymentMethod,
		Timestamp:      now,
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.Sale{}, err
	}
	changed := soldProducts(inventory.ApplyStockDeduction(products, sale.Items), sale.Items)

	committed, err := s.repo.AppendSale(ctx, sale, changed)
	if err != nil {
		return domain.Sale{}, err
	}

	dayKey := report.DayKey(now, s.loc)
	s.invalidateReport(ctx, dayKey)
	s.enqueue("persist-sale "+committed.ID, func(ctx context.Context) error {
		return s.remote.PersistSale(ctx, *committed)
	})
	if len(changed) > 0 {
		s.enqueue(fmt.Sprintf("persist-products n=%d", len(changed)), func(ctx context.Context) error {
			return s.remote.PersistProducts(ctx, changed)
		})
	}

	return *committed, nil
}

// ListSales returns the full ledger, or only one day's sales when date is a
// day key.
func (s *Service) ListSales(ctx context.Context, date string) ([]domain.Sale, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	if date == "" {
		return sales, nil
	}
	if _, err := report.ParseDayKey(date); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidAmount, err)
	}
	return report.SalesForDay(sales, date, s.loc), nil
}

func (s *Service) DrawerStatus(ctx context.Context) (domain.CashDrawer, error) {
	return s.repo.GetDrawer(ctx)
}

// OpenDrawer starts the business day. Valid only from the closed state.
func (s *Service) OpenDrawer(ctx context.Context, req domain.DrawerOpenRequest) (domain.CashDrawer, error) {
	drawer, err := s.repo.GetDrawer(ctx)
	if err != nil {
		return domain.CashDrawer{}, err
	}
	if drawer.IsOpen {
		return domain.CashDrawer{}, store.ErrDrawerOpen
	}

	opening := req.OpeningCash
	if req.UsePreviousClosing {
		opening = drawer.PreviousClosingCash
	}
	if opening.Sign() < 0 {
		return domain.CashDrawer{}, store.ErrInvalidAmount
	}

	drawer.IsOpen = true
	drawer.OpeningCash = opening
	if err := s.repo.SetDrawer(ctx, drawer); err != nil {
		return domain.CashDrawer{}, err
	}

	dayKey := report.DayKey(s.now(), s.loc)
	s.invalidateReport(ctx, dayKey)
	s.enqueue("persist-drawer-open "+dayKey, func(ctx context.Context) error {
		return s.remote.PersistDrawerOpen(ctx, dayKey, drawer)
	})

	return drawer, nil
}

// CloseDrawer ends the business day: closing cash is the opening amount
// plus the day's cash sales minus the day's withdrawals. The day's report
// is merged (a withdrawal stub keeps its withdrawals), the closing balance
// seeds the next open, and the drawer resets. Valid only from open.
func (s *Service) CloseDrawer(ctx context.Context) (domain.CashDrawer, domain.HistoricalReport, error) {
	drawer, err := s.repo.GetDrawer(ctx)
	if err != nil {
		return domain.CashDrawer{}, domain.HistoricalReport{}, err
	}
	if !drawer.IsOpen {
		return domain.CashDrawer{}, domain.HistoricalReport{}, store.ErrDrawerClosed
	}

	dayKey := report.DayKey(s.now(), s.loc)
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.CashDrawer{}, domain.HistoricalReport{}, err
	}
	totals := report.Totals(report.SalesForDay(sales, dayKey, s.loc))

	hist, err := s.reportOrStub(ctx, dayKey)
	if err != nil {
		return domain.CashDrawer{}, domain.HistoricalReport{}, err
	}

	closing := drawer.OpeningCash.Add(totals.CashSales).Sub(report.WithdrawalTotal(hist.Withdrawals))
	hist.OpeningCash = drawer.OpeningCash
	hist.ClosingCash = closing
	hist.Closed = true
	if err := s.repo.UpsertReport(ctx, hist); err != nil {
		return domain.CashDrawer{}, domain.HistoricalReport{}, err
	}

	drawer = domain.CashDrawer{
		IsOpen:              false,
		OpeningCash:         decimal.Zero,
		PreviousClosingCash: closing,
	}
	if err := s.repo.SetDrawer(ctx, drawer); err != nil {
		return domain.CashDrawer{}, domain.HistoricalReport{}, err
	}

	s.invalidateReport(ctx, dayKey)
	s.enqueue("persist-drawer-close "+dayKey, func(ctx context.Context) error {
		return s.remote.PersistDrawerClose(ctx, hist)
	})

	return drawer, hist, nil
}

// RecordWithdrawal takes cash out of a day: today while the drawer is open,
// or an archived day after the fact. The amount must not exceed the cash
// available for that day, and a withdrawal from a closed day immediately
// decrements its stored closing balance.
func (s *Service) RecordWithdrawal(ctx context.Context, req domain.WithdrawalRequest) (domain.Withdrawal, domain.HistoricalReport, error) {
	if req.Amount.Sign() <= 0 {
		return domain.Withdrawal{}, domain.HistoricalReport{}, store.ErrInvalidAmount
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return domain.Withdrawal{}, domain.HistoricalReport{}, store.ErrInvalidWithdrawal
	}

	now := s.now().In(s.loc)
	today := report.DayKey(now, s.loc)
	dayKey := today
	if req.Date != "" {
		if _, err := report.ParseDayKey(req.Date); err != nil {
			return domain.Withdrawal{}, domain.HistoricalReport{}, fmt.Errorf("%w: %v", store.ErrInvalidWithdrawal, err)
		}
		dayKey = req.Date
	}

	drawer, err := s.repo.GetDrawer(ctx)
	if err != nil {
		return domain.Withdrawal{}, domain.HistoricalReport{}, err
	}
	hist, err := s.reportOrStub(ctx, dayKey)
	if err != nil {
		return domain.Withdrawal{}, domain.HistoricalReport{}, err
	}

	available, err := s.availableCash(ctx, dayKey, today, drawer, hist)
	if err != nil {
		return domain.Withdrawal{}, domain.HistoricalReport{}, err
	}
	if req.Amount.GreaterThan(available) {
		return domain.Withdrawal{}, domain.HistoricalReport{}, store.ErrInsufficientCash
	}

	withdrawal := domain.Withdrawal{
		ID:        xid.New("wdr"),
		Amount:    req.Amount,
		Reason:    reason,
		Timestamp: now,
	}
	hist.Withdrawals = append(hist.Withdrawals, withdrawal)

	drawerChanged := false
	if hist.Closed {
		hist.ClosingCash = hist.ClosingCash.Sub(req.Amount)
		if latest, ok := s.latestClosedDay(ctx); ok && latest == dayKey {
			drawer.PreviousClosingCash = hist.ClosingCash
			drawerChanged = true
		}
	}

	if err := s.repo.UpsertReport(ctx, hist); err != nil {
		return domain.Withdrawal{}, domain.HistoricalReport{}, err
	}
	if drawerChanged {
		if err := s.repo.SetDrawer(ctx, drawer); err != nil {
			return domain.Withdrawal{}, domain.HistoricalReport{}, err
		}
	}

	s.invalidateReport(ctx, dayKey)
	s.enqueue("persist-withdrawal "+withdrawal.ID, func(ctx context.Context) error {
		return s.remote.PersistWithdrawal(ctx, dayKey, hist)
	})
	if drawerChanged {
		s.enqueue("persist-drawer "+today, func(ctx context.Context) error {
			return s.remote.PersistDrawerOpen(ctx, today, drawer)
		})
	}

	return withdrawal, hist, nil
}

// DailyReport computes the reconciliation view for one day, today by
// default. Results are cached per day key and invalidated on every write
// that touches the day.
func (s *Service) DailyReport(ctx context.Context, date string) (domain.DailyReport, error) {
	dayKey := date
	if dayKey == "" {
		dayKey = report.DayKey(s.now(), s.loc)
	} else if _, err := report.ParseDayKey(dayKey); err != nil {
		return domain.DailyReport{}, fmt.Errorf("%w: %v", store.ErrInvalidAmount, err)
	}

	if cached, hit, err := s.reports.Get(ctx, dayKey); err != nil {
		log.Printf("[service] WARN: report cache get failed day=%s: %v", dayKey, err)
	} else if hit {
		return *cached, nil
	}

	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.DailyReport{}, err
	}
	daySales := report.SalesForDay(sales, dayKey, s.loc)

	hist, err := s.reportOrStub(ctx, dayKey)
	if err != nil {
		return domain.DailyReport{}, err
	}

	drawer, err := s.repo.GetDrawer(ctx)
	if err != nil {
		return domain.DailyReport{}, err
	}
	opening := hist.OpeningCash
	if dayKey == report.DayKey(s.now(), s.loc) && drawer.IsOpen {
		opening = drawer.OpeningCash
	}

	built := report.Build(dayKey, daySales, hist, opening)
	if err := s.reports.Set(ctx, dayKey, &built, s.cacheTTL); err != nil {
		log.Printf("[service] WARN: report cache set failed day=%s: %v", dayKey, err)
	}
	return built, nil
}

// ListReports returns the archived day reports, most recent first.
func (s *Service) ListReports(ctx context.Context) ([]domain.HistoricalReport, error) {
	return s.repo.ListReports(ctx)
}

func (s *Service) resolveCart(ctx context.Context, items []domain.CartItem) ([]domain.SaleItem, error) {
	if len(items) == 0 {
		return nil, store.ErrInvalidSale
	}

	resolved := make([]domain.SaleItem, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, store.ErrInvalidSale
		}
		product, err := s.repo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, domain.SaleItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     item.Quantity,
			PricePerItem: product.Price,
		})
	}
	return resolved, nil
}

// reportOrStub fetches the day's archived report, or a zero stub when none
// exists yet.
func (s *Service) reportOrStub(ctx context.Context, dayKey string) (domain.HistoricalReport, error) {
	hist, err := s.repo.GetReport(ctx, dayKey)
	if errors.Is(err, store.ErrNotFound) {
		return report.Stub(dayKey), nil
	}
	if err != nil {
		return domain.HistoricalReport{}, err
	}
	return *hist, nil
}

// availableCash is the ceiling for a withdrawal: live drawer math for the
// open current day, the stored closing balance for a closed day, and the
// day's net cash for a past day that never closed.
func (s *Service) availableCash(ctx context.Context, dayKey string, today string, drawer domain.CashDrawer, hist domain.HistoricalReport) (decimal.Decimal, error) {
	if hist.Closed {
		return hist.ClosingCash, nil
	}

	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	cashSales := report.Totals(report.SalesForDay(sales, dayKey, s.loc)).CashSales
	available := cashSales.Sub(report.WithdrawalTotal(hist.Withdrawals))
	if dayKey == today && drawer.IsOpen {
		available = available.Add(drawer.OpeningCash)
	}
	return available, nil
}

func (s *Service) latestClosedDay(ctx context.Context) (string, bool) {
	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		log.Printf("[service] WARN: list reports failed: %v", err)
		return "", false
	}
	latest, ok := report.LatestClosed(reports)
	if !ok {
		return "", false
	}
	return latest.Date, true
}

func (s *Service) invalidateReport(ctx context.Context, dayKey string) {
	if err := s.reports.Invalidate(ctx, dayKey); err != nil {
		log.Printf("[service] WARN: report cache invalidate failed day=%s: %v", dayKey, err)
	}
}

func (s *Service) enqueueProduct(product domain.Product) {
	s.enqueue("persist-product "+product.ID, func(ctx context.Context) error {
		return s.remote.PersistProduct(ctx, product)
	})
}

func (s *Service) enqueue(name string, run func(ctx context.Context) error) {
	if s.outbox == nil {
		return
	}
	s.outbox.Enqueue(outbox.Job{Name: name, Run: run})
}

func validateDiscount(discount domain.Discount) error {
	switch discount.Type {
	case domain.DiscountNone:
		return nil
	case domain.DiscountPercentage:
		if discount.Value.Sign() < 0 || discount.Value.GreaterThan(oneHundred) {
			return store.ErrInvalidSale
		}
		return nil
	case domain.DiscountFixed:
		if discount.Value.Sign() < 0 {
			return store.ErrInvalidSale
		}
		return nil
	default:
		return store.ErrInvalidSale
	}
}

// soldProducts narrows the post-deduction product set down to the products
// the sale actually touched.
func soldProducts(updated []domain.Product, items []domain.SaleItem) []domain.Product {
	sold := make(map[string]struct{}, len(items))
	for _, item := range items {
		sold[item.ProductID] = struct{}{}
	}

	changed := make([]domain.Product, 0, len(sold))
	for _, p := range updated {
		if _, ok := sold[p.ID]; ok {
			changed = append(changed, p)
		}
	}
	return changed
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"caixapos/backend/internal/domain"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) FetchSnapshot(ctx context.Context) (domain.Snapshot, error) {
	snapshot := domain.Snapshot{}

	products, err := s.fetchProducts(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("fetch products: %w", err)
	}
	snapshot.Products = products

	sales, err := s.fetchSales(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("fetch sales: %w", err)
	}
	snapshot.Sales = sales

	drawer, err := s.fetchDrawer(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("fetch drawer: %w", err)
	}
	snapshot.Drawer = drawer

	reports, err := s.fetchReports(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("fetch reports: %w", err)
	}
	snapshot.Reports = reports

	return snapshot, nil
}

func (s *Store) fetchProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, stock, price, category
		FROM products
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock, &p.Price, &p.Category); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) fetchSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, items, subtotal, discount_type, discount_value, discount_amount,
		       total, payment_method, sold_at
		FROM sales
		ORDER BY sold_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 256)
	for rows.Next() {
		var sale domain.Sale
		var itemsJSON []byte
		err := rows.Scan(&sale.ID, &itemsJSON, &sale.Subtotal, &sale.DiscountType,
			&sale.DiscountValue, &sale.DiscountAmount, &sale.Total, &sale.PaymentMethod, &sale.Timestamp)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(itemsJSON, &sale.Items); err != nil {
			return nil, fmt.Errorf("decode sale %s items: %w", sale.ID, err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) fetchDrawer(ctx context.Context) (domain.CashDrawer, error) {
	var drawer domain.CashDrawer
	err := s.db.QueryRowContext(ctx, `
		SELECT is_open, opening_cash, previous_closing_cash
		FROM drawer
		WHERE id = 1
	`).Scan(&drawer.IsOpen, &drawer.OpeningCash, &drawer.PreviousClosingCash)
	if err == sql.ErrNoRows {
		return domain.CashDrawer{}, nil
	}
	return drawer, err
}

func (s *Store) fetchReports(ctx context.Context) ([]domain.HistoricalReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, opening_cash, closing_cash, closed, withdrawals
		FROM daily_reports
		ORDER BY day
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]domain.HistoricalReport, 0, 64)
	for rows.Next() {
		var report domain.HistoricalReport
		var withdrawalsJSON []byte
		err := rows.Scan(&report.Date, &report.OpeningCash, &report.ClosingCash, &report.Closed, &withdrawalsJSON)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(withdrawalsJSON, &report.Withdrawals); err != nil {
			return nil, fmt.Errorf("decode report %s withdrawals: %w", report.Date, err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (s *Store) PersistProduct(ctx context.Context, product domain.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, stock, price, category, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			stock = EXCLUDED.stock,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			updated_at = now()
	`, product.ID, product.Name, product.Stock, product.Price, product.Category)
	return err
}

func (s *Store) PersistProducts(ctx context.Context, products []domain.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, product := range products {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, stock, price, category, updated_at)
			VALUES ($1,$2,$3,$4,$5,now())
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				stock = EXCLUDED.stock,
				price = EXCLUDED.price,
				category = EXCLUDED.category,
				updated_at = now()
		`, product.ID, product.Name, product.Stock, product.Price, product.Category)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) PersistSale(ctx context.Context, sale domain.Sale) error {
	itemsJSON, err := json.Marshal(sale.Items)
	if err != nil {
		return fmt.Errorf("encode sale %s items: %w", sale.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sales (id, items, subtotal, discount_type, discount_value,
			discount_amount, total, payment_method, sold_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING
	`, sale.ID, itemsJSON, sale.Subtotal, sale.DiscountType, sale.DiscountValue,
		sale.DiscountAmount, sale.Total, sale.PaymentMethod, sale.Timestamp)
	return err
}

func (s *Store) PersistDrawerOpen(ctx context.Context, dayKey string, drawer domain.CashDrawer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drawer (id, is_open, opening_cash, previous_closing_cash, day, updated_at)
		VALUES (1,$1,$2,$3,$4,now())
		ON CONFLICT (id) DO UPDATE SET
			is_open = EXCLUDED.is_open,
			opening_cash = EXCLUDED.opening_cash,
			previous_closing_cash = EXCLUDED.previous_closing_cash,
			day = EXCLUDED.day,
			updated_at = now()
	`, drawer.IsOpen, drawer.OpeningCash, drawer.PreviousClosingCash, dayKey)
	return err
}

func (s *Store) PersistDrawerClose(ctx context.Context, report domain.HistoricalReport) error {
	if err := s.upsertReport(ctx, report); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE drawer
		SET is_open = false, previous_closing_cash = $1, updated_at = now()
		WHERE id = 1
	`, report.ClosingCash)
	return err
}

func (s *Store) PersistWithdrawal(ctx context.Context, dayKey string, report domain.HistoricalReport) error {
	return s.upsertReport(ctx, report)
}

func (s *Store) upsertReport(ctx context.Context, report domain.HistoricalReport) error {
	withdrawalsJSON, err := json.Marshal(report.Withdrawals)
	if err != nil {
		return fmt.Errorf("encode report %s withdrawals: %w", report.Date, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_reports (day, opening_cash, closing_cash, closed, withdrawals, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (day) DO UPDATE SET
			opening_cash = EXCLUDED.opening_cash,
			closing_cash = EXCLUDED.closing_cash,
			closed = EXCLUDED.closed,
			withdrawals = EXCLUDED.withdrawals,
			updated_at = now()
	`, report.Date, report.OpeningCash, report.ClosingCash, report.Closed, withdrawalsJSON)
	return err
}

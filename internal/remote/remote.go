// Package remote defines the backup persistence collaborator. The register
// runs entirely on local state; remote writes are fire-and-forget copies
// pushed through the outbox, and a remote failure never fails an operation.
package remote

import (
	"context"

	"caixapos/backend/internal/domain"
)

type Store interface {
	// FetchSnapshot loads the persisted state for startup seeding.
	FetchSnapshot(ctx context.Context) (domain.Snapshot, error)

	// Persist* calls are idempotent upserts so outbox retries are safe.
	PersistProduct(ctx context.Context, product domain.Product) error
	PersistProducts(ctx context.Context, products []domain.Product) error
	PersistSale(ctx context.Context, sale domain.Sale) error
	PersistDrawerOpen(ctx context.Context, dayKey string, opening domain.CashDrawer) error
	PersistDrawerClose(ctx context.Context, report domain.HistoricalReport) error
	PersistWithdrawal(ctx context.Context, dayKey string, report domain.HistoricalReport) error
}

// Noop stands in when no DATABASE_URL is configured; the register then runs
// purely in memory.
type Noop struct{}

func (Noop) FetchSnapshot(context.Context) (domain.Snapshot, error) {
	return domain.Snapshot{}, nil
}

func (Noop) PersistProduct(context.Context, domain.Product) error { return nil }

func (Noop) PersistProducts(context.Context, []domain.Product) error { return nil }

func (Noop) PersistSale(context.Context, domain.Sale) error { return nil }

func (Noop) PersistDrawerOpen(context.Context, string, domain.CashDrawer) error { return nil }

func (Noop) PersistDrawerClose(context.Context, domain.HistoricalReport) error { return nil }

func (Noop) PersistWithdrawal(context.Context, string, domain.HistoricalReport) error { return nil }

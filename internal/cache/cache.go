package cache

import (
	"context"
	"time"

	"caixapos/backend/internal/domain"
)

type ReportCache interface {
	Get(ctx context.Context, dayKey string) (*domain.DailyReport, bool, error)
	Set(ctx context.Context, dayKey string, report *domain.DailyReport, ttl time.Duration) error
	Invalidate(ctx context.Context, dayKey string) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*domain.DailyReport, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *domain.DailyReport, _ time.Duration) error {
	return nil
}

func (NoopReportCache) Invalidate(_ context.Context, _ string) error {
	return nil
}

package report_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caixapos/backend/internal/domain"
	"caixapos/backend/internal/report"
)

var saoPaulo = mustLoadLocation("America/Sao_Paulo")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func TestDayKeyUsesLocalCalendar(t *testing.T) {
	// 01:30 UTC is still the previous evening in Sao Paulo (UTC-3).
	instant := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-09", report.DayKey(instant, saoPaulo))
	assert.Equal(t, "2026-03-10", report.DayKey(instant, time.UTC))
}

func TestDayKeyMidnightBoundary(t *testing.T) {
	before := time.Date(2026, 3, 9, 23, 59, 0, 0, saoPaulo)
	after := time.Date(2026, 3, 10, 0, 1, 0, 0, saoPaulo)
	assert.NotEqual(t, report.DayKey(before, saoPaulo), report.DayKey(after, saoPaulo))
}

func TestParseDayKey(t *testing.T) {
	_, err := report.ParseDayKey("2026-03-10")
	require.NoError(t, err)

	_, err = report.ParseDayKey("10/03/2026")
	assert.Error(t, err)

	_, err = report.ParseDayKey("2026-13-40")
	assert.Error(t, err)
}

func sale(total, discount string, method domain.PaymentMethod, ts time.Time) domain.Sale {
	return domain.Sale{
		ID:             "sal-test",
		Total:          decimal.RequireFromString(total),
		DiscountAmount: decimal.RequireFromString(discount),
		PaymentMethod:  method,
		Timestamp:      ts,
	}
}

func TestSalesForDay(t *testing.T) {
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, saoPaulo)
	other := day.AddDate(0, 0, 1)
	sales := []domain.Sale{
		sale("10.00", "0", domain.PaymentCash, day),
		sale("20.00", "0", domain.PaymentPix, other),
	}

	got := report.SalesForDay(sales, "2026-03-10", saoPaulo)
	require.Len(t, got, 1)
	assert.True(t, decimal.RequireFromString("10.00").Equal(got[0].Total))
}

func TestTotalsSplitsByPaymentMethod(t *testing.T) {
	now := time.Now()
	sales := []domain.Sale{
		sale("50.00", "0", domain.PaymentCash, now),
		sale("30.00", "2.50", domain.PaymentCash, now),
		sale("20.00", "0", domain.PaymentPix, now),
	}

	totals := report.Totals(sales)
	assert.True(t, decimal.NewFromInt(100).Equal(totals.TotalSales))
	assert.True(t, decimal.NewFromInt(80).Equal(totals.CashSales))
	assert.True(t, decimal.NewFromInt(20).Equal(totals.PixSales))
	assert.True(t, decimal.RequireFromString("2.50").Equal(totals.TotalDiscounts))
}

func TestBuildExpectedClosingCash(t *testing.T) {
	now := time.Now()
	sales := []domain.Sale{
		sale("50.00", "0", domain.PaymentCash, now),
		sale("30.00", "0", domain.PaymentCash, now),
		sale("20.00", "0", domain.PaymentPix, now),
	}
	hist := domain.HistoricalReport{
		Date:        "2026-03-10",
		Withdrawals: []domain.Withdrawal{{ID: "wdr-1", Amount: decimal.NewFromInt(20)}},
	}

	built := report.Build("2026-03-10", sales, hist, decimal.Zero)
	assert.Equal(t, 3, built.SaleCount)
	// opening 0 + cash 80 - withdrawn 20
	assert.True(t, decimal.NewFromInt(60).Equal(built.ExpectedClosingCash))
	assert.False(t, built.Closed)
}

func TestLatestClosed(t *testing.T) {
	reports := []domain.HistoricalReport{
		{Date: "2026-03-08", Closed: true, ClosingCash: decimal.NewFromInt(80)},
		{Date: "2026-03-10", Closed: false},
		{Date: "2026-03-09", Closed: true, ClosingCash: decimal.NewFromInt(95)},
	}

	latest, ok := report.LatestClosed(reports)
	require.True(t, ok)
	assert.Equal(t, "2026-03-09", latest.Date)

	_, ok = report.LatestClosed([]domain.HistoricalReport{{Date: "2026-03-10"}})
	assert.False(t, ok)
}

// Package report derives per-day reconciliation figures from the sale and
// withdrawal ledgers. Days are keyed by the local calendar date of the
// configured register timezone, so a sale at 23:59 and one at 00:01 land on
// different keys even when minutes apart.
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"caixapos/backend/internal/domain"
)

const DayKeyLayout = "2006-01-02"

// DayKey converts an instant to its business-day key in the given location.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayKeyLayout)
}

// ParseDayKey validates a client-supplied day key.
func ParseDayKey(key string) (time.Time, error) {
	t, err := time.Parse(DayKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected %s", key, DayKeyLayout)
	}
	return t, nil
}

// SalesForDay filters the ledger down to sales whose local timestamp falls
// on the given day key.
func SalesForDay(sales []domain.Sale, dayKey string, loc *time.Location) []domain.Sale {
	out := make([]domain.Sale, 0)
	for _, sale := range sales {
		if DayKey(sale.Timestamp, loc) == dayKey {
			out = append(out, sale)
		}
	}
	return out
}

// Totals sums a day's sales by payment method. TotalDiscounts accumulates the
// applied discount amounts, not the requested values.
func Totals(sales []domain.Sale) domain.DailyTotals {
	totals := domain.DailyTotals{
		TotalSales:     decimal.Zero,
		CashSales:      decimal.Zero,
		PixSales:       decimal.Zero,
		TotalDiscounts: decimal.Zero,
	}
	for _, sale := range sales {
		totals.TotalSales = totals.TotalSales.Add(sale.Total)
		totals.TotalDiscounts = totals.TotalDiscounts.Add(sale.DiscountAmount)
		switch sale.PaymentMethod {
		case domain.PaymentCash:
			totals.CashSales = totals.CashSales.Add(sale.Total)
		case domain.PaymentPix:
			totals.PixSales = totals.PixSales.Add(sale.Total)
		}
	}
	return totals
}

func WithdrawalTotal(withdrawals []domain.Withdrawal) decimal.Decimal {
	total := decimal.Zero
	for _, w := range withdrawals {
		total = total.Add(w.Amount)
	}
	return total
}

// Stub returns an empty, unclosed report for a day that has withdrawals but
// no drawer close yet. A later close fills in the balances.
func Stub(dayKey string) domain.HistoricalReport {
	return domain.HistoricalReport{
		Date:        dayKey,
		OpeningCash: decimal.Zero,
		ClosingCash: decimal.Zero,
		Closed:      false,
		Withdrawals: []domain.Withdrawal{},
	}
}

// Build assembles the computed daily view from its parts.
func Build(dayKey string, sales []domain.Sale, hist domain.HistoricalReport, opening decimal.Decimal) domain.DailyReport {
	totals := Totals(sales)
	withdrawn := WithdrawalTotal(hist.Withdrawals)
	return domain.DailyReport{
		Date:                dayKey,
		SaleCount:           len(sales),
		Totals:              totals,
		OpeningCash:         opening,
		Withdrawals:         hist.Withdrawals,
		WithdrawalTotal:     withdrawn,
		ExpectedClosingCash: opening.Add(totals.CashSales).Sub(withdrawn),
		RecordedClosingCash: hist.ClosingCash,
		Closed:              hist.Closed,
	}
}

// LatestClosed returns the most recent closed report by day key, or false
// when no day has been closed yet. Day keys sort lexicographically in date
// order.
func LatestClosed(reports []domain.HistoricalReport) (domain.HistoricalReport, bool) {
	var latest domain.HistoricalReport
	found := false
	for _, r := range reports {
		if !r.Closed {
			continue
		}
		if !found || r.Date > latest.Date {
			latest = r
			found = true
		}
	}
	return latest, found
}

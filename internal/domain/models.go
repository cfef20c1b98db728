package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryFood  Category = "food"
	CategoryStore Category = "store"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentPix  PaymentMethod = "pix"
)

type DiscountType string

// DiscountNone is the tagged-absent value: a Discount with an empty type
// carries no discount, regardless of its Value field.
const (
	DiscountNone       DiscountType = ""
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Discount struct {
	Type  DiscountType    `json:"type,omitempty"`
	Value decimal.Decimal `json:"value"`
}

func (d Discount) IsZero() bool {
	return d.Type == DiscountNone || d.Value.Sign() <= 0
}

type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Stock    int             `json:"stock"`
	Price    decimal.Decimal `json:"price"`
	Category Category        `json:"category"`
}

type ProductCreateRequest struct {
	Name     string          `json:"name" validate:"required"`
	Stock    int             `json:"stock" validate:"gte=0"`
	Price    decimal.Decimal `json:"price"`
	Category Category        `json:"category" validate:"required"`
}

type ProductUpdateRequest struct {
	Name     *string          `json:"name,omitempty"`
	Stock    *int             `json:"stock,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Category *Category        `json:"category,omitempty"`
}

type ProductImportRequest struct {
	Products []ProductCreateRequest `json:"products" validate:"min=1"`
}

// CartItem is the request-side line: the engine resolves the product and
// snapshots its name and price into a SaleItem at commit time.
type CartItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// SaleItem is a value object frozen at sale time; later product renames or
// price changes do not touch it.
type SaleItem struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	PricePerItem decimal.Decimal `json:"price_per_item"`
}

type Sale struct {
	ID             string          `json:"id"`
	Items          []SaleItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountType   DiscountType    `json:"discount_type,omitempty"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	Timestamp      time.Time       `json:"timestamp"`
}

type SaleRequest struct {
	Items         []CartItem    `json:"items" validate:"min=1,dive"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required"`
	Discount      Discount      `json:"discount"`
}

type SaleResponse struct {
	Sale Sale `json:"sale"`
}

type SaleListResponse struct {
	Date  string `json:"date,omitempty"`
	Sales []Sale `json:"sales"`
}

type PriceCartRequest struct {
	Items    []CartItem `json:"items" validate:"min=1,dive"`
	Discount Discount   `json:"discount"`
}

type CartPricing struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

// CashDrawer is the single register's cash-on-hand state. One instance exists
// per process; the zero value is a closed drawer.
type CashDrawer struct {
	IsOpen              bool            `json:"is_open"`
	OpeningCash         decimal.Decimal `json:"opening_cash"`
	PreviousClosingCash decimal.Decimal `json:"previous_closing_cash"`
}

type DrawerOpenRequest struct {
	// OpeningCash seeds the day. When UsePreviousClosing is set the drawer's
	// previous closing balance is used instead and OpeningCash is ignored.
	OpeningCash        decimal.Decimal `json:"opening_cash"`
	UsePreviousClosing bool            `json:"use_previous_closing"`
}

type DrawerResponse struct {
	Drawer CashDrawer `json:"drawer"`
}

type DrawerCloseResponse struct {
	Drawer CashDrawer       `json:"drawer"`
	Report HistoricalReport `json:"report"`
}

type Withdrawal struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	Timestamp time.Time       `json:"timestamp"`
}

type WithdrawalRequest struct {
	// Date targets a specific day key ("2006-01-02"); empty means today.
	Date   string          `json:"date,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"required"`
}

type WithdrawalResponse struct {
	Withdrawal Withdrawal       `json:"withdrawal"`
	Report     HistoricalReport `json:"report"`
}

// HistoricalReport is the archived reconciliation for one business day.
// A report with Closed=false is a stub created by an early withdrawal; a
// later drawer close fills in the opening/closing balances.
type HistoricalReport struct {
	Date        string          `json:"date"`
	OpeningCash decimal.Decimal `json:"opening_cash"`
	ClosingCash decimal.Decimal `json:"closing_cash"`
	Closed      bool            `json:"closed"`
	Withdrawals []Withdrawal    `json:"withdrawals"`
}

type ReportListResponse struct {
	Reports []HistoricalReport `json:"reports"`
}

type DailyTotals struct {
	TotalSales     decimal.Decimal `json:"total_sales"`
	CashSales      decimal.Decimal `json:"cash_sales"`
	PixSales       decimal.Decimal `json:"pix_sales"`
	TotalDiscounts decimal.Decimal `json:"total_discounts"`
}

// DailyReport is the computed per-day view: sale totals by payment method,
// withdrawals, and expected vs recorded closing cash.
type DailyReport struct {
	Date                string          `json:"date"`
	SaleCount           int             `json:"sale_count"`
	Totals              DailyTotals     `json:"totals"`
	OpeningCash         decimal.Decimal `json:"opening_cash"`
	Withdrawals         []Withdrawal    `json:"withdrawals"`
	WithdrawalTotal     decimal.Decimal `json:"withdrawal_total"`
	ExpectedClosingCash decimal.Decimal `json:"expected_closing_cash"`
	RecordedClosingCash decimal.Decimal `json:"recorded_closing_cash"`
	Closed              bool            `json:"closed"`
}

// Snapshot is the bootstrap payload fetched from the remote store. Local
// state remains authoritative after bootstrap; the snapshot only seeds it.
type Snapshot struct {
	Products []Product          `json:"products"`
	Sales    []Sale             `json:"sales"`
	Drawer   CashDrawer         `json:"drawer"`
	Reports  []HistoricalReport `json:"reports"`
}

func IsSupportedPaymentMethod(method PaymentMethod) bool {
	switch method {
	case PaymentCash, PaymentPix:
		return true
	default:
		return false
	}
}

func IsSupportedCategory(category Category) bool {
	switch category {
	case CategoryFood, CategoryStore:
		return true
	default:
		return false
	}
}

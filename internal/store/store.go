package store

import (
	"context"
	"errors"

	"caixapos/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInvalidSale       = errors.New("invalid sale")
	ErrDrawerOpen        = errors.New("drawer already open")
	ErrDrawerClosed      = errors.New("drawer closed")
	ErrInsufficientCash  = errors.New("insufficient cash")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidWithdrawal = errors.New("invalid withdrawal")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpsertProducts(ctx context.Context, products []domain.Product) ([]domain.Product, error)
	AppendSale(ctx context.Context, sale domain.Sale, updatedProducts []domain.Product) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetDrawer(ctx context.Context) (domain.CashDrawer, error)
	SetDrawer(ctx context.Context, drawer domain.CashDrawer) error
	GetReport(ctx context.Context, dayKey string) (*domain.HistoricalReport, error)
	UpsertReport(ctx context.Context, report domain.HistoricalReport) error
	ListReports(ctx context.Context) ([]domain.HistoricalReport, error)
	Bootstrap(ctx context.Context, snapshot domain.Snapshot) error
}

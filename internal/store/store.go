package store

import (
	"context"
	"errors"

	"stockledger/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrInvalidThreshold  = errors.New("invalid threshold")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
)

// Repository holds the two ledgers, the threshold table and the image side
// table. Appends preserve insertion order; deletes are positional and
// re-index the remaining rows contiguously. Every successful mutation,
// image writes included, bumps the version counter the snapshot cache uses
// as its key. A bump only ever invalidates, so over-counting is safe.
type Repository interface {
	AppendPurchase(ctx context.Context, tx domain.Transaction) error
	AppendSale(ctx context.Context, tx domain.Transaction) error
	DeletePurchase(ctx context.Context, index int) (domain.Transaction, error)
	DeleteSale(ctx context.Context, index int) (domain.Transaction, error)
	ListPurchases(ctx context.Context) ([]domain.Transaction, error)
	ListSales(ctx context.Context) ([]domain.Transaction, error)
	SetThreshold(ctx context.Context, itemName string, safetyQuantity float64) error
	ListThresholds(ctx context.Context) ([]domain.ThresholdEntry, error)
	MarkPhoto(ctx context.Context, orderID string) (int, error)
	SaveImage(ctx context.Context, img domain.Image) error
	GetImage(ctx context.Context, orderID string) (*domain.Image, error)
	Version(ctx context.Context) (int64, error)
}

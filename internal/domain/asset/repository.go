package asset

import (
	"context"
	"encoding/json"

	"github.com/medtrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Item is what the repository and the store need from an asset type.
// *Asset and *HospitalAsset both satisfy Item of themselves.
type Item[T any] interface {
	shared.Entity
	Snapshot
	json.Marshaler

	Manufacturer() string
	UnitPrice() decimal.Decimal
	IsLowStock() bool
	IsCritical() bool
	Get(field string) (any, bool)
	Apply(field string, value any)
	DisplayValue(field string) string
	Validate() bool
	Errors() ValidationErrors
	FirstError() string
	IsDirty() bool
	MarkClean()
	Clone() T
}

// Repository is the asset collection contract
type Repository[T Item[T]] interface {
	FindAll(ctx context.Context) []T
	FindByID(ctx context.Context, id string) (T, error)
	Save(ctx context.Context, a T) shared.WriteResult
	Delete(ctx context.Context, id string) (bool, shared.WriteResult)
	Count(ctx context.Context) int
	FindByCategory(ctx context.Context, category string) []T
	FindByCriticalLevel(ctx context.Context, level CriticalLevel) []T
	FindLowStock(ctx context.Context) []T
	FindCritical(ctx context.Context) []T
	Search(ctx context.Context, query string) []T
	BulkSave(ctx context.Context, assets []T) shared.WriteResult
	TotalValue(ctx context.Context) decimal.Decimal
	DeleteAll(ctx context.Context) (int, shared.WriteResult)
}

var (
	_ Item[*Asset]         = (*Asset)(nil)
	_ Item[*HospitalAsset] = (*HospitalAsset)(nil)
)

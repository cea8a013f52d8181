package asset

import (
	"github.com/medtrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeAsset is the aggregate type carried by asset events
const AggregateTypeAsset = "Asset"

// Event type constants
const (
	EventTypeAssetsLoaded  = "inventory.assets_loaded"
	EventTypeAssetCreated  = "inventory.asset_created"
	EventTypeAssetUpdated  = "inventory.asset_updated"
	EventTypeAssetDeleted  = "inventory.asset_deleted"
	EventTypeStockCritical = "inventory.stock_critical"
)

// Snapshot is the read side of an asset that events are built from
type Snapshot interface {
	ID() string
	Name() string
	Category() string
	SerialNumber() string
	Quantity() decimal.NullDecimal
	ReorderPoint() int
	CriticalLevel() CriticalLevel
}

// AssetsLoadedEvent is raised when the working set is (re)loaded
type AssetsLoadedEvent struct {
	shared.BaseDomainEvent
	Count  int `json:"count"`
	Seeded int `json:"seeded"`
}

// NewAssetsLoadedEvent creates a new AssetsLoadedEvent
func NewAssetsLoadedEvent(tenantID string, count, seeded int) *AssetsLoadedEvent {
	return &AssetsLoadedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAssetsLoaded, AggregateTypeAsset, "", tenantID),
		Count:           count,
		Seeded:          seeded,
	}
}

// AssetCreatedEvent is raised after a new asset is saved
type AssetCreatedEvent struct {
	shared.BaseDomainEvent
	Name         string `json:"name"`
	Category     string `json:"category"`
	SerialNumber string `json:"serial_number"`
	Durable      bool   `json:"durable"`
}

// NewAssetCreatedEvent creates a new AssetCreatedEvent
func NewAssetCreatedEvent(tenantID string, a Snapshot, durable bool) *AssetCreatedEvent {
	return &AssetCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAssetCreated, AggregateTypeAsset, a.ID(), tenantID),
		Name:            a.Name(),
		Category:        a.Category(),
		SerialNumber:    a.SerialNumber(),
		Durable:         durable,
	}
}

// AssetUpdatedEvent is raised after an update is committed
type AssetUpdatedEvent struct {
	shared.BaseDomainEvent
	ChangedFields []string `json:"changed_fields"`
	Durable       bool     `json:"durable"`
}

// NewAssetUpdatedEvent creates a new AssetUpdatedEvent
func NewAssetUpdatedEvent(tenantID string, a Snapshot, changed []string, durable bool) *AssetUpdatedEvent {
	return &AssetUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAssetUpdated, AggregateTypeAsset, a.ID(), tenantID),
		ChangedFields:   changed,
		Durable:         durable,
	}
}

// AssetDeletedEvent is raised after an asset is removed
type AssetDeletedEvent struct {
	shared.BaseDomainEvent
	Durable bool `json:"durable"`
}

// NewAssetDeletedEvent creates a new AssetDeletedEvent
func NewAssetDeletedEvent(tenantID, assetID string, durable bool) *AssetDeletedEvent {
	return &AssetDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAssetDeleted, AggregateTypeAsset, assetID, tenantID),
		Durable:         durable,
	}
}

// StockCriticalEvent is raised when a created or updated asset is critical
type StockCriticalEvent struct {
	shared.BaseDomainEvent
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReorderPoint  int             `json:"reorder_point"`
	CriticalLevel CriticalLevel   `json:"critical_level"`
}

// NewStockCriticalEvent creates a new StockCriticalEvent
func NewStockCriticalEvent(tenantID string, a Snapshot) *StockCriticalEvent {
	return &StockCriticalEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockCritical, AggregateTypeAsset, a.ID(), tenantID),
		Name:            a.Name(),
		Quantity:        a.Quantity().Decimal,
		ReorderPoint:    a.ReorderPoint(),
		CriticalLevel:   a.CriticalLevel(),
	}
}

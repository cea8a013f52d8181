// Package inventory holds the application store that sits between
// collaborators (CLI, views) and the asset repository.
package inventory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/medtrack/backend/internal/domain/asset"
	"github.com/medtrack/backend/internal/domain/hospital"
	"github.com/medtrack/backend/internal/domain/shared"
	"github.com/medtrack/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Defaults for sample data and archives
const (
	DefaultSampleSize    = 25
	MaxSampleSize        = 100
	DefaultSeedBatchSize = 10
	DefaultArchivePrefix = "exports"
	DefaultArchiveExpiry = 15 * time.Minute
)

// ArchiveStorage stores exported CSV files
type ArchiveStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, key string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
}

// Statistics is the aggregate view of the working set
type Statistics struct {
	TotalAssets     int             `json:"totalAssets"`
	TotalValue      decimal.Decimal `json:"totalValue"`
	CriticalCount   int             `json:"criticalCount"`
	LowStockCount   int             `json:"lowStockCount"`
	CategoriesCount int             `json:"categoriesCount"`
}

// Store holds the working set of one hospital's assets together with the
// search, filter and sort state collaborators render from.
//
// The mutex only protects the fields. Operations are not serialized, so
// concurrent callers see last-caller-wins loading and error flags.
type Store struct {
	repo     asset.Repository[*asset.HospitalAsset]
	hospital *hospital.Config

	logger        *zap.Logger
	publisher     shared.EventPublisher
	archive       ArchiveStorage
	archivePrefix string
	archiveExpiry time.Duration
	metrics       *telemetry.InventoryMetrics
	seeder        Seeder
	sampleSize    int
	batchSize     int

	mu               sync.RWMutex
	assets           []*asset.HospitalAsset
	loading          bool
	errMsg           string
	searchQuery      string
	selectedCategory string
	sortBy           SortField
	sortDirection    SortDirection
	activeFilter     Filter
	lastWrite        shared.WriteResult
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventPublisher sets where state-change events go
func WithEventPublisher(publisher shared.EventPublisher) StoreOption {
	return func(s *Store) {
		s.publisher = publisher
	}
}

// WithArchiveStorage enables ArchiveExport. Keys are written under prefix.
func WithArchiveStorage(storage ArchiveStorage, prefix string) StoreOption {
	return func(s *Store) {
		s.archive = storage
		if prefix != "" {
			s.archivePrefix = prefix
		}
	}
}

// WithArchiveExpiry sets how long archive download links stay valid
func WithArchiveExpiry(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.archiveExpiry = d
		}
	}
}

// WithMetrics records operation and stock metrics
func WithMetrics(metrics *telemetry.InventoryMetrics) StoreOption {
	return func(s *Store) {
		s.metrics = metrics
	}
}

// WithSeeder replaces the sample data generator
func WithSeeder(seeder Seeder) StoreOption {
	return func(s *Store) {
		if seeder != nil {
			s.seeder = seeder
		}
	}
}

// WithSampleSize sets how many sample assets an empty repository gets.
// Zero disables seeding; values above MaxSampleSize are capped.
func WithSampleSize(n int) StoreOption {
	return func(s *Store) {
		s.sampleSize = min(max(n, 0), MaxSampleSize)
	}
}

// WithSeedBatchSize sets how many sample assets are persisted per batch
func WithSeedBatchSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewStore creates a store over repo for the hospital described by cfg.
// Call LoadAssets to fill the working set.
func NewStore(repo asset.Repository[*asset.HospitalAsset], cfg *hospital.Config, opts ...StoreOption) *Store {
	s := &Store{
		repo:          repo,
		hospital:      cfg,
		logger:        zap.NewNop(),
		archivePrefix: DefaultArchivePrefix,
		archiveExpiry: DefaultArchiveExpiry,
		sampleSize:    DefaultSampleSize,
		batchSize:     DefaultSeedBatchSize,
		sortBy:        SortByName,
		sortDirection: SortAsc,
		activeFilter:  FilterAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seeder == nil {
		s.seeder = NewFakerSeeder(0)
	}
	return s
}

// HospitalID returns the id of the hospital the store serves
func (s *Store) HospitalID() string {
	if s.hospital == nil {
		return ""
	}
	return s.hospital.ID
}

// Hospital returns the hospital schema
func (s *Store) Hospital() *hospital.Config {
	return s.hospital
}

// Assets returns copies of the working set in repository order. Changes to
// the copies do not reach the store; use UpdateAsset.
func (s *Store) Assets() []*asset.HospitalAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAssets(s.assets)
}

// snapshot returns the working set without copying the assets. Entries are
// replaced, never mutated, so callers may read them without the lock.
func (s *Store) snapshot() []*asset.HospitalAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.assets)
}

// Loading reports whether a load is in flight
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Error returns the message of the last failed operation, or ""
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// ClearError resets the error state
func (s *Store) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

// LastWrite returns the result of the last repository write
func (s *Store) LastWrite() shared.WriteResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastWrite
}

// CriticalAssets returns copies of the critical assets in the working set
func (s *Store) CriticalAssets() []*asset.HospitalAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAssets(filterAssets(s.assets, (*asset.HospitalAsset).IsCritical))
}

// LowStockAssets returns copies of the low-stock assets in the working set
func (s *Store) LowStockAssets() []*asset.HospitalAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAssets(filterAssets(s.assets, (*asset.HospitalAsset).IsLowStock))
}

// TotalValue sums quantity times purchase price over the working set
func (s *Store) TotalValue() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalValue(s.assets)
}

// Categories returns the distinct categories of the working set, sorted
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return categories(s.assets)
}

// Statistics returns the aggregate view of the working set
func (s *Store) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return statistics(s.assets)
}

func statistics(assets []*asset.HospitalAsset) Statistics {
	stats := Statistics{
		TotalAssets:     len(assets),
		TotalValue:      totalValue(assets),
		CategoriesCount: len(categories(assets)),
	}
	for _, a := range assets {
		if a.IsCritical() {
			stats.CriticalCount++
		}
		if a.IsLowStock() {
			stats.LowStockCount++
		}
	}
	return stats
}

func totalValue(assets []*asset.HospitalAsset) decimal.Decimal {
	total := decimal.Zero
	for _, a := range assets {
		q := a.Quantity()
		if !q.Valid {
			continue
		}
		total = total.Add(q.Decimal.Mul(a.UnitPrice()))
	}
	return total
}

func categories(assets []*asset.HospitalAsset) []string {
	seen := make(map[string]struct{}, len(assets))
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		c := a.Category()
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

func cloneAssets(assets []*asset.HospitalAsset) []*asset.HospitalAsset {
	out := make([]*asset.HospitalAsset, len(assets))
	for i, a := range assets {
		out[i] = a.Clone()
	}
	return out
}

func filterAssets(assets []*asset.HospitalAsset, keep func(*asset.HospitalAsset) bool) []*asset.HospitalAsset {
	out := make([]*asset.HospitalAsset, 0, len(assets))
	for _, a := range assets {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// Stock returns the statistics in the shape the metrics layer records
func (s *Store) Stock() telemetry.Stock {
	stats := s.Statistics()
	return telemetry.Stock{
		Total:      stats.TotalAssets,
		Critical:   stats.CriticalCount,
		LowStock:   stats.LowStockCount,
		TotalValue: stats.TotalValue,
	}
}

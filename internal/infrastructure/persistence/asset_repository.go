package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/medtrack/backend/internal/domain/asset"
	"github.com/medtrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces the snapshot key when no prefix is configured
const DefaultKeyPrefix = "medtrack"

// AssetKey returns the durable key for a collection: "<prefix>:assets" or
// "<prefix>:assets:<hospitalID>" for a tenant collection.
func AssetKey(prefix, hospitalID string) string {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	key := prefix + ":assets"
	if hospitalID != "" {
		key += ":" + hospitalID
	}
	return key
}

type repositoryOptions struct {
	logger     *zap.Logger
	prefix     string
	hospitalID string
}

// RepositoryOption configures an AssetRepository
type RepositoryOption func(*repositoryOptions)

// WithRepositoryLogger sets the logger used for durability failures
func WithRepositoryLogger(logger *zap.Logger) RepositoryOption {
	return func(o *repositoryOptions) {
		o.logger = logger
	}
}

// WithKeyPrefix sets the namespace of the snapshot key
func WithKeyPrefix(prefix string) RepositoryOption {
	return func(o *repositoryOptions) {
		o.prefix = prefix
	}
}

// WithHospitalID scopes the snapshot key to one hospital
func WithHospitalID(id string) RepositoryOption {
	return func(o *repositoryOptions) {
		o.hospitalID = id
	}
}

// AssetRepository keeps an ordered in-memory collection of assets and mirrors
// it as one JSON snapshot under a single key of a KeyValueStore.
// Stored and returned assets are clones.
type AssetRepository[T asset.Item[T]] struct {
	mu     sync.RWMutex
	store  shared.KeyValueStore
	decode asset.Decoder[T]
	key    string
	logger *zap.Logger

	order []string
	items map[string]T
}

// NewAssetRepository creates a repository and loads the existing snapshot.
// A missing, unreadable or undecodable snapshot leaves the repository empty.
func NewAssetRepository[T asset.Item[T]](ctx context.Context, store shared.KeyValueStore, decode asset.Decoder[T], opts ...RepositoryOption) *AssetRepository[T] {
	o := repositoryOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	r := &AssetRepository[T]{
		store:  store,
		decode: decode,
		key:    AssetKey(o.prefix, o.hospitalID),
		items:  make(map[string]T),
	}
	r.logger = o.logger.With(zap.String("key", r.key))
	r.load(ctx)
	return r
}

// Key returns the durable key of this collection
func (r *AssetRepository[T]) Key() string {
	return r.key
}

func (r *AssetRepository[T]) load(ctx context.Context) {
	data, ok, err := r.store.Get(ctx, r.key)
	if err != nil {
		r.logger.Error("Failed to read asset snapshot", zap.Error(err))
		return
	}
	if !ok || len(data) == 0 {
		r.logger.Debug("No asset snapshot found")
		return
	}

	assets, err := asset.DecodeSnapshot(data, r.decode)
	if err != nil {
		r.logger.Error("Failed to decode asset snapshot", zap.Error(err))
		return
	}
	for _, a := range assets {
		a.MarkClean()
		r.putLocked(a)
	}
	r.logger.Debug("Loaded asset snapshot", zap.Int("count", len(r.order)))
}

func (r *AssetRepository[T]) putLocked(a T) {
	id := a.GetID()
	if _, exists := r.items[id]; !exists {
		r.order = append(r.order, id)
	}
	r.items[id] = a
}

// persistLocked writes the whole collection. Failures are logged and reported
// as an in-memory write; the in-memory change is kept.
func (r *AssetRepository[T]) persistLocked(ctx context.Context, op string) shared.WriteResult {
	snapshot := make([]T, 0, len(r.order))
	for _, id := range r.order {
		snapshot = append(snapshot, r.items[id])
	}

	data, err := json.Marshal(snapshot)
	if err == nil {
		err = r.store.Set(ctx, r.key, data)
	}
	if err != nil {
		r.logger.Error("Failed to persist assets",
			zap.String("operation", op),
			zap.Int("count", len(snapshot)),
			zap.Error(err))
		return shared.InMemory(fmt.Errorf("%s: %w", op, errors.Join(shared.ErrPersistence, err)))
	}
	return shared.Durable()
}

func (r *AssetRepository[T]) filter(keep func(T) bool) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		a := r.items[id]
		if keep(a) {
			out = append(out, a.Clone())
		}
	}
	return out
}

// FindAll returns every asset in insertion order
func (r *AssetRepository[T]) FindAll(_ context.Context) []T {
	return r.filter(func(T) bool { return true })
}

// FindByID returns the asset with id or shared.ErrNotFound
func (r *AssetRepository[T]) FindByID(_ context.Context, id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		var zero T
		return zero, shared.ErrNotFound
	}
	return a.Clone(), nil
}

// Save validates and upserts an asset. An invalid asset is rejected with a
// *asset.ValidationError and the collection is left untouched.
func (r *AssetRepository[T]) Save(ctx context.Context, a T) shared.WriteResult {
	if !a.Validate() {
		return shared.Failed(asset.NewValidationError(a.Errors()))
	}
	a.MarkClean()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.putLocked(a.Clone())
	return r.persistLocked(ctx, "save")
}

// Delete removes the asset with id and reports whether it existed
func (r *AssetRepository[T]) Delete(ctx context.Context, id string) (bool, shared.WriteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false, shared.Failed(shared.ErrNotFound)
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, r.persistLocked(ctx, "delete")
}

// Count returns the number of assets
func (r *AssetRepository[T]) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// FindByCategory returns assets whose category equals category exactly
func (r *AssetRepository[T]) FindByCategory(_ context.Context, category string) []T {
	return r.filter(func(a T) bool { return a.Category() == category })
}

// FindByCriticalLevel returns assets tagged with level
func (r *AssetRepository[T]) FindByCriticalLevel(_ context.Context, level asset.CriticalLevel) []T {
	return r.filter(func(a T) bool { return a.CriticalLevel() == level })
}

// FindLowStock returns assets below their reorder point but above the critical threshold
func (r *AssetRepository[T]) FindLowStock(_ context.Context) []T {
	return r.filter(func(a T) bool { return a.IsLowStock() })
}

// FindCritical returns assets tagged critical or at/below the critical threshold
func (r *AssetRepository[T]) FindCritical(_ context.Context) []T {
	return r.filter(func(a T) bool { return a.IsCritical() })
}

// Search matches query case-insensitively against name, manufacturer,
// serial number and category. An empty query matches everything.
func (r *AssetRepository[T]) Search(_ context.Context, query string) []T {
	q := strings.ToLower(query)
	return r.filter(func(a T) bool { return MatchesQuery(a, q) })
}

// MatchesQuery reports whether a lower-cased query is a substring of any
// searchable field of a
func MatchesQuery[T asset.Item[T]](a T, lowerQuery string) bool {
	if lowerQuery == "" {
		return true
	}
	for _, s := range []string{a.Name(), a.Manufacturer(), a.SerialNumber(), a.Category()} {
		if strings.Contains(strings.ToLower(s), lowerQuery) {
			return true
		}
	}
	return false
}

// BulkSave saves assets one by one and stops at the first failure.
// Assets saved before the failure stay saved.
func (r *AssetRepository[T]) BulkSave(ctx context.Context, assets []T) shared.WriteResult {
	result := shared.Durable()
	for i, a := range assets {
		res := r.Save(ctx, a)
		switch res.Outcome {
		case shared.WriteFailed:
			return shared.Failed(fmt.Errorf("asset %d: %w", i, res.Err))
		case shared.WriteInMemory:
			result = res
		}
	}
	return result
}

// TotalValue sums quantity times unit price. Assets without a quantity count as zero.
func (r *AssetRepository[T]) TotalValue(_ context.Context) decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, id := range r.order {
		a := r.items[id]
		if q := a.Quantity(); q.Valid {
			total = total.Add(q.Decimal.Mul(a.UnitPrice()))
		}
	}
	return total
}

// DeleteAll empties the collection and removes the durable entry
func (r *AssetRepository[T]) DeleteAll(ctx context.Context) (int, shared.WriteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.order)
	r.order = nil
	r.items = make(map[string]T)

	if err := r.store.Delete(ctx, r.key); err != nil {
		r.logger.Error("Failed to delete asset snapshot", zap.Error(err))
		return removed, shared.InMemory(fmt.Errorf("delete all: %w", errors.Join(shared.ErrPersistence, err)))
	}
	return removed, shared.Durable()
}

var (
	_ asset.Repository[*asset.Asset]         = (*AssetRepository[*asset.Asset])(nil)
	_ asset.Repository[*asset.HospitalAsset] = (*AssetRepository[*asset.HospitalAsset])(nil)
)

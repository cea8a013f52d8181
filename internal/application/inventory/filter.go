package inventory

import (
	"fmt"
	"slices"
	"strings"

	"github.com/medtrack/backend/internal/domain/asset"
	"github.com/medtrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Filter narrows the working set by stock status
type Filter string

// Filters
const (
	FilterAll      Filter = "all"
	FilterCritical Filter = "critical"
	FilterLowStock Filter = "lowStock"
)

// IsValid returns true for a known filter
func (f Filter) IsValid() bool {
	switch f {
	case FilterAll, FilterCritical, FilterLowStock:
		return true
	}
	return false
}

// SortField is the field FilteredAssets orders by
type SortField string

// Sort fields
const (
	SortByName     SortField = asset.FieldName
	SortByQuantity SortField = asset.FieldQuantity
	SortByCategory SortField = asset.FieldCategory
)

// IsValid returns true for a known sort field
func (f SortField) IsValid() bool {
	switch f {
	case SortByName, SortByQuantity, SortByCategory:
		return true
	}
	return false
}

// SortDirection is ascending or descending
type SortDirection string

// Sort directions
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// IsValid returns true for a known direction
func (d SortDirection) IsValid() bool {
	return d == SortAsc || d == SortDesc
}

// ViewState is the search, filter and sort state
type ViewState struct {
	SearchQuery      string        `json:"searchQuery"`
	SelectedCategory string        `json:"selectedCategory"`
	SortBy           SortField     `json:"sortBy"`
	SortDirection    SortDirection `json:"sortDirection"`
	ActiveFilter     Filter        `json:"activeFilter"`
}

// View returns the current search, filter and sort state
func (s *Store) View() ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ViewState{
		SearchQuery:      s.searchQuery,
		SelectedCategory: s.selectedCategory,
		SortBy:           s.sortBy,
		SortDirection:    s.sortDirection,
		ActiveFilter:     s.activeFilter,
	}
}

// SetSearchQuery sets the free-text search
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	s.searchQuery = query
	s.mu.Unlock()
}

// SetCategory selects a category; "" selects every category
func (s *Store) SetCategory(category string) {
	s.mu.Lock()
	s.selectedCategory = category
	s.mu.Unlock()
}

// SetActiveFilter selects the stock-status filter
func (s *Store) SetActiveFilter(filter Filter) error {
	if !filter.IsValid() {
		return shared.NewDomainError(shared.ErrInvalidInput.Code, fmt.Sprintf("Unknown filter %q", filter))
	}
	s.mu.Lock()
	s.activeFilter = filter
	s.mu.Unlock()
	return nil
}

// SetSort sets the sort field and direction
func (s *Store) SetSort(field SortField, direction SortDirection) error {
	if !field.IsValid() {
		return shared.NewDomainError(shared.ErrInvalidInput.Code, fmt.Sprintf("Unknown sort field %q", field))
	}
	if !direction.IsValid() {
		return shared.NewDomainError(shared.ErrInvalidInput.Code, fmt.Sprintf("Unknown sort direction %q", direction))
	}
	s.mu.Lock()
	s.sortBy = field
	s.sortDirection = direction
	s.mu.Unlock()
	return nil
}

// ClearFilters resets search, category and the stock-status filter
func (s *Store) ClearFilters() {
	s.mu.Lock()
	s.searchQuery = ""
	s.selectedCategory = ""
	s.activeFilter = FilterAll
	s.mu.Unlock()
}

// ClearSearch resets search and category, keeping the stock-status filter
func (s *Store) ClearSearch() {
	s.mu.Lock()
	s.searchQuery = ""
	s.selectedCategory = ""
	s.mu.Unlock()
}

// FilteredAssets applies the stock-status filter, the search, the category
// and finally a stable sort. Ties keep working-set order. The result holds
// copies of the assets.
func (s *Store) FilteredAssets() []*asset.HospitalAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*asset.HospitalAsset
	switch s.activeFilter {
	case FilterCritical:
		out = filterAssets(s.assets, (*asset.HospitalAsset).IsCritical)
	case FilterLowStock:
		out = filterAssets(s.assets, (*asset.HospitalAsset).IsLowStock)
	default:
		out = slices.Clone(s.assets)
	}

	if q := strings.ToLower(s.searchQuery); q != "" {
		out = filterAssets(out, func(a *asset.HospitalAsset) bool {
			return strings.Contains(strings.ToLower(a.Name()), q) ||
				strings.Contains(strings.ToLower(a.SerialNumber()), q) ||
				strings.Contains(strings.ToLower(a.Manufacturer()), q)
		})
	}

	if s.selectedCategory != "" {
		category := s.selectedCategory
		out = filterAssets(out, func(a *asset.HospitalAsset) bool {
			return a.Category() == category
		})
	}

	cmp := compareBy(s.sortBy)
	if s.sortDirection == SortDesc {
		asc := cmp
		cmp = func(a, b *asset.HospitalAsset) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, cmp)
	return cloneAssets(out)
}

func compareBy(field SortField) func(a, b *asset.HospitalAsset) int {
	switch field {
	case SortByQuantity:
		return func(a, b *asset.HospitalAsset) int {
			return quantityOf(a).Cmp(quantityOf(b))
		}
	case SortByCategory:
		return func(a, b *asset.HospitalAsset) int {
			return strings.Compare(a.Category(), b.Category())
		}
	default:
		return func(a, b *asset.HospitalAsset) int {
			return strings.Compare(a.Name(), b.Name())
		}
	}
}

// quantityOf treats an unset quantity as zero for ordering
func quantityOf(a *asset.HospitalAsset) decimal.Decimal {
	if q := a.Quantity(); q.Valid {
		return q.Decimal
	}
	return decimal.Zero
}

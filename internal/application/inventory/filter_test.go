package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrack/backend/internal/application/inventory"
	"github.com/medtrack/backend/internal/domain/asset"
	"github.com/medtrack/backend/internal/domain/shared"
)

func names(assets []*asset.HospitalAsset) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.Name())
	}
	return out
}

func newFilterFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, nil)
	f.seed(t,
		assetInput{name: "X-Ray Machine", manufacturer: "GE Healthcare", category: "Imaging", serial: "XR-000001", quantity: 2, reorderPoint: 3},
		assetInput{name: "Infusion Pump", manufacturer: "Baxter", category: "Infusion", serial: "IP-000001", quantity: 30},
		assetInput{name: "MRI Scanner", manufacturer: "Siemens", category: "Imaging", serial: "MR-000001", quantity: 1, reorderPoint: 5},
		assetInput{name: "Bandages", manufacturer: "Raytec", category: "Supplies", serial: "BA-000001", quantity: 8},
		assetInput{name: "Defibrillator", manufacturer: "Zoll", category: "Cardiology", serial: "DF-000001", quantity: 30},
	)
	return f
}

func TestFilteredAssets_DefaultSortsByName(t *testing.T) {
	f := newFilterFixture(t)

	assert.Equal(t,
		[]string{"Bandages", "Defibrillator", "Infusion Pump", "MRI Scanner", "X-Ray Machine"},
		names(f.store.FilteredAssets()))
}

func TestFilteredAssets_Search(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "name match is case insensitive", query: "X-RAY", want: []string{"X-Ray Machine"}},
		{name: "manufacturer match", query: "siemens", want: []string{"MRI Scanner"}},
		{name: "serial match", query: "df-0000", want: []string{"Defibrillator"}},
		{name: "category is not searched", query: "imaging", want: []string{}},
		{name: "empty query matches all", query: "", want: []string{"Bandages", "Defibrillator", "Infusion Pump", "MRI Scanner", "X-Ray Machine"}},
		{name: "whitespace is matched literally", query: "   ", want: []string{}},
		{name: "leading space is not trimmed", query: " ray", want: []string{}},
		{name: "inner space matches", query: "y m", want: []string{"X-Ray Machine"}},
	}

	f := newFilterFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.store.SetSearchQuery(tt.query)
			assert.Equal(t, tt.want, names(f.store.FilteredAssets()))
		})
	}
}

func TestFilteredAssets_SearchRay(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t,
		assetInput{name: "X-Ray Machine", manufacturer: "GE Healthcare", serial: "XR-000001", quantity: 20},
		assetInput{name: "Ultrasound", manufacturer: "Philips", serial: "US-000001", quantity: 20},
	)

	f.store.SetSearchQuery("ray")

	assert.Equal(t, []string{"X-Ray Machine"}, names(f.store.FilteredAssets()))
}

func TestFilteredAssets_ActiveFilter(t *testing.T) {
	f := newFilterFixture(t)

	require.NoError(t, f.store.SetActiveFilter(inventory.FilterCritical))
	assert.Equal(t, []string{"MRI Scanner"}, names(f.store.FilteredAssets()))

	require.NoError(t, f.store.SetActiveFilter(inventory.FilterLowStock))
	assert.Equal(t, []string{"Bandages", "X-Ray Machine"}, names(f.store.FilteredAssets()))

	err := f.store.SetActiveFilter("broken")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Equal(t, inventory.FilterLowStock, f.store.View().ActiveFilter)
}

func TestFilteredAssets_FilterSearchAndCategoryCombine(t *testing.T) {
	f := newFilterFixture(t)

	require.NoError(t, f.store.SetActiveFilter(inventory.FilterLowStock))
	f.store.SetSearchQuery("ra")
	assert.Equal(t, []string{"Bandages", "X-Ray Machine"}, names(f.store.FilteredAssets()))

	f.store.SetCategory("Imaging")
	assert.Equal(t, []string{"X-Ray Machine"}, names(f.store.FilteredAssets()))
}

func TestFilteredAssets_Sort(t *testing.T) {
	f := newFilterFixture(t)

	require.NoError(t, f.store.SetSort(inventory.SortByQuantity, inventory.SortAsc))
	assert.Equal(t,
		[]string{"MRI Scanner", "X-Ray Machine", "Bandages", "Infusion Pump", "Defibrillator"},
		names(f.store.FilteredAssets()), "ties keep repository order")

	require.NoError(t, f.store.SetSort(inventory.SortByQuantity, inventory.SortDesc))
	assert.Equal(t,
		[]string{"Infusion Pump", "Defibrillator", "Bandages", "X-Ray Machine", "MRI Scanner"},
		names(f.store.FilteredAssets()))

	require.NoError(t, f.store.SetSort(inventory.SortByCategory, inventory.SortAsc))
	assert.Equal(t,
		[]string{"Defibrillator", "X-Ray Machine", "MRI Scanner", "Infusion Pump", "Bandages"},
		names(f.store.FilteredAssets()))

	assert.ErrorIs(t, f.store.SetSort("price", inventory.SortAsc), shared.ErrInvalidInput)
	assert.ErrorIs(t, f.store.SetSort(inventory.SortByName, "up"), shared.ErrInvalidInput)
	assert.Equal(t, inventory.SortByCategory, f.store.View().SortBy)
}

func TestClearFiltersAndClearSearch(t *testing.T) {
	f := newFilterFixture(t)

	f.store.SetSearchQuery("pump")
	f.store.SetCategory("Infusion")
	require.NoError(t, f.store.SetActiveFilter(inventory.FilterCritical))

	f.store.ClearSearch()
	view := f.store.View()
	assert.Empty(t, view.SearchQuery)
	assert.Empty(t, view.SelectedCategory)
	assert.Equal(t, inventory.FilterCritical, view.ActiveFilter)

	f.store.SetSearchQuery("pump")
	f.store.ClearFilters()
	view = f.store.View()
	assert.Empty(t, view.SearchQuery)
	assert.Equal(t, inventory.FilterAll, view.ActiveFilter)
	assert.Len(t, f.store.FilteredAssets(), 5)
}

func TestFilteredAssets_DoesNotReorderWorkingSet(t *testing.T) {
	f := newFilterFixture(t)
	before := names(f.store.Assets())

	require.NoError(t, f.store.SetSort(inventory.SortByQuantity, inventory.SortDesc))
	_ = f.store.FilteredAssets()

	assert.Equal(t, before, names(f.store.Assets()))
}

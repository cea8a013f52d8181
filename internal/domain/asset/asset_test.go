package asset

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/medtrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qty(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

func intPtr(n int) *int {
	return &n
}

func createTestAsset(t *testing.T) *Asset {
	t.Helper()
	a := NewAsset(Attrs{
		Name:          "Infusion Pump",
		Manufacturer:  "Baxter",
		Category:      "Infusion",
		Quantity:      qty(25),
		SerialNumber:  "IP-123456",
		CriticalLevel: CriticalLevelEssential,
		ReorderPoint:  intPtr(10),
	})
	require.True(t, a.Validate(), a.Errors().String())
	return a
}

func TestNewAsset_Defaults(t *testing.T) {
	a := NewAsset(Attrs{Name: "Gauze"})

	assert.NotEmpty(t, a.ID())
	assert.Equal(t, CriticalLevelRoutine, a.CriticalLevel())
	assert.Equal(t, DefaultReorderPoint, a.ReorderPoint())
	require.True(t, a.Quantity().Valid)
	assert.True(t, a.Quantity().Decimal.IsZero())
	assert.Nil(t, a.LastMaintenance())
	assert.Nil(t, a.ExpiryDate())
	assert.False(t, a.IsDirty())
	assert.False(t, a.GetCreatedAt().IsZero())

	b := NewAsset(Attrs{ID: "fixed-id", ReorderPoint: intPtr(0)})
	assert.Equal(t, "fixed-id", b.ID())
	assert.Equal(t, 0, b.ReorderPoint())
	assert.NotEqual(t, a.ID(), NewAsset(Attrs{}).ID())
}

func TestNewAsset_LegacyCriticalLevel(t *testing.T) {
	tests := []struct {
		input    any
		expected CriticalLevel
	}{
		{"critical", CriticalLevelCritical},
		{"ESSENTIAL", CriticalLevelEssential},
		{"routine", CriticalLevelRoutine},
		{"urgent", CriticalLevelRoutine},
		{"", CriticalLevelRoutine},
		{nil, CriticalLevelRoutine},
		{1, CriticalLevelCritical},
		{2, CriticalLevelEssential},
		{3, CriticalLevelRoutine},
		{7.0, CriticalLevelRoutine},
		{"1", CriticalLevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseCriticalLevel(tt.input), "input %v", tt.input)
	}

	a := NewAsset(Attrs{CriticalLevel: "2"})
	assert.Equal(t, CriticalLevelEssential, a.CriticalLevel())
}

func TestAsset_Validate(t *testing.T) {
	t.Run("valid asset", func(t *testing.T) {
		a := createTestAsset(t)
		assert.False(t, a.HasErrors())
		assert.Empty(t, a.FirstError())
	})

	t.Run("name rules", func(t *testing.T) {
		a := createTestAsset(t)
		a.SetName("   ")
		assert.False(t, a.Validate())
		assert.Equal(t, []string{MsgNameRequired}, a.Errors().Messages(FieldName))

		a.SetName(strings.Repeat("x", 101))
		assert.False(t, a.Validate())
		assert.Equal(t, []string{MsgNameTooLong}, a.Errors().Messages(FieldName))

		a.SetName(strings.Repeat("x", 100))
		assert.True(t, a.Validate())
	})

	t.Run("quantity rules", func(t *testing.T) {
		a := createTestAsset(t)
		a.ClearQuantity()
		assert.False(t, a.Validate())
		assert.Equal(t, []string{MsgQuantityRequired}, a.Errors().Messages(FieldQuantity))

		a.SetQuantity(decimal.NewFromInt(-1))
		a.Validate()
		assert.Equal(t, []string{MsgQuantityNegative}, a.Errors().Messages(FieldQuantity))

		a.SetQuantity(decimal.NewFromInt(1000000))
		a.Validate()
		assert.Equal(t, []string{MsgQuantityTooLarge}, a.Errors().Messages(FieldQuantity))

		a.SetQuantity(decimal.RequireFromString("2.5"))
		a.Validate()
		assert.Equal(t, []string{MsgQuantityNotWhole}, a.Errors().Messages(FieldQuantity))

		a.SetQuantity(decimal.RequireFromString("-1.5"))
		a.Validate()
		assert.Equal(t, []string{MsgQuantityNegative, MsgQuantityNotWhole}, a.Errors().Messages(FieldQuantity))

		a.SetQuantity(decimal.NewFromInt(MaxQuantity))
		assert.True(t, a.Validate())
	})

	t.Run("serial number rules", func(t *testing.T) {
		a := createTestAsset(t)
		a.SetSerialNumber("")
		assert.False(t, a.Validate())
		assert.Equal(t, MsgSerialRequired, a.FirstError())

		for _, bad := range []string{"ip-123456", "IP123456", "IP-12345", "IPX-123456", "IP-1234567"} {
			a.SetSerialNumber(bad)
			assert.False(t, a.Validate(), bad)
			assert.Equal(t, []string{MsgSerialFormat}, a.Errors().Messages(FieldSerialNumber), bad)
		}
	})

	t.Run("reorder point rule", func(t *testing.T) {
		a := createTestAsset(t)
		a.SetReorderPoint(-1)
		assert.False(t, a.Validate())
		assert.Equal(t, MsgReorderPointNegative, a.FirstError())
	})

	t.Run("all rules run", func(t *testing.T) {
		a := NewAsset(Attrs{ReorderPoint: intPtr(-5)})
		a.ClearQuantity()
		assert.False(t, a.Validate())
		errs := a.Errors()
		assert.Equal(t, []string{FieldName, FieldQuantity, FieldSerialNumber, FieldReorderPoint}, errs.Fields())
		field, msg := errs.First()
		assert.Equal(t, FieldName, field)
		assert.Equal(t, MsgNameRequired, msg)
	})

	t.Run("errors are cleared on each call", func(t *testing.T) {
		a := createTestAsset(t)
		a.SetSerialNumber("bad")
		assert.False(t, a.Validate())
		a.SetSerialNumber("AB-000001")
		assert.True(t, a.Validate())
		assert.False(t, a.HasErrors())
	})
}

func TestAsset_StockPredicates(t *testing.T) {
	tests := []struct {
		name         string
		quantity     int64
		reorderPoint int
		level        CriticalLevel
		lowStock     bool
		critical     bool
	}{
		{"well stocked", 25, 10, CriticalLevelRoutine, false, false},
		{"at reorder point", 10, 10, CriticalLevelRoutine, false, false},
		{"low stock band", 5, 10, CriticalLevelRoutine, true, false},
		{"at 30 percent boundary", 3, 10, CriticalLevelRoutine, false, true},
		{"below 30 percent", 2, 10, CriticalLevelRoutine, false, true},
		{"empty", 0, 10, CriticalLevelEssential, false, true},
		{"tagged critical and well stocked", 50, 10, CriticalLevelCritical, false, true},
		{"tagged critical in low band", 8, 10, CriticalLevelCritical, true, true},
		{"zero reorder point", 0, 0, CriticalLevelRoutine, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAsset(Attrs{Quantity: qty(tt.quantity), ReorderPoint: intPtr(tt.reorderPoint), CriticalLevel: tt.level})
			assert.Equal(t, tt.lowStock, a.IsLowStock())
			assert.Equal(t, tt.critical, a.IsCritical())
		})
	}

	t.Run("unset quantity", func(t *testing.T) {
		a := NewAsset(Attrs{})
		a.ClearQuantity()
		assert.False(t, a.IsLowStock())
		assert.False(t, a.IsCritical())
		a.SetCriticalLevel(CriticalLevelCritical)
		assert.True(t, a.IsCritical())
	})

	t.Run("fractional threshold uses exact arithmetic", func(t *testing.T) {
		// 0.3 * 7 = 2.1 exactly
		a := NewAsset(Attrs{Quantity: qty(2), ReorderPoint: intPtr(7)})
		assert.True(t, a.IsCritical())
		a.SetQuantity(decimal.RequireFromString("2.1"))
		assert.True(t, a.IsCritical())
		a.SetQuantity(decimal.NewFromInt(3))
		assert.False(t, a.IsCritical())
		assert.True(t, a.IsLowStock())
	})
}

func TestAsset_GetSet(t *testing.T) {
	a := createTestAsset(t)
	a.MarkClean()

	t.Run("set coerces and marks dirty", func(t *testing.T) {
		a.Set(FieldQuantity, "42")
		assert.True(t, a.IsDirty())
		v, ok := a.Get(FieldQuantity)
		require.True(t, ok)
		assert.True(t, decimal.NewFromInt(42).Equal(v.(decimal.Decimal)))

		a.Set(FieldReorderPoint, 12.0)
		assert.Equal(t, 12, a.ReorderPoint())

		a.Set(FieldCriticalLevel, 1)
		assert.Equal(t, CriticalLevelCritical, a.CriticalLevel())

		a.Set(FieldLastMaintenance, "2024-03-01")
		require.NotNil(t, a.LastMaintenance())
		assert.Equal(t, 2024, a.LastMaintenance().Year())

		a.Set(FieldLastMaintenance, nil)
		assert.Nil(t, a.LastMaintenance())
	})

	t.Run("uncoercible quantity becomes unset", func(t *testing.T) {
		a.Set(FieldQuantity, "lots")
		v, ok := a.Get(FieldQuantity)
		assert.True(t, ok)
		assert.Nil(t, v)
		assert.False(t, a.Validate())
		assert.Equal(t, []string{MsgQuantityRequired}, a.Errors().Messages(FieldQuantity))
	})

	t.Run("fractional reorder point is a validation error", func(t *testing.T) {
		b := createTestAsset(t)
		b.Set(FieldReorderPoint, 5.7)
		assert.False(t, b.Validate())
		assert.Equal(t, []string{MsgReorderPointNotWhole}, b.Errors().Messages(FieldReorderPoint))

		b.Set(FieldReorderPoint, "6")
		assert.Equal(t, 6, b.ReorderPoint())
		assert.True(t, b.Validate(), b.Errors().String())

		b.Set(FieldReorderPoint, "2.5")
		assert.False(t, b.Validate())
		b.SetReorderPoint(4)
		assert.True(t, b.Validate(), b.Errors().String())
	})

	t.Run("id is immutable", func(t *testing.T) {
		id := a.ID()
		a.Set(FieldID, "other")
		assert.Equal(t, id, a.ID())
	})

	t.Run("unknown field", func(t *testing.T) {
		a.Set("department", "ICU")
		_, ok := a.Get("department")
		assert.False(t, ok)
	})

	t.Run("mark clean", func(t *testing.T) {
		a.MarkClean()
		assert.False(t, a.IsDirty())
	})
}

func TestAsset_Clone(t *testing.T) {
	a := createTestAsset(t)
	lm := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	a.SetLastMaintenance(&lm)

	c := a.Clone()
	assert.Equal(t, a.Serialize(), c.Serialize())

	c.SetName("Changed")
	later := lm.Add(24 * time.Hour)
	c.SetLastMaintenance(&later)
	assert.Equal(t, "Infusion Pump", a.Name())
	assert.True(t, lm.Equal(*a.LastMaintenance()))
}

func TestAsset_DisplayValue(t *testing.T) {
	a := createTestAsset(t)
	assert.Equal(t, "25 units", a.DisplayValue(FieldQuantity))
	assert.Equal(t, "N/A", a.DisplayValue(FieldExpiryDate))
	assert.Equal(t, "Essential", a.DisplayValue(FieldCriticalLevel))
	assert.Equal(t, "10", a.DisplayValue(FieldReorderPoint))
	assert.Equal(t, "Baxter", a.DisplayValue(FieldManufacturer))
	assert.Equal(t, "", a.DisplayValue("nonexistent"))

	exp := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
	a.SetExpiryDate(&exp)
	assert.Equal(t, "3/7/2025", a.DisplayValue(FieldExpiryDate))

	a.ClearQuantity()
	assert.Equal(t, "N/A", a.DisplayValue(FieldQuantity))
}

func TestValidationError(t *testing.T) {
	a := NewAsset(Attrs{Name: "Monitor", SerialNumber: "bad"})
	require.False(t, a.Validate())

	err := NewValidationError(a.Errors())
	assert.Equal(t, MsgSerialFormat, err.Error())
	assert.Equal(t, "serialNumber: "+MsgSerialFormat, err.Detail())
	assert.True(t, errors.Is(err, shared.ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(error(err), &verr))
	assert.Equal(t, 1, verr.Errors.Len())
}

func TestValidationErrors_Map(t *testing.T) {
	var errs ValidationErrors
	assert.True(t, errs.IsEmpty())
	errs.Add("b", "one")
	errs.Add("a", "two")
	errs.Add("b", "three")

	assert.Equal(t, []string{"b", "a"}, errs.Fields())
	assert.Equal(t, map[string][]string{"a": {"two"}, "b": {"one", "three"}}, errs.Map())
	assert.Equal(t, "b: one; b: three; a: two", errs.String())

	m := errs.Map()
	m["a"][0] = "mutated"
	assert.Equal(t, []string{"two"}, errs.Messages("a"))
}

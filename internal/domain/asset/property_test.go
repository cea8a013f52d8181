package asset

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

var levels = []CriticalLevel{CriticalLevelCritical, CriticalLevelEssential, CriticalLevelRoutine}

func drawAsset(t *rapid.T) *Asset {
	q := rapid.Int64Range(0, MaxQuantity).Draw(t, "quantity")
	rp := rapid.IntRange(0, 10000).Draw(t, "reorderPoint")
	return NewAsset(Attrs{
		Name:          rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,99}`).Draw(t, "name"),
		Manufacturer:  rapid.String().Draw(t, "manufacturer"),
		Category:      rapid.StringMatching(`[A-Z][a-z]{2,12}`).Draw(t, "category"),
		Quantity:      qty(q),
		SerialNumber:  rapid.StringMatching(`[A-Z]{2}-[0-9]{6}`).Draw(t, "serial"),
		CriticalLevel: rapid.SampledFrom(levels).Draw(t, "level"),
		ReorderPoint:  intPtr(rp),
	})
}

func TestProperty_ValidInputsValidate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawAsset(t)
		if !a.Validate() || a.HasErrors() {
			t.Fatalf("expected valid asset, got %s", a.Errors().String())
		}
	})
}

func TestProperty_QuantityClauseExcludesLowStock(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawAsset(t)
		a.SetCriticalLevel(rapid.SampledFrom([]CriticalLevel{CriticalLevelEssential, CriticalLevelRoutine}).Draw(t, "untagged"))
		if a.IsLowStock() && a.IsCritical() {
			t.Fatalf("quantity %s reorder point %d is both low stock and critical", a.Quantity().Decimal, a.ReorderPoint())
		}
	})
}

func TestProperty_CriticalTagDominates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawAsset(t)
		a.SetCriticalLevel(CriticalLevelCritical)
		if !a.IsCritical() {
			t.Fatalf("tagged critical asset not critical")
		}
	})
}

func TestProperty_ThirtyPercentRule(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawAsset(t)
		threshold := decimal.NewFromInt(int64(a.ReorderPoint())).Mul(decimal.RequireFromString("0.3"))
		if a.Quantity().Decimal.LessThanOrEqual(threshold) && !a.IsCritical() {
			t.Fatalf("quantity %s at or below %s not critical", a.Quantity().Decimal, threshold)
		}
	})
}

func TestProperty_SerializeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawAsset(t)
		data, err := json.Marshal(a)
		if err != nil {
			t.Fatal(err)
		}
		back, err := DecodeAsset(data)
		if err != nil {
			t.Fatal(err)
		}
		want, got := fmt.Sprintf("%+v", a.Serialize()), fmt.Sprintf("%+v", back.Serialize())
		if !json.Valid(data) || !sameRecord(a.Serialize(), back.Serialize()) {
			t.Fatalf("round trip mismatch:\n%s\n%s", want, got)
		}
	})
}

func sameRecord(a, b Record) bool {
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	return string(ja) == string(jb)
}

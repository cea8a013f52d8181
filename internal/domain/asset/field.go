package asset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Serialized field names. They double as keys for Get, Set and DisplayValue.
const (
	FieldID              = "id"
	FieldName            = "name"
	FieldManufacturer    = "manufacturer"
	FieldCategory        = "category"
	FieldQuantity        = "quantity"
	FieldSerialNumber    = "serialNumber"
	FieldCriticalLevel   = "criticalLevel"
	FieldReorderPoint    = "reorderPoint"
	FieldLastMaintenance = "lastMaintenance"
	FieldExpiryDate      = "expiryDate"
	FieldCreatedAt       = "createdAt"
	FieldUpdatedAt       = "updatedAt"

	FieldCustomFields    = "customFields"
	FieldLocation        = "location"
	FieldCondition       = "condition"
	FieldPurchasePrice   = "purchasePrice"
	FieldWarrantyExpiry  = "warrantyExpiry"
	FieldLastCalibration = "lastCalibration"
)

// CustomFieldPrefix routes an update key straight into the custom-fields map
const CustomFieldPrefix = FieldCustomFields + "."

var nativeFields = map[string]struct{}{
	FieldID: {}, FieldName: {}, FieldManufacturer: {}, FieldCategory: {},
	FieldQuantity: {}, FieldSerialNumber: {}, FieldCriticalLevel: {},
	FieldReorderPoint: {}, FieldLastMaintenance: {}, FieldExpiryDate: {},
	FieldCreatedAt: {}, FieldUpdatedAt: {},
}

var hospitalFields = map[string]struct{}{
	FieldLocation: {}, FieldCondition: {}, FieldPurchasePrice: {},
	FieldWarrantyExpiry: {}, FieldLastCalibration: {},
}

// IsNativeField reports whether field belongs to the base asset
func IsNativeField(field string) bool {
	_, ok := nativeFields[field]
	return ok
}

// IsHospitalField reports whether field is one of the typed hospital fields
func IsHospitalField(field string) bool {
	_, ok := hospitalFields[field]
	return ok
}

// Default values merged under caller attributes
const (
	DefaultReorderPoint = 10
	MaxQuantity         = 999999
	MaxNameLength       = 100
)

// CriticalLevel is the priority tag a hospital assigns to an asset
type CriticalLevel string

// Critical levels
const (
	CriticalLevelCritical  CriticalLevel = "critical"
	CriticalLevelEssential CriticalLevel = "essential"
	CriticalLevelRoutine   CriticalLevel = "routine"
)

// IsValid returns true if the level is one of the three known values
func (l CriticalLevel) IsValid() bool {
	switch l {
	case CriticalLevelCritical, CriticalLevelEssential, CriticalLevelRoutine:
		return true
	}
	return false
}

// String returns the string representation
func (l CriticalLevel) String() string {
	return string(l)
}

// ParseCriticalLevel normalizes any accepted representation of a critical level.
// Legacy numeric severities map 1 to critical, 2 to essential and anything
// else to routine. Unknown strings and nil become routine.
func ParseCriticalLevel(v any) CriticalLevel {
	switch x := v.(type) {
	case nil:
		return CriticalLevelRoutine
	case CriticalLevel:
		return parseCriticalLevelString(string(x))
	case string:
		return parseCriticalLevelString(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return CriticalLevelRoutine
		}
		return criticalLevelFromSeverity(f)
	case decimal.Decimal:
		return criticalLevelFromSeverity(x.InexactFloat64())
	}
	if f, ok := toFloat(v); ok {
		return criticalLevelFromSeverity(f)
	}
	return CriticalLevelRoutine
}

func parseCriticalLevelString(s string) CriticalLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	if l := CriticalLevel(s); l.IsValid() {
		return l
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return criticalLevelFromSeverity(f)
	}
	return CriticalLevelRoutine
}

func criticalLevelFromSeverity(f float64) CriticalLevel {
	switch f {
	case 1:
		return CriticalLevelCritical
	case 2:
		return CriticalLevelEssential
	default:
		return CriticalLevelRoutine
	}
}

// UnmarshalJSON accepts both the string form and legacy numeric severities
func (l *CriticalLevel) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*l = ParseCriticalLevel(raw)
	return nil
}

// Condition is the physical state of a hospital asset
type Condition string

// Conditions
const (
	ConditionNew                 Condition = "New"
	ConditionGood                Condition = "Good"
	ConditionFair                Condition = "Fair"
	ConditionMaintenanceRequired Condition = "Maintenance Required"
)

// IsValid returns true if the condition is one of the four known values
func (c Condition) IsValid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionMaintenanceRequired:
		return true
	}
	return false
}

// ParseCondition matches a known condition case-insensitively.
// Unknown values are kept verbatim.
func ParseCondition(s string) Condition {
	trimmed := strings.TrimSpace(s)
	for _, c := range []Condition{ConditionNew, ConditionGood, ConditionFair, ConditionMaintenanceRequired} {
		if strings.EqualFold(trimmed, string(c)) {
			return c
		}
	}
	return Condition(trimmed)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	}
	return 0, false
}

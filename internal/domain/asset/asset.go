package asset

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var serialNumberPattern = regexp.MustCompile(`^[A-Z]{2}-\d{6}$`)

// criticalRatio is the share of the reorder point at or below which stock is critical
var criticalRatio = decimal.RequireFromString("0.3")

var timeNow = time.Now

// Attrs are the caller-supplied fields for NewAsset. Zero values and nil
// pointers fall back to the defaults.
type Attrs struct {
	ID              string
	Name            string
	Manufacturer    string
	Category        string
	Quantity        *decimal.Decimal
	SerialNumber    string
	CriticalLevel   CriticalLevel
	ReorderPoint    *int
	LastMaintenance *time.Time
	ExpiryDate      *time.Time
}

// Asset is a tracked unit of medical equipment or supply.
// Setters never fail; problems are reported by Validate.
type Asset struct {
	id              string
	name            string
	manufacturer    string
	category        string
	quantity        decimal.NullDecimal
	serialNumber    string
	criticalLevel   CriticalLevel
	reorderPoint    int
	lastMaintenance *time.Time
	expiryDate      *time.Time
	createdAt       time.Time
	updatedAt       time.Time

	dirty  bool
	errors ValidationErrors

	// set when the last reorder point assignment had a fractional part
	reorderPointNotWhole bool
}

// NewAsset merges attrs over the defaults
func NewAsset(attrs Attrs) *Asset {
	a := &Asset{}
	a.init(attrs)
	return a
}

func (a *Asset) init(attrs Attrs) {
	now := timeNow()
	a.id = attrs.ID
	if a.id == "" {
		a.id = uuid.NewString()
	}
	a.name = attrs.Name
	a.manufacturer = attrs.Manufacturer
	a.category = attrs.Category
	a.quantity = decimal.NewNullDecimal(decimal.Zero)
	if attrs.Quantity != nil {
		a.quantity = decimal.NewNullDecimal(*attrs.Quantity)
	}
	a.serialNumber = attrs.SerialNumber
	a.criticalLevel = ParseCriticalLevel(attrs.CriticalLevel)
	a.reorderPoint = DefaultReorderPoint
	if attrs.ReorderPoint != nil {
		a.reorderPoint = *attrs.ReorderPoint
	}
	a.lastMaintenance = copyTime(attrs.LastMaintenance)
	a.expiryDate = copyTime(attrs.ExpiryDate)
	a.createdAt = now
	a.updatedAt = now
}

// ID returns the asset identifier
func (a *Asset) ID() string { return a.id }

// GetID implements shared.Entity
func (a *Asset) GetID() string { return a.id }

// GetCreatedAt implements shared.Entity
func (a *Asset) GetCreatedAt() time.Time { return a.createdAt }

// GetUpdatedAt implements shared.Entity
func (a *Asset) GetUpdatedAt() time.Time { return a.updatedAt }

// Name returns the asset name
func (a *Asset) Name() string { return a.name }

// Manufacturer returns the manufacturer
func (a *Asset) Manufacturer() string { return a.manufacturer }

// Category returns the category
func (a *Asset) Category() string { return a.category }

// Quantity returns the quantity; it is invalid when unset
func (a *Asset) Quantity() decimal.NullDecimal { return a.quantity }

// SerialNumber returns the serial number
func (a *Asset) SerialNumber() string { return a.serialNumber }

// CriticalLevel returns the tagged critical level
func (a *Asset) CriticalLevel() CriticalLevel { return a.criticalLevel }

// ReorderPoint returns the restocking threshold
func (a *Asset) ReorderPoint() int { return a.reorderPoint }

// LastMaintenance returns the last maintenance time, if any
func (a *Asset) LastMaintenance() *time.Time { return copyTime(a.lastMaintenance) }

// ExpiryDate returns the expiry date, if any
func (a *Asset) ExpiryDate() *time.Time { return copyTime(a.expiryDate) }

// UnitPrice is zero for base assets; they carry no purchase price
func (a *Asset) UnitPrice() decimal.Decimal { return decimal.Zero }

// SetName sets the name
func (a *Asset) SetName(name string) {
	a.name = name
	a.touch()
}

// SetManufacturer sets the manufacturer
func (a *Asset) SetManufacturer(manufacturer string) {
	a.manufacturer = manufacturer
	a.touch()
}

// SetCategory sets the category
func (a *Asset) SetCategory(category string) {
	a.category = category
	a.touch()
}

// SetQuantity sets the quantity
func (a *Asset) SetQuantity(q decimal.Decimal) {
	a.quantity = decimal.NewNullDecimal(q)
	a.touch()
}

// ClearQuantity unsets the quantity
func (a *Asset) ClearQuantity() {
	a.quantity = decimal.NullDecimal{}
	a.touch()
}

// SetSerialNumber sets the serial number
func (a *Asset) SetSerialNumber(serial string) {
	a.serialNumber = serial
	a.touch()
}

// SetCriticalLevel sets the critical level, normalizing unknown values to routine
func (a *Asset) SetCriticalLevel(level CriticalLevel) {
	a.criticalLevel = ParseCriticalLevel(level)
	a.touch()
}

// SetReorderPoint sets the reorder point
func (a *Asset) SetReorderPoint(rp int) {
	a.reorderPoint = rp
	a.reorderPointNotWhole = false
	a.touch()
}

// SetLastMaintenance sets or clears the last maintenance time
func (a *Asset) SetLastMaintenance(t *time.Time) {
	a.lastMaintenance = copyTime(t)
	a.touch()
}

// SetExpiryDate sets or clears the expiry date
func (a *Asset) SetExpiryDate(t *time.Time) {
	a.expiryDate = copyTime(t)
	a.touch()
}

func (a *Asset) touch() {
	a.dirty = true
	a.updatedAt = timeNow()
}

// Get returns the value of a serialized field. Absent optional values come
// back as nil; ok is false for fields the asset does not have.
func (a *Asset) Get(field string) (any, bool) {
	switch field {
	case FieldID:
		return a.id, true
	case FieldName:
		return a.name, true
	case FieldManufacturer:
		return a.manufacturer, true
	case FieldCategory:
		return a.category, true
	case FieldQuantity:
		if !a.quantity.Valid {
			return nil, true
		}
		return a.quantity.Decimal, true
	case FieldSerialNumber:
		return a.serialNumber, true
	case FieldCriticalLevel:
		return a.criticalLevel, true
	case FieldReorderPoint:
		return a.reorderPoint, true
	case FieldLastMaintenance:
		return timeValue(a.lastMaintenance), true
	case FieldExpiryDate:
		return timeValue(a.expiryDate), true
	case FieldCreatedAt:
		return a.createdAt, true
	case FieldUpdatedAt:
		return a.updatedAt, true
	}
	return nil, false
}

// Set assigns a serialized field from a loosely typed value. It never
// fails: the id and audit timestamps are immutable, unknown fields are
// ignored and values that cannot be coerced become absent.
func (a *Asset) Set(field string, value any) {
	a.set(field, value)
}

func (a *Asset) set(field string, value any) bool {
	switch field {
	case FieldName:
		a.SetName(toString(value))
	case FieldManufacturer:
		a.SetManufacturer(toString(value))
	case FieldCategory:
		a.SetCategory(toString(value))
	case FieldQuantity:
		a.quantity = toNullDecimal(value)
		a.touch()
	case FieldSerialNumber:
		a.SetSerialNumber(toString(value))
	case FieldCriticalLevel:
		a.criticalLevel = ParseCriticalLevel(value)
		a.touch()
	case FieldReorderPoint:
		if d := toNullDecimal(value); d.Valid && !d.Decimal.IsInteger() {
			a.reorderPoint = int(d.Decimal.IntPart())
			a.reorderPointNotWhole = true
		} else if rp, ok := toInt(value); ok {
			a.reorderPoint = rp
			a.reorderPointNotWhole = false
		}
		a.touch()
	case FieldLastMaintenance:
		a.lastMaintenance = toTime(value)
		a.touch()
	case FieldExpiryDate:
		a.expiryDate = toTime(value)
		a.touch()
	case FieldID, FieldCreatedAt, FieldUpdatedAt:
		return true
	default:
		return false
	}
	return true
}

// Apply routes an update key; for base assets it is Set
func (a *Asset) Apply(field string, value any) {
	a.Set(field, value)
}

// IsDirty reports whether a field changed since the last MarkClean
func (a *Asset) IsDirty() bool { return a.dirty }

// MarkClean resets the dirty flag
func (a *Asset) MarkClean() { a.dirty = false }

// Clone returns an independent copy
func (a *Asset) Clone() *Asset {
	c := a.copyBase()
	return &c
}

func (a *Asset) copyBase() Asset {
	c := *a
	c.lastMaintenance = copyTime(a.lastMaintenance)
	c.expiryDate = copyTime(a.expiryDate)
	c.errors = a.errors.clone()
	return c
}

// Validate clears and repopulates Errors. Every rule runs.
func (a *Asset) Validate() bool {
	a.errors = ValidationErrors{}
	a.validateBase()
	return a.errors.IsEmpty()
}

func (a *Asset) validateBase() {
	if strings.TrimSpace(a.name) == "" {
		a.errors.Add(FieldName, MsgNameRequired)
	} else if utf8.RuneCountInString(a.name) > MaxNameLength {
		a.errors.Add(FieldName, MsgNameTooLong)
	}

	if !a.quantity.Valid {
		a.errors.Add(FieldQuantity, MsgQuantityRequired)
	} else {
		q := a.quantity.Decimal
		if q.IsNegative() {
			a.errors.Add(FieldQuantity, MsgQuantityNegative)
		}
		if q.GreaterThan(decimal.NewFromInt(MaxQuantity)) {
			a.errors.Add(FieldQuantity, MsgQuantityTooLarge)
		}
		if !q.IsInteger() {
			a.errors.Add(FieldQuantity, MsgQuantityNotWhole)
		}
	}

	if a.serialNumber == "" {
		a.errors.Add(FieldSerialNumber, MsgSerialRequired)
	} else if !serialNumberPattern.MatchString(a.serialNumber) {
		a.errors.Add(FieldSerialNumber, MsgSerialFormat)
	}

	if a.reorderPoint < 0 {
		a.errors.Add(FieldReorderPoint, MsgReorderPointNegative)
	}
	if a.reorderPointNotWhole {
		a.errors.Add(FieldReorderPoint, MsgReorderPointNotWhole)
	}
}

// HasErrors reports whether the last Validate recorded anything
func (a *Asset) HasErrors() bool { return !a.errors.IsEmpty() }

// Errors returns the result of the last Validate
func (a *Asset) Errors() ValidationErrors { return a.errors.clone() }

// FirstError returns the first message of the first failing field
func (a *Asset) FirstError() string {
	_, msg := a.errors.First()
	return msg
}

func (a *Asset) criticalThreshold() decimal.Decimal {
	return decimal.NewFromInt(int64(a.reorderPoint)).Mul(criticalRatio)
}

// IsLowStock is true when quantity is below the reorder point but still
// above the critical band. An unset quantity is never low stock.
func (a *Asset) IsLowStock() bool {
	if !a.quantity.Valid {
		return false
	}
	q := a.quantity.Decimal
	return q.LessThan(decimal.NewFromInt(int64(a.reorderPoint))) &&
		q.GreaterThan(a.criticalThreshold())
}

// IsCritical is true when the asset is tagged critical or its quantity is
// at or below 30% of the reorder point.
func (a *Asset) IsCritical() bool {
	if a.criticalLevel == CriticalLevelCritical {
		return true
	}
	if !a.quantity.Valid {
		return false
	}
	return a.quantity.Decimal.LessThanOrEqual(a.criticalThreshold())
}

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

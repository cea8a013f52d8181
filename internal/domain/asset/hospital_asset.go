package asset

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/medtrack/backend/internal/domain/hospital"
	"github.com/shopspring/decimal"
)

// calibrationInterval is the number of days after which equipment needs calibration
const calibrationInterval = 30

// HospitalAttrs are the caller-supplied fields for NewHospitalAsset
type HospitalAttrs struct {
	Attrs
	CustomFields    map[string]any
	Location        string
	Condition       Condition
	PurchasePrice   *decimal.Decimal
	WarrantyExpiry  *time.Time
	LastCalibration *time.Time
}

// HospitalAsset overlays a hospital's custom fields on the base asset.
// The typed hospital fields are mirrored in the custom-fields map under the
// same key, in both directions.
type HospitalAsset struct {
	Asset

	config          *hospital.Config
	customFields    map[string]any
	location        string
	condition       Condition
	purchasePrice   decimal.NullDecimal
	warrantyExpiry  *time.Time
	lastCalibration *time.Time
}

// NewHospitalAsset builds an asset for the hospital described by cfg.
// Typed attributes take precedence over same-named custom fields.
func NewHospitalAsset(cfg *hospital.Config, attrs HospitalAttrs) *HospitalAsset {
	h := &HospitalAsset{
		config:       cfg,
		customFields: make(map[string]any),
		condition:    ConditionGood,
	}
	h.Asset.init(attrs.Attrs)
	h.applyHospitalAttrs(attrs)
	return h
}

func (h *HospitalAsset) applyHospitalAttrs(attrs HospitalAttrs) {
	for k, v := range attrs.CustomFields {
		h.setCustom(k, v)
	}
	if attrs.Location != "" {
		h.setTyped(FieldLocation, attrs.Location)
	}
	if attrs.Condition != "" {
		h.setTyped(FieldCondition, string(attrs.Condition))
	} else if _, ok := h.customFields[FieldCondition]; !ok {
		h.customFields[FieldCondition] = string(h.condition)
	}
	if attrs.PurchasePrice != nil {
		h.setTyped(FieldPurchasePrice, *attrs.PurchasePrice)
	}
	if attrs.WarrantyExpiry != nil {
		h.setTyped(FieldWarrantyExpiry, *attrs.WarrantyExpiry)
	}
	if attrs.LastCalibration != nil {
		h.setTyped(FieldLastCalibration, *attrs.LastCalibration)
	}
}

// Config returns the hospital schema the asset was built for
func (h *HospitalAsset) Config() *hospital.Config { return h.config }

// Location returns where the asset is kept
func (h *HospitalAsset) Location() string { return h.location }

// Condition returns the physical condition
func (h *HospitalAsset) Condition() Condition { return h.condition }

// PurchasePrice returns the unit purchase price; it is invalid when unknown
func (h *HospitalAsset) PurchasePrice() decimal.NullDecimal { return h.purchasePrice }

// WarrantyExpiry returns the warranty end, if any
func (h *HospitalAsset) WarrantyExpiry() *time.Time { return copyTime(h.warrantyExpiry) }

// LastCalibration returns the last calibration time, if any
func (h *HospitalAsset) LastCalibration() *time.Time { return copyTime(h.lastCalibration) }

// UnitPrice returns the purchase price, or zero when unknown
func (h *HospitalAsset) UnitPrice() decimal.Decimal {
	if !h.purchasePrice.Valid {
		return decimal.Zero
	}
	return h.purchasePrice.Decimal
}

// CustomFields returns a copy of the custom-fields map
func (h *HospitalAsset) CustomFields() map[string]any {
	return deepCopyValue(h.customFields).(map[string]any)
}

// CustomField returns one custom field
func (h *HospitalAsset) CustomField(key string) (any, bool) {
	v, ok := h.customFields[key]
	return deepCopyValue(v), ok
}

// SetLocation sets the location
func (h *HospitalAsset) SetLocation(location string) {
	h.setTyped(FieldLocation, location)
	h.touch()
}

// SetCondition sets the condition
func (h *HospitalAsset) SetCondition(c Condition) {
	h.setTyped(FieldCondition, string(c))
	h.touch()
}

// SetPurchasePrice sets the purchase price
func (h *HospitalAsset) SetPurchasePrice(price decimal.Decimal) {
	h.setTyped(FieldPurchasePrice, price)
	h.touch()
}

// SetWarrantyExpiry sets or clears the warranty end
func (h *HospitalAsset) SetWarrantyExpiry(t *time.Time) {
	h.setTyped(FieldWarrantyExpiry, t)
	h.touch()
}

// SetLastCalibration sets or clears the last calibration time
func (h *HospitalAsset) SetLastCalibration(t *time.Time) {
	h.setTyped(FieldLastCalibration, t)
	h.touch()
}

// SetCustomField sets a custom field, updating the typed field of the same name
func (h *HospitalAsset) SetCustomField(key string, value any) {
	h.setCustom(key, value)
	h.touch()
}

func (h *HospitalAsset) setCustom(key string, value any) {
	if IsHospitalField(key) {
		h.setTyped(key, value)
		return
	}
	if value == nil {
		delete(h.customFields, key)
		return
	}
	h.customFields[key] = deepCopyValue(value)
}

// setTyped assigns a typed hospital field and mirrors its plain form into
// the custom-fields map.
func (h *HospitalAsset) setTyped(key string, value any) {
	switch key {
	case FieldLocation:
		h.location = toString(value)
		h.customFields[key] = h.location
	case FieldCondition:
		h.condition = ParseCondition(toString(value))
		h.customFields[key] = string(h.condition)
	case FieldPurchasePrice:
		h.purchasePrice = toNullDecimal(value)
		h.mirrorDecimal(key, h.purchasePrice)
	case FieldWarrantyExpiry:
		h.warrantyExpiry = toTime(value)
		h.mirrorTime(key, h.warrantyExpiry)
	case FieldLastCalibration:
		h.lastCalibration = toTime(value)
		h.mirrorTime(key, h.lastCalibration)
	}
}

func (h *HospitalAsset) mirrorDecimal(key string, d decimal.NullDecimal) {
	if !d.Valid {
		delete(h.customFields, key)
		return
	}
	h.customFields[key] = d.Decimal.InexactFloat64()
}

func (h *HospitalAsset) mirrorTime(key string, t *time.Time) {
	if t == nil {
		delete(h.customFields, key)
		return
	}
	h.customFields[key] = formatTimestamp(*t)
}

// Get returns a field value. Hospital fields, the whole custom-fields map
// and individual custom fields are reachable besides the base fields.
func (h *HospitalAsset) Get(field string) (any, bool) {
	if key, ok := strings.CutPrefix(field, CustomFieldPrefix); ok {
		return h.CustomField(key)
	}
	switch field {
	case FieldLocation:
		return h.location, true
	case FieldCondition:
		return h.condition, true
	case FieldPurchasePrice:
		if !h.purchasePrice.Valid {
			return nil, true
		}
		return h.purchasePrice.Decimal, true
	case FieldWarrantyExpiry:
		return timeValue(h.warrantyExpiry), true
	case FieldLastCalibration:
		return timeValue(h.lastCalibration), true
	case FieldCustomFields:
		return h.CustomFields(), true
	}
	if v, ok := h.Asset.Get(field); ok {
		return v, true
	}
	return h.CustomField(field)
}

// Set assigns a field from a loosely typed value. Keys that are neither base
// nor hospital fields land in the custom-fields map.
func (h *HospitalAsset) Set(field string, value any) {
	if key, ok := strings.CutPrefix(field, CustomFieldPrefix); ok {
		h.SetCustomField(key, value)
		return
	}
	if IsHospitalField(field) {
		h.setTyped(field, value)
		h.touch()
		return
	}
	if field == FieldCustomFields {
		if m, ok := value.(map[string]any); ok {
			for k, v := range m {
				h.setCustom(k, v)
			}
		}
		h.touch()
		return
	}
	if h.Asset.set(field, value) {
		return
	}
	h.SetCustomField(field, value)
}

// Apply routes an update key: "customFields."-prefixed keys go to the
// custom-fields map, hospital keys to their typed fields and everything
// else through the base setter.
func (h *HospitalAsset) Apply(field string, value any) {
	h.Set(field, value)
}

// Clone returns an independent copy sharing the read-only hospital config
func (h *HospitalAsset) Clone() *HospitalAsset {
	c := *h
	c.Asset = h.Asset.copyBase()
	c.customFields = h.CustomFields()
	c.warrantyExpiry = copyTime(h.warrantyExpiry)
	c.lastCalibration = copyTime(h.lastCalibration)
	return &c
}

// Validate runs the base rules and then requires every field the hospital
// marks as required.
func (h *HospitalAsset) Validate() bool {
	h.Asset.Validate()
	if h.config != nil {
		for _, f := range h.config.RequiredFields() {
			if h.errors.Has(f.Key) {
				continue
			}
			if isEmptyValue(h.requiredValue(f.Key)) {
				h.errors.Add(f.Key, f.Label+" is required")
			}
		}
	}
	return h.errors.IsEmpty()
}

func (h *HospitalAsset) requiredValue(key string) any {
	key = strings.TrimPrefix(key, CustomFieldPrefix)
	if IsNativeField(key) {
		v, _ := h.Asset.Get(key)
		return v
	}
	v, _ := h.Get(key)
	return v
}

// NeedsCalibration reports whether calibration is overdue as of now
func (h *HospitalAsset) NeedsCalibration() bool {
	return h.NeedsCalibrationAt(timeNow())
}

// NeedsCalibrationAt is true if the asset was never calibrated or more than
// 30 whole days have passed since the last calibration.
func (h *HospitalAsset) NeedsCalibrationAt(now time.Time) bool {
	if h.lastCalibration == nil {
		return true
	}
	days := int(now.Sub(*h.lastCalibration).Hours() / 24)
	return days > calibrationInterval
}

// IsUnderWarranty reports whether the warranty is still running now
func (h *HospitalAsset) IsUnderWarranty() bool {
	return h.IsUnderWarrantyAt(timeNow())
}

// IsUnderWarrantyAt is true iff a warranty end is set and after now
func (h *HospitalAsset) IsUnderWarrantyAt(now time.Time) bool {
	return h.warrantyExpiry != nil && h.warrantyExpiry.After(now)
}

// HospitalRecord extends Record with the hospital fields
type HospitalRecord struct {
	Record
	CustomFields    map[string]any `json:"customFields"`
	Location        string         `json:"location,omitempty"`
	Condition       Condition      `json:"condition,omitempty"`
	PurchasePrice   *float64       `json:"purchasePrice,omitempty"`
	WarrantyExpiry  *string        `json:"warrantyExpiry,omitempty"`
	LastCalibration *string        `json:"lastCalibration,omitempty"`
}

// Serialize returns the plain record including custom fields
func (h *HospitalAsset) Serialize() HospitalRecord {
	r := HospitalRecord{
		Record:          h.Asset.Serialize(),
		CustomFields:    h.CustomFields(),
		Location:        h.location,
		Condition:       h.condition,
		WarrantyExpiry:  timestampPtr(h.warrantyExpiry),
		LastCalibration: timestampPtr(h.lastCalibration),
	}
	if h.purchasePrice.Valid {
		f := h.purchasePrice.Decimal.InexactFloat64()
		r.PurchasePrice = &f
	}
	return r
}

// MarshalJSON encodes the serialized record
func (h *HospitalAsset) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Serialize())
}

// FromHospitalRecord reconstructs a HospitalAsset for cfg
func FromHospitalRecord(cfg *hospital.Config, r HospitalRecord) *HospitalAsset {
	h := &HospitalAsset{
		config:       cfg,
		customFields: make(map[string]any),
		condition:    ConditionGood,
	}
	h.Asset.fromRecord(r.Record)
	attrs := HospitalAttrs{
		CustomFields:    r.CustomFields,
		Location:        r.Location,
		Condition:       r.Condition,
		WarrantyExpiry:  toTime(r.WarrantyExpiry),
		LastCalibration: toTime(r.LastCalibration),
	}
	if r.PurchasePrice != nil {
		p := decimal.NewFromFloat(*r.PurchasePrice)
		attrs.PurchasePrice = &p
	}
	h.applyHospitalAttrs(attrs)
	return h
}

// HospitalDecoder returns a Decoder that binds records to cfg
func HospitalDecoder(cfg *hospital.Config) Decoder[*HospitalAsset] {
	return func(data []byte) (*HospitalAsset, error) {
		var r HospitalRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode hospital asset record: %w", err)
		}
		return FromHospitalRecord(cfg, r), nil
	}
}

package asset

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Record is the plain serialized form of an Asset. Dates are RFC 3339 strings.
type Record struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Manufacturer    string        `json:"manufacturer"`
	Category        string        `json:"category"`
	Quantity        *float64      `json:"quantity"`
	SerialNumber    string        `json:"serialNumber"`
	CriticalLevel   CriticalLevel `json:"criticalLevel"`
	ReorderPoint    *int          `json:"reorderPoint,omitempty"`
	LastMaintenance *string       `json:"lastMaintenance,omitempty"`
	ExpiryDate      *string       `json:"expiryDate,omitempty"`
	CreatedAt       string        `json:"createdAt,omitempty"`
	UpdatedAt       string        `json:"updatedAt,omitempty"`
}

// Serialize returns the plain record
func (a *Asset) Serialize() Record {
	rp := a.reorderPoint
	r := Record{
		ID:              a.id,
		Name:            a.name,
		Manufacturer:    a.manufacturer,
		Category:        a.category,
		SerialNumber:    a.serialNumber,
		CriticalLevel:   a.criticalLevel,
		ReorderPoint:    &rp,
		LastMaintenance: timestampPtr(a.lastMaintenance),
		ExpiryDate:      timestampPtr(a.expiryDate),
		CreatedAt:       formatTimestamp(a.createdAt),
		UpdatedAt:       formatTimestamp(a.updatedAt),
	}
	if a.quantity.Valid {
		f := a.quantity.Decimal.InexactFloat64()
		r.Quantity = &f
	}
	return r
}

// MarshalJSON encodes the serialized record
func (a *Asset) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Serialize())
}

// FromRecord reconstructs an Asset from its serialized record. A missing
// quantity stays unset so the round trip is exact.
func FromRecord(r Record) *Asset {
	a := &Asset{}
	a.fromRecord(r)
	return a
}

func (a *Asset) fromRecord(r Record) {
	a.init(Attrs{
		ID:              r.ID,
		Name:            r.Name,
		Manufacturer:    r.Manufacturer,
		Category:        r.Category,
		SerialNumber:    r.SerialNumber,
		CriticalLevel:   r.CriticalLevel,
		ReorderPoint:    r.ReorderPoint,
		LastMaintenance: toTime(r.LastMaintenance),
		ExpiryDate:      toTime(r.ExpiryDate),
	})
	a.quantity = decimal.NullDecimal{}
	if r.Quantity != nil {
		a.quantity = toNullDecimal(*r.Quantity)
	}
	if t := toTime(r.CreatedAt); t != nil {
		a.createdAt = *t
	}
	if t := toTime(r.UpdatedAt); t != nil {
		a.updatedAt = *t
	} else {
		a.updatedAt = a.createdAt
	}
}

// DecodeAsset decodes one serialized base asset
func DecodeAsset(data []byte) (*Asset, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode asset record: %w", err)
	}
	return FromRecord(r), nil
}

// Decoder turns one serialized record into an asset
type Decoder[T any] func(data []byte) (T, error)

// DecodeSnapshot decodes a JSON array of serialized records
func DecodeSnapshot[T any](data []byte, decode Decoder[T]) ([]T, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode asset snapshot: %w", err)
	}
	out := make([]T, 0, len(raw))
	for i, item := range raw {
		v, err := decode(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

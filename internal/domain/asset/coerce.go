package asset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Coercions used by the generic setters. None of them fail: values that
// cannot be interpreted come back as "absent".

func toNullDecimal(v any) decimal.NullDecimal {
	switch x := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.NullDecimal:
		return x
	case decimal.Decimal:
		return decimal.NewNullDecimal(x)
	case *decimal.Decimal:
		if x == nil {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(*x)
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.NullDecimal{}
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(x)))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(x))
	case int32:
		return decimal.NewNullDecimal(decimal.NewFromInt32(x))
	case float64:
		if f, ok := toFloat(x); ok {
			return decimal.NewNullDecimal(decimal.NewFromFloat(f))
		}
		return decimal.NullDecimal{}
	case float32:
		return decimal.NewNullDecimal(decimal.NewFromFloat32(x))
	case *float64:
		if x == nil {
			return decimal.NullDecimal{}
		}
		return toNullDecimal(*x)
	}
	if f, ok := toFloat(v); ok {
		return decimal.NewNullDecimal(decimal.NewFromFloat(f))
	}
	return decimal.NullDecimal{}
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case *int:
		if x == nil {
			return 0, false
		}
		return *x, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	d := toNullDecimal(v)
	if !d.Valid {
		return 0, false
	}
	return int(d.Decimal.IntPart()), true
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func toTime(v any) *time.Time {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return &x
	case *time.Time:
		if x == nil || x.IsZero() {
			return nil
		}
		t := *x
		return &t
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
		return nil
	case *string:
		if x == nil {
			return nil
		}
		return toTime(*x)
	}
	return nil
}

func toBool(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return strings.TrimSpace(x) != ""
		}
		return b
	}
	if d := toNullDecimal(v); d.Valid {
		return !d.Decimal.IsZero()
	}
	return true
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case decimal.Decimal:
		return x.String()
	case decimal.NullDecimal:
		if !x.Valid {
			return ""
		}
		return x.Decimal.String()
	case time.Time:
		return formatTimestamp(x)
	case *time.Time:
		if x == nil {
			return ""
		}
		return formatTimestamp(*x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// isEmptyValue reports whether a required field counts as missing
func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case *string:
		return x == nil || strings.TrimSpace(*x) == ""
	case decimal.NullDecimal:
		return !x.Valid
	case *time.Time:
		return x == nil
	case time.Time:
		return x.IsZero()
	case CriticalLevel:
		return x == ""
	case Condition:
		return x == ""
	}
	return false
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func timestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func deepCopyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = deepCopyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = deepCopyValue(val)
		}
		return out
	}
	return v
}

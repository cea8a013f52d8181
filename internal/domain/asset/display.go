package asset

import (
	"strconv"
	"strings"
	"time"

	"github.com/medtrack/backend/internal/domain/hospital"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NotAvailable is shown for absent dates and quantities
const NotAvailable = "N/A"

const shortDateLayout = "1/2/2006"

// DisplayValue formats one field for presentation
func (a *Asset) DisplayValue(field string) string {
	switch field {
	case FieldQuantity:
		if !a.quantity.Valid {
			return NotAvailable
		}
		return a.quantity.Decimal.String() + " units"
	case FieldLastMaintenance:
		return shortDate(a.lastMaintenance)
	case FieldExpiryDate:
		return shortDate(a.expiryDate)
	case FieldCreatedAt:
		return shortDate(&a.createdAt)
	case FieldUpdatedAt:
		return shortDate(&a.updatedAt)
	case FieldCriticalLevel:
		return cases.Title(language.English).String(string(a.criticalLevel))
	case FieldReorderPoint:
		return strconv.Itoa(a.reorderPoint)
	}
	v, _ := a.Get(field)
	return toString(v)
}

func shortDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}
	return t.Format(shortDateLayout)
}

const longDateLayout = "Jan 2, 2006"

// DisplayValue formats a field using the hospital's schema. Custom and
// non-native fields are looked up in the custom-fields map first.
func (h *HospitalAsset) DisplayValue(field string) string {
	key, explicitCustom := strings.CutPrefix(field, CustomFieldPrefix)
	fc, configured := h.config.Field(key)

	if IsNativeField(key) && !explicitCustom {
		if !configured || !fc.Type.IsValid() ||
			fc.Type == hospital.FieldTypeText || fc.Type == hospital.FieldTypeNumber {
			return h.Asset.DisplayValue(key)
		}
		v, _ := h.Asset.Get(key)
		return h.formatValue(fc.Type, v)
	}

	value, found := h.customFields[key]
	if !found && !explicitCustom {
		value, _ = h.Get(key)
	}
	if configured {
		return h.formatValue(fc.Type, value)
	}
	switch key {
	case FieldPurchasePrice:
		return h.formatValue(hospital.FieldTypeCurrency, value)
	case FieldWarrantyExpiry, FieldLastCalibration:
		return h.formatValue(hospital.FieldTypeDate, value)
	}
	return toString(value)
}

func (h *HospitalAsset) formatValue(t hospital.FieldType, value any) string {
	switch t {
	case hospital.FieldTypeCurrency:
		d := toNullDecimal(value)
		if !d.Valid {
			return ""
		}
		return h.formatCurrency(d.Decimal)
	case hospital.FieldTypeDate:
		tm := toTime(value)
		if tm == nil {
			return NotAvailable
		}
		return tm.Format(longDateLayout)
	case hospital.FieldTypePercentage:
		d := toNullDecimal(value)
		if !d.Valid {
			return ""
		}
		return d.Decimal.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
	case hospital.FieldTypeBoolean:
		if toBool(value) {
			return "Yes"
		}
		return "No"
	case hospital.FieldTypeNumber:
		d := toNullDecimal(value)
		if !d.Valid {
			return toString(value)
		}
		return h.printer().Sprint(number.Decimal(d.Decimal.InexactFloat64()))
	}
	return toString(value)
}

func (h *HospitalAsset) formatCurrency(amount decimal.Decimal) string {
	p := h.printer()
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	symbol := p.Sprint(currency.Symbol(h.currencyUnit()))
	return sign + symbol + p.Sprint(number.Decimal(amount.InexactFloat64(), number.Scale(2)))
}

func (h *HospitalAsset) printer() *message.Printer {
	tag := language.AmericanEnglish
	if h.config != nil && h.config.Locale != "" {
		if parsed, err := language.Parse(h.config.Locale); err == nil {
			tag = parsed
		}
	}
	return message.NewPrinter(tag)
}

func (h *HospitalAsset) currencyUnit() currency.Unit {
	if h.config != nil && h.config.Currency != "" {
		if unit, err := currency.ParseISO(h.config.Currency); err == nil {
			return unit
		}
	}
	return currency.USD
}

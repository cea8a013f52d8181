package hospital

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/medtrack/backend/internal/domain/shared"
)

// FieldType decides how a field value is formatted for display
type FieldType string

// Field types understood by the formatter
const (
	FieldTypeText       FieldType = "text"
	FieldTypeNumber     FieldType = "number"
	FieldTypeDate       FieldType = "date"
	FieldTypeCurrency   FieldType = "currency"
	FieldTypePercentage FieldType = "percentage"
	FieldTypeBoolean    FieldType = "boolean"
)

// IsValid returns true if the field type is one the formatter knows
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate,
		FieldTypeCurrency, FieldTypePercentage, FieldTypeBoolean:
		return true
	}
	return false
}

// Default locale settings applied when a hospital config leaves them blank
const (
	DefaultCurrency = "USD"
	DefaultLocale   = "en-US"
)

// FieldConfig describes one column of a hospital's asset schema
type FieldConfig struct {
	Key      string    `mapstructure:"key" json:"key" validate:"required"`
	Label    string    `mapstructure:"label" json:"label" validate:"required"`
	Type     FieldType `mapstructure:"type" json:"type" validate:"required,oneof=text number date currency percentage boolean"`
	Required bool      `mapstructure:"required" json:"required,omitempty"`
	Visible  bool      `mapstructure:"visible" json:"visible,omitempty"`
	Sortable bool      `mapstructure:"sortable" json:"sortable,omitempty"`
	Editable bool      `mapstructure:"editable" json:"editable,omitempty"`
	Format   string    `mapstructure:"format" json:"format,omitempty"`
}

// CatalogItem is an equipment model a hospital stocks, used for sample data
type CatalogItem struct {
	Name         string  `mapstructure:"name" json:"name" validate:"required"`
	Manufacturer string  `mapstructure:"manufacturer" json:"manufacturer" validate:"required"`
	Category     string  `mapstructure:"category" json:"category" validate:"required"`
	MinPrice     float64 `mapstructure:"min_price" json:"minPrice" validate:"gte=0"`
	MaxPrice     float64 `mapstructure:"max_price" json:"maxPrice" validate:"gtefield=MinPrice"`
}

// Config is a hospital's asset schema. It is read-only once loaded.
type Config struct {
	ID          string        `mapstructure:"id" json:"id" validate:"required"`
	Name        string        `mapstructure:"name" json:"name" validate:"required"`
	Currency    string        `mapstructure:"currency" json:"currency" validate:"omitempty,iso4217"`
	Locale      string        `mapstructure:"locale" json:"locale" validate:"omitempty,bcp47_language_tag"`
	Departments []string      `mapstructure:"departments" json:"departments,omitempty"`
	Locations   []string      `mapstructure:"locations" json:"locations,omitempty"`
	Fields      []FieldConfig `mapstructure:"fields" json:"fields" validate:"dive"`
	Catalog     []CatalogItem `mapstructure:"catalog" json:"catalog,omitempty" validate:"dive"`
}

// ApplyDefaults fills in currency and locale when they are blank
func (c *Config) ApplyDefaults() {
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
}

// Field returns the field descriptor for key
func (c *Config) Field(key string) (FieldConfig, bool) {
	if c == nil {
		return FieldConfig{}, false
	}
	for _, f := range c.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldConfig{}, false
}

// RequiredFields returns the required field descriptors in schema order
func (c *Config) RequiredFields() []FieldConfig {
	return c.filterFields(func(f FieldConfig) bool { return f.Required })
}

// VisibleFields returns the visible field descriptors in schema order
func (c *Config) VisibleFields() []FieldConfig {
	return c.filterFields(func(f FieldConfig) bool { return f.Visible })
}

// SortableFields returns the sortable field descriptors in schema order
func (c *Config) SortableFields() []FieldConfig {
	return c.filterFields(func(f FieldConfig) bool { return f.Sortable })
}

func (c *Config) filterFields(keep func(FieldConfig) bool) []FieldConfig {
	if c == nil {
		return nil
	}
	out := make([]FieldConfig, 0, len(c.Fields))
	for _, f := range c.Fields {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// Categories returns the distinct catalog categories in catalog order
func (c *Config) Categories() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(c.Catalog))
	out := make([]string, 0, len(c.Catalog))
	for _, item := range c.Catalog {
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		out = append(out, item.Category)
	}
	return out
}

var schemaValidator = newSchemaValidator()

func newSchemaValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the schema: required identity, known field types,
// currency and locale codes, catalog price ranges and unique field keys.
func (c *Config) Validate() error {
	if c == nil {
		return shared.NewDomainError("INVALID_HOSPITAL_CONFIG", "Hospital config is required")
	}
	var problems []string
	if err := schemaValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate hospital config: %w", err)
		}
		for _, e := range verrs {
			problems = append(problems, e.Namespace()+": "+validationMessage(e))
		}
	}
	seen := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		if f.Key == "" {
			continue
		}
		if _, dup := seen[f.Key]; dup {
			problems = append(problems, "fields: duplicate key "+f.Key)
		}
		seen[f.Key] = struct{}{}
	}
	if len(problems) > 0 {
		return shared.NewDomainError("INVALID_HOSPITAL_CONFIG",
			fmt.Sprintf("Hospital config %q is invalid: %s", c.ID, strings.Join(problems, "; ")))
	}
	return nil
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "iso4217":
		return "Must be an ISO 4217 currency code"
	case "bcp47_language_tag":
		return "Must be a BCP 47 language tag"
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "gtefield":
		return "Must be greater than or equal to " + e.Param()
	default:
		return "Invalid value"
	}
}

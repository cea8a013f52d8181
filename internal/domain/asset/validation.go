package asset

import (
	"strings"

	"github.com/medtrack/backend/internal/domain/shared"
)

// Validation messages
const (
	MsgNameRequired         = "Name is required"
	MsgNameTooLong          = "Name must be 100 characters or less"
	MsgQuantityRequired     = "Quantity is required"
	MsgQuantityNegative     = "Quantity cannot be negative"
	MsgQuantityTooLarge     = "Quantity cannot exceed 999,999"
	MsgQuantityNotWhole     = "Quantity must be a whole number"
	MsgSerialRequired       = "Serial number is required"
	MsgSerialFormat         = "Serial number must match format XX-000000"
	MsgReorderPointNegative = "Reorder point cannot be negative"
	MsgReorderPointNotWhole = "Reorder point must be a whole number"
)

// ValidationErrors maps field names to messages, keeping the order in which
// fields first failed.
type ValidationErrors struct {
	order    []string
	messages map[string][]string
}

// Add records a message against field
func (v *ValidationErrors) Add(field, message string) {
	if v.messages == nil {
		v.messages = make(map[string][]string)
	}
	if _, ok := v.messages[field]; !ok {
		v.order = append(v.order, field)
	}
	v.messages[field] = append(v.messages[field], message)
}

// Has reports whether field has at least one message
func (v ValidationErrors) Has(field string) bool {
	return len(v.messages[field]) > 0
}

// Fields returns the failing fields in order
func (v ValidationErrors) Fields() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// Messages returns the messages recorded for field
func (v ValidationErrors) Messages(field string) []string {
	msgs := v.messages[field]
	out := make([]string, len(msgs))
	copy(out, msgs)
	return out
}

// First returns the first field's first message
func (v ValidationErrors) First() (field, message string) {
	if len(v.order) == 0 {
		return "", ""
	}
	field = v.order[0]
	return field, v.messages[field][0]
}

// Len returns the number of failing fields
func (v ValidationErrors) Len() int {
	return len(v.order)
}

// IsEmpty reports whether nothing failed
func (v ValidationErrors) IsEmpty() bool {
	return len(v.order) == 0
}

// Map returns a copy as a plain field to messages map
func (v ValidationErrors) Map() map[string][]string {
	out := make(map[string][]string, len(v.messages))
	for k := range v.messages {
		out[k] = v.Messages(k)
	}
	return out
}

// String joins every message as "field: message; field: message"
func (v ValidationErrors) String() string {
	parts := make([]string, 0, len(v.order))
	for _, field := range v.order {
		for _, msg := range v.messages[field] {
			parts = append(parts, field+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

func (v ValidationErrors) clone() ValidationErrors {
	if v.IsEmpty() {
		return ValidationErrors{}
	}
	return ValidationErrors{order: v.Fields(), messages: v.Map()}
}

// ValidationError is returned when an invalid asset reaches the repository
type ValidationError struct {
	Errors ValidationErrors
}

// NewValidationError wraps errs
func NewValidationError(errs ValidationErrors) *ValidationError {
	return &ValidationError{Errors: errs.clone()}
}

// Error returns the first field's first message
func (e *ValidationError) Error() string {
	if _, msg := e.Errors.First(); msg != "" {
		return msg
	}
	return shared.ErrValidation.Message
}

// Detail returns every message composed into one string
func (e *ValidationError) Detail() string {
	return e.Errors.String()
}

// Unwrap lets errors.Is match shared.ErrValidation
func (e *ValidationError) Unwrap() error {
	return shared.ErrValidation
}

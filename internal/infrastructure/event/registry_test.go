package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()

	registry.Register(handler, "inventory.asset_created", "inventory.asset_updated")
	registry.Register(handler, "inventory.asset_created")

	assert.Equal(t, []any{handler}, toAny(registry.Handlers("inventory.asset_created")))
	assert.Len(t, registry.Handlers("inventory.asset_updated"), 1)
	assert.Empty(t, registry.Handlers("inventory.asset_deleted"))
	assert.Equal(t, 1, registry.Len())
}

func TestHandlerRegistry_WildcardComesLast(t *testing.T) {
	registry := NewHandlerRegistry()
	typed := newTestHandler()
	wildcard := newTestHandler()

	registry.Register(wildcard)
	registry.Register(typed, "inventory.asset_created")

	handlers := registry.Handlers("inventory.asset_created")
	assert.Len(t, handlers, 2)
	assert.Same(t, typed, handlers[0])
	assert.Same(t, wildcard, handlers[1])
	assert.Equal(t, 2, registry.Len())
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	keep := newTestHandler()
	drop := newTestHandler()

	registry.Register(keep, "inventory.asset_created")
	registry.Register(drop, "inventory.asset_created", "inventory.asset_deleted")
	registry.Register(drop)

	before := registry.Handlers("inventory.asset_created")
	registry.Unregister(drop)

	assert.Len(t, before, 3)
	assert.Equal(t, []any{keep}, toAny(registry.Handlers("inventory.asset_created")))
	assert.Empty(t, registry.Handlers("inventory.asset_deleted"))
	assert.Equal(t, 1, registry.Len())
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

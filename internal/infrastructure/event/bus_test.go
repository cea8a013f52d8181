package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/medtrack/backend/internal/domain/asset"
	"github.com/medtrack/backend/internal/domain/shared"
)

// testHandler records the events it receives
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func deletedEvent() shared.DomainEvent {
	return asset.NewAssetDeletedEvent("general", "asset-1", true)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler()
	bus.Subscribe(handler, asset.EventTypeAssetDeleted)

	event := deletedEvent()
	require.NoError(t, bus.Publish(context.Background(), event))

	handled := handler.getHandled()
	require.Len(t, handled, 1)
	assert.Equal(t, event, handled[0])
}

func TestInMemoryEventBus_SubscribeUsesHandlerTypes(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := newTestHandler(asset.EventTypeAssetDeleted)
	bus.Subscribe(handler)

	loaded := asset.NewAssetsLoadedEvent("general", 3, 0)
	require.NoError(t, bus.Publish(context.Background(), loaded, deletedEvent()))
	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	wildcard := newTestHandler()
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(),
		asset.NewAssetsLoadedEvent("general", 3, 0), deletedEvent()))
	assert.Len(t, wildcard.getHandled(), 2)
}

func TestInMemoryEventBus_HandlerFailures(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler()
	failing.err = errors.New("render failed")
	panicking := &shared.EventHandlerFunc{Fn: func(context.Context, shared.DomainEvent) error {
		panic("boom")
	}}
	healthy := newTestHandler()

	bus.Subscribe(failing, asset.EventTypeAssetDeleted)
	bus.Subscribe(panicking, asset.EventTypeAssetDeleted)
	bus.Subscribe(healthy, asset.EventTypeAssetDeleted)

	require.NoError(t, bus.Publish(context.Background(), deletedEvent()))
	assert.Len(t, healthy.getHandled(), 1)

	entries := logs.FilterMessage("Event handler failed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "render failed", entries[0].ContextMap()["error"])
	assert.Contains(t, entries[1].ContextMap()["error"], "handler panicked: boom")
}

func TestInMemoryEventBus_CancelledContext(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler()
	bus.Subscribe(handler)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.Publish(ctx, deletedEvent()), context.Canceled)
	assert.Empty(t, handler.getHandled())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler()
	bus.Subscribe(handler, asset.EventTypeAssetDeleted)
	assert.Equal(t, 1, bus.HandlerCount())

	_ = bus.Publish(context.Background(), deletedEvent())
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), deletedEvent())

	assert.Len(t, handler.getHandled(), 1)
	assert.Equal(t, 0, bus.HandlerCount())
}

func TestLoggingHandler(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewLoggingHandler(zap.New(core)))

	require.NoError(t, bus.Publish(context.Background(), deletedEvent()))

	entries := logs.FilterMessage("Domain event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, asset.EventTypeAssetDeleted, fields["event_type"])
	assert.Equal(t, "asset-1", fields["aggregate_id"])
	assert.Equal(t, "general", fields["hospital_id"])
}

// Package event provides the in-process event bus the inventory store
// publishes its state changes on.
package event

import (
	"context"
	"fmt"

	"github.com/medtrack/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus delivers events synchronously, in subscription order.
// A failing or panicking handler is logged and does not stop delivery.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish dispatches each event to its handlers. It only returns an error
// when ctx is already done.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, handler := range b.registry.Handlers(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error("Event handler failed",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.String("aggregate_id", event.AggregateID()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, or for handler.EventTypes()
// when none are given. A handler with no types receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// HandlerCount returns the number of distinct subscribed handlers
func (b *InMemoryEventBus) HandlerCount() int {
	return b.registry.Len()
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

// NewLoggingHandler returns a handler that logs every event at debug level
func NewLoggingHandler(logger *zap.Logger) shared.EventHandler {
	return &shared.EventHandlerFunc{
		Fn: func(_ context.Context, event shared.DomainEvent) error {
			logger.Debug("Domain event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("aggregate_type", event.AggregateType()),
				zap.String("aggregate_id", event.AggregateID()),
				zap.String("hospital_id", event.TenantID()),
				zap.Time("occurred_at", event.OccurredAt()),
			)
			return nil
		},
	}
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

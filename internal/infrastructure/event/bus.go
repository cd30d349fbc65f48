package event

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/restosuite/backend/internal/domain/shared"
)

// InMemoryEventBus implements shared.EventBus with synchronous in-process
// dispatch. Handler failures are logged and do not affect other handlers
// or the publisher; durable delivery is the outbox processor's job.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[string][]shared.EventHandler
	logger      *zap.Logger
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[string][]shared.EventHandler),
		logger:   logger,
	}
}

// SetIdempotencyStore enables per-event deduplication. The same event can
// reach the bus twice, once from the synchronous publish and once from the
// outbox processor; with a store configured the second delivery is dropped.
func (b *InMemoryEventBus) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	b.idempotency = store
	b.idemConfig = cfg
}

// Publish dispatches events to all registered handlers synchronously
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		if b.skipDuplicate(ctx, event) {
			continue
		}

		b.mu.RLock()
		handlers := append([]shared.EventHandler{}, b.handlers[event.EventType()]...)
		handlers = append(handlers, b.handlers[""]...)
		b.mu.RUnlock()

		for _, handler := range handlers {
			if err := b.dispatchToHandler(ctx, handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler for specific event types. Without explicit
// types the handler's own EventTypes() is used; an empty result subscribes
// it to every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		b.handlers[""] = append(b.handlers[""], handler)
		return
	}
	for _, t := range eventTypes {
		b.handlers[t] = append(b.handlers[t], handler)
	}
}

// skipDuplicate reports whether the event was already delivered. Store
// failures fail open so a Redis outage never blocks event delivery.
func (b *InMemoryEventBus) skipDuplicate(ctx context.Context, event shared.DomainEvent) bool {
	if b.idempotency == nil || !b.idemConfig.Enabled {
		return false
	}

	fresh, err := b.idempotency.MarkProcessed(ctx, event.EventID().String(), b.idemConfig.TTL)
	if err != nil {
		b.logger.Warn("idempotency check failed, delivering anyway",
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
		return false
	}
	if !fresh {
		b.logger.Debug("skipping duplicate event",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
		return true
	}
	return false
}

// dispatchToHandler dispatches an event to a handler, containing panics
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()

	return handler.Handle(ctx, event)
}

// Ensure InMemoryEventBus implements EventBus
var _ shared.EventBus = (*InMemoryEventBus)(nil)

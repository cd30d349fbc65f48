package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/restosuite/backend/internal/domain/shared"
	"github.com/restosuite/backend/internal/domain/supply"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	fail     bool
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.fail {
		return errors.New("handler failure")
	}
	h.received = append(h.received, event)
	return nil
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func newScheduledEvent() *supply.PurchaseOrderScheduledEvent {
	return supply.NewPurchaseOrderScheduledEvent(uuid.New(), uuid.New(), "PO-1000", time.Now().Add(48*time.Hour))
}

func TestInMemoryEventBusPublish(t *testing.T) {
	t.Run("delivers to matching subscribers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{supply.EventTypePurchaseOrderScheduled}}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(context.Background(), newScheduledEvent()))
		assert.Len(t, handler.received, 1)
	})

	t.Run("skips non-matching subscribers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{supply.EventTypePurchaseOrderReceived}}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(context.Background(), newScheduledEvent()))
		assert.Empty(t, handler.received)
	})

	t.Run("handler without types receives everything", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(context.Background(), newScheduledEvent()))
		assert.Len(t, handler.received, 1)
	})

	t.Run("failing handler does not block others", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := &recordingHandler{types: []string{supply.EventTypePurchaseOrderScheduled}, fail: true}
		healthy := &recordingHandler{types: []string{supply.EventTypePurchaseOrderScheduled}}
		bus.Subscribe(failing)
		bus.Subscribe(healthy)

		require.NoError(t, bus.Publish(context.Background(), newScheduledEvent()))
		assert.Len(t, healthy.received, 1)
	})
}

// memIdempotencyStore is an in-memory shared.IdempotencyStore for bus tests
type memIdempotencyStore struct {
	seen map[string]bool
	err  error
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, eventID string, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	return s.seen[eventID], s.err
}

func (s *memIdempotencyStore) Close() error { return nil }

func TestInMemoryEventBusDeduplication(t *testing.T) {
	t.Run("duplicate event delivered once", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		bus.SetIdempotencyStore(&memIdempotencyStore{seen: make(map[string]bool)}, shared.DefaultIdempotencyConfig())
		handler := &recordingHandler{types: []string{supply.EventTypePurchaseOrderScheduled}}
		bus.Subscribe(handler)

		event := newScheduledEvent()
		require.NoError(t, bus.Publish(context.Background(), event))
		require.NoError(t, bus.Publish(context.Background(), event))

		assert.Len(t, handler.received, 1)
	})

	t.Run("distinct events both delivered", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		bus.SetIdempotencyStore(&memIdempotencyStore{seen: make(map[string]bool)}, shared.DefaultIdempotencyConfig())
		handler := &recordingHandler{types: []string{supply.EventTypePurchaseOrderScheduled}}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(context.Background(), newScheduledEvent()))
		require.NoError(t, bus.Publish(context.Background(), newScheduledEvent()))

		assert.Len(t, handler.received, 2)
	})

	t.Run("store failure fails open", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		bus.SetIdempotencyStore(&memIdempotencyStore{err: errors.New("redis down")}, shared.DefaultIdempotencyConfig())
		handler := &recordingHandler{types: []string{supply.EventTypePurchaseOrderScheduled}}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(context.Background(), newScheduledEvent()))
		assert.Len(t, handler.received, 1)
	})

	t.Run("disabled config skips deduplication", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		bus.SetIdempotencyStore(&memIdempotencyStore{seen: make(map[string]bool)}, shared.IdempotencyConfig{Enabled: false})
		handler := &recordingHandler{types: []string{supply.EventTypePurchaseOrderScheduled}}
		bus.Subscribe(handler)

		event := newScheduledEvent()
		require.NoError(t, bus.Publish(context.Background(), event))
		require.NoError(t, bus.Publish(context.Background(), event))

		assert.Len(t, handler.received, 2)
	})
}

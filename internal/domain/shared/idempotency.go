package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers delivered event IDs so the bus can drop
// duplicates. The same event reaches the bus twice by design: once from
// the synchronous publish after commit and once when the outbox
// processor replays it.
type IdempotencyStore interface {
	// MarkProcessed records an event ID with a TTL. It returns true when
	// the ID was newly recorded and false when it was already present.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether an event ID has already been recorded
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Close releases the store's resources
	Close() error
}

// IdempotencyConfig controls duplicate suppression on the event bus
type IdempotencyConfig struct {
	// TTL bounds how long a delivered event ID is remembered. After it
	// expires the same ID would be delivered again; it must outlast the
	// outbox retry window.
	TTL time.Duration

	// Enabled turns duplicate suppression off entirely when false
	Enabled bool
}

// DefaultIdempotencyConfig remembers deliveries for 24 hours, far past
// the outbox's last retry.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}

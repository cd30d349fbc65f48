package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/restosuite/backend/internal/domain/shared"
)

// fakeOutboxRepo is an in-memory shared.OutboxRepository for service tests
type fakeOutboxRepo struct {
	entries map[uuid.UUID]*shared.OutboxEntry
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *fakeOutboxRepo) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *fakeOutboxRepo) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusPending {
			result = append(result, e)
			if len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (r *fakeOutboxRepo) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusDead {
			result = append(result, e)
		}
	}
	total := int64(len(result))

	start := (page - 1) * pageSize
	if start >= len(result) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *fakeOutboxRepo) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, nil
}

func (r *fakeOutboxRepo) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeOutboxRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeOutboxRepo) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func newDeadEntry() *shared.OutboxEntry {
	return &shared.OutboxEntry{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		EventID:       uuid.New(),
		EventType:     "supply.purchase_order.received",
		AggregateID:   uuid.New(),
		AggregateType: "PurchaseOrder",
		Status:        shared.OutboxStatusDead,
		RetryCount:    5,
		MaxRetries:    5,
		LastError:     "handler unavailable",
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func TestOutboxServiceDeadLetterEntries(t *testing.T) {
	repo := newFakeOutboxRepo()
	service := NewOutboxService(repo, zap.NewNop())

	for i := 0; i < 5; i++ {
		entry := newDeadEntry()
		repo.entries[entry.ID] = entry
	}
	pending := &shared.OutboxEntry{ID: uuid.New(), Status: shared.OutboxStatusPending}
	repo.entries[pending.ID] = pending

	result, err := service.DeadLetterEntries(context.Background(), OutboxFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Total)
	assert.Len(t, result.Items, 5)

	for _, entry := range result.Items {
		assert.Equal(t, "DEAD", entry.Status)
	}
}

func TestOutboxServiceRetryDeadEntry(t *testing.T) {
	t.Run("dead entry resets to pending", func(t *testing.T) {
		repo := newFakeOutboxRepo()
		service := NewOutboxService(repo, zap.NewNop())

		dead := newDeadEntry()
		repo.entries[dead.ID] = dead

		result, err := service.RetryDeadEntry(context.Background(), dead.ID)
		require.NoError(t, err)
		assert.Equal(t, "PENDING", result.Status)
		assert.Equal(t, 0, result.RetryCount)
		assert.Empty(t, result.LastError)
	})

	t.Run("missing entry", func(t *testing.T) {
		repo := newFakeOutboxRepo()
		service := NewOutboxService(repo, zap.NewNop())

		_, err := service.RetryDeadEntry(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("entry not dead", func(t *testing.T) {
		repo := newFakeOutboxRepo()
		service := NewOutboxService(repo, zap.NewNop())

		entry := &shared.OutboxEntry{ID: uuid.New(), Status: shared.OutboxStatusPending}
		repo.entries[entry.ID] = entry

		_, err := service.RetryDeadEntry(context.Background(), entry.ID)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

func TestOutboxServiceStats(t *testing.T) {
	repo := newFakeOutboxRepo()
	service := NewOutboxService(repo, zap.NewNop())

	statuses := []shared.OutboxStatus{
		shared.OutboxStatusPending,
		shared.OutboxStatusPending,
		shared.OutboxStatusProcessing,
		shared.OutboxStatusSent,
		shared.OutboxStatusSent,
		shared.OutboxStatusSent,
		shared.OutboxStatusFailed,
		shared.OutboxStatusDead,
	}
	for _, status := range statuses {
		entry := &shared.OutboxEntry{ID: uuid.New(), Status: status}
		repo.entries[entry.ID] = entry
	}

	stats, err := service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(1), stats.Processing)
	assert.Equal(t, int64(3), stats.Sent)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Dead)
	assert.Equal(t, int64(8), stats.Total)
}

func TestOutboxServiceRetryAllDeadEntries(t *testing.T) {
	repo := newFakeOutboxRepo()
	service := NewOutboxService(repo, zap.NewNop())

	deadIDs := make(map[uuid.UUID]bool)
	for i := 0; i < 3; i++ {
		entry := newDeadEntry()
		repo.entries[entry.ID] = entry
		deadIDs[entry.ID] = true
	}
	pending := &shared.OutboxEntry{ID: uuid.New(), Status: shared.OutboxStatusPending}
	repo.entries[pending.ID] = pending

	count, err := service.RetryAllDeadEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	for id := range deadIDs {
		assert.Equal(t, shared.OutboxStatusPending, repo.entries[id].Status)
		assert.Equal(t, 0, repo.entries[id].RetryCount)
	}
}

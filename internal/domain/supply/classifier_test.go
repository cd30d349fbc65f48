package supply

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restosuite/backend/internal/domain/shared"
)

func orderWithStatus(status Status) PurchaseOrder {
	return PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New()),
		OrderNumber:         "PO-" + string(status),
		Status:              status,
	}
}

func TestClassify(t *testing.T) {
	orders := []PurchaseOrder{
		orderWithStatus(StatusApproved),
		orderWithStatus(StatusScheduled),
		orderWithStatus(StatusInTransit),
		orderWithStatus(StatusPartiallyReceived),
		orderWithStatus(StatusReceived),
		orderWithStatus(StatusDiscrepancyReported),
		orderWithStatus(StatusUnknown),
	}

	buckets := Classify(orders)

	t.Run("approved orders are schedulable", func(t *testing.T) {
		require.Len(t, buckets.Schedulable, 1)
		assert.Equal(t, StatusApproved, buckets.Schedulable[0].Status)
	})

	t.Run("scheduled and in transit orders are inspectable", func(t *testing.T) {
		require.Len(t, buckets.Inspectable, 2)
		assert.Equal(t, StatusScheduled, buckets.Inspectable[0].Status)
		assert.Equal(t, StatusInTransit, buckets.Inspectable[1].Status)
	})

	t.Run("partially received orders await documentation", func(t *testing.T) {
		require.Len(t, buckets.DiscrepancyPending, 1)
		assert.Equal(t, StatusPartiallyReceived, buckets.DiscrepancyPending[0].Status)
	})

	t.Run("unknown statuses are surfaced", func(t *testing.T) {
		require.Len(t, buckets.Unrecognized, 1)
		assert.Equal(t, StatusUnknown, buckets.Unrecognized[0].Status)
	})

	t.Run("buckets are disjoint and exclude terminal orders", func(t *testing.T) {
		total := len(buckets.Schedulable) + len(buckets.Inspectable) +
			len(buckets.DiscrepancyPending) + len(buckets.Unrecognized)
		// Received and DiscrepancyReported land in no bucket
		assert.Equal(t, len(orders)-2, total)

		seen := make(map[uuid.UUID]bool)
		for _, bucket := range [][]PurchaseOrder{
			buckets.Schedulable, buckets.Inspectable, buckets.DiscrepancyPending, buckets.Unrecognized,
		} {
			for _, order := range bucket {
				assert.False(t, seen[order.ID], "order %s in more than one bucket", order.OrderNumber)
				seen[order.ID] = true
			}
		}
	})
}

func TestClassifyEmpty(t *testing.T) {
	buckets := Classify(nil)
	assert.Empty(t, buckets.Schedulable)
	assert.Empty(t, buckets.Inspectable)
	assert.Empty(t, buckets.DiscrepancyPending)
	assert.Empty(t, buckets.Unrecognized)
}

func TestBucketCounts(t *testing.T) {
	buckets := Classify([]PurchaseOrder{
		orderWithStatus(StatusApproved),
		orderWithStatus(StatusApproved),
		orderWithStatus(StatusScheduled),
		orderWithStatus(StatusPartiallyReceived),
	})

	counts := buckets.Counts()
	assert.Equal(t, 2, counts.Schedulable)
	assert.Equal(t, 1, counts.Inspectable)
	assert.Equal(t, 1, counts.DiscrepancyPending)
	assert.Equal(t, 0, counts.Unrecognized)
}

package supply

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restosuite/backend/internal/domain/supply"
)

func TestNewInspectionSheet(t *testing.T) {
	order, err := supply.NewPurchaseOrder(uuid.New(), "PO-1", uuid.New(), "Supplier", time.Now())
	require.NoError(t, err)
	require.NoError(t, order.AddItem(uuid.New(), "Tomatoes", "VEG-001", 50, decimal.NewFromFloat(2.50)))
	require.NoError(t, order.AddItem(uuid.New(), "Olive Oil", "OIL-001", 10, decimal.NewFromFloat(12.00)))

	drafts := NewInspectionSheet(order)
	require.Len(t, drafts, 2)
	for i, draft := range drafts {
		assert.Equal(t, order.Items[i].ID, draft.ItemID)
		assert.Equal(t, order.Items[i].OrderedQuantity, draft.OrderedQuantity)
		assert.Equal(t, order.Items[i].OrderedQuantity, draft.ReceivedQuantity)
		assert.Equal(t, int64(0), draft.RejectedQuantity)
	}
}

func TestInspectionDraftAdjustReceived(t *testing.T) {
	tests := []struct {
		name             string
		adjust           int64
		expectedReceived int64
		expectedRejected int64
	}{
		{"within range", 40, 40, 10},
		{"zero", 0, 0, 50},
		{"full", 50, 50, 0},
		{"clamped below zero", -5, 0, 50},
		{"clamped above ordered", 60, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := InspectionDraft{OrderedQuantity: 50, ReceivedQuantity: 50}
			draft.AdjustReceived(tt.adjust)
			assert.Equal(t, tt.expectedReceived, draft.ReceivedQuantity)
			assert.Equal(t, tt.expectedRejected, draft.RejectedQuantity)
			assert.Equal(t, draft.OrderedQuantity, draft.ReceivedQuantity+draft.RejectedQuantity)
		})
	}
}

func TestInspectionDraftLine(t *testing.T) {
	draft := InspectionDraft{ItemID: uuid.New(), OrderedQuantity: 50, ReceivedQuantity: 50}
	draft.AdjustReceived(35)

	line := draft.Line()
	assert.Equal(t, draft.ItemID, line.ItemID)
	assert.Equal(t, int64(35), line.ReceivedQuantity)
	assert.Nil(t, line.RejectedQuantity)
}

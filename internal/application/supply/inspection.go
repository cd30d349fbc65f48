package supply

import (
	"github.com/google/uuid"

	"github.com/restosuite/backend/internal/domain/supply"
)

// InspectionDraft is one editable row of the receiving inspection sheet.
// Drafts start with the full ordered quantity marked as received; the
// receiver only adjusts lines that arrived short or damaged.
type InspectionDraft struct {
	ItemID           uuid.UUID `json:"item_id"`
	ProductID        uuid.UUID `json:"product_id"`
	ProductName      string    `json:"product_name"`
	ProductCode      string    `json:"product_code"`
	OrderedQuantity  int64     `json:"ordered_quantity"`
	ReceivedQuantity int64     `json:"received_quantity"`
	RejectedQuantity int64     `json:"rejected_quantity"`
}

// NewInspectionSheet builds one draft per order line with received
// defaulted to the ordered quantity and rejected derived as zero.
func NewInspectionSheet(order *supply.PurchaseOrder) []InspectionDraft {
	drafts := make([]InspectionDraft, len(order.Items))
	for i, item := range order.Items {
		drafts[i] = InspectionDraft{
			ItemID:           item.ID,
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			ProductCode:      item.ProductCode,
			OrderedQuantity:  item.OrderedQuantity,
			ReceivedQuantity: item.OrderedQuantity,
			RejectedQuantity: 0,
		}
	}
	return drafts
}

// AdjustReceived sets the received count, clamped to [0, ordered], and
// recomputes the rejected count.
func (d *InspectionDraft) AdjustReceived(v int64) {
	if v < 0 {
		v = 0
	}
	if v > d.OrderedQuantity {
		v = d.OrderedQuantity
	}
	d.ReceivedQuantity = v
	d.RejectedQuantity = d.OrderedQuantity - v
}

// Line converts the draft to the domain inspection input
func (d *InspectionDraft) Line() supply.InspectionLine {
	return supply.InspectionLine{
		ItemID:           d.ItemID,
		ReceivedQuantity: d.ReceivedQuantity,
	}
}

package supply

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restosuite/backend/internal/domain/shared"
)

// LineItem represents a single product line on a purchase order.
// OrderedQuantity is immutable once the order enters the receiving flow;
// ReceivedQuantity and RejectedQuantity are nil until the line is inspected.
// RejectedQuantity is always derived as ordered minus received, never taken
// from the caller.
type LineItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	ProductID       uuid.UUID
	ProductName     string
	ProductCode     string
	OrderedQuantity int64
	UnitPrice       decimal.Decimal
	TotalPrice      decimal.Decimal
	ReceivedQuantity *int64
	RejectedQuantity *int64
	RejectionNotes  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Inspected returns true once receiving quantities have been recorded
func (i *LineItem) Inspected() bool {
	return i.ReceivedQuantity != nil && i.RejectedQuantity != nil
}

// Discrepant returns true when the line has at least one rejected unit
func (i *LineItem) Discrepant() bool {
	return i.RejectedQuantity != nil && *i.RejectedQuantity > 0
}

// PurchaseOrder is the receiving-side aggregate root. Orders enter the
// system already approved by the purchasing workflow; this aggregate owns
// scheduling, delivery inspection and discrepancy documentation.
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	OrderNumber          string
	SupplierID           uuid.UUID
	SupplierName         string
	OrderDate            time.Time
	ExpectedDeliveryDate *time.Time
	InspectionDate       *time.Time
	Status               Status
	Notes                string
	DiscrepancyNotes     string
	TotalAmount          decimal.Decimal
	Items                []LineItem
}

// NewPurchaseOrder creates an approved purchase order ready for scheduling
func NewPurchaseOrder(tenantID uuid.UUID, orderNumber string, supplierID uuid.UUID, supplierName string, orderDate time.Time) (*PurchaseOrder, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order number is required")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Supplier is required")
	}
	if orderDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order date is required")
	}

	order := &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		SupplierID:          supplierID,
		SupplierName:        supplierName,
		OrderDate:           orderDate,
		Status:              StatusApproved,
		TotalAmount:         decimal.Zero,
		Items:               make([]LineItem, 0),
	}
	return order, nil
}

// AddItem appends a product line. Lines are fixed after scheduling starts;
// quantity changes past that point go through the inspection flow instead.
func (o *PurchaseOrder) AddItem(productID uuid.UUID, productName, productCode string, quantity int64, unitPrice decimal.Decimal) error {
	if o.Status != StatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Line items can only be added before scheduling")
	}
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Product is required")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Ordered quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Unit price cannot be negative")
	}

	now := time.Now()
	total := unitPrice.Mul(decimal.NewFromInt(quantity))
	o.Items = append(o.Items, LineItem{
		ID:              uuid.New(),
		OrderID:         o.ID,
		ProductID:       productID,
		ProductName:     productName,
		ProductCode:     productCode,
		OrderedQuantity: quantity,
		UnitPrice:       unitPrice,
		TotalPrice:      total,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	o.TotalAmount = o.TotalAmount.Add(total)
	o.UpdatedAt = now
	return nil
}

// Schedule records the expected delivery date and moves the order to
// Scheduled. Rescheduling an already scheduled order is allowed; the
// latest date and notes win.
func (o *PurchaseOrder) Schedule(expectedDeliveryDate time.Time, notes string) error {
	if !o.Status.CanSchedule() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot schedule delivery for order in status %s", o.Status))
	}
	if expectedDeliveryDate.IsZero() {
		return shared.NewDomainError("INVALID_INPUT", "Expected delivery date is required")
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot schedule an order with no line items")
	}

	o.ExpectedDeliveryDate = &expectedDeliveryDate
	o.Notes = notes
	o.Status = StatusScheduled
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewPurchaseOrderScheduledEvent(o.ID, o.TenantID, o.OrderNumber, expectedDeliveryDate))
	return nil
}

// MarkInTransit records carrier pickup for a scheduled delivery
func (o *PurchaseOrder) MarkInTransit() error {
	if o.Status != StatusScheduled {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot mark order in transit from status %s", o.Status))
	}
	o.Status = StatusInTransit
	o.UpdatedAt = time.Now()
	return nil
}

// InspectionLine carries the counted quantities for one line item.
// RejectedQuantity is optional; when present it is cross-checked against
// the derived value and a mismatch fails the whole submission.
type InspectionLine struct {
	ItemID           uuid.UUID
	ReceivedQuantity int64
	RejectedQuantity *int64
}

// InspectionResult summarizes a completed inspection
type InspectionResult struct {
	ReceivedLines   int
	DiscrepantLines int
	TotalRejected   int64
	FinalStatus     Status
}

// ApplyInspection records counted quantities for every line and settles the
// order into Received or PartiallyReceived. For each line the rejected
// quantity is derived as ordered minus received, so received plus rejected
// always equals ordered. Any rejected unit on any line makes the whole
// order partially received.
func (o *PurchaseOrder) ApplyInspection(inspectionDate time.Time, lines []InspectionLine) (*InspectionResult, error) {
	if !o.Status.CanInspect() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot inspect delivery for order in status %s", o.Status))
	}
	if inspectionDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Inspection date is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Inspection requires at least one line")
	}

	itemIDs := make(map[uuid.UUID]struct{}, len(o.Items))
	for _, item := range o.Items {
		itemIDs[item.ID] = struct{}{}
	}
	byItem := make(map[uuid.UUID]InspectionLine, len(lines))
	for _, line := range lines {
		if _, known := itemIDs[line.ItemID]; !known {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Line item %s is not part of this order", line.ItemID))
		}
		if _, dup := byItem[line.ItemID]; dup {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Line item %s appears more than once", line.ItemID))
		}
		byItem[line.ItemID] = line
	}
	// Unique, known IDs matching the item count means every line is covered
	if len(byItem) != len(o.Items) {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Inspection must cover all %d line items, got %d", len(o.Items), len(byItem)))
	}

	// Validate every line before mutating anything
	for idx := range o.Items {
		item := &o.Items[idx]
		line := byItem[item.ID]
		if line.ReceivedQuantity < 0 || line.ReceivedQuantity > item.OrderedQuantity {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Received quantity for %s must be between 0 and %d", item.ProductName, item.OrderedQuantity))
		}
		derived := item.OrderedQuantity - line.ReceivedQuantity
		if line.RejectedQuantity != nil && *line.RejectedQuantity != derived {
			return nil, shared.NewDomainError("INTEGRITY_ERROR",
				fmt.Sprintf("Rejected quantity for %s diverges from ordered minus received (%d vs %d)",
					item.ProductName, *line.RejectedQuantity, derived))
		}
	}

	result := &InspectionResult{}
	now := time.Now()
	for idx := range o.Items {
		item := &o.Items[idx]
		line := byItem[item.ID]
		received := line.ReceivedQuantity
		rejected := item.OrderedQuantity - received
		item.ReceivedQuantity = &received
		item.RejectedQuantity = &rejected
		item.UpdatedAt = now

		result.ReceivedLines++
		if rejected > 0 {
			result.DiscrepantLines++
			result.TotalRejected += rejected
		}
	}

	if result.DiscrepantLines > 0 {
		o.Status = StatusPartiallyReceived
	} else {
		o.Status = StatusReceived
	}
	result.FinalStatus = o.Status
	o.InspectionDate = &inspectionDate
	o.UpdatedAt = now

	o.AddDomainEvent(NewPurchaseOrderReceivedEvent(o.ID, o.TenantID, o.OrderNumber, o.Status, result.TotalRejected))
	return result, nil
}

// DiscrepantItems returns the line items with at least one rejected unit
func (o *PurchaseOrder) DiscrepantItems() []LineItem {
	discrepant := make([]LineItem, 0)
	for _, item := range o.Items {
		if item.Discrepant() {
			discrepant = append(discrepant, item)
		}
	}
	return discrepant
}

// HasDiscrepancies returns true when any line rejected at least one unit
func (o *PurchaseOrder) HasDiscrepancies() bool {
	return len(o.DiscrepantItems()) > 0
}

// DocumentDiscrepancies attaches rejection notes to every discrepant line
// and closes the order as DiscrepancyReported. Every discrepant line must
// carry a non-blank note; notes on non-discrepant lines are ignored.
// Re-submitting the same notes after the order is already closed is a
// no-op so a retried request cannot fail.
func (o *PurchaseOrder) DocumentDiscrepancies(generalNotes string, lineNotes map[uuid.UUID]string) error {
	if o.Status == StatusDiscrepancyReported {
		if o.notesMatch(generalNotes, lineNotes) {
			return nil
		}
		return shared.NewDomainError("INVALID_STATE", "Discrepancies for this order have already been reported")
	}
	if o.Status != StatusPartiallyReceived {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot document discrepancies for order in status %s", o.Status))
	}

	discrepant := o.DiscrepantItems()
	if len(discrepant) == 0 {
		return shared.NewDomainError("NO_DISCREPANCIES", "Order has no rejected quantities to document")
	}
	for _, item := range discrepant {
		if strings.TrimSpace(lineNotes[item.ID]) == "" {
			return shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Rejection notes are required for %s", item.ProductName))
		}
	}

	now := time.Now()
	for idx := range o.Items {
		item := &o.Items[idx]
		if !item.Discrepant() {
			continue
		}
		item.RejectionNotes = strings.TrimSpace(lineNotes[item.ID])
		item.UpdatedAt = now
	}
	o.DiscrepancyNotes = strings.TrimSpace(generalNotes)
	o.Status = StatusDiscrepancyReported
	o.UpdatedAt = now

	o.AddDomainEvent(NewPurchaseOrderDiscrepancyReportedEvent(o.ID, o.TenantID, o.OrderNumber, len(discrepant)))
	return nil
}

// notesMatch reports whether a documentation request repeats what is
// already recorded on a closed order.
func (o *PurchaseOrder) notesMatch(generalNotes string, lineNotes map[uuid.UUID]string) bool {
	if strings.TrimSpace(generalNotes) != o.DiscrepancyNotes {
		return false
	}
	for _, item := range o.Items {
		if !item.Discrepant() {
			continue
		}
		if strings.TrimSpace(lineNotes[item.ID]) != item.RejectionNotes {
			return false
		}
	}
	return true
}

// ReceivedTotal returns the sum of received quantities across all lines
func (o *PurchaseOrder) ReceivedTotal() int64 {
	var total int64
	for _, item := range o.Items {
		if item.ReceivedQuantity != nil {
			total += *item.ReceivedQuantity
		}
	}
	return total
}

// RejectedTotal returns the sum of rejected quantities across all lines
func (o *PurchaseOrder) RejectedTotal() int64 {
	var total int64
	for _, item := range o.Items {
		if item.RejectedQuantity != nil {
			total += *item.RejectedQuantity
		}
	}
	return total
}

// OrderedTotal returns the sum of ordered quantities across all lines
func (o *PurchaseOrder) OrderedTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.OrderedQuantity
	}
	return total
}

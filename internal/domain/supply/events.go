package supply

import (
	"time"

	"github.com/google/uuid"

	"github.com/restosuite/backend/internal/domain/shared"
)

// Event types for the supply context
const (
	EventTypePurchaseOrderScheduled           = "supply.purchase_order.scheduled"
	EventTypePurchaseOrderReceived            = "supply.purchase_order.received"
	EventTypePurchaseOrderDiscrepancyReported = "supply.purchase_order.discrepancy_reported"
)

const aggregateTypePurchaseOrder = "PurchaseOrder"

// PurchaseOrderScheduledEvent is raised when a delivery is scheduled
type PurchaseOrderScheduledEvent struct {
	shared.BaseDomainEvent
	OrderNumber          string    `json:"order_number"`
	ExpectedDeliveryDate time.Time `json:"expected_delivery_date"`
}

// NewPurchaseOrderScheduledEvent creates a new scheduled event
func NewPurchaseOrderScheduledEvent(orderID, tenantID uuid.UUID, orderNumber string, expectedDeliveryDate time.Time) *PurchaseOrderScheduledEvent {
	return &PurchaseOrderScheduledEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypePurchaseOrderScheduled, aggregateTypePurchaseOrder, orderID, tenantID),
		OrderNumber:          orderNumber,
		ExpectedDeliveryDate: expectedDeliveryDate,
	}
}

// PurchaseOrderReceivedEvent is raised when an inspection settles an order
// into Received or PartiallyReceived. Inventory consumes it to post stock.
type PurchaseOrderReceivedEvent struct {
	shared.BaseDomainEvent
	OrderNumber   string `json:"order_number"`
	FinalStatus   Status `json:"final_status"`
	TotalRejected int64  `json:"total_rejected"`
}

// NewPurchaseOrderReceivedEvent creates a new received event
func NewPurchaseOrderReceivedEvent(orderID, tenantID uuid.UUID, orderNumber string, finalStatus Status, totalRejected int64) *PurchaseOrderReceivedEvent {
	return &PurchaseOrderReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderReceived, aggregateTypePurchaseOrder, orderID, tenantID),
		OrderNumber:     orderNumber,
		FinalStatus:     finalStatus,
		TotalRejected:   totalRejected,
	}
}

// PurchaseOrderDiscrepancyReportedEvent is raised when rejection notes are
// filed and the order closes as DiscrepancyReported
type PurchaseOrderDiscrepancyReportedEvent struct {
	shared.BaseDomainEvent
	OrderNumber     string `json:"order_number"`
	DiscrepantLines int    `json:"discrepant_lines"`
}

// NewPurchaseOrderDiscrepancyReportedEvent creates a new discrepancy reported event
func NewPurchaseOrderDiscrepancyReportedEvent(orderID, tenantID uuid.UUID, orderNumber string, discrepantLines int) *PurchaseOrderDiscrepancyReportedEvent {
	return &PurchaseOrderDiscrepancyReportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderDiscrepancyReported, aggregateTypePurchaseOrder, orderID, tenantID),
		OrderNumber:     orderNumber,
		DiscrepantLines: discrepantLines,
	}
}

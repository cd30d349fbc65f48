package supply

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restosuite/backend/internal/domain/supply"
)

// ==================== Requests ====================

// CreatePurchaseOrderRequest ingests an order approved by the purchasing workflow
type CreatePurchaseOrderRequest struct {
	SupplierID   uuid.UUID                      `json:"supplier_id" binding:"required"`
	SupplierName string                         `json:"supplier_name" binding:"required,min=1,max=200"`
	OrderDate    time.Time                      `json:"order_date" binding:"required"`
	Items        []CreatePurchaseOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreatePurchaseOrderItemInput represents an item in the create order request
type CreatePurchaseOrderItemInput struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required,min=1,max=200"`
	ProductCode string          `json:"product_code" binding:"required,min=1,max=50"`
	Quantity    int64           `json:"quantity" binding:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// ScheduleDeliveryRequest carries the expected delivery date for an approved
// order. Version is the caller's last-seen order version; a stale value is
// rejected with a concurrency conflict.
type ScheduleDeliveryRequest struct {
	ExpectedDeliveryDate time.Time `json:"expected_delivery_date" binding:"required"`
	Notes                string    `json:"notes" binding:"max=1000"`
	Version              int       `json:"version" binding:"required,min=1"`
}

// MarkInTransitRequest records carrier pickup
type MarkInTransitRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}

// InspectionLineInput carries counted quantities for one line item.
// RejectedQuantity is optional and cross-checked against ordered minus
// received when present.
type InspectionLineInput struct {
	ItemID           uuid.UUID `json:"item_id" binding:"required"`
	ReceivedQuantity int64     `json:"received_quantity" binding:"min=0"`
	RejectedQuantity *int64    `json:"rejected_quantity"`
}

// SubmitInspectionRequest settles a delivery inspection
type SubmitInspectionRequest struct {
	InspectionDate time.Time             `json:"inspection_date" binding:"required"`
	Lines          []InspectionLineInput `json:"lines" binding:"required,min=1,dive"`
	Version        int                   `json:"version" binding:"required,min=1"`
}

// DiscrepancyLineInput carries rejection notes for one discrepant line
type DiscrepancyLineInput struct {
	ItemID         uuid.UUID `json:"item_id" binding:"required"`
	RejectionNotes string    `json:"rejection_notes" binding:"required,min=1,max=1000"`
}

// SubmitDocumentationRequest files rejection notes for a partially received order
type SubmitDocumentationRequest struct {
	GeneralNotes string                 `json:"general_notes" binding:"max=2000"`
	Lines        []DiscrepancyLineInput `json:"lines" binding:"required,min=1,dive"`
	Version      int                    `json:"version" binding:"required,min=1"`
}

// PurchaseOrderListFilter represents filter options for the order list
type PurchaseOrderListFilter struct {
	Search     string     `form:"search"`
	SupplierID *uuid.UUID `form:"supplier_id"`
	Statuses   []string   `form:"statuses"`
	Page       int        `form:"page" binding:"min=0"`
	PageSize   int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Responses ====================

// LineItemResponse represents an order line in API responses
type LineItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	ProductName      string          `json:"product_name"`
	ProductCode      string          `json:"product_code"`
	OrderedQuantity  int64           `json:"ordered_quantity"`
	ReceivedQuantity *int64          `json:"received_quantity,omitempty"`
	RejectedQuantity *int64          `json:"rejected_quantity,omitempty"`
	RejectionNotes   string          `json:"rejection_notes,omitempty"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// PurchaseOrderResponse represents a purchase order in API responses.
// Version is echoed back so the caller can attach it to the next mutation.
type PurchaseOrderResponse struct {
	ID                   uuid.UUID          `json:"id"`
	TenantID             uuid.UUID          `json:"tenant_id"`
	OrderNumber          string             `json:"order_number"`
	SupplierID           uuid.UUID          `json:"supplier_id"`
	SupplierName         string             `json:"supplier_name"`
	OrderDate            time.Time          `json:"order_date"`
	ExpectedDeliveryDate *time.Time         `json:"expected_delivery_date,omitempty"`
	InspectionDate       *time.Time         `json:"inspection_date,omitempty"`
	Status               string             `json:"status"`
	Notes                string             `json:"notes,omitempty"`
	DiscrepancyNotes     string             `json:"discrepancy_notes,omitempty"`
	Items                []LineItemResponse `json:"items"`
	ItemCount            int                `json:"item_count"`
	OrderedTotal         int64              `json:"ordered_total"`
	ReceivedTotal        int64              `json:"received_total"`
	RejectedTotal        int64              `json:"rejected_total"`
	DiscrepantLines      int                `json:"discrepant_lines"`
	TotalAmount          decimal.Decimal    `json:"total_amount"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	Version              int                `json:"version"`
}

// InspectionDraftResponse is one pre-filled row of the inspection sheet
type InspectionDraftResponse struct {
	ItemID           uuid.UUID `json:"item_id"`
	ProductID        uuid.UUID `json:"product_id"`
	ProductName      string    `json:"product_name"`
	ProductCode      string    `json:"product_code"`
	OrderedQuantity  int64     `json:"ordered_quantity"`
	ReceivedQuantity int64     `json:"received_quantity"`
	RejectedQuantity int64     `json:"rejected_quantity"`
}

// InspectionSheetResponse is the pre-filled inspection form for an order
type InspectionSheetResponse struct {
	OrderID     uuid.UUID                 `json:"order_id"`
	OrderNumber string                    `json:"order_number"`
	Status      string                    `json:"status"`
	Version     int                       `json:"version"`
	Drafts      []InspectionDraftResponse `json:"drafts"`
}

// InspectionResultResponse reports the outcome of a submitted inspection
type InspectionResultResponse struct {
	Order           PurchaseOrderResponse `json:"order"`
	ReceivedLines   int                   `json:"received_lines"`
	DiscrepantLines int                   `json:"discrepant_lines"`
	TotalRejected   int64                 `json:"total_rejected"`
}

// DiscrepantLineResponse is one rejected line awaiting documentation
type DiscrepantLineResponse struct {
	ItemID           uuid.UUID `json:"item_id"`
	ProductID        uuid.UUID `json:"product_id"`
	ProductName      string    `json:"product_name"`
	ProductCode      string    `json:"product_code"`
	OrderedQuantity  int64     `json:"ordered_quantity"`
	ReceivedQuantity int64     `json:"received_quantity"`
	RejectedQuantity int64     `json:"rejected_quantity"`
	RejectionNotes   string    `json:"rejection_notes,omitempty"`
}

// DiscrepancySheetResponse is the documentation form for a partially received order
type DiscrepancySheetResponse struct {
	OrderID     uuid.UUID                `json:"order_id"`
	OrderNumber string                   `json:"order_number"`
	Status      string                   `json:"status"`
	Version     int                      `json:"version"`
	Lines       []DiscrepantLineResponse `json:"lines"`
}

// BucketOrderResponse is a compact order view inside a workflow bucket
type BucketOrderResponse struct {
	ID                   uuid.UUID  `json:"id"`
	OrderNumber          string     `json:"order_number"`
	SupplierName         string     `json:"supplier_name"`
	Status               string     `json:"status"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
	ItemCount            int        `json:"item_count"`
	Version              int        `json:"version"`
}

// BucketsResponse is the classifier partition of a tenant's open orders
type BucketsResponse struct {
	Schedulable        []BucketOrderResponse `json:"schedulable"`
	Inspectable        []BucketOrderResponse `json:"inspectable"`
	DiscrepancyPending []BucketOrderResponse `json:"discrepancy_pending"`
	Unrecognized       []BucketOrderResponse `json:"unrecognized"`
	Counts             supply.Counts         `json:"counts"`
}

// ==================== Converters ====================

// ToLineItemResponse converts a domain line item to a response DTO
func ToLineItemResponse(item *supply.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:               item.ID,
		ProductID:        item.ProductID,
		ProductName:      item.ProductName,
		ProductCode:      item.ProductCode,
		OrderedQuantity:  item.OrderedQuantity,
		ReceivedQuantity: item.ReceivedQuantity,
		RejectedQuantity: item.RejectedQuantity,
		RejectionNotes:   item.RejectionNotes,
		UnitPrice:        item.UnitPrice,
		TotalPrice:       item.TotalPrice,
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
}

// ToPurchaseOrderResponse converts a domain purchase order to a response DTO
func ToPurchaseOrderResponse(order *supply.PurchaseOrder) PurchaseOrderResponse {
	items := make([]LineItemResponse, len(order.Items))
	for i := range order.Items {
		items[i] = ToLineItemResponse(&order.Items[i])
	}
	return PurchaseOrderResponse{
		ID:                   order.ID,
		TenantID:             order.TenantID,
		OrderNumber:          order.OrderNumber,
		SupplierID:           order.SupplierID,
		SupplierName:         order.SupplierName,
		OrderDate:            order.OrderDate,
		ExpectedDeliveryDate: order.ExpectedDeliveryDate,
		InspectionDate:       order.InspectionDate,
		Status:               order.Status.String(),
		Notes:                order.Notes,
		DiscrepancyNotes:     order.DiscrepancyNotes,
		Items:                items,
		ItemCount:            len(order.Items),
		OrderedTotal:         order.OrderedTotal(),
		ReceivedTotal:        order.ReceivedTotal(),
		RejectedTotal:        order.RejectedTotal(),
		DiscrepantLines:      len(order.DiscrepantItems()),
		TotalAmount:          order.TotalAmount,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
		Version:              order.Version,
	}
}

// ToBucketOrderResponse converts a domain purchase order to the compact bucket view
func ToBucketOrderResponse(order *supply.PurchaseOrder) BucketOrderResponse {
	return BucketOrderResponse{
		ID:                   order.ID,
		OrderNumber:          order.OrderNumber,
		SupplierName:         order.SupplierName,
		Status:               order.Status.String(),
		ExpectedDeliveryDate: order.ExpectedDeliveryDate,
		ItemCount:            len(order.Items),
		Version:              order.Version,
	}
}

// ToBucketsResponse converts classifier buckets to a response DTO
func ToBucketsResponse(buckets supply.Buckets) BucketsResponse {
	convert := func(orders []supply.PurchaseOrder) []BucketOrderResponse {
		out := make([]BucketOrderResponse, len(orders))
		for i := range orders {
			out[i] = ToBucketOrderResponse(&orders[i])
		}
		return out
	}
	return BucketsResponse{
		Schedulable:        convert(buckets.Schedulable),
		Inspectable:        convert(buckets.Inspectable),
		DiscrepancyPending: convert(buckets.DiscrepancyPending),
		Unrecognized:       convert(buckets.Unrecognized),
		Counts:             buckets.Counts(),
	}
}

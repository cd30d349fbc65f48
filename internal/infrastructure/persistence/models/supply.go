package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restosuite/backend/internal/domain/supply"
)

// PurchaseOrderModel is the persistence model for purchase orders.
// Status is stored as the raw string; normalization into the closed enum
// happens on every read so an unexpected backend value can never leak
// into the domain unnoticed.
type PurchaseOrderModel struct {
	TenantAggregateModel
	OrderNumber          string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_purchase_orders_tenant_number,composite:tenant_id"`
	SupplierID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierName         string          `gorm:"type:varchar(200);not null"`
	OrderDate            time.Time       `gorm:"not null"`
	ExpectedDeliveryDate *time.Time
	InspectionDate       *time.Time
	Status               string          `gorm:"type:varchar(30);not null;index"`
	Notes                string          `gorm:"type:text"`
	DiscrepancyNotes     string          `gorm:"type:text"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Items                []PurchaseOrderItemModel `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// PurchaseOrderItemModel is the persistence model for purchase order lines
type PurchaseOrderItemModel struct {
	BaseModel
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName      string          `gorm:"type:varchar(200);not null"`
	ProductCode      string          `gorm:"type:varchar(50);not null"`
	OrderedQuantity  int64           `gorm:"not null"`
	ReceivedQuantity *int64
	RejectedQuantity *int64
	RejectionNotes   string          `gorm:"type:text"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
// The second return value is false when the stored status did not
// normalize to a known value; the order then carries StatusUnknown.
func (m *PurchaseOrderModel) ToDomain() (*supply.PurchaseOrder, bool) {
	status, known := supply.ParseStatus(m.Status)

	order := &supply.PurchaseOrder{
		OrderNumber:          m.OrderNumber,
		SupplierID:           m.SupplierID,
		SupplierName:         m.SupplierName,
		OrderDate:            m.OrderDate,
		ExpectedDeliveryDate: m.ExpectedDeliveryDate,
		InspectionDate:       m.InspectionDate,
		Status:               status,
		Notes:                m.Notes,
		DiscrepancyNotes:     m.DiscrepancyNotes,
		TotalAmount:          m.TotalAmount,
		Items:                make([]supply.LineItem, len(m.Items)),
	}
	m.PopulateTenantAggregateRoot(&order.TenantAggregateRoot)

	for i := range m.Items {
		order.Items[i] = m.Items[i].ToDomain()
	}
	return order, known
}

// ToDomain converts the persistence model to a domain LineItem
func (m *PurchaseOrderItemModel) ToDomain() supply.LineItem {
	return supply.LineItem{
		ID:               m.ID,
		OrderID:          m.OrderID,
		ProductID:        m.ProductID,
		ProductName:      m.ProductName,
		ProductCode:      m.ProductCode,
		OrderedQuantity:  m.OrderedQuantity,
		ReceivedQuantity: m.ReceivedQuantity,
		RejectedQuantity: m.RejectedQuantity,
		RejectionNotes:   m.RejectionNotes,
		UnitPrice:        m.UnitPrice,
		TotalPrice:       m.TotalPrice,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// PurchaseOrderModelFromDomain creates a persistence model from a domain order
func PurchaseOrderModelFromDomain(order *supply.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		OrderNumber:          order.OrderNumber,
		SupplierID:           order.SupplierID,
		SupplierName:         order.SupplierName,
		OrderDate:            order.OrderDate,
		ExpectedDeliveryDate: order.ExpectedDeliveryDate,
		InspectionDate:       order.InspectionDate,
		Status:               order.Status.String(),
		Notes:                order.Notes,
		DiscrepancyNotes:     order.DiscrepancyNotes,
		TotalAmount:          order.TotalAmount,
	}
	m.FromDomainTenantAggregateRoot(order.TenantAggregateRoot)
	return m
}

// PurchaseOrderItemModelFromDomain creates a persistence model from a domain line item
func PurchaseOrderItemModelFromDomain(item *supply.LineItem) *PurchaseOrderItemModel {
	m := &PurchaseOrderItemModel{
		OrderID:          item.OrderID,
		ProductID:        item.ProductID,
		ProductName:      item.ProductName,
		ProductCode:      item.ProductCode,
		OrderedQuantity:  item.OrderedQuantity,
		ReceivedQuantity: item.ReceivedQuantity,
		RejectedQuantity: item.RejectedQuantity,
		RejectionNotes:   item.RejectionNotes,
		UnitPrice:        item.UnitPrice,
		TotalPrice:       item.TotalPrice,
	}
	m.ID = item.ID
	m.CreatedAt = item.CreatedAt
	m.UpdatedAt = item.UpdatedAt
	return m
}

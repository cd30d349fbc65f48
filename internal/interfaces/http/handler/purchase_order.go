package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsupply "github.com/restosuite/backend/internal/application/supply"
)

// PurchaseOrderHandler handles purchase order receiving API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	receivingService   *appsupply.ReceivingService
	discrepancyService *appsupply.DiscrepancyService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(
	receivingService *appsupply.ReceivingService,
	discrepancyService *appsupply.DiscrepancyService,
) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		receivingService:   receivingService,
		discrepancyService: discrepancyService,
	}
}

// ListPurchaseOrdersQuery represents query parameters for the order list
type ListPurchaseOrdersQuery struct {
	Search     string   `form:"search"`
	SupplierID string   `form:"supplier_id" binding:"omitempty,uuid"`
	Statuses   []string `form:"statuses"`
	Page       int      `form:"page" binding:"omitempty,min=1"`
	PageSize   int      `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string   `form:"order_by"`
	OrderDir   string   `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Create ingests a purchase order approved by the purchasing workflow
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req appsupply.CreatePurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.receivingService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// List retrieves purchase orders with pagination and filtering
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var query ListPurchaseOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := appsupply.PurchaseOrderListFilter{
		Search:   query.Search,
		Statuses: query.Statuses,
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
	}
	if query.SupplierID != "" {
		supplierID, err := uuid.Parse(query.SupplierID)
		if err != nil {
			h.BadRequest(c, "Invalid supplier ID format")
			return
		}
		filter.SupplierID = &supplierID
	}

	result, err := h.receivingService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetByID retrieves a purchase order by ID
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.receivingService.GetByID(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Buckets partitions the tenant's open orders by pending receiving action
func (h *PurchaseOrderHandler) Buckets(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	buckets, err := h.receivingService.Buckets(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, buckets)
}

// BucketCounts returns bucket sizes for dashboard badges
func (h *PurchaseOrderHandler) BucketCounts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	counts, err := h.receivingService.BucketCounts(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, counts)
}

// Schedule records the expected delivery date for an approved order
func (h *PurchaseOrderHandler) Schedule(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req appsupply.ScheduleDeliveryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.receivingService.Schedule(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// MarkInTransit records carrier pickup for a scheduled delivery
func (h *PurchaseOrderHandler) MarkInTransit(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req appsupply.MarkInTransitRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.receivingService.MarkInTransit(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// InspectionSheet returns the pre-filled inspection form for an order
func (h *PurchaseOrderHandler) InspectionSheet(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	sheet, err := h.receivingService.InspectionSheet(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sheet)
}

// SubmitInspection settles the counted quantities for a delivery
func (h *PurchaseOrderHandler) SubmitInspection(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req appsupply.SubmitInspectionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.receivingService.SubmitInspection(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Discrepancies returns the documentation sheet for a partially received order
func (h *PurchaseOrderHandler) Discrepancies(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	sheet, err := h.discrepancyService.DiscrepantLines(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sheet)
}

// SubmitDiscrepancies files rejection notes and closes the order
func (h *PurchaseOrderHandler) SubmitDiscrepancies(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req appsupply.SubmitDocumentationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.discrepancyService.SubmitDocumentation(c.Request.Context(), tenantID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

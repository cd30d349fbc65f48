package supply

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/restosuite/backend/internal/domain/shared"
	"github.com/restosuite/backend/internal/domain/supply"
)

// DiscrepancyService handles documentation of rejected delivery quantities
type DiscrepancyService struct {
	orderRepo      supply.PurchaseOrderRepository
	eventPublisher shared.EventPublisher
	bucketCache    BucketCache
}

// NewDiscrepancyService creates a new DiscrepancyService
func NewDiscrepancyService(orderRepo supply.PurchaseOrderRepository) *DiscrepancyService {
	return &DiscrepancyService{
		orderRepo: orderRepo,
	}
}

// SetEventPublisher sets the publisher for in-process event delivery
func (s *DiscrepancyService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBucketCache sets the bucket counts cache
func (s *DiscrepancyService) SetBucketCache(cache BucketCache) {
	s.bucketCache = cache
}

// DiscrepantLines builds the documentation sheet for a partially received
// order. It fails fast with NO_DISCREPANCIES when no line rejected
// anything, so a coordinator opening the form on the wrong order gets a
// clear message instead of an empty screen. Already documented orders are
// readable so filed notes can be reviewed.
func (s *DiscrepancyService) DiscrepantLines(ctx context.Context, tenantID, orderID uuid.UUID) (*DiscrepancySheetResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != supply.StatusPartiallyReceived && order.Status != supply.StatusDiscrepancyReported {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot document discrepancies for order in status %s", order.Status))
	}

	discrepant := order.DiscrepantItems()
	if len(discrepant) == 0 {
		return nil, shared.NewDomainError("NO_DISCREPANCIES", "Order has no rejected quantities to document")
	}

	lines := make([]DiscrepantLineResponse, len(discrepant))
	for i, item := range discrepant {
		lines[i] = DiscrepantLineResponse{
			ItemID:           item.ID,
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			ProductCode:      item.ProductCode,
			OrderedQuantity:  item.OrderedQuantity,
			ReceivedQuantity: *item.ReceivedQuantity,
			RejectedQuantity: *item.RejectedQuantity,
			RejectionNotes:   item.RejectionNotes,
		}
	}
	return &DiscrepancySheetResponse{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status.String(),
		Version:     order.Version,
		Lines:       lines,
	}, nil
}

// SubmitDocumentation files rejection notes and closes the order as
// DiscrepancyReported. A retried submission with identical notes succeeds
// without writing anything, so the version check is skipped for orders
// that already closed; the aggregate rejects diverging notes itself.
func (s *DiscrepancyService) SubmitDocumentation(ctx context.Context, tenantID, orderID uuid.UUID, req SubmitDocumentationRequest) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	lineNotes := make(map[uuid.UUID]string, len(req.Lines))
	for _, line := range req.Lines {
		lineNotes[line.ItemID] = line.RejectionNotes
	}

	if order.Status == supply.StatusDiscrepancyReported {
		if err := order.DocumentDiscrepancies(req.GeneralNotes, lineNotes); err != nil {
			return nil, err
		}
		response := ToPurchaseOrderResponse(order)
		return &response, nil
	}

	if err := checkVersion(order, req.Version); err != nil {
		return nil, err
	}
	if err := order.DocumentDiscrepancies(req.GeneralNotes, lineNotes); err != nil {
		return nil, err
	}

	events := order.GetDomainEvents()
	if err := s.orderRepo.SaveWithLockAndEvents(ctx, order, events); err != nil {
		return nil, err
	}
	order.ClearDomainEvents()

	if s.eventPublisher != nil && len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	if s.bucketCache != nil {
		_ = s.bucketCache.Invalidate(ctx, tenantID)
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

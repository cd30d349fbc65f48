package supply

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/restosuite/backend/internal/domain/shared"
	"github.com/restosuite/backend/internal/domain/supply"
)

// BucketCache caches classifier bucket counts per tenant. A nil result
// from GetCounts means cache miss; implementations must never fail a
// request over a cache error.
type BucketCache interface {
	GetCounts(ctx context.Context, tenantID uuid.UUID) (*supply.Counts, error)
	SetCounts(ctx context.Context, tenantID uuid.UUID, counts supply.Counts) error
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// ReceivingService handles purchase order scheduling and delivery inspection
type ReceivingService struct {
	orderRepo      supply.PurchaseOrderRepository
	eventPublisher shared.EventPublisher
	bucketCache    BucketCache
}

// NewReceivingService creates a new ReceivingService
func NewReceivingService(orderRepo supply.PurchaseOrderRepository) *ReceivingService {
	return &ReceivingService{
		orderRepo: orderRepo,
	}
}

// SetEventPublisher sets the publisher for in-process event delivery
func (s *ReceivingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBucketCache sets the bucket counts cache
func (s *ReceivingService) SetBucketCache(cache BucketCache) {
	s.bucketCache = cache
}

// orderNumberAttempts bounds how often Create retries after losing a
// generated order number to a concurrent create.
const orderNumberAttempts = 3

// Create ingests an order approved by the purchasing workflow. Concurrent
// creates can race on the generated order number; the unique index settles
// the race and the loser retries with the next candidate.
func (s *ReceivingService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	var lastErr error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		order, err := supply.NewPurchaseOrder(tenantID, orderNumber, req.SupplierID, req.SupplierName, req.OrderDate)
		if err != nil {
			return nil, err
		}
		for _, item := range req.Items {
			if err := order.AddItem(item.ProductID, item.ProductName, item.ProductCode, item.Quantity, item.UnitPrice); err != nil {
				return nil, err
			}
		}

		err = s.orderRepo.Save(ctx, order)
		if errors.Is(err, shared.ErrAlreadyExists) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		s.invalidateBuckets(ctx, tenantID)

		response := ToPurchaseOrderResponse(order)
		return &response, nil
	}
	return nil, lastErr
}

// GetByID retrieves a purchase order by ID
func (s *ReceivingService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// List retrieves purchase orders with pagination and filtering
func (s *ReceivingService) List(ctx context.Context, tenantID uuid.UUID, filter PurchaseOrderListFilter) (*shared.Paginated[PurchaseOrderResponse], error) {
	repoFilter, err := buildRepositoryFilter(filter)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.FindAllForTenant(ctx, tenantID, repoFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.CountForTenant(ctx, tenantID, repoFilter)
	if err != nil {
		return nil, err
	}

	items := make([]PurchaseOrderResponse, len(orders))
	for i := range orders {
		items[i] = ToPurchaseOrderResponse(&orders[i])
	}
	result := shared.NewPaginated(items, total, repoFilter.Page, repoFilter.PageSize)
	return &result, nil
}

// bucketPageSize is the batch size used when loading open orders for
// classification.
const bucketPageSize = 1000

// Buckets partitions the tenant's orders by pending receiving action.
// Open orders are loaded in batches until exhaustion so the partition
// covers the whole tenant, not just the first page.
func (s *ReceivingService) Buckets(ctx context.Context, tenantID uuid.UUID) (*BucketsResponse, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = bucketPageSize
	filter.Filters["open_only"] = true

	var orders []supply.PurchaseOrder
	for page := 1; ; page++ {
		filter.Page = page
		batch, err := s.orderRepo.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		orders = append(orders, batch...)
		if len(batch) < bucketPageSize {
			break
		}
	}

	buckets := supply.Classify(orders)
	if s.bucketCache != nil {
		_ = s.bucketCache.SetCounts(ctx, tenantID, buckets.Counts())
	}

	response := ToBucketsResponse(buckets)
	return &response, nil
}

// BucketCounts returns cached bucket sizes, recomputing on cache miss
func (s *ReceivingService) BucketCounts(ctx context.Context, tenantID uuid.UUID) (*supply.Counts, error) {
	if s.bucketCache != nil {
		if counts, err := s.bucketCache.GetCounts(ctx, tenantID); err == nil && counts != nil {
			return counts, nil
		}
	}
	buckets, err := s.Buckets(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	counts := buckets.Counts
	return &counts, nil
}

// Schedule records the expected delivery date for an order.
// The request version must match the stored order; a stale version is
// rejected so a second coordinator cannot overwrite unseen changes.
func (s *ReceivingService) Schedule(ctx context.Context, tenantID, orderID uuid.UUID, req ScheduleDeliveryRequest) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(order, req.Version); err != nil {
		return nil, err
	}

	if err := order.Schedule(req.ExpectedDeliveryDate, req.Notes); err != nil {
		return nil, err
	}

	if err := s.saveWithEvents(ctx, order); err != nil {
		return nil, err
	}
	s.invalidateBuckets(ctx, tenantID)

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// MarkInTransit records carrier pickup for a scheduled delivery
func (s *ReceivingService) MarkInTransit(ctx context.Context, tenantID, orderID uuid.UUID, req MarkInTransitRequest) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(order, req.Version); err != nil {
		return nil, err
	}

	if err := order.MarkInTransit(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	s.invalidateBuckets(ctx, tenantID)

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// InspectionSheet builds the pre-filled inspection form for an order
func (s *ReceivingService) InspectionSheet(ctx context.Context, tenantID, orderID uuid.UUID) (*InspectionSheetResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanInspect() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot begin inspection for order in status %s", order.Status))
	}

	drafts := NewInspectionSheet(order)
	responses := make([]InspectionDraftResponse, len(drafts))
	for i, d := range drafts {
		responses[i] = InspectionDraftResponse(d)
	}
	return &InspectionSheetResponse{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status.String(),
		Version:     order.Version,
		Drafts:      responses,
	}, nil
}

// SubmitInspection settles the counted quantities for a delivery
func (s *ReceivingService) SubmitInspection(ctx context.Context, tenantID, orderID uuid.UUID, req SubmitInspectionRequest) (*InspectionResultResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(order, req.Version); err != nil {
		return nil, err
	}

	lines := make([]supply.InspectionLine, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = supply.InspectionLine{
			ItemID:           line.ItemID,
			ReceivedQuantity: line.ReceivedQuantity,
			RejectedQuantity: line.RejectedQuantity,
		}
	}

	result, err := order.ApplyInspection(req.InspectionDate, lines)
	if err != nil {
		return nil, err
	}

	if err := s.saveWithEvents(ctx, order); err != nil {
		return nil, err
	}
	s.invalidateBuckets(ctx, tenantID)

	return &InspectionResultResponse{
		Order:           ToPurchaseOrderResponse(order),
		ReceivedLines:   result.ReceivedLines,
		DiscrepantLines: result.DiscrepantLines,
		TotalRejected:   result.TotalRejected,
	}, nil
}

// saveWithEvents persists the order and its pending events through the
// outbox, then hands the events to the in-process publisher if one is set.
func (s *ReceivingService) saveWithEvents(ctx context.Context, order *supply.PurchaseOrder) error {
	events := order.GetDomainEvents()
	if err := s.orderRepo.SaveWithLockAndEvents(ctx, order, events); err != nil {
		return err
	}
	order.ClearDomainEvents()

	if s.eventPublisher != nil && len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	return nil
}

func (s *ReceivingService) invalidateBuckets(ctx context.Context, tenantID uuid.UUID) {
	if s.bucketCache != nil {
		_ = s.bucketCache.Invalidate(ctx, tenantID)
	}
}

// checkVersion rejects a mutation whose caller saw a stale order
func checkVersion(order *supply.PurchaseOrder, version int) error {
	if order.Version != version {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// buildRepositoryFilter maps the API filter onto the repository filter,
// normalizing status values into the closed enum.
func buildRepositoryFilter(filter PurchaseOrderListFilter) (shared.Filter, error) {
	repoFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		repoFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		repoFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		repoFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		repoFilter.OrderDir = filter.OrderDir
	}
	repoFilter.Search = filter.Search
	if filter.SupplierID != nil {
		repoFilter.Filters["supplier_id"] = *filter.SupplierID
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, raw := range filter.Statuses {
			status, ok := supply.ParseStatus(raw)
			if !ok {
				return shared.Filter{}, shared.NewDomainError("INVALID_INPUT",
					fmt.Sprintf("Unrecognized status filter %q", raw))
			}
			statuses = append(statuses, status.String())
		}
		repoFilter.Filters["statuses"] = statuses
	}
	return repoFilter, nil
}

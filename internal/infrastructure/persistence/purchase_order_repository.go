package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/restosuite/backend/internal/domain/shared"
	"github.com/restosuite/backend/internal/domain/supply"
	"github.com/restosuite/backend/internal/infrastructure/persistence/models"
)

// GormPurchaseOrderRepository is the GORM implementation of the purchase
// order repository. All reads pass through toDomain so raw status values are
// normalized into the closed enum at this boundary; unrecognized values are
// logged and surfaced as StatusUnknown rather than dropped.
type GormPurchaseOrderRepository struct {
	db          *gorm.DB
	logger      *zap.Logger
	outboxSaver shared.OutboxEventSaver
}

// NewGormPurchaseOrderRepository creates a new purchase order repository
func NewGormPurchaseOrderRepository(db *gorm.DB, logger *zap.Logger) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db, logger: logger}
}

// SetOutboxEventSaver wires the transactional outbox saver. When set,
// SaveWithLockAndEvents persists events in the same transaction as the order.
func (r *GormPurchaseOrderRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

func (r *GormPurchaseOrderRepository) toDomain(m *models.PurchaseOrderModel) *supply.PurchaseOrder {
	order, known := m.ToDomain()
	if !known {
		r.logger.Warn("purchase order carries unrecognized status",
			zap.String("order_id", m.ID.String()),
			zap.String("order_number", m.OrderNumber),
			zap.String("raw_status", m.Status))
	}
	return order
}

// FindByID finds a purchase order by ID, items included
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*supply.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

// FindByIDForTenant finds a purchase order by ID scoped to a tenant
func (r *GormPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*supply.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	err := r.db.WithContext(ctx).Preload("Items").
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

// FindAllForTenant finds purchase orders for a tenant with filtering
func (r *GormPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]supply.PurchaseOrder, error) {
	var modelList []models.PurchaseOrderModel
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)

	if err := query.Preload("Items").Find(&modelList).Error; err != nil {
		return nil, err
	}

	orders := make([]supply.PurchaseOrder, len(modelList))
	for i := range modelList {
		orders[i] = *r.toDomain(&modelList[i])
	}
	return orders, nil
}

// FindByStatus finds purchase orders in any of the given statuses
func (r *GormPurchaseOrderRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, statuses []supply.Status, filter shared.Filter) ([]supply.PurchaseOrder, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.String()
	}

	var modelList []models.PurchaseOrderModel
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).
		Where("tenant_id = ? AND status IN ?", tenantID, names)
	query = r.applyFilter(query, filter)

	if err := query.Preload("Items").Find(&modelList).Error; err != nil {
		return nil, err
	}

	orders := make([]supply.PurchaseOrder, len(modelList))
	for i := range modelList {
		orders[i] = *r.toDomain(&modelList[i])
	}
	return orders, nil
}

// CountForTenant counts purchase orders for a tenant matching the filter
func (r *GormPurchaseOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyConditions(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByOrderNumber checks whether an order number is taken within a tenant
func (r *GormPurchaseOrderRepository) ExistsByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).
		Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateOrderNumber generates the next unique order number for a tenant,
// formatted as PO-YYYY-NNNNN
func (r *GormPurchaseOrderRepository) GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("PO-%d-", year)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).
		Where("tenant_id = ? AND order_number LIKE ?", tenantID, prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < 10; attempt++ {
		candidate := fmt.Sprintf("%s%05d", prefix, count+int64(attempt)+1)
		exists, err := r.ExistsByOrderNumber(ctx, tenantID, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not generate unique order number with prefix %s", prefix)
}

// Save persists a new purchase order with its items. A collision on the
// tenant-scoped order number unique index is reported as ErrAlreadyExists
// so the caller can retry with a fresh number.
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *supply.PurchaseOrder) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.PurchaseOrderModelFromDomain(order)
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		return r.saveItems(tx, order)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("order number %s: %w", order.OrderNumber, shared.ErrAlreadyExists)
	}
	return err
}

// SaveWithLock persists an existing order using optimistic locking
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *supply.PurchaseOrder) error {
	return r.SaveWithLockAndEvents(ctx, order, nil)
}

// SaveWithLockAndEvents persists the order and appends domain events to the
// outbox in one transaction. The write is rejected when the stored version no
// longer matches the version the caller loaded.
func (r *GormPurchaseOrderRepository) SaveWithLockAndEvents(ctx context.Context, order *supply.PurchaseOrder, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.PurchaseOrderModel
		err := tx.Select("version").First(&current, "id = ?", order.ID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if current.Version != order.Version {
			return shared.ErrConcurrencyConflict
		}

		expectedVersion := order.Version
		order.Version++

		updates := map[string]interface{}{
			"expected_delivery_date": order.ExpectedDeliveryDate,
			"inspection_date":        order.InspectionDate,
			"status":                 order.Status.String(),
			"notes":                  order.Notes,
			"discrepancy_notes":      order.DiscrepancyNotes,
			"total_amount":           order.TotalAmount,
			"version":                order.Version,
			"updated_at":             time.Now(),
		}

		result := tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ? AND version = ?", order.ID, expectedVersion).
			Updates(updates)
		if result.Error != nil {
			order.Version = expectedVersion
			return result.Error
		}
		if result.RowsAffected == 0 {
			order.Version = expectedVersion
			return shared.ErrConcurrencyConflict
		}

		if err := r.saveItems(tx, order); err != nil {
			order.Version = expectedVersion
			return err
		}

		if len(events) > 0 {
			if r.outboxSaver == nil {
				order.Version = expectedVersion
				return fmt.Errorf("outbox event saver not configured")
			}
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				order.Version = expectedVersion
				return err
			}
		}
		return nil
	})
}

// saveItems syncs line items, removing rows that no longer belong to the order
func (r *GormPurchaseOrderRepository) saveItems(tx *gorm.DB, order *supply.PurchaseOrder) error {
	keep := make([]uuid.UUID, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		keep = append(keep, item.ID)
	}

	stale := tx.Where("order_id = ?", order.ID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	if err := stale.Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
		return err
	}

	for i := range order.Items {
		model := models.PurchaseOrderItemModelFromDomain(&order.Items[i])
		if err := tx.Save(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyFilter applies search, custom filters, sorting and pagination
func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	orderBy := ValidateSortField(filter.OrderBy, PurchaseOrderSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

// applyConditions applies search and custom filters without sorting or paging
func (r *GormPurchaseOrderRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		// LOWER + LIKE keeps the search portable across postgres and sqlite
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(supplier_name) LIKE ?", pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "open_only":
			if open, ok := value.(bool); ok && open {
				query = query.Where("status NOT IN ?", []string{
					supply.StatusReceived.String(),
					supply.StatusDiscrepancyReported.String(),
				})
			}
		case "order_date_from":
			query = query.Where("order_date >= ?", value)
		case "order_date_to":
			query = query.Where("order_date <= ?", value)
		}
	}
	return query
}

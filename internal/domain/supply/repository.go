package supply

import (
	"context"

	"github.com/google/uuid"

	"github.com/restosuite/backend/internal/domain/shared"
)

// PurchaseOrderRepository is the sole gateway for purchase order
// persistence. Implementations normalize raw status values into the closed
// enum on every read and enforce optimistic locking on every write.
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)
	FindByStatus(ctx context.Context, tenantID uuid.UUID, statuses []Status, filter shared.Filter) ([]PurchaseOrder, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (bool, error)
	GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error)

	// Save persists a new order
	Save(ctx context.Context, order *PurchaseOrder) error
	// SaveWithLock persists an existing order, rejecting the write with
	// CONCURRENCY_CONFLICT when the stored version no longer matches
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error
	// SaveWithLockAndEvents persists the order and its pending domain
	// events atomically via the transactional outbox
	SaveWithLockAndEvents(ctx context.Context, order *PurchaseOrder, events []shared.DomainEvent) error
}

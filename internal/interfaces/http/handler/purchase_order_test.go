package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appsupply "github.com/restosuite/backend/internal/application/supply"
	"github.com/restosuite/backend/internal/domain/shared"
	"github.com/restosuite/backend/internal/domain/supply"
	"github.com/restosuite/backend/internal/interfaces/http/dto"
	"github.com/restosuite/backend/internal/interfaces/http/middleware"
)

// MockPurchaseOrderRepository is a mock implementation of supply.PurchaseOrderRepository
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*supply.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supply.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*supply.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*supply.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]supply.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]supply.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, statuses []supply.Status, filter shared.Filter) ([]supply.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, statuses, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]supply.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseOrderRepository) ExistsByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, orderNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseOrderRepository) GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Save(ctx context.Context, order *supply.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *supply.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) SaveWithLockAndEvents(ctx context.Context, order *supply.PurchaseOrder, events []shared.DomainEvent) error {
	args := m.Called(ctx, order, events)
	return args.Error(0)
}

var handlerTenantID = uuid.New()

func setupOrderRouter(repo *MockPurchaseOrderRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	receivingService := appsupply.NewReceivingService(repo)
	discrepancyService := appsupply.NewDiscrepancyService(repo)
	h := NewPurchaseOrderHandler(receivingService, discrepancyService)

	router := gin.New()
	router.Use(middleware.TenantMiddleware())

	orders := router.Group("/api/v1/supply/purchase-orders")
	{
		orders.GET("", h.List)
		orders.POST("", h.Create)
		orders.GET("/buckets", h.Buckets)
		orders.GET("/buckets/counts", h.BucketCounts)
		orders.GET("/:id", h.GetByID)
		orders.POST("/:id/schedule", h.Schedule)
		orders.POST("/:id/transit", h.MarkInTransit)
		orders.GET("/:id/inspection-sheet", h.InspectionSheet)
		orders.POST("/:id/receive", h.SubmitInspection)
		orders.GET("/:id/discrepancies", h.Discrepancies)
		orders.POST("/:id/discrepancies", h.SubmitDiscrepancies)
	}
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(middleware.TenantHeaderKey, handlerTenantID.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newHandlerTestOrder(t *testing.T) *supply.PurchaseOrder {
	t.Helper()
	order, err := supply.NewPurchaseOrder(handlerTenantID, "PO-2026-00007", uuid.New(), "Fresh Farms Co.", time.Now())
	require.NoError(t, err)
	require.NoError(t, order.AddItem(uuid.New(), "Tomatoes", "VEG-001", 50, decimal.NewFromFloat(2.50)))
	return order
}

func newScheduledHandlerOrder(t *testing.T) *supply.PurchaseOrder {
	t.Helper()
	order := newHandlerTestOrder(t)
	require.NoError(t, order.Schedule(time.Now().Add(48*time.Hour), ""))
	order.ClearDomainEvents()
	return order
}

func TestPurchaseOrderHandlerCreate(t *testing.T) {
	t.Run("creates order", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)

		repo.On("GenerateOrderNumber", mock.Anything, handlerTenantID).Return("PO-2026-00042", nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*supply.PurchaseOrder")).Return(nil)

		body := fmt.Sprintf(`{
			"supplier_id": %q,
			"supplier_name": "Fresh Farms Co.",
			"order_date": "2026-08-30T00:00:00Z",
			"items": [
				{"product_id": %q, "product_name": "Tomatoes", "product_code": "VEG-001", "quantity": 50, "unit_price": "2.50"}
			]
		}`, uuid.New(), uuid.New())

		w := doRequest(router, "POST", "/api/v1/supply/purchase-orders", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "PO-2026-00042")
		assert.Contains(t, w.Body.String(), supply.StatusApproved.String())
		repo.AssertExpectations(t)
	})

	t.Run("rejects order without items", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)

		body := fmt.Sprintf(`{
			"supplier_id": %q,
			"supplier_name": "Fresh Farms Co.",
			"order_date": "2026-08-30T00:00:00Z",
			"items": []
		}`, uuid.New())

		w := doRequest(router, "POST", "/api/v1/supply/purchase-orders", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeValidation)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)

		w := doRequest(router, "POST", "/api/v1/supply/purchase-orders", `{not json`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
	})

	t.Run("rejects missing tenant header", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)

		req := httptest.NewRequest("POST", "/api/v1/supply/purchase-orders", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPurchaseOrderHandlerGetByID(t *testing.T) {
	t.Run("returns order", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)
		order := newHandlerTestOrder(t)

		repo.On("FindByIDForTenant", mock.Anything, handlerTenantID, order.ID).Return(order, nil)

		w := doRequest(router, "GET", "/api/v1/supply/purchase-orders/"+order.ID.String(), "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), order.OrderNumber)
	})

	t.Run("returns 404 for missing order", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)
		missing := uuid.New()

		repo.On("FindByIDForTenant", mock.Anything, handlerTenantID, missing).Return(nil, shared.ErrNotFound)

		w := doRequest(router, "GET", "/api/v1/supply/purchase-orders/"+missing.String(), "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeNotFound)
	})

	t.Run("rejects malformed order id", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)

		w := doRequest(router, "GET", "/api/v1/supply/purchase-orders/not-a-uuid", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPurchaseOrderHandlerList(t *testing.T) {
	repo := new(MockPurchaseOrderRepository)
	router := setupOrderRouter(repo)
	order := newHandlerTestOrder(t)

	repo.On("FindAllForTenant", mock.Anything, handlerTenantID, mock.Anything).
		Return([]supply.PurchaseOrder{*order}, nil)
	repo.On("CountForTenant", mock.Anything, handlerTenantID, mock.Anything).Return(int64(1), nil)

	w := doRequest(router, "GET", "/api/v1/supply/purchase-orders?page=1&page_size=20", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestPurchaseOrderHandlerSchedule(t *testing.T) {
	t.Run("schedules delivery", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)
		order := newHandlerTestOrder(t)

		repo.On("FindByIDForTenant", mock.Anything, handlerTenantID, order.ID).Return(order, nil)
		repo.On("SaveWithLockAndEvents", mock.Anything, order, mock.Anything).Return(nil)

		body := `{"expected_delivery_date": "2026-09-03T08:00:00Z", "version": 1}`
		w := doRequest(router, "POST", "/api/v1/supply/purchase-orders/"+order.ID.String()+"/schedule", body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), supply.StatusScheduled.String())
	})

	t.Run("stale version maps to 409", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)
		order := newHandlerTestOrder(t)
		order.IncrementVersion()

		repo.On("FindByIDForTenant", mock.Anything, handlerTenantID, order.ID).Return(order, nil)

		body := `{"expected_delivery_date": "2026-09-03T08:00:00Z", "version": 1}`
		w := doRequest(router, "POST", "/api/v1/supply/purchase-orders/"+order.ID.String()+"/schedule", body)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeConcurrencyConflict)
	})

	t.Run("invalid state maps to 422", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)
		order := newScheduledHandlerOrder(t)
		_, err := order.ApplyInspection(time.Now(), []supply.InspectionLine{
			{ItemID: order.Items[0].ID, ReceivedQuantity: order.Items[0].OrderedQuantity},
		})
		require.NoError(t, err)
		order.ClearDomainEvents()

		repo.On("FindByIDForTenant", mock.Anything, handlerTenantID, order.ID).Return(order, nil)

		body := fmt.Sprintf(`{"expected_delivery_date": "2026-09-03T08:00:00Z", "version": %d}`, order.Version)
		w := doRequest(router, "POST", "/api/v1/supply/purchase-orders/"+order.ID.String()+"/schedule", body)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidState)
	})
}

func TestPurchaseOrderHandlerInspection(t *testing.T) {
	t.Run("inspection sheet defaults received to ordered", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)
		order := newScheduledHandlerOrder(t)

		repo.On("FindByIDForTenant", mock.Anything, handlerTenantID, order.ID).Return(order, nil)

		w := doRequest(router, "GET", "/api/v1/supply/purchase-orders/"+order.ID.String()+"/inspection-sheet", "")

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data appsupply.InspectionSheetResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Drafts, 1)
		assert.Equal(t, int64(50), resp.Data.Drafts[0].ReceivedQuantity)
	})

	t.Run("short delivery settles partially received", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)
		order := newScheduledHandlerOrder(t)

		repo.On("FindByIDForTenant", mock.Anything, handlerTenantID, order.ID).Return(order, nil)
		repo.On("SaveWithLockAndEvents", mock.Anything, order, mock.Anything).Return(nil)

		body := fmt.Sprintf(`{
			"inspection_date": "2026-09-03T10:00:00Z",
			"version": %d,
			"lines": [{"item_id": %q, "received_quantity": 40}]
		}`, order.Version, order.Items[0].ID)
		w := doRequest(router, "POST", "/api/v1/supply/purchase-orders/"+order.ID.String()+"/receive", body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), supply.StatusPartiallyReceived.String())
	})

	t.Run("diverging rejected quantity maps to 422", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)
		order := newScheduledHandlerOrder(t)

		repo.On("FindByIDForTenant", mock.Anything, handlerTenantID, order.ID).Return(order, nil)

		body := fmt.Sprintf(`{
			"inspection_date": "2026-09-03T10:00:00Z",
			"version": %d,
			"lines": [{"item_id": %q, "received_quantity": 40, "rejected_quantity": 3}]
		}`, order.Version, order.Items[0].ID)
		w := doRequest(router, "POST", "/api/v1/supply/purchase-orders/"+order.ID.String()+"/receive", body)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeIntegrity)
	})
}

func TestPurchaseOrderHandlerDiscrepancies(t *testing.T) {
	t.Run("clean order maps to 422 with no discrepancies code", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)
		order := newScheduledHandlerOrder(t)
		_, err := order.ApplyInspection(time.Now(), []supply.InspectionLine{
			{ItemID: order.Items[0].ID, ReceivedQuantity: order.Items[0].OrderedQuantity},
		})
		require.NoError(t, err)
		order.ClearDomainEvents()

		repo.On("FindByIDForTenant", mock.Anything, handlerTenantID, order.ID).Return(order, nil)

		w := doRequest(router, "GET", "/api/v1/supply/purchase-orders/"+order.ID.String()+"/discrepancies", "")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidState)
	})

	t.Run("documents rejected lines", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)
		order := newScheduledHandlerOrder(t)
		_, err := order.ApplyInspection(time.Now(), []supply.InspectionLine{
			{ItemID: order.Items[0].ID, ReceivedQuantity: 40},
		})
		require.NoError(t, err)
		order.ClearDomainEvents()

		repo.On("FindByIDForTenant", mock.Anything, handlerTenantID, order.ID).Return(order, nil)
		repo.On("SaveWithLockAndEvents", mock.Anything, order, mock.Anything).Return(nil)

		body := fmt.Sprintf(`{
			"general_notes": "short on tomatoes",
			"version": %d,
			"lines": [{"item_id": %q, "rejection_notes": "crates crushed in transit"}]
		}`, order.Version, order.Items[0].ID)
		w := doRequest(router, "POST", "/api/v1/supply/purchase-orders/"+order.ID.String()+"/discrepancies", body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), supply.StatusDiscrepancyReported.String())
	})

	t.Run("empty rejection notes are rejected by validation", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		router := setupOrderRouter(repo)
		order := newScheduledHandlerOrder(t)

		body := fmt.Sprintf(`{
			"version": 2,
			"lines": [{"item_id": %q, "rejection_notes": ""}]
		}`, order.Items[0].ID)
		w := doRequest(router, "POST", "/api/v1/supply/purchase-orders/"+order.ID.String()+"/discrepancies", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeValidation)
	})
}

func TestPurchaseOrderHandlerBuckets(t *testing.T) {
	repo := new(MockPurchaseOrderRepository)
	router := setupOrderRouter(repo)
	approved := newHandlerTestOrder(t)
	scheduled := newScheduledHandlerOrder(t)

	repo.On("FindAllForTenant", mock.Anything, handlerTenantID, mock.Anything).
		Return([]supply.PurchaseOrder{*approved, *scheduled}, nil)

	w := doRequest(router, "GET", "/api/v1/supply/purchase-orders/buckets", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data appsupply.BucketsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Schedulable, 1)
	assert.Len(t, resp.Data.Inspectable, 1)
	assert.Equal(t, 1, resp.Data.Counts.Schedulable)
}

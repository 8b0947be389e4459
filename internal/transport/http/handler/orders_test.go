package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/karvix-api/internal/application/order"
	"github.com/karvix-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrderSvc struct{ mock.Mock }

func (m *mockOrderSvc) result(args mock.Arguments) (*domain.Order, error) {
	if o, _ := args.Get(0).(*domain.Order); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderSvc) Create(ctx context.Context, actor order.Actor, req domain.CreateOrderRequest) (*domain.Order, error) {
	return m.result(m.Called(ctx, actor, req))
}

func (m *mockOrderSvc) Get(ctx context.Context, actor order.Actor, orderID string) (*domain.Order, error) {
	return m.result(m.Called(ctx, actor, orderID))
}

func (m *mockOrderSvc) ListMine(ctx context.Context, actor order.Actor) ([]domain.Order, error) {
	args := m.Called(ctx, actor)
	orders, _ := args.Get(0).([]domain.Order)
	return orders, args.Error(1)
}

func (m *mockOrderSvc) UpdateStatus(ctx context.Context, actor order.Actor, orderID string, requested domain.OrderStatus) (*domain.Order, error) {
	return m.result(m.Called(ctx, actor, orderID, requested))
}

func (m *mockOrderSvc) AssignWorker(ctx context.Context, actor order.Actor, orderID, workerID string) (*domain.Order, error) {
	return m.result(m.Called(ctx, actor, orderID, workerID))
}

func (m *mockOrderSvc) AddReview(ctx context.Context, actor order.Actor, orderID string, req domain.AddReviewRequest) (*domain.Order, error) {
	return m.result(m.Called(ctx, actor, orderID, req))
}

func orderReq(method, target, id, body string, userID string, role domain.Role) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	if id != "" {
		r = withChiID(r, id)
	}
	return asUser(r, userID, role)
}

const validOrderBody = `{"title":"Paint the fence","description":"Two coats, white, about 20m","category":"painting",
"location":{"city":"Pune","state":"MH"},"price":120}`

func TestCreateOrder_HappyPath(t *testing.T) {
	svc := &mockOrderSvc{}
	actor := order.Actor{UserID: "c1", Role: domain.RoleCustomer}
	svc.On("Create", mock.Anything, actor, mock.MatchedBy(func(req domain.CreateOrderRequest) bool {
		return req.Category == domain.CategoryPainting && req.Location.City == "Pune"
	})).Return(&domain.Order{OrderID: "o1", CustomerID: "c1", Status: domain.StatusPending}, nil)
	h := NewOrderHandler(svc)
	rr := httptest.NewRecorder()
	h.Create(rr, orderReq(http.MethodPost, "/v1/orders", "", validOrderBody, "c1", domain.RoleCustomer))

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp domain.Order
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, domain.StatusPending, resp.Status)
	svc.AssertExpectations(t)
}

func TestCreateOrder_UnknownCategory(t *testing.T) {
	svc := &mockOrderSvc{}
	h := NewOrderHandler(svc)
	body := `{"title":"Paint the fence","description":"Two coats, white","category":"gardening","location":{"city":"Pune","state":"MH"}}`
	rr := httptest.NewRecorder()
	h.Create(rr, orderReq(http.MethodPost, "/v1/orders", "", body, "c1", domain.RoleCustomer))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_MissingClaims(t *testing.T) {
	h := NewOrderHandler(&mockOrderSvc{})
	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString(validOrderBody)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetOrder_NotAParty(t *testing.T) {
	svc := &mockOrderSvc{}
	svc.On("Get", mock.Anything, order.Actor{UserID: "w9", Role: domain.RoleWorker}, "o1").
		Return(nil, fmt.Errorf("not your order: %w", domain.ErrForbidden))
	h := NewOrderHandler(svc)
	rr := httptest.NewRecorder()
	h.Get(rr, orderReq(http.MethodGet, "/v1/orders/o1", "o1", "", "w9", domain.RoleWorker))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestListMine_EmptyIsArray(t *testing.T) {
	svc := &mockOrderSvc{}
	svc.On("ListMine", mock.Anything, order.Actor{UserID: "b1", Role: domain.RoleBroker}).Return(nil, nil)
	h := NewOrderHandler(svc)
	rr := httptest.NewRecorder()
	h.ListMine(rr, orderReq(http.MethodGet, "/v1/orders", "", "", "b1", domain.RoleBroker))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[]}`, rr.Body.String())
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	svc := &mockOrderSvc{}
	actor := order.Actor{UserID: "w1", Role: domain.RoleWorker}
	svc.On("UpdateStatus", mock.Anything, actor, "o1", domain.StatusCancelled).
		Return(nil, domain.ValidateTransition(domain.StatusAssigned, domain.StatusCancelled, domain.RoleWorker))
	h := NewOrderHandler(svc)
	rr := httptest.NewRecorder()
	h.UpdateStatus(rr, orderReq(http.MethodPut, "/v1/orders/o1/status", "o1", `{"status":"cancelled"}`, "w1", domain.RoleWorker))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Cannot change status from assigned to cancelled as role worker", resp.Error)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	svc := &mockOrderSvc{}
	h := NewOrderHandler(svc)
	rr := httptest.NewRecorder()
	h.UpdateStatus(rr, orderReq(http.MethodPut, "/v1/orders/o1/status", "o1", `{"status":"archived"}`, "b1", domain.RoleBroker))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_ConcurrentEdit(t *testing.T) {
	svc := &mockOrderSvc{}
	svc.On("UpdateStatus", mock.Anything, mock.Anything, "o1", domain.StatusInProgress).
		Return(nil, fmt.Errorf("order o1 changed concurrently: %w", domain.ErrConflict))
	h := NewOrderHandler(svc)
	rr := httptest.NewRecorder()
	h.UpdateStatus(rr, orderReq(http.MethodPut, "/v1/orders/o1/status", "o1", `{"status":"in_progress"}`, "w1", domain.RoleWorker))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUpdateStatus_HappyPath(t *testing.T) {
	svc := &mockOrderSvc{}
	svc.On("UpdateStatus", mock.Anything, order.Actor{UserID: "w1", Role: domain.RoleWorker}, "o1", domain.StatusInProgress).
		Return(&domain.Order{OrderID: "o1", Status: domain.StatusInProgress}, nil)
	h := NewOrderHandler(svc)
	rr := httptest.NewRecorder()
	h.UpdateStatus(rr, orderReq(http.MethodPut, "/v1/orders/o1/status", "o1", `{"status":"in_progress"}`, "w1", domain.RoleWorker))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"in_progress"`)
}

func TestAssignWorker_RequiresWorkerID(t *testing.T) {
	svc := &mockOrderSvc{}
	h := NewOrderHandler(svc)
	rr := httptest.NewRecorder()
	h.AssignWorker(rr, orderReq(http.MethodPut, "/v1/orders/o1/assign", "o1", `{}`, "b1", domain.RoleBroker))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAssignWorker_HappyPath(t *testing.T) {
	svc := &mockOrderSvc{}
	svc.On("AssignWorker", mock.Anything, order.Actor{UserID: "b1", Role: domain.RoleBroker}, "o1", "w1").
		Return(&domain.Order{OrderID: "o1", WorkerID: "w1", Status: domain.StatusAssigned}, nil)
	h := NewOrderHandler(svc)
	rr := httptest.NewRecorder()
	h.AssignWorker(rr, orderReq(http.MethodPut, "/v1/orders/o1/assign", "o1", `{"worker_id":"w1"}`, "b1", domain.RoleBroker))
	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestAddReview_RatingOutOfRange(t *testing.T) {
	svc := &mockOrderSvc{}
	h := NewOrderHandler(svc)
	rr := httptest.NewRecorder()
	h.AddReview(rr, orderReq(http.MethodPost, "/v1/orders/o1/review", "o1", `{"rating":6,"comment":"great"}`, "c1", domain.RoleCustomer))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAddReview_AlreadyReviewed(t *testing.T) {
	svc := &mockOrderSvc{}
	svc.On("AddReview", mock.Anything, mock.Anything, "o1", domain.AddReviewRequest{Rating: 5, Comment: "great"}).
		Return(nil, fmt.Errorf("order already reviewed: %w", domain.ErrConflict))
	h := NewOrderHandler(svc)
	rr := httptest.NewRecorder()
	h.AddReview(rr, orderReq(http.MethodPost, "/v1/orders/o1/review", "o1", `{"rating":5,"comment":"great"}`, "c1", domain.RoleCustomer))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "order already reviewed")
}

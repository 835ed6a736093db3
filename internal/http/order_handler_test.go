package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dipanjanswapna/averzotech-sub001/internal/domain"
	"github.com/dipanjanswapna/averzotech-sub001/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func withOrderID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("order_id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetOrder_Success(t *testing.T) {
	mock := &CheckoutServiceMock{
		Order: &domain.Order{
			ID:     "order-abc",
			TranID: "tran-1",
			Status: domain.OrderStatusProcessing,
		},
	}
	handler := NewOrderHandler(mock, time.Second, zap.NewNop())

	req := withOrderID(httptest.NewRequest(http.MethodGet, "/api/v1/orders/order-abc", nil), "order-abc")
	w := httptest.NewRecorder()
	handler.GetOrder(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var order domain.Order
	require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
	assert.Equal(t, "order-abc", order.ID)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
}

func TestGetOrder_NotFound(t *testing.T) {
	mock := &CheckoutServiceMock{OrderErr: service.ErrOrderNotFound}
	handler := NewOrderHandler(mock, time.Second, zap.NewNop())

	req := withOrderID(httptest.NewRequest(http.MethodGet, "/api/v1/orders/nope", nil), "nope")
	w := httptest.NewRecorder()
	handler.GetOrder(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrder_MissingID(t *testing.T) {
	handler := NewOrderHandler(&CheckoutServiceMock{}, time.Second, zap.NewNop())

	req := withOrderID(httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil), "")
	w := httptest.NewRecorder()
	handler.GetOrder(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

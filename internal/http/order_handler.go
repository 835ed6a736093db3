package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dipanjanswapna/averzotech-sub001/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderHandler backs the order-confirmation view.
type OrderHandler struct {
	checkout service.CheckoutService
	timeout  time.Duration
	logger   *zap.Logger
}

func NewOrderHandler(checkout service.CheckoutService, timeout time.Duration, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		checkout: checkout,
		timeout:  timeout,
		logger:   logger,
	}
}

// GET /api/v1/orders/{order_id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "order_id is required")
		return
	}

	order, err := h.checkout.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		h.logger.Error("failed to load order", zap.String("order_id", orderID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "could not load order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway"
	"github.com/dipanjanswapna/averzotech-sub001/internal/service"
	"go.uber.org/zap"
)

type WalletHandler struct {
	checkout service.CheckoutService
	timeout  time.Duration
	logger   *zap.Logger
}

func NewWalletHandler(checkout service.CheckoutService, timeout time.Duration, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		checkout: checkout,
		timeout:  timeout,
		logger:   logger,
	}
}

// GET /payment/bkash/callback?paymentID=...&status=...
//
// The provider redirects the buyer here after the hosted page. Only
// status=success is worth an execute round-trip; everything else releases the
// pending order.
func (h *WalletHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	paymentID := r.URL.Query().Get("paymentID")
	if paymentID == "" {
		redirectToFailure(w, r, "missing payment id")
		return
	}

	if status := r.URL.Query().Get("status"); status != "success" {
		if err := h.checkout.Abandon(ctx, paymentID); err != nil {
			h.logger.Error("failed to abandon pending order on wallet callback",
				zap.String("payment_id", paymentID), zap.Error(err))
		}
		redirectToFailure(w, r, "payment "+status)
		return
	}

	orderID, err := h.checkout.ExecuteWalletPayment(ctx, paymentID)
	if err != nil {
		h.redirectWalletFailure(w, r, paymentID, err)
		return
	}

	redirectToConfirmation(w, r, orderID)
}

func (h *WalletHandler) redirectWalletFailure(w http.ResponseWriter, r *http.Request, paymentID string, err error) {
	var gatewayErr *gateway.Error
	if errors.As(err, &gatewayErr) {
		redirectToFailure(w, r, gatewayErr.Reason)
		return
	}
	if errors.Is(err, service.ErrOrderNotFound) {
		redirectToFailure(w, r, "no matching order for this payment")
		return
	}

	h.logger.Error("wallet payment execution failed",
		zap.String("payment_id", paymentID), zap.Error(err))
	redirectToFailure(w, r, "could not finalize your order, please contact support")
}

type RefundRequestDTO struct {
	PaymentID string  `json:"paymentId"`
	TrxID     string  `json:"trxId"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
	SKU       string  `json:"sku"`
}

// POST /api/v1/payments/refund
func (h *WalletHandler) Refund(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RefundRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.PaymentID == "" || req.TrxID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "paymentId and trxId are required")
		return
	}
	if req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "amount must be positive")
		return
	}

	resp, err := h.checkout.Refund(ctx, &service.RefundOrderRequest{
		PaymentID: req.PaymentID,
		TrxID:     req.TrxID,
		Amount:    req.Amount,
		Reason:    req.Reason,
		SKU:       req.SKU,
	})
	if err != nil {
		h.handleRefundError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *WalletHandler) handleRefundError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order_not_found", "no order for this payment id")
		return
	}
	if errors.Is(err, service.ErrGatewayNotConfigured) {
		h.logger.Error("refund rejected: gateway credentials missing")
		respondError(w, http.StatusInternalServerError, "configuration_error", "refunds are unavailable")
		return
	}

	var gatewayErr *gateway.Error
	if errors.As(err, &gatewayErr) {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":        "refund failed",
			"errorCode":    "gateway_error",
			"errorMessage": gatewayErr.Reason,
		})
		return
	}

	h.logger.Error("refund failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "could not process refund")
}

package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dipanjanswapna/averzotech-sub001/internal/domain"
	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway/sslcommerz"
	"github.com/dipanjanswapna/averzotech-sub001/internal/service"
	"go.uber.org/zap"
)

// PaymentCallbackHandler receives everything the hosted gateway sends back:
// the three browser callbacks and the server-to-server IPN. All four are
// idempotent; the success callback and the IPN race for the same payment and
// converge on the shared settlement step.
type PaymentCallbackHandler struct {
	checkout service.CheckoutService
	timeout  time.Duration
	logger   *zap.Logger
}

func NewPaymentCallbackHandler(checkout service.CheckoutService, timeout time.Duration, logger *zap.Logger) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{
		checkout: checkout,
		timeout:  timeout,
		logger:   logger,
	}
}

// POST /payment/success
func (h *PaymentCallbackHandler) Success(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := r.ParseForm(); err != nil {
		redirectToFailure(w, r, "unreadable payment callback")
		return
	}

	tranID := r.PostFormValue("tran_id")
	if tranID == "" {
		redirectToFailure(w, r, "missing transaction id")
		return
	}

	orderID, err := h.checkout.Settle(ctx, tranID, confirmationFromForm(r))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			redirectToFailure(w, r, "no matching order for this payment")
			return
		}
		h.logger.Error("settlement failed on success callback",
			zap.String("tran_id", tranID), zap.Error(err))
		redirectToFailure(w, r, "could not finalize your order, please contact support")
		return
	}

	redirectToConfirmation(w, r, orderID)
}

// POST /payment/fail
func (h *PaymentCallbackHandler) Fail(w http.ResponseWriter, r *http.Request) {
	h.abandonAndRedirect(w, r, "payment failed")
}

// POST /payment/cancel
func (h *PaymentCallbackHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.abandonAndRedirect(w, r, "payment cancelled")
}

func (h *PaymentCallbackHandler) abandonAndRedirect(w http.ResponseWriter, r *http.Request, fallbackReason string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := r.ParseForm(); err != nil {
		redirectToFailure(w, r, fallbackReason)
		return
	}

	if tranID := r.PostFormValue("tran_id"); tranID != "" {
		if err := h.checkout.Abandon(ctx, tranID); err != nil {
			h.logger.Error("failed to abandon pending order",
				zap.String("tran_id", tranID), zap.Error(err))
		}
	}

	reason := r.PostFormValue("error")
	if reason == "" {
		reason = fallbackReason
	}
	redirectToFailure(w, r, reason)
}

// POST /payment/ipn
//
// The provider retries until it sees a 2xx and never reads the body, so this
// handler acknowledges every delivery and reports processing failures through
// the log, not the status code.
func (h *PaymentCallbackHandler) IPN(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := r.ParseForm(); err != nil {
		h.logger.Error("unreadable IPN payload", zap.Error(err))
		h.acknowledge(w)
		return
	}

	tranID := r.PostFormValue("tran_id")
	status := r.PostFormValue("status")
	if tranID == "" {
		h.logger.Error("IPN without transaction id", zap.String("status", status))
		h.acknowledge(w)
		return
	}

	switch status {
	case sslcommerz.StatusValid:
		confirmation := confirmationFromForm(r)
		if _, err := h.checkout.Settle(ctx, tranID, confirmation); err != nil {
			// ErrOrderNotFound means a transaction id this system never
			// issued; not worth more than the acknowledgement.
			if !errors.Is(err, service.ErrOrderNotFound) {
				h.logger.Error("settlement failed on IPN",
					zap.String("tran_id", tranID), zap.Error(err))
			}
		}
	case sslcommerz.StatusFailed, sslcommerz.StatusCancelled:
		if err := h.checkout.Abandon(ctx, tranID); err != nil {
			h.logger.Error("failed to abandon pending order on IPN",
				zap.String("tran_id", tranID), zap.Error(err))
		}
	default:
		h.logger.Warn("IPN with unknown status",
			zap.String("tran_id", tranID), zap.String("status", status))
	}

	h.acknowledge(w)
}

func (h *PaymentCallbackHandler) acknowledge(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "IPN received")
}

// confirmationFromForm captures the provider's payload verbatim for the order
// record, plus the method marker.
func confirmationFromForm(r *http.Request) map[string]string {
	confirmation := make(map[string]string, len(r.PostForm)+1)
	for key := range r.PostForm {
		confirmation[key] = r.PostFormValue(key)
	}
	confirmation["method"] = string(domain.PaymentMethodSSLCommerz)
	return confirmation
}

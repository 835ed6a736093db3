package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dipanjanswapna/averzotech-sub001/internal/domain"
	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway"
	"github.com/dipanjanswapna/averzotech-sub001/internal/service"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout service.CheckoutService, timeout time.Duration, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
		logger:   logger,
	}
}

type CheckoutItemDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int32   `json:"quantity"`
	Price    float64 `json:"price"`
}

type ShippingAddressDTO struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	FullAddress string `json:"fullAddress"`
	District    string `json:"district"`
	Division    string `json:"division"`
}

type InitiateCheckoutRequestDTO struct {
	Items           []CheckoutItemDTO  `json:"items"`
	ShippingAddress ShippingAddressDTO `json:"shippingAddress"`
	UserID          string             `json:"userId"`
	StoreID         string             `json:"storeId"`
	PaymentMethod   string             `json:"paymentMethod"`
	Subtotal        float64            `json:"subtotal"`
	ShippingFee     float64            `json:"shippingFee"`
	Tax             float64            `json:"tax"`
	Discount        float64            `json:"discount"`
	Total           float64            `json:"total"`
}

type CheckoutResponseDTO struct {
	OrderID     string `json:"order_id,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req InitiateCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items := make([]domain.OrderLine, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.OrderLine{
			ProductID: item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		}
	}

	resp, err := h.checkout.InitiateCheckout(ctx, &service.CheckoutRequest{
		Items: items,
		Shipping: domain.ShippingAddress{
			Name:        req.ShippingAddress.Name,
			Email:       req.ShippingAddress.Email,
			Phone:       req.ShippingAddress.Phone,
			FullAddress: req.ShippingAddress.FullAddress,
			District:    req.ShippingAddress.District,
			Division:    req.ShippingAddress.Division,
		},
		UserID:  req.UserID,
		StoreID: req.StoreID,
		Method:  domain.PaymentMethod(req.PaymentMethod),
		Totals: domain.Totals{
			Subtotal: req.Subtotal,
			Shipping: req.ShippingFee,
			Tax:      req.Tax,
			Discount: req.Discount,
			Total:    req.Total,
		},
	})
	if err != nil {
		h.handleCheckoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		OrderID:     resp.OrderID,
		RedirectURL: resp.RedirectURL,
	})
}

func (h *CheckoutHandler) handleCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		respondError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
		return
	}

	if errors.Is(err, service.ErrGatewayNotConfigured) {
		h.logger.Error("checkout rejected: gateway credentials missing",
			zap.String("request_id", getRequestID(r.Context())))
		respondError(w, http.StatusInternalServerError, "configuration_error",
			"payment method is unavailable")
		return
	}

	var gatewayErr *gateway.Error
	if errors.As(err, &gatewayErr) {
		h.logger.Error("checkout rejected by payment gateway", zap.Error(err))
		respondError(w, http.StatusBadGateway, "gateway_error", gatewayErr.Reason)
		return
	}

	h.logger.Error("checkout failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "could not initiate checkout")
}

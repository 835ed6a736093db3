package service

import (
	"context"
	"errors"

	"github.com/dipanjanswapna/averzotech-sub001/internal/domain"
	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway"
	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway/bkash"
	"github.com/dipanjanswapna/averzotech-sub001/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HostedGateway is the redirect-based card/mobile-banking gateway.
type HostedGateway interface {
	CreateSession(ctx context.Context, pending *domain.PendingOrder) (string, error)
}

// WalletGateway is the token-based wallet gateway.
type WalletGateway interface {
	CreatePayment(ctx context.Context, pending *domain.PendingOrder) (paymentID, hostedURL string, err error)
	ExecutePayment(ctx context.Context, paymentID string) (*bkash.ExecuteResponse, error)
	Refund(ctx context.Context, req *bkash.RefundRequest) (*bkash.RefundResponse, error)
}

// EventPublisher announces settled orders to downstream consumers
// (fulfillment, notifications). Publishing is best-effort.
type EventPublisher interface {
	PublishOrderSettled(ctx context.Context, event OrderSettledEvent) error
}

type OrderSettledEvent struct {
	OrderID string  `json:"order_id"`
	TranID  string  `json:"tran_id"`
	UserID  string  `json:"user_id"`
	Total   float64 `json:"total"`
	Method  string  `json:"method"`
}

type CheckoutRequest struct {
	Items    []domain.OrderLine
	Shipping domain.ShippingAddress
	UserID   string
	StoreID  string
	Method   domain.PaymentMethod
	Totals   domain.Totals
}

// CheckoutResponse carries exactly one of OrderID (payment already settled,
// i.e. COD) or RedirectURL (buyer must visit the provider's hosted page).
type CheckoutResponse struct {
	OrderID     string
	RedirectURL string
}

type RefundOrderRequest struct {
	PaymentID string
	TrxID     string
	Amount    float64
	Reason    string
	SKU       string
}

type CheckoutService interface {
	InitiateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error)
	Settle(ctx context.Context, tranID string, confirmation map[string]string) (string, error)
	ExecuteWalletPayment(ctx context.Context, paymentID string) (string, error)
	Abandon(ctx context.Context, tranID string) error
	Refund(ctx context.Context, req *RefundOrderRequest) (*bkash.RefundResponse, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

type CheckoutServiceImpl struct {
	repo   repository.OrderRepository
	hosted HostedGateway
	wallet WalletGateway
	events EventPublisher
	logger *zap.Logger
}

// NewCheckoutService wires the settlement core. hosted, wallet and events may
// be nil when the corresponding integration is not configured; the service
// then rejects requests that need them.
func NewCheckoutService(
	repo repository.OrderRepository,
	hosted HostedGateway,
	wallet WalletGateway,
	events EventPublisher,
	logger *zap.Logger,
) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		repo:   repo,
		hosted: hosted,
		wallet: wallet,
		events: events,
		logger: logger,
	}
}

func (s *CheckoutServiceImpl) InitiateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	switch req.Method {
	case domain.PaymentMethodCOD:
		return s.initiateCOD(ctx, req)
	case domain.PaymentMethodSSLCommerz:
		return s.initiateHosted(ctx, req)
	case domain.PaymentMethodBkash:
		return s.initiateWallet(ctx, req)
	default:
		return nil, &ValidationError{Field: "paymentMethod", Message: ErrUnknownPaymentMethod.Error()}
	}
}

// initiateCOD has no provider round-trip: the pending order is written and
// settled in the same request, so COD goes through the exact same transition
// as every paid method.
func (s *CheckoutServiceImpl) initiateCOD(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	tranID := uuid.NewString()
	if err := s.repo.CreatePendingOrder(ctx, buildPendingOrder(tranID, req)); err != nil {
		return nil, err
	}

	orderID, err := s.Settle(ctx, tranID, map[string]string{"method": string(domain.PaymentMethodCOD)})
	if err != nil {
		return nil, err
	}

	return &CheckoutResponse{OrderID: orderID}, nil
}

func (s *CheckoutServiceImpl) initiateHosted(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	if s.hosted == nil {
		return nil, ErrGatewayNotConfigured
	}

	// The pending order goes down before the provider call, so a crash after
	// the redirect still leaves a durable record of intent.
	tranID := uuid.NewString()
	pending := buildPendingOrder(tranID, req)
	if err := s.repo.CreatePendingOrder(ctx, pending); err != nil {
		return nil, err
	}

	redirectURL, err := s.hosted.CreateSession(ctx, pending)
	if err != nil {
		// No redirect ever happened, so no callback will clean this up.
		if delErr := s.repo.DeletePendingOrder(ctx, tranID); delErr != nil {
			s.logger.Warn("failed to delete pending order after session failure",
				zap.String("tran_id", tranID), zap.Error(delErr))
		}
		return nil, err
	}

	return &CheckoutResponse{RedirectURL: redirectURL}, nil
}

// initiateWallet differs from the hosted flow in key ownership: the provider
// assigns the payment id, so the session is created first and the pending
// order is keyed by what comes back.
func (s *CheckoutServiceImpl) initiateWallet(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	if s.wallet == nil {
		return nil, ErrGatewayNotConfigured
	}

	pending := buildPendingOrder("", req)
	paymentID, hostedURL, err := s.wallet.CreatePayment(ctx, pending)
	if err != nil {
		return nil, err
	}

	pending.TranID = paymentID
	if err := s.repo.CreatePendingOrder(ctx, pending); err != nil {
		return nil, err
	}

	return &CheckoutResponse{RedirectURL: hostedURL}, nil
}

// ExecuteWalletPayment confirms a wallet payment with the provider and, on a
// Completed status, settles it.
func (s *CheckoutServiceImpl) ExecuteWalletPayment(ctx context.Context, paymentID string) (string, error) {
	if s.wallet == nil {
		return "", ErrGatewayNotConfigured
	}

	confirmation, err := s.wallet.ExecutePayment(ctx, paymentID)
	if err != nil {
		return "", err
	}

	if confirmation.TransactionStatus != bkash.TransactionCompleted {
		// Surface the provider's own wording so the failure redirect can
		// show it; the pending order stays for a later retry.
		reason := confirmation.StatusMessage
		if reason == "" {
			reason = "payment not completed: " + confirmation.TransactionStatus
		}
		return "", &gateway.Error{Provider: "bkash", Reason: reason}
	}

	return s.Settle(ctx, paymentID, map[string]string{
		"method":            string(domain.PaymentMethodBkash),
		"paymentID":         confirmation.PaymentID,
		"trxID":             confirmation.TrxID,
		"transactionStatus": confirmation.TransactionStatus,
		"amount":            confirmation.Amount,
		"currency":          confirmation.Currency,
		"customerMsisdn":    confirmation.CustomerMsisdn,
	})
}

// Abandon removes the pending order after a fail/cancel signal. Stock was
// never touched for a pending order, so deletion is the whole cleanup.
// Abandoning an unknown or already-settled transaction is a no-op.
func (s *CheckoutServiceImpl) Abandon(ctx context.Context, tranID string) error {
	err := s.repo.DeletePendingOrder(ctx, tranID)
	if err != nil && !errors.Is(err, repository.ErrPendingOrderNotFound) {
		return err
	}
	return nil
}

func (s *CheckoutServiceImpl) Refund(ctx context.Context, req *RefundOrderRequest) (*bkash.RefundResponse, error) {
	if s.wallet == nil {
		return nil, ErrGatewayNotConfigured
	}

	order, err := s.repo.GetOrderByTranID(ctx, req.PaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	resp, err := s.wallet.Refund(ctx, &bkash.RefundRequest{
		PaymentID: req.PaymentID,
		TrxID:     req.TrxID,
		Amount:    formatAmount(req.Amount),
		SKU:       req.SKU,
		Reason:    req.Reason,
	})
	if err != nil {
		return nil, err
	}

	if resp.TransactionStatus == bkash.TransactionCompleted {
		note := domain.RefundNote{
			Amount:      req.Amount,
			RefundTrxID: resp.RefundTrxID,
			Reason:      req.Reason,
		}
		// The refund went through at the provider; a failed audit note is a
		// logging matter, not a failed refund.
		if noteErr := s.repo.AppendRefundNote(ctx, order.ID, note); noteErr != nil {
			s.logger.Error("failed to record refund note",
				zap.String("order_id", order.ID),
				zap.String("refund_trx_id", resp.RefundTrxID),
				zap.Error(noteErr))
		}
	}

	return resp, nil
}

func (s *CheckoutServiceImpl) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func validateCheckout(req *CheckoutRequest) error {
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items", Message: ErrEmptyCart.Error()}
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			return &ValidationError{Field: "items", Message: "every item needs a product id"}
		}
		if item.Quantity <= 0 {
			return &ValidationError{Field: "items", Message: "quantity must be positive"}
		}
	}
	if req.Shipping.Name == "" {
		return &ValidationError{Field: "shippingAddress.name", Message: "name is required"}
	}
	if req.Shipping.Phone == "" {
		return &ValidationError{Field: "shippingAddress.phone", Message: "phone is required"}
	}
	if req.Shipping.FullAddress == "" {
		return &ValidationError{Field: "shippingAddress.fullAddress", Message: "address is required"}
	}
	return nil
}

func buildPendingOrder(tranID string, req *CheckoutRequest) *domain.PendingOrder {
	return &domain.PendingOrder{
		TranID:   tranID,
		UserID:   req.UserID,
		StoreID:  req.StoreID,
		Items:    req.Items,
		Shipping: req.Shipping,
		Method:   req.Method,
		Totals:   req.Totals,
	}
}

package http

import (
	"context"

	"github.com/dipanjanswapna/averzotech-sub001/internal/domain"
	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway/bkash"
	"github.com/dipanjanswapna/averzotech-sub001/internal/service"
)

// CheckoutServiceMock implements service.CheckoutService for handler tests.
type CheckoutServiceMock struct {
	InitResp *service.CheckoutResponse
	InitErr  error

	SettleOrderID string
	SettleErr     error
	SettleCalls   int
	SettledTrans  []string
	Confirmations []map[string]string

	ExecuteOrderID string
	ExecuteErr     error

	AbandonErr error
	Abandoned  []string

	RefundResp *bkash.RefundResponse
	RefundErr  error

	Order    *domain.Order
	OrderErr error
}

func (m *CheckoutServiceMock) InitiateCheckout(_ context.Context, _ *service.CheckoutRequest) (*service.CheckoutResponse, error) {
	if m.InitErr != nil {
		return nil, m.InitErr
	}
	return m.InitResp, nil
}

func (m *CheckoutServiceMock) Settle(_ context.Context, tranID string, confirmation map[string]string) (string, error) {
	m.SettleCalls++
	m.SettledTrans = append(m.SettledTrans, tranID)
	m.Confirmations = append(m.Confirmations, confirmation)
	if m.SettleErr != nil {
		return "", m.SettleErr
	}
	return m.SettleOrderID, nil
}

func (m *CheckoutServiceMock) ExecuteWalletPayment(_ context.Context, _ string) (string, error) {
	if m.ExecuteErr != nil {
		return "", m.ExecuteErr
	}
	return m.ExecuteOrderID, nil
}

func (m *CheckoutServiceMock) Abandon(_ context.Context, tranID string) error {
	m.Abandoned = append(m.Abandoned, tranID)
	return m.AbandonErr
}

func (m *CheckoutServiceMock) Refund(_ context.Context, _ *service.RefundOrderRequest) (*bkash.RefundResponse, error) {
	if m.RefundErr != nil {
		return nil, m.RefundErr
	}
	return m.RefundResp, nil
}

func (m *CheckoutServiceMock) GetOrder(_ context.Context, _ string) (*domain.Order, error) {
	if m.OrderErr != nil {
		return nil, m.OrderErr
	}
	return m.Order, nil
}

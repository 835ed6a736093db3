package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dipanjanswapna/averzotech-sub001/internal/domain"
	"github.com/dipanjanswapna/averzotech-sub001/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Settle is the single idempotent transition from pending order to order,
// shared by every entry point: COD checkout, the hosted gateway's success
// redirect and IPN, and the wallet execute callback. Whichever caller finds
// the pending order settles it; everyone after that gets the existing order
// id back.
func (s *CheckoutServiceImpl) Settle(ctx context.Context, tranID string, confirmation map[string]string) (string, error) {
	pending, err := s.repo.GetPendingOrder(ctx, tranID)
	if err != nil {
		if errors.Is(err, repository.ErrPendingOrderNotFound) {
			return s.findSettled(ctx, tranID)
		}
		return "", err
	}

	now := time.Now()
	order := &domain.Order{
		ID:             uuid.NewString(),
		TranID:         tranID,
		UserID:         pending.UserID,
		StoreID:        pending.StoreID,
		Items:          pending.Items,
		Shipping:       pending.Shipping,
		Totals:         pending.Totals,
		Status:         domain.OrderStatusProcessing,
		PaymentDetails: confirmation,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.repo.SettleOrder(ctx, order)
	if errors.Is(err, repository.ErrDuplicateTranID) {
		// Lost the race to a concurrent settlement of the same payment.
		return s.findSettled(ctx, tranID)
	}
	if err != nil {
		// The pending order stays: a payment the provider confirmed must
		// remain retryable, never silently dropped.
		return "", &SettlementError{TranID: tranID, Err: err}
	}

	s.logger.Info("order settled",
		zap.String("order_id", order.ID),
		zap.String("tran_id", tranID),
		zap.String("method", confirmation["method"]))

	s.publishSettled(order)
	return order.ID, nil
}

// findSettled resolves a transaction id with no pending order behind it: a
// re-delivered notification for an already-settled payment, or a transaction
// this system never knew.
func (s *CheckoutServiceImpl) findSettled(ctx context.Context, tranID string) (string, error) {
	order, err := s.repo.GetOrderByTranID(ctx, tranID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return "", ErrOrderNotFound
		}
		return "", err
	}
	return order.ID, nil
}

func (s *CheckoutServiceImpl) publishSettled(order *domain.Order) {
	if s.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	event := OrderSettledEvent{
		OrderID: order.ID,
		TranID:  order.TranID,
		UserID:  order.UserID,
		Total:   order.Totals.Total,
		Method:  order.PaymentDetails["method"],
	}
	if err := s.events.PublishOrderSettled(ctx, event); err != nil {
		// The order is already durable; a lost event is a downstream delay,
		// not a lost payment.
		s.logger.Error("failed to publish order-settled event",
			zap.String("order_id", order.ID), zap.Error(err))
	}
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

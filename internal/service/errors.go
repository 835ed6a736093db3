package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to check out")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")

	// ErrOrderNotFound means settlement was invoked for a transaction id with
	// neither a pending order nor a settled order behind it.
	ErrOrderNotFound = errors.New("no order found for transaction id")

	// ErrGatewayNotConfigured is the operator's problem, not the buyer's:
	// the selected payment method has no credentials behind it.
	ErrGatewayNotConfigured = errors.New("payment gateway is not configured")
)

// ValidationError rejects checkout input before anything is persisted or any
// provider is called.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// SettlementError wraps a failure of the atomic settlement transaction. The
// pending order is deliberately left in place so a duplicate notification or
// a refresh can retry the settlement.
type SettlementError struct {
	TranID string
	Err    error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement failed for transaction %s: %v", e.TranID, e.Err)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

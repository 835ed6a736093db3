package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dipanjanswapna/averzotech-sub001/internal/domain"
)

var (
	ErrPendingOrderNotFound = errors.New("pending order not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found")

	// ErrDuplicateTranID means an order already exists under the transaction
	// id. A settlement attempt that loses the race to a concurrent one sees
	// this from SettleOrder and must treat the payment as already settled.
	ErrDuplicateTranID = errors.New("order already exists for transaction id")
)

type OrderRepository interface {
	CreatePendingOrder(ctx context.Context, pending *domain.PendingOrder) error
	GetPendingOrder(ctx context.Context, tranID string) (*domain.PendingOrder, error)
	DeletePendingOrder(ctx context.Context, tranID string) error
	DeleteStalePendingOrders(ctx context.Context, olderThan time.Time) (int64, error)

	// SettleOrder atomically inserts the order, decrements the stock counter
	// of every referenced product, and deletes the pending order sharing the
	// order's tran_id. Either all three effects apply or none do.
	SettleOrder(ctx context.Context, order *domain.Order) error

	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrderByTranID(ctx context.Context, tranID string) (*domain.Order, error)
	AppendRefundNote(ctx context.Context, orderID string, note domain.RefundNote) error
}

package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodCOD        PaymentMethod = "COD"
	PaymentMethodSSLCommerz PaymentMethod = "SSLCOMMERZ"
	PaymentMethodBkash      PaymentMethod = "BKASH"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusFulfilled  OrderStatus = "Fulfilled"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFulfilled || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

func CanTransitionTo(from, to OrderStatus) bool {
	switch from {
	case OrderStatusProcessing:
		return to == OrderStatusShipped || to == OrderStatusCancelled
	case OrderStatusShipped:
		return to == OrderStatusFulfilled || to == OrderStatusCancelled
	default:
		return false
	}
}

type OrderLine struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name" json:"name"`
	Quantity  int32   `bson:"quantity" json:"quantity"`
	UnitPrice float64 `bson:"unit_price" json:"unit_price"`
}

type ShippingAddress struct {
	Name        string `bson:"name" json:"name"`
	Email       string `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string `bson:"phone" json:"phone"`
	FullAddress string `bson:"full_address" json:"full_address"`
	District    string `bson:"district,omitempty" json:"district,omitempty"`
	Division    string `bson:"division,omitempty" json:"division,omitempty"`
}

type Totals struct {
	Subtotal float64 `bson:"subtotal" json:"subtotal"`
	Shipping float64 `bson:"shipping" json:"shipping"`
	Tax      float64 `bson:"tax" json:"tax"`
	Discount float64 `bson:"discount" json:"discount"`
	Total    float64 `bson:"total" json:"total"`
}

// PendingOrder is the provisional record of checkout intent, keyed by the
// payment transaction id. It exists only between checkout initiation and
// settlement (or a fail/cancel signal).
type PendingOrder struct {
	TranID    string          `bson:"_id" json:"tran_id"`
	UserID    string          `bson:"user_id" json:"user_id"`
	StoreID   string          `bson:"store_id,omitempty" json:"store_id,omitempty"`
	Items     []OrderLine     `bson:"items" json:"items"`
	Shipping  ShippingAddress `bson:"shipping" json:"shipping"`
	Method    PaymentMethod   `bson:"payment_method" json:"payment_method"`
	Totals    Totals          `bson:"totals" json:"totals"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
}

type RefundNote struct {
	Amount      float64   `bson:"amount" json:"amount"`
	RefundTrxID string    `bson:"refund_trx_id" json:"refund_trx_id"`
	Reason      string    `bson:"reason" json:"reason"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Order is the durable record created by settlement. At most one Order exists
// per transaction id; the unique index on tran_id enforces this even when two
// settlement attempts race.
type Order struct {
	ID             string            `bson:"_id" json:"id"`
	TranID         string            `bson:"tran_id" json:"tran_id"`
	UserID         string            `bson:"user_id" json:"user_id"`
	StoreID        string            `bson:"store_id,omitempty" json:"store_id,omitempty"`
	Items          []OrderLine       `bson:"items" json:"items"`
	Shipping       ShippingAddress   `bson:"shipping" json:"shipping"`
	Totals         Totals            `bson:"totals" json:"totals"`
	Status         OrderStatus       `bson:"status" json:"status"`
	PaymentDetails map[string]string `bson:"payment_details" json:"payment_details"`
	RefundNotes    []RefundNote      `bson:"refund_notes,omitempty" json:"refund_notes,omitempty"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at" json:"updated_at"`
}

package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookify-backend/pkg/enums"
)

// PaymentOrderCreatedEvent announces a new pending order and its remote handle.
type PaymentOrderCreatedEvent struct {
	OrderID        uuid.UUID            `json:"order_id"`
	GatewayOrderID string               `json:"gateway_order_id"`
	UserID         uuid.UUID            `json:"user_id"`
	Purpose        enums.PaymentPurpose `json:"purpose"`
	AmountMinor    int64                `json:"amount_minor"`
	Currency       string               `json:"currency"`
}

// PaymentSucceededEvent is emitted once a verified payment is committed.
type PaymentSucceededEvent struct {
	OrderID          uuid.UUID            `json:"order_id"`
	GatewayOrderID   string               `json:"gateway_order_id"`
	GatewayPaymentID string               `json:"gateway_payment_id"`
	TransactionID    uuid.UUID            `json:"transaction_id"`
	UserID           uuid.UUID            `json:"user_id"`
	Purpose          enums.PaymentPurpose `json:"purpose"`
	AmountMinor      int64                `json:"amount_minor"`
	Currency         string               `json:"currency"`
	Method           string               `json:"method,omitempty"`
}

// PaymentFailedEvent records a gateway-reported failed attempt.
type PaymentFailedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	UserID           uuid.UUID `json:"user_id"`
	Reason           string    `json:"reason,omitempty"`
}

// PaymentCancelledEvent is emitted when an order is cancelled by its owner or expired by the sweep.
type PaymentCancelledEvent struct {
	OrderID        uuid.UUID                `json:"order_id"`
	GatewayOrderID string                   `json:"gateway_order_id"`
	UserID         uuid.UUID                `json:"user_id"`
	Purpose        enums.PaymentPurpose     `json:"purpose"`
	PreviousStatus enums.PaymentOrderStatus `json:"previous_status"`
	Reason         string                   `json:"reason"`
	CancelledAt    time.Time                `json:"cancelled_at"`
}

// RefundRequiredEvent feeds the refund queue: funds were captured but could not be applied.
type RefundRequiredEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayPaymentID string    `json:"gateway_payment_id,omitempty"`
	UserID           uuid.UUID `json:"user_id"`
	AmountMinor      int64     `json:"amount_minor"`
	Currency         string    `json:"currency"`
	Reason           string    `json:"reason"`
}

const (
	RefundReasonInsufficientInventory = "insufficient_inventory"
	RefundReasonOrderCancelled        = "order_cancelled"
	RefundReasonCancelledAfterCapture = "cancelled_after_capture"
	RefundReasonFulfillmentFailed     = "fulfillment_failed"
)

const (
	CancelReasonUser    = "user_cancelled"
	CancelReasonExpired = "expired"
)

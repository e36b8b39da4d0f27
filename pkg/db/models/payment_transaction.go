package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookify-backend/pkg/enums"
)

// PaymentTransaction is an append-only ledger row for one gateway payment.
type PaymentTransaction struct {
	ID               uuid.UUID                      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID          uuid.UUID                      `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	GatewayPaymentID string                         `gorm:"column:gateway_payment_id;not null;uniqueIndex" json:"gatewayPaymentId"`
	GatewaySignature *string                        `gorm:"column:gateway_signature" json:"-"`
	Status           enums.PaymentTransactionStatus `gorm:"column:status;type:payment_transaction_status;not null" json:"status"`
	Method           *string                        `gorm:"column:method" json:"method,omitempty"`
	AmountPaidMinor  int64                          `gorm:"column:amount_paid_minor;not null" json:"amountPaidMinor"`
	Currency         string                         `gorm:"column:currency;not null" json:"currency"`
	FailureReason    *string                        `gorm:"column:failure_reason" json:"failureReason,omitempty"`
	CapturedAt       *time.Time                     `gorm:"column:captured_at" json:"capturedAt,omitempty"`
	CreatedAt        time.Time                      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

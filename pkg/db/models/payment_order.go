package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bookify-backend/pkg/enums"
)

// PaymentOrder is one priced checkout attempt mirrored by a gateway order.
type PaymentOrder struct {
	ID             uuid.UUID                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	GatewayOrderID string                   `gorm:"column:gateway_order_id;not null;uniqueIndex" json:"gatewayOrderId"`
	UserID         uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Purpose        enums.PaymentPurpose     `gorm:"column:purpose;type:payment_purpose;not null" json:"purpose"`
	Status         enums.PaymentOrderStatus `gorm:"column:status;type:payment_order_status;not null;default:'PENDING'" json:"status"`
	Amount         decimal.Decimal          `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency       string                   `gorm:"column:currency;not null;default:'INR'" json:"currency"`
	BookingID      *uuid.UUID               `gorm:"column:booking_id;type:uuid" json:"bookingId,omitempty"`
	SubscriptionID *uuid.UUID               `gorm:"column:subscription_id;type:uuid" json:"subscriptionId,omitempty"`
	Items          []PaymentOrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CompletedAt    *time.Time               `gorm:"column:completed_at" json:"completedAt,omitempty"`
	CancelledAt    *time.Time               `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// PaymentOrderItem freezes the catalog price of one product line at order time.
type PaymentOrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"productId"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unitPrice"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

package payments

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/internal/bookings"
	"github.com/angelmondragon/bookify-backend/internal/inventory"
	"github.com/angelmondragon/bookify-backend/internal/subscriptions"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
)

// Effect applies or reverses the business consequence of a payment. Both
// methods require the engine's transaction handle.
type Effect interface {
	Apply(ctx context.Context, tx *gorm.DB, order *models.PaymentOrder) error
	// Reverse undoes the order's effect; committed reports whether Apply had
	// been committed for this order.
	Reverse(ctx context.Context, tx *gorm.DB, order *models.PaymentOrder, committed bool) error
}

// Effects maps each payable purpose to exactly one Effect.
type Effects map[enums.PaymentPurpose]Effect

func NewEffects(subs subscriptions.Service, books bookings.Service, stock inventory.Service) (Effects, error) {
	if subs == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	if books == nil {
		return nil, fmt.Errorf("booking service required")
	}
	if stock == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	return Effects{
		enums.PaymentPurposeSubscription:    subscriptionEffect{subs: subs},
		enums.PaymentPurposeServiceBooking:  bookingEffect{bookings: books},
		enums.PaymentPurposeProductPurchase: inventoryEffect{stock: stock},
	}, nil
}

func (e Effects) For(purpose enums.PaymentPurpose) (Effect, error) {
	effect, ok := e[purpose]
	if !ok {
		return nil, fmt.Errorf("no side effect registered for purpose %s", purpose)
	}
	return effect, nil
}

type subscriptionEffect struct {
	subs subscriptions.Service
}

func (e subscriptionEffect) Apply(ctx context.Context, tx *gorm.DB, order *models.PaymentOrder) error {
	if order.SubscriptionID == nil {
		return errors.New("subscription order has no subscription id")
	}
	return e.subs.Confirm(ctx, tx, *order.SubscriptionID)
}

func (e subscriptionEffect) Reverse(ctx context.Context, tx *gorm.DB, order *models.PaymentOrder, _ bool) error {
	if order.SubscriptionID == nil {
		return nil
	}
	return e.subs.Cancel(ctx, tx, *order.SubscriptionID)
}

type bookingEffect struct {
	bookings bookings.Service
}

func (e bookingEffect) Apply(ctx context.Context, tx *gorm.DB, order *models.PaymentOrder) error {
	if order.BookingID == nil {
		return errors.New("booking order has no booking id")
	}
	return e.bookings.MarkInProgress(ctx, tx, *order.BookingID)
}

func (e bookingEffect) Reverse(ctx context.Context, tx *gorm.DB, order *models.PaymentOrder, _ bool) error {
	if order.BookingID == nil {
		return nil
	}
	return e.bookings.Release(ctx, tx, *order.BookingID)
}

type inventoryEffect struct {
	stock inventory.Service
}

func (e inventoryEffect) Apply(ctx context.Context, tx *gorm.DB, order *models.PaymentOrder) error {
	if len(order.Items) == 0 {
		return errors.New("product order has no items")
	}
	return e.stock.Decrement(ctx, tx, linesFor(order))
}

// Reverse restocks only stock that a committed payment actually took.
func (e inventoryEffect) Reverse(ctx context.Context, tx *gorm.DB, order *models.PaymentOrder, committed bool) error {
	if !committed {
		return nil
	}
	return e.stock.Restock(ctx, tx, linesFor(order))
}

func linesFor(order *models.PaymentOrder) []inventory.Line {
	lines := make([]inventory.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bookify-backend/internal/bookings"
	"github.com/angelmondragon/bookify-backend/internal/catalog"
	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
	"github.com/angelmondragon/bookify-backend/pkg/money"
)

// Quote is the server-side price of a request. Items carry the catalog unit
// price frozen at quote time.
type Quote struct {
	Purpose   enums.PaymentPurpose
	Amount    decimal.Decimal
	Items     []models.PaymentOrderItem
	BookingID *uuid.UUID
	Plan      *models.SubscriptionPlan
}

// Pricer computes order amounts from catalog prices only; client-sent prices
// are never read. Stock is not reserved here: availability is decided when the
// payment is applied.
type Pricer struct {
	catalog  catalog.Service
	bookings bookings.Service
}

func NewPricer(catalogSvc catalog.Service, bookingSvc bookings.Service) (*Pricer, error) {
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if bookingSvc == nil {
		return nil, fmt.Errorf("booking service required")
	}
	return &Pricer{catalog: catalogSvc, bookings: bookingSvc}, nil
}

func (p *Pricer) Compute(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (*Quote, error) {
	var (
		quote *Quote
		err   error
	)
	switch in.PaymentFor {
	case enums.PaymentPurposeProductPurchase:
		quote, err = p.priceProducts(ctx, in.Products)
	case enums.PaymentPurposeServiceBooking:
		quote, err = p.priceBooking(ctx, userID, *in.ServiceID, *in.BookingID)
	case enums.PaymentPurposeSubscription:
		quote, err = p.pricePlan(ctx, *in.SubscriptionPlanID)
	default:
		return nil, invalidRequest("payments for this purpose are not accepted", map[string]any{"paymentFor": in.PaymentFor})
	}
	if err != nil {
		return nil, err
	}

	quote.Amount = money.Round(quote.Amount)
	if !quote.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "order amount must be greater than zero").
			WithDetails(map[string]any{"amount": quote.Amount.StringFixed(2)})
	}
	return quote, nil
}

func (p *Pricer) priceProducts(ctx context.Context, lines []ProductLine) (*Quote, error) {
	quantities := make(map[uuid.UUID]int, len(lines))
	order := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}
		if _, seen := quantities[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		quantities[line.ProductID] += qty
	}

	products, err := p.catalog.ProductsByID(ctx, order)
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		Purpose: enums.PaymentPurposeProductPurchase,
		Amount:  decimal.Zero,
		Items:   make([]models.PaymentOrderItem, 0, len(order)),
	}
	for _, id := range order {
		product := products[id]
		qty := quantities[id]
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(qty)))
		quote.Items = append(quote.Items, models.PaymentOrderItem{
			ID:        uuid.New(),
			ProductID: id,
			Quantity:  qty,
			UnitPrice: product.Price,
			Subtotal:  subtotal,
		})
		quote.Amount = quote.Amount.Add(subtotal)
	}
	return quote, nil
}

func (p *Pricer) priceBooking(ctx context.Context, userID, serviceID, bookingID uuid.UUID) (*Quote, error) {
	offering, err := p.catalog.Service(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	booking, err := p.bookings.GetPayable(ctx, userID, bookingID, serviceID)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Purpose:   enums.PaymentPurposeServiceBooking,
		Amount:    offering.Price,
		BookingID: &booking.ID,
	}, nil
}

func (p *Pricer) pricePlan(ctx context.Context, planID uuid.UUID) (*Quote, error) {
	plan, err := p.catalog.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Purpose: enums.PaymentPurposeSubscription,
		Amount:  plan.Price,
		Plan:    plan,
	}, nil
}

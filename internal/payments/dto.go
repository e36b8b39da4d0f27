package payments

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookify-backend/pkg/db/models"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
	"github.com/angelmondragon/bookify-backend/pkg/pagination"
	"github.com/angelmondragon/bookify-backend/pkg/razorpay"
)

// ProductLine is one requested product; a non-positive quantity means one unit.
type ProductLine struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"`
}

// MaxProductQuantity bounds the units of one product in a single order,
// counted after duplicate lines are merged.
const MaxProductQuantity = 1000

// CreateOrderInput is the closed request for minting a payment order. Only the
// fields belonging to PaymentFor may be set.
type CreateOrderInput struct {
	PaymentFor         enums.PaymentPurpose `json:"paymentFor" validate:"required"`
	ServiceID          *uuid.UUID           `json:"serviceId,omitempty"`
	BookingID          *uuid.UUID           `json:"bookingId,omitempty"`
	SubscriptionPlanID *uuid.UUID           `json:"subscriptionPlanId,omitempty"`
	Products           []ProductLine        `json:"products,omitempty" validate:"omitempty,dive"`
}

func (in CreateOrderInput) Validate() error {
	if !in.PaymentFor.IsValid() {
		return invalidRequest("paymentFor is not a supported purpose", map[string]any{"paymentFor": in.PaymentFor})
	}

	switch in.PaymentFor {
	case enums.PaymentPurposeProductPurchase:
		if len(in.Products) == 0 {
			return invalidRequest("products are required for a product purchase", nil)
		}
		totals := make(map[uuid.UUID]int, len(in.Products))
		for i, line := range in.Products {
			if line.ProductID == uuid.Nil {
				return invalidRequest("productId is required", map[string]any{"index": i})
			}
			if line.Quantity > MaxProductQuantity {
				return invalidRequest("quantity exceeds the per-order limit", map[string]any{"index": i, "quantity": line.Quantity, "max": MaxProductQuantity})
			}
			qty := line.Quantity
			if qty <= 0 {
				qty = 1
			}
			totals[line.ProductID] += qty
			if totals[line.ProductID] > MaxProductQuantity {
				return invalidRequest("merged quantity exceeds the per-order limit", map[string]any{"productId": line.ProductID, "max": MaxProductQuantity})
			}
		}
		if in.ServiceID != nil || in.BookingID != nil || in.SubscriptionPlanID != nil {
			return invalidRequest("product purchase accepts only products", nil)
		}
	case enums.PaymentPurposeServiceBooking:
		if in.ServiceID == nil || *in.ServiceID == uuid.Nil {
			return invalidRequest("serviceId is required for a service booking", nil)
		}
		if in.BookingID == nil || *in.BookingID == uuid.Nil {
			return invalidRequest("bookingId is required for a service booking", nil)
		}
		if in.SubscriptionPlanID != nil || len(in.Products) > 0 {
			return invalidRequest("service booking accepts only serviceId and bookingId", nil)
		}
	case enums.PaymentPurposeSubscription:
		if in.SubscriptionPlanID == nil || *in.SubscriptionPlanID == uuid.Nil {
			return invalidRequest("subscriptionPlanId is required for a subscription", nil)
		}
		if in.ServiceID != nil || in.BookingID != nil || len(in.Products) > 0 {
			return invalidRequest("subscription accepts only subscriptionPlanId", nil)
		}
	default:
		return invalidRequest("payments for this purpose are not accepted", map[string]any{"paymentFor": in.PaymentFor})
	}
	return nil
}

// VerifyPaymentInput carries the checkout callback triple.
type VerifyPaymentInput struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

func (in VerifyPaymentInput) Validate() error {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(in.OrderID) == "" {
		missing = append(missing, "orderId")
	}
	if strings.TrimSpace(in.PaymentID) == "" {
		missing = append(missing, "paymentId")
	}
	if strings.TrimSpace(in.Signature) == "" {
		missing = append(missing, "signature")
	}
	if len(missing) > 0 {
		return invalidRequest("missing required payment fields", map[string]any{"missing": missing})
	}
	return nil
}

// CreateOrderResult pairs the remote order handle with the stored order.
type CreateOrderResult struct {
	RemoteOrder *razorpay.Order      `json:"razorpayOrder"`
	Order       *models.PaymentOrder `json:"paymentOrder"`
}

// OrderDetail is the owner-facing view of an order and its ledger.
type OrderDetail struct {
	Order        *models.PaymentOrder        `json:"order"`
	Transactions []models.PaymentTransaction `json:"transactions"`
}

// ListOrdersParams filters the owner's order history.
type ListOrdersParams struct {
	pagination.Params
	Status *enums.PaymentOrderStatus
}

// OrderList is one page of the owner's order history.
type OrderList = pagination.Page[models.PaymentOrder]

func invalidRequest(message string, details map[string]any) error {
	err := pkgerrors.New(pkgerrors.CodeValidation, message)
	if details != nil {
		err = err.WithDetails(details)
	}
	return err
}

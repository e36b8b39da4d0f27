package payments

import (
	"context"

	"github.com/angelmondragon/bookify-backend/pkg/razorpay"
)

// Gateway is the slice of the payment gateway the engine depends on.
// *razorpay.Client satisfies it.
type Gateway interface {
	CreateOrder(ctx context.Context, input razorpay.CreateOrderInput) (*razorpay.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	Currency() string
}

var _ Gateway = (*razorpay.Client)(nil)

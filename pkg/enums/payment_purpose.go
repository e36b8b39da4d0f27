package enums

import "slices"

// PaymentPurpose identifies what a payment order pays for and therefore which
// side effects run once it is captured.
type PaymentPurpose string

const (
	PaymentPurposeProductPurchase PaymentPurpose = "PRODUCT_PURCHASE"
	PaymentPurposeServiceBooking  PaymentPurpose = "SERVICE_BOOKING"
	PaymentPurposeSubscription    PaymentPurpose = "SUBSCRIPTION"
	PaymentPurposeOther           PaymentPurpose = "OTHER"
)

var paymentPurposes = []PaymentPurpose{
	PaymentPurposeProductPurchase,
	PaymentPurposeServiceBooking,
	PaymentPurposeSubscription,
	PaymentPurposeOther,
}

func (p PaymentPurpose) IsValid() bool {
	return slices.Contains(paymentPurposes, p)
}

func (p PaymentPurpose) String() string { return string(p) }

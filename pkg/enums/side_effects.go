package enums

import "slices"

// Statuses of the records a successful payment mutates. Their Postgres enum
// types are created by the initial payments migration.

// BookingStatus tracks a service appointment. Payment only ever moves a
// booking out of PENDING.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "PENDING"
	BookingStatusInProgress BookingStatus = "IN_PROGRESS"
	BookingStatusCompleted  BookingStatus = "COMPLETED"
)

func (s BookingStatus) IsValid() bool {
	return slices.Contains([]BookingStatus{BookingStatusPending, BookingStatusInProgress, BookingStatusCompleted}, s)
}

func (s BookingStatus) String() string { return string(s) }

// SubscriptionStatus mirrors the lifecycle of a paid plan.
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "PENDING"
	SubscriptionStatusConfirmed SubscriptionStatus = "CONFIRMED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

func (s SubscriptionStatus) IsValid() bool {
	return s == SubscriptionStatusPending || s.Cancellable() || s == SubscriptionStatusCancelled
}

// Cancellable reports whether an order cancellation may still cancel the
// subscription it created.
func (s SubscriptionStatus) Cancellable() bool {
	return s == SubscriptionStatusPending || s == SubscriptionStatusConfirmed
}

func (s SubscriptionStatus) String() string { return string(s) }

// PaymentTransactionStatus records the outcome of one captured-payment attempt.
type PaymentTransactionStatus string

const (
	PaymentTransactionStatusSuccess PaymentTransactionStatus = "SUCCESS"
	PaymentTransactionStatusFailed  PaymentTransactionStatus = "FAILED"
)

func (s PaymentTransactionStatus) IsValid() bool {
	return s == PaymentTransactionStatusSuccess || s == PaymentTransactionStatusFailed
}

func (s PaymentTransactionStatus) String() string { return string(s) }

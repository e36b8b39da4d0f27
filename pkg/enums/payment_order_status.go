package enums

// PaymentOrderStatus tracks a payment order through reconciliation. PENDING is
// the only non-terminal state.
type PaymentOrderStatus string

const (
	PaymentOrderStatusPending   PaymentOrderStatus = "PENDING"
	PaymentOrderStatusSuccess   PaymentOrderStatus = "SUCCESS"
	PaymentOrderStatusCancelled PaymentOrderStatus = "CANCELLED"
)

func (s PaymentOrderStatus) IsValid() bool {
	return s == PaymentOrderStatusPending || s.IsTerminal()
}

// IsTerminal reports whether no further transition is allowed.
func (s PaymentOrderStatus) IsTerminal() bool {
	return s == PaymentOrderStatusSuccess || s == PaymentOrderStatusCancelled
}

func (s PaymentOrderStatus) String() string { return string(s) }

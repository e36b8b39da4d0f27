package razorpaywebhook

import (
	"encoding/json"
	"strings"

	pkgerrors "github.com/angelmondragon/bookify-backend/pkg/errors"
)

// Event types the payments engine reacts to.
const (
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentCaptured   = "payment.captured"
	EventPaymentFailed     = "payment.failed"
	EventOrderPaid         = "order.paid"
)

// Event is the subset of a Razorpay webhook body the service reads.
type Event struct {
	ID        string   `json:"-"`
	Entity    string   `json:"entity"`
	AccountID string   `json:"account_id"`
	Type      string   `json:"event"`
	Contains  []string `json:"contains"`
	CreatedAt int64    `json:"created_at"`
	Payload   struct {
		Payment *struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment,omitempty"`
		Order *struct {
			Entity OrderEntity `json:"entity"`
		} `json:"order,omitempty"`
	} `json:"payload"`
}

type PaymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	Method           string `json:"method"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

type OrderEntity struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// ParseEvent decodes a verified webhook body. eventID comes from the
// X-Razorpay-Event-Id header.
func ParseEvent(body []byte, eventID string) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook body")
	}
	if strings.TrimSpace(event.Type) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event type missing")
	}
	event.ID = strings.TrimSpace(eventID)
	return &event, nil
}

// Payment returns the payment entity carried by the event, if any.
func (e *Event) Payment() *PaymentEntity {
	if e == nil || e.Payload.Payment == nil {
		return nil
	}
	return &e.Payload.Payment.Entity
}

// OrderID prefers the order entity and falls back to the payment's order.
func (e *Event) OrderID() string {
	if e == nil {
		return ""
	}
	if e.Payload.Order != nil && e.Payload.Order.Entity.ID != "" {
		return e.Payload.Order.Entity.ID
	}
	if p := e.Payment(); p != nil {
		return p.OrderID
	}
	return ""
}

package razorpay

import "math"

// Payment states reported by the gateway.
const (
	PaymentStatusCreated    = "created"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusCaptured   = "captured"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusFailed     = "failed"
)

type CreateOrderInput struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the remote order handle the checkout widget opens.
type Order struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

type Payment struct {
	ID          string
	OrderID     string
	AmountMinor int64
	Currency    string
	Status      string
	Method      string
	ErrorReason string
}

// IsSettled reports whether funds are held (authorized) or taken (captured).
func (p Payment) IsSettled() bool {
	return p.Status == PaymentStatusCaptured || p.Status == PaymentStatusAuthorized
}

func orderFromMap(body map[string]interface{}) *Order {
	return &Order{
		ID:          stringField(body, "id"),
		AmountMinor: int64Field(body, "amount"),
		Currency:    stringField(body, "currency"),
		Receipt:     stringField(body, "receipt"),
		Status:      stringField(body, "status"),
	}
}

func paymentFromMap(body map[string]interface{}) *Payment {
	return &Payment{
		ID:          stringField(body, "id"),
		OrderID:     stringField(body, "order_id"),
		AmountMinor: int64Field(body, "amount"),
		Currency:    stringField(body, "currency"),
		Status:      stringField(body, "status"),
		Method:      stringField(body, "method"),
		ErrorReason: stringField(body, "error_reason"),
	}
}

func stringField(body map[string]interface{}, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

// int64Field accepts the float64 produced by encoding/json as well as integer types.
func int64Field(body map[string]interface{}, key string) int64 {
	switch v := body[key].(type) {
	case float64:
		return int64(math.Round(v))
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

package enums

import "slices"

// OutboxAggregateType maps to the aggregate_type_enum column.
type OutboxAggregateType string

const (
	AggregatePaymentOrder OutboxAggregateType = "payment_order"
	AggregateSubscription OutboxAggregateType = "subscription"
)

func (a OutboxAggregateType) IsValid() bool {
	return slices.Contains([]OutboxAggregateType{AggregatePaymentOrder, AggregateSubscription}, a)
}

// OutboxEventType maps to the event_type_enum column. Every value is
// published on the payments topic with the type as the "event_type" attribute.
type OutboxEventType string

const (
	EventPaymentOrderCreated   OutboxEventType = "payment_order_created"
	EventPaymentSucceeded      OutboxEventType = "payment_succeeded"
	EventPaymentFailed         OutboxEventType = "payment_failed"
	EventPaymentCancelled      OutboxEventType = "payment_cancelled"
	EventPaymentRefundRequired OutboxEventType = "payment_refund_required"
	EventPaymentOrderExpired   OutboxEventType = "payment_order_expired"
)

var outboxEventTypes = []OutboxEventType{
	EventPaymentOrderCreated,
	EventPaymentSucceeded,
	EventPaymentFailed,
	EventPaymentCancelled,
	EventPaymentRefundRequired,
	EventPaymentOrderExpired,
}

func (e OutboxEventType) IsValid() bool {
	return slices.Contains(outboxEventTypes, e)
}

// RequiresOperator marks events that need a human follow-up, such as a
// captured payment whose order could not be fulfilled.
func (e OutboxEventType) RequiresOperator() bool {
	return e == EventPaymentRefundRequired
}

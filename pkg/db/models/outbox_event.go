package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookify-backend/pkg/enums"
)

// OutboxEvent is a payment lifecycle event written in the same transaction as
// the state change that produced it. Rows are published at least once and
// pruned by the retention job.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:event_type_enum;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:aggregate_type_enum;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
	PublishedAt   *time.Time                `gorm:"column:published_at"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

// FinalAttempt reports whether one more failure exhausts the row's retries.
func (e OutboxEvent) FinalAttempt(maxAttempts int) bool {
	return maxAttempts > 0 && e.AttemptCount+1 >= maxAttempts
}

// Attributes are the Pub/Sub message attributes subscribers filter on.
func (e OutboxEvent) Attributes() map[string]string {
	attrs := map[string]string{
		"event_id":       e.ID.String(),
		"event_type":     string(e.EventType),
		"aggregate_type": string(e.AggregateType),
		"aggregate_id":   e.AggregateID.String(),
		"created_at":     e.CreatedAt.Format(time.RFC3339Nano),
	}
	if e.EventType.RequiresOperator() {
		attrs["requires_operator"] = "true"
	}
	return attrs
}

package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who caused the event: the paying user and the entry
// point (api, webhook, cron) that drove the transition.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Source string    `json:"source,omitempty"`
}

// PayloadEnvelope is the JSON stored in outbox_events.payload and forwarded
// verbatim to subscribers. EventID equals the outbox row id.
type PayloadEnvelope struct {
	Version     int             `json:"version"`
	EventID     string          `json:"eventId"`
	EventType   string          `json:"eventType,omitempty"`
	AggregateID string          `json:"aggregateId,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Actor       *ActorRef       `json:"actor,omitempty"`
	Data        json.RawMessage `json:"data"`
}

package catalog

import (
	"time"

	"github.com/google/uuid"
)

// EventType names the change-event kinds broadcast to subscribers.
type EventType string

const (
	EventUpdated    EventType = "translation.updated"
	EventSubmitted  EventType = "translation.submitted"
	EventApproved   EventType = "translation.approved"
	EventPublished  EventType = "translation.published"
	EventDeprecated EventType = "translation.deprecated"
	EventRolledBack EventType = "translation.rolled_back"

	// EventResync is a stream-control frame: the subscriber's watermark
	// predates the replay buffer, so it must drop local state and re-fetch.
	EventResync EventType = "resync"
)

// Valid reports whether t names a broadcastable change event. Control
// frames such as resync are emitted by the broker, never published into it.
func (t EventType) Valid() bool {
	switch t {
	case EventUpdated, EventSubmitted, EventApproved, EventPublished, EventDeprecated, EventRolledBack:
		return true
	}
	return false
}

// EventForAction maps a mutation action onto the event type it broadcasts.
func EventForAction(a Action) EventType {
	switch a {
	case ActionUpsert:
		return EventUpdated
	case ActionSubmit:
		return EventSubmitted
	case ActionApprove:
		return EventApproved
	case ActionPublish:
		return EventPublished
	case ActionDeprecate:
		return EventDeprecated
	case ActionRollback:
		return EventRolledBack
	}
	return ""
}

// ChangeEvent describes one committed transition. Events are ephemeral:
// they live only in the notifier's replay buffer, never in the store.
// Seq is the broker-assigned stream position; Version is the row version
// clients use for idempotent re-application.
type ChangeEvent struct {
	Seq        int64     `json:"seq,omitempty"`
	Type       EventType `json:"type"`
	KeyName    string    `json:"key"`
	Locale     string    `json:"locale"`
	Namespace  string    `json:"namespace"`
	Status     Status    `json:"status"`
	Version    int64     `json:"version"`
	Value      string    `json:"value,omitempty"`
	Actor      uuid.UUID `json:"actor"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

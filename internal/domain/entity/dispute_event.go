package entity

import "time"

type DisputeEventType string

const (
	EventCreated          DisputeEventType = "created"
	EventStatusChanged    DisputeEventType = "status_changed"
	EventMessageSent      DisputeEventType = "message_sent"
	EventEvidenceUploaded DisputeEventType = "evidence_uploaded"
	EventAssigned         DisputeEventType = "assigned"
	EventEscalated        DisputeEventType = "escalated"
	EventResolved         DisputeEventType = "resolved"
	EventAIAnalyzed       DisputeEventType = "ai_analyzed"
)

// DisputeEvent is one entry in a dispute's append-only audit trail.
// Events are immutable once written and ordered by creation time.
type DisputeEvent struct {
	ID          string           `json:"id" firestore:"id"`
	DisputeID   string           `json:"dispute_id" firestore:"disputeId"`
	Type        DisputeEventType `json:"type" firestore:"type"`
	ActorID     string           `json:"actor_id,omitempty" firestore:"actorId,omitempty"`
	ActorRole   PartyRole        `json:"actor_role" firestore:"actorRole"`
	Description string           `json:"description" firestore:"description"`
	OldValue    string           `json:"old_value,omitempty" firestore:"oldValue,omitempty"`
	NewValue    string           `json:"new_value,omitempty" firestore:"newValue,omitempty"`
	CreatedAt   time.Time        `json:"created_at" firestore:"createdAt"`
}

package entity

import "time"

type PartyRole string
type MessageKind string

const (
	RoleCustomer PartyRole = "customer"
	RoleMerchant PartyRole = "merchant"
	RoleAdmin    PartyRole = "admin"
	RoleSystem   PartyRole = "system"
	RoleAI       PartyRole = "ai"
)

const (
	MessageKindText         MessageKind = "text"
	MessageKindEvidence     MessageKind = "evidence"
	MessageKindStatusChange MessageKind = "status_change"
	MessageKindResolution   MessageKind = "resolution"
	MessageKindAIAnalysis   MessageKind = "ai_analysis"
	MessageKindInternalNote MessageKind = "internal_note"
)

type DisputeMessage struct {
	ID        string      `json:"id" firestore:"id"`
	DisputeID string      `json:"dispute_id" firestore:"disputeId"`
	SenderID  string      `json:"sender_id,omitempty" firestore:"senderId,omitempty"` // empty for system/AI authored messages
	Role      PartyRole   `json:"role" firestore:"role"`
	Content   string      `json:"content" firestore:"content"`
	Kind      MessageKind `json:"kind" firestore:"kind"`

	Attachments []MessageAttachment `json:"attachments,omitempty" firestore:"attachments,omitempty"`

	// Internal messages are only ever shown to admins regardless of VisibleTo.
	Internal  bool        `json:"internal" firestore:"internal"`
	VisibleTo []PartyRole `json:"visible_to" firestore:"visibleTo"`

	// ReadBy maps a party id to the time that party last saw this message.
	// The only field mutated after creation, besides the Deleted soft flag.
	ReadBy  map[string]time.Time `json:"read_by" firestore:"readBy"`
	Deleted bool                 `json:"deleted" firestore:"deleted"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

type MessageAttachment struct {
	URL  string `json:"url" firestore:"url"`
	Type string `json:"type" firestore:"type"`
	Name string `json:"name,omitempty" firestore:"name,omitempty"`
	Size int64  `json:"size,omitempty" firestore:"size,omitempty"`
}

// VisibleToRole reports whether a party with the given role may see the message.
func (m *DisputeMessage) VisibleToRole(role PartyRole) bool {
	if m.Internal {
		return role == RoleAdmin
	}
	if len(m.VisibleTo) == 0 {
		return true
	}
	for _, r := range m.VisibleTo {
		if r == role {
			return true
		}
	}
	return role == RoleAdmin
}

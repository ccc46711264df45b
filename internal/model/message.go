package model

import (
	"sort"
	"time"
)

// MessageID uniquely identifies a chat message
type MessageID string

// ConversationKey identifies an append-only message log. Direct messages
// share one key per user pair regardless of direction; tryout messages are
// keyed by session.
type ConversationKey string

// DirectConversationKey returns the conversation key for a user pair.
// The pair is ordered lexically so both directions map to the same log.
func DirectConversationKey(a, b UserID) ConversationKey {
	ids := []string{string(a), string(b)}
	sort.Strings(ids)
	return ConversationKey("dm:" + ids[0] + ":" + ids[1])
}

// TryoutConversationKey returns the conversation key for a tryout session
func TryoutConversationKey(id TryoutID) ConversationKey {
	return ConversationKey("tryout:" + string(id))
}

// MessageKind categorizes a chat message
type MessageKind string

const (
	MessageKindPlain      MessageKind = "plain"
	MessageKindInvitation MessageKind = "invitation"
	MessageKindSystem     MessageKind = "system"
	MessageKindTournament MessageKind = "tournament_reference"
)

// InvitationStatus is the one mutable sub-field of an invitation message
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// ChatMessage is a persisted chat message. Once created, its kind and body
// are immutable; only status sub-fields (InvitationStatus) may transition.
type ChatMessage struct {
	ID              MessageID       `json:"id"`
	ConversationKey ConversationKey `json:"conversationKey"`
	SenderID        UserID          `json:"senderId"`

	// ReceiverID is set for direct messages; TryoutID for tryout messages
	ReceiverID UserID   `json:"receiverId,omitempty"`
	TryoutID   TryoutID `json:"chatId,omitempty"`

	Kind MessageKind `json:"kind"`
	Body string      `json:"body"`

	// ClientRef is the client-assigned correlation id, echoed back verbatim
	// on the broadcast so the sender can reconcile its optimistic copy
	ClientRef string `json:"clientRef,omitempty"`

	// Kind-specific metadata
	InvitationStatus InvitationStatus `json:"invitationStatus,omitempty"`
	TournamentID     TournamentID     `json:"tournamentId,omitempty"`
	TournamentName   string           `json:"tournamentName,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

package model

// EventType identifies a server-to-client socket event
type EventType string

const (
	// Direct message events
	EventReceiveMessage EventType = "receiveMessage"

	// Tryout chat events
	EventNewTryoutMessage EventType = "newTryoutMessage"
	EventTryoutStarted    EventType = "tryoutStarted"
	EventTryoutEnded      EventType = "tryoutEnded"

	// Offer sub-protocol events
	EventTeamOfferSent     EventType = "teamOfferSent"
	EventTeamOfferAccepted EventType = "teamOfferAccepted"
	EventTeamOfferRejected EventType = "teamOfferRejected"

	// Invitation events
	EventInvitationUpdated EventType = "invitationUpdated"
)

// MessagePayload carries a delivered chat message
type MessagePayload struct {
	Message *ChatMessage `json:"message"`
}

// TryoutMessagePayload carries a tryout chat message
type TryoutMessagePayload struct {
	ChatID  TryoutID     `json:"chatId"`
	Message *ChatMessage `json:"message"`
}

// TryoutStartedPayload announces a newly created session to the applicant
type TryoutStartedPayload struct {
	ChatID  TryoutID     `json:"chatId"`
	TeamID  TeamID       `json:"teamId"`
	Message *ChatMessage `json:"message"`
}

// TryoutEndedPayload is the terminal state broadcast
type TryoutEndedPayload struct {
	ChatID       TryoutID     `json:"chatId"`
	TryoutStatus TryoutStatus `json:"tryoutStatus"`
	EndedBy      UserID       `json:"endedBy"`
	Reason       string       `json:"reason"`
	Message      *ChatMessage `json:"message"`
}

// TeamOfferPayload carries offer sub-protocol broadcasts
type TeamOfferPayload struct {
	ChatID       TryoutID     `json:"chatId"`
	TryoutStatus TryoutStatus `json:"tryoutStatus"`
	Offer        *TeamOffer   `json:"offer,omitempty"`
	Message      *ChatMessage `json:"message"`
}

// InvitationUpdatedPayload announces an invitation status transition
type InvitationUpdatedPayload struct {
	MessageID MessageID        `json:"messageId"`
	Status    InvitationStatus `json:"status"`
}

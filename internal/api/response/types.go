package response

import (
	"time"

	"github.com/scrimline/scrimline-chat/internal/model"
)

// MessageResponse is the API shape of a chat message
type MessageResponse struct {
	ID               string    `json:"id"`
	ConversationKey  string    `json:"conversation_key"`
	SenderID         string    `json:"sender_id"`
	ReceiverID       string    `json:"receiver_id,omitempty"`
	ChatID           string    `json:"chat_id,omitempty"`
	Kind             string    `json:"kind"`
	Body             string    `json:"body"`
	ClientRef        string    `json:"client_ref,omitempty"`
	InvitationStatus string    `json:"invitation_status,omitempty"`
	TournamentID     string    `json:"tournament_id,omitempty"`
	TournamentName   string    `json:"tournament_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// MessageFromModel converts a model message to the API shape
func MessageFromModel(m *model.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:               string(m.ID),
		ConversationKey:  string(m.ConversationKey),
		SenderID:         string(m.SenderID),
		ReceiverID:       string(m.ReceiverID),
		ChatID:           string(m.TryoutID),
		Kind:             string(m.Kind),
		Body:             m.Body,
		ClientRef:        m.ClientRef,
		InvitationStatus: string(m.InvitationStatus),
		TournamentID:     string(m.TournamentID),
		TournamentName:   m.TournamentName,
		CreatedAt:        m.CreatedAt,
	}
}

// MessagesFromModel converts a message slice to the API shape
func MessagesFromModel(msgs []*model.ChatMessage) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageFromModel(m))
	}
	return out
}

// OfferResponse is the API shape of a pending or resolved team offer
type OfferResponse struct {
	Message string    `json:"message"`
	SentBy  string    `json:"sent_by"`
	SentAt  time.Time `json:"sent_at"`
}

// TryoutResponse is the API shape of a tryout session
type TryoutResponse struct {
	ID          string         `json:"id"`
	ApplicantID string         `json:"applicant_id"`
	TeamID      string         `json:"team_id"`
	CaptainID   string         `json:"captain_id"`
	Status      string         `json:"status"`
	Offer       *OfferResponse `json:"offer,omitempty"`
	EndReason   string         `json:"end_reason,omitempty"`
	EndedBy     string         `json:"ended_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TryoutFromModel converts a model session to the API shape
func TryoutFromModel(s *model.TryoutSession) TryoutResponse {
	resp := TryoutResponse{
		ID:          string(s.ID),
		ApplicantID: string(s.ApplicantID),
		TeamID:      string(s.TeamID),
		CaptainID:   string(s.CaptainID),
		Status:      string(s.Status),
		EndReason:   s.EndReason,
		EndedBy:     string(s.EndedBy),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.Offer != nil {
		resp.Offer = &OfferResponse{
			Message: s.Offer.Message,
			SentBy:  string(s.Offer.SentBy),
			SentAt:  s.Offer.SentAt,
		}
	}
	return resp
}

// SessionResponse is the API shape of an issued user session
type SessionResponse struct {
	Token       string    `json:"token"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SessionFromModel converts a model session to the API shape
func SessionFromModel(s *model.UserSession) SessionResponse {
	return SessionResponse{
		Token:       s.Token,
		UserID:      string(s.UserID),
		DisplayName: s.DisplayName,
		ExpiresAt:   s.ExpiresAt,
	}
}

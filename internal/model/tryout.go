package model

import "time"

// TryoutID uniquely identifies a tryout session
type TryoutID string

// TryoutStatus represents the lifecycle state of a tryout session
type TryoutStatus string

const (
	TryoutActive        TryoutStatus = "active"          // Messaging permitted, no offer pending
	TryoutOfferSent     TryoutStatus = "offer_sent"      // Team offer awaiting applicant response
	TryoutOfferAccepted TryoutStatus = "offer_accepted"  // Terminal: applicant joined the team
	TryoutOfferRejected TryoutStatus = "offer_rejected"  // Terminal: applicant declined the offer
	TryoutEndedByTeam   TryoutStatus = "ended_by_team"   // Terminal: team ended the tryout
	TryoutEndedByPlayer TryoutStatus = "ended_by_player" // Terminal: applicant ended the tryout
)

// Terminal reports whether the status has no outbound transitions
func (s TryoutStatus) Terminal() bool {
	switch s {
	case TryoutOfferAccepted, TryoutOfferRejected, TryoutEndedByTeam, TryoutEndedByPlayer:
		return true
	}
	return false
}

// TryoutRole identifies which side of the negotiation an actor is on
type TryoutRole string

const (
	RoleApplicant TryoutRole = "applicant"
	RoleTeam      TryoutRole = "team"
)

// TeamOffer is the team's formal invitation to join, sent within an active
// tryout and itself accept/reject-able
type TeamOffer struct {
	Message string    `json:"message"`
	SentBy  UserID    `json:"sentBy"`
	SentAt  time.Time `json:"sentAt"`
}

// TryoutSession is the stateful negotiation between one applicant and one
// recruiting team. Sessions are never deleted; terminal states are retained
// as history. All mutation goes through the tryout controller's transitions.
type TryoutSession struct {
	ID          TryoutID `json:"id"`
	ApplicantID UserID   `json:"applicantId"`
	TeamID      TeamID   `json:"teamId"`

	// CaptainID is the team's captain of record at session creation.
	// Captain actions are authorized against this, not room membership.
	CaptainID UserID `json:"captainId"`

	Status TryoutStatus `json:"status"`
	Offer  *TeamOffer   `json:"offer,omitempty"`

	// Set only for ended_by_team / ended_by_player
	EndReason string `json:"endReason,omitempty"`
	EndedBy   UserID `json:"endedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RoleOf returns the actor's role in this session, or "" for outsiders
func (t *TryoutSession) RoleOf(userID UserID) TryoutRole {
	switch userID {
	case t.ApplicantID:
		return RoleApplicant
	case t.CaptainID:
		return RoleTeam
	}
	return ""
}

// Participant reports whether the user is the applicant or the captain
func (t *TryoutSession) Participant(userID UserID) bool {
	return t.RoleOf(userID) != ""
}

package request

// SendMessageRequest is the request body for sending a direct message
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Message    string `json:"message"`
	ClientRef  string `json:"client_ref,omitempty"`
}

// SendInvitationRequest is the request body for sending an invitation message
type SendInvitationRequest struct {
	ReceiverID string `json:"receiver_id"`
	Message    string `json:"message"`
	ClientRef  string `json:"client_ref,omitempty"`
}

// SendTournamentReferenceRequest is the request body for sharing a tournament
type SendTournamentReferenceRequest struct {
	ReceiverID   string `json:"receiver_id"`
	TournamentID string `json:"tournament_id"`
	ClientRef    string `json:"client_ref,omitempty"`
}

// RespondInvitationRequest is the request body for answering an invitation
type RespondInvitationRequest struct {
	SenderID string `json:"sender_id"`
	Accept   bool   `json:"accept"`
}

// SendOfferRequest is the request body for sending a team offer
type SendOfferRequest struct {
	Message string `json:"message"`
}

// RespondOfferRequest is the request body for answering a team offer
type RespondOfferRequest struct {
	Accept bool `json:"accept"`
}

// EndTryoutRequest is the request body for ending a tryout
type EndTryoutRequest struct {
	Reason string `json:"reason"`
}

// IssueSessionRequest is the request body for the internal session endpoint
type IssueSessionRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

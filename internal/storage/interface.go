package storage

import (
	"context"

	"github.com/scrimline/scrimline-chat/internal/model"
)

// MessagePage controls pagination for message fetches. After filters to
// messages created strictly after the given message ID ("" = from start;
// an ID absent from the log also reads from the start); Limit caps the
// result size (0 = no cap). Paging by message ID keeps reads stable under
// concurrent appends: new tail appends never shift earlier entries.
type MessagePage struct {
	After model.MessageID
	Limit int
}

// Storage defines the interface for data persistence
type Storage interface {
	// Session operations (sessions are issued by the upstream platform
	// into shared storage; this service validates them)
	SaveSession(ctx context.Context, session *model.UserSession) error
	GetSession(ctx context.Context, token string) (*model.UserSession, error)
	DeleteSession(ctx context.Context, token string) error

	// Team operations (read-mostly; owned upstream)
	SaveTeam(ctx context.Context, team *model.Team) error
	GetTeam(ctx context.Context, id model.TeamID) (*model.Team, error)

	// Application / approach operations. The *If variants persist only if
	// the stored status still equals expect, so two racing actors cannot
	// both move the same record out of pending.
	SaveApplication(ctx context.Context, app *model.TeamApplication) error
	GetApplication(ctx context.Context, id model.ApplicationID) (*model.TeamApplication, error)
	SaveApplicationIf(ctx context.Context, app *model.TeamApplication, expect model.ApplicationStatus) error
	SaveApproach(ctx context.Context, approach *model.RecruitmentApproach) error
	GetApproach(ctx context.Context, id model.ApproachID) (*model.RecruitmentApproach, error)
	SaveApproachIf(ctx context.Context, approach *model.RecruitmentApproach, expect model.ApplicationStatus) error

	// Tryout operations. SaveTryoutIf is the optimistic-concurrency write
	// every state-machine transition goes through: the save succeeds only
	// if the persisted status still equals expect. On conflict it returns
	// an InvalidStateError carrying the now-current status.
	SaveTryout(ctx context.Context, session *model.TryoutSession) error
	GetTryout(ctx context.Context, id model.TryoutID) (*model.TryoutSession, error)
	SaveTryoutIf(ctx context.Context, session *model.TryoutSession, expect model.TryoutStatus) error

	// Message operations: append-only log per conversation. Prior entries
	// are never mutated except the explicit invitation status sub-field.
	AppendMessage(ctx context.Context, msg *model.ChatMessage) error
	ListMessages(ctx context.Context, key model.ConversationKey, page MessagePage) ([]*model.ChatMessage, error)
	SetInvitationStatus(ctx context.Context, key model.ConversationKey, id model.MessageID, status model.InvitationStatus) error
}

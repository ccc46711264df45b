package tryout

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/scrimline/scrimline-chat/internal/dependencies/clock"
	"github.com/scrimline/scrimline-chat/internal/dependencies/random"
	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/storage"
)

// tryoutIDAlphabet is the alphabet for generated session IDs
const tryoutIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Controller owns the tryout negotiation state machine:
//
//	active -> offer_sent -> {offer_accepted, offer_rejected}
//	active -> {ended_by_team, ended_by_player}
//	offer_sent -> {ended_by_team, ended_by_player}
//
// All four right-hand states are terminal. Every transition is conditioned
// on the session's persisted status read immediately before the write
// (SaveTryoutIf), so of two racing actors exactly one moves the session and
// the other gets an InvalidStateError reflecting the new status.
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new tryout Controller
func NewController(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "tryout")),
	}
}

// Get retrieves a session by ID
func (c *Controller) Get(ctx context.Context, id model.TryoutID) (*model.TryoutSession, error) {
	return c.storage.GetTryout(ctx, id)
}

// Start accepts a pending team application and creates a session in the
// active status. The caller must be the recruiting team's captain.
func (c *Controller) Start(ctx context.Context, applicationID model.ApplicationID, captainID model.UserID) (*model.TryoutSession, error) {
	app, err := c.storage.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	team, err := c.storage.GetTeam(ctx, app.TeamID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != captainID {
		return nil, model.ErrUnauthorized
	}

	if app.Status != model.ApplicationPending {
		return nil, model.NewInvalidStateError("startTryout", model.TryoutStatus(app.Status))
	}

	now := c.clock.Now()
	moved := *app
	moved.Status = model.ApplicationInTryout
	moved.UpdatedAt = now
	if err := c.storage.SaveApplicationIf(ctx, &moved, model.ApplicationPending); err != nil {
		return nil, err
	}

	return c.createSession(ctx, app.PlayerID, team, now)
}

// StartFromApproach accepts a pending recruitment approach. Approaches run
// in the opposite direction (team reached out), so the accepting caller is
// the approached player.
func (c *Controller) StartFromApproach(ctx context.Context, approachID model.ApproachID, playerID model.UserID) (*model.TryoutSession, error) {
	approach, err := c.storage.GetApproach(ctx, approachID)
	if err != nil {
		return nil, err
	}
	if approach.PlayerID != playerID {
		return nil, model.ErrUnauthorized
	}

	if approach.Status != model.ApplicationPending {
		return nil, model.NewInvalidStateError("startTryout", model.TryoutStatus(approach.Status))
	}

	team, err := c.storage.GetTeam(ctx, approach.TeamID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	moved := *approach
	moved.Status = model.ApplicationInTryout
	moved.UpdatedAt = now
	if err := c.storage.SaveApproachIf(ctx, &moved, model.ApplicationPending); err != nil {
		return nil, err
	}

	return c.createSession(ctx, playerID, team, now)
}

func (c *Controller) createSession(ctx context.Context, applicantID model.UserID, team *model.Team, now time.Time) (*model.TryoutSession, error) {
	session := &model.TryoutSession{
		ID:          model.TryoutID(c.random.String(12, tryoutIDAlphabet)),
		ApplicantID: applicantID,
		TeamID:      team.ID,
		CaptainID:   team.CaptainID,
		Status:      model.TryoutActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.storage.SaveTryout(ctx, session); err != nil {
		c.logger.Error("failed to save tryout session",
			slog.String("tryout_id", string(session.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("tryout started",
		slog.String("tryout_id", string(session.ID)),
		slog.String("applicant_id", string(applicantID)),
		slog.String("team_id", string(team.ID)),
	)

	return session, nil
}

// CheckMessagingAllowed verifies the session permits chat messages from the
// given sender. Only active sessions accept messages, and only from the two
// participants of record; room membership is a transport convenience, never
// an authorization boundary.
func (c *Controller) CheckMessagingAllowed(ctx context.Context, id model.TryoutID, senderID model.UserID) (*model.TryoutSession, error) {
	session, err := c.storage.GetTryout(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Participant(senderID) {
		return nil, model.ErrUnauthorized
	}
	if session.Status != model.TryoutActive {
		return nil, model.NewInvalidStateError("sendTryoutMessage", session.Status)
	}
	return session, nil
}

// SendOffer transitions active -> offer_sent and records the offer payload.
// Only the captain of record may send an offer.
func (c *Controller) SendOffer(ctx context.Context, id model.TryoutID, captainID model.UserID, message string) (*model.TryoutSession, error) {
	session, err := c.storage.GetTryout(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.RoleOf(captainID) != model.RoleTeam {
		return nil, model.ErrUnauthorized
	}
	if session.Status != model.TryoutActive {
		return nil, model.NewInvalidStateError("sendTeamOffer", session.Status)
	}

	now := c.clock.Now()
	updated := *session
	updated.Status = model.TryoutOfferSent
	updated.Offer = &model.TeamOffer{
		Message: message,
		SentBy:  captainID,
		SentAt:  now,
	}
	updated.UpdatedAt = now

	if err := c.storage.SaveTryoutIf(ctx, &updated, model.TryoutActive); err != nil {
		return nil, err
	}

	c.logger.Info("team offer sent",
		slog.String("tryout_id", string(id)),
		slog.String("captain_id", string(captainID)),
	)
	return &updated, nil
}

// RespondOffer transitions offer_sent -> offer_accepted or offer_rejected.
// Only the applicant of record may respond.
func (c *Controller) RespondOffer(ctx context.Context, id model.TryoutID, applicantID model.UserID, accept bool) (*model.TryoutSession, error) {
	session, err := c.storage.GetTryout(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.RoleOf(applicantID) != model.RoleApplicant {
		return nil, model.ErrUnauthorized
	}
	if session.Status != model.TryoutOfferSent {
		return nil, model.NewInvalidStateError("respondToOffer", session.Status)
	}

	updated := *session
	if accept {
		updated.Status = model.TryoutOfferAccepted
	} else {
		updated.Status = model.TryoutOfferRejected
	}
	updated.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveTryoutIf(ctx, &updated, model.TryoutOfferSent); err != nil {
		return nil, err
	}

	c.logger.Info("offer response recorded",
		slog.String("tryout_id", string(id)),
		slog.String("status", string(updated.Status)),
	)
	return &updated, nil
}

// End terminates the session from active or offer_sent. The terminal status
// depends on the actor's role; an end issued while an offer is pending
// supersedes it. The reason is mandatory and stored.
func (c *Controller) End(ctx context.Context, id model.TryoutID, actorID model.UserID, reason string) (*model.TryoutSession, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, model.ErrReasonRequired
	}

	session, err := c.storage.GetTryout(ctx, id)
	if err != nil {
		return nil, err
	}

	role := session.RoleOf(actorID)
	if role == "" {
		return nil, model.ErrUnauthorized
	}
	if session.Status != model.TryoutActive && session.Status != model.TryoutOfferSent {
		return nil, model.NewInvalidStateError("endTryout", session.Status)
	}

	updated := *session
	if role == model.RoleTeam {
		updated.Status = model.TryoutEndedByTeam
	} else {
		updated.Status = model.TryoutEndedByPlayer
	}
	updated.EndReason = reason
	updated.EndedBy = actorID
	updated.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveTryoutIf(ctx, &updated, session.Status); err != nil {
		return nil, err
	}

	c.logger.Info("tryout ended",
		slog.String("tryout_id", string(id)),
		slog.String("status", string(updated.Status)),
		slog.String("ended_by", string(actorID)),
	)
	return &updated, nil
}

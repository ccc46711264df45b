package factory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/storage"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) seedApplication(appID string) (model.UserID, model.UserID) {
	captain := model.UserID("captain")
	player := model.UserID("player")
	_, err := s.app.SeedTeam(s.ctx, "team-1", "Night Owls", captain)
	s.Require().NoError(err)
	_, err = s.app.SeedApplication(s.ctx, model.ApplicationID(appID), player, "team-1")
	s.Require().NoError(err)
	return captain, player
}

// Test: the full happy path from a pending application to a roster add.
// Captain accepts the application, both sides chat, captain sends an
// offer, player accepts, and the upstream roster is notified.
func (s *IntegrationSuite) TestApplicationToRosterFlow() {
	captain, player := s.seedApplication("app-1")
	s.app.MockRandom.QueueString("tryout000001")

	session, err := s.app.Dispatcher.StartTryout(s.ctx, "app-1", captain)
	s.Require().NoError(err)
	s.Equal(model.TryoutID("tryout000001"), session.ID)
	s.Equal(model.TryoutActive, session.Status)

	// The application leaves the pending pool so it cannot be accepted twice
	app, err := s.app.Storage.GetApplication(s.ctx, "app-1")
	s.Require().NoError(err)
	s.Equal(model.ApplicationInTryout, app.Status)

	_, err = s.app.Dispatcher.SendTryoutMessage(s.ctx, captain, session.ID, "Scrim tonight at 8?", "ref-1")
	s.Require().NoError(err)
	_, err = s.app.Dispatcher.SendTryoutMessage(s.ctx, player, session.ID, "Works for me", "ref-2")
	s.Require().NoError(err)

	session, err = s.app.Dispatcher.SendTeamOffer(s.ctx, session.ID, captain, "Starting roster, two-month trial")
	s.Require().NoError(err)
	s.Equal(model.TryoutOfferSent, session.Status)
	s.Require().NotNil(session.Offer)
	s.Equal(captain, session.Offer.SentBy)

	session, err = s.app.Dispatcher.RespondToOffer(s.ctx, session.ID, player, true)
	s.Require().NoError(err)
	s.Equal(model.TryoutOfferAccepted, session.Status)

	calls := s.app.Roster.Calls()
	s.Require().Len(calls, 1)
	s.Equal(model.TeamID("team-1"), calls[0].TeamID)
	s.Equal(player, calls[0].PlayerID)

	// The conversation log carries the lifecycle as system messages
	history, err := s.app.Dispatcher.History(s.ctx, player, model.TryoutConversationKey(session.ID), storage.MessagePage{})
	s.Require().NoError(err)
	s.Require().Len(history, 5)
	s.Equal(model.MessageKindSystem, history[0].Kind)
	s.Equal("Tryout started", history[0].Body)
	s.Equal("Scrim tonight at 8?", history[1].Body)
	s.Equal("Works for me", history[2].Body)
	s.Equal(model.MessageKindSystem, history[3].Kind)
	s.Equal("Team offer: Starting roster, two-month trial", history[3].Body)
	s.Equal("Offer accepted", history[4].Body)
}

// Test: ending a tryout while an offer is pending supersedes the offer
func (s *IntegrationSuite) TestEndWhileOfferPending() {
	captain, player := s.seedApplication("app-1")
	s.app.MockRandom.QueueString("tryout000001")

	session, err := s.app.Dispatcher.StartTryout(s.ctx, "app-1", captain)
	s.Require().NoError(err)

	_, err = s.app.Dispatcher.SendTeamOffer(s.ctx, session.ID, captain, "Join us")
	s.Require().NoError(err)

	session, err = s.app.Dispatcher.EndTryout(s.ctx, session.ID, captain, "Found another candidate")
	s.Require().NoError(err)
	s.Equal(model.TryoutEndedByTeam, session.Status)
	s.Equal(captain, session.EndedBy)
	s.Equal("Found another candidate", session.EndReason)

	// The superseded offer can no longer be answered; the rejection carries
	// the terminal status so the client can reconcile
	_, err = s.app.Dispatcher.RespondToOffer(s.ctx, session.ID, player, true)
	s.Require().ErrorIs(err, model.ErrInvalidState)
	var ise *model.InvalidStateError
	s.Require().True(errors.As(err, &ise))
	s.Equal(model.TryoutEndedByTeam, ise.Status)

	// Chat in the ended session is rejected and nothing more is stored
	_, err = s.app.Dispatcher.SendTryoutMessage(s.ctx, player, session.ID, "wait", "")
	s.ErrorIs(err, model.ErrInvalidState)

	s.Empty(s.app.Roster.Calls())
}

// Test: an approach runs the same machine with the player as the acceptor
func (s *IntegrationSuite) TestApproachFlowWithRejectedOffer() {
	captain := model.UserID("captain")
	player := model.UserID("player")
	_, err := s.app.SeedTeam(s.ctx, "team-1", "Night Owls", captain)
	s.Require().NoError(err)
	_, err = s.app.SeedApproach(s.ctx, "appr-1", "team-1", player)
	s.Require().NoError(err)

	// The captain cannot accept the team's own approach
	s.app.MockRandom.QueueString("tryout000001")
	_, err = s.app.Dispatcher.StartTryoutFromApproach(s.ctx, "appr-1", captain)
	s.ErrorIs(err, model.ErrUnauthorized)

	session, err := s.app.Dispatcher.StartTryoutFromApproach(s.ctx, "appr-1", player)
	s.Require().NoError(err)
	s.Equal(player, session.ApplicantID)
	s.Equal(captain, session.CaptainID)

	approach, err := s.app.Storage.GetApproach(s.ctx, "appr-1")
	s.Require().NoError(err)
	s.Equal(model.ApplicationInTryout, approach.Status)

	_, err = s.app.Dispatcher.SendTeamOffer(s.ctx, session.ID, captain, "Sub slot for now")
	s.Require().NoError(err)

	session, err = s.app.Dispatcher.RespondToOffer(s.ctx, session.ID, player, false)
	s.Require().NoError(err)
	s.Equal(model.TryoutOfferRejected, session.Status)

	// A rejected offer never touches the roster
	s.Empty(s.app.Roster.Calls())
}

// Test: a roster failure is absorbed, the accepted session stands
func (s *IntegrationSuite) TestRosterFailureDoesNotUnwindAccept() {
	captain, player := s.seedApplication("app-1")
	s.app.Roster.Err = errors.New("platform unavailable")
	s.app.MockRandom.QueueString("tryout000001")

	session, err := s.app.Dispatcher.StartTryout(s.ctx, "app-1", captain)
	s.Require().NoError(err)
	_, err = s.app.Dispatcher.SendTeamOffer(s.ctx, session.ID, captain, "Join us")
	s.Require().NoError(err)

	session, err = s.app.Dispatcher.RespondToOffer(s.ctx, session.ID, player, true)
	s.Require().NoError(err)
	s.Equal(model.TryoutOfferAccepted, session.Status)
	s.Len(s.app.Roster.Calls(), 1)
}

// Test: an application accepted once cannot be accepted again
func (s *IntegrationSuite) TestApplicationAcceptedOnce() {
	captain, _ := s.seedApplication("app-1")
	s.app.MockRandom.QueueString("tryout000001", "tryout000002")

	_, err := s.app.Dispatcher.StartTryout(s.ctx, "app-1", captain)
	s.Require().NoError(err)

	_, err = s.app.Dispatcher.StartTryout(s.ctx, "app-1", captain)
	s.ErrorIs(err, model.ErrInvalidState)
}

// Test: direct messaging, invitations and tournament references flow
// through the same dispatcher and share the pair's conversation log
func (s *IntegrationSuite) TestDirectConversationFlow() {
	alice := model.UserID("alice")
	bob := model.UserID("bob")
	s.app.Tournaments.Summaries["t-1"] = &model.TournamentSummary{
		ID:   "t-1",
		Name: "Winter Invitational",
		Game: "valorant",
	}

	_, err := s.app.Dispatcher.SendDirectMessage(s.ctx, alice, bob, "hey, got a minute?", "ref-1")
	s.Require().NoError(err)

	invitation, err := s.app.Dispatcher.SendInvitation(s.ctx, bob, alice, "Duo queue tonight?", "ref-2")
	s.Require().NoError(err)
	s.Equal(model.InvitationPending, invitation.InvitationStatus)

	_, err = s.app.Dispatcher.SendTournamentReference(s.ctx, alice, bob, "t-1", "ref-3")
	s.Require().NoError(err)

	err = s.app.Dispatcher.RespondToInvitation(s.ctx, alice, bob, invitation.ID, true)
	s.Require().NoError(err)

	key := model.DirectConversationKey(alice, bob)
	history, err := s.app.Dispatcher.History(s.ctx, bob, key, storage.MessagePage{})
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	s.Equal(model.MessageKindPlain, history[0].Kind)
	s.Equal(model.MessageKindInvitation, history[1].Kind)
	s.Equal(model.InvitationAccepted, history[1].InvitationStatus)
	s.Equal(model.MessageKindTournament, history[2].Kind)
	s.Equal("Winter Invitational", history[2].TournamentName)

	// A third party cannot read the pair's log
	_, err = s.app.Dispatcher.History(s.ctx, "mallory", key, storage.MessagePage{})
	s.ErrorIs(err, model.ErrUnauthorized)
}

// Test: sessions issued through the auth service expire on the mock clock
func (s *IntegrationSuite) TestSessionExpiry() {
	session, err := s.app.AuthService.Issue(s.ctx, "alice", "Alice")
	s.Require().NoError(err)

	validated, err := s.app.AuthService.Validate(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(model.UserID("alice"), validated.UserID)

	s.app.MockClock.Advance(25 * time.Hour)
	_, err = s.app.AuthService.Validate(s.ctx, session.Token)
	s.Error(err)
}

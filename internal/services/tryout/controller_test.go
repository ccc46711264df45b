package tryout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/scrimline/scrimline-chat/internal/dependencies/mocks"
	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/storage/memory"
	"github.com/scrimline/scrimline-chat/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ControllerSuite) seedTeam() *model.Team {
	team := &model.Team{
		ID:        "team-1",
		Name:      "Night Owls",
		CaptainID: "captain-1",
		Roster:    []model.UserID{"captain-1"},
	}
	_ = s.storage.SaveTeam(s.ctx, team)
	return team
}

func (s *ControllerSuite) seedApplication(status model.ApplicationStatus) *model.TeamApplication {
	app := &model.TeamApplication{
		ID:       "app-1",
		PlayerID: "player-1",
		TeamID:   "team-1",
		Status:   status,
	}
	_ = s.storage.SaveApplication(s.ctx, app)
	return app
}

func (s *ControllerSuite) seedActiveSession() *model.TryoutSession {
	s.seedTeam()
	s.seedApplication(model.ApplicationPending)
	s.random.QueueString("tryout000001")
	session, err := s.controller.Start(s.ctx, "app-1", "captain-1")
	s.Require().NoError(err)
	return session
}

// Start tests

func (s *ControllerSuite) TestStartCreatesActiveSession() {
	s.seedTeam()
	s.seedApplication(model.ApplicationPending)
	s.random.QueueString("tryout000001")

	session, err := s.controller.Start(s.ctx, "app-1", "captain-1")
	s.Require().NoError(err)

	s.Equal(model.TryoutID("tryout000001"), session.ID)
	s.Equal(model.TryoutActive, session.Status)
	s.Equal(model.UserID("player-1"), session.ApplicantID)
	s.Equal(model.UserID("captain-1"), session.CaptainID)

	app, _ := s.storage.GetApplication(s.ctx, "app-1")
	s.Equal(model.ApplicationInTryout, app.Status)
}

func (s *ControllerSuite) TestStartRejectsNonCaptain() {
	s.seedTeam()
	s.seedApplication(model.ApplicationPending)

	_, err := s.controller.Start(s.ctx, "app-1", "player-2")
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ControllerSuite) TestStartRejectsNonPendingApplication() {
	s.seedTeam()
	s.seedApplication(model.ApplicationInTryout)

	_, err := s.controller.Start(s.ctx, "app-1", "captain-1")
	s.ErrorIs(err, model.ErrInvalidState)
}

func (s *ControllerSuite) TestStartUnknownApplication() {
	s.seedTeam()
	_, err := s.controller.Start(s.ctx, "missing", "captain-1")
	s.ErrorIs(err, model.ErrApplicationNotFound)
}

func (s *ControllerSuite) TestStartFromApproach() {
	s.seedTeam()
	_ = s.storage.SaveApproach(s.ctx, &model.RecruitmentApproach{
		ID:       "apr-1",
		TeamID:   "team-1",
		PlayerID: "player-1",
		Status:   model.ApplicationPending,
	})
	s.random.QueueString("tryout000002")

	session, err := s.controller.StartFromApproach(s.ctx, "apr-1", "player-1")
	s.Require().NoError(err)
	s.Equal(model.TryoutActive, session.Status)

	approach, _ := s.storage.GetApproach(s.ctx, "apr-1")
	s.Equal(model.ApplicationInTryout, approach.Status)
}

func (s *ControllerSuite) TestStartFromApproachRejectsOtherPlayer() {
	s.seedTeam()
	_ = s.storage.SaveApproach(s.ctx, &model.RecruitmentApproach{
		ID:       "apr-1",
		TeamID:   "team-1",
		PlayerID: "player-1",
		Status:   model.ApplicationPending,
	})

	_, err := s.controller.StartFromApproach(s.ctx, "apr-1", "player-2")
	s.ErrorIs(err, model.ErrUnauthorized)
}

// Offer tests

func (s *ControllerSuite) TestSendOfferTransitionsToOfferSent() {
	session := s.seedActiveSession()

	updated, err := s.controller.SendOffer(s.ctx, session.ID, "captain-1", "Join us")
	s.Require().NoError(err)

	s.Equal(model.TryoutOfferSent, updated.Status)
	s.Require().NotNil(updated.Offer)
	s.Equal("Join us", updated.Offer.Message)
	s.Equal(model.UserID("captain-1"), updated.Offer.SentBy)
}

func (s *ControllerSuite) TestSendOfferRejectsApplicant() {
	session := s.seedActiveSession()

	_, err := s.controller.SendOffer(s.ctx, session.ID, "player-1", "Join us")
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ControllerSuite) TestSendOfferRejectsWhenOfferAlreadyPending() {
	session := s.seedActiveSession()
	_, _ = s.controller.SendOffer(s.ctx, session.ID, "captain-1", "Join us")

	_, err := s.controller.SendOffer(s.ctx, session.ID, "captain-1", "Join us again")
	s.ErrorIs(err, model.ErrInvalidState)

	var ise *model.InvalidStateError
	s.Require().True(errors.As(err, &ise))
	s.Equal(model.TryoutOfferSent, ise.Status)
}

func (s *ControllerSuite) TestRespondOfferAccept() {
	session := s.seedActiveSession()
	_, _ = s.controller.SendOffer(s.ctx, session.ID, "captain-1", "Join us")

	updated, err := s.controller.RespondOffer(s.ctx, session.ID, "player-1", true)
	s.Require().NoError(err)
	s.Equal(model.TryoutOfferAccepted, updated.Status)
}

func (s *ControllerSuite) TestRespondOfferReject() {
	session := s.seedActiveSession()
	_, _ = s.controller.SendOffer(s.ctx, session.ID, "captain-1", "Join us")

	updated, err := s.controller.RespondOffer(s.ctx, session.ID, "player-1", false)
	s.Require().NoError(err)
	s.Equal(model.TryoutOfferRejected, updated.Status)
}

func (s *ControllerSuite) TestRespondOfferRejectsCaptain() {
	session := s.seedActiveSession()
	_, _ = s.controller.SendOffer(s.ctx, session.ID, "captain-1", "Join us")

	_, err := s.controller.RespondOffer(s.ctx, session.ID, "captain-1", true)
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ControllerSuite) TestRespondOfferWithoutPendingOffer() {
	session := s.seedActiveSession()

	_, err := s.controller.RespondOffer(s.ctx, session.ID, "player-1", true)
	s.ErrorIs(err, model.ErrInvalidState)
}

// End tests

func (s *ControllerSuite) TestEndByCaptain() {
	session := s.seedActiveSession()

	updated, err := s.controller.End(s.ctx, session.ID, "captain-1", "no show")
	s.Require().NoError(err)
	s.Equal(model.TryoutEndedByTeam, updated.Status)
	s.Equal(model.UserID("captain-1"), updated.EndedBy)
	s.Equal("no show", updated.EndReason)
}

func (s *ControllerSuite) TestEndByApplicant() {
	session := s.seedActiveSession()

	updated, err := s.controller.End(s.ctx, session.ID, "player-1", "found another team")
	s.Require().NoError(err)
	s.Equal(model.TryoutEndedByPlayer, updated.Status)
}

func (s *ControllerSuite) TestEndSupersedesPendingOffer() {
	session := s.seedActiveSession()
	_, _ = s.controller.SendOffer(s.ctx, session.ID, "captain-1", "Join us")

	updated, err := s.controller.End(s.ctx, session.ID, "captain-1", "changed our minds")
	s.Require().NoError(err)
	s.Equal(model.TryoutEndedByTeam, updated.Status)
}

func (s *ControllerSuite) TestEndRequiresReason() {
	session := s.seedActiveSession()

	_, err := s.controller.End(s.ctx, session.ID, "captain-1", "  ")
	s.ErrorIs(err, model.ErrReasonRequired)
}

func (s *ControllerSuite) TestEndRejectsOutsider() {
	session := s.seedActiveSession()

	_, err := s.controller.End(s.ctx, session.ID, "stranger-1", "why not")
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ControllerSuite) TestEndOnTerminalSessionFails() {
	session := s.seedActiveSession()
	_, _ = s.controller.End(s.ctx, session.ID, "captain-1", "no show")

	_, err := s.controller.End(s.ctx, session.ID, "player-1", "me too")
	s.ErrorIs(err, model.ErrInvalidState)

	var ise *model.InvalidStateError
	s.Require().True(errors.As(err, &ise))
	s.Equal(model.TryoutEndedByTeam, ise.Status)
}

func (s *ControllerSuite) TestConcurrentEndsExactlyOneSucceeds() {
	session := s.seedActiveSession()

	var wg sync.WaitGroup
	results := make([]error, 2)
	actors := []model.UserID{"captain-1", "player-1"}
	for i := range actors {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.controller.End(s.ctx, session.ID, actors[i], "racing")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, model.ErrInvalidState)
		}
	}
	s.Equal(1, succeeded)

	final, _ := s.storage.GetTryout(s.ctx, session.ID)
	s.True(final.Status.Terminal())
}

// Messaging gate tests

func (s *ControllerSuite) TestMessagingAllowedWhileActive() {
	session := s.seedActiveSession()

	_, err := s.controller.CheckMessagingAllowed(s.ctx, session.ID, "player-1")
	s.NoError(err)
	_, err = s.controller.CheckMessagingAllowed(s.ctx, session.ID, "captain-1")
	s.NoError(err)
}

func (s *ControllerSuite) TestMessagingRejectedForOutsider() {
	session := s.seedActiveSession()

	_, err := s.controller.CheckMessagingAllowed(s.ctx, session.ID, "stranger-1")
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ControllerSuite) TestMessagingRejectedOnceTerminal() {
	session := s.seedActiveSession()
	_, _ = s.controller.SendOffer(s.ctx, session.ID, "captain-1", "Join us")
	_, _ = s.controller.RespondOffer(s.ctx, session.ID, "player-1", true)

	_, err := s.controller.CheckMessagingAllowed(s.ctx, session.ID, "player-1")
	s.ErrorIs(err, model.ErrInvalidState)

	var ise *model.InvalidStateError
	s.Require().True(errors.As(err, &ise))
	s.Equal(model.TryoutOfferAccepted, ise.Status)
}

package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/scrimline/scrimline-chat/internal/dependencies/mocks"
	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/services/tournament"
	"github.com/scrimline/scrimline-chat/internal/services/tryout"
	"github.com/scrimline/scrimline-chat/internal/storage"
	"github.com/scrimline/scrimline-chat/internal/storage/memory"
	"github.com/scrimline/scrimline-chat/internal/testutil"
)

type recordedEvent struct {
	Room    model.RoomID
	Event   model.EventType
	Payload any
}

// recordingBroadcaster captures fan-out calls for assertions
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) ToRoom(roomID model.RoomID, event model.EventType, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{Room: roomID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) all() []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedEvent(nil), b.events...)
}

// recordingRoster records roster calls and can be told to fail
type recordingRoster struct {
	calls []model.UserID
	err   error
}

func (r *recordingRoster) AddPlayer(ctx context.Context, teamID model.TeamID, playerID model.UserID) error {
	r.calls = append(r.calls, playerID)
	return r.err
}

type DispatcherSuite struct {
	suite.Suite
	storage     *memory.Storage
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	broadcaster *recordingBroadcaster
	roster      *recordingRoster
	dispatcher  *Dispatcher
	ctx         context.Context
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.broadcaster = &recordingBroadcaster{}
	s.roster = &recordingRoster{}
	s.ctx = context.Background()

	logger := testutil.NopLogger()
	tryouts := tryout.NewController(s.storage, s.clock, s.random, logger)
	tournaments := &tournament.StaticDirectory{
		Summaries: map[model.TournamentID]*model.TournamentSummary{
			"tour-1": {ID: "tour-1", Name: "Summer Invitational"},
		},
	}
	s.dispatcher = NewDispatcher(s.storage, tryouts, s.roster, tournaments, s.broadcaster, s.clock, logger)
}

func (s *DispatcherSuite) seedActiveTryout() *model.TryoutSession {
	_ = s.storage.SaveTeam(s.ctx, &model.Team{
		ID:        "team-1",
		Name:      "Night Owls",
		CaptainID: "captain-1",
		Roster:    []model.UserID{"captain-1"},
	})
	_ = s.storage.SaveApplication(s.ctx, &model.TeamApplication{
		ID:       "app-1",
		PlayerID: "player-1",
		TeamID:   "team-1",
		Status:   model.ApplicationPending,
	})
	s.random.QueueString("tryout000001")
	session, err := s.dispatcher.StartTryout(s.ctx, "app-1", "captain-1")
	s.Require().NoError(err)
	s.broadcaster.events = nil
	return session
}

func (s *DispatcherSuite) eventsOfType(event model.EventType) []recordedEvent {
	var out []recordedEvent
	for _, e := range s.broadcaster.all() {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// Direct messages

func (s *DispatcherSuite) TestSendDirectMessagePersistsThenBroadcasts() {
	msg, err := s.dispatcher.SendDirectMessage(s.ctx, "alice", "bob", "hello", "ref-1")
	s.Require().NoError(err)

	s.NotEmpty(msg.ID)
	s.Equal("ref-1", msg.ClientRef)
	s.Equal(model.DirectConversationKey("alice", "bob"), msg.ConversationKey)

	stored, err := s.storage.ListMessages(s.ctx, msg.ConversationKey, storage.MessagePage{})
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.Equal(msg.ID, stored[0].ID)

	events := s.eventsOfType(model.EventReceiveMessage)
	s.Require().Len(events, 2)
	s.Equal(model.PersonalRoom("bob"), events[0].Room)
	s.Equal(model.PersonalRoom("alice"), events[1].Room)

	payload := events[0].Payload.(model.MessagePayload)
	s.Equal("ref-1", payload.Message.ClientRef)
}

func (s *DispatcherSuite) TestSelfDirectedMessageBroadcastsOnce() {
	_, err := s.dispatcher.SendDirectMessage(s.ctx, "alice", "alice", "note to self", "r1")
	s.Require().NoError(err)

	events := s.eventsOfType(model.EventReceiveMessage)
	s.Require().Len(events, 1)
	s.Equal(model.PersonalRoom("alice"), events[0].Room)
}

func (s *DispatcherSuite) TestSendDirectMessageRejectsEmptyBody() {
	_, err := s.dispatcher.SendDirectMessage(s.ctx, "alice", "bob", "   ", "ref-1")
	s.ErrorIs(err, model.ErrEmptyMessage)
	s.Empty(s.broadcaster.all())
}

func (s *DispatcherSuite) TestDirectConversationSharedAcrossDirections() {
	_, err := s.dispatcher.SendDirectMessage(s.ctx, "alice", "bob", "hi bob", "r1")
	s.Require().NoError(err)
	_, err = s.dispatcher.SendDirectMessage(s.ctx, "bob", "alice", "hi alice", "r2")
	s.Require().NoError(err)

	stored, err := s.storage.ListMessages(s.ctx, model.DirectConversationKey("bob", "alice"), storage.MessagePage{})
	s.Require().NoError(err)
	s.Len(stored, 2)
}

// Invitations

func (s *DispatcherSuite) TestInvitationLifecycle() {
	msg, err := s.dispatcher.SendInvitation(s.ctx, "captain-1", "player-1", "Come scrim with us", "ref-inv")
	s.Require().NoError(err)
	s.Equal(model.MessageKindInvitation, msg.Kind)
	s.Equal(model.InvitationPending, msg.InvitationStatus)

	err = s.dispatcher.RespondToInvitation(s.ctx, "player-1", "captain-1", msg.ID, true)
	s.Require().NoError(err)

	stored, _ := s.storage.ListMessages(s.ctx, msg.ConversationKey, storage.MessagePage{})
	s.Equal(model.InvitationAccepted, stored[0].InvitationStatus)
	s.Equal("Come scrim with us", stored[0].Body)

	events := s.eventsOfType(model.EventInvitationUpdated)
	s.Require().Len(events, 2)
	payload := events[0].Payload.(model.InvitationUpdatedPayload)
	s.Equal(model.InvitationAccepted, payload.Status)
}

func (s *DispatcherSuite) TestInvitationOnlyReceiverMayRespond() {
	msg, err := s.dispatcher.SendInvitation(s.ctx, "captain-1", "player-1", "Come scrim", "ref-inv")
	s.Require().NoError(err)

	err = s.dispatcher.RespondToInvitation(s.ctx, "captain-1", "player-1", msg.ID, true)
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *DispatcherSuite) TestInvitationRespondTwiceFails() {
	msg, err := s.dispatcher.SendInvitation(s.ctx, "captain-1", "player-1", "Come scrim", "ref-inv")
	s.Require().NoError(err)

	s.Require().NoError(s.dispatcher.RespondToInvitation(s.ctx, "player-1", "captain-1", msg.ID, false))
	err = s.dispatcher.RespondToInvitation(s.ctx, "player-1", "captain-1", msg.ID, true)
	s.ErrorIs(err, model.ErrInvalidState)

	stored, _ := s.storage.ListMessages(s.ctx, msg.ConversationKey, storage.MessagePage{})
	s.Equal(model.InvitationDeclined, stored[0].InvitationStatus)
}

// Tournament references

func (s *DispatcherSuite) TestSendTournamentReference() {
	msg, err := s.dispatcher.SendTournamentReference(s.ctx, "alice", "bob", "tour-1", "ref-t")
	s.Require().NoError(err)

	s.Equal(model.MessageKindTournament, msg.Kind)
	s.Equal(model.TournamentID("tour-1"), msg.TournamentID)
	s.Equal("Summer Invitational", msg.TournamentName)
}

func (s *DispatcherSuite) TestSendTournamentReferenceUnknownTournament() {
	_, err := s.dispatcher.SendTournamentReference(s.ctx, "alice", "bob", "missing", "ref-t")
	s.ErrorIs(err, tournament.ErrTournamentNotFound)
	s.Empty(s.broadcaster.all())
}

// Tryout flow

func (s *DispatcherSuite) TestStartTryoutAnnouncesToBothPersonalRooms() {
	_ = s.storage.SaveTeam(s.ctx, &model.Team{ID: "team-1", CaptainID: "captain-1"})
	_ = s.storage.SaveApplication(s.ctx, &model.TeamApplication{
		ID: "app-1", PlayerID: "player-1", TeamID: "team-1", Status: model.ApplicationPending,
	})
	s.random.QueueString("tryout000001")

	session, err := s.dispatcher.StartTryout(s.ctx, "app-1", "captain-1")
	s.Require().NoError(err)
	s.Equal(model.TryoutActive, session.Status)

	events := s.eventsOfType(model.EventTryoutStarted)
	s.Require().Len(events, 2)
	s.Equal(model.PersonalRoom("player-1"), events[0].Room)
	s.Equal(model.PersonalRoom("captain-1"), events[1].Room)

	payload := events[0].Payload.(model.TryoutStartedPayload)
	s.Equal(session.ID, payload.ChatID)
	s.Equal(model.MessageKindSystem, payload.Message.Kind)
}

func (s *DispatcherSuite) TestSendTryoutMessage() {
	session := s.seedActiveTryout()

	msg, err := s.dispatcher.SendTryoutMessage(s.ctx, "player-1", session.ID, "thanks for the chance", "ref-9")
	s.Require().NoError(err)
	s.Equal(session.ID, msg.TryoutID)

	events := s.eventsOfType(model.EventNewTryoutMessage)
	s.Require().Len(events, 1)
	s.Equal(model.TryoutRoom(session.ID), events[0].Room)

	payload := events[0].Payload.(model.TryoutMessagePayload)
	s.Equal("ref-9", payload.Message.ClientRef)
}

func (s *DispatcherSuite) TestSendTryoutMessageRejectedAfterEndNothingPersisted() {
	session := s.seedActiveTryout()
	_, err := s.dispatcher.EndTryout(s.ctx, session.ID, "captain-1", "no show")
	s.Require().NoError(err)
	before, _ := s.storage.ListMessages(s.ctx, model.TryoutConversationKey(session.ID), storage.MessagePage{})
	s.broadcaster.events = nil

	_, err = s.dispatcher.SendTryoutMessage(s.ctx, "player-1", session.ID, "hello?", "ref-10")
	s.ErrorIs(err, model.ErrInvalidState)

	var ise *model.InvalidStateError
	s.Require().True(errors.As(err, &ise))
	s.Equal(model.TryoutEndedByTeam, ise.Status)

	after, _ := s.storage.ListMessages(s.ctx, model.TryoutConversationKey(session.ID), storage.MessagePage{})
	s.Len(after, len(before))
	s.Empty(s.broadcaster.all())
}

func (s *DispatcherSuite) TestSendTeamOfferBroadcastsToTryoutRoom() {
	session := s.seedActiveTryout()

	updated, err := s.dispatcher.SendTeamOffer(s.ctx, session.ID, "captain-1", "Join the roster")
	s.Require().NoError(err)
	s.Equal(model.TryoutOfferSent, updated.Status)

	events := s.eventsOfType(model.EventTeamOfferSent)
	s.Require().Len(events, 1)
	s.Equal(model.TryoutRoom(session.ID), events[0].Room)

	payload := events[0].Payload.(model.TeamOfferPayload)
	s.Equal(model.TryoutOfferSent, payload.TryoutStatus)
	s.Require().NotNil(payload.Offer)
	s.Equal("Join the roster", payload.Offer.Message)
}

func (s *DispatcherSuite) TestAcceptOfferNotifiesRoster() {
	session := s.seedActiveTryout()
	_, err := s.dispatcher.SendTeamOffer(s.ctx, session.ID, "captain-1", "Join the roster")
	s.Require().NoError(err)

	updated, err := s.dispatcher.RespondToOffer(s.ctx, session.ID, "player-1", true)
	s.Require().NoError(err)
	s.Equal(model.TryoutOfferAccepted, updated.Status)

	s.Equal([]model.UserID{"player-1"}, s.roster.calls)
	s.Len(s.eventsOfType(model.EventTeamOfferAccepted), 1)
}

func (s *DispatcherSuite) TestAcceptOfferSurvivesRosterFailure() {
	session := s.seedActiveTryout()
	_, err := s.dispatcher.SendTeamOffer(s.ctx, session.ID, "captain-1", "Join the roster")
	s.Require().NoError(err)
	s.roster.err = errors.New("roster down")

	updated, err := s.dispatcher.RespondToOffer(s.ctx, session.ID, "player-1", true)
	s.Require().NoError(err)
	s.Equal(model.TryoutOfferAccepted, updated.Status)
	s.Len(s.eventsOfType(model.EventTeamOfferAccepted), 1)
}

func (s *DispatcherSuite) TestRejectOfferSkipsRoster() {
	session := s.seedActiveTryout()
	_, err := s.dispatcher.SendTeamOffer(s.ctx, session.ID, "captain-1", "Join the roster")
	s.Require().NoError(err)

	updated, err := s.dispatcher.RespondToOffer(s.ctx, session.ID, "player-1", false)
	s.Require().NoError(err)
	s.Equal(model.TryoutOfferRejected, updated.Status)

	s.Empty(s.roster.calls)
	s.Len(s.eventsOfType(model.EventTeamOfferRejected), 1)
}

func (s *DispatcherSuite) TestEndTryoutBroadcastsTerminalState() {
	session := s.seedActiveTryout()

	updated, err := s.dispatcher.EndTryout(s.ctx, session.ID, "player-1", "found another team")
	s.Require().NoError(err)
	s.Equal(model.TryoutEndedByPlayer, updated.Status)

	events := s.eventsOfType(model.EventTryoutEnded)
	s.Require().Len(events, 1)
	payload := events[0].Payload.(model.TryoutEndedPayload)
	s.Equal(model.TryoutEndedByPlayer, payload.TryoutStatus)
	s.Equal(model.UserID("player-1"), payload.EndedBy)
	s.Equal("found another team", payload.Reason)
}

// History and snapshots

func (s *DispatcherSuite) TestHistoryRequiresParticipant() {
	_, err := s.dispatcher.SendDirectMessage(s.ctx, "alice", "bob", "hello", "r1")
	s.Require().NoError(err)
	key := model.DirectConversationKey("alice", "bob")

	msgs, err := s.dispatcher.History(s.ctx, "alice", key, storage.MessagePage{})
	s.Require().NoError(err)
	s.Len(msgs, 1)

	_, err = s.dispatcher.History(s.ctx, "mallory", key, storage.MessagePage{})
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *DispatcherSuite) TestHistoryForTryoutConversation() {
	session := s.seedActiveTryout()
	_, err := s.dispatcher.SendTryoutMessage(s.ctx, "captain-1", session.ID, "welcome", "r1")
	s.Require().NoError(err)

	key := model.TryoutConversationKey(session.ID)
	msgs, err := s.dispatcher.History(s.ctx, "player-1", key, storage.MessagePage{})
	s.Require().NoError(err)
	s.Len(msgs, 2)

	_, err = s.dispatcher.History(s.ctx, "stranger-1", key, storage.MessagePage{})
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *DispatcherSuite) TestHistoryAfterCursor() {
	_, _ = s.dispatcher.SendDirectMessage(s.ctx, "alice", "bob", "one", "r1")
	second, _ := s.dispatcher.SendDirectMessage(s.ctx, "alice", "bob", "two", "r2")
	_, _ = s.dispatcher.SendDirectMessage(s.ctx, "alice", "bob", "three", "r3")

	key := model.DirectConversationKey("alice", "bob")
	msgs, err := s.dispatcher.History(s.ctx, "bob", key, storage.MessagePage{After: second.ID})
	s.Require().NoError(err)
	s.Require().Len(msgs, 1)
	s.Equal("three", msgs[0].Body)
}

func (s *DispatcherSuite) TestGetTryoutParticipantOnly() {
	session := s.seedActiveTryout()

	got, err := s.dispatcher.GetTryout(s.ctx, "captain-1", session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, got.ID)

	_, err = s.dispatcher.GetTryout(s.ctx, "stranger-1", session.ID)
	s.ErrorIs(err, model.ErrUnauthorized)
}

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/scrimline/scrimline-chat/internal/dependencies/clock"
	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/services/roster"
	"github.com/scrimline/scrimline-chat/internal/services/tournament"
	"github.com/scrimline/scrimline-chat/internal/services/tryout"
	"github.com/scrimline/scrimline-chat/internal/storage"
)

// Broadcaster fans an event out to every connection currently joined to a
// room. Implemented by the ws package; tests substitute a recorder.
type Broadcaster interface {
	ToRoom(roomID model.RoomID, event model.EventType, payload any)
}

// Dispatcher is the single validated entry point for all mutating chat
// actions. Every operation persists first and broadcasts second: a
// persistence failure produces no fan-out, so a sender (listening on its
// own personal room) never sees a message that was not stored, and never
// misses one that was.
type Dispatcher struct {
	storage     storage.Storage
	tryouts     *tryout.Controller
	roster      roster.Notifier
	tournaments tournament.Directory
	broadcaster Broadcaster
	clock       clock.Clock
	logger      *slog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	storage storage.Storage,
	tryouts *tryout.Controller,
	rosterNotifier roster.Notifier,
	tournaments tournament.Directory,
	broadcaster Broadcaster,
	clock clock.Clock,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		storage:     storage,
		tryouts:     tryouts,
		roster:      rosterNotifier,
		tournaments: tournaments,
		broadcaster: broadcaster,
		clock:       clock,
		logger:      logger.With(slog.String("component", "dispatcher")),
	}
}

// newMessage builds a message with a server-assigned identity and timestamp
func (d *Dispatcher) newMessage(key model.ConversationKey, senderID model.UserID, kind model.MessageKind, body, clientRef string) *model.ChatMessage {
	return &model.ChatMessage{
		ID:              model.MessageID("m_" + uuid.NewString()),
		ConversationKey: key,
		SenderID:        senderID,
		Kind:            kind,
		Body:            body,
		ClientRef:       clientRef,
		CreatedAt:       d.clock.Now(),
	}
}

// SendDirectMessage persists a plain message and emits it to the
// receiver's personal room and the sender's own personal room (so other
// devices of the sender see the echo too).
func (d *Dispatcher) SendDirectMessage(ctx context.Context, senderID, receiverID model.UserID, body, clientRef string) (*model.ChatMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, model.ErrEmptyMessage
	}

	msg := d.newMessage(model.DirectConversationKey(senderID, receiverID), senderID, model.MessageKindPlain, body, clientRef)
	msg.ReceiverID = receiverID

	return d.deliverDirect(ctx, msg)
}

// SendInvitation persists an invitation-kind message with a pending status
func (d *Dispatcher) SendInvitation(ctx context.Context, senderID, receiverID model.UserID, body, clientRef string) (*model.ChatMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, model.ErrEmptyMessage
	}

	msg := d.newMessage(model.DirectConversationKey(senderID, receiverID), senderID, model.MessageKindInvitation, body, clientRef)
	msg.ReceiverID = receiverID
	msg.InvitationStatus = model.InvitationPending

	return d.deliverDirect(ctx, msg)
}

// SendTournamentReference persists a tournament_reference message. The
// tournament summary is resolved at send time through the read-only
// tournament collaborator so the stored message renders without another
// lookup.
func (d *Dispatcher) SendTournamentReference(ctx context.Context, senderID, receiverID model.UserID, tournamentID model.TournamentID, clientRef string) (*model.ChatMessage, error) {
	summary, err := d.tournaments.Summary(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	msg := d.newMessage(model.DirectConversationKey(senderID, receiverID), senderID, model.MessageKindTournament, summary.Name, clientRef)
	msg.ReceiverID = receiverID
	msg.TournamentID = tournamentID
	msg.TournamentName = summary.Name

	return d.deliverDirect(ctx, msg)
}

func (d *Dispatcher) deliverDirect(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	if err := d.storage.AppendMessage(ctx, msg); err != nil {
		d.logger.Error("failed to persist direct message",
			slog.String("sender_id", string(msg.SenderID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	payload := model.MessagePayload{Message: msg}
	d.broadcaster.ToRoom(model.PersonalRoom(msg.ReceiverID), model.EventReceiveMessage, payload)
	// A self-directed message has one personal room; emit it once
	if msg.SenderID != msg.ReceiverID {
		d.broadcaster.ToRoom(model.PersonalRoom(msg.SenderID), model.EventReceiveMessage, payload)
	}
	return msg, nil
}

// RespondToInvitation moves an invitation's status sub-field. Only the
// invitation's receiver may respond, and only while it is pending.
func (d *Dispatcher) RespondToInvitation(ctx context.Context, actorID, senderID model.UserID, messageID model.MessageID, accept bool) error {
	key := model.DirectConversationKey(actorID, senderID)

	messages, err := d.storage.ListMessages(ctx, key, storage.MessagePage{})
	if err != nil {
		return err
	}

	var invitation *model.ChatMessage
	for _, m := range messages {
		if m.ID == messageID {
			invitation = m
			break
		}
	}
	if invitation == nil {
		return model.ErrMessageNotFound
	}
	if invitation.Kind != model.MessageKindInvitation || invitation.ReceiverID != actorID {
		return model.ErrUnauthorized
	}
	if invitation.InvitationStatus != model.InvitationPending {
		return model.ErrInvalidState
	}

	status := model.InvitationDeclined
	if accept {
		status = model.InvitationAccepted
	}
	if err := d.storage.SetInvitationStatus(ctx, key, messageID, status); err != nil {
		return err
	}

	payload := model.InvitationUpdatedPayload{MessageID: messageID, Status: status}
	d.broadcaster.ToRoom(model.PersonalRoom(senderID), model.EventInvitationUpdated, payload)
	d.broadcaster.ToRoom(model.PersonalRoom(actorID), model.EventInvitationUpdated, payload)
	return nil
}

// SendTryoutMessage persists a chat message into an active tryout session
// and broadcasts it to the tryout room. Sessions in any other status reject
// the send with InvalidState and nothing is persisted.
func (d *Dispatcher) SendTryoutMessage(ctx context.Context, senderID model.UserID, tryoutID model.TryoutID, body, clientRef string) (*model.ChatMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, model.ErrEmptyMessage
	}

	if _, err := d.tryouts.CheckMessagingAllowed(ctx, tryoutID, senderID); err != nil {
		return nil, err
	}

	msg := d.newMessage(model.TryoutConversationKey(tryoutID), senderID, model.MessageKindPlain, body, clientRef)
	msg.TryoutID = tryoutID

	if err := d.storage.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	d.broadcaster.ToRoom(model.TryoutRoom(tryoutID), model.EventNewTryoutMessage, model.TryoutMessagePayload{
		ChatID:  tryoutID,
		Message: msg,
	})
	return msg, nil
}

// StartTryout accepts a pending application and opens a tryout session.
// Both parties are notified on their personal rooms so they can join the
// new tryout room.
func (d *Dispatcher) StartTryout(ctx context.Context, applicationID model.ApplicationID, captainID model.UserID) (*model.TryoutSession, error) {
	session, err := d.tryouts.Start(ctx, applicationID, captainID)
	if err != nil {
		return nil, err
	}
	return d.announceStart(ctx, session)
}

// StartTryoutFromApproach accepts a pending recruitment approach
func (d *Dispatcher) StartTryoutFromApproach(ctx context.Context, approachID model.ApproachID, playerID model.UserID) (*model.TryoutSession, error) {
	session, err := d.tryouts.StartFromApproach(ctx, approachID, playerID)
	if err != nil {
		return nil, err
	}
	return d.announceStart(ctx, session)
}

func (d *Dispatcher) announceStart(ctx context.Context, session *model.TryoutSession) (*model.TryoutSession, error) {
	msg := d.newMessage(model.TryoutConversationKey(session.ID), session.CaptainID, model.MessageKindSystem, "Tryout started", "")
	msg.TryoutID = session.ID
	if err := d.storage.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	payload := model.TryoutStartedPayload{
		ChatID:  session.ID,
		TeamID:  session.TeamID,
		Message: msg,
	}
	d.broadcaster.ToRoom(model.PersonalRoom(session.ApplicantID), model.EventTryoutStarted, payload)
	d.broadcaster.ToRoom(model.PersonalRoom(session.CaptainID), model.EventTryoutStarted, payload)
	return session, nil
}

// SendTeamOffer transitions the session to offer_sent, records the offer
// and announces it in the tryout room as a system message
func (d *Dispatcher) SendTeamOffer(ctx context.Context, tryoutID model.TryoutID, captainID model.UserID, message string) (*model.TryoutSession, error) {
	if strings.TrimSpace(message) == "" {
		return nil, model.ErrEmptyMessage
	}

	session, err := d.tryouts.SendOffer(ctx, tryoutID, captainID, message)
	if err != nil {
		return nil, err
	}

	msg := d.newMessage(model.TryoutConversationKey(tryoutID), captainID, model.MessageKindSystem, fmt.Sprintf("Team offer: %s", message), "")
	msg.TryoutID = tryoutID
	if err := d.storage.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	d.broadcaster.ToRoom(model.TryoutRoom(tryoutID), model.EventTeamOfferSent, model.TeamOfferPayload{
		ChatID:       tryoutID,
		TryoutStatus: session.Status,
		Offer:        session.Offer,
		Message:      msg,
	})
	return session, nil
}

// RespondToOffer records the applicant's accept/reject. On accept the
// upstream roster collaborator is told to add the player; a roster failure
// is logged but does not unwind the accepted session, since the roster is
// owned upstream and reconciled there.
func (d *Dispatcher) RespondToOffer(ctx context.Context, tryoutID model.TryoutID, applicantID model.UserID, accept bool) (*model.TryoutSession, error) {
	session, err := d.tryouts.RespondOffer(ctx, tryoutID, applicantID, accept)
	if err != nil {
		return nil, err
	}

	event := model.EventTeamOfferRejected
	body := "Offer rejected"
	if accept {
		event = model.EventTeamOfferAccepted
		body = "Offer accepted"

		if err := d.roster.AddPlayer(ctx, session.TeamID, applicantID); err != nil {
			d.logger.Error("roster notification failed",
				slog.String("tryout_id", string(tryoutID)),
				slog.String("team_id", string(session.TeamID)),
				slog.String("error", err.Error()),
			)
		}
	}

	msg := d.newMessage(model.TryoutConversationKey(tryoutID), applicantID, model.MessageKindSystem, body, "")
	msg.TryoutID = tryoutID
	if err := d.storage.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	d.broadcaster.ToRoom(model.TryoutRoom(tryoutID), event, model.TeamOfferPayload{
		ChatID:       tryoutID,
		TryoutStatus: session.Status,
		Offer:        session.Offer,
		Message:      msg,
	})
	return session, nil
}

// EndTryout terminates the session and broadcasts the terminal state
func (d *Dispatcher) EndTryout(ctx context.Context, tryoutID model.TryoutID, actorID model.UserID, reason string) (*model.TryoutSession, error) {
	session, err := d.tryouts.End(ctx, tryoutID, actorID, reason)
	if err != nil {
		return nil, err
	}

	msg := d.newMessage(model.TryoutConversationKey(tryoutID), actorID, model.MessageKindSystem, fmt.Sprintf("Tryout ended: %s", reason), "")
	msg.TryoutID = tryoutID
	if err := d.storage.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	d.broadcaster.ToRoom(model.TryoutRoom(tryoutID), model.EventTryoutEnded, model.TryoutEndedPayload{
		ChatID:       tryoutID,
		TryoutStatus: session.Status,
		EndedBy:      session.EndedBy,
		Reason:       session.EndReason,
		Message:      msg,
	})
	return session, nil
}

// History returns a page of a conversation's messages. The requester must
// be a participant: one of the two users for a direct conversation, the
// applicant or captain of record for a tryout conversation.
func (d *Dispatcher) History(ctx context.Context, requesterID model.UserID, key model.ConversationKey, page storage.MessagePage) ([]*model.ChatMessage, error) {
	if err := d.authorizeConversation(ctx, requesterID, key); err != nil {
		return nil, err
	}
	return d.storage.ListMessages(ctx, key, page)
}

// GetTryout returns a session snapshot for participants, used by clients
// to refresh their displayed status after an InvalidState rejection
func (d *Dispatcher) GetTryout(ctx context.Context, requesterID model.UserID, tryoutID model.TryoutID) (*model.TryoutSession, error) {
	session, err := d.tryouts.Get(ctx, tryoutID)
	if err != nil {
		return nil, err
	}
	if !session.Participant(requesterID) {
		return nil, model.ErrUnauthorized
	}
	return session, nil
}

func (d *Dispatcher) authorizeConversation(ctx context.Context, requesterID model.UserID, key model.ConversationKey) error {
	parts := strings.Split(string(key), ":")
	switch {
	case len(parts) == 3 && parts[0] == "dm":
		if string(requesterID) == parts[1] || string(requesterID) == parts[2] {
			return nil
		}
		return model.ErrUnauthorized
	case len(parts) == 2 && parts[0] == "tryout":
		session, err := d.storage.GetTryout(ctx, model.TryoutID(parts[1]))
		if err != nil {
			return err
		}
		if !session.Participant(requesterID) {
			return model.ErrUnauthorized
		}
		return nil
	default:
		return model.ErrMessageNotFound
	}
}

package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/ws"
)

// HistoryFetcher fetches messages strictly after a cursor, used to close
// delivery gaps after a reconnect. Implemented by the HTTP API client.
type HistoryFetcher interface {
	History(ctx context.Context, key model.ConversationKey, after model.MessageID) ([]*model.ChatMessage, error)
}

// Config holds client session configuration
type Config struct {
	ServerURL string
	Token     string

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:      "http://localhost:8080",
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// LocalMessage is the client's view of a message. Pending marks an
// optimistic placeholder that the server has not yet echoed.
type LocalMessage struct {
	Message model.ChatMessage
	Pending bool
}

// Event is surfaced to the consumer (CLI, UI) for each server frame
type Event struct {
	Type    model.EventType
	Message *model.ChatMessage
	Error   *ws.ErrorPayload
	Raw     json.RawMessage
}

// Session is a connected chat client. It sends optimistically: a local
// placeholder is stored before the frame goes out, then replaced in place
// by the server echo carrying the same clientRef. On reconnect it replays
// its room joins and backfills each tracked conversation from the history
// endpoint, deduplicating against what it already holds.
type Session struct {
	cfg     Config
	selfID  model.UserID
	history HistoryFetcher
	logger  *slog.Logger

	// writeMu serializes frame writes; a gorilla connection supports only
	// one concurrent writer. Never taken while holding mu.
	writeMu sync.Mutex

	mu            sync.Mutex
	conn          *websocket.Conn
	conversations map[model.ConversationKey][]*LocalMessage
	pending       map[string]*LocalMessage
	lastSeen      map[model.ConversationKey]model.MessageID
	tryoutRooms   map[model.TryoutID]struct{}
	seen          map[model.MessageID]struct{}
	closed        bool

	events chan Event
}

// NewSession creates a new client session
func NewSession(cfg Config, selfID model.UserID, history HistoryFetcher, logger *slog.Logger) *Session {
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = DefaultConfig().InitialBackoff
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = DefaultConfig().MaxBackoff
	}
	return &Session{
		cfg:           cfg,
		selfID:        selfID,
		history:       history,
		logger:        logger.With(slog.String("component", "chatclient")),
		conversations: make(map[model.ConversationKey][]*LocalMessage),
		pending:       make(map[string]*LocalMessage),
		lastSeen:      make(map[model.ConversationKey]model.MessageID),
		tryoutRooms:   make(map[model.TryoutID]struct{}),
		seen:          make(map[model.MessageID]struct{}),
		events:        make(chan Event, 64),
	}
}

// Events returns the stream of server events for this session
func (s *Session) Events() <-chan Event {
	return s.events
}

// Run connects and keeps the session alive, reconnecting with exponential
// backoff until the context is cancelled or Close is called.
func (s *Session) Run(ctx context.Context) error {
	backoff := s.cfg.InitialBackoff
	for {
		if err := s.dial(ctx); err != nil {
			s.logger.Warn("connect failed", slog.String("error", err.Error()))
		} else {
			backoff = s.cfg.InitialBackoff
			s.readLoop()
		}

		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.cfg.MaxBackoff {
			backoff = s.cfg.MaxBackoff
		}
	}
}

// dial connects, replays room joins, and backfills missed messages
func (s *Session) dial(ctx context.Context) error {
	u, err := socketURL(s.cfg.ServerURL)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.cfg.Token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u, err)
	}

	s.mu.Lock()
	s.conn = conn
	rooms := make([]model.TryoutID, 0, len(s.tryoutRooms))
	for id := range s.tryoutRooms {
		rooms = append(rooms, id)
	}
	s.mu.Unlock()

	s.logger.Info("connected", slog.String("user_id", string(s.selfID)))

	// Replay memberships; the server holds none across connections
	_ = s.writeFrame(ws.EventJoinRoom, ws.JoinRoomPayload{RoomID: string(model.PersonalRoom(s.selfID))})
	for _, id := range rooms {
		_ = s.writeFrame(ws.EventJoinTryoutChat, ws.TryoutRoomPayload{ChatID: id})
	}

	s.catchUp(ctx)
	return nil
}

// catchUp fetches messages missed while disconnected for every tracked
// conversation
func (s *Session) catchUp(ctx context.Context) {
	if s.history == nil {
		return
	}

	s.mu.Lock()
	cursors := make(map[model.ConversationKey]model.MessageID, len(s.lastSeen))
	for key, id := range s.lastSeen {
		cursors[key] = id
	}
	s.mu.Unlock()

	for key, after := range cursors {
		messages, err := s.history.History(ctx, key, after)
		if err != nil {
			s.logger.Warn("history catch-up failed",
				slog.String("conversation", string(key)),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, msg := range messages {
			s.accept(msg)
		}
	}
}

func (s *Session) readLoop() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Info("disconnected", slog.String("error", err.Error()))
			return
		}
		s.HandleIncoming(data)
	}
}

// HandleIncoming processes one server frame
func (s *Session) HandleIncoming(data []byte) {
	var frame ws.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.logger.Warn("malformed frame", slog.String("error", err.Error()))
		return
	}

	event := model.EventType(frame.Event)
	switch event {
	case model.EventReceiveMessage:
		var p model.MessagePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.Message == nil {
			return
		}
		s.accept(p.Message)
		s.emit(Event{Type: event, Message: p.Message, Raw: frame.Data})

	case model.EventNewTryoutMessage:
		var p model.TryoutMessagePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.Message == nil {
			return
		}
		s.accept(p.Message)
		s.emit(Event{Type: event, Message: p.Message, Raw: frame.Data})

	case model.EventTryoutStarted, model.EventTryoutEnded,
		model.EventTeamOfferSent, model.EventTeamOfferAccepted, model.EventTeamOfferRejected:
		var p model.TeamOfferPayload
		if err := json.Unmarshal(frame.Data, &p); err == nil && p.Message != nil {
			s.accept(p.Message)
		}
		if event == model.EventTryoutEnded {
			s.mu.Lock()
			delete(s.tryoutRooms, p.ChatID)
			s.mu.Unlock()
		}
		s.emit(Event{Type: event, Raw: frame.Data})

	case model.EventType(ws.EventError):
		var p ws.ErrorPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return
		}
		if p.ClientRef != "" {
			s.dropPlaceholder(p.ClientRef)
		}
		s.emit(Event{Type: model.EventType(ws.EventError), Error: &p, Raw: frame.Data})

	default:
		s.emit(Event{Type: event, Raw: frame.Data})
	}
}

// accept merges a server message into local state: it replaces the
// matching optimistic placeholder (by clientRef, falling back to sender and
// body for echoes predating refs) or appends, never both.
func (s *Session) accept(msg *model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[msg.ID]; dup {
		return
	}
	s.seen[msg.ID] = struct{}{}
	s.lastSeen[msg.ConversationKey] = msg.ID

	if msg.ClientRef != "" {
		if placeholder, ok := s.pending[msg.ClientRef]; ok {
			placeholder.Message = *msg
			placeholder.Pending = false
			delete(s.pending, msg.ClientRef)
			return
		}
	}

	if msg.SenderID == s.selfID {
		for ref, placeholder := range s.pending {
			if placeholder.Message.ConversationKey == msg.ConversationKey && placeholder.Message.Body == msg.Body {
				placeholder.Message = *msg
				placeholder.Pending = false
				delete(s.pending, ref)
				return
			}
		}
	}

	s.conversations[msg.ConversationKey] = append(s.conversations[msg.ConversationKey], &LocalMessage{Message: *msg})
}

// SendDirect sends a direct message optimistically. The returned local
// message is pending until the echo arrives; if the write fails, the
// placeholder is dropped and the error is retryable.
func (s *Session) SendDirect(receiverID model.UserID, body string) (*LocalMessage, error) {
	key := model.DirectConversationKey(s.selfID, receiverID)
	ref := uuid.NewString()

	placeholder := s.addPlaceholder(key, ref, body, func(m *model.ChatMessage) {
		m.ReceiverID = receiverID
	})

	err := s.writeFrame(ws.EventSendMessage, ws.SendMessagePayload{
		ReceiverID: receiverID,
		Message:    body,
		ClientRef:  ref,
	})
	if err != nil {
		s.dropPlaceholder(ref)
		return nil, fmt.Errorf("send failed: %w", model.ErrTransportUnavailable)
	}
	return placeholder, nil
}

// SendTryout sends a tryout chat message optimistically
func (s *Session) SendTryout(chatID model.TryoutID, body string) (*LocalMessage, error) {
	key := model.TryoutConversationKey(chatID)
	ref := uuid.NewString()

	placeholder := s.addPlaceholder(key, ref, body, func(m *model.ChatMessage) {
		m.TryoutID = chatID
	})

	err := s.writeFrame(ws.EventSendTryoutMessage, ws.SendTryoutMessagePayload{
		ChatID:    chatID,
		Message:   body,
		ClientRef: ref,
	})
	if err != nil {
		s.dropPlaceholder(ref)
		return nil, fmt.Errorf("send failed: %w", model.ErrTransportUnavailable)
	}
	return placeholder, nil
}

// JoinTryoutChat joins the tryout room and tracks it for reconnect replay
func (s *Session) JoinTryoutChat(chatID model.TryoutID) error {
	s.mu.Lock()
	s.tryoutRooms[chatID] = struct{}{}
	if _, ok := s.lastSeen[model.TryoutConversationKey(chatID)]; !ok {
		s.lastSeen[model.TryoutConversationKey(chatID)] = ""
	}
	s.mu.Unlock()
	return s.writeFrame(ws.EventJoinTryoutChat, ws.TryoutRoomPayload{ChatID: chatID})
}

// LeaveTryoutChat leaves the tryout room and stops tracking it
func (s *Session) LeaveTryoutChat(chatID model.TryoutID) error {
	s.mu.Lock()
	delete(s.tryoutRooms, chatID)
	s.mu.Unlock()
	return s.writeFrame(ws.EventLeaveTryoutChat, ws.TryoutRoomPayload{ChatID: chatID})
}

// TrackConversation registers a conversation for reconnect catch-up
// without sending anything
func (s *Session) TrackConversation(key model.ConversationKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lastSeen[key]; !ok {
		s.lastSeen[key] = ""
	}
}

// Messages returns a snapshot of a conversation in arrival order
func (s *Session) Messages(key model.ConversationKey) []LocalMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LocalMessage, 0, len(s.conversations[key]))
	for _, m := range s.conversations[key] {
		out = append(out, *m)
	}
	return out
}

// Close shuts the session down; Run returns after the connection drops
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (s *Session) addPlaceholder(key model.ConversationKey, ref, body string, decorate func(*model.ChatMessage)) *LocalMessage {
	msg := model.ChatMessage{
		ConversationKey: key,
		SenderID:        s.selfID,
		Kind:            model.MessageKindPlain,
		Body:            body,
		ClientRef:       ref,
		CreatedAt:       time.Now(),
	}
	decorate(&msg)

	placeholder := &LocalMessage{Message: msg, Pending: true}

	s.mu.Lock()
	s.pending[ref] = placeholder
	s.conversations[key] = append(s.conversations[key], placeholder)
	if _, ok := s.lastSeen[key]; !ok {
		s.lastSeen[key] = ""
	}
	s.mu.Unlock()
	return placeholder
}

func (s *Session) dropPlaceholder(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	placeholder, ok := s.pending[ref]
	if !ok {
		return
	}
	delete(s.pending, ref)

	key := placeholder.Message.ConversationKey
	msgs := s.conversations[key]
	for i, m := range msgs {
		if m == placeholder {
			s.conversations[key] = append(msgs[:i], msgs[i+1:]...)
			break
		}
	}
}

func (s *Session) writeFrame(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(ws.Frame{Event: event, Data: data})
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return model.ErrTransportUnavailable
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
		// Consumer is not draining; drop rather than block the read loop
	}
}

// socketURL converts the configured http(s) base URL to the ws endpoint
func socketURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/services/auth"
	"github.com/scrimline/scrimline-chat/internal/services/chat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are enforced at the platform gateway
		return true
	},
}

// Handler upgrades authenticated requests to websocket connections and
// routes inbound frames to the dispatcher
type Handler struct {
	registry   *Registry
	dispatcher *chat.Dispatcher
	sessions   *auth.Service
	logger     *slog.Logger
}

// NewHandler creates a new websocket Handler
func NewHandler(registry *Registry, dispatcher *chat.Dispatcher, sessions *auth.Service, logger *slog.Logger) *Handler {
	return &Handler{
		registry:   registry,
		dispatcher: dispatcher,
		sessions:   sessions,
		logger:     logger.With(slog.String("component", "ws.handler")),
	}
}

// ServeHTTP handles GET /ws. The token comes from the Authorization header
// or, for browser clients that cannot set headers on the handshake, from
// the token query parameter.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.Validate(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(h.registry, conn, session.UserID)
	h.registry.Register(client)

	h.logger.Info("client connected", slog.String("user_id", string(session.UserID)))

	go client.writePump()
	go client.readPump(context.Background(), h)
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// handleFrame routes one inbound frame. Failures are reported to the
// sending client only, as error frames carrying the clientRef when the
// action had one.
func (h *Handler) handleFrame(ctx context.Context, c *Client, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.sendFrame(EventError, ErrorPayload{Code: "BAD_FRAME", Message: "malformed frame"})
		return
	}

	switch frame.Event {
	case EventJoinRoom:
		var p JoinRoomPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.RoomID == "" {
			c.sendFrame(EventError, ErrorPayload{Code: "BAD_FRAME", Message: "roomId required"})
			return
		}
		h.registry.JoinRoom(c, model.RoomID(p.RoomID))

	case EventJoinTryoutChat:
		var p TryoutRoomPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.ChatID == "" {
			c.sendFrame(EventError, ErrorPayload{Code: "BAD_FRAME", Message: "chatId required"})
			return
		}
		h.registry.JoinRoom(c, model.TryoutRoom(p.ChatID))

	case EventLeaveTryoutChat:
		var p TryoutRoomPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.ChatID == "" {
			c.sendFrame(EventError, ErrorPayload{Code: "BAD_FRAME", Message: "chatId required"})
			return
		}
		h.registry.LeaveRoom(c, model.TryoutRoom(p.ChatID))

	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			c.sendFrame(EventError, ErrorPayload{Code: "BAD_FRAME", Message: "malformed sendMessage"})
			return
		}
		if _, err := h.dispatcher.SendDirectMessage(ctx, c.userID, p.ReceiverID, p.Message, p.ClientRef); err != nil {
			c.sendFrame(EventError, errorPayloadFor(err, p.ClientRef))
		}

	case EventSendTryoutMessage:
		var p SendTryoutMessagePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			c.sendFrame(EventError, ErrorPayload{Code: "BAD_FRAME", Message: "malformed sendTryoutMessage"})
			return
		}
		if _, err := h.dispatcher.SendTryoutMessage(ctx, c.userID, p.ChatID, p.Message, p.ClientRef); err != nil {
			c.sendFrame(EventError, errorPayloadFor(err, p.ClientRef))
		}

	default:
		c.sendFrame(EventError, ErrorPayload{Code: "UNKNOWN_EVENT", Message: "unknown event: " + frame.Event})
	}
}

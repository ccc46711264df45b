package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/scrimline/scrimline-chat/internal/api/middleware"
	"github.com/scrimline/scrimline-chat/internal/api/request"
	"github.com/scrimline/scrimline-chat/internal/api/response"
	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/services/chat"
	"github.com/scrimline/scrimline-chat/internal/storage"
)

// ConversationHandler handles message history and REST-side sends
type ConversationHandler struct {
	dispatcher *chat.Dispatcher
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(dispatcher *chat.Dispatcher) *ConversationHandler {
	return &ConversationHandler{dispatcher: dispatcher}
}

// History handles GET /api/v1/conversations/{key}/messages
//
// The after parameter is the id of the last message the client already
// holds; the response starts strictly after it. Reconnecting clients use
// this to close delivery gaps.
func (h *ConversationHandler) History(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	key := model.ConversationKey(mux.Vars(r)["key"])

	page := storage.MessagePage{
		After: model.MessageID(r.URL.Query().Get("after")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			WriteError(w, NewInvalidRequestError("limit must be a non-negative integer"))
			return
		}
		page.Limit = limit
	}

	messages, err := h.dispatcher.History(r.Context(), session.UserID, key, page)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MessagesFromModel(messages))
}

// Send handles POST /api/v1/messages
func (h *ConversationHandler) Send(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	var req request.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.ReceiverID == "" {
		WriteError(w, NewInvalidRequestError("receiver_id is required"))
		return
	}

	msg, err := h.dispatcher.SendDirectMessage(r.Context(), session.UserID, model.UserID(req.ReceiverID), req.Message, req.ClientRef)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.MessageFromModel(msg))
}

// SendInvitation handles POST /api/v1/messages/invitation
func (h *ConversationHandler) SendInvitation(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	var req request.SendInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.ReceiverID == "" {
		WriteError(w, NewInvalidRequestError("receiver_id is required"))
		return
	}

	msg, err := h.dispatcher.SendInvitation(r.Context(), session.UserID, model.UserID(req.ReceiverID), req.Message, req.ClientRef)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.MessageFromModel(msg))
}

// SendTournamentReference handles POST /api/v1/messages/tournament
func (h *ConversationHandler) SendTournamentReference(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	var req request.SendTournamentReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.ReceiverID == "" || req.TournamentID == "" {
		WriteError(w, NewInvalidRequestError("receiver_id and tournament_id are required"))
		return
	}

	msg, err := h.dispatcher.SendTournamentReference(r.Context(), session.UserID, model.UserID(req.ReceiverID), model.TournamentID(req.TournamentID), req.ClientRef)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.MessageFromModel(msg))
}

// RespondInvitation handles POST /api/v1/messages/{id}/invitation/respond
func (h *ConversationHandler) RespondInvitation(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	messageID := model.MessageID(mux.Vars(r)["id"])

	var req request.RespondInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.SenderID == "" {
		WriteError(w, NewInvalidRequestError("sender_id is required"))
		return
	}

	err := h.dispatcher.RespondToInvitation(r.Context(), session.UserID, model.UserID(req.SenderID), messageID, req.Accept)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/scrimline/scrimline-chat/internal/api/middleware"
	"github.com/scrimline/scrimline-chat/internal/api/request"
	"github.com/scrimline/scrimline-chat/internal/api/response"
	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/services/chat"
)

// TryoutHandler handles tryout lifecycle endpoints
type TryoutHandler struct {
	dispatcher *chat.Dispatcher
}

// NewTryoutHandler creates a new tryout handler
func NewTryoutHandler(dispatcher *chat.Dispatcher) *TryoutHandler {
	return &TryoutHandler{dispatcher: dispatcher}
}

// Get handles GET /api/v1/tryouts/{id}
func (h *TryoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	tryoutID := model.TryoutID(mux.Vars(r)["id"])

	tryout, err := h.dispatcher.GetTryout(r.Context(), session.UserID, tryoutID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TryoutFromModel(tryout))
}

// StartFromApplication handles POST /api/v1/applications/{id}/tryout
func (h *TryoutHandler) StartFromApplication(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	applicationID := model.ApplicationID(mux.Vars(r)["id"])

	tryout, err := h.dispatcher.StartTryout(r.Context(), applicationID, session.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.TryoutFromModel(tryout))
}

// StartFromApproach handles POST /api/v1/approaches/{id}/tryout
func (h *TryoutHandler) StartFromApproach(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	approachID := model.ApproachID(mux.Vars(r)["id"])

	tryout, err := h.dispatcher.StartTryoutFromApproach(r.Context(), approachID, session.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.TryoutFromModel(tryout))
}

// Offer handles POST /api/v1/tryouts/{id}/offer
func (h *TryoutHandler) Offer(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	tryoutID := model.TryoutID(mux.Vars(r)["id"])

	var req request.SendOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	tryout, err := h.dispatcher.SendTeamOffer(r.Context(), tryoutID, session.UserID, req.Message)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TryoutFromModel(tryout))
}

// RespondOffer handles POST /api/v1/tryouts/{id}/offer/respond
func (h *TryoutHandler) RespondOffer(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	tryoutID := model.TryoutID(mux.Vars(r)["id"])

	var req request.RespondOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	tryout, err := h.dispatcher.RespondToOffer(r.Context(), tryoutID, session.UserID, req.Accept)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TryoutFromModel(tryout))
}

// End handles POST /api/v1/tryouts/{id}/end
func (h *TryoutHandler) End(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	tryoutID := model.TryoutID(mux.Vars(r)["id"])

	var req request.EndTryoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	tryout, err := h.dispatcher.EndTryout(r.Context(), tryoutID, session.UserID, req.Reason)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TryoutFromModel(tryout))
}

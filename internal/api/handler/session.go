package handler

import (
	"encoding/json"
	"net/http"

	"github.com/scrimline/scrimline-chat/internal/api/middleware"
	"github.com/scrimline/scrimline-chat/internal/api/request"
	"github.com/scrimline/scrimline-chat/internal/api/response"
	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/services/auth"
)

// SessionHandler handles session endpoints. Issue sits on the internal
// surface: user credentials are owned by the platform, which exchanges an
// authenticated user for a chat session token here.
type SessionHandler struct {
	authService *auth.Service
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(authService *auth.Service) *SessionHandler {
	return &SessionHandler{authService: authService}
}

// Issue handles POST /internal/sessions
func (h *SessionHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req request.IssueSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.UserID == "" {
		WriteError(w, NewInvalidRequestError("user_id is required"))
		return
	}

	session, err := h.authService.Issue(r.Context(), model.UserID(req.UserID), req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionFromModel(session))
}

// Me handles GET /api/v1/me
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}

// Logout handles POST /api/v1/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	if err := h.authService.Revoke(r.Context(), session.Token); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/services/auth"
	"github.com/scrimline/scrimline-chat/internal/services/tournament"
)

// APIError represents an API error response. Status carries the session's
// current status for INVALID_STATE so clients can refresh their view.
type APIError struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Status  model.TryoutStatus `json:"status,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInvalidState        = "INVALID_STATE"
	CodeEmptyMessage        = "EMPTY_MESSAGE"
	CodeReasonRequired      = "REASON_REQUIRED"
	CodeTeamNotFound        = "TEAM_NOT_FOUND"
	CodeTryoutNotFound      = "TRYOUT_NOT_FOUND"
	CodeMessageNotFound     = "MESSAGE_NOT_FOUND"
	CodeApplicationNotFound = "APPLICATION_NOT_FOUND"
	CodeApproachNotFound    = "APPROACH_NOT_FOUND"
	CodeTournamentNotFound  = "TOURNAMENT_NOT_FOUND"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// State conflicts carry the session's current status when known
	var ise *model.InvalidStateError
	if errors.As(err, &ise) {
		return &httpError{http.StatusConflict, APIError{CodeInvalidState, ise.Error(), ise.Status}}
	}

	switch {
	case errors.Is(err, model.ErrInvalidState):
		return &httpError{http.StatusConflict, APIError{Code: CodeInvalidState, Message: "Action not allowed in the current state"}}
	case errors.Is(err, model.ErrUnauthorized):
		return &httpError{http.StatusForbidden, APIError{Code: CodeForbidden, Message: "Not allowed to perform this action"}}
	case errors.Is(err, model.ErrEmptyMessage):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeEmptyMessage, Message: "Message body must not be empty"}}
	case errors.Is(err, model.ErrReasonRequired):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeReasonRequired, Message: "A reason is required to end a tryout"}}
	case errors.Is(err, model.ErrTeamNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeTeamNotFound, Message: "Team not found"}}
	case errors.Is(err, model.ErrTryoutNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeTryoutNotFound, Message: "Tryout session not found"}}
	case errors.Is(err, model.ErrApplicationNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeApplicationNotFound, Message: "Application not found"}}
	case errors.Is(err, model.ErrApproachNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeApproachNotFound, Message: "Approach not found"}}
	case errors.Is(err, model.ErrMessageNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeMessageNotFound, Message: "Message not found"}}
	case errors.Is(err, tournament.ErrTournamentNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeTournamentNotFound, Message: "Tournament not found"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Invalid or expired session"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}

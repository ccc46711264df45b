package ws

import (
	"encoding/json"
	"errors"

	"github.com/scrimline/scrimline-chat/internal/model"
)

// Inbound event names
const (
	EventJoinRoom          = "joinRoom"
	EventJoinTryoutChat    = "joinTryoutChat"
	EventLeaveTryoutChat   = "leaveTryoutChat"
	EventSendMessage       = "sendMessage"
	EventSendTryoutMessage = "sendTryoutMessage"

	EventError = "error"
)

// Frame is the wire envelope in both directions
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoomPayload joins an arbitrary room by id
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// TryoutRoomPayload joins or leaves a tryout room by chat id
type TryoutRoomPayload struct {
	ChatID model.TryoutID `json:"chatId"`
}

// SendMessagePayload is a direct message send
type SendMessagePayload struct {
	ReceiverID model.UserID `json:"receiverId"`
	Message    string       `json:"message"`
	ClientRef  string       `json:"clientRef,omitempty"`
}

// SendTryoutMessagePayload is a tryout chat send
type SendTryoutMessagePayload struct {
	ChatID    model.TryoutID `json:"chatId"`
	Message   string         `json:"message"`
	ClientRef string         `json:"clientRef,omitempty"`
}

// ErrorPayload is sent to the offending client only. Status carries the
// session's current status for INVALID_STATE so clients can refresh their
// view; ClientRef lets the sender drop the matching optimistic placeholder.
type ErrorPayload struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	Status    model.TryoutStatus `json:"status,omitempty"`
	ClientRef string             `json:"clientRef,omitempty"`
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// errorPayloadFor maps a dispatcher error onto the socket error surface
func errorPayloadFor(err error, clientRef string) ErrorPayload {
	p := ErrorPayload{Message: err.Error(), ClientRef: clientRef}

	var ise *model.InvalidStateError
	switch {
	case errors.As(err, &ise):
		p.Code = "INVALID_STATE"
		p.Status = ise.Status
	case errors.Is(err, model.ErrInvalidState):
		p.Code = "INVALID_STATE"
	case errors.Is(err, model.ErrUnauthorized):
		p.Code = "UNAUTHORIZED"
	case errors.Is(err, model.ErrEmptyMessage):
		p.Code = "EMPTY_MESSAGE"
	case errors.Is(err, model.ErrReasonRequired):
		p.Code = "REASON_REQUIRED"
	case errors.Is(err, model.ErrTryoutNotFound),
		errors.Is(err, model.ErrApplicationNotFound),
		errors.Is(err, model.ErrApproachNotFound),
		errors.Is(err, model.ErrMessageNotFound),
		errors.Is(err, model.ErrTeamNotFound):
		p.Code = "NOT_FOUND"
	default:
		p.Code = "INTERNAL"
		p.Message = "internal error"
	}
	return p
}

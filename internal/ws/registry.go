package ws

import (
	"log/slog"
	"sync"

	"github.com/scrimline/scrimline-chat/internal/model"
)

// Registry tracks the live connection per user and which rooms each
// connection has joined. One connection per user: a later Register for the
// same user supersedes and closes the earlier one, and the earlier one's
// memberships die with it. Membership is held only for live connections;
// clients replay their joins after reconnecting.
//
// Room joins are deliberately ungated. Membership is a delivery concern,
// never an authorization boundary: every mutating action is checked against
// the session or application record before anything is persisted or fanned
// out.
type Registry struct {
	mu     sync.RWMutex
	byUser map[model.UserID]*Client
	rooms  map[model.RoomID]map[*Client]struct{}
	logger *slog.Logger
}

// NewRegistry creates a new Registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		byUser: make(map[model.UserID]*Client),
		rooms:  make(map[model.RoomID]map[*Client]struct{}),
		logger: logger.With(slog.String("component", "ws.registry")),
	}
}

// Register adds a client and auto-joins its personal room. Any prior
// connection for the same user is unregistered and its send channel closed,
// which terminates its write pump.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	prev := r.byUser[c.userID]
	if prev != nil {
		r.removeLocked(prev)
	}
	r.byUser[c.userID] = c
	r.joinLocked(c, model.PersonalRoom(c.userID))
	r.mu.Unlock()

	if prev != nil {
		r.logger.Info("connection superseded", slog.String("user_id", string(c.userID)))
	}
	r.logger.Debug("client registered", slog.String("user_id", string(c.userID)))
}

// Unregister removes a client and releases all of its room memberships.
// A no-op for a connection that has already been superseded.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byUser[c.userID] != c {
		return
	}
	delete(r.byUser, c.userID)
	r.removeLocked(c)
}

// JoinRoom adds the client to a room. Idempotent.
func (r *Registry) JoinRoom(c *Client, roomID model.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byUser[c.userID] != c {
		return
	}
	r.joinLocked(c, roomID)
}

// LeaveRoom removes the client from a room. Idempotent.
func (r *Registry) LeaveRoom(c *Client, roomID model.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, c)
	delete(c.rooms, roomID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// InRoom reports whether the user's live connection has joined the room
func (r *Registry) InRoom(userID model.UserID, roomID model.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	if !ok {
		return false
	}
	_, ok = c.rooms[roomID]
	return ok
}

// Connected reports whether the user has a live connection
func (r *Registry) Connected(userID model.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// ToRoom marshals one frame and enqueues it to every member of the room,
// exactly once per member. A member whose send buffer is full is dropped;
// it will reconnect and catch up over the history endpoint.
func (r *Registry) ToRoom(roomID model.RoomID, event model.EventType, payload any) {
	data, err := encodeFrame(string(event), payload)
	if err != nil {
		r.logger.Error("failed to encode frame",
			slog.String("event", string(event)),
			slog.String("error", err.Error()),
		)
		return
	}

	var stale []*Client
	r.mu.RLock()
	for c := range r.rooms[roomID] {
		if !c.enqueue(data) {
			stale = append(stale, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range stale {
		r.logger.Warn("dropping slow client", slog.String("user_id", string(c.userID)))
		r.Unregister(c)
	}
}

func (r *Registry) joinLocked(c *Client, roomID model.RoomID) {
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[roomID] = members
	}
	members[c] = struct{}{}
	c.rooms[roomID] = struct{}{}
}

// removeLocked detaches the client from every room and closes its send
// channel. Caller holds the write lock.
func (r *Registry) removeLocked(c *Client) {
	for roomID := range c.rooms {
		members := r.rooms[roomID]
		delete(members, c)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
	c.rooms = make(map[model.RoomID]struct{})
	c.closeSend()
}

package model

// RoomID identifies a logical broadcast group of live connections.
// Rooms have no persistent record; membership is derived purely from
// currently-connected clients.
type RoomID string

// RoomKind distinguishes the two room varieties
type RoomKind string

const (
	// RoomKindPersonal is a user's own notification room. Direct messages
	// and system notifications are delivered here. Usually one occupant,
	// but nothing prevents multiple devices.
	RoomKindPersonal RoomKind = "personal"

	// RoomKindTryout is shared by the two participants of a tryout session
	RoomKindTryout RoomKind = "tryout"
)

// PersonalRoom returns the room ID for a user's personal notification room
func PersonalRoom(userID UserID) RoomID {
	return RoomID("user:" + string(userID))
}

// TryoutRoom returns the room ID for a tryout session's chat room
func TryoutRoom(tryoutID TryoutID) RoomID {
	return RoomID("tryout:" + string(tryoutID))
}

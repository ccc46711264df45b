package model

import "time"

// UserID uniquely identifies a platform user
type UserID string

// TeamID uniquely identifies a team
type TeamID string

// TournamentID uniquely identifies a tournament
type TournamentID string

// UserSession is an authenticated session issued by the upstream platform.
// This service only validates sessions; it never creates credentials.
type UserSession struct {
	Token       string
	UserID      UserID
	DisplayName string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Team is the recruiting side of a tryout. Team records are owned by the
// platform's CRUD layer; this service reads them to authorize captain actions.
type Team struct {
	ID        TeamID
	Name      string
	CaptainID UserID
	Roster    []UserID
}

// HasMember reports whether the given user is on the team roster
func (t *Team) HasMember(userID UserID) bool {
	for _, id := range t.Roster {
		if id == userID {
			return true
		}
	}
	return false
}

// TournamentSummary is the read-only tournament view used when rendering
// tournament_reference messages
type TournamentSummary struct {
	ID       TournamentID
	Name     string
	Game     string
	StartsAt time.Time
}

package model

import "time"

// ApplicationID uniquely identifies a team application
type ApplicationID string

// ApproachID uniquely identifies a recruitment approach
type ApproachID string

// ApplicationStatus is shared by applications and approaches
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationInTryout ApplicationStatus = "in_tryout"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// TeamApplication is a player's request to join a team. Owned by the
// platform's CRUD layer; read here to authorize starting a tryout.
type TeamApplication struct {
	ID        ApplicationID
	PlayerID  UserID
	TeamID    TeamID
	Status    ApplicationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecruitmentApproach is a team's outreach to a player, the mirror image
// of a TeamApplication. The approached player accepts it to start a tryout.
type RecruitmentApproach struct {
	ID        ApproachID
	TeamID    TeamID
	PlayerID  UserID
	Status    ApplicationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

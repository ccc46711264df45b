package factory

import (
	"context"
	"sync"
	"time"

	"github.com/scrimline/scrimline-chat/internal/dependencies/mocks"
	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/services/auth"
	"github.com/scrimline/scrimline-chat/internal/services/tournament"
	"github.com/scrimline/scrimline-chat/internal/storage/memory"
	"github.com/scrimline/scrimline-chat/internal/testutil"
)

// RecordingNotifier records roster notifications for test assertions
type RecordingNotifier struct {
	mu    sync.Mutex
	calls []RosterCall

	// Err, when set, is returned from AddPlayer
	Err error
}

// RosterCall is one recorded AddPlayer invocation
type RosterCall struct {
	TeamID   model.TeamID
	PlayerID model.UserID
}

// AddPlayer records the call and returns Err
func (n *RecordingNotifier) AddPlayer(ctx context.Context, teamID model.TeamID, playerID model.UserID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, RosterCall{TeamID: teamID, PlayerID: playerID})
	return n.Err
}

// Calls returns a copy of the recorded calls
func (n *RecordingNotifier) Calls() []RosterCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]RosterCall(nil), n.calls...)
}

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom

	// Recording collaborators
	Roster      *RecordingNotifier
	Tournaments *tournament.StaticDirectory
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	rosterNotifier := &RecordingNotifier{}
	directory := &tournament.StaticDirectory{
		Summaries: map[model.TournamentID]*model.TournamentSummary{},
	}

	app := newWithDependencies(store, mockClock, mockRandom, rosterNotifier, directory, auth.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MockRandom:  mockRandom,
		Roster:      rosterNotifier,
		Tournaments: directory,
	}
}

// SeedTeam stores a team record the way the upstream platform would
func (t *TestApp) SeedTeam(ctx context.Context, id model.TeamID, name string, captainID model.UserID) (*model.Team, error) {
	team := &model.Team{
		ID:        id,
		Name:      name,
		CaptainID: captainID,
		Roster:    []model.UserID{captainID},
	}
	if err := t.Storage.SaveTeam(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// SeedApplication stores a pending team application
func (t *TestApp) SeedApplication(ctx context.Context, id model.ApplicationID, playerID model.UserID, teamID model.TeamID) (*model.TeamApplication, error) {
	app := &model.TeamApplication{
		ID:        id,
		PlayerID:  playerID,
		TeamID:    teamID,
		Status:    model.ApplicationPending,
		CreatedAt: t.MockClock.Now(),
		UpdatedAt: t.MockClock.Now(),
	}
	if err := t.Storage.SaveApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// SeedApproach stores a pending recruitment approach
func (t *TestApp) SeedApproach(ctx context.Context, id model.ApproachID, teamID model.TeamID, playerID model.UserID) (*model.RecruitmentApproach, error) {
	approach := &model.RecruitmentApproach{
		ID:        id,
		TeamID:    teamID,
		PlayerID:  playerID,
		Status:    model.ApplicationPending,
		CreatedAt: t.MockClock.Now(),
		UpdatedAt: t.MockClock.Now(),
	}
	if err := t.Storage.SaveApproach(ctx, approach); err != nil {
		return nil, err
	}
	return approach, nil
}

package memory

import (
	"context"
	"sync"

	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	sessions     map[string]*model.UserSession
	teams        map[model.TeamID]*model.Team
	applications map[model.ApplicationID]*model.TeamApplication
	approaches   map[model.ApproachID]*model.RecruitmentApproach
	tryouts      map[model.TryoutID]*model.TryoutSession
	messages     map[model.ConversationKey][]*model.ChatMessage
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions:     make(map[string]*model.UserSession),
		teams:        make(map[model.TeamID]*model.Team),
		applications: make(map[model.ApplicationID]*model.TeamApplication),
		approaches:   make(map[model.ApproachID]*model.RecruitmentApproach),
		tryouts:      make(map[model.TryoutID]*model.TryoutSession),
		messages:     make(map[model.ConversationKey][]*model.ChatMessage),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.UserSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.UserSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Team operations

func (s *Storage) SaveTeam(ctx context.Context, team *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[team.ID] = team
	return nil
}

func (s *Storage) GetTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[id]
	if !ok {
		return nil, model.ErrTeamNotFound
	}
	return team, nil
}

// Application / approach operations

func (s *Storage) SaveApplication(ctx context.Context, app *model.TeamApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[app.ID] = app
	return nil
}

func (s *Storage) GetApplication(ctx context.Context, id model.ApplicationID) (*model.TeamApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, model.ErrApplicationNotFound
	}
	return app, nil
}

func (s *Storage) SaveApplicationIf(ctx context.Context, app *model.TeamApplication, expect model.ApplicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.applications[app.ID]
	if !ok {
		return model.ErrApplicationNotFound
	}
	if current.Status != expect {
		return model.ErrInvalidState
	}
	s.applications[app.ID] = app
	return nil
}

func (s *Storage) SaveApproach(ctx context.Context, approach *model.RecruitmentApproach) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approaches[approach.ID] = approach
	return nil
}

func (s *Storage) GetApproach(ctx context.Context, id model.ApproachID) (*model.RecruitmentApproach, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	approach, ok := s.approaches[id]
	if !ok {
		return nil, model.ErrApproachNotFound
	}
	return approach, nil
}

func (s *Storage) SaveApproachIf(ctx context.Context, approach *model.RecruitmentApproach, expect model.ApplicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.approaches[approach.ID]
	if !ok {
		return model.ErrApproachNotFound
	}
	if current.Status != expect {
		return model.ErrInvalidState
	}
	s.approaches[approach.ID] = approach
	return nil
}

// Tryout operations

func (s *Storage) SaveTryout(ctx context.Context, session *model.TryoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tryouts[session.ID] = session
	return nil
}

func (s *Storage) GetTryout(ctx context.Context, id model.TryoutID) (*model.TryoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.tryouts[id]
	if !ok {
		return nil, model.ErrTryoutNotFound
	}
	return session, nil
}

func (s *Storage) SaveTryoutIf(ctx context.Context, session *model.TryoutSession, expect model.TryoutStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tryouts[session.ID]
	if !ok {
		return model.ErrTryoutNotFound
	}
	if current.Status != expect {
		return model.NewInvalidStateError("save", current.Status)
	}
	s.tryouts[session.ID] = session
	return nil
}

// Message operations

func (s *Storage) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ConversationKey] = append(s.messages[msg.ConversationKey], msg)
	return nil
}

func (s *Storage) ListMessages(ctx context.Context, key model.ConversationKey, page storage.MessagePage) ([]*model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.messages[key]

	start := 0
	if page.After != "" {
		for i, m := range log {
			if m.ID == page.After {
				start = i + 1
				break
			}
		}
	}

	end := len(log)
	if page.Limit > 0 && start+page.Limit < end {
		end = start + page.Limit
	}

	result := make([]*model.ChatMessage, end-start)
	copy(result, log[start:end])
	return result, nil
}

func (s *Storage) SetInvitationStatus(ctx context.Context, key model.ConversationKey, id model.MessageID, status model.InvitationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages[key] {
		if m.ID == id {
			m.InvitationStatus = status
			return nil
		}
	}
	return model.ErrMessageNotFound
}

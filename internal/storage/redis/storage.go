package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/storage"
)

// maxTxRetries bounds optimistic transaction retries when a WATCHed key
// is modified concurrently
const maxTxRetries = 3

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.UserSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.Token), data, s.cfg.SessionTTL).Err()
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.UserSession, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.UserSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}

// Team operations

func (s *Storage) SaveTeam(ctx context.Context, team *model.Team) error {
	data, err := json.Marshal(team)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, teamKey(team.ID), data, 0).Err()
}

func (s *Storage) GetTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	data, err := s.client.Get(ctx, teamKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTeamNotFound
		}
		return nil, err
	}

	var team model.Team
	if err := json.Unmarshal(data, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// Application / approach operations

func (s *Storage) SaveApplication(ctx context.Context, app *model.TeamApplication) error {
	data, err := json.Marshal(app)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, applicationKey(app.ID), data, 0).Err()
}

func (s *Storage) GetApplication(ctx context.Context, id model.ApplicationID) (*model.TeamApplication, error) {
	data, err := s.client.Get(ctx, applicationKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrApplicationNotFound
		}
		return nil, err
	}

	var app model.TeamApplication
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *Storage) SaveApplicationIf(ctx context.Context, app *model.TeamApplication, expect model.ApplicationStatus) error {
	key := applicationKey(app.ID)
	return s.conditionalSave(ctx, key, app, func(data []byte) error {
		var current model.TeamApplication
		if err := json.Unmarshal(data, &current); err != nil {
			return err
		}
		if current.Status != expect {
			return model.ErrInvalidState
		}
		return nil
	}, model.ErrApplicationNotFound)
}

func (s *Storage) SaveApproach(ctx context.Context, approach *model.RecruitmentApproach) error {
	data, err := json.Marshal(approach)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, approachKey(approach.ID), data, 0).Err()
}

func (s *Storage) GetApproach(ctx context.Context, id model.ApproachID) (*model.RecruitmentApproach, error) {
	data, err := s.client.Get(ctx, approachKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrApproachNotFound
		}
		return nil, err
	}

	var approach model.RecruitmentApproach
	if err := json.Unmarshal(data, &approach); err != nil {
		return nil, err
	}
	return &approach, nil
}

func (s *Storage) SaveApproachIf(ctx context.Context, approach *model.RecruitmentApproach, expect model.ApplicationStatus) error {
	key := approachKey(approach.ID)
	return s.conditionalSave(ctx, key, approach, func(data []byte) error {
		var current model.RecruitmentApproach
		if err := json.Unmarshal(data, &current); err != nil {
			return err
		}
		if current.Status != expect {
			return model.ErrInvalidState
		}
		return nil
	}, model.ErrApproachNotFound)
}

// Tryout operations

func (s *Storage) SaveTryout(ctx context.Context, session *model.TryoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, tryoutKey(session.ID), data, 0).Err()
}

func (s *Storage) GetTryout(ctx context.Context, id model.TryoutID) (*model.TryoutSession, error) {
	data, err := s.client.Get(ctx, tryoutKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTryoutNotFound
		}
		return nil, err
	}

	var session model.TryoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) SaveTryoutIf(ctx context.Context, session *model.TryoutSession, expect model.TryoutStatus) error {
	key := tryoutKey(session.ID)
	return s.conditionalSave(ctx, key, session, func(data []byte) error {
		var current model.TryoutSession
		if err := json.Unmarshal(data, &current); err != nil {
			return err
		}
		if current.Status != expect {
			return model.NewInvalidStateError("save", current.Status)
		}
		return nil
	}, model.ErrTryoutNotFound)
}

// conditionalSave implements read-check-write on a single JSON value using
// a WATCH-based optimistic transaction. check receives the current stored
// bytes and returns a domain error to abort the save. Concurrent writers
// that slip between read and write fail the transaction and trigger a
// bounded re-read, so exactly one of two racing transitions succeeds.
func (s *Storage) conditionalSave(ctx context.Context, key string, value any, check func([]byte) error, notFound error) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	txn := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return notFound
			}
			return err
		}
		if err := check(current); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

// Message operations

func (s *Storage) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, conversationKey(msg.ConversationKey), data).Err()
}

func (s *Storage) ListMessages(ctx context.Context, key model.ConversationKey, page storage.MessagePage) ([]*model.ChatMessage, error) {
	// RPUSH appends at the tail, so indexes of already-stored entries are
	// stable under concurrent appends and a full-range read never repeats
	// or drops earlier messages.
	entries, err := s.client.LRange(ctx, conversationKey(key), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	log := make([]*model.ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			continue // Skip invalid data
		}
		log = append(log, &msg)
	}

	// An After id absent from the log falls back to the start, same as the
	// memory backend
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
	return log[start:end], nil
}

func (s *Storage) SetInvitationStatus(ctx context.Context, key model.ConversationKey, id model.MessageID, status model.InvitationStatus) error {
	listKey := conversationKey(key)

	txn := func(tx *redis.Tx) error {
		entries, err := tx.LRange(ctx, listKey, 0, -1).Result()
		if err != nil {
			return err
		}
		for i, entry := range entries {
			var msg model.ChatMessage
			if err := json.Unmarshal([]byte(entry), &msg); err != nil {
				continue
			}
			if msg.ID != id {
				continue
			}
			msg.InvitationStatus = status
			data, err := json.Marshal(&msg)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.LSet(ctx, listKey, int64(i), data)
				return nil
			})
			return err
		}
		return model.ErrMessageNotFound
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, listKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

// Package dialog holds per-operator guided dialogue state. A session is one
// live guided flow keyed by the operator's identity: starting a new flow
// overwrites the previous session for that operator and never touches anyone
// else's.
package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Kind identifies which guided flow a session belongs to.
type Kind string

const (
	KindEventCreation  Kind = "event_creation"
	KindRoleAssignment Kind = "role_assignment"
	KindBroadcast      Kind = "broadcast"
	KindUserSearch     Kind = "user_search"
)

// State is the current step of a guided flow.
type State string

const (
	// Event creation flow, in order.
	StateAwaitingTitle       State = "awaiting_title"
	StateAwaitingDescription State = "awaiting_description"
	StateAwaitingDateTime    State = "awaiting_datetime"
	StateAwaitingLocation    State = "awaiting_location"
	StateAwaitingImage       State = "awaiting_image"
	StateAwaitingDeadline    State = "awaiting_deadline"

	// Role assignment flow.
	StateAwaitingUserID State = "awaiting_user_id"
	StateAwaitingRole   State = "awaiting_role"

	// Single-step flows.
	StateAwaitingBroadcast   State = "awaiting_broadcast"
	StateAwaitingSearchQuery State = "awaiting_search_query"
)

// EventDraft accumulates the creation flow's validated fields. StartsAt and
// RegistrationCloses are stored parsed; the raw inputs are not kept.
type EventDraft struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	StartsAt           time.Time `json:"starts_at"`
	Location           string    `json:"location"`
	ImageRef           string    `json:"image_ref"`
	RegistrationCloses time.Time `json:"registration_closes"`
}

// Session is one operator's active guided flow.
type Session struct {
	Kind  Kind       `json:"kind"`
	State State      `json:"state"`
	Draft EventDraft `json:"draft"`

	// TargetUserID carries the first answer of the role assignment flow.
	TargetUserID int64 `json:"target_user_id,omitempty"`
}

// Store keeps at most one session per operator.
type Store interface {
	// Get returns the operator's session, or nil when no flow is active.
	Get(ctx context.Context, operatorID int64) (*Session, error)
	// Put creates or overwrites the operator's session.
	Put(ctx context.Context, operatorID int64, session *Session) error
	// Clear removes the operator's session; clearing an absent session is a
	// no-op.
	Clear(ctx context.Context, operatorID int64) error
}

// RedisStore persists sessions in Redis so dialogue state survives restarts.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &RedisStore{rdb: redis.NewClient(opts)}, nil
}

func sessionKey(operatorID int64) string {
	return fmt.Sprintf("dialog:session:%d", operatorID)
}

func (s *RedisStore) Get(ctx context.Context, operatorID int64) (*Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(operatorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Put(ctx context.Context, operatorID int64, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// No TTL: an idle dialogue stays pending until committed or cancelled.
	if err := s.rdb.Set(ctx, sessionKey(operatorID), data, 0).Err(); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, operatorID int64) error {
	if err := s.rdb.Del(ctx, sessionKey(operatorID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// MemoryStore is an in-process Store for tests and stub mode.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

func (s *MemoryStore) Get(_ context.Context, operatorID int64) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[operatorID]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *MemoryStore) Put(_ context.Context, operatorID int64, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[operatorID] = &copied
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, operatorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, operatorID)
	return nil
}

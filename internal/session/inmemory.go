package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hummingbird-labs/hummingbird/models"
)

// InMemoryStore keeps sessions in a process-local map. Suitable for a single
// instance; use the redis store when running more than one.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session)}
}

func (s *InMemoryStore) Ensure(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		id = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return copySession(existing), nil
	}
	now := time.Now().UTC()
	created := &Session{ID: id, Status: StatusGathering, CreatedAt: now, UpdatedAt: now}
	s.sessions[id] = created
	return copySession(created), nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	existing, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return copySession(existing), nil
}

func (s *InMemoryStore) Save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = copySession(sess)
	return nil
}

// copySession returns a deep-enough copy so callers cannot mutate stored
// state through returned pointers.
func copySession(in *Session) *Session {
	out := *in
	out.Messages = append([]models.Message(nil), in.Messages...)
	if in.Result != nil {
		set := *in.Result
		set.Recommendations = append([]models.Recommendation(nil), in.Result.Recommendations...)
		out.Result = &set
	}
	return &out
}

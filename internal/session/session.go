package session

import (
	"context"
	"time"

	"github.com/hummingbird-labs/hummingbird/models"
)

// Status tracks where a session is in its lifecycle.
type Status string

const (
	// StatusGathering means the clarification loop is still collecting
	// requirements from the user.
	StatusGathering Status = "gathering"
	// StatusReady means the description is sufficient and a plan run can
	// begin (or is in flight).
	StatusReady Status = "ready"
	// StatusCompleted means a plan run finished and the result is stored.
	// Completed sessions are never re-run.
	StatusCompleted Status = "completed"
)

// Session is one conversation with a user, keyed by an external session id.
type Session struct {
	ID          string                    `json:"id"`
	Messages    []models.Message          `json:"messages"`
	Status      Status                    `json:"status"`
	Description string                    `json:"description,omitempty"`
	Result      *models.RecommendationSet `json:"result,omitempty"`
	RunErr      string                    `json:"run_err,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// Store persists sessions. Implementations must be safe for concurrent use.
type Store interface {
	// Ensure returns the session with the given id, creating it in the
	// gathering state when absent. An empty id gets a generated one.
	Ensure(ctx context.Context, id string) (*Session, error)
	// Get returns the session or models.ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Save writes the session back, bumping UpdatedAt.
	Save(ctx context.Context, s *Session) error
}

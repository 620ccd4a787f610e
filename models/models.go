package models

import (
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a session is not found.
var ErrSessionNotFound = errors.New("session not found")

// ErrResultNotReady is returned when recommendations are requested before a
// session's plan run has completed.
var ErrResultNotReady = errors.New("result not ready")

// Recommendation is one development-stage entry in the final result.
type Recommendation struct {
	Stage       string `json:"stage"`
	ToolName    string `json:"tool_name"`
	Description string `json:"description"`
	Website     string `json:"website,omitempty"`
	Logo        string `json:"logo,omitempty"`
}

// RecommendationSet is the structured result of a plan run, one tool per stage.
type RecommendationSet struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// ToolCandidate is the single selected candidate for a development stage.
// A stage with no usable search result keeps its name and leaves the rest empty.
type ToolCandidate struct {
	Stage       string `json:"stage"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
}

// Message is one exchanged message in a session transcript.
type Message struct {
	Role    string    `json:"role"` // user, assistant
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

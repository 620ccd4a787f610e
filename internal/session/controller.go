package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hummingbird-labs/hummingbird/models"
	"github.com/hummingbird-labs/hummingbird/provider"
)

// clarifyPrompt asks the model to judge whether the transcript describes the
// product well enough to plan for, and to pose the next question when not.
const clarifyPrompt = `You are collecting requirements for a software product idea.
Below is the conversation so far. Decide whether the user's description is
sufficient to recommend concrete tools for building the product. A sufficient
description names what the product does and who it is for.

Respond with JSON only:
{"sufficient": true|false, "question": "<next clarifying question, empty when sufficient>"}

Conversation:
%s`

type clarifyVerdict struct {
	Sufficient bool   `json:"sufficient"`
	Question   string `json:"question"`
}

// SubmitResult is what the clarification loop hands back for one user turn.
type SubmitResult struct {
	Session *Session
	// Reply is the assistant's answer for this turn: either the next
	// clarifying question or an acknowledgement that planning starts.
	Reply string
	// Ready is true when the session just transitioned to ready and a plan
	// run should be kicked off.
	Ready bool
}

// Controller drives the clarification loop: it appends user turns, asks the
// model whether the description is sufficient, and transitions the session
// from gathering to ready.
type Controller struct {
	store  Store
	llm    provider.Provider
	model  string
	logger *log.Logger
}

// NewController wires the loop to a store and a model.
func NewController(store Store, llm provider.Provider, model string) *Controller {
	return &Controller{
		store:  store,
		llm:    llm,
		model:  model,
		logger: log.New(log.Writer(), "[SESSION] ", log.LstdFlags),
	}
}

// Submit records one user message and advances the loop. Completed sessions
// are left untouched; ready sessions just acknowledge.
func (c *Controller) Submit(ctx context.Context, id, content string) (*SubmitResult, error) {
	sess, err := c.store.Ensure(ctx, id)
	if err != nil {
		return nil, err
	}

	switch sess.Status {
	case StatusCompleted:
		return &SubmitResult{Session: sess, Reply: "Your recommendations are ready."}, nil
	case StatusReady:
		return &SubmitResult{Session: sess, Reply: "I'm working on your recommendations."}, nil
	}

	sess.Messages = append(sess.Messages, models.Message{
		Role: "user", Content: content, At: time.Now().UTC(),
	})

	verdict, err := c.assess(ctx, sess)
	if err != nil {
		// Keep the turn even when the model call fails, so the user's
		// input is not lost.
		if saveErr := c.store.Save(ctx, sess); saveErr != nil {
			c.logger.Printf("saving session %s after assess failure: %v", sess.ID, saveErr)
		}
		return nil, fmt.Errorf("assessing session %s: %w", sess.ID, err)
	}

	var reply string
	ready := false
	if verdict.Sufficient {
		sess.Status = StatusReady
		sess.Description = assembleDescription(sess.Messages)
		reply = "Great, I have enough to work with. Give me a moment to put together recommendations."
		ready = true
	} else {
		reply = verdict.Question
		if reply == "" {
			reply = "Could you tell me more about what the product does and who it is for?"
		}
	}
	sess.Messages = append(sess.Messages, models.Message{
		Role: "assistant", Content: reply, At: time.Now().UTC(),
	})

	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session %s: %w", sess.ID, err)
	}
	return &SubmitResult{Session: sess, Reply: reply, Ready: ready}, nil
}

// Terminate forces a gathering session to ready with whatever description the
// transcript holds. Used to re-arm a run after a failure, and to let the
// caller cut the loop short.
func (c *Controller) Terminate(ctx context.Context, id string) (*Session, error) {
	sess, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusCompleted {
		return sess, nil
	}
	sess.Status = StatusReady
	sess.RunErr = ""
	if sess.Description == "" {
		sess.Description = assembleDescription(sess.Messages)
	}
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session %s: %w", sess.ID, err)
	}
	return sess, nil
}

func (c *Controller) assess(ctx context.Context, sess *Session) (*clarifyVerdict, error) {
	prompt := fmt.Sprintf(clarifyPrompt, transcript(sess.Messages))
	var verdict clarifyVerdict
	if err := c.llm.GenerateJSON(ctx, prompt, c.model, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

// transcript renders messages as alternating speaker lines.
func transcript(messages []models.Message) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case "user":
			b.WriteString("User: ")
		default:
			b.WriteString("Assistant: ")
		}
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

// assembleDescription folds the user's turns into one product description.
func assembleDescription(messages []models.Message) string {
	var parts []string
	for _, m := range messages {
		if m.Role == "user" && strings.TrimSpace(m.Content) != "" {
			parts = append(parts, strings.TrimSpace(m.Content))
		}
	}
	return strings.Join(parts, " ")
}

package capability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tool ids bound by the built-in plans.
const (
	ListToolID      = "llm_list_tool"
	StructureToolID = "llm_structure_tool"
	SearchToolID    = "search_tool"
)

// Tool is a pluggable capability invoked by identifier from a plan step.
type Tool interface {
	ID() string
	Execute(ctx context.Context, task string, inputs map[string]interface{}) (interface{}, error)
}

// ErrToolMissing indicates a required tool is not registered.
var ErrToolMissing = fmt.Errorf("required tool missing")

var (
	toolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hummingbird_tool_invocations_total",
		Help: "Tool invocations by tool id and outcome.",
	}, []string{"tool", "outcome"})
	toolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hummingbird_tool_duration_seconds",
		Help:    "Tool invocation latency by tool id.",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool"})
)

// Registry holds validated tools keyed by identifier. It is the only place
// binding a tool id to a concrete capability; resolved once at startup.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry indexes tools and ensures required ids exist.
func NewRegistry(tools []Tool, required []string) (*Registry, error) {
	reg := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t.ID() == "" {
			return nil, fmt.Errorf("tool with empty id")
		}
		if _, dup := reg.tools[t.ID()]; dup {
			return nil, fmt.Errorf("duplicate tool id %q", t.ID())
		}
		reg.tools[t.ID()] = t
	}
	if len(required) == 0 {
		required = []string{ListToolID, StructureToolID, SearchToolID}
	}
	for _, r := range required {
		if _, ok := reg.tools[r]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrToolMissing, r)
		}
	}
	return reg, nil
}

// Tool returns the capability registered under id.
func (r *Registry) Tool(id string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.tools[id]
	return t, ok
}

// Execute invokes the tool registered under id, recording invocation metrics.
func (r *Registry) Execute(ctx context.Context, id string, task string, inputs map[string]interface{}) (interface{}, error) {
	t, ok := r.Tool(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolMissing, id)
	}
	start := time.Now()
	out, err := t.Execute(ctx, task, inputs)
	toolDuration.WithLabelValues(id).Observe(time.Since(start).Seconds())
	if err != nil {
		toolInvocations.WithLabelValues(id, "error").Inc()
		return nil, err
	}
	toolInvocations.WithLabelValues(id, "success").Inc()
	return out, nil
}

package runner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hummingbird-labs/hummingbird/internal/capability"
	"github.com/hummingbird-labs/hummingbird/internal/plan"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StepFailure reports an irrecoverable tool invocation failure. The run is
// abandoned; no partial structured result is returned.
type StepFailure struct {
	Index  int
	ToolID string
	Err    error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.ToolID, e.Err)
}

func (e *StepFailure) Unwrap() error { return e.Err }

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hummingbird_plan_runs_total",
		Help: "Plan runs by plan id and outcome.",
	}, []string{"plan", "outcome"})
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hummingbird_plan_run_duration_seconds",
		Help:    "Plan run duration by plan id.",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	}, []string{"plan"})
)

// Runner executes loaded plans step by step against the tool registry.
// Steps run strictly sequentially; the loader already guarantees a later step
// only consumes earlier outputs, so the runner never re-checks ordering.
type Runner struct {
	registry *capability.Registry
	logger   *log.Logger
}

// New creates a new Runner instance.
func New(registry *capability.Registry) *Runner {
	return &Runner{
		registry: registry,
		logger:   log.New(log.Writer(), "[RUNNER] ", log.LstdFlags),
	}
}

// Run executes the plan with the given initial bindings and returns the value
// bound by the last executed step. Steps whose condition evaluates false are
// skipped and leave their output variable absent. The runner never retries;
// retrying a failed run is the caller's decision.
func (r *Runner) Run(ctx context.Context, p *plan.Plan, initial map[string]interface{}) (interface{}, error) {
	start := time.Now()
	state := NewRunState(initial)

	var result interface{}
	executed := 0
	for i, st := range p.Steps {
		if !st.Condition.Eval(state.Get) {
			r.logger.Printf("plan %s: skipping step %d (%s), condition false", p.ID, i, st.ToolID)
			continue
		}

		task, err := plan.Render(st.Task, state.Get)
		if err != nil {
			runsTotal.WithLabelValues(p.ID, "failure").Inc()
			return nil, &StepFailure{Index: i, ToolID: st.ToolID, Err: err}
		}

		inputs := make(map[string]interface{}, len(st.Inputs))
		for _, in := range st.Inputs {
			switch in.Source {
			case plan.SourceLiteral:
				inputs[in.Name] = in.Value
			case plan.SourceOutput:
				v, ok := state.Get(in.Name)
				if !ok {
					// Produced by a skipped step; the plan's conditions are
					// expected to guard against this.
					runsTotal.WithLabelValues(p.ID, "failure").Inc()
					return nil, &StepFailure{Index: i, ToolID: st.ToolID, Err: fmt.Errorf("input %q is unbound", in.Name)}
				}
				inputs[in.Name] = v
			}
		}

		r.logger.Printf("plan %s: step %d invoking %s", p.ID, i, st.ToolID)
		out, err := r.registry.Execute(ctx, st.ToolID, task, inputs)
		if err != nil {
			runsTotal.WithLabelValues(p.ID, "failure").Inc()
			return nil, &StepFailure{Index: i, ToolID: st.ToolID, Err: err}
		}
		state.Bind(st.Output, out)
		result = out
		executed++
	}

	if executed == 0 {
		runsTotal.WithLabelValues(p.ID, "failure").Inc()
		return nil, fmt.Errorf("plan %s: every step was skipped", p.ID)
	}

	runsTotal.WithLabelValues(p.ID, "success").Inc()
	runDuration.WithLabelValues(p.ID).Observe(time.Since(start).Seconds())
	r.logger.Printf("plan %s: completed %d/%d steps in %v", p.ID, executed, len(p.Steps), time.Since(start))
	return result, nil
}

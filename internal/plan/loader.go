package plan

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "embed"
)

//go:embed generation_plan.json
var generationPlanJSON []byte

// ErrMalformedPlan indicates a plan definition that references undeclared
// variables or tools. Fatal at load time; the process must not start with an
// invalid plan.
var ErrMalformedPlan = fmt.Errorf("malformed plan")

// Load parses and validates a plan definition. Loading is pure: a returned
// Plan is immutable and safe to reuse across concurrent runs.
func Load(raw []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", ErrMalformedPlan, err)
	}
	if strings.TrimSpace(p.ID) == "" {
		return nil, fmt.Errorf("%w: missing plan id", ErrMalformedPlan)
	}
	if len(p.Steps) == 0 {
		return nil, fmt.Errorf("%w: plan %s has no steps", ErrMalformedPlan, p.ID)
	}

	allowed := make(map[string]struct{}, len(p.Tools))
	for _, t := range p.Tools {
		allowed[t] = struct{}{}
	}

	// Variables bound before any step runs: the caller-supplied inputs.
	bound := make(map[string]struct{}, len(p.Inputs))
	for _, in := range p.Inputs {
		bound[in] = struct{}{}
	}

	for i, st := range p.Steps {
		if strings.TrimSpace(st.Task) == "" {
			return nil, fmt.Errorf("%w: step %d has no task", ErrMalformedPlan, i)
		}
		if _, ok := allowed[st.ToolID]; !ok {
			return nil, fmt.Errorf("%w: step %d uses undeclared tool %q", ErrMalformedPlan, i, st.ToolID)
		}
		if strings.TrimSpace(st.Output) == "" {
			return nil, fmt.Errorf("%w: step %d has no output variable", ErrMalformedPlan, i)
		}
		if _, dup := bound[st.Output]; dup {
			return nil, fmt.Errorf("%w: step %d redeclares variable %q", ErrMalformedPlan, i, st.Output)
		}

		// Every referenced variable must be produced by a strictly earlier
		// step or declared as a plan input. This makes step order a valid
		// topological order; the executor never re-checks it.
		for _, name := range TemplateVars(st.Task) {
			if _, ok := bound[name]; !ok {
				return nil, fmt.Errorf("%w: step %d task references undeclared variable %q", ErrMalformedPlan, i, name)
			}
		}
		for _, in := range st.Inputs {
			switch in.Source {
			case SourceLiteral:
			case SourceOutput:
				if _, ok := bound[in.Name]; !ok {
					return nil, fmt.Errorf("%w: step %d input %q references no earlier output", ErrMalformedPlan, i, in.Name)
				}
			default:
				return nil, fmt.Errorf("%w: step %d input %q has unknown source %q", ErrMalformedPlan, i, in.Name, in.Source)
			}
		}
		for _, name := range st.Condition.vars() {
			if _, ok := bound[name]; !ok {
				return nil, fmt.Errorf("%w: step %d condition references undeclared variable %q", ErrMalformedPlan, i, name)
			}
		}

		bound[st.Output] = struct{}{}
	}

	return &p, nil
}

var (
	loadOnce       sync.Once
	generationPlan *Plan
	loadErr        error
)

// GenerationPlan returns the built-in recommendation plan: enumerate
// development stages, find one tool per stage, assemble the structured result.
func GenerationPlan() (*Plan, error) {
	loadOnce.Do(func() {
		generationPlan, loadErr = Load(generationPlanJSON)
	})
	return generationPlan, loadErr
}

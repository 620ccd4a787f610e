package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/hummingbird-labs/hummingbird/internal/capability"
	"github.com/hummingbird-labs/hummingbird/internal/plan"
	"github.com/hummingbird-labs/hummingbird/models"
)

type scriptedTool struct {
	id    string
	fn    func(task string, inputs map[string]interface{}) (interface{}, error)
	calls int
	tasks []string
}

func (s *scriptedTool) ID() string { return s.id }

func (s *scriptedTool) Execute(ctx context.Context, task string, inputs map[string]interface{}) (interface{}, error) {
	s.calls++
	s.tasks = append(s.tasks, task)
	return s.fn(task, inputs)
}

func newTestRegistry(t *testing.T, tools ...capability.Tool) *capability.Registry {
	t.Helper()
	ids := make([]string, 0, len(tools))
	for _, tool := range tools {
		ids = append(ids, tool.ID())
	}
	reg, err := capability.NewRegistry(tools, ids)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func constTool(id string, out interface{}) *scriptedTool {
	return &scriptedTool{id: id, fn: func(string, map[string]interface{}) (interface{}, error) { return out, nil }}
}

func twoStepPlan(t *testing.T) *plan.Plan {
	t.Helper()
	p, err := plan.Load([]byte(`{
		"id": "p",
		"inputs": ["product_description"],
		"tools": ["llm_list_tool", "search_tool"],
		"steps": [
			{"task": "list stages for $product_description", "tool_id": "llm_list_tool", "output": "stages"},
			{"task": "search", "inputs": [{"name": "stages", "source": "output"}], "tool_id": "search_tool", "output": "hits"}
		]
	}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return p
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	var order []string
	list := &scriptedTool{id: "llm_list_tool", fn: func(string, map[string]interface{}) (interface{}, error) {
		order = append(order, "list")
		return []string{"a", "b"}, nil
	}}
	search := &scriptedTool{id: "search_tool", fn: func(task string, inputs map[string]interface{}) (interface{}, error) {
		order = append(order, "search")
		stages, ok := inputs["stages"].([]string)
		if !ok || len(stages) != 2 {
			t.Fatalf("stages not bound before dependent step: %#v", inputs)
		}
		return "done", nil
	}}

	r := New(newTestRegistry(t, list, search))
	out, err := r.Run(context.Background(), twoStepPlan(t), map[string]interface{}{"product_description": "a shop"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "done" {
		t.Fatalf("expected last step output, got %v", out)
	}
	if len(order) != 2 || order[0] != "list" || order[1] != "search" {
		t.Fatalf("unexpected execution order: %v", order)
	}
	if list.tasks[0] != "list stages for a shop" {
		t.Fatalf("template not rendered: %q", list.tasks[0])
	}
}

func TestRunAbortsOnStepFailure(t *testing.T) {
	boom := errors.New("boom")
	list := &scriptedTool{id: "llm_list_tool", fn: func(string, map[string]interface{}) (interface{}, error) {
		return nil, boom
	}}
	search := constTool("search_tool", "never")

	r := New(newTestRegistry(t, list, search))
	_, err := r.Run(context.Background(), twoStepPlan(t), map[string]interface{}{"product_description": "x"})

	var sf *StepFailure
	if !errors.As(err, &sf) {
		t.Fatalf("expected StepFailure, got %v", err)
	}
	if sf.Index != 0 || sf.ToolID != "llm_list_tool" {
		t.Fatalf("unexpected failure detail: %+v", sf)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved")
	}
	if search.calls != 0 {
		t.Fatalf("later step must not run after failure")
	}
}

func TestRunSkipsStepWithFalseCondition(t *testing.T) {
	p, err := plan.Load([]byte(`{
		"id": "p",
		"inputs": ["mode"],
		"tools": ["llm_list_tool", "search_tool"],
		"steps": [
			{"task": "a", "tool_id": "llm_list_tool", "output": "first"},
			{"task": "b", "tool_id": "search_tool", "output": "second",
			 "condition": {"equals": {"var": "mode", "value": "full"}}}
		]
	}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	list := constTool("llm_list_tool", "one")
	search := constTool("search_tool", "two")
	r := New(newTestRegistry(t, list, search))

	out, err := r.Run(context.Background(), p, map[string]interface{}{"mode": "quick"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if search.calls != 0 {
		t.Fatalf("condition-false step must not run")
	}
	// The skipped step leaves its output absent; the last executed step wins.
	if out != "one" {
		t.Fatalf("expected first step output, got %v", out)
	}
}

func TestRunEndToEndThreeSteps(t *testing.T) {
	stages := []string{"Design DB schema", "Build API", "Build UI"}
	list := constTool("llm_list_tool", stages)
	search := &scriptedTool{id: "search_tool", fn: func(_ string, inputs map[string]interface{}) (interface{}, error) {
		in := inputs["stages"].([]string)
		out := make([]models.ToolCandidate, len(in))
		for i, st := range in {
			out[i] = models.ToolCandidate{Stage: st, Name: "Tool-" + st, Website: "https://example.com"}
		}
		return out, nil
	}}
	structure := &scriptedTool{id: "llm_structure_tool", fn: func(_ string, inputs map[string]interface{}) (interface{}, error) {
		candidates := inputs["tool_candidates"].([]models.ToolCandidate)
		set := &models.RecommendationSet{}
		for _, c := range candidates {
			set.Recommendations = append(set.Recommendations, models.Recommendation{
				Stage: c.Stage, ToolName: c.Name, Website: c.Website, Description: "stubbed",
			})
		}
		return set, nil
	}}

	p, err := plan.GenerationPlan()
	if err != nil {
		t.Fatalf("GenerationPlan: %v", err)
	}
	r := New(newTestRegistry(t, list, search, structure))
	out, err := r.Run(context.Background(), p, map[string]interface{}{"product_description": "a fitness tracker"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	set, ok := out.(*models.RecommendationSet)
	if !ok {
		t.Fatalf("unexpected result type %T", out)
	}
	if len(set.Recommendations) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(set.Recommendations))
	}
	for i, rec := range set.Recommendations {
		if rec.Stage != stages[i] {
			t.Fatalf("stage order not preserved: %+v", set.Recommendations)
		}
		if rec.ToolName == "" {
			t.Fatalf("entry %d has no tool_name", i)
		}
	}
}

func TestRunStateInsertionOrder(t *testing.T) {
	s := NewRunState(map[string]interface{}{"b": 1, "a": 2})
	s.Bind("z", 3)
	s.Bind("a", 4) // rebind keeps position
	names := s.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "z" {
		t.Fatalf("unexpected order: %v", names)
	}
	if v, ok := s.Get("a"); !ok || v != 4 {
		t.Fatalf("rebind lost value: %v %v", v, ok)
	}
}

package capability

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hummingbird-labs/hummingbird/models"
)

type stubLLM struct {
	json    string
	err     error
	prompts []string
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, model string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.json, s.err
}

func (s *stubLLM) GenerateJSON(ctx context.Context, prompt string, model string, out interface{}) error {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.json), out)
}

func TestListToolBoundsItems(t *testing.T) {
	llm := &stubLLM{json: `{"items": ["a", "b", " ", "c", "d"]}`}
	tool := &ListTool{LLM: llm, Model: "m", MaxItems: 3}

	out, err := tool.Execute(context.Background(), "list stages", nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	items := out.([]string)
	if len(items) != 3 || items[0] != "a" || items[2] != "c" {
		t.Fatalf("unexpected items: %v", items)
	}
}

func TestListToolEmptyResponseFails(t *testing.T) {
	tool := &ListTool{LLM: &stubLLM{json: `{"items": []}`}, Model: "m"}
	if _, err := tool.Execute(context.Background(), "list", nil); err == nil {
		t.Fatalf("expected error for empty list")
	}
}

func TestStructureToolReturnsRecommendationSet(t *testing.T) {
	llm := &stubLLM{json: `{"recommendations": [
		{"stage": "Build API", "tool_name": "FastAPI", "description": "framework", "website": "https://fastapi.tiangolo.com"}
	]}`}
	tool := &StructureTool{LLM: llm, Model: "m"}

	out, err := tool.Execute(context.Background(), "assemble", map[string]interface{}{
		"stages": []string{"Build API"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	set := out.(*models.RecommendationSet)
	if len(set.Recommendations) != 1 || set.Recommendations[0].ToolName != "FastAPI" {
		t.Fatalf("unexpected set: %+v", set)
	}
	if !strings.Contains(llm.prompts[0], "stages: Build API") {
		t.Fatalf("expected inputs in prompt, got: %s", llm.prompts[0])
	}
}

func TestStructureToolRejectsMissingToolName(t *testing.T) {
	llm := &stubLLM{json: `{"recommendations": [{"stage": "Build API", "tool_name": ""}]}`}
	tool := &StructureTool{LLM: llm, Model: "m"}
	if _, err := tool.Execute(context.Background(), "assemble", nil); err == nil {
		t.Fatalf("expected error for missing tool_name")
	}
}

func TestToolsPropagateLLMErrors(t *testing.T) {
	boom := errors.New("boom")
	if _, err := (&ListTool{LLM: &stubLLM{err: boom}, Model: "m"}).Execute(context.Background(), "x", nil); !errors.Is(err, boom) {
		t.Fatalf("list: expected wrapped boom, got %v", err)
	}
	if _, err := (&StructureTool{LLM: &stubLLM{err: boom}, Model: "m"}).Execute(context.Background(), "x", nil); !errors.Is(err, boom) {
		t.Fatalf("structure: expected wrapped boom, got %v", err)
	}
}

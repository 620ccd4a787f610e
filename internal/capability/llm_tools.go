package capability

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/hummingbird-labs/hummingbird/internal/plan"
	"github.com/hummingbird-labs/hummingbird/models"
	"github.com/hummingbird-labs/hummingbird/provider"
)

// ListTool generates a bounded ordered list of strings from a task prompt,
// relying solely on the LLM.
type ListTool struct {
	LLM      provider.Provider
	Model    string
	MaxItems int
	Logger   *log.Logger
}

func (t *ListTool) ID() string { return ListToolID }

func (t *ListTool) Execute(ctx context.Context, task string, inputs map[string]interface{}) (interface{}, error) {
	prompt := fmt.Sprintf(`You respond using only your native LLM capabilities; you never call other tools.
%s

Respond with a JSON object of the form {"items": ["...", "..."]}.`, withContext(task, inputs))

	var out struct {
		Items []string `json:"items"`
	}
	if err := t.LLM.GenerateJSON(ctx, prompt, t.Model, &out); err != nil {
		return nil, fmt.Errorf("list generation failed: %w", err)
	}
	items := make([]string, 0, len(out.Items))
	for _, it := range out.Items {
		it = strings.TrimSpace(it)
		if it != "" {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("list generation returned no items")
	}
	if t.MaxItems > 0 && len(items) > t.MaxItems {
		items = items[:t.MaxItems]
	}
	if t.Logger != nil {
		t.Logger.Printf("generated %d items", len(items))
	}
	return items, nil
}

// StructureTool produces the final structured recommendation set.
type StructureTool struct {
	LLM    provider.Provider
	Model  string
	Logger *log.Logger
}

func (t *StructureTool) ID() string { return StructureToolID }

func (t *StructureTool) Execute(ctx context.Context, task string, inputs map[string]interface{}) (interface{}, error) {
	prompt := fmt.Sprintf(`You respond using only your native LLM capabilities; you never call other tools.
%s

Respond with a JSON object of the form
{"recommendations": [{"stage": "...", "tool_name": "...", "description": "...", "website": "..."}]}.`, withContext(task, inputs))

	var out models.RecommendationSet
	if err := t.LLM.GenerateJSON(ctx, prompt, t.Model, &out); err != nil {
		return nil, fmt.Errorf("structured generation failed: %w", err)
	}
	if len(out.Recommendations) == 0 {
		return nil, fmt.Errorf("structured generation returned no recommendations")
	}
	for i := range out.Recommendations {
		if strings.TrimSpace(out.Recommendations[i].ToolName) == "" {
			return nil, fmt.Errorf("structured generation returned entry %d without tool_name", i)
		}
	}
	return &out, nil
}

// withContext appends resolved step inputs to the rendered task, mirroring how
// run context is fed to jack-of-all-trades LLM tools.
func withContext(task string, inputs map[string]interface{}) string {
	if len(inputs) == 0 {
		return task
	}
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(task)
	b.WriteString("\n\nContext from earlier steps:")
	for _, name := range names {
		b.WriteString(fmt.Sprintf("\n- %s: %s", name, plan.Stringify(inputs[name])))
	}
	return b.String()
}

package capability

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/hummingbird-labs/hummingbird/models"
	"github.com/hummingbird-labs/hummingbird/tools/web_search"
	searchmodels "github.com/hummingbird-labs/hummingbird/tools/web_search/models"
)

// SearchTool invokes the web search capability. Given a "stages" input it
// selects exactly one tool candidate per stage; otherwise it returns raw
// search results for the rendered task.
type SearchTool struct {
	Searcher   web_search.WebSearcher
	MaxResults int
	Logger     *log.Logger
}

func (t *SearchTool) ID() string { return SearchToolID }

func (t *SearchTool) Execute(ctx context.Context, task string, inputs map[string]interface{}) (interface{}, error) {
	k := t.MaxResults
	if k <= 0 {
		k = 3
	}

	stages := stringList(inputs["stages"])
	if len(stages) == 0 {
		return t.Searcher.Discover(ctx, task, k)
	}

	product := ""
	if v, ok := inputs["product_description"].(string); ok {
		product = v
	}

	candidates := make([]models.ToolCandidate, 0, len(stages))
	for _, stage := range stages {
		query := fmt.Sprintf("best software tool for %q", stage)
		if product != "" {
			query += " when building " + product
		}
		results, err := t.Searcher.Discover(ctx, query, k)
		if err != nil {
			// One stage's search failure never aborts the whole run.
			if t.Logger != nil {
				t.Logger.Printf("search failed for stage %q: %v", stage, err)
			}
			candidates = append(candidates, models.ToolCandidate{Stage: stage})
			continue
		}
		candidates = append(candidates, selectCandidate(stage, results))
	}
	return candidates, nil
}

// selectCandidate picks the first well-formed result and discards the rest.
// A stage with no usable result yields a name-only candidate so the
// structuring step still emits an entry for it.
func selectCandidate(stage string, results []searchmodels.Result) models.ToolCandidate {
	for _, r := range results {
		if !wellFormed(r) {
			continue
		}
		return models.ToolCandidate{
			Stage:       stage,
			Name:        strings.TrimSpace(r.Title),
			Description: strings.TrimSpace(r.Snippet),
			Website:     r.URL,
		}
	}
	return models.ToolCandidate{Stage: stage}
}

func wellFormed(r searchmodels.Result) bool {
	if strings.TrimSpace(r.Title) == "" {
		return false
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// stringList coerces a run-state value into a []string.
func stringList(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

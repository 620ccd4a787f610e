package plan

import "fmt"

// Input sources.
const (
	SourceLiteral = "literal"
	SourceOutput  = "output"
)

// Plan is an immutable, ordered sequence of steps with declared data
// dependencies. A loaded plan may be reused across runs.
type Plan struct {
	ID     string   `json:"id"`
	Query  string   `json:"query,omitempty"`
	Inputs []string `json:"inputs,omitempty"` // variables the caller must bind
	Tools  []string `json:"tools"`            // allowed tool identifiers
	Steps  []Step   `json:"steps"`
}

// Step is one unit of plan execution.
type Step struct {
	Task      string     `json:"task"`
	Inputs    []Input    `json:"inputs,omitempty"`
	ToolID    string     `json:"tool_id"`
	Output    string     `json:"output"`
	Condition *Condition `json:"condition,omitempty"`
}

// Input binds a named value into a step, either verbatim or from an earlier
// step's output.
type Input struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// Condition is a minimal boolean expression over run-state variables:
// existence and equality checks, optionally negated.
type Condition struct {
	Exists string     `json:"exists,omitempty"`
	Equals *Equality  `json:"equals,omitempty"`
	Not    *Condition `json:"not,omitempty"`
}

// Equality compares a variable's stringified value against a constant.
type Equality struct {
	Var   string `json:"var"`
	Value string `json:"value"`
}

// Eval evaluates the condition against a variable lookup.
func (c *Condition) Eval(lookup func(string) (interface{}, bool)) bool {
	if c == nil {
		return true
	}
	if c.Not != nil {
		return !c.Not.Eval(lookup)
	}
	if c.Exists != "" {
		_, ok := lookup(c.Exists)
		return ok
	}
	if c.Equals != nil {
		v, ok := lookup(c.Equals.Var)
		if !ok {
			return false
		}
		return fmt.Sprint(v) == c.Equals.Value
	}
	return true
}

// vars returns every variable the condition references.
func (c *Condition) vars() []string {
	if c == nil {
		return nil
	}
	if c.Not != nil {
		return c.Not.vars()
	}
	var out []string
	if c.Exists != "" {
		out = append(out, c.Exists)
	}
	if c.Equals != nil {
		out = append(out, c.Equals.Var)
	}
	return out
}

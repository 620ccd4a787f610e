package plan

import (
	"reflect"
	"testing"
)

func mapLookup(m map[string]interface{}) func(string) (interface{}, bool) {
	return func(name string) (interface{}, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestRenderSubstitutesVariables(t *testing.T) {
	got, err := Render("build $kind for ${audience}.", mapLookup(map[string]interface{}{
		"kind":     "a website",
		"audience": "students",
	}))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "build a website for students." {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestRenderStringifiesLists(t *testing.T) {
	got, err := Render("stages: $stages", mapLookup(map[string]interface{}{
		"stages": []string{"Design DB schema", "Build API"},
	}))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "stages: Design DB schema, Build API" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestRenderUnboundVariableFails(t *testing.T) {
	if _, err := Render("needs $missing", mapLookup(nil)); err == nil {
		t.Fatalf("expected error for unbound variable")
	}
}

func TestRenderLeavesBareDollar(t *testing.T) {
	got, err := Render("costs $5 and $ more", mapLookup(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "costs $5 and $ more" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestTemplateVars(t *testing.T) {
	vars := TemplateVars("use $a then ${b} then $a again")
	if !reflect.DeepEqual(vars, []string{"a", "b"}) {
		t.Fatalf("unexpected vars: %v", vars)
	}
}

func TestConditionEval(t *testing.T) {
	lookup := mapLookup(map[string]interface{}{"mode": "fast", "stages": []string{"x"}})

	cases := []struct {
		name string
		cond *Condition
		want bool
	}{
		{"nil always true", nil, true},
		{"exists hit", &Condition{Exists: "stages"}, true},
		{"exists miss", &Condition{Exists: "ghost"}, false},
		{"equals hit", &Condition{Equals: &Equality{Var: "mode", Value: "fast"}}, true},
		{"equals miss", &Condition{Equals: &Equality{Var: "mode", Value: "slow"}}, false},
		{"equals absent var", &Condition{Equals: &Equality{Var: "ghost", Value: "x"}}, false},
		{"not", &Condition{Not: &Condition{Exists: "ghost"}}, true},
	}
	for _, tc := range cases {
		if got := tc.cond.Eval(lookup); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

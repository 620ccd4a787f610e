package runner

import "sort"

// RunState is the mapping of variable name to produced value accumulated
// during one plan execution. Insertion order follows step completion order;
// the state grows monotonically and is discarded when the run ends.
type RunState struct {
	order []string
	vals  map[string]interface{}
}

// NewRunState seeds a run state with the caller-supplied initial bindings.
func NewRunState(initial map[string]interface{}) *RunState {
	s := &RunState{vals: make(map[string]interface{}, len(initial))}
	names := make([]string, 0, len(initial))
	for name := range initial {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.Bind(name, initial[name])
	}
	return s
}

// Bind stores a produced value under name.
func (s *RunState) Bind(name string, v interface{}) {
	if _, ok := s.vals[name]; !ok {
		s.order = append(s.order, name)
	}
	s.vals[name] = v
}

// Get returns the value bound to name.
func (s *RunState) Get(name string) (interface{}, bool) {
	v, ok := s.vals[name]
	return v, ok
}

// Names returns bound variable names in insertion order.
func (s *RunState) Names() []string {
	return append([]string(nil), s.order...)
}

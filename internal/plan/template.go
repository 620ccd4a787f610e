package plan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Task templates are literal text with $name or ${name} variable markers,
// resolved by straight lookup. No escaping and no expression evaluation.

// Render substitutes every variable marker in the template using lookup.
// Referencing an unbound variable is an error.
func Render(template string, lookup func(string) (interface{}, bool)) (string, error) {
	var b strings.Builder
	for i := 0; i < len(template); {
		c := template[i]
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}
		name, width := scanVar(template[i:])
		if name == "" {
			b.WriteByte(c)
			i++
			continue
		}
		v, ok := lookup(name)
		if !ok {
			return "", fmt.Errorf("template references unbound variable %q", name)
		}
		b.WriteString(Stringify(v))
		i += width
	}
	return b.String(), nil
}

// TemplateVars returns the variable names referenced by a template, in order
// of first appearance.
func TemplateVars(template string) []string {
	var out []string
	seen := make(map[string]struct{})
	for i := 0; i < len(template); {
		if template[i] != '$' {
			i++
			continue
		}
		name, width := scanVar(template[i:])
		if name == "" {
			i++
			continue
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			out = append(out, name)
		}
		i += width
	}
	return out
}

// scanVar parses a $name or ${name} marker at the start of s. It returns the
// variable name and the total marker width, or "" when s holds no marker.
func scanVar(s string) (string, int) {
	if len(s) < 2 || s[0] != '$' {
		return "", 0
	}
	if s[1] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return "", 0
		}
		name := s[2:end]
		if !validVarName(name) {
			return "", 0
		}
		return name, end + 1
	}
	if !isVarStart(s[1]) {
		return "", 0
	}
	j := 2
	for j < len(s) && isVarChar(s[j]) {
		j++
	}
	return s[1:j], j
}

func validVarName(name string) bool {
	if name == "" || !isVarStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isVarChar(name[i]) {
			return false
		}
	}
	return true
}

func isVarStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isVarChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Stringify renders a run-state value for prompt interpolation. Strings pass
// through, string slices become a comma-separated list, everything else is
// JSON-encoded.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

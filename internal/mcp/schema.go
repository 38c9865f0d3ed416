package mcp

import (
	"errors"
	"fmt"
	"strings"
)

// fieldSpec describes one argument of a tool: its wire type, whether it is
// required, and an optional default applied when absent.
type fieldSpec struct {
	name     string
	typ      string // "string" | "integer" | "boolean"
	required bool
	positive bool // integers only: the value must be >= 1
	def      any
}

// validateArgs checks args against the field specs, fills defaults, and
// returns the validated values. Every violation is collected so the error
// message names all offending fields at once.
func validateArgs(args map[string]any, fields []fieldSpec) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	var problems []string

	for _, f := range fields {
		v, present := args[f.name]
		if !present || v == nil {
			if f.required {
				problems = append(problems, fmt.Sprintf("%s is required", f.name))
				continue
			}
			if f.def != nil {
				out[f.name] = f.def
			}
			continue
		}

		switch f.typ {
		case "string":
			s, ok := v.(string)
			if !ok {
				problems = append(problems, fmt.Sprintf("%s must be a string", f.name))
				continue
			}
			if f.required && s == "" {
				problems = append(problems, fmt.Sprintf("%s must not be empty", f.name))
				continue
			}
			out[f.name] = s
		case "integer":
			n, ok := asInt(v)
			if !ok {
				problems = append(problems, fmt.Sprintf("%s must be an integer", f.name))
				continue
			}
			if f.positive && n < 1 {
				problems = append(problems, fmt.Sprintf("%s must be a positive integer", f.name))
				continue
			}
			out[f.name] = n
		case "boolean":
			b, ok := v.(bool)
			if !ok {
				problems = append(problems, fmt.Sprintf("%s must be a boolean", f.name))
				continue
			}
			out[f.name] = b
		default:
			problems = append(problems, fmt.Sprintf("%s has unsupported type %s", f.name, f.typ))
		}
	}

	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}
	return out, nil
}

// asInt accepts the shapes JSON decoding and tests produce for integers.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argInt(args map[string]any, key string) int {
	n, _ := args[key].(int)
	return n
}

func argBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

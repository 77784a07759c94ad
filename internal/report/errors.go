package report

import (
	"fmt"
	"strings"
)

// CodeMissingMethods is the code of every ConformanceError.
const CodeMissingMethods = "E301"

// ConformanceError lists every concrete type of a scope that lacks an
// implementation of an inherited requirement.
type ConformanceError struct {
	Scope   string
	Missing []MissingMethod
}

func (e *ConformanceError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s conformance error: %s: %d missing method(s)", CodeMissingMethods, e.Scope, len(e.Missing))
	for _, m := range e.Missing {
		sb.WriteString("\n  ")
		sb.WriteString(m.String())
	}
	return sb.String()
}

func (e *ConformanceError) Code() string { return CodeMissingMethods }

// Types returns the offending type IDs, each once, in report order.
func (e *ConformanceError) Types() []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range e.Missing {
		if !seen[m.Type] {
			seen[m.Type] = true
			out = append(out, m.Type)
		}
	}
	return out
}

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inherit/internal/conformance"
)

// MissingMethod is one concrete type lacking an implementation of one
// inherited requirement.
type MissingMethod struct {
	Type       string `json:"type"`
	Function   string `json:"function"`
	Expected   string `json:"expected"`
	Required   string `json:"required"`
	DeclaredBy string `json:"declared_by"`
	Doc        string `json:"doc,omitempty"`
}

func (m MissingMethod) String() string {
	return fmt.Sprintf("%s does not implement %s: expected %s (required by %s)", m.Type, m.Function, m.Expected, m.DeclaredBy)
}

// Report is the rendered result of checking one scope.
type Report struct {
	Scope        string          `json:"scope"`
	Policy       Policy          `json:"policy"`
	GeneratedAt  string          `json:"generated_at"`
	Supertypes   int             `json:"supertypes"`
	Requirements int             `json:"requirements"`
	Subtypes     int             `json:"subtypes"`
	Checked      int             `json:"checked"`
	Missing      []MissingMethod `json:"missing,omitempty"`
}

// Build converts a checker result into a report rendered under p.
func Build(res *conformance.Result, p Policy) *Report {
	r := &Report{
		Scope:        res.Scope,
		Policy:       p,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		Supertypes:   res.Supertypes,
		Requirements: res.Requirements,
		Subtypes:     res.Subtypes,
		Checked:      res.Stats.Attempted,
	}
	for _, o := range res.Missing() {
		r.Missing = append(r.Missing, MissingMethod{
			Type:       o.Type.ID,
			Function:   o.Required.Func,
			Expected:   o.Required.String(),
			Required:   o.Requirement.Signature.String(),
			DeclaredBy: o.Requirement.DeclaredBy.String(),
			Doc:        o.Requirement.Signature.Doc,
		})
	}
	return r
}

func (r *Report) OK() bool { return len(r.Missing) == 0 }

// Summary is the one-line count summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("%s: %d supertypes, %d requirements, %d subtypes checked, %d missing",
		r.Scope, r.Supertypes, r.Requirements, r.Subtypes, len(r.Missing))
}

// Text renders the summary followed by one line per missing method.
func (r *Report) Text() string {
	var sb strings.Builder
	sb.WriteString(r.Summary())
	sb.WriteString("\n")
	for _, m := range r.Missing {
		sb.WriteString("  - ")
		sb.WriteString(m.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Err returns the ConformanceError for r, or nil when nothing is missing.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return &ConformanceError{Scope: r.Scope, Missing: append([]MissingMethod(nil), r.Missing...)}
}

func (r *Report) Save(path string) error {
	if r == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

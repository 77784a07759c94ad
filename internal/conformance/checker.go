package conformance

import (
	"inherit/internal/graph"
	"inherit/internal/signature"
)

type Stats struct {
	Attempted int
	Satisfied int
	Missing   int
}

// Outcome is the verdict for one concrete type against one inherited
// requirement.
type Outcome struct {
	Type        *graph.Node
	Requirement graph.Requirement
	// Required is the requirement with its self position instantiated with Type.
	Required  signature.Signature
	Satisfied bool
	Matches   []graph.Implementation
}

// Result holds every outcome of one checker run over a scope.
type Result struct {
	Scope        string
	Supertypes   int
	Requirements int
	Subtypes     int
	Outcomes     []Outcome
	Stats        Stats
}

// Missing returns the unsatisfied outcomes in evaluation order.
func (r *Result) Missing() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Satisfied {
			out = append(out, o)
		}
	}
	return out
}

func (r *Result) OK() bool {
	return r.Stats.Missing == 0
}

// Checker decides whether the concrete types of a scope satisfy the method
// requirements they inherit.
type Checker struct{}

func NewChecker() *Checker {
	return &Checker{}
}

// Check evaluates every (concrete type, requirement) pair of g. It never
// stops at the first failure.
func (c *Checker) Check(g *graph.Graph) *Result {
	res := &Result{
		Scope:        g.ScopeName(),
		Supertypes:   len(g.Supertypes()),
		Requirements: g.DeclaredRequirements(),
	}

	for _, t := range g.Concretes() {
		res.Subtypes++
		for _, req := range t.Requirements {
			o := c.evaluate(g, t, req)
			res.Stats.Attempted++
			if o.Satisfied {
				res.Stats.Satisfied++
			} else {
				res.Stats.Missing++
			}
			res.Outcomes = append(res.Outcomes, o)
		}
	}
	return res
}

// evaluate instantiates the self position of req with t, then looks for any
// covering record. Records of imported scopes are consulted only when none of
// the scope's own records cover. Several covering records are allowed.
func (c *Checker) evaluate(g *graph.Graph, t *graph.Node, req graph.Requirement) Outcome {
	required := signature.Substitute(req.Signature, req.DeclaredBy, t.Ref())
	o := Outcome{Type: t, Requirement: req, Required: required}
	o.Matches = covering(g, required, g.Overloads(required.Func))
	if len(o.Matches) == 0 {
		o.Matches = covering(g, required, g.ImportedOverloads(required.Func))
	}
	o.Satisfied = len(o.Matches) > 0
	return o
}

func covering(g *graph.Graph, required signature.Signature, impls []graph.Implementation) []graph.Implementation {
	var out []graph.Implementation
	for _, impl := range impls {
		if signature.Covers(g, required, impl.Signature) {
			out = append(out, impl)
		}
	}
	return out
}

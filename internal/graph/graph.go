package graph

import (
	"sort"

	"inherit/internal/signature"
)

// View is the read-only face of a scope's graph offered to other scopes.
type View interface {
	ScopeName() string
	Lookup(name string) (*Node, bool)
	Overloads(fn string) []Implementation
}

// Graph is the type registry of a single scope: its declared nodes, the
// overload sets of registered implementations and the foreign scopes it may
// reference.
type Graph struct {
	scope     string
	nodes     map[string]*Node
	order     []*Node
	aliases   map[string]string
	overloads map[string][]Implementation
	imports   map[string]View
	// implicit views are searched for unqualified names after local nodes.
	implicit []View
	frozen   bool
}

// NewGraph creates an empty graph for scope.
func NewGraph(scope string) *Graph {
	return &Graph{
		scope:     scope,
		nodes:     make(map[string]*Node),
		aliases:   make(map[string]string),
		overloads: make(map[string][]Implementation),
		imports:   make(map[string]View),
	}
}

func (g *Graph) ScopeName() string { return g.scope }

// Lookup finds a node declared in this scope by name or alias.
func (g *Graph) Lookup(name string) (*Node, bool) {
	if n, ok := g.nodes[name]; ok {
		return n, true
	}
	if target, ok := g.aliases[name]; ok {
		n, ok := g.nodes[target]
		return n, ok
	}
	return nil, false
}

// Import makes v resolvable through qualified names `<scope>.<Name>`. When
// implicit is set, unqualified names that are not declared locally are also
// looked up in v.
func (g *Graph) Import(v View, implicit bool) {
	g.imports[v.ScopeName()] = v
	if implicit {
		g.implicit = append(g.implicit, v)
	}
}

// Imports returns the names of imported scopes, sorted.
func (g *Graph) Imports() []string {
	out := make([]string, 0, len(g.imports))
	for name := range g.imports {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Alias makes name resolve to the node declared as target.
func (g *Graph) Alias(name, target string) {
	g.aliases[name] = target
}

// Freeze closes the declaration phase. Implementations may still be
// registered afterwards.
func (g *Graph) Freeze() { g.frozen = true }

func (g *Graph) Frozen() bool { return g.frozen }

// Nodes returns the declared nodes in declaration order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	copy(out, g.order)
	return out
}

// Supertypes returns the abstract bases and interfaces declared in this scope.
func (g *Graph) Supertypes() []*Node {
	var out []*Node
	for _, n := range g.order {
		if n.Kind.IsSupertype() {
			out = append(out, n)
		}
	}
	return out
}

// Concretes returns the concrete types declared in this scope.
func (g *Graph) Concretes() []*Node {
	var out []*Node
	for _, n := range g.order {
		if n.Kind == KindConcrete {
			out = append(out, n)
		}
	}
	return out
}

// Ancestors returns every supertype of n: the base chain nearest-first, then
// the interface closure in declaration order. Each node appears once.
func Ancestors(n *Node) []*Node {
	var out []*Node
	seen := make(map[string]bool)
	var visitIface func(*Node)
	visitIface = func(i *Node) {
		if seen[i.ID] {
			return
		}
		seen[i.ID] = true
		out = append(out, i)
		for _, p := range i.Interfaces {
			visitIface(p)
		}
	}
	for b := n.Base; b != nil; b = b.Base {
		if !seen[b.ID] {
			seen[b.ID] = true
			out = append(out, b)
		}
	}
	for _, i := range n.Interfaces {
		visitIface(i)
	}
	return out
}

// Implementers returns the nodes of this scope that inherit from super.
func (g *Graph) Implementers(super *Node) []*Node {
	var out []*Node
	for _, n := range g.order {
		for _, a := range Ancestors(n) {
			if a.ID == super.ID {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// Overloads returns the implementations registered for fn.
func (g *Graph) Overloads(fn string) []Implementation {
	set := g.overloads[fn]
	out := make([]Implementation, len(set))
	copy(out, set)
	return out
}

// ImportedOverloads returns the implementations of fn registered in the
// scopes this graph imports, ordered by scope name. Each record keeps the
// scope that owns it.
func (g *Graph) ImportedOverloads(fn string) []Implementation {
	var out []Implementation
	for _, name := range g.Imports() {
		out = append(out, g.imports[name].Overloads(fn)...)
	}
	return out
}

// Functions returns the names of functions with registered implementations, sorted.
func (g *Graph) Functions() []string {
	out := make([]string, 0, len(g.overloads))
	for fn := range g.overloads {
		out = append(out, fn)
	}
	sort.Strings(out)
	return out
}

// KindOf resolves ref from this scope and reports the kind of node it names.
func (g *Graph) KindOf(ref signature.Named) (Kind, error) {
	n, err := g.resolveNode(ref, "")
	if err != nil {
		return "", err
	}
	return n.Kind, nil
}

// IsSubtype implements signature.Lattice over resolved names. Interfaces
// count as supertypes of their implementers.
func (g *Graph) IsSubtype(sub, super signature.Named) bool {
	n := g.nodeFor(sub)
	if n == nil {
		return false
	}
	for _, a := range Ancestors(n) {
		if a.Scope == super.Scope && a.Name == super.Name {
			return true
		}
	}
	return false
}

func (g *Graph) nodeFor(ref signature.Named) *Node {
	if ref.Scope == g.scope {
		n, _ := g.Lookup(ref.Name)
		return n
	}
	v, ok := g.imports[ref.Scope]
	if !ok {
		return nil
	}
	n, _ := v.Lookup(ref.Name)
	return n
}

// resolveNode finds the node ref names. decl is the name of the declaration
// being processed, for error reporting.
func (g *Graph) resolveNode(ref signature.Named, decl string) (*Node, error) {
	if ref.Scope == "" || ref.Scope == g.scope {
		if n, ok := g.Lookup(ref.Name); ok {
			return n, nil
		}
		if ref.Scope == "" {
			for _, v := range g.implicit {
				if n, ok := v.Lookup(ref.Name); ok {
					return n, nil
				}
			}
		}
		return nil, orderErr(CodeUndeclared, g.scope, decl, "%s is not declared (declarations must precede their use)", ref)
	}
	v, ok := g.imports[ref.Scope]
	if !ok {
		return nil, orderErr(CodeNotImported, g.scope, decl, "scope %q referenced by %s is not imported", ref.Scope, ref)
	}
	n, ok := v.Lookup(ref.Name)
	if !ok {
		return nil, orderErr(CodeUndeclared, g.scope, decl, "%s is not declared in scope %q", ref.Name, ref.Scope)
	}
	return n, nil
}

// normalize resolves every name in t. self is the name of the node being
// declared so a declaration may mention itself. Unknown local names become
// opaque references into this scope.
func (g *Graph) normalize(t signature.TypeExpr, self, decl string) (signature.TypeExpr, error) {
	var firstErr error
	out := signature.Map(t, func(ref signature.Named) signature.TypeExpr {
		if self != "" && (ref.Scope == "" || ref.Scope == g.scope) && ref.Name == self {
			return signature.Named{Scope: g.scope, Name: self}
		}
		n, err := g.resolveNode(ref, decl)
		if err == nil {
			return n.Ref()
		}
		if oe, ok := err.(*OrderError); ok && oe.Code == CodeNotImported {
			if firstErr == nil {
				firstErr = err
			}
			return ref
		}
		if ref.Scope == "" {
			return signature.Named{Scope: g.scope, Name: ref.Name}
		}
		return ref
	})
	return out, firstErr
}

func (g *Graph) normalizeSignature(s signature.Signature, self, decl string) (signature.Signature, error) {
	params := make([]signature.TypeExpr, len(s.Params))
	for i, p := range s.Params {
		np, err := g.normalize(p, self, decl)
		if err != nil {
			return signature.Signature{}, err
		}
		params[i] = np
	}
	return signature.Signature{Func: s.Func, Params: params, Doc: s.Doc}, nil
}

package signature

import (
	"slices"
	"sort"
	"strings"
)

// TypeExpr is a parameter type constraint.
type TypeExpr interface {
	String() string
	equal(TypeExpr) bool
}

// Named is a nominal type reference. Scope is empty until the owning graph
// resolves the name.
type Named struct {
	Scope string
	Name  string
}

func (n Named) String() string {
	if n.Scope == "" {
		return n.Name
	}
	return n.Scope + "." + n.Name
}

func (n Named) equal(other TypeExpr) bool {
	o, ok := other.(Named)
	if !ok {
		return false
	}
	return n.Scope == o.Scope && n.Name == o.Name
}

// Union accepts any value accepted by one of its members.
type Union struct {
	Members []TypeExpr
}

func (u Union) String() string {
	parts := make([]string, 0, len(u.Members))
	for _, m := range u.Members {
		parts = append(parts, m.String())
	}
	return "Union{" + strings.Join(parts, ",") + "}"
}

// Order-insensitive: both unions must contain the same set of members.
func (u Union) equal(other TypeExpr) bool {
	o, ok := other.(Union)
	if !ok {
		return false
	}
	return containsAll(u.Members, o.Members) && containsAll(o.Members, u.Members)
}

func containsAll(set, members []TypeExpr) bool {
	for _, m := range members {
		found := false
		for _, s := range set {
			if Equal(m, s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// TypeVar is a bounded type variable `T<:Bound`. A nil Bound means Any.
type TypeVar struct {
	Name  string
	Bound TypeExpr
}

func (v TypeVar) String() string {
	return v.Name + "<:" + v.bound().String()
}

func (v TypeVar) bound() TypeExpr {
	if v.Bound == nil {
		return Any{}
	}
	return v.Bound
}

// Type variables compare by bound; the variable name is not significant.
func (v TypeVar) equal(other TypeExpr) bool {
	o, ok := other.(TypeVar)
	if !ok {
		return false
	}
	return Equal(v.bound(), o.bound())
}

// Any is the top type.
type Any struct{}

func (Any) String() string { return "Any" }

func (Any) equal(other TypeExpr) bool {
	_, ok := other.(Any)
	return ok
}

// Container is a parametric type such as Vector{Fruit}. Parameters are invariant.
type Container struct {
	Name   string
	Params []TypeExpr
}

func (c Container) String() string {
	parts := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		parts = append(parts, p.String())
	}
	return c.Name + "{" + strings.Join(parts, ",") + "}"
}

func (c Container) equal(other TypeExpr) bool {
	o, ok := other.(Container)
	if !ok {
		return false
	}
	if c.Name != o.Name || len(c.Params) != len(o.Params) {
		return false
	}
	for i, p := range c.Params {
		if !Equal(p, o.Params[i]) {
			return false
		}
	}
	return true
}

// Equal reports structural equality of two type expressions.
func Equal(a, b TypeExpr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.equal(b)
}

// Canonical renders t so that structurally equal expressions render
// identically (union members sorted, type variable names dropped).
func Canonical(t TypeExpr) string {
	switch v := t.(type) {
	case nil:
		return "Any"
	case Union:
		parts := make([]string, 0, len(v.Members))
		for _, m := range v.Members {
			parts = append(parts, Canonical(m))
		}
		sort.Strings(parts)
		return "Union{" + strings.Join(slices.Compact(parts), ",") + "}"
	case TypeVar:
		return "<:" + Canonical(v.bound())
	case Container:
		parts := make([]string, 0, len(v.Params))
		for _, p := range v.Params {
			parts = append(parts, Canonical(p))
		}
		return v.Name + "{" + strings.Join(parts, ",") + "}"
	default:
		return t.String()
	}
}

// Walk calls fn for every Named reachable from t, including union members,
// type variable bounds and container parameters.
func Walk(t TypeExpr, fn func(Named)) {
	switch v := t.(type) {
	case Named:
		fn(v)
	case Union:
		for _, m := range v.Members {
			Walk(m, fn)
		}
	case TypeVar:
		if v.Bound != nil {
			Walk(v.Bound, fn)
		}
	case Container:
		for _, p := range v.Params {
			Walk(p, fn)
		}
	}
}

// Map rebuilds t with every Named replaced by fn's result.
func Map(t TypeExpr, fn func(Named) TypeExpr) TypeExpr {
	switch v := t.(type) {
	case Named:
		return fn(v)
	case Union:
		members := make([]TypeExpr, len(v.Members))
		for i, m := range v.Members {
			members[i] = Map(m, fn)
		}
		return Union{Members: members}
	case TypeVar:
		if v.Bound == nil {
			return v
		}
		return TypeVar{Name: v.Name, Bound: Map(v.Bound, fn)}
	case Container:
		params := make([]TypeExpr, len(v.Params))
		for i, p := range v.Params {
			params[i] = Map(p, fn)
		}
		return Container{Name: v.Name, Params: params}
	default:
		return t
	}
}

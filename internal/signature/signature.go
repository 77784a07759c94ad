package signature

import "strings"

// Signature is a function name plus ordered positional type constraints.
type Signature struct {
	Func   string
	Params []TypeExpr
	Doc    string
}

// New builds a signature from a function name and its positional constraints.
func New(fn string, params ...TypeExpr) Signature {
	return Signature{Func: fn, Params: params}
}

func (s Signature) String() string {
	parts := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		parts = append(parts, p.String())
	}
	return s.Func + "(" + strings.Join(parts, ", ") + ")"
}

// Key is the positional identity of s. Signatures with the same key replace
// each other on redeclaration.
func (s Signature) Key() string {
	parts := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		parts = append(parts, Canonical(p))
	}
	return s.Func + "(" + strings.Join(parts, ",") + ")"
}

// Arity returns the number of positional parameters.
func (s Signature) Arity() int { return len(s.Params) }

// MapTypes returns a copy of s with every Named rebuilt by fn.
func (s Signature) MapTypes(fn func(Named) TypeExpr) Signature {
	params := make([]TypeExpr, len(s.Params))
	for i, p := range s.Params {
		params[i] = Map(p, fn)
	}
	return Signature{Func: s.Func, Params: params, Doc: s.Doc}
}

// Lattice answers nominal subtype questions for resolved names.
type Lattice interface {
	IsSubtype(sub, super Named) bool
}

// Covers reports whether candidate can stand in for required: same function,
// same arity, and every candidate constraint accepts everything the required
// constraint at the same position accepts.
func Covers(l Lattice, required, candidate Signature) bool {
	if required.Func != candidate.Func || len(required.Params) != len(candidate.Params) {
		return false
	}
	for i, req := range required.Params {
		if !Subsumes(l, candidate.Params[i], req) {
			return false
		}
	}
	return true
}

// Subsumes reports whether every value dispatchable to sub is also
// dispatchable to super.
func Subsumes(l Lattice, super, sub TypeExpr) bool {
	if super == nil {
		super = Any{}
	}
	if sub == nil {
		sub = Any{}
	}
	if _, ok := super.(Any); ok {
		return true
	}
	if v, ok := super.(TypeVar); ok {
		return Subsumes(l, v.bound(), sub)
	}
	if v, ok := sub.(TypeVar); ok {
		return Subsumes(l, super, v.bound())
	}
	if u, ok := sub.(Union); ok {
		for _, m := range u.Members {
			if !Subsumes(l, super, m) {
				return false
			}
		}
		return true
	}
	if u, ok := super.(Union); ok {
		for _, m := range u.Members {
			if Subsumes(l, m, sub) {
				return true
			}
		}
		return false
	}

	switch sp := super.(type) {
	case Named:
		sb, ok := sub.(Named)
		if !ok {
			return false
		}
		if sp.equal(sb) {
			return true
		}
		return l != nil && l.IsSubtype(sb, sp)
	case Container:
		return sp.equal(sub)
	}
	return false
}

// Substitute instantiates the self position of s: the first parameter that
// mentions from, directly or inside a union or type variable bound, has from
// replaced by to. Later parameters keep their original constraints, so
// meet(Animal, Animal) becomes meet(Lion, Animal) for Lion. Container
// parameters are never searched.
func Substitute(s Signature, from, to Named) Signature {
	params := make([]TypeExpr, len(s.Params))
	copy(params, s.Params)
	for i, p := range params {
		if mentions(p, from) {
			params[i] = substitute(p, from, to)
			break
		}
	}
	return Signature{Func: s.Func, Params: params, Doc: s.Doc}
}

func mentions(t TypeExpr, ref Named) bool {
	switch v := t.(type) {
	case Named:
		return v.equal(ref)
	case Union:
		for _, m := range v.Members {
			if mentions(m, ref) {
				return true
			}
		}
		return false
	case TypeVar:
		return v.Bound != nil && mentions(v.Bound, ref)
	default:
		return false
	}
}

func substitute(t TypeExpr, from, to Named) TypeExpr {
	switch v := t.(type) {
	case Named:
		if v.equal(from) {
			return to
		}
		return v
	case Union:
		members := make([]TypeExpr, len(v.Members))
		for i, m := range v.Members {
			members[i] = substitute(m, from, to)
		}
		return Union{Members: members}
	case TypeVar:
		if v.Bound == nil {
			return v
		}
		return TypeVar{Name: v.Name, Bound: substitute(v.Bound, from, to)}
	default:
		return t
	}
}

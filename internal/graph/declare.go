package graph

import (
	"inherit/internal/signature"
)

func (g *Graph) checkNewName(name string) error {
	if g.frozen {
		return orderErr(CodeFinalized, g.scope, name, "scope is already finalized")
	}
	if name == "" {
		return shapeErr(CodeInvalidDecl, g.scope, name, "type name is empty")
	}
	if _, exists := g.Lookup(name); exists {
		return shapeErr(CodeDuplicateType, g.scope, name, "type is already declared")
	}
	return nil
}

func (g *Graph) insert(n *Node) *Node {
	g.nodes[n.Name] = n
	g.order = append(g.order, n)
	return n
}

func (g *Graph) id(name string) string {
	return qualify(g.scope, name)
}

// ownFields normalizes declared fields and rejects duplicates among them and
// against the inherited set.
func (g *Graph) ownFields(name string, decls []FieldDecl, inherited []Field) ([]Field, error) {
	taken := make(map[string]string, len(inherited))
	for _, f := range inherited {
		taken[f.Name] = f.Origin
	}
	out := make([]Field, 0, len(decls))
	for _, d := range decls {
		if d.Name == "" {
			return nil, shapeErr(CodeInvalidDecl, g.scope, name, "field name is empty")
		}
		if origin, ok := taken[d.Name]; ok {
			if origin == g.id(name) {
				return nil, shapeErr(CodeFieldCollision, g.scope, name, "field %q is declared twice", d.Name)
			}
			return nil, shapeErr(CodeFieldCollision, g.scope, name, "field %q collides with the field inherited from %s", d.Name, origin)
		}
		var typ signature.TypeExpr = signature.Any{}
		if d.Type != nil {
			nt, err := g.normalize(d.Type, name, name)
			if err != nil {
				return nil, err
			}
			typ = nt
		}
		taken[d.Name] = g.id(name)
		out = append(out, Field{Name: d.Name, Type: typ, Origin: g.id(name)})
	}
	return out, nil
}

// mergeFields appends src to dst. A field reached again through the same
// origin node is kept once; any other repeated name is a collision.
func (g *Graph) mergeFields(name string, dst, src []Field) ([]Field, error) {
	for _, f := range src {
		dup := false
		for _, e := range dst {
			if e.Name != f.Name {
				continue
			}
			if e.Origin != f.Origin {
				return nil, shapeErr(CodeFieldCollision, g.scope, name, "field %q is inherited from both %s and %s", f.Name, e.Origin, f.Origin)
			}
			dup = true
			break
		}
		if !dup {
			dst = append(dst, f)
		}
	}
	return dst, nil
}

// mergeRequirements appends the requirements of one more parent to dst.
// Signatures already present merge; a function name already present with a
// different signature is ambiguous. src is only compared against what dst
// held before the call, so one parent's overload family stays intact.
func (g *Graph) mergeRequirements(name string, dst, src []Requirement) ([]Requirement, error) {
	prior := dst[:len(dst):len(dst)]
	for _, r := range src {
		var conflict *Requirement
		dup := false
		for i := range prior {
			e := &prior[i]
			if e.Signature.Func != r.Signature.Func {
				continue
			}
			if e.Signature.Key() == r.Signature.Key() {
				dup = true
				break
			}
			if conflict == nil {
				conflict = e
			}
		}
		if dup {
			continue
		}
		if conflict != nil {
			return nil, shapeErr(CodeAmbiguousRequirement, g.scope, name,
				"ambiguous requirement for %s: %s (from %s) conflicts with %s (from %s)",
				r.Signature.Func, conflict.Signature, conflict.DeclaredBy, r.Signature, r.DeclaredBy)
		}
		dst = append(dst, r)
	}
	return dst, nil
}

// ownRequirements normalizes declared requirements. Within one declaration an
// identical positional signature replaces the earlier one in place; a
// function name already inherited is a collision.
func (g *Graph) ownRequirements(name string, sigs []signature.Signature, inherited []Requirement) ([]Requirement, error) {
	inheritedFuncs := make(map[string]signature.Named, len(inherited))
	for _, r := range inherited {
		inheritedFuncs[r.Signature.Func] = r.DeclaredBy
	}
	self := signature.Named{Scope: g.scope, Name: name}
	var out []Requirement
	index := make(map[string]int)
	for _, s := range sigs {
		if s.Func == "" {
			return nil, shapeErr(CodeInvalidDecl, g.scope, name, "requirement has no function name")
		}
		if from, ok := inheritedFuncs[s.Func]; ok {
			return nil, shapeErr(CodeRequirementCollision, g.scope, name, "requirement %s collides with the requirement inherited from %s", s.Func, from)
		}
		ns, err := g.normalizeSignature(s, name, name)
		if err != nil {
			return nil, err
		}
		r := Requirement{Signature: ns, DeclaredBy: self}
		if i, ok := index[ns.Key()]; ok {
			out[i] = r
			continue
		}
		index[ns.Key()] = len(out)
		out = append(out, r)
	}
	return out, nil
}

// DeclareBase declares an abstract base with at most one abstract parent.
func (g *Graph) DeclareBase(d BaseDecl) (*Node, error) {
	if err := g.checkNewName(d.Name); err != nil {
		return nil, err
	}
	n := &Node{ID: g.id(d.Name), Scope: g.scope, Name: d.Name, Kind: KindAbstract, Doc: d.Doc, Mutable: d.Mutable}

	var inheritedFields []Field
	var inheritedReqs []Requirement
	if d.Parent != (signature.Named{}) {
		parent, err := g.resolveNode(d.Parent, d.Name)
		if err != nil {
			return nil, err
		}
		if parent.Kind != KindAbstract {
			return nil, shapeErr(CodeWrongParentKind, g.scope, d.Name, "parent %s is %s, not an abstract base", parent.ID, parent.Kind)
		}
		if parent.Mutable != d.Mutable {
			return nil, shapeErr(CodeMutabilityMismatch, g.scope, d.Name, "mutable=%t does not match parent %s mutable=%t", d.Mutable, parent.ID, parent.Mutable)
		}
		n.Base = parent
		inheritedFields = parent.Fields
		inheritedReqs = parent.Requirements
	}

	own, err := g.ownFields(d.Name, d.Fields, inheritedFields)
	if err != nil {
		return nil, err
	}
	reqs, err := g.ownRequirements(d.Name, d.Requires, inheritedReqs)
	if err != nil {
		return nil, err
	}

	n.OwnFields = own
	n.Fields = append(append([]Field{}, inheritedFields...), own...)
	n.OwnRequirements = reqs
	n.Requirements = append(append([]Requirement{}, inheritedReqs...), reqs...)
	return g.insert(n), nil
}

// DeclareInterface declares an interface with any number of interface parents.
func (g *Graph) DeclareInterface(d InterfaceDecl) (*Node, error) {
	if err := g.checkNewName(d.Name); err != nil {
		return nil, err
	}
	n := &Node{ID: g.id(d.Name), Scope: g.scope, Name: d.Name, Kind: KindInterface, Doc: d.Doc}

	var fields []Field
	var reqs []Requirement
	seen := make(map[string]bool)
	for _, ref := range d.Parents {
		parent, err := g.resolveNode(ref, d.Name)
		if err != nil {
			return nil, err
		}
		if parent.Kind != KindInterface {
			return nil, shapeErr(CodeWrongParentKind, g.scope, d.Name, "parent %s is %s, not an interface", parent.ID, parent.Kind)
		}
		if seen[parent.ID] {
			return nil, shapeErr(CodeInvalidDecl, g.scope, d.Name, "parent %s is listed twice", parent.ID)
		}
		seen[parent.ID] = true
		if fields, err = g.mergeFields(d.Name, fields, parent.Fields); err != nil {
			return nil, err
		}
		if reqs, err = g.mergeRequirements(d.Name, reqs, parent.Requirements); err != nil {
			return nil, err
		}
		n.Interfaces = append(n.Interfaces, parent)
	}

	own, err := g.ownFields(d.Name, d.Fields, fields)
	if err != nil {
		return nil, err
	}
	ownReqs, err := g.ownRequirements(d.Name, d.Requires, reqs)
	if err != nil {
		return nil, err
	}

	n.OwnFields = own
	n.Fields = append(fields, own...)
	n.OwnRequirements = ownReqs
	n.Requirements = append(reqs, ownReqs...)
	return g.insert(n), nil
}

// DeclareConcrete declares a leaf type implementing at most one abstract base
// and any number of interfaces.
func (g *Graph) DeclareConcrete(d ConcreteDecl) (*Node, error) {
	if err := g.checkNewName(d.Name); err != nil {
		return nil, err
	}
	n := &Node{ID: g.id(d.Name), Scope: g.scope, Name: d.Name, Kind: KindConcrete, Doc: d.Doc, Mutable: d.Mutable}

	var fields []Field
	var reqs []Requirement
	if d.Base != (signature.Named{}) {
		base, err := g.resolveNode(d.Base, d.Name)
		if err != nil {
			return nil, err
		}
		if base.Kind != KindAbstract {
			return nil, shapeErr(CodeWrongParentKind, g.scope, d.Name, "base %s is %s, not an abstract base", base.ID, base.Kind)
		}
		if base.Mutable != d.Mutable {
			return nil, shapeErr(CodeMutabilityMismatch, g.scope, d.Name, "mutable=%t does not match base %s mutable=%t", d.Mutable, base.ID, base.Mutable)
		}
		n.Base = base
		fields = append(fields, base.Fields...)
		reqs = append(reqs, base.Requirements...)
	}

	seen := make(map[string]bool)
	for _, ref := range d.Interfaces {
		iface, err := g.resolveNode(ref, d.Name)
		if err != nil {
			return nil, err
		}
		if iface.Kind != KindInterface {
			return nil, shapeErr(CodeWrongParentKind, g.scope, d.Name, "%s is %s, not an interface", iface.ID, iface.Kind)
		}
		if seen[iface.ID] {
			return nil, shapeErr(CodeInvalidDecl, g.scope, d.Name, "interface %s is listed twice", iface.ID)
		}
		seen[iface.ID] = true
		if fields, err = g.mergeFields(d.Name, fields, iface.Fields); err != nil {
			return nil, err
		}
		if reqs, err = g.mergeRequirements(d.Name, reqs, iface.Requirements); err != nil {
			return nil, err
		}
		n.Interfaces = append(n.Interfaces, iface)
	}

	own, err := g.ownFields(d.Name, d.Fields, fields)
	if err != nil {
		return nil, err
	}

	n.OwnFields = own
	n.Fields = append(fields, own...)
	n.Requirements = reqs
	return g.insert(n), nil
}

// RegisterImplementation adds impl to the overload set of its function. A
// record with the same positional signature is replaced and replaced is true.
func (g *Graph) RegisterImplementation(impl Implementation) (replaced bool, err error) {
	if impl.Signature.Func == "" {
		return false, shapeErr(CodeInvalidDecl, g.scope, "", "implementation has no function name")
	}
	sig, err := g.normalizeSignature(impl.Signature, "", impl.Signature.Func)
	if err != nil {
		return false, err
	}
	impl.Signature = sig
	if impl.Scope == "" {
		impl.Scope = g.scope
	}

	set := g.overloads[sig.Func]
	for i, existing := range set {
		if existing.Signature.Key() == sig.Key() {
			set[i] = impl
			return true, nil
		}
	}
	g.overloads[sig.Func] = append(set, impl)
	return false, nil
}

package manifest

import (
	"fmt"
	"sort"

	"inherit/internal/graph"
	"inherit/internal/signature"
)

// Declarer is the part of the registry a manifest is applied to.
type Declarer interface {
	DeclareBase(scope string, d graph.BaseDecl) (*graph.Node, error)
	DeclareInterface(scope string, d graph.InterfaceDecl) (*graph.Node, error)
	DeclareConcrete(scope string, d graph.ConcreteDecl) (*graph.Node, error)
	RegisterImplementation(scope string, impl graph.Implementation) (bool, error)
	Import(scope, foreign string) error
	KindOf(scope string, ref signature.Named) (graph.Kind, error)
}

// Apply feeds f to reg in order and stops at the first failing declaration.
func Apply(reg Declarer, f *File) error {
	for _, imp := range f.Imports {
		if err := reg.Import(f.Scope, imp); err != nil {
			return fmt.Errorf("%s: import %s: %w", f.where(), imp, err)
		}
	}
	for _, t := range f.Types {
		if err := applyType(reg, f.Scope, t); err != nil {
			return fmt.Errorf("%s: type %s: %w", f.where(), t.Name, err)
		}
	}
	for _, impl := range f.Implementations {
		sig, err := signature.Parse(impl.Signature)
		if err != nil {
			return fmt.Errorf("%s: implementation: %w", f.where(), err)
		}
		if _, err := reg.RegisterImplementation(f.Scope, graph.Implementation{Signature: sig, Source: impl.Source}); err != nil {
			return fmt.Errorf("%s: implementation %s: %w", f.where(), impl.Signature, err)
		}
	}
	return nil
}

// ApplyAll applies files so that every scope is applied after the scopes it
// imports. Imports of scopes not among files are left to the registry.
func ApplyAll(reg Declarer, files []*File) error {
	ordered, err := Order(files)
	if err != nil {
		return err
	}
	for _, f := range ordered {
		if err := Apply(reg, f); err != nil {
			return err
		}
	}
	return nil
}

// Order sorts files by their imports. Files with no ordering constraint keep
// their relative order.
func Order(files []*File) ([]*File, error) {
	byScope := make(map[string]*File, len(files))
	for _, f := range files {
		if prev, ok := byScope[f.Scope]; ok {
			return nil, fmt.Errorf("scope %s is declared by both %s and %s", f.Scope, prev.where(), f.where())
		}
		byScope[f.Scope] = f
	}

	placed := make(map[string]bool, len(files))
	out := make([]*File, 0, len(files))
	for len(out) < len(files) {
		progress := false
		for _, f := range files {
			if placed[f.Scope] || !importsPlaced(f, byScope, placed) {
				continue
			}
			placed[f.Scope] = true
			out = append(out, f)
			progress = true
		}
		if !progress {
			var stuck []string
			for _, f := range files {
				if !placed[f.Scope] {
					stuck = append(stuck, f.Scope)
				}
			}
			sort.Strings(stuck)
			return nil, graph.NewOrderError(graph.CodeCycle, "", "scope import cycle among %v", stuck)
		}
	}
	return out, nil
}

func importsPlaced(f *File, byScope map[string]*File, placed map[string]bool) bool {
	for _, imp := range f.Imports {
		if _, local := byScope[imp]; local && !placed[imp] {
			return false
		}
	}
	return true
}

func applyType(reg Declarer, scope string, t TypeDecl) error {
	fields, err := fieldDecls(t.Fields)
	if err != nil {
		return err
	}
	requires := make([]signature.Signature, 0, len(t.Requires))
	for _, r := range t.Requires {
		sig, err := signature.Parse(r.Signature)
		if err != nil {
			return err
		}
		sig.Doc = r.Doc
		requires = append(requires, sig)
	}
	parents, err := refs(t.Extends)
	if err != nil {
		return err
	}

	switch t.Kind {
	case KindBase:
		if len(parents) > 1 {
			return fmt.Errorf("an abstract base extends at most one base, got %d", len(parents))
		}
		d := graph.BaseDecl{Name: t.Name, Fields: fields, Requires: requires, Mutable: t.Mutable, Doc: t.Doc}
		if len(parents) == 1 {
			d.Parent = parents[0]
		}
		_, err = reg.DeclareBase(scope, d)
	case KindInterface:
		_, err = reg.DeclareInterface(scope, graph.InterfaceDecl{Name: t.Name, Parents: parents, Fields: fields, Requires: requires, Doc: t.Doc})
	case KindConcrete:
		if len(requires) > 0 {
			return fmt.Errorf("concrete types cannot declare requirements")
		}
		d := graph.ConcreteDecl{Name: t.Name, Fields: fields, Mutable: t.Mutable, Doc: t.Doc}
		// extends mixes the base and interfaces; split them by kind.
		for _, p := range parents {
			kind, err := reg.KindOf(scope, p)
			if err != nil {
				return err
			}
			if kind == graph.KindInterface {
				d.Interfaces = append(d.Interfaces, p)
				continue
			}
			if d.Base != (signature.Named{}) {
				return fmt.Errorf("more than one base: %s and %s", d.Base, p)
			}
			d.Base = p
		}
		_, err = reg.DeclareConcrete(scope, d)
	default:
		err = fmt.Errorf("unknown kind %q", t.Kind)
	}
	return err
}

func fieldDecls(in []FieldDecl) ([]graph.FieldDecl, error) {
	out := make([]graph.FieldDecl, 0, len(in))
	for _, f := range in {
		d := graph.FieldDecl{Name: f.Name}
		if f.Type != "" {
			typ, err := signature.ParseType(f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			d.Type = typ
		}
		out = append(out, d)
	}
	return out, nil
}

func refs(names []string) ([]signature.Named, error) {
	out := make([]signature.Named, 0, len(names))
	for _, name := range names {
		typ, err := signature.ParseType(name)
		if err != nil {
			return nil, err
		}
		n, ok := typ.(signature.Named)
		if !ok {
			return nil, fmt.Errorf("%s is not a type name", name)
		}
		out = append(out, n)
	}
	return out, nil
}

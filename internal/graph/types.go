package graph

import "inherit/internal/signature"

type Kind string

const (
	KindAbstract  Kind = "abstract"
	KindInterface Kind = "interface"
	KindConcrete  Kind = "concrete"
)

// IsSupertype reports whether nodes of kind k carry inheritable requirements.
func (k Kind) IsSupertype() bool {
	return k == KindAbstract || k == KindInterface
}

type Field struct {
	Name string
	Type signature.TypeExpr
	// Origin is the ID of the node that declared the field.
	Origin string
}

// Requirement is a method signature a supertype demands from its implementers.
type Requirement struct {
	Signature  signature.Signature
	DeclaredBy signature.Named
}

// Node is a declared type: an abstract base, an interface or a concrete type.
type Node struct {
	ID         string
	Scope      string
	Name       string
	Kind       Kind
	Doc        string
	Mutable    bool
	Base       *Node
	Interfaces []*Node

	OwnFields       []Field
	OwnRequirements []Requirement

	// Fields and Requirements include everything inherited, computed once at
	// declaration time.
	Fields       []Field
	Requirements []Requirement
}

// Ref returns the resolved nominal reference to n.
func (n *Node) Ref() signature.Named {
	return signature.Named{Scope: n.Scope, Name: n.Name}
}

// FieldNames returns the full field list in inheritance order.
func (n *Node) FieldNames() []string {
	out := make([]string, 0, len(n.Fields))
	for _, f := range n.Fields {
		out = append(out, f.Name)
	}
	return out
}

type FieldDecl struct {
	Name string
	Type signature.TypeExpr
}

type BaseDecl struct {
	Name string
	// Parent is the zero value when the base has no parent.
	Parent   signature.Named
	Fields   []FieldDecl
	Requires []signature.Signature
	Mutable  bool
	Doc      string
}

type InterfaceDecl struct {
	Name     string
	Parents  []signature.Named
	Fields   []FieldDecl
	Requires []signature.Signature
	Doc      string
}

type ConcreteDecl struct {
	Name       string
	Base       signature.Named
	Interfaces []signature.Named
	Fields     []FieldDecl
	Mutable    bool
	Doc        string
}

// Implementation is a concrete method definition registered against a
// function name.
type Implementation struct {
	Signature signature.Signature
	Scope     string
	// Source is an optional file:line location.
	Source string
}

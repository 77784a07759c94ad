package graph

import "inherit/internal/signature"

// PreludeScope is the name of the built-in scope every scope imports implicitly.
const PreludeScope = "core"

var preludeAliases = map[string]string{
	"float":   "Float64",
	"float64": "Float64",
	"float32": "Float32",
	"int":     "Int64",
	"int64":   "Int64",
	"int32":   "Int32",
	"string":  "String",
	"bool":    "Bool",
	"Int":     "Int64",
}

// NewPrelude builds and freezes the core scope: a small numeric hierarchy
// plus the common concrete scalar types.
func NewPrelude() *Graph {
	g := NewGraph(PreludeScope)
	base := func(name, parent string) {
		d := BaseDecl{Name: name}
		if parent != "" {
			d.Parent = signature.Named{Name: parent}
		}
		if _, err := g.DeclareBase(d); err != nil {
			panic(err)
		}
	}
	concrete := func(name, b string) {
		d := ConcreteDecl{Name: name}
		if b != "" {
			d.Base = signature.Named{Name: b}
		}
		if _, err := g.DeclareConcrete(d); err != nil {
			panic(err)
		}
	}

	base("Number", "")
	base("Real", "Number")
	base("AbstractFloat", "Real")
	base("Integer", "Real")
	base("Signed", "Integer")
	concrete("Float64", "AbstractFloat")
	concrete("Float32", "AbstractFloat")
	concrete("Int64", "Signed")
	concrete("Int32", "Signed")
	concrete("String", "")
	concrete("Bool", "")

	for alias, target := range preludeAliases {
		g.Alias(alias, target)
	}
	g.Freeze()
	return g
}

package extractor

import (
	"strings"

	"inherit/internal/signature"

	sitter "github.com/smacker/go-tree-sitter"
)

// typeParams maps the type parameters in scope to their type variables.
type typeParams map[string]signature.TypeVar

// goBuiltins are Go predeclared types that map onto the core prelude.
var goBuiltins = map[string]string{
	"int":     "int",
	"int64":   "int64",
	"int32":   "int32",
	"float64": "float64",
	"float32": "float32",
	"string":  "string",
	"bool":    "bool",
}

// goTypeExpr converts a Go type node into a type expression. Pointers are
// stripped, slices and arrays become Vector, maps become Dict, and anything
// without a nominal meaning (func, chan, empty interface) becomes Any.
func goTypeExpr(n *sitter.Node, src []byte, tp typeParams) signature.TypeExpr {
	if n == nil {
		return signature.Any{}
	}
	switch n.Type() {
	case "type_identifier", "identifier":
		name := n.Content(src)
		if v, ok := tp[name]; ok {
			return v
		}
		if name == "any" {
			return signature.Any{}
		}
		if alias, ok := goBuiltins[name]; ok {
			return signature.Named{Name: alias}
		}
		return signature.Named{Name: name}
	case "qualified_type":
		pkg := n.ChildByFieldName("package")
		name := n.ChildByFieldName("name")
		if pkg == nil || name == nil {
			return signature.Any{}
		}
		return signature.Named{Scope: pkg.Content(src), Name: name.Content(src)}
	case "pointer_type", "parenthesized_type", "negated_type":
		return goTypeExpr(firstNamedChild(n), src, tp)
	case "slice_type", "array_type", "implicit_length_array_type":
		return signature.Container{Name: "Vector", Params: []signature.TypeExpr{goTypeExpr(n.ChildByFieldName("element"), src, tp)}}
	case "map_type":
		return signature.Container{Name: "Dict", Params: []signature.TypeExpr{
			goTypeExpr(n.ChildByFieldName("key"), src, tp),
			goTypeExpr(n.ChildByFieldName("value"), src, tp),
		}}
	case "generic_type":
		base := goTypeExpr(n.ChildByFieldName("type"), src, tp)
		named, ok := base.(signature.Named)
		if !ok {
			return signature.Any{}
		}
		var params []signature.TypeExpr
		if args := n.ChildByFieldName("type_arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				params = append(params, goTypeExpr(args.NamedChild(i), src, tp))
			}
		}
		return signature.Container{Name: named.String(), Params: params}
	case "type_constraint", "type_elem", "constraint_elem", "constraint_term", "union_type":
		var members []signature.TypeExpr
		collectConstraintTerms(n, src, tp, &members)
		switch len(members) {
		case 0:
			return signature.Any{}
		case 1:
			return members[0]
		}
		return signature.Union{Members: members}
	}
	return signature.Any{}
}

func collectConstraintTerms(n *sitter.Node, src []byte, tp typeParams, out *[]signature.TypeExpr) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "type_elem", "constraint_elem", "constraint_term", "union_type", "type_constraint":
			collectConstraintTerms(c, src, tp, out)
		case "comment":
		default:
			*out = append(*out, goTypeExpr(c, src, tp))
		}
	}
}

func firstNamedChild(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() != "comment" {
			return c
		}
	}
	return nil
}

// goTypeParams reads a type_parameter_list. Each parameter becomes a type
// variable bounded by its constraint; earlier parameters are visible in later
// constraints.
func goTypeParams(list *sitter.Node, src []byte, outer typeParams) typeParams {
	tp := make(typeParams, len(outer))
	for k, v := range outer {
		tp[k] = v
	}
	if list == nil {
		return tp
	}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		decl := list.NamedChild(i)
		if decl.Type() != "type_parameter_declaration" && decl.Type() != "parameter_declaration" {
			continue
		}
		bound := goTypeExpr(decl.ChildByFieldName("type"), src, tp)
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			c := decl.NamedChild(j)
			if c.Type() != "identifier" {
				continue
			}
			name := c.Content(src)
			tp[name] = signature.TypeVar{Name: name, Bound: bound}
		}
	}
	return tp
}

// refName turns an embedded field type into a parent reference.
func refName(t signature.TypeExpr) (signature.Named, bool) {
	switch v := t.(type) {
	case signature.Named:
		return v, true
	case signature.Container:
		if i := strings.LastIndex(v.Name, "."); i >= 0 {
			return signature.Named{Scope: v.Name[:i], Name: v.Name[i+1:]}, true
		}
		return signature.Named{Name: v.Name}, true
	}
	return signature.Named{}, false
}

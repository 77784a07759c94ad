package extractor

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"inherit/internal/signature"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoExtractor implements LanguageExtractor for Go.
type GoExtractor struct{}

func (g *GoExtractor) GetLanguage() *sitter.Language {
	return golang.GetLanguage()
}

func (g *GoExtractor) GetQuery() string {
	return `
		(function_declaration) @func
		(method_declaration) @func
		(type_spec) @type
	`
}

func (g *GoExtractor) ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string, packageName string) *CodeUnit {
	var unit *CodeUnit
	switch captureName {
	case "func":
		unit = g.extractFunctionUnit(node, sourceCode, filepath)
	case "type":
		unit = g.extractTypeUnit(node, sourceCode, filepath)
	}

	if unit != nil {
		unit.Package = packageName
		unit.Language = "go"
	}
	return unit
}

// Go-specific Detail Schemas

type GoFunctionDetails struct {
	Receiver   *GoParam  `json:"receiver,omitempty"`
	Parameters []GoParam `json:"parameters"`
	HasBody    bool      `json:"has_body"`
}

type GoTypeDetails struct {
	Fields  []GoField  `json:"fields"`
	Methods []GoMethod `json:"methods,omitempty"`
}

type GoMethod struct {
	Name       string    `json:"name"`
	Parameters []GoParam `json:"parameters"`
	Doc        string    `json:"doc,omitempty"`
}

type GoParam struct {
	Name string             `json:"name,omitempty"`
	Type signature.TypeExpr `json:"-"`
}

type GoField struct {
	Name     string             `json:"name"`
	Type     signature.TypeExpr `json:"-"`
	Embedded bool               `json:"embedded,omitempty"`
}

// Extraction Logic

func (g *GoExtractor) extractTypeUnit(node *sitter.Node, sourceCode []byte, filepath string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(sourceCode)

	parentNode := node.Parent()
	if parentNode == nil || parentNode.Type() != "type_declaration" {
		parentNode = node
	}
	// Types declared inside function bodies are not part of the package scope.
	if top := parentNode.Parent(); top != nil && top.Type() != "source_file" && top.Type() != "type_declaration" {
		return nil
	}
	docComment := g.extractDocComment(parentNode, sourceCode)
	if docComment == "" && parentNode != node {
		// grouped declarations: type ( // doc \n Name struct{} )
		docComment = g.extractDocComment(node, sourceCode)
	}

	tp := goTypeParams(node.ChildByFieldName("type_parameters"), sourceCode, nil)

	unitType := "type"
	var details GoTypeDetails
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		switch typeNode.Type() {
		case "struct_type":
			unitType = "struct"
			details = g.extractStructDetails(typeNode, sourceCode, tp)
		case "interface_type":
			unitType = "interface"
			details = g.extractInterfaceDetails(typeNode, sourceCode, tp)
		}
	}

	return &CodeUnit{
		ID:          fmt.Sprintf("%s:%s:%d", filepath, name, node.StartPoint().Row+1),
		Filepath:    filepath,
		StartLine:   int(node.StartPoint().Row + 1),
		EndLine:     int(node.EndPoint().Row + 1),
		UnitType:    unitType,
		Name:        name,
		Description: docComment,
		Details:     details,
	}
}

func (g *GoExtractor) extractStructDetails(structNode *sitter.Node, sourceCode []byte, tp typeParams) GoTypeDetails {
	fields := []GoField{}
	var fieldList *sitter.Node
	for i := 0; i < int(structNode.ChildCount()); i++ {
		child := structNode.Child(i)
		if child.Type() == "field_declaration_list" {
			fieldList = child
			break
		}
	}
	if fieldList == nil {
		return GoTypeDetails{Fields: fields}
	}

	for i := 0; i < int(fieldList.NamedChildCount()); i++ {
		fieldDecl := fieldList.NamedChild(i)
		if fieldDecl.Type() != "field_declaration" {
			continue
		}

		typeNode := fieldDecl.ChildByFieldName("type")
		fieldType := goTypeExpr(typeNode, sourceCode, tp)

		foundNames := false
		for j := 0; j < int(fieldDecl.NamedChildCount()); j++ {
			child := fieldDecl.NamedChild(j)
			if child.Type() == "field_identifier" {
				fields = append(fields, GoField{Name: child.Content(sourceCode), Type: fieldType})
				foundNames = true
			}
		}

		if !foundNames && typeNode != nil {
			name := strings.TrimPrefix(typeNode.Content(sourceCode), "*")
			if lastDot := strings.LastIndex(name, "."); lastDot != -1 {
				name = name[lastDot+1:]
			}
			fields = append(fields, GoField{Name: name, Type: fieldType, Embedded: true})
		}
	}
	return GoTypeDetails{Fields: fields}
}

// extractInterfaceDetails collects method elements and embedded types. Both
// the method_spec and method_elem node shapes are accepted.
func (g *GoExtractor) extractInterfaceDetails(interfaceNode *sitter.Node, sourceCode []byte, tp typeParams) GoTypeDetails {
	details := GoTypeDetails{Fields: []GoField{}}
	cursor := sitter.NewTreeCursor(interfaceNode)
	defer cursor.Close()

	var visit func(*sitter.TreeCursor)
	visit = func(c *sitter.TreeCursor) {
		n := c.CurrentNode()
		switch n.Type() {
		case "method_elem", "method_spec":
			m := GoMethod{Doc: g.extractDocComment(n, sourceCode)}
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				m.Name = nameNode.Content(sourceCode)
			}
			if paramsNode := n.ChildByFieldName("parameters"); paramsNode != nil {
				m.Parameters = g.extractParams(paramsNode, sourceCode, tp)
			}
			details.Methods = append(details.Methods, m)
			return
		case "type_elem", "constraint_elem", "type_identifier", "qualified_type":
			parentType := ""
			if n.Parent() != nil {
				parentType = n.Parent().Type()
			}
			if parentType == "interface_type" || parentType == "method_spec_list" {
				t := goTypeExpr(n, sourceCode, tp)
				if ref, ok := refName(t); ok {
					details.Fields = append(details.Fields, GoField{Name: ref.Name, Type: ref, Embedded: true})
				}
				return
			}
		}
		if c.GoToFirstChild() {
			visit(c)
			for c.GoToNextSibling() {
				visit(c)
			}
			c.GoToParent()
		}
	}
	visit(cursor)
	return details
}

func (g *GoExtractor) extractFunctionUnit(node *sitter.Node, sourceCode []byte, filepath string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(sourceCode)

	unitType := "function"
	tp := goTypeParams(node.ChildByFieldName("type_parameters"), sourceCode, nil)
	details := GoFunctionDetails{
		Parameters: []GoParam{},
		HasBody:    node.ChildByFieldName("body") != nil,
	}

	if node.Type() == "method_declaration" {
		unitType = "method"
		if receiverNode := node.ChildByFieldName("receiver"); receiverNode != nil {
			if recv := g.extractParams(receiverNode, sourceCode, tp); len(recv) > 0 {
				details.Receiver = &recv[0]
			}
		}
	}

	if paramsNode := node.ChildByFieldName("parameters"); paramsNode != nil {
		details.Parameters = g.extractParams(paramsNode, sourceCode, tp)
	}

	return &CodeUnit{
		ID:          fmt.Sprintf("%s:%s:%d", filepath, name, node.StartPoint().Row+1),
		Filepath:    filepath,
		StartLine:   int(node.StartPoint().Row + 1),
		EndLine:     int(node.EndPoint().Row + 1),
		UnitType:    unitType,
		Name:        name,
		Description: g.extractDocComment(node, sourceCode),
		Details:     details,
	}
}

// ExtractImports maps each import's local qualifier to its path. Blank and
// dot imports are skipped.
func (g *GoExtractor) ExtractImports(root *sitter.Node, sourceCode []byte) map[string]string {
	imports := make(map[string]string)
	query, err := sitter.NewQuery([]byte("(import_spec) @spec"), golang.GetLanguage())
	if err != nil {
		return imports
	}
	defer query.Close()
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			pathNode := c.Node.ChildByFieldName("path")
			if pathNode == nil {
				continue
			}
			importPath, err := strconv.Unquote(pathNode.Content(sourceCode))
			if err != nil {
				continue
			}
			qualifier := path.Base(importPath)
			if nameNode := c.Node.ChildByFieldName("name"); nameNode != nil {
				qualifier = nameNode.Content(sourceCode)
			}
			if qualifier == "_" || qualifier == "." {
				continue
			}
			imports[qualifier] = importPath
		}
	}
	return imports
}

func (g *GoExtractor) extractDocComment(node *sitter.Node, sourceCode []byte) string {
	var commentLines []string
	currentNode := node
	for {
		prevSibling := currentNode.PrevSibling()
		if prevSibling == nil || (currentNode.StartPoint().Row-prevSibling.EndPoint().Row > 1) {
			break
		}
		if prevSibling.Type() != "comment" {
			break
		}
		commentLines = append([]string{prevSibling.Content(sourceCode)}, commentLines...)
		currentNode = prevSibling
	}
	return cleanDocComment(strings.Join(commentLines, "\n"))
}

// extractParams reads a parameter_list. Variadic parameters become Vector.
func (g *GoExtractor) extractParams(paramsNode *sitter.Node, sourceCode []byte, tp typeParams) []GoParam {
	params := []GoParam{}
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		pNode := paramsNode.NamedChild(i)
		var pType signature.TypeExpr
		switch pNode.Type() {
		case "parameter_declaration":
			pType = goTypeExpr(pNode.ChildByFieldName("type"), sourceCode, tp)
		case "variadic_parameter_declaration":
			pType = signature.Container{Name: "Vector", Params: []signature.TypeExpr{goTypeExpr(pNode.ChildByFieldName("type"), sourceCode, tp)}}
		default:
			continue
		}
		var names []string
		for j := 0; j < int(pNode.NamedChildCount()); j++ {
			if c := pNode.NamedChild(j); c.Type() == "identifier" {
				names = append(names, c.Content(sourceCode))
			}
		}
		if len(names) > 0 {
			for _, n := range names {
				params = append(params, GoParam{Name: n, Type: pType})
			}
		} else {
			params = append(params, GoParam{Type: pType})
		}
	}
	return params
}

func cleanDocComment(rawComment string) string {
	if rawComment == "" {
		return ""
	}
	lines := strings.Split(rawComment, "\n")
	var cleaned []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "//")
		l = strings.TrimPrefix(l, "/*")
		l = strings.TrimSuffix(l, "*/")
		cleaned = append(cleaned, strings.TrimSpace(l))
	}
	return strings.Join(cleaned, "\n")
}

package report

import (
	"fmt"
	"regexp"
	"strings"

	"inherit/internal/graph"
)

var mermaidUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// HierarchyDiagram renders the types of g as a mermaid class diagram. Missing
// methods from rep, when given, are listed inside the offending classes.
func HierarchyDiagram(g *graph.Graph, rep *Report) string {
	missing := make(map[string][]string)
	if rep != nil {
		for _, m := range rep.Missing {
			missing[m.Type] = append(missing[m.Type], m.Expected)
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("classDiagram\n")

	nodes := g.Nodes()
	for _, n := range nodes {
		id := sanitizeMermaidID(n.ID)
		sb.WriteString(fmt.Sprintf("    class %s[\"%s\"] {\n", id, n.Name))
		switch n.Kind {
		case graph.KindInterface:
			sb.WriteString("        <<interface>>\n")
		case graph.KindAbstract:
			sb.WriteString("        <<abstract>>\n")
		}
		for _, f := range n.OwnFields {
			sb.WriteString(fmt.Sprintf("        +%s %s\n", f.Type, f.Name))
		}
		for _, r := range n.OwnRequirements {
			sb.WriteString(fmt.Sprintf("        +%s*\n", r.Signature))
		}
		for _, m := range missing[n.ID] {
			sb.WriteString(fmt.Sprintf("        -%s missing\n", m))
		}
		sb.WriteString("    }\n")
	}

	for _, n := range nodes {
		id := sanitizeMermaidID(n.ID)
		if n.Base != nil {
			sb.WriteString(fmt.Sprintf("    %s <|-- %s\n", sanitizeMermaidID(n.Base.ID), id))
		}
		for _, i := range n.Interfaces {
			sb.WriteString(fmt.Sprintf("    %s <|.. %s\n", sanitizeMermaidID(i.ID), id))
		}
	}

	sb.WriteString("```\n")
	return sb.String()
}

func sanitizeMermaidID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "node"
	}
	v = mermaidUnsafe.ReplaceAllString(v, "_")
	if v[0] >= '0' && v[0] <= '9' {
		v = "n_" + v
	}
	return v
}

package graph

func (g *Graph) KindCounts() map[Kind]int {
	counts := make(map[Kind]int)
	if g == nil {
		return counts
	}
	for _, n := range g.order {
		counts[n.Kind]++
	}
	return counts
}

// DeclaredRequirements counts the requirements declared by this scope's own
// supertypes, excluding inherited ones.
func (g *Graph) DeclaredRequirements() int {
	if g == nil {
		return 0
	}
	total := 0
	for _, n := range g.order {
		if n.Kind.IsSupertype() {
			total += len(n.OwnRequirements)
		}
	}
	return total
}

// OverloadCount returns the number of registered implementations.
func (g *Graph) OverloadCount() int {
	if g == nil {
		return 0
	}
	total := 0
	for _, set := range g.overloads {
		total += len(set)
	}
	return total
}

package conformance

import (
	"testing"

	"inherit/internal/graph"
	"inherit/internal/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fruitScope(t *testing.T, concretes ...string) *graph.Graph {
	t.Helper()
	g := graph.NewGraph("fruits")
	g.Import(graph.NewPrelude(), true)
	_, err := g.DeclareBase(graph.BaseDecl{
		Name:     "Fruit",
		Fields:   []graph.FieldDecl{{Name: "weight", Type: signature.Named{Name: "float"}}},
		Requires: []signature.Signature{signature.MustParse("cost(Fruit, float)")},
	})
	require.NoError(t, err)
	for _, name := range concretes {
		_, err := g.DeclareConcrete(graph.ConcreteDecl{
			Name:   name,
			Base:   signature.Named{Name: "Fruit"},
			Fields: []graph.FieldDecl{{Name: "coresize", Type: signature.Named{Name: "int"}}},
		})
		require.NoError(t, err)
	}
	return g
}

func register(t *testing.T, g *graph.Graph, sig string) {
	t.Helper()
	_, err := g.RegisterImplementation(graph.Implementation{Signature: signature.MustParse(sig)})
	require.NoError(t, err)
}

func TestCheck_SingleConformingType(t *testing.T) {
	g := fruitScope(t, "Apple")
	register(t, g, "cost(Apple, float)")

	res := NewChecker().Check(g)
	assert.Equal(t, 1, res.Supertypes)
	assert.Equal(t, 1, res.Requirements)
	assert.Equal(t, 1, res.Subtypes)
	assert.Equal(t, 0, res.Stats.Missing)
	assert.True(t, res.OK())
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, "cost(fruits.Apple, core.Float64)", res.Outcomes[0].Required.String())
}

func TestCheck_UnionCoversSomeConcretes(t *testing.T) {
	g := fruitScope(t, "Apple", "Orange", "Kiwi")
	register(t, g, "cost(Union{Apple,Kiwi}, float)")

	res := NewChecker().Check(g)
	assert.Equal(t, 3, res.Subtypes)
	missing := res.Missing()
	require.Len(t, missing, 1)
	assert.Equal(t, "Orange", missing[0].Type.Name)
	assert.Equal(t, "cost(fruits.Fruit, core.Float64)", missing[0].Requirement.Signature.String())
}

func TestCheck_RemovingCoveringRecordFailsExactlyThatRequirement(t *testing.T) {
	build := func(withCost bool) *Result {
		g := graph.NewGraph("fruits")
		g.Import(graph.NewPrelude(), true)
		_, err := g.DeclareBase(graph.BaseDecl{
			Name: "Fruit",
			Requires: []signature.Signature{
				signature.MustParse("cost(Fruit, float)"),
				signature.MustParse("ripen(Fruit)"),
			},
		})
		require.NoError(t, err)
		_, err = g.DeclareConcrete(graph.ConcreteDecl{Name: "Apple", Base: signature.Named{Name: "Fruit"}})
		require.NoError(t, err)
		if withCost {
			register(t, g, "cost(Apple, Real)")
		}
		register(t, g, "ripen(Fruit)")
		return NewChecker().Check(g)
	}

	assert.True(t, build(true).OK())

	res := build(false)
	missing := res.Missing()
	require.Len(t, missing, 1)
	assert.Equal(t, "cost", missing[0].Required.Func)
	assert.Equal(t, 1, res.Stats.Satisfied)
}

func TestCheck_NoRequirementsNeverMissing(t *testing.T) {
	g := graph.NewGraph("plain")
	g.Import(graph.NewPrelude(), true)
	_, err := g.DeclareBase(graph.BaseDecl{Name: "Shape", Fields: []graph.FieldDecl{{Name: "sides"}}})
	require.NoError(t, err)
	_, err = g.DeclareConcrete(graph.ConcreteDecl{Name: "Square", Base: signature.Named{Name: "Shape"}})
	require.NoError(t, err)
	_, err = g.DeclareConcrete(graph.ConcreteDecl{Name: "Loose"})
	require.NoError(t, err)

	res := NewChecker().Check(g)
	assert.Equal(t, 2, res.Subtypes)
	assert.Empty(t, res.Missing())
	assert.Empty(t, res.Outcomes)
}

// Records are keyed by signature, so replacing one under the same key cannot
// change coverage. Only a new, broader overload can.
func TestCheck_BroaderOverloadFixesFailure(t *testing.T) {
	g := fruitScope(t, "Apple")
	register(t, g, "cost(Apple, Int64)")
	assert.False(t, NewChecker().Check(g).OK())

	register(t, g, "cost(Apple, int)")
	assert.Len(t, g.Overloads("cost"), 1)
	assert.False(t, NewChecker().Check(g).OK())

	register(t, g, "cost(Apple, Real)")
	assert.Len(t, g.Overloads("cost"), 2)
	assert.True(t, NewChecker().Check(g).OK())
}

func TestCheck_GrandparentRequirementSubstitutesSelfPositionOnly(t *testing.T) {
	g := graph.NewGraph("zoo")
	g.Import(graph.NewPrelude(), true)
	_, err := g.DeclareBase(graph.BaseDecl{Name: "Animal", Requires: []signature.Signature{signature.MustParse("meet(Animal, Animal)")}})
	require.NoError(t, err)
	_, err = g.DeclareBase(graph.BaseDecl{Name: "Cat", Parent: signature.Named{Name: "Animal"}})
	require.NoError(t, err)
	_, err = g.DeclareConcrete(graph.ConcreteDecl{Name: "Lion", Base: signature.Named{Name: "Cat"}})
	require.NoError(t, err)
	register(t, g, "meet(Lion, Cat)")

	res := NewChecker().Check(g)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, "meet(zoo.Lion, zoo.Animal)", res.Outcomes[0].Required.String())
	assert.False(t, res.OK(), "the second position keeps the Animal constraint")

	register(t, g, "meet(Cat, Animal)")
	assert.True(t, NewChecker().Check(g).OK())
}

func TestCheck_ImportedRecordsAfterLocalOnes(t *testing.T) {
	fruits := fruitScope(t)
	register(t, fruits, "cost(Fruit, Real)")
	fruits.Freeze()

	build := func() *graph.Graph {
		g := graph.NewGraph("orchard")
		g.Import(graph.NewPrelude(), true)
		g.Import(fruits, false)
		_, err := g.DeclareConcrete(graph.ConcreteDecl{Name: "Apple", Base: signature.Named{Scope: "fruits", Name: "Fruit"}})
		require.NoError(t, err)
		return g
	}

	res := NewChecker().Check(build())
	require.True(t, res.OK())
	require.Len(t, res.Outcomes[0].Matches, 1)
	assert.Equal(t, "fruits", res.Outcomes[0].Matches[0].Scope)

	g := build()
	register(t, g, "cost(Apple, float)")
	res = NewChecker().Check(g)
	require.True(t, res.OK())
	require.Len(t, res.Outcomes[0].Matches, 1)
	assert.Equal(t, "orchard", res.Outcomes[0].Matches[0].Scope)
}

func TestCheck_InterfaceDefaultImplementationCoversImplementers(t *testing.T) {
	g := fruitScope(t)
	_, err := g.DeclareInterface(graph.InterfaceDecl{Name: "Labelled", Requires: []signature.Signature{signature.MustParse("label(Labelled)")}})
	require.NoError(t, err)
	_, err = g.DeclareConcrete(graph.ConcreteDecl{
		Name:       "Pear",
		Base:       signature.Named{Name: "Fruit"},
		Interfaces: []signature.Named{{Name: "Labelled"}},
	})
	require.NoError(t, err)
	register(t, g, "label(Labelled)")
	register(t, g, "cost(Fruit, Number)")
	register(t, g, "cost(Pear, float)")

	res := NewChecker().Check(g)
	assert.True(t, res.OK())
	for _, o := range res.Outcomes {
		if o.Required.Func == "cost" {
			assert.Len(t, o.Matches, 2, "multiple covering overloads are allowed")
		}
	}
}

package manifest

import (
	"context"
	"errors"
	"testing"

	"inherit/internal/graph"
	"inherit/internal/registry"
	"inherit/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndApply(t *testing.T) {
	f, err := Load("testdata/orchard.yaml")
	require.NoError(t, err)
	assert.Equal(t, "orchard", f.Scope)
	require.Len(t, f.Types, 5)
	assert.Equal(t, []string{"Fruit", "Peelable"}, f.Types[3].Extends)

	reg := registry.New()
	require.NoError(t, Apply(reg, f))

	g, ok := reg.Graph("orchard")
	require.True(t, ok)
	orange, ok := g.Lookup("Orange")
	require.True(t, ok)
	require.NotNil(t, orange.Base)
	assert.Equal(t, "Fruit", orange.Base.Name)
	require.Len(t, orange.Interfaces, 1)
	assert.Equal(t, "Peelable", orange.Interfaces[0].Name)

	fruit, _ := g.Lookup("Fruit")
	assert.Equal(t, "Price of the fruit at the given weight.", fruit.OwnRequirements[0].Signature.Doc)

	rep, err := reg.FinalizeAndCheck("orchard")
	var ce *report.ConformanceError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"orchard.Orange"}, ce.Types())
	assert.Equal(t, 2, rep.Supertypes)
	assert.Equal(t, 2, rep.Requirements)
	assert.Equal(t, 3, rep.Subtypes)
}

func TestApply_CrossScopeImport(t *testing.T) {
	reg := registry.New()
	base, err := Parse([]byte(`
scope: shapes
types:
  - name: Shape
    kind: base
    requires:
      - signature: area(Shape)
`))
	require.NoError(t, err)
	require.NoError(t, Apply(reg, base))

	leaf, err := Parse([]byte(`
scope: squares
imports: [shapes]
types:
  - name: Square
    kind: concrete
    extends: [shapes.Shape]
    fields:
      - name: side
        type: float
implementations:
  - signature: area(Square)
`))
	require.NoError(t, err)
	require.NoError(t, Apply(reg, leaf))

	_, err = reg.CheckAll(context.Background())
	assert.NoError(t, err)
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "forward reference",
			doc: `
scope: s
types:
  - {name: Apple, kind: concrete, extends: [Fruit]}
  - {name: Fruit, kind: base}
`,
			want: graph.CodeUndeclared,
		},
		{
			name: "two bases",
			doc: `
scope: s
types:
  - {name: A, kind: base}
  - {name: B, kind: base}
  - {name: C, kind: concrete, extends: [A, B]}
`,
			want: "more than one base",
		},
		{
			name: "bad signature",
			doc: `
scope: s
implementations:
  - signature: "cost(Apple"
`,
			want: "implementation",
		},
		{
			name: "requirement on concrete",
			doc: `
scope: s
types:
  - name: C
    kind: concrete
    requires: [{signature: "f(C)"}]
`,
			want: "cannot declare requirements",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			err = Apply(registry.New(), f)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse([]byte("types: []"))
	assert.ErrorContains(t, err, "scope is required")

	_, err = Parse([]byte("scope: s\ntypes:\n  - {name: A, kind: trait}\n"))
	assert.ErrorContains(t, err, "unknown kind")

	_, err = Parse([]byte("scope: s\ntypes:\n  - {name: A, kind: base, extend: [B]}\n"))
	assert.ErrorContains(t, err, "schema validation")

	_, err = Parse([]byte("scope: my-scope\n"))
	assert.ErrorContains(t, err, "schema validation")
}

func TestMarshal_RoundTripsThroughParse(t *testing.T) {
	f, err := Load("testdata/orchard.yaml")
	require.NoError(t, err)
	data, err := f.Marshal()
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	again.Path = f.Path
	assert.Equal(t, f, again)
}

func TestOrder(t *testing.T) {
	stall := &File{Scope: "stall", Imports: []string{"market"}}
	market := &File{Scope: "market", Imports: []string{"fruits", "core"}}
	fruits := &File{Scope: "fruits"}
	tools := &File{Scope: "tools"}

	ordered, err := Order([]*File{stall, market, tools, fruits})
	require.NoError(t, err)
	var scopes []string
	for _, f := range ordered {
		scopes = append(scopes, f.Scope)
	}
	assert.Equal(t, []string{"tools", "fruits", "market", "stall"}, scopes)

	t.Run("Cycle", func(t *testing.T) {
		a := &File{Scope: "a", Imports: []string{"b"}}
		b := &File{Scope: "b", Imports: []string{"a"}}
		_, err := Order([]*File{a, b, fruits})
		var oe *graph.OrderError
		require.True(t, errors.As(err, &oe))
		assert.Equal(t, graph.CodeCycle, oe.Code)
	})

	t.Run("Duplicate scope", func(t *testing.T) {
		_, err := Order([]*File{fruits, {Scope: "fruits", Path: "other.yaml"}})
		assert.ErrorContains(t, err, "declared by both")
	})
}

func TestApplyAll_OutOfOrderFiles(t *testing.T) {
	leaf, err := Parse([]byte(`
scope: squares
imports: [shapes]
types:
  - {name: Square, kind: concrete, extends: [shapes.Shape]}
`))
	require.NoError(t, err)
	base, err := Parse([]byte(`
scope: shapes
types:
  - name: Shape
    kind: base
    requires:
      - signature: area(Shape)
`))
	require.NoError(t, err)

	reg := registry.New()
	require.NoError(t, ApplyAll(reg, []*File{leaf, base}))

	_, err = reg.CheckAll(context.Background())
	var ce *report.ConformanceError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"squares.Square"}, ce.Types())
}

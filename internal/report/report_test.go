package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"inherit/internal/conformance"
	"inherit/internal/graph"
	"inherit/internal/signature"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// orchard builds Fruit with Apple, Orange and Kiwi where only Apple and Kiwi
// are covered.
func orchard(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph("fruits")
	g.Import(graph.NewPrelude(), true)
	_, err := g.DeclareBase(graph.BaseDecl{
		Name:     "Fruit",
		Fields:   []graph.FieldDecl{{Name: "weight", Type: signature.Named{Name: "float"}}},
		Requires: []signature.Signature{signature.MustParse("cost(Fruit, float)")},
	})
	require.NoError(t, err)
	for _, name := range []string{"Apple", "Orange", "Kiwi"} {
		_, err := g.DeclareConcrete(graph.ConcreteDecl{Name: name, Base: signature.Named{Name: "Fruit"}})
		require.NoError(t, err)
	}
	_, err = g.RegisterImplementation(graph.Implementation{Signature: signature.MustParse("cost(Union{Apple,Kiwi}, float)")})
	require.NoError(t, err)
	return g
}

func buildOrchard(t *testing.T, p Policy) *Report {
	t.Helper()
	return Build(conformance.NewChecker().Check(orchard(t)), p)
}

func TestBuild(t *testing.T) {
	rep := buildOrchard(t, PolicyFailFast)

	want := &Report{
		Scope:        "fruits",
		Policy:       PolicyFailFast,
		Supertypes:   1,
		Requirements: 1,
		Subtypes:     3,
		Checked:      3,
		Missing: []MissingMethod{{
			Type:       "fruits.Orange",
			Function:   "cost",
			Expected:   "cost(fruits.Orange, core.Float64)",
			Required:   "cost(fruits.Fruit, core.Float64)",
			DeclaredBy: "fruits.Fruit",
		}},
	}
	if diff := cmp.Diff(want, rep, cmpopts.IgnoreFields(Report{}, "GeneratedAt")); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "fruits: 1 supertypes, 1 requirements, 3 subtypes checked, 1 missing", rep.Summary())
	assert.Contains(t, rep.Text(), "fruits.Orange does not implement cost")
}

func TestSettings_PolicyResolution(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		scope    string
		want     Policy
	}{
		{"built-in default", Settings{}, "fruits", PolicyFailFast},
		{"global default", Settings{Default: PolicyWarn}, "fruits", PolicyWarn},
		{"scope override wins", Settings{Default: PolicyWarn, Scopes: map[string]Policy{"fruits": PolicySilent}}, "fruits", PolicySilent},
		{"override for other scope", Settings{Scopes: map[string]Policy{"veg": PolicyWarn}}, "fruits", PolicyFailFast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.PolicyFor(tt.scope))
		})
	}

	base := Settings{Default: PolicyWarn}
	scoped := base.WithScope("fruits", PolicySilent)
	assert.Nil(t, base.Scopes)
	assert.Equal(t, PolicySilent, scoped.PolicyFor("fruits"))
}

func TestParsePolicyAndVerbosity(t *testing.T) {
	p, err := ParsePolicy(" Warn ")
	require.NoError(t, err)
	assert.Equal(t, PolicyWarn, p)

	_, err = ParsePolicy("loud")
	assert.Error(t, err)

	v, err := ParseVerbosity("")
	require.NoError(t, err)
	assert.Equal(t, VerbosityInfo, v)

	v, err = ParseVerbosity("none")
	require.NoError(t, err)
	assert.Equal(t, VerbosityNone, v)

	_, err = ParseVerbosity("trace")
	assert.Error(t, err)
}

func TestRender_FailFastNamesEveryMissingPair(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewRenderer(zap.New(core), Settings{})

	err := r.Render(buildOrchard(t, PolicyFailFast))
	var ce *ConformanceError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"fruits.Orange"}, ce.Types())
	assert.Contains(t, err.Error(), "fruits.Orange")
	assert.Contains(t, err.Error(), "cost(fruits.Orange, core.Float64)")
	assert.Contains(t, err.Error(), CodeMissingMethods)

	summaries := logs.FilterMessage("fruits: 1 supertypes, 1 requirements, 3 subtypes checked, 1 missing").All()
	require.Len(t, summaries, 1)
	assert.Equal(t, zapcore.InfoLevel, summaries[0].Level)
}

func TestRender_WarnCarriesSameInformation(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewRenderer(zap.New(core), Settings{Summary: VerbosityNone})

	require.NoError(t, r.Render(buildOrchard(t, PolicyWarn)))

	entries := logs.FilterMessage("missing method").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "fruits.Orange", fields["type"])
	assert.Equal(t, "cost", fields["function"])
	assert.Equal(t, "cost(fruits.Orange, core.Float64)", fields["expected"])
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, 1, logs.FilterMessage("conformance check found missing methods").Len())
	assert.Equal(t, 2, logs.Len(), "summary suppressed at verbosity none")
}

func TestRender_SilentProducesNothingButSummary(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewRenderer(zap.New(core), Settings{Summary: VerbosityDebug})

	rep := buildOrchard(t, PolicySilent)
	require.NoError(t, r.Render(rep))
	assert.Len(t, rep.Missing, 1, "result is still computed")

	all := logs.All()
	require.Len(t, all, 1)
	assert.Equal(t, zapcore.DebugLevel, all[0].Level)
	assert.Equal(t, rep.Summary(), all[0].Message)
}

func TestRender_PassingScopeFailFast(t *testing.T) {
	g := orchard(t)
	_, err := g.RegisterImplementation(graph.Implementation{Signature: signature.MustParse("cost(Orange, Real)")})
	require.NoError(t, err)

	rep := Build(conformance.NewChecker().Check(g), PolicyFailFast)
	assert.NoError(t, NewRenderer(nil, Settings{}).Render(rep))
	assert.NoError(t, rep.Err())
}

func TestReport_Save(t *testing.T) {
	rep := buildOrchard(t, PolicyWarn)
	path := filepath.Join(t.TempDir(), "out", "fruits.json")
	require.NoError(t, rep.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rep.Missing, decoded.Missing)
	assert.Equal(t, PolicyWarn, decoded.Policy)
}

func TestHierarchyDiagram(t *testing.T) {
	g := orchard(t)
	rep := Build(conformance.NewChecker().Check(g), PolicyWarn)

	out := HierarchyDiagram(g, rep)
	assert.Contains(t, out, "classDiagram")
	assert.Contains(t, out, "class fruits_Fruit[\"Fruit\"]")
	assert.Contains(t, out, "<<abstract>>")
	assert.Contains(t, out, "fruits_Fruit <|-- fruits_Orange")
	assert.Contains(t, out, "-cost(fruits.Orange, core.Float64) missing")
}

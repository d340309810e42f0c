package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docpack/internal/model"
)

func TestBuildResolvesUniqueCall(t *testing.T) {
	symbols := []model.Symbol{
		{SymbolID: "s-foo", Name: "foo", Calls: []string{"bar"}},
		{SymbolID: "s-bar", Name: "bar"},
	}
	g, stats := Build(symbols)

	require.Len(t, g.Edges, 1)
	assert.Equal(t, Edge{From: "s-foo", To: "s-bar", Kind: EdgeCalls}, g.Edges[0])
	assert.Zero(t, stats.UnresolvedCalls)
	assert.Zero(t, stats.AmbiguousCalls)

	// The callee accumulates degree from being called.
	c := Centrality(g)
	assert.Equal(t, c["s-bar"], c["s-foo"])
	assert.Equal(t, 1.0, c["s-bar"])
}

func TestBuildDropsAmbiguousCall(t *testing.T) {
	symbols := []model.Symbol{
		{SymbolID: "s1", Name: "caller", Calls: []string{"helper"}},
		{SymbolID: "s2", Name: "helper"},
		{SymbolID: "s3", Name: "helper"},
	}
	g, stats := Build(symbols)
	assert.Empty(t, g.Edges)
	assert.Equal(t, 1, stats.AmbiguousCalls)
}

func TestBuildDropsUnresolvedCall(t *testing.T) {
	symbols := []model.Symbol{
		{SymbolID: "s1", Name: "caller", Calls: []string{"nothere"}},
	}
	g, stats := Build(symbols)
	assert.Empty(t, g.Edges)
	assert.Equal(t, 1, stats.UnresolvedCalls)
}

func TestBuildNoSelfLoops(t *testing.T) {
	// Recursive call: the only name match is the symbol itself.
	symbols := []model.Symbol{
		{SymbolID: "s1", Name: "fib", Calls: []string{"fib"}},
	}
	g, stats := Build(symbols)
	assert.Empty(t, g.Edges)
	assert.Equal(t, 1, stats.UnresolvedCalls)
}

func TestBuildResolvesImportByModuleIdentity(t *testing.T) {
	symbols := []model.Symbol{
		{SymbolID: "s1", Name: "main", FilePath: "src/main.rs", Imports: []string{"crate::util::helpers"}},
		{SymbolID: "s2", Name: "shorten", FilePath: "src/util/helpers.rs"},
	}
	g, stats := Build(symbols)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, Edge{From: "s1", To: "s2", Kind: EdgeImports}, g.Edges[0])
	assert.Zero(t, stats.UnresolvedImports)
}

func TestBuildDropsAmbiguousImport(t *testing.T) {
	symbols := []model.Symbol{
		{SymbolID: "s1", Name: "main", FilePath: "main.go", Imports: []string{"pkg/util"}},
		{SymbolID: "s2", Name: "a", FilePath: "a/util.go"},
		{SymbolID: "s3", Name: "b", FilePath: "b/util.go"},
	}
	g, stats := Build(symbols)
	assert.Empty(t, g.Edges)
	assert.Equal(t, 1, stats.AmbiguousImports)
}

func TestCentralityAllZeroWithoutEdges(t *testing.T) {
	symbols := []model.Symbol{
		{SymbolID: "s1", Name: "a"},
		{SymbolID: "s2", Name: "b"},
	}
	g, _ := Build(symbols)
	for id, score := range Centrality(g) {
		assert.Zero(t, score, "symbol %s", id)
	}
}

func TestCentralityNormalizedByMaxDegree(t *testing.T) {
	// hub is called by two symbols, each caller has degree 1, hub degree 2.
	symbols := []model.Symbol{
		{SymbolID: "s-hub", Name: "hub"},
		{SymbolID: "s-a", Name: "a", Calls: []string{"hub"}},
		{SymbolID: "s-b", Name: "b", Calls: []string{"hub"}},
	}
	g, _ := Build(symbols)
	c := Centrality(g)
	assert.Equal(t, 1.0, c["s-hub"])
	assert.Equal(t, 0.5, c["s-a"])
	assert.Equal(t, 0.5, c["s-b"])
}

func TestCentralityIgnoresSimilarityEdges(t *testing.T) {
	g := &Graph{
		Nodes: []string{"a", "b"},
		Edges: []Edge{{From: "a", To: "b", Kind: EdgeSimilarity, Weight: 0.9}},
	}
	c := Centrality(g)
	assert.Zero(t, c["a"])
	assert.Zero(t, c["b"])
}

func TestFinalSegment(t *testing.T) {
	tests := []struct{ in, want string }{
		{"crate::util::helpers", "helpers"},
		{"pkg/sub/mod", "mod"},
		{"package.module.name", "name"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, finalSegment(tt.in), "input %q", tt.in)
	}
}

func TestDensity(t *testing.T) {
	symbols := []model.Symbol{
		{SymbolID: "s1", Name: "a", Calls: []string{"b"}},
		{SymbolID: "s2", Name: "b"},
	}
	g, _ := Build(symbols)
	density, avgDegree := g.Density()
	assert.InDelta(t, 0.5, density, 1e-9)
	assert.InDelta(t, 1.0, avgDegree, 1e-9)
}

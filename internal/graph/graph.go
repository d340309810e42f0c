// Package graph derives the typed symbol graph: call edges from name
// resolution, import edges from module identity, and similarity edges from
// embedding cosine distance. Resolution is strict: a reference that matches
// zero or several symbols produces no edge.
package graph

import (
	"sort"
	"strings"

	"docpack/internal/model"
)

// EdgeKind discriminates the relation an edge encodes.
type EdgeKind string

const (
	EdgeCalls      EdgeKind = "calls"
	EdgeImports    EdgeKind = "imports"
	EdgeSimilarity EdgeKind = "similarity"
)

// Edge is one directed relation between two symbols. Weight is only set on
// similarity edges.
type Edge struct {
	From   string
	To     string
	Kind   EdgeKind
	Weight float64
}

// Graph holds the node id set and all derived edges in a stable order.
type Graph struct {
	Nodes []string
	Edges []Edge
}

// ResolutionStats counts the references that produced no edge.
type ResolutionStats struct {
	UnresolvedCalls   int
	AmbiguousCalls    int
	UnresolvedImports int
	AmbiguousImports  int
}

// Build derives call and import edges from the symbol set. Similarity
// edges are added separately by AddSimilarityEdges since they need the
// embedding vectors.
func Build(symbols []model.Symbol) (*Graph, ResolutionStats) {
	g := &Graph{Nodes: make([]string, 0, len(symbols))}
	var stats ResolutionStats

	byName := make(map[string][]string)
	byModule := make(map[string][]string)
	for _, s := range symbols {
		g.Nodes = append(g.Nodes, s.SymbolID)
		byName[s.Name] = append(byName[s.Name], s.SymbolID)
		if m := moduleName(s.FilePath); m != "" {
			byModule[m] = append(byModule[m], s.SymbolID)
		}
	}
	sort.Strings(g.Nodes)

	for _, s := range symbols {
		for _, callee := range s.Calls {
			target, ok := resolveUnique(byName[callee], s.SymbolID)
			switch {
			case ok:
				g.Edges = append(g.Edges, Edge{From: s.SymbolID, To: target, Kind: EdgeCalls})
			case len(others(byName[callee], s.SymbolID)) == 0:
				stats.UnresolvedCalls++
			default:
				stats.AmbiguousCalls++
			}
		}
		for _, imp := range s.Imports {
			seg := finalSegment(imp)
			target, ok := resolveUnique(byModule[seg], s.SymbolID)
			switch {
			case ok:
				g.Edges = append(g.Edges, Edge{From: s.SymbolID, To: target, Kind: EdgeImports})
			case len(others(byModule[seg], s.SymbolID)) == 0:
				stats.UnresolvedImports++
			default:
				stats.AmbiguousImports++
			}
		}
	}

	sortEdges(g.Edges)
	return g, stats
}

// Density returns the directed edge density and the average total degree.
func (g *Graph) Density() (density, avgDegree float64) {
	n := len(g.Nodes)
	e := len(g.Edges)
	if n > 1 {
		density = float64(e) / float64(n*(n-1))
	}
	if n > 0 {
		avgDegree = 2 * float64(e) / float64(n)
	}
	return density, avgDegree
}

// Centrality scores every node by normalized degree over call and import
// edges. Similarity edges express proximity, not dependency, and do not
// count. When no node has any degree all scores are zero.
func Centrality(g *Graph) map[string]float64 {
	degree := make(map[string]int, len(g.Nodes))
	for _, id := range g.Nodes {
		degree[id] = 0
	}
	for _, e := range g.Edges {
		if e.Kind == EdgeSimilarity {
			continue
		}
		degree[e.From]++
		degree[e.To]++
	}
	max := 0
	for _, d := range degree {
		if d > max {
			max = d
		}
	}
	scores := make(map[string]float64, len(degree))
	for id, d := range degree {
		if max > 0 {
			scores[id] = float64(d) / float64(max)
		} else {
			scores[id] = 0
		}
	}
	return scores
}

// resolveUnique returns the single candidate that is not self, if there is
// exactly one.
func resolveUnique(candidates []string, self string) (string, bool) {
	o := others(candidates, self)
	if len(o) == 1 {
		return o[0], true
	}
	return "", false
}

func others(candidates []string, self string) []string {
	var out []string
	for _, c := range candidates {
		if c != self {
			out = append(out, c)
		}
	}
	return out
}

// moduleName reduces a file path to its identity for import matching:
// the basename without extension.
func moduleName(filePath string) string {
	if filePath == "" {
		return ""
	}
	base := filePath
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

// finalSegment returns the last path segment of an import, splitting on
// "/", "." and "::".
func finalSegment(imp string) string {
	seg := imp
	for _, sep := range []string{"::", "/", "."} {
		if i := strings.LastIndex(seg, sep); i >= 0 {
			seg = seg[i+len(sep):]
		}
	}
	return seg
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})
}

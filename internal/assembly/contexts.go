package assembly

import (
	"sort"

	"docpack/internal/cluster"
	"docpack/internal/docpack"
	"docpack/internal/graph"
	"docpack/internal/model"
)

// Caps keep a symbol context prompt-sized. A hub symbol with hundreds of
// callers still produces a bounded context; the graph retains the full
// edge set.
const (
	maxContextCalls   = 10
	maxContextImports = 10
	maxRelated        = 3
)

// relations is the denormalized neighborhood of one symbol, capped and
// deterministically ordered.
type relations struct {
	calls    []string
	calledBy []string
	imports  []string
	related  []docpack.RelatedSymbol
}

// relationsFor walks the edge set once and produces every symbol's capped
// neighborhood. Call lists are ordered by the neighbor's centrality, most
// central first, with the symbol id breaking ties.
func relationsFor(g *graph.Graph, centrality map[string]float64) map[string]relations {
	calls := make(map[string][]string)
	calledBy := make(map[string][]string)
	imports := make(map[string][]string)
	related := make(map[string][]docpack.RelatedSymbol)

	for _, e := range g.Edges {
		switch e.Kind {
		case graph.EdgeCalls:
			calls[e.From] = append(calls[e.From], e.To)
			calledBy[e.To] = append(calledBy[e.To], e.From)
		case graph.EdgeImports:
			imports[e.From] = append(imports[e.From], e.To)
		case graph.EdgeSimilarity:
			related[e.From] = append(related[e.From], docpack.RelatedSymbol{SymbolID: e.To, Weight: e.Weight})
			related[e.To] = append(related[e.To], docpack.RelatedSymbol{SymbolID: e.From, Weight: e.Weight})
		}
	}

	out := make(map[string]relations, len(g.Nodes))
	for _, id := range g.Nodes {
		r := relations{
			calls:    capByCentrality(calls[id], centrality, maxContextCalls),
			calledBy: capByCentrality(calledBy[id], centrality, maxContextCalls),
			imports:  capList(imports[id], maxContextImports),
			related:  capRelated(related[id]),
		}
		out[id] = r
	}
	return out
}

// capByCentrality sorts neighbor ids by centrality descending, id
// ascending on ties, then truncates.
func capByCentrality(ids []string, centrality map[string]float64, max int) []string {
	out := append([]string{}, ids...)
	sort.Slice(out, func(i, j int) bool {
		ci, cj := centrality[out[i]], centrality[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] < out[j]
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func capList(ids []string, max int) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// capRelated keeps the strongest similarity neighbors, weight descending,
// id ascending on ties.
func capRelated(rel []docpack.RelatedSymbol) []docpack.RelatedSymbol {
	out := append([]docpack.RelatedSymbol{}, rel...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].SymbolID < out[j].SymbolID
	})
	if len(out) > maxRelated {
		out = out[:maxRelated]
	}
	return out
}

// synthesizeContexts builds one self-contained context per symbol, sorted
// by symbol id. Everything a generation prompt needs is inlined so a
// consumer never has to join across files. Call relations are rendered as
// names; the graph keeps the ids.
func synthesizeContexts(job *model.Job, g *graph.Graph, clusters *cluster.Result, centrality map[string]float64, labels map[int]string) docpack.ContextsFile {
	rel := relationsFor(g, centrality)
	names := make(map[string]string, len(job.Symbols))
	for _, s := range job.Symbols {
		names[s.SymbolID] = s.Name
	}
	toNames := func(ids []string) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			out = append(out, names[id])
		}
		return out
	}

	cf := docpack.ContextsFile{Contexts: make([]docpack.SymbolContext, 0, len(job.Symbols))}
	for _, s := range job.Symbols {
		r := rel[s.SymbolID]
		clusterLabel := ""
		if cid := clusters.Assignment[s.SymbolID]; cid != cluster.Unassigned {
			clusterLabel = labels[cid]
		}
		imports := append([]string{}, s.Imports...)
		// Longest import paths carry the most signal; keep those when
		// the cap bites.
		sort.Slice(imports, func(i, j int) bool {
			if len(imports[i]) != len(imports[j]) {
				return len(imports[i]) > len(imports[j])
			}
			return imports[i] < imports[j]
		})
		if len(imports) > maxContextImports {
			imports = imports[:maxContextImports]
		}
		cf.Contexts = append(cf.Contexts, docpack.SymbolContext{
			SymbolID:       s.SymbolID,
			Name:           s.Name,
			Kind:           s.Kind,
			Language:       s.Language,
			FilePath:       s.FilePath,
			Signature:      s.Signature,
			Calls:          toNames(r.calls),
			CalledBy:       toNames(r.calledBy),
			Imports:        imports,
			RelatedSymbols: r.related,
			ClusterLabel:   clusterLabel,
			Centrality:     centrality[s.SymbolID],
		})
	}
	sort.Slice(cf.Contexts, func(i, j int) bool {
		return cf.Contexts[i].SymbolID < cf.Contexts[j].SymbolID
	})
	return cf
}

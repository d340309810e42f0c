// Package render formats docpack summaries for the terminal.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"docpack/internal/docpack"
)

// topSymbols bounds the most-central list in the summary.
const topSymbols = 10

// Markdown renders markdown for the terminal.
func Markdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// SummaryMarkdown builds the inspect report for an opened docpack.
func SummaryMarkdown(r *docpack.Reader) string {
	m := r.Manifest()
	var b strings.Builder

	fmt.Fprintf(&b, "# Docpack %s\n\n", m.DocpackID)
	fmt.Fprintf(&b, "- **Schema**: %s\n", m.SchemaVersion)
	fmt.Fprintf(&b, "- **Created**: %s\n", m.CreatedAt)
	fmt.Fprintf(&b, "- **Generator**: %s (%s)\n", m.Generator.Version, m.Generator.PipelineVersion)
	fmt.Fprintf(&b, "- **Source**: %s @ %s\n", m.Source.RepoURL, m.Source.GitRef)
	if m.Source.CommitHash != "" {
		fmt.Fprintf(&b, "- **Commit**: %s\n", m.Source.CommitHash)
	}

	s := m.Statistics
	b.WriteString("\n## Statistics\n\n")
	fmt.Fprintf(&b, "| Files | Symbols | Clusters | Dimensions |\n")
	fmt.Fprintf(&b, "|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n", s.FileCount, s.SymbolCount, s.ClusterCount, s.EmbeddingDimensions)

	g := r.Graph()
	b.WriteString("\n## Graph\n\n")
	fmt.Fprintf(&b, "- %d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
	fmt.Fprintf(&b, "- density %.4f, average degree %.2f\n", g.Metrics.Density, g.Metrics.AvgDegree)

	b.WriteString("\n## Clusters\n\n")
	for _, c := range r.Clusters().Clusters {
		fmt.Fprintf(&b, "- **%s** (%d members)\n", c.Label, c.MemberCount)
	}

	b.WriteString("\n## Most central symbols\n\n")
	for _, n := range CentralSymbols(r, topSymbols) {
		fmt.Fprintf(&b, "- `%s` (%s, centrality %.3f) in %s\n", n.Name, n.Kind, n.Centrality, n.FilePath)
	}

	opt := m.Optional
	b.WriteString("\n## Sections\n\n")
	fmt.Fprintf(&b, "- embeddings: %v\n", opt.HasEmbeddings)
	fmt.Fprintf(&b, "- symbol contexts: %v\n", opt.HasSymbolContexts)
	return b.String()
}

// CentralSymbols returns the top n symbols by centrality, id ascending on
// ties.
func CentralSymbols(r *docpack.Reader, n int) []docpack.Node {
	nodes := append([]docpack.Node{}, r.Nodes().Symbols...)
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Centrality != nodes[j].Centrality {
			return nodes[i].Centrality > nodes[j].Centrality
		}
		return nodes[i].ID < nodes[j].ID
	})
	if len(nodes) > n {
		nodes = nodes[:n]
	}
	return nodes
}

package cmd

import (
	"context"
	"fmt"
	"strings"

	"docpack/internal/assembly"
	"docpack/internal/docpack"
	"docpack/internal/render"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var flagPack string

var mcpCmd = &cobra.Command{
	Use:   "mcp --pack <file.docpack>",
	Short: "Start an MCP server exposing a docpack's contents",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	if flagPack == "" {
		return fmt.Errorf("--pack is required")
	}
	r, err := docpack.Open(flagPack)
	if err != nil {
		return fmt.Errorf("open docpack: %w", err)
	}

	s := mcpserver.NewMCPServer("docpack", assembly.Version, mcpserver.WithToolCapabilities(false))

	s.AddTool(getManifestTool(), makeManifestHandler(r))
	s.AddTool(getSymbolTool(), makeSymbolHandler(r))
	s.AddTool(listClustersTool(), makeListClustersHandler(r))
	s.AddTool(listCentralSymbolsTool(), makeCentralSymbolsHandler(r))

	return mcpserver.ServeStdio(s)
}

func init() {
	mcpCmd.Flags().StringVar(&flagPack, "pack", "", "docpack file to serve")
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func getManifestTool() mcp.Tool {
	return mcp.NewTool("get_manifest",
		mcp.WithDescription("Get the docpack manifest: schema version, source repository, statistics, and checksum."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func getSymbolTool() mcp.Tool {
	return mcp.NewTool("get_symbol",
		mcp.WithDescription("Get one symbol by id, including its relations, cluster, and centrality. Includes the synthesized context when the pack carries one."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Symbol id as listed in the graph"),
		),
	)
}

func listClustersTool() mcp.Tool {
	return mcp.NewTool("list_clusters",
		mcp.WithDescription("List all semantic clusters with their labels and member counts."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func listCentralSymbolsTool() mcp.Tool {
	return mcp.NewTool("list_central_symbols",
		mcp.WithDescription("List the most central symbols of the analyzed codebase."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of symbols to return (default 10)"),
		),
	)
}

// --- Handler factories ---

func makeManifestHandler(r *docpack.Reader) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		m := r.Manifest()
		var sb strings.Builder
		fmt.Fprintf(&sb, "## %s\n\n", m.DocpackID)
		fmt.Fprintf(&sb, "**Schema:** %s  \n**Created:** %s  \n**Source:** %s @ %s\n\n",
			m.SchemaVersion, m.CreatedAt, m.Source.RepoURL, m.Source.GitRef)
		fmt.Fprintf(&sb, "%d files, %d symbols, %d clusters, %d-dim embeddings.\n",
			m.Statistics.FileCount, m.Statistics.SymbolCount,
			m.Statistics.ClusterCount, m.Statistics.EmbeddingDimensions)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeSymbolHandler(r *docpack.Reader) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetString("id", "")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		n, ok := r.Node(id)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("symbol %q not found — call list_central_symbols to see ids", id)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## %s\n\n", n.Name)
		fmt.Fprintf(&sb, "**Kind:** %s  \n**Language:** %s  \n**File:** %s  \n**Centrality:** %.3f\n\n",
			n.Kind, n.Language, n.FilePath, n.Centrality)
		if n.Signature != "" {
			fmt.Fprintf(&sb, "```\n%s\n```\n\n", n.Signature)
		}
		fmt.Fprintf(&sb, "Calls: %s  \nCalled by: %s  \nImports: %s\n",
			idList(n.Calls), idList(n.CalledBy), idList(n.Imports))

		if contexts, ok, err := r.Contexts(); ok && err == nil {
			for _, c := range contexts.Contexts {
				if c.SymbolID == id {
					fmt.Fprintf(&sb, "\n**Cluster:** %s\n", c.ClusterLabel)
					if len(c.RelatedSymbols) > 0 {
						sb.WriteString("**Related:**\n")
						for _, rs := range c.RelatedSymbols {
							fmt.Fprintf(&sb, "- %s (%.3f)\n", rs.SymbolID, rs.Weight)
						}
					}
					break
				}
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeListClustersHandler(r *docpack.Reader) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		clusters := r.Clusters().Clusters
		var sb strings.Builder
		fmt.Fprintf(&sb, "## Clusters (%d)\n\n", len(clusters))
		for _, c := range clusters {
			fmt.Fprintf(&sb, "- **%s** (id %d, %d members)\n", c.Label, c.ClusterID, c.MemberCount)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeCentralSymbolsHandler(r *docpack.Reader) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		k := req.GetInt("k", 10)
		if k <= 0 {
			k = 10
		}
		var sb strings.Builder
		sb.WriteString("## Most central symbols\n\n")
		for _, n := range render.CentralSymbols(r, k) {
			fmt.Fprintf(&sb, "- **%s** (`%s`, %s, centrality %.3f) in %s\n",
				n.Name, n.ID, n.Kind, n.Centrality, n.FilePath)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func idList(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}

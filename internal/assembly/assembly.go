// Package assembly runs the full pipeline over one job: cluster the
// symbols, derive the graph, score centrality, label the clusters,
// synthesize per-symbol contexts, and hand the result to the docpack
// writer. One job's state lives in memory for the duration of the run and
// is discarded afterwards.
package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"docpack/internal/cluster"
	"docpack/internal/docpack"
	"docpack/internal/graph"
	"docpack/internal/label"
	"docpack/internal/model"
)

// Version is the engine version stamped into manifests.
const Version = "0.1.0"

// PipelineVersion names the assembly algorithm revision. It changes when
// clustering, labeling or graph derivation change behavior, so consumers
// can tell packs built by different pipelines apart.
const PipelineVersion = "assembly/1"

// Config controls one assembly run.
type Config struct {
	Workers           int
	IncludeEmbeddings bool
	IncludeContexts   bool
	CreatedAt         time.Time
	Logger            *slog.Logger
}

// Stats summarizes what a run produced and what it had to drop.
type Stats struct {
	Symbols           int
	Clusters          int
	Edges             int
	UnresolvedCalls   int
	AmbiguousCalls    int
	UnresolvedImports int
	AmbiguousImports  int
	Warnings          []string
}

// Result is a finished run: the pack ready to serialize plus its stats.
type Result struct {
	Pack  *docpack.Pack
	Stats Stats
}

// Run executes the pipeline. Cancellation is honored between stages; a
// stage that has started runs to completion.
func Run(ctx context.Context, job *model.Job, cfg Config) (*Result, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	vectors := job.VectorsByChunk()
	res := &Result{}
	res.Stats.Symbols = len(job.Symbols)

	clusters := cluster.Run(job.Symbols, vectors)
	res.Stats.Clusters = len(clusters.Clusters)
	res.Stats.Warnings = append(res.Stats.Warnings, clusters.Warnings...)
	for _, w := range clusters.Warnings {
		log.Warn(w, "job", job.JobID)
	}
	log.Debug("clustering complete", "job", job.JobID, "clusters", len(clusters.Clusters))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, resolution := graph.Build(job.Symbols)
	graph.AddSimilarityEdges(g, clusters.SymbolVectors, cfg.Workers)
	res.Stats.Edges = len(g.Edges)
	res.Stats.UnresolvedCalls = resolution.UnresolvedCalls
	res.Stats.AmbiguousCalls = resolution.AmbiguousCalls
	res.Stats.UnresolvedImports = resolution.UnresolvedImports
	res.Stats.AmbiguousImports = resolution.AmbiguousImports
	log.Debug("graph complete", "job", job.JobID, "edges", len(g.Edges),
		"unresolved_calls", resolution.UnresolvedCalls, "ambiguous_calls", resolution.AmbiguousCalls)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	centrality := graph.Centrality(g)
	labels := labelClusters(job, clusters, centrality)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pack := &docpack.Pack{
		Source: docpack.SourceInfo{
			RepoURL:    job.Source.RepoURL,
			GitRef:     job.Source.GitRef,
			CommitHash: job.Source.CommitHash,
		},
		Generator:  docpack.Generator{Version: Version, PipelineVersion: PipelineVersion},
		Dimensions: job.Dimensions(),
		CreatedAt:  cfg.CreatedAt,
	}
	pack.Graph = buildGraphFile(g)
	pack.Nodes = buildNodesFile(job, g, clusters, centrality)
	pack.Clusters = buildClustersFile(clusters, labels)
	pack.SourceMap = buildSourceMap(job)
	if cfg.IncludeEmbeddings {
		pack.Embeddings = vectors
	}
	if cfg.IncludeContexts {
		cf := synthesizeContexts(job, g, clusters, centrality, labels)
		pack.Contexts = &cf
	}

	res.Pack = pack
	log.Info("assembly complete", "job", job.JobID,
		"symbols", res.Stats.Symbols, "clusters", res.Stats.Clusters, "edges", res.Stats.Edges)
	return res, nil
}

// labelClusters prepares labeler input from the cluster membership and the
// centrality scores. Labeling runs after centrality because the fallback
// label is the most central member's name.
func labelClusters(job *model.Job, clusters *cluster.Result, centrality map[string]float64) map[int]string {
	symByID := make(map[string]model.Symbol, len(job.Symbols))
	for _, s := range job.Symbols {
		symByID[s.SymbolID] = s
	}
	textByChunk := make(map[string]string, len(job.Chunks))
	for _, c := range job.Chunks {
		textByChunk[c.ChunkID] = c.Text
	}

	inputs := make([]label.ClusterInput, 0, len(clusters.Clusters))
	for _, c := range clusters.Clusters {
		in := label.ClusterInput{ID: c.ID}
		for _, id := range c.Members {
			s := symByID[id]
			var text string
			for _, cid := range s.ChunkIDs {
				text += textByChunk[cid] + " "
			}
			in.Members = append(in.Members, label.Member{
				SymbolID:   id,
				Name:       s.Name,
				Text:       text,
				Centrality: centrality[id],
			})
		}
		inputs = append(inputs, in)
	}
	return label.Labels(inputs)
}

func buildGraphFile(g *graph.Graph) docpack.GraphFile {
	density, avgDegree := g.Density()
	gf := docpack.GraphFile{
		Nodes:   g.Nodes,
		Edges:   make([]docpack.GraphEdge, 0, len(g.Edges)),
		Metrics: docpack.GraphMetrics{Density: density, AvgDegree: avgDegree},
	}
	for _, e := range g.Edges {
		ge := docpack.GraphEdge{From: e.From, To: e.To, Kind: string(e.Kind)}
		if e.Kind == graph.EdgeSimilarity {
			ge.Weight = e.Weight
		}
		gf.Edges = append(gf.Edges, ge)
	}
	return gf
}

func buildClustersFile(clusters *cluster.Result, labels map[int]string) docpack.ClustersFile {
	cf := docpack.ClustersFile{Clusters: make([]docpack.ClusterEntry, 0, len(clusters.Clusters))}
	for _, c := range clusters.Clusters {
		cf.Clusters = append(cf.Clusters, docpack.ClusterEntry{
			ClusterID:   c.ID,
			Label:       labels[c.ID],
			MemberCount: len(c.Members),
			Members:     c.Members,
		})
	}
	sort.Slice(cf.Clusters, func(i, j int) bool {
		return cf.Clusters[i].ClusterID < cf.Clusters[j].ClusterID
	})
	return cf
}

func buildSourceMap(job *model.Job) docpack.SourceMapFile {
	sm := docpack.SourceMapFile{Files: make([]docpack.SourceFile, 0, len(job.Files))}
	for _, f := range job.Files {
		sf := docpack.SourceFile{FilePath: f.FilePath, Language: f.Language}
		for _, c := range f.Chunks {
			ids := append([]string(nil), c.SymbolIDs...)
			sort.Strings(ids)
			sf.Chunks = append(sf.Chunks, docpack.SourceChunk{
				ChunkID:   c.ChunkID,
				ByteRange: c.ByteRange,
				SymbolIDs: ids,
			})
		}
		sm.Files = append(sm.Files, sf)
	}
	sort.Slice(sm.Files, func(i, j int) bool {
		return sm.Files[i].FilePath < sm.Files[j].FilePath
	})
	return sm
}

func buildNodesFile(job *model.Job, g *graph.Graph, clusters *cluster.Result, centrality map[string]float64) docpack.NodesFile {
	rel := relationsFor(g, centrality)
	nf := docpack.NodesFile{Symbols: make([]docpack.Node, 0, len(job.Symbols))}
	for _, s := range job.Symbols {
		r := rel[s.SymbolID]
		nf.Symbols = append(nf.Symbols, docpack.Node{
			ID:         s.SymbolID,
			Name:       s.Name,
			Kind:       s.Kind,
			Language:   s.Language,
			FilePath:   s.FilePath,
			ByteRange:  s.ByteRange,
			Signature:  s.Signature,
			Calls:      r.calls,
			CalledBy:   r.calledBy,
			Imports:    r.imports,
			ClusterID:  clusters.Assignment[s.SymbolID],
			Centrality: centrality[s.SymbolID],
		})
	}
	sort.Slice(nf.Symbols, func(i, j int) bool {
		return nf.Symbols[i].ID < nf.Symbols[j].ID
	})
	return nf
}

func (s *Stats) String() string {
	return fmt.Sprintf("%d symbols, %d clusters, %d edges (%d unresolved, %d ambiguous calls)",
		s.Symbols, s.Clusters, s.Edges, s.UnresolvedCalls, s.AmbiguousCalls)
}

package docpack

// Archive entry names, in checksum order. The manifest is excluded from
// the checksum so it can embed the digest of everything else.
const (
	FileManifest   = "manifest.json"
	FileGraph      = "graph.json"
	FileNodes      = "nodes.json"
	FileClusters   = "clusters.json"
	FileSourceMap  = "source_map.json"
	FileEmbeddings = "embeddings.bin"
	FileContexts   = "symbol_contexts.json"
)

// requiredFiles lists the entries every docpack must carry, in archive and
// checksum order (after the manifest).
var requiredFiles = []string{FileGraph, FileNodes, FileClusters, FileSourceMap}

// Node is one symbol as serialized in nodes.json.
type Node struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Language   string   `json:"language"`
	FilePath   string   `json:"file_path"`
	ByteRange  [2]int   `json:"byte_range"`
	Signature  string   `json:"signature,omitempty"`
	Calls      []string `json:"calls"`
	CalledBy   []string `json:"called_by"`
	Imports    []string `json:"imports"`
	ClusterID  int      `json:"cluster_id"`
	Centrality float64  `json:"centrality"`
}

// NodesFile is the nodes.json payload. Symbols are sorted by id.
type NodesFile struct {
	Symbols []Node `json:"symbols"`
}

// GraphEdge is one edge of graph.json.
type GraphEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Kind   string  `json:"kind"`
	Weight float64 `json:"weight,omitempty"`
}

// GraphMetrics summarizes the graph shape.
type GraphMetrics struct {
	Density   float64 `json:"density"`
	AvgDegree float64 `json:"avg_degree"`
}

// GraphFile is the graph.json payload.
type GraphFile struct {
	Nodes   []string     `json:"nodes"`
	Edges   []GraphEdge  `json:"edges"`
	Metrics GraphMetrics `json:"metrics"`
}

// ClusterEntry is one cluster of clusters.json. Members are sorted.
type ClusterEntry struct {
	ClusterID   int      `json:"cluster_id"`
	Label       string   `json:"label"`
	MemberCount int      `json:"member_count"`
	Members     []string `json:"members"`
}

// ClustersFile is the clusters.json payload, sorted by cluster id.
type ClustersFile struct {
	Clusters []ClusterEntry `json:"clusters"`
}

// SourceChunk locates a chunk inside a mapped file.
type SourceChunk struct {
	ChunkID   string   `json:"chunk_id"`
	ByteRange [2]int   `json:"byte_range"`
	SymbolIDs []string `json:"symbol_ids"`
}

// SourceFile is one entry of source_map.json.
type SourceFile struct {
	FilePath string        `json:"file_path"`
	Language string        `json:"language"`
	Chunks   []SourceChunk `json:"chunks"`
}

// SourceMapFile is the source_map.json payload, sorted by file path.
type SourceMapFile struct {
	Files []SourceFile `json:"files"`
}

// RelatedSymbol is a similarity neighbor inside a SymbolContext.
type RelatedSymbol struct {
	SymbolID string  `json:"symbol_id"`
	Weight   float64 `json:"weight"`
}

// SymbolContext is the self-contained description of one symbol, sized for
// direct inclusion in a generation prompt. List fields are capped and
// deterministically ordered by the producer.
type SymbolContext struct {
	SymbolID       string          `json:"symbol_id"`
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	Language       string          `json:"language"`
	FilePath       string          `json:"file_path"`
	Signature      string          `json:"signature,omitempty"`
	Calls          []string        `json:"calls"`
	CalledBy       []string        `json:"called_by"`
	Imports        []string        `json:"imports"`
	RelatedSymbols []RelatedSymbol `json:"related_symbols"`
	ClusterLabel   string          `json:"cluster_label"`
	Centrality     float64         `json:"centrality"`
}

// ContextsFile is the symbol_contexts.json payload, sorted by symbol id.
type ContextsFile struct {
	Contexts []SymbolContext `json:"contexts"`
}

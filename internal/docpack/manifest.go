package docpack

// SchemaVersion is the format version written by this package.
const SchemaVersion = "docpack/1.0"

// supportedSchemas is the exact set a reader accepts. Adding a version
// here is a deliberate compatibility decision, never automatic.
var supportedSchemas = map[string]struct{}{
	SchemaVersion: {},
}

// SchemaSupported reports whether a reader built from this package can
// interpret the given schema version.
func SchemaSupported(v string) bool {
	_, ok := supportedSchemas[v]
	return ok
}

// Generator identifies the producing pipeline.
type Generator struct {
	Version         string `json:"version"`
	PipelineVersion string `json:"pipeline_version"`
}

// SourceInfo identifies the analyzed repository.
type SourceInfo struct {
	RepoURL    string `json:"repo_url"`
	GitRef     string `json:"git_ref"`
	CommitHash string `json:"commit_hash,omitempty"`
}

// Statistics are the headline counts of a docpack.
type Statistics struct {
	FileCount           int `json:"file_count"`
	SymbolCount         int `json:"symbol_count"`
	ClusterCount        int `json:"cluster_count"`
	EmbeddingDimensions int `json:"embedding_dimensions"`
}

// Checksum is the integrity digest over the archive payload.
type Checksum struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

// Optional flags which optional sections the archive carries.
type Optional struct {
	HasEmbeddings     bool `json:"has_embeddings"`
	HasSymbolContexts bool `json:"has_symbol_contexts"`
}

// Manifest is manifest.json: everything a consumer needs to decide whether
// and how to read the rest of the archive.
type Manifest struct {
	SchemaVersion string     `json:"schema_version"`
	DocpackID     string     `json:"docpack_id"`
	CreatedAt     string     `json:"created_at"`
	Generator     Generator  `json:"generator"`
	Source        SourceInfo `json:"source"`
	Statistics    Statistics `json:"statistics"`
	Checksum      Checksum   `json:"checksum"`
	Optional      Optional   `json:"optional"`
}

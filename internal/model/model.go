package model

// Symbol is one extracted code entity as delivered by the ingest stage.
// Symbols are immutable once loaded; the assembly pipeline only reads them.
type Symbol struct {
	SymbolID  string   `json:"symbol_id"`
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Language  string   `json:"language"`
	FilePath  string   `json:"file_path"`
	Signature string   `json:"signature,omitempty"`
	ByteRange [2]int   `json:"byte_range"`
	ChunkIDs  []string `json:"chunk_ids"`
	Calls     []string `json:"calls,omitempty"`
	Imports   []string `json:"imports,omitempty"`
}

// ChunkVector pairs a chunk id with its embedding vector and raw text.
// The text is only needed for cluster labeling and never serialized.
type ChunkVector struct {
	ChunkID string    `json:"chunk_id"`
	Vector  []float32 `json:"vector"`
	Text    string    `json:"text,omitempty"`
}

// SourceChunk locates a chunk inside a source file.
type SourceChunk struct {
	ChunkID   string   `json:"chunk_id"`
	ByteRange [2]int   `json:"byte_range"`
	SymbolIDs []string `json:"symbol_ids"`
}

// SourceFile is one file of the analyzed repository with its chunk layout.
type SourceFile struct {
	FilePath string        `json:"file_path"`
	Language string        `json:"language"`
	Chunks   []SourceChunk `json:"chunks"`
}

// Source identifies the repository a job was built from.
type Source struct {
	RepoURL    string `json:"repo_url"`
	GitRef     string `json:"git_ref"`
	CommitHash string `json:"commit_hash,omitempty"`
}

// Job is the complete input for one assembly run: the symbol set from
// ingest, the vectors from the embedder, and the source layout. A job owns
// its data for the duration of assembly and is discarded afterwards.
type Job struct {
	JobID   string        `json:"job_id"`
	Source  Source        `json:"source"`
	Symbols []Symbol      `json:"symbols"`
	Chunks  []ChunkVector `json:"chunks"`
	Files   []SourceFile  `json:"source_files"`
}

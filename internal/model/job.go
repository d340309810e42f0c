package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// InputError reports a malformed job input, naming the offending field.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("INPUT_ERROR: %s: %s", e.Field, e.Reason)
}

func inputErr(field, format string, args ...any) *InputError {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// LoadJob reads and validates a job file. A missing job_id is filled in
// with a generated one rather than rejected.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, inputErr("job", "invalid JSON: %v", err)
	}
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate checks the structural invariants the pipeline relies on: unique
// symbol and chunk ids, named symbols, and a single embedding dimension
// across all chunk vectors. An empty chunk set is valid.
func (j *Job) Validate() error {
	seenSym := make(map[string]struct{}, len(j.Symbols))
	for i, s := range j.Symbols {
		if s.SymbolID == "" {
			return inputErr("symbols", "symbol at index %d has no symbol_id", i)
		}
		if s.Name == "" {
			return inputErr("symbols", "symbol %q has no name", s.SymbolID)
		}
		if _, dup := seenSym[s.SymbolID]; dup {
			return inputErr("symbols", "duplicate symbol_id %q", s.SymbolID)
		}
		seenSym[s.SymbolID] = struct{}{}
	}

	dims := 0
	seenChunk := make(map[string]struct{}, len(j.Chunks))
	for i, c := range j.Chunks {
		if c.ChunkID == "" {
			return inputErr("chunks", "chunk at index %d has no chunk_id", i)
		}
		if _, dup := seenChunk[c.ChunkID]; dup {
			return inputErr("chunks", "duplicate chunk_id %q", c.ChunkID)
		}
		seenChunk[c.ChunkID] = struct{}{}
		if len(c.Vector) == 0 {
			return inputErr("chunks", "chunk %q has an empty vector", c.ChunkID)
		}
		if dims == 0 {
			dims = len(c.Vector)
		} else if len(c.Vector) != dims {
			return inputErr("chunks", "chunk %q has dimension %d, expected %d", c.ChunkID, len(c.Vector), dims)
		}
	}
	return nil
}

// Dimensions returns the embedding dimension of the job's vectors, or 0
// when the job carries no vectors.
func (j *Job) Dimensions() int {
	if len(j.Chunks) == 0 {
		return 0
	}
	return len(j.Chunks[0].Vector)
}

// VectorsByChunk indexes the job's chunk vectors by chunk id.
func (j *Job) VectorsByChunk() map[string][]float32 {
	m := make(map[string][]float32, len(j.Chunks))
	for _, c := range j.Chunks {
		m[c.ChunkID] = c.Vector
	}
	return m
}

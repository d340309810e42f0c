package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validJob() *Job {
	return &Job{
		JobID: "job-1",
		Symbols: []Symbol{
			{SymbolID: "s1", Name: "ParseConfig", ChunkIDs: []string{"c1"}},
			{SymbolID: "s2", Name: "LoadConfig", ChunkIDs: []string{"c2"}},
		},
		Chunks: []ChunkVector{
			{ChunkID: "c1", Vector: []float32{1, 0}},
			{ChunkID: "c2", Vector: []float32{0, 1}},
		},
	}
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validJob().Validate())
}

func TestValidateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Job)
		field  string
	}{
		{"missing symbol id", func(j *Job) { j.Symbols[0].SymbolID = "" }, "symbols"},
		{"missing name", func(j *Job) { j.Symbols[1].Name = "" }, "symbols"},
		{"duplicate symbol id", func(j *Job) { j.Symbols[1].SymbolID = "s1" }, "symbols"},
		{"duplicate chunk id", func(j *Job) { j.Chunks[1].ChunkID = "c1" }, "chunks"},
		{"empty vector", func(j *Job) { j.Chunks[0].Vector = nil }, "chunks"},
		{"dimension mismatch", func(j *Job) { j.Chunks[1].Vector = []float32{1, 2, 3} }, "chunks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := validJob()
			tt.mutate(j)
			err := j.Validate()
			require.Error(t, err)
			var ie *InputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

func TestLoadJobFillsJobID(t *testing.T) {
	j := validJob()
	j.JobID = ""
	data, err := json.Marshal(j)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "job.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadJob(path)
	require.NoError(t, err)
	assert.NotEmpty(t, loaded.JobID)
	assert.Len(t, loaded.Symbols, 2)
}

func TestLoadJobRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadJob(path)
	var ie *InputError
	require.ErrorAs(t, err, &ie)
}

func TestDimensions(t *testing.T) {
	j := validJob()
	assert.Equal(t, 2, j.Dimensions())
	j.Chunks = nil
	assert.Equal(t, 0, j.Dimensions())
}

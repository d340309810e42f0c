package assembly

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docpack/internal/docpack"
	"docpack/internal/model"
)

func testJob() *model.Job {
	return &model.Job{
		JobID: "job-test",
		Source: model.Source{
			RepoURL: "https://example.com/repo.git",
			GitRef:  "main",
		},
		Symbols: []model.Symbol{
			{SymbolID: "sym-bar", Name: "bar", Kind: "function", Language: "go",
				FilePath: "pkg/bar.go", ByteRange: [2]int{0, 80}, ChunkIDs: []string{"c-bar"}},
			{SymbolID: "sym-foo", Name: "foo", Kind: "function", Language: "go",
				FilePath: "pkg/foo.go", ByteRange: [2]int{0, 120}, ChunkIDs: []string{"c-foo"},
				Calls: []string{"bar"}},
		},
		Chunks: []model.ChunkVector{
			{ChunkID: "c-bar", Vector: []float32{1, 0}, Text: "func bar"},
			{ChunkID: "c-foo", Vector: []float32{0, 1}, Text: "func foo"},
		},
		Files: []model.SourceFile{
			{FilePath: "pkg/bar.go", Language: "go", Chunks: []model.SourceChunk{
				{ChunkID: "c-bar", ByteRange: [2]int{0, 80}, SymbolIDs: []string{"sym-bar"}}}},
			{FilePath: "pkg/foo.go", Language: "go", Chunks: []model.SourceChunk{
				{ChunkID: "c-foo", ByteRange: [2]int{0, 120}, SymbolIDs: []string{"sym-foo"}}}},
		},
	}
}

func testConfig() Config {
	return Config{
		Workers:           2,
		IncludeEmbeddings: true,
		IncludeContexts:   true,
		CreatedAt:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRunOrthogonalVectorsSplitIntoTwoClusters(t *testing.T) {
	res, err := Run(context.Background(), testJob(), testConfig())
	require.NoError(t, err)

	// Cosine similarity of [1,0] and [0,1] is 0, below threshold.
	for _, e := range res.Pack.Graph.Edges {
		assert.NotEqual(t, "similarity", e.Kind)
	}
	require.Len(t, res.Pack.Clusters.Clusters, 2)
	for _, c := range res.Pack.Clusters.Clusters {
		assert.Equal(t, 1, c.MemberCount)
	}
}

func TestRunCallEdgeAndCentrality(t *testing.T) {
	res, err := Run(context.Background(), testJob(), testConfig())
	require.NoError(t, err)

	var callEdges []docpack.GraphEdge
	for _, e := range res.Pack.Graph.Edges {
		if e.Kind == "calls" {
			callEdges = append(callEdges, e)
		}
	}
	require.Len(t, callEdges, 1)
	assert.Equal(t, "sym-foo", callEdges[0].From)
	assert.Equal(t, "sym-bar", callEdges[0].To)

	nodes := res.Pack.Nodes.Symbols
	require.Len(t, nodes, 2)
	assert.Equal(t, "sym-bar", nodes[0].ID, "nodes sorted by id")
	assert.Equal(t, []string{"sym-foo"}, nodes[0].CalledBy)
	assert.Equal(t, []string{"sym-bar"}, nodes[1].Calls)
}

func TestRunAmbiguousCallProducesNoEdgeAndNoError(t *testing.T) {
	job := testJob()
	job.Symbols = []model.Symbol{
		{SymbolID: "s1", Name: "caller", ChunkIDs: []string{"c1"}, Calls: []string{"dup"}},
		{SymbolID: "s2", Name: "dup", ChunkIDs: []string{"c2"}},
		{SymbolID: "s3", Name: "dup", ChunkIDs: []string{"c3"}},
	}
	job.Chunks = []model.ChunkVector{
		{ChunkID: "c1", Vector: []float32{1, 0}},
		{ChunkID: "c2", Vector: []float32{0, 1}},
		{ChunkID: "c3", Vector: []float32{0.5, 0.5}},
	}
	job.Files = nil

	res, err := Run(context.Background(), job, testConfig())
	require.NoError(t, err)
	for _, e := range res.Pack.Graph.Edges {
		assert.NotEqual(t, "calls", e.Kind)
	}
	assert.Equal(t, 1, res.Stats.AmbiguousCalls)
}

func TestRunContextCapsAndOrdering(t *testing.T) {
	// hub is called by 15 symbols; its called_by list must cap at 10.
	job := &model.Job{
		JobID:   "job-caps",
		Symbols: []model.Symbol{{SymbolID: "sym-hub", Name: "hub", ChunkIDs: []string{"c-hub"}}},
		Chunks:  []model.ChunkVector{{ChunkID: "c-hub", Vector: []float32{1, 1}}},
	}
	for i := 0; i < 15; i++ {
		id := fmt.Sprintf("sym-%02d", i)
		cid := fmt.Sprintf("c-%02d", i)
		job.Symbols = append(job.Symbols, model.Symbol{
			SymbolID: id, Name: fmt.Sprintf("fn%02d", i), ChunkIDs: []string{cid},
			Calls: []string{"hub"},
		})
		job.Chunks = append(job.Chunks, model.ChunkVector{
			ChunkID: cid, Vector: []float32{float32(i), 1},
		})
	}

	res, err := Run(context.Background(), job, testConfig())
	require.NoError(t, err)
	require.NotNil(t, res.Pack.Contexts)

	var hub *docpack.SymbolContext
	for i := range res.Pack.Contexts.Contexts {
		if res.Pack.Contexts.Contexts[i].SymbolID == "sym-hub" {
			hub = &res.Pack.Contexts.Contexts[i]
		}
	}
	require.NotNil(t, hub)
	assert.Len(t, hub.CalledBy, 10)
	// All callers share one centrality, so order falls back to symbol id.
	assert.Equal(t, "fn00", hub.CalledBy[0])
	assert.Equal(t, 1.0, hub.Centrality)
	assert.NotEmpty(t, hub.ClusterLabel)
}

func TestRunContextImportsLongestFirst(t *testing.T) {
	job := testJob()
	job.Symbols[1].Imports = []string{"io", "net/http", "encoding/json", "os"}

	res, err := Run(context.Background(), job, testConfig())
	require.NoError(t, err)
	require.NotNil(t, res.Pack.Contexts)

	var foo *docpack.SymbolContext
	for i := range res.Pack.Contexts.Contexts {
		if res.Pack.Contexts.Contexts[i].SymbolID == "sym-foo" {
			foo = &res.Pack.Contexts.Contexts[i]
		}
	}
	require.NotNil(t, foo)
	assert.Equal(t, []string{"encoding/json", "net/http", "io", "os"}, foo.Imports)
}

func TestRunDeterministicOutput(t *testing.T) {
	cfg := testConfig()

	var bufA, bufB bytes.Buffer
	resA, err := Run(context.Background(), testJob(), cfg)
	require.NoError(t, err)
	mA, err := docpack.WriteTo(&bufA, resA.Pack)
	require.NoError(t, err)

	resB, err := Run(context.Background(), testJob(), cfg)
	require.NoError(t, err)
	mB, err := docpack.WriteTo(&bufB, resB.Pack)
	require.NoError(t, err)

	assert.Equal(t, mA.DocpackID, mB.DocpackID)
	assert.True(t, bytes.Equal(bufA.Bytes(), bufB.Bytes()), "repeated runs must be byte-identical")
}

func TestRunWorkerCountDoesNotChangeOutput(t *testing.T) {
	cfgA := testConfig()
	cfgA.Workers = 1
	cfgB := testConfig()
	cfgB.Workers = 8

	var bufA, bufB bytes.Buffer
	resA, err := Run(context.Background(), testJob(), cfgA)
	require.NoError(t, err)
	_, err = docpack.WriteTo(&bufA, resA.Pack)
	require.NoError(t, err)

	resB, err := Run(context.Background(), testJob(), cfgB)
	require.NoError(t, err)
	_, err = docpack.WriteTo(&bufB, resB.Pack)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(bufA.Bytes(), bufB.Bytes()))
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, testJob(), testConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsInvalidJob(t *testing.T) {
	job := testJob()
	job.Chunks[1].Vector = []float32{1, 2, 3}
	_, err := Run(context.Background(), job, testConfig())
	var ie *model.InputError
	require.ErrorAs(t, err, &ie)
}

func TestRunSourceMapSorted(t *testing.T) {
	job := testJob()
	job.Files[0], job.Files[1] = job.Files[1], job.Files[0]

	res, err := Run(context.Background(), job, testConfig())
	require.NoError(t, err)
	files := res.Pack.SourceMap.Files
	require.Len(t, files, 2)
	assert.Equal(t, "pkg/bar.go", files[0].FilePath)
	assert.Equal(t, "pkg/foo.go", files[1].FilePath)
}

package docpack

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Pack is the assembled content of one docpack, ready to serialize.
// Embeddings and Contexts are optional sections; nil omits them.
type Pack struct {
	Graph      GraphFile
	Nodes      NodesFile
	Clusters   ClustersFile
	SourceMap  SourceMapFile
	Embeddings map[string][]float32
	Contexts   *ContextsFile

	Source     SourceInfo
	Generator  Generator
	Dimensions int
	CreatedAt  time.Time
}

// Write serializes the pack to path and returns the manifest it wrote.
func Write(path string, p *Pack) (*Manifest, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	m, werr := WriteTo(f, p)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(path)
		return nil, werr
	}
	return m, nil
}

// WriteTo serializes the pack as a gzipped tar archive. Entries are
// written in a fixed order with zeroed metadata, and every payload is
// canonical JSON, so the same pack always produces the same bytes.
func WriteTo(w io.Writer, p *Pack) (*Manifest, error) {
	type entry struct {
		name string
		data []byte
	}
	var entries []entry
	add := func(name string, v any) error {
		data, err := MarshalCanonical(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		entries = append(entries, entry{name, data})
		return nil
	}
	if err := add(FileGraph, p.Graph); err != nil {
		return nil, err
	}
	if err := add(FileNodes, p.Nodes); err != nil {
		return nil, err
	}
	if err := add(FileClusters, p.Clusters); err != nil {
		return nil, err
	}
	if err := add(FileSourceMap, p.SourceMap); err != nil {
		return nil, err
	}
	if p.Embeddings != nil {
		entries = append(entries, entry{FileEmbeddings, EncodeEmbeddings(p.Embeddings)})
	}
	if p.Contexts != nil {
		if err := add(FileContexts, *p.Contexts); err != nil {
			return nil, err
		}
	}

	// The digest covers every entry except the manifest, in archive order.
	h := sha256.New()
	for _, e := range entries {
		h.Write(e.data)
	}
	digest := hex.EncodeToString(h.Sum(nil))

	manifest := &Manifest{
		SchemaVersion: SchemaVersion,
		DocpackID:     "sha256:" + digest,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		Generator:     p.Generator,
		Source:        p.Source,
		Statistics: Statistics{
			FileCount:           len(p.SourceMap.Files),
			SymbolCount:         len(p.Nodes.Symbols),
			ClusterCount:        len(p.Clusters.Clusters),
			EmbeddingDimensions: p.Dimensions,
		},
		Checksum: Checksum{Algorithm: "sha256", Value: digest},
		Optional: Optional{
			HasEmbeddings:     p.Embeddings != nil,
			HasSymbolContexts: p.Contexts != nil,
		},
	}
	manifestData, err := MarshalCanonical(manifest)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", FileManifest, err)
	}
	entries = append([]entry{{FileManifest, manifestData}}, entries...)

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:    e.name,
			Mode:    0644,
			Size:    int64(len(e.data)),
			ModTime: time.Unix(0, 0),
			Format:  tar.FormatUSTAR,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("write %s header: %w", e.name, err)
		}
		if _, err := tw.Write(e.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("close gzip: %w", err)
	}
	return manifest, nil
}

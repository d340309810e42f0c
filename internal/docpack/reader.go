package docpack

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Reader is a validated, opened docpack. Required sections are parsed
// eagerly; embeddings and symbol contexts are decoded on first access.
type Reader struct {
	manifest  Manifest
	graph     GraphFile
	nodes     NodesFile
	clusters  ClustersFile
	sourceMap SourceMapFile

	embeddingsRaw []byte
	contextsRaw   []byte
	embeddings    *EmbeddingSet
	contexts      *ContextsFile
}

// Open reads and validates a docpack file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read validates a docpack stream. Validation order is fixed: archive
// integrity, then schema version, then checksum, then payload parsing.
// A pack with an unsupported schema is rejected before its checksum is
// looked at, since the checksum rules themselves are versioned.
func Read(r io.Reader) (*Reader, error) {
	files, err := extract(r)
	if err != nil {
		return nil, err
	}

	manifestData, ok := files[FileManifest]
	if !ok {
		return nil, newErr(KindMalformedArchive, "archive has no %s", FileManifest)
	}
	rd := &Reader{}
	if err := json.Unmarshal(manifestData, &rd.manifest); err != nil {
		return nil, wrapErr(KindMalformedArchive, err, "invalid %s", FileManifest)
	}

	if !SchemaSupported(rd.manifest.SchemaVersion) {
		return nil, newErr(KindIncompatibleSchema,
			"schema %q is not supported (supported: %s)", rd.manifest.SchemaVersion, SchemaVersion)
	}

	for _, name := range requiredFiles {
		if _, ok := files[name]; !ok {
			return nil, newErr(KindMissingArtifact, "archive has no %s", name)
		}
	}
	if rd.manifest.Optional.HasEmbeddings {
		if _, ok := files[FileEmbeddings]; !ok {
			return nil, newErr(KindMissingArtifact, "manifest declares embeddings but archive has no %s", FileEmbeddings)
		}
	}
	if rd.manifest.Optional.HasSymbolContexts {
		if _, ok := files[FileContexts]; !ok {
			return nil, newErr(KindMissingArtifact, "manifest declares symbol contexts but archive has no %s", FileContexts)
		}
	}

	h := sha256.New()
	for _, name := range checksumOrder() {
		if data, ok := files[name]; ok {
			h.Write(data)
		}
	}
	digest := hex.EncodeToString(h.Sum(nil))
	if rd.manifest.Checksum.Algorithm != "sha256" {
		return nil, newErr(KindIncompatibleSchema,
			"unsupported checksum algorithm %q", rd.manifest.Checksum.Algorithm)
	}
	if digest != rd.manifest.Checksum.Value {
		return nil, newErr(KindChecksumMismatch,
			"computed sha256:%s, manifest declares sha256:%s", digest, rd.manifest.Checksum.Value)
	}

	parse := func(name string, v any) error {
		if err := json.Unmarshal(files[name], v); err != nil {
			return wrapErr(KindMalformedArchive, err, "invalid %s", name)
		}
		return nil
	}
	if err := parse(FileGraph, &rd.graph); err != nil {
		return nil, err
	}
	if err := parse(FileNodes, &rd.nodes); err != nil {
		return nil, err
	}
	if err := parse(FileClusters, &rd.clusters); err != nil {
		return nil, err
	}
	if err := parse(FileSourceMap, &rd.sourceMap); err != nil {
		return nil, err
	}
	rd.embeddingsRaw = files[FileEmbeddings]
	rd.contextsRaw = files[FileContexts]
	return rd, nil
}

// checksumOrder is the digest input order: every entry but the manifest.
func checksumOrder() []string {
	return []string{FileGraph, FileNodes, FileClusters, FileSourceMap, FileEmbeddings, FileContexts}
}

// extract reads every archive entry into memory.
func extract(r io.Reader) (map[string][]byte, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, wrapErr(KindMalformedArchive, err, "not a gzip stream")
	}
	defer gz.Close()

	files := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapErr(KindMalformedArchive, err, "corrupt tar stream")
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, wrapErr(KindMalformedArchive, err, "truncated entry %s", hdr.Name)
		}
		files[hdr.Name] = data
	}
	return files, nil
}

// Manifest returns the parsed manifest.
func (r *Reader) Manifest() Manifest { return r.manifest }

// Graph returns the parsed graph.json payload.
func (r *Reader) Graph() GraphFile { return r.graph }

// Nodes returns the parsed nodes.json payload.
func (r *Reader) Nodes() NodesFile { return r.nodes }

// Clusters returns the parsed clusters.json payload.
func (r *Reader) Clusters() ClustersFile { return r.clusters }

// SourceMap returns the parsed source_map.json payload.
func (r *Reader) SourceMap() SourceMapFile { return r.sourceMap }

// Node looks up one symbol by id.
func (r *Reader) Node(id string) (Node, bool) {
	for _, n := range r.nodes.Symbols {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Embeddings decodes the optional embeddings section. The second return is
// false when the pack carries none.
func (r *Reader) Embeddings() (*EmbeddingSet, bool, error) {
	if r.embeddingsRaw == nil {
		return nil, false, nil
	}
	if r.embeddings == nil {
		set, err := DecodeEmbeddings(r.embeddingsRaw)
		if err != nil {
			return nil, true, err
		}
		r.embeddings = set
	}
	return r.embeddings, true, nil
}

// Contexts parses the optional symbol contexts section. The second return
// is false when the pack carries none.
func (r *Reader) Contexts() (*ContextsFile, bool, error) {
	if r.contextsRaw == nil {
		return nil, false, nil
	}
	if r.contexts == nil {
		var cf ContextsFile
		dec := json.NewDecoder(bytes.NewReader(r.contextsRaw))
		if err := dec.Decode(&cf); err != nil {
			return nil, true, wrapErr(KindMalformedArchive, err, "invalid %s", FileContexts)
		}
		r.contexts = &cf
	}
	return r.contexts, true, nil
}

package docpack

import (
	"encoding/binary"
	"math"
	"sort"
)

// embeddings.bin layout, all integers little-endian u32:
//
//	magic "DPKEMBD1" (8 bytes)
//	format_version, num_vectors, dimensions, index_offset
//	num_vectors * dimensions float32, in chunk id order
//	index: count, then per entry id_len, id bytes, vector byte offset
//
// Offsets are absolute within the blob. The declared sizes are verified
// against the actual blob on decode.
const (
	embeddingsMagic         = "DPKEMBD1"
	embeddingsFormatVersion = 1
	embeddingsHeaderSize    = 8 + 4*4
)

// EmbeddingSet is the decoded embeddings section.
type EmbeddingSet struct {
	Dimensions int
	Vectors    map[string][]float32 // chunk id -> vector
}

// EncodeEmbeddings serializes chunk vectors into the binary section.
// Vectors are laid out in sorted chunk id order so encoding is
// deterministic. All vectors must share one dimension; the caller
// validates that upstream.
func EncodeEmbeddings(vectors map[string][]float32) []byte {
	ids := make([]string, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	dims := 0
	if len(ids) > 0 {
		dims = len(vectors[ids[0]])
	}
	vecBytes := len(ids) * dims * 4
	indexOffset := embeddingsHeaderSize + vecBytes

	indexSize := 4
	for _, id := range ids {
		indexSize += 4 + len(id) + 4
	}

	buf := make([]byte, indexOffset+indexSize)
	copy(buf, embeddingsMagic)
	le := binary.LittleEndian
	le.PutUint32(buf[8:], embeddingsFormatVersion)
	le.PutUint32(buf[12:], uint32(len(ids)))
	le.PutUint32(buf[16:], uint32(dims))
	le.PutUint32(buf[20:], uint32(indexOffset))

	off := embeddingsHeaderSize
	offsets := make([]int, len(ids))
	for i, id := range ids {
		offsets[i] = off
		for _, f := range vectors[id] {
			le.PutUint32(buf[off:], math.Float32bits(f))
			off += 4
		}
	}

	le.PutUint32(buf[off:], uint32(len(ids)))
	off += 4
	for i, id := range ids {
		le.PutUint32(buf[off:], uint32(len(id)))
		off += 4
		copy(buf[off:], id)
		off += len(id)
		le.PutUint32(buf[off:], uint32(offsets[i]))
		off += 4
	}
	return buf
}

// DecodeEmbeddings parses and validates the binary section. Any
// disagreement between the declared layout and the actual blob is
// EMBEDDINGS_CORRUPT.
func DecodeEmbeddings(blob []byte) (*EmbeddingSet, error) {
	if len(blob) < embeddingsHeaderSize {
		return nil, newErr(KindEmbeddingsCorrupt, "blob shorter than header: %d bytes", len(blob))
	}
	if string(blob[:8]) != embeddingsMagic {
		return nil, newErr(KindEmbeddingsCorrupt, "bad magic %q", blob[:8])
	}
	le := binary.LittleEndian
	if v := le.Uint32(blob[8:]); v != embeddingsFormatVersion {
		return nil, newErr(KindEmbeddingsCorrupt, "unsupported embeddings format version %d", v)
	}
	num := int(le.Uint32(blob[12:]))
	dims := int(le.Uint32(blob[16:]))
	indexOffset := int(le.Uint32(blob[20:]))

	vecBytes := num * dims * 4
	if indexOffset != embeddingsHeaderSize+vecBytes || indexOffset > len(blob) {
		return nil, newErr(KindEmbeddingsCorrupt,
			"declared %d vectors of %d dims do not fit blob of %d bytes", num, dims, len(blob))
	}

	set := &EmbeddingSet{Dimensions: dims, Vectors: make(map[string][]float32, num)}
	off := indexOffset
	if off+4 > len(blob) {
		return nil, newErr(KindEmbeddingsCorrupt, "truncated index")
	}
	count := int(le.Uint32(blob[off:]))
	off += 4
	if count != num {
		return nil, newErr(KindEmbeddingsCorrupt, "index has %d entries, header declares %d", count, num)
	}
	for i := 0; i < count; i++ {
		if off+4 > len(blob) {
			return nil, newErr(KindEmbeddingsCorrupt, "truncated index entry %d", i)
		}
		idLen := int(le.Uint32(blob[off:]))
		off += 4
		if off+idLen+4 > len(blob) {
			return nil, newErr(KindEmbeddingsCorrupt, "truncated index entry %d", i)
		}
		id := string(blob[off : off+idLen])
		off += idLen
		vecOff := int(le.Uint32(blob[off:]))
		off += 4
		if vecOff < embeddingsHeaderSize || vecOff+dims*4 > indexOffset {
			return nil, newErr(KindEmbeddingsCorrupt, "vector offset %d out of range for %q", vecOff, id)
		}
		vec := make([]float32, dims)
		for d := range vec {
			vec[d] = math.Float32frombits(le.Uint32(blob[vecOff+d*4:]))
		}
		set.Vectors[id] = vec
	}
	return set, nil
}

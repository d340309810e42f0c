package docpack

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingsRoundTrip(t *testing.T) {
	in := map[string][]float32{
		"chunk-b": {0.5, -1.25, 3},
		"chunk-a": {1, 2, 3},
	}
	blob := EncodeEmbeddings(in)

	set, err := DecodeEmbeddings(blob)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Dimensions)
	assert.Equal(t, in, set.Vectors)
}

func TestEncodeEmbeddingsDeterministic(t *testing.T) {
	in := map[string][]float32{"a": {1}, "b": {2}, "c": {3}}
	assert.Equal(t, EncodeEmbeddings(in), EncodeEmbeddings(in))
}

func TestDecodeEmbeddingsTruncatedBlob(t *testing.T) {
	blob := EncodeEmbeddings(map[string][]float32{"a": {1, 2}, "b": {3, 4}})

	// Declared num_vectors x dimensions no longer fits the blob.
	_, err := DecodeEmbeddings(blob[:len(blob)-8])
	require.Error(t, err)
	assert.Equal(t, KindEmbeddingsCorrupt, KindOf(err))
}

func TestDecodeEmbeddingsSizeMismatch(t *testing.T) {
	blob := EncodeEmbeddings(map[string][]float32{"a": {1, 2}})

	// Inflate the declared vector count past what the blob holds.
	tampered := append([]byte(nil), blob...)
	binary.LittleEndian.PutUint32(tampered[12:], 99)

	_, err := DecodeEmbeddings(tampered)
	require.Error(t, err)
	assert.Equal(t, KindEmbeddingsCorrupt, KindOf(err))
}

func TestDecodeEmbeddingsBadMagic(t *testing.T) {
	blob := EncodeEmbeddings(map[string][]float32{"a": {1}})
	blob[0] = 'X'

	_, err := DecodeEmbeddings(blob)
	require.Error(t, err)
	assert.Equal(t, KindEmbeddingsCorrupt, KindOf(err))
}

func TestDecodeEmbeddingsShortHeader(t *testing.T) {
	_, err := DecodeEmbeddings([]byte{1, 2, 3})
	require.Error(t, err)
	assert.Equal(t, KindEmbeddingsCorrupt, KindOf(err))
}

func TestEncodeEmbeddingsEmpty(t *testing.T) {
	set, err := DecodeEmbeddings(EncodeEmbeddings(map[string][]float32{}))
	require.NoError(t, err)
	assert.Empty(t, set.Vectors)
}

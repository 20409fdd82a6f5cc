// Package codec holds the byte-level encoding shared by the index stores:
// vector blobs, metadata JSON and the chained entry checksum.
package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// EncodeVector converts a []float32 to little-endian bytes.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector converts little-endian bytes back to []float32.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}

// EncodeMetadata marshals metadata, encoding nil as an empty object.
func EncodeMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// DecodeMetadata unmarshals metadata. Whole numbers decode as int so values
// written by the chunker read back with the same type.
func DecodeMetadata(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	for k, v := range m {
		m[k] = convertNumbers(v)
	}
	return m, nil
}

func convertNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, inner := range t {
			t[k] = convertNumbers(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = convertNumbers(inner)
		}
		return t
	default:
		return v
	}
}

// Chain extends the checksum prev with one entry. The entry is hashed from
// its stored representation: vector bytes and metadata JSON.
func Chain(prev string, e domain.IndexEntry, vector, metadata []byte) string {
	h := sha256.New()
	h.Write([]byte(prev))
	writeField(h, []byte(e.ChunkID))
	writeField(h, []byte(e.DocumentID))
	var pos [8]byte
	binary.LittleEndian.PutUint64(pos[:], uint64(int64(e.Position)))
	h.Write(pos[:])
	writeField(h, []byte(e.Content))
	writeField(h, vector)
	writeField(h, metadata)
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h interface{ Write([]byte) (int, error) }, b []byte) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
	_, _ = h.Write(n[:])
	_, _ = h.Write(b)
}

// Checksum computes the chained checksum of entries from scratch.
func Checksum(entries []domain.IndexEntry) (string, error) {
	sum := ""
	for _, e := range entries {
		meta, err := EncodeMetadata(e.Metadata)
		if err != nil {
			return "", fmt.Errorf("encoding metadata of %s: %w", e.ChunkID, err)
		}
		sum = Chain(sum, e, EncodeVector(e.Vector), meta)
	}
	return sum, nil
}

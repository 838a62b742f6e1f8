// Package vectorstore provides an embedding-backed similarity index over
// short fact documents, with incremental build, file persistence, and
// metadata-filtered nearest-neighbor search.
package vectorstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Index file layout (little endian): magic, version, dimension (u32),
// vector count (u64), count*dim float32 values, xxhash64 of everything
// preceding the checksum.
const (
	indexMagic   uint32 = 0x52494458 // "RIDX"
	indexVersion uint32 = 1
)

const indexHeaderSize = 4 + 4 + 4 + 8

// FlatIndex is an exact (brute-force) inner-product index. The corpus is
// assumed to fit comfortably in memory; correctness and determinism are
// preferred over scale.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// Hit is one search result: the 0-based insertion row and its inner
// product with the query.
type Hit struct {
	Row   int
	Score float64
}

// NewFlatIndex creates an empty index. The dimension is fixed by the
// first batch added.
func NewFlatIndex() *FlatIndex {
	return &FlatIndex{}
}

// Len returns the number of stored vectors.
func (ix *FlatIndex) Len() int {
	return len(ix.vectors)
}

// Dimensions returns the index dimension, or 0 if nothing was added yet.
func (ix *FlatIndex) Dimensions() int {
	return ix.dim
}

// Add appends vectors in order. Every vector must match the index's
// dimension; a mismatch fails without adding anything.
func (ix *FlatIndex) Add(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	dim := ix.dim
	if dim == 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return fmt.Errorf("%w: zero-length vector", ErrDimensionMismatch)
		}
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, index has %d",
				ErrDimensionMismatch, i, len(v), dim)
		}
	}
	ix.dim = dim
	ix.vectors = append(ix.vectors, vectors...)
	return nil
}

// Search returns up to k rows ranked by descending inner product with
// the query, ties broken by ascending row. If the index holds fewer than
// k vectors, all of them are returned.
func (ix *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 || len(ix.vectors) == 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			ErrDimensionMismatch, len(query), ix.dim)
	}

	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = Hit{Row: i, Score: dot(v, query)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Row < hits[j].Row
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// dot accumulates in float64 for stable, deterministic scores.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// WriteFile persists the index. The file is written to a temporary path
// and renamed into place, so a crash mid-write leaves any prior file
// intact.
func (ix *FlatIndex) WriteFile(path string) error {
	var buf bytes.Buffer
	header := make([]byte, indexHeaderSize)
	binary.LittleEndian.PutUint32(header[0:], indexMagic)
	binary.LittleEndian.PutUint32(header[4:], indexVersion)
	binary.LittleEndian.PutUint32(header[8:], uint32(ix.dim))
	binary.LittleEndian.PutUint64(header[12:], uint64(len(ix.vectors)))
	buf.Write(header)

	scratch := make([]byte, 4)
	for _, v := range ix.vectors {
		for _, x := range v {
			binary.LittleEndian.PutUint32(scratch, math.Float32bits(x))
			buf.Write(scratch)
		}
	}

	sum := make([]byte, 8)
	binary.LittleEndian.PutUint64(sum, xxhash.Sum64(buf.Bytes()))
	buf.Write(sum)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename index file: %w", err)
	}
	return nil
}

// ReadFlatIndex loads an index previously written with WriteFile. The
// magic number, version, sizes and checksum are all verified; any
// disagreement is a corruption error, never a silent truncation.
func ReadFlatIndex(path string) (*FlatIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	if len(data) < indexHeaderSize+8 {
		return nil, fmt.Errorf("%w: index file truncated", ErrCorrupt)
	}
	if binary.LittleEndian.Uint32(data[0:]) != indexMagic {
		return nil, fmt.Errorf("%w: bad index magic", ErrCorrupt)
	}
	if binary.LittleEndian.Uint32(data[4:]) != indexVersion {
		return nil, fmt.Errorf("%w: unsupported index version", ErrCorrupt)
	}
	dim := int(binary.LittleEndian.Uint32(data[8:]))
	count := int(binary.LittleEndian.Uint64(data[12:]))

	payload := data[:len(data)-8]
	stored := binary.LittleEndian.Uint64(data[len(data)-8:])
	if xxhash.Sum64(payload) != stored {
		return nil, fmt.Errorf("%w: index checksum mismatch", ErrCorrupt)
	}

	if len(payload)-indexHeaderSize != count*dim*4 {
		return nil, fmt.Errorf("%w: index size does not match header", ErrCorrupt)
	}

	ix := &FlatIndex{dim: dim, vectors: make([][]float32, count)}
	off := indexHeaderSize
	for i := 0; i < count; i++ {
		v := make([]float32, dim)
		for j := 0; j < dim; j++ {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off:]))
			off += 4
		}
		ix.vectors[i] = v
	}
	return ix, nil
}

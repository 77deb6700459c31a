package retrieval

import (
	"fmt"
	"math"

	"github.com/parquet-go/parquet-go"
)

// embeddingRow is one row of the pre-built description-embedding index.
// Construction of the index (running a sentence encoder over every
// catalogue description) happens offline, out of this system's scope;
// this package only reads the resulting parquet file.
type embeddingRow struct {
	LKN    string    `parquet:"lkn"`
	Vector []float32 `parquet:"vector"`
}

// EmbeddingIndex is an in-memory copy of the description-embedding
// parquet file, keyed by LKN.
type EmbeddingIndex struct {
	vectors map[string][]float32
	dim     int
}

// LoadEmbeddingIndex reads every row of a parquet file produced offline
// (columns "lkn", "vector") into memory.
func LoadEmbeddingIndex(path string) (*EmbeddingIndex, error) {
	rows, err := parquet.ReadFile[embeddingRow](path)
	if err != nil {
		return nil, fmt.Errorf("read embedding index %s: %w", path, err)
	}
	idx := &EmbeddingIndex{vectors: make(map[string][]float32, len(rows))}
	for _, r := range rows {
		idx.vectors[r.LKN] = r.Vector
		if idx.dim == 0 {
			idx.dim = len(r.Vector)
		}
	}
	return idx, nil
}

// SimilarityAll returns the cosine similarity of query against every
// indexed LKN whose vector has matching dimensionality.
func (idx *EmbeddingIndex) SimilarityAll(query []float32) map[string]float64 {
	out := make(map[string]float64, len(idx.vectors))
	qNorm := norm(query)
	if qNorm == 0 {
		return out
	}
	for lkn, v := range idx.vectors {
		if len(v) != len(query) {
			continue
		}
		out[lkn] = cosine(query, v, qNorm)
	}
	return out
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, aNorm float64) float64 {
	bNorm := norm(b)
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}

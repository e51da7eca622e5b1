package vectordb

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/pedroananias/rag-3w-cot/internal/models"
)

// Okapi BM25 parameters.
const (
	bm25K1      = 1.5
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

// BM25Index is an in-memory Okapi BM25 ranking over documents.
type BM25Index struct {
	docs   []models.Document
	tf     []map[string]int
	lens   []int
	avgLen float64
	idf    map[string]float64
}

// NewBM25Index builds an index over docs.
func NewBM25Index(docs []models.Document) *BM25Index {
	idx := &BM25Index{
		docs: docs,
		tf:   make([]map[string]int, len(docs)),
		lens: make([]int, len(docs)),
		idf:  map[string]float64{},
	}

	df := map[string]int{}
	var total int
	for i, d := range docs {
		toks := bm25Tokenize(d.PageContent)
		counts := make(map[string]int, len(toks))
		for _, t := range toks {
			counts[t]++
		}
		for t := range counts {
			df[t]++
		}
		idx.tf[i] = counts
		idx.lens[i] = len(toks)
		total += len(toks)
	}
	if len(docs) > 0 {
		idx.avgLen = float64(total) / float64(len(docs))
	}

	// Terms in half the corpus or more get a non-positive idf; floor them
	// at a fraction of the mean idf so they still count.
	n := float64(len(docs))
	var sum float64
	var negative []string
	for t, f := range df {
		v := math.Log((n - float64(f) + 0.5) / (float64(f) + 0.5))
		idx.idf[t] = v
		sum += v
		if v <= 0 {
			negative = append(negative, t)
		}
	}
	if len(df) > 0 {
		floor := bm25Epsilon * sum / float64(len(df))
		if floor <= 0 {
			floor = bm25Epsilon
		}
		for _, t := range negative {
			idx.idf[t] = floor
		}
	}
	return idx
}

func bm25Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Len returns the number of indexed documents.
func (idx *BM25Index) Len() int { return len(idx.docs) }

func (idx *BM25Index) score(i int, query []string) float64 {
	var s float64
	norm := bm25K1 * (1 - bm25B + bm25B*float64(idx.lens[i])/math.Max(idx.avgLen, 1))
	for _, q := range query {
		f := float64(idx.tf[i][q])
		if f == 0 {
			continue
		}
		s += idx.idf[q] * f * (bm25K1 + 1) / (f + norm)
	}
	return s
}

// TopK returns up to k documents matching where, best first. Documents
// with no query term in common are never returned.
func (idx *BM25Index) TopK(query string, k int, where map[string]string) []models.Document {
	q := bm25Tokenize(query)
	type hit struct {
		i     int
		score float64
	}
	var hits []hit
	for i := range idx.docs {
		s := idx.score(i, q)
		if s <= 0 {
			continue
		}
		if len(where) > 0 && len(FilterDocuments(idx.docs[i:i+1], where)) == 0 {
			continue
		}
		hits = append(hits, hit{i, s})
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]models.Document, len(hits))
	for j, h := range hits {
		out[j] = idx.docs[h.i]
	}
	return out
}

// Save writes the indexed documents to path. Statistics are rebuilt on load.
func (idx *BM25Index) Save(path string) error {
	data, err := json.Marshal(idx.docs)
	if err != nil {
		return fmt.Errorf("marshal bm25 documents: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bm25 index: %w", err)
	}
	return nil
}

// LoadBM25Index reads an index written by Save.
func LoadBM25Index(path string) (*BM25Index, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read bm25 index: %w", err)
	}
	var docs []models.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode bm25 index: %w", err)
	}
	return NewBM25Index(docs), nil
}

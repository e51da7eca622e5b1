package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pedroananias/rag-3w-cot/internal/embeddings"
	"github.com/pedroananias/rag-3w-cot/internal/models"
)

const (
	bm25File = "bm25.json"

	// rrfC dampens the contribution of top ranks in reciprocal rank fusion.
	rrfC = 60
)

// DefaultHybridWeights weigh the dense and lexical rankings.
var DefaultHybridWeights = [2]float64{0.75, 0.25}

// HybridStore fuses the dense ranking with a BM25 ranking using weighted
// reciprocal rank fusion.
type HybridStore struct {
	dense   *ChromemStore
	weights [2]float64

	mu   sync.RWMutex
	bm25 *BM25Index
}

// NewHybridStore creates an empty hybrid backend.
func NewHybridStore(embedder embeddings.Embedder) *HybridStore {
	return &HybridStore{
		dense:   NewChromemStore(embedder),
		weights: DefaultHybridWeights,
	}
}

func (h *HybridStore) Name() string { return "hybrid" }

// Exists implements Backend.
func (h *HybridStore) Exists(dir string) bool {
	if !h.dense.Exists(dir) {
		return false
	}
	_, err := os.Stat(filepath.Join(dir, bm25File))
	return err == nil
}

// Create implements Backend.
func (h *HybridStore) Create(ctx context.Context, docs []models.Document, dir string) error {
	if err := h.dense.Create(ctx, docs, dir); err != nil {
		return err
	}
	idx := NewBM25Index(docs)
	if err := idx.Save(filepath.Join(dir, bm25File)); err != nil {
		return err
	}
	h.mu.Lock()
	h.bm25 = idx
	h.mu.Unlock()
	return nil
}

// Load implements Backend.
func (h *HybridStore) Load(ctx context.Context, dir string) error {
	idx, err := LoadBM25Index(filepath.Join(dir, bm25File))
	if err != nil {
		return err
	}
	if err := h.dense.Load(ctx, dir); err != nil {
		return err
	}
	h.mu.Lock()
	h.bm25 = idx
	h.mu.Unlock()
	return nil
}

func (h *HybridStore) lexical(query string, k int, where map[string]string) ([]models.Document, error) {
	h.mu.RLock()
	idx := h.bm25
	h.mu.RUnlock()
	if idx == nil {
		return nil, ErrIndexNotFound
	}
	return idx.TopK(query, k, where), nil
}

// SimilaritySearch implements Backend.
func (h *HybridStore) SimilaritySearch(ctx context.Context, query string, k int, threshold float64, where map[string]string) ([]models.Document, error) {
	dense, err := h.dense.SimilaritySearch(ctx, query, k, threshold, where)
	if err != nil {
		return nil, err
	}
	lex, err := h.lexical(query, k, where)
	if err != nil {
		return nil, err
	}
	return fuseRankings([][]models.Document{dense, lex}, h.weights[:]), nil
}

// MMRSearch implements Backend.
func (h *HybridStore) MMRSearch(ctx context.Context, query string, k int, lambda float64, where map[string]string) ([]models.Document, error) {
	dense, err := h.dense.MMRSearch(ctx, query, k, lambda, where)
	if err != nil {
		return nil, err
	}
	lex, err := h.lexical(query, k, where)
	if err != nil {
		return nil, err
	}
	return fuseRankings([][]models.Document{dense, lex}, h.weights[:]), nil
}

// fuseRankings merges ranked lists by weighted reciprocal rank: each
// document scores the sum over lists of weight/(rank+c). Documents are
// identified by id.
func fuseRankings(lists [][]models.Document, weights []float64) []models.Document {
	if len(lists) != len(weights) {
		panic(fmt.Sprintf("fuseRankings: %d lists but %d weights", len(lists), len(weights)))
	}
	scores := map[string]float64{}
	var order []models.Document
	for li, list := range lists {
		for rank, d := range list {
			if _, seen := scores[d.ID]; !seen {
				order = append(order, d)
			}
			scores[d.ID] += weights[li] / float64(rank+1+rrfC)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i].ID] > scores[order[j].ID]
	})
	return order
}

package vectordb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/pedroananias/rag-3w-cot/internal/embeddings"
	"github.com/pedroananias/rag-3w-cot/internal/models"
)

const (
	collectionName = "documents"
	chromemFile    = "chromem.gob.gz"
)

// ChromemStore is the dense backend: cosine nearest neighbours over
// embeddings held by chromem-go.
type ChromemStore struct {
	embedder  embeddings.Embedder
	embedFunc chromem.EmbeddingFunc

	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemStore creates an empty dense backend.
func NewChromemStore(embedder embeddings.Embedder) *ChromemStore {
	return &ChromemStore{
		embedder:  embedder,
		embedFunc: embeddings.ToChromemFunc(embedder),
	}
}

func (s *ChromemStore) Name() string { return "dense" }

func (s *ChromemStore) path(dir string) string {
	return filepath.Join(dir, chromemFile)
}

// Exists implements Backend.
func (s *ChromemStore) Exists(dir string) bool {
	_, err := os.Stat(s.path(dir))
	return err == nil
}

// Create implements Backend.
func (s *ChromemStore) Create(ctx context.Context, docs []models.Document, dir string) error {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, s.embedFunc)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	if len(docs) > 0 {
		chromDocs := make([]chromem.Document, len(docs))
		for i, doc := range docs {
			chromDocs[i] = chromem.Document{
				ID:       doc.ID,
				Content:  doc.PageContent,
				Metadata: doc.Metadata.ToMap(),
			}
		}
		if err := col.AddDocuments(ctx, chromDocs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("add documents: %w", err)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := os.Remove(s.path(dir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove previous index: %w", err)
	}
	if err := db.ExportToFile(s.path(dir), true, ""); err != nil {
		return fmt.Errorf("export index: %w", err)
	}

	s.mu.Lock()
	s.db, s.collection = db, col
	s.mu.Unlock()
	return nil
}

// Load implements Backend.
func (s *ChromemStore) Load(_ context.Context, dir string) error {
	if !s.Exists(dir) {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, s.path(dir))
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(s.path(dir), ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}
	// Re-acquire collection reference after import.
	col := db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}

	s.mu.Lock()
	s.db, s.collection = db, col
	s.mu.Unlock()
	return nil
}

// Count returns the number of indexed documents.
func (s *ChromemStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return 0
	}
	return s.collection.Count()
}

// query embeds text and returns up to n nearest results matching where.
func (s *ChromemStore) query(ctx context.Context, text string, n int, where map[string]string) ([]float32, []chromem.Result, error) {
	s.mu.RLock()
	col := s.collection
	s.mu.RUnlock()
	if col == nil {
		return nil, nil, ErrIndexNotFound
	}

	// chromem-go requires nResults <= collection size.
	count := col.Count()
	if count == 0 || n <= 0 {
		return nil, nil, nil
	}
	n = min(n, count)

	vec, err := embeddings.EmbedQuery(ctx, s.embedder, text)
	if err != nil {
		return nil, nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := col.QueryEmbedding(ctx, vec, n, where, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("chromem query: %w", err)
	}
	return vec, results, nil
}

// SimilaritySearch implements Backend.
func (s *ChromemStore) SimilaritySearch(ctx context.Context, query string, k int, threshold float64, where map[string]string) ([]models.Document, error) {
	_, results, err := s.query(ctx, query, k, where)
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0, len(results))
	for _, r := range results {
		if float64(r.Similarity) < threshold {
			continue
		}
		docs = append(docs, resultToDocument(r))
	}
	return docs, nil
}

// MMRSearch implements Backend.
func (s *ChromemStore) MMRSearch(ctx context.Context, query string, k int, lambda float64, where map[string]string) ([]models.Document, error) {
	vec, results, err := s.query(ctx, query, max(defaultFetchK, k), where)
	if err != nil {
		return nil, err
	}
	candidates := make([][]float32, len(results))
	for i, r := range results {
		candidates[i] = r.Embedding
	}
	picked := maximalMarginalRelevance(vec, candidates, k, lambda)
	docs := make([]models.Document, len(picked))
	for i, idx := range picked {
		docs[i] = resultToDocument(results[idx])
	}
	return docs, nil
}

func resultToDocument(r chromem.Result) models.Document {
	return models.Document{
		ID:          r.ID,
		PageContent: r.Content,
		Metadata:    models.MetadataFromMap(r.Metadata),
	}
}

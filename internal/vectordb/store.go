// Package vectordb indexes documents and retrieves them by question.
package vectordb

import (
	"context"
	"errors"

	"github.com/pedroananias/rag-3w-cot/internal/models"
)

var (
	// ErrIndexNotFound is returned when searching before an index was built.
	ErrIndexNotFound = errors.New("index not found; run process first")

	// ErrUnknownSearchMode is returned for a search mode other than
	// similarity or mmr.
	ErrUnknownSearchMode = errors.New("unknown search mode")

	// ErrUnknownBackend is returned when no backend is registered under a name.
	ErrUnknownBackend = errors.New("unknown vector store backend")
)

// VectorStore is the search contract used by the processors.
type VectorStore interface {
	// Create builds and persists an index from docs, replacing any prior
	// index at the same location.
	Create(ctx context.Context, docs []models.Document) error

	// Search returns documents relevant to question that match every
	// key/value pair of filter, sorted by descending score.
	Search(ctx context.Context, question string, filter map[string]string) ([]models.Document, error)

	// Exists reports whether a persisted index is present.
	Exists() bool
}

// Backend is an index implementation. Backends return raw candidates;
// filtering, scoring and ordering happen in Store.
type Backend interface {
	Name() string

	// Create builds the index from docs and persists it under dir.
	Create(ctx context.Context, docs []models.Document, dir string) error

	// Load opens the index persisted under dir, returning ErrIndexNotFound
	// when there is none.
	Load(ctx context.Context, dir string) error

	// Exists reports whether an index is persisted under dir.
	Exists(dir string) bool

	// SimilaritySearch returns up to k candidates whose similarity to query
	// is at least threshold.
	SimilaritySearch(ctx context.Context, query string, k int, threshold float64, where map[string]string) ([]models.Document, error)

	// MMRSearch returns up to k candidates balancing relevance against
	// diversity. lambda 1 is pure relevance, 0 pure diversity.
	MMRSearch(ctx context.Context, query string, k int, lambda float64, where map[string]string) ([]models.Document, error)
}

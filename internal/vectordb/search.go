package vectordb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pedroananias/rag-3w-cot/internal/models"
)

// SearchMode selects how candidates are ranked.
type SearchMode string

const (
	ModeSimilarity SearchMode = "similarity"
	ModeMMR        SearchMode = "mmr"
)

// Profile holds the retrieval parameters of one content bucket.
type Profile struct {
	TopK           int
	ScoreThreshold float64
	LambdaMult     float64
}

// Options configures a Store.
type Options struct {
	Mode SearchMode
	// Text applies to searches for primary text content; Type to searches
	// filtered to any other content type.
	Text   Profile
	Type   Profile
	Logger *slog.Logger
}

// Store is the VectorStore over one Backend persisted in dir. The
// persisted index is loaded on first search.
type Store struct {
	backend Backend
	dir     string
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex
	loaded  bool
	loadErr error
}

// NewStore creates a store over backend, persisted under dir.
func NewStore(backend Backend, dir string, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		dir:     dir,
		opts:    opts,
		logger:  logger.With("vectorstore", backend.Name()),
	}
}

// Dir returns the directory the index is persisted in.
func (s *Store) Dir() string { return s.dir }

// Exists reports whether an index is persisted.
func (s *Store) Exists() bool { return s.backend.Exists(s.dir) }

// Create builds and persists the index.
func (s *Store) Create(ctx context.Context, docs []models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("creating index", "documents", len(docs), "dir", s.dir)
	if err := s.backend.Create(ctx, docs, s.dir); err != nil {
		return fmt.Errorf("creating %s index: %w", s.backend.Name(), err)
	}
	s.loaded, s.loadErr = true, nil
	return nil
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.loadErr
	}
	s.logger.Debug("loading index", "dir", s.dir)
	s.loadErr = s.backend.Load(ctx, s.dir)
	s.loaded = true
	return s.loadErr
}

// profileFor picks the text profile when the filter targets text content
// (or sets no content type) and the type profile otherwise.
func (s *Store) profileFor(filter map[string]string) Profile {
	ct, ok := filter[models.KeyContentType]
	if !ok || ct == models.ContentText {
		return s.opts.Text
	}
	return s.opts.Type
}

// Search implements VectorStore.
func (s *Store) Search(ctx context.Context, question string, filter map[string]string) ([]models.Document, error) {
	if s.opts.Mode != ModeSimilarity && s.opts.Mode != ModeMMR {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSearchMode, s.opts.Mode)
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	p := s.profileFor(filter)
	var (
		docs []models.Document
		err  error
	)
	switch s.opts.Mode {
	case ModeSimilarity:
		docs, err = s.backend.SimilaritySearch(ctx, question, p.TopK, p.ScoreThreshold, filter)
	case ModeMMR:
		docs, err = s.backend.MMRSearch(ctx, question, p.TopK, p.LambdaMult, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", s.opts.Mode, err)
	}

	docs = ensureIDs(docs)
	docs = DeduplicateByID(docs)
	docs = FilterDocuments(docs, filter)
	docs = AddScores(question, docs)
	return SortByScore(docs), nil
}

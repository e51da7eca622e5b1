package processor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pedroananias/rag-3w-cot/internal/config"
	"github.com/pedroananias/rag-3w-cot/internal/corpus"
	"github.com/pedroananias/rag-3w-cot/internal/dictionary"
	"github.com/pedroananias/rag-3w-cot/internal/models"
	"github.com/pedroananias/rag-3w-cot/internal/similarity"
	"github.com/pedroananias/rag-3w-cot/internal/textnorm"
	"github.com/pedroananias/rag-3w-cot/internal/vectordb"
)

// QueryProcessor resolves questions and retrieves their documents.
type QueryProcessor struct {
	cfg     *config.Config
	store   vectordb.VectorStore
	sources []corpus.Source
	dicts   []*dictionary.Dictionary
	logger  *slog.Logger
}

// NewQueryProcessor creates a processor searching store. sources are the
// labelled source files questions are scoped to.
func NewQueryProcessor(cfg *config.Config, store vectordb.VectorStore, sources []corpus.Source, logger *slog.Logger) (*QueryProcessor, error) {
	snap := cfg.Snapshot()
	dicts, err := dictionary.Load(snap.Processing.QueryTermsDictionaries)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryProcessor{
		cfg:     snap,
		store:   store,
		sources: sources,
		dicts:   dicts,
		logger:  logger.With("component", "queries"),
	}, nil
}

// Process enriches every query concurrently and returns them in input
// order. The first retrieval error cancels the remaining queries.
func (p *QueryProcessor) Process(ctx context.Context, queries []*models.Query) ([]*models.Query, error) {
	out := make([]*models.Query, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			if err := p.processOne(ctx, q); err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			out[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *QueryProcessor) processOne(ctx context.Context, q *models.Query) error {
	q.RelevantFiles = p.RelevantFiles(q.QuestionText)
	q.QuestionExpanded, q.QuestionNormalizedExpanded = p.Resolve(q.QuestionText)

	// The normalized form only replaces a dictionary expansion; without
	// dictionaries the raw question is searched.
	search := q.QuestionText
	if len(p.dicts) > 0 {
		search = q.QuestionExpanded
		if p.cfg.Processing.UseNormalizedQuery {
			search = q.QuestionNormalizedExpanded
		}
	}
	p.logger.Info("processing query", "question", q.QuestionText, "files", len(q.RelevantFiles))

	secondary := models.ContentHTML
	if p.cfg.Processing.HTMLToMarkdown {
		secondary = models.ContentMarkdown
	}

	var docs []models.Document
	for _, sha := range q.RelevantFiles {
		text, err := p.store.Search(ctx, search, map[string]string{
			models.KeyPDFSHA1:     sha,
			models.KeyContentType: models.ContentText,
		})
		if err != nil {
			return err
		}
		if len(text) == 0 {
			p.logger.Debug("no text results, skipping type search", "file", sha)
			continue
		}
		typed, err := p.store.Search(ctx, search, map[string]string{
			models.KeyPDFSHA1:     sha,
			models.KeyContentType: secondary,
		})
		if err != nil {
			return err
		}
		docs = append(docs, text...)
		docs = append(docs, typed...)
	}
	q.RelevantDocuments = vectordb.SortByScore(docs)
	return nil
}

// Resolve expands question with the configured dictionaries and returns
// the expansion together with its normalized form.
func (p *QueryProcessor) Resolve(question string) (expanded, normalized string) {
	expanded = dictionary.ExpandAll(question, p.dicts)
	return expanded, textnorm.Normalize(expanded)
}

// RelevantFiles returns the identities of the sources a question is about:
// those whose label appears in the question or is lexically close to it.
// When none match, every source is returned.
func (p *QueryProcessor) RelevantFiles(question string) []string {
	threshold := p.cfg.Processing.FileScoreThreshold
	seen := make(map[string]bool)
	var files []string
	for _, s := range p.sources {
		if s.Owner == "" || seen[s.SHA1] {
			continue
		}
		if strings.Contains(question, s.Owner) || similarity.Lexical(question, s.Owner, true) >= threshold {
			seen[s.SHA1] = true
			files = append(files, s.SHA1)
		}
	}
	if len(files) > 0 {
		return files
	}

	all := make([]string, 0, len(p.sources))
	for _, s := range p.sources {
		if !seen[s.SHA1] {
			seen[s.SHA1] = true
			all = append(all, s.SHA1)
		}
	}
	return all
}

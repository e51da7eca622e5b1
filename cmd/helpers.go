package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pedroananias/rag-3w-cot/internal/config"
	"github.com/pedroananias/rag-3w-cot/internal/corpus"
	"github.com/pedroananias/rag-3w-cot/internal/db"
	"github.com/pedroananias/rag-3w-cot/internal/embeddings"
	"github.com/pedroananias/rag-3w-cot/internal/extract"
	"github.com/pedroananias/rag-3w-cot/internal/models"
	"github.com/pedroananias/rag-3w-cot/internal/processor"
	"github.com/pedroananias/rag-3w-cot/internal/progress"
	"github.com/pedroananias/rag-3w-cot/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `ragcot init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// workspace ties a corpus directory to the components built from the
// configuration.
type workspace struct {
	cfg       *config.Config
	corpusDir string
	embedder  embeddings.Embedder
	layout    processor.Layout
}

func newWorkspace(cfg *config.Config, corpusDir string) (*workspace, error) {
	info, err := os.Stat(corpusDir)
	if err != nil {
		return nil, fmt.Errorf("corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", corpusDir)
	}

	embedder, err := embeddings.New(cfg.EmbeddingsModel, embeddings.Options{
		BatchSize: cfg.EmbeddingsBatchSize,
		Precision: cfg.EmbeddingsPrecision,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &workspace{
		cfg:       cfg,
		corpusDir: corpusDir,
		embedder:  embedder,
		layout:    processor.NewLayout(corpusDir, cfg),
	}, nil
}

// openStore opens the configured vector store persisted under dir.
func (w *workspace) openStore(dir string) (vectordb.VectorStore, error) {
	backend, err := vectordb.NewBackend(w.cfg.Processing.VectorStore, w.embedder)
	if err != nil {
		return nil, err
	}
	pc := w.cfg.Processing
	return vectordb.NewStore(backend, dir, vectordb.Options{
		Mode:   vectordb.SearchMode(pc.QuerySearchType),
		Text:   profile(pc.Text),
		Type:   profile(pc.Type),
		Logger: logger,
	}), nil
}

func profile(p config.SearchParams) vectordb.Profile {
	return vectordb.Profile{TopK: p.TopK, ScoreThreshold: p.ScoreThreshold, LambdaMult: p.LambdaMult}
}

// process builds the index of the corpus.
func (w *workspace) process(ctx context.Context, exclude []string, keepGoing bool) (*processor.ProcessResult, error) {
	ec := w.cfg.Extraction
	extractor := extract.NewClient(ec.URL, w.cfg.UnstructuredAPIKey, extract.Options{
		Strategy:          ec.Strategy,
		ChunkingStrategy:  ec.ChunkingStrategy,
		MaxCharacters:     w.cfg.LLMMaxTokens,
		MultipageSections: ec.MultipageSections,
		Overlap:           ec.Overlap,
		Languages:         ec.Languages,
		Timeout:           time.Duration(ec.TimeoutSecs) * time.Second,
	})

	dp := processor.NewDocumentProcessor(w.cfg, processor.DocumentOptions{
		Extractor: extractor,
		Stores:    w.openStore,
		Reporter:  progress.NewReporter(),
		Logger:    logger,
		Exclude:   exclude,
		KeepGoing: keepGoing,
	})
	return dp.Process(ctx, w.corpusDir)
}

// retrieve attaches the relevant documents to every query.
func (w *workspace) retrieve(ctx context.Context, queries []*models.Query, exclude []string) ([]*models.Query, error) {
	store, err := w.openStore(w.layout.VectorStoreDir())
	if err != nil {
		return nil, err
	}
	if !store.Exists() {
		return nil, fmt.Errorf("no index at %s\nRun `ragcot process %s` first", w.layout.VectorStoreDir(), w.corpusDir)
	}

	sources, err := loadSources(w.cfg, w.corpusDir, exclude)
	if err != nil {
		return nil, err
	}
	qp, err := processor.NewQueryProcessor(w.cfg, store, sources, logger)
	if err != nil {
		return nil, err
	}
	return qp.Process(ctx, queries)
}

// loadSources lists the corpus files with their owners.
func loadSources(cfg *config.Config, corpusDir string, exclude []string) ([]corpus.Source, error) {
	files, err := corpus.Walk(corpus.WalkConfig{
		RootDir:    corpusDir,
		Extensions: cfg.Processing.AllowedExtensions,
		Exclude:    exclude,
	})
	if err != nil {
		return nil, err
	}
	table, err := corpus.LoadTable(filepath.Join(corpusDir, corpus.MetadataFile), files)
	if err != nil {
		return nil, err
	}
	return table.SourcesFor(files), nil
}

// openLedger opens the run ledger kept in the corpus cache directory.
func openLedger(cfg *config.Config, corpusDir string) (*db.DB, *db.RunStore, error) {
	path := filepath.Join(processor.NewLayout(corpusDir, cfg).CacheDir(), db.DefaultFile)
	d, err := db.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening run ledger: %w", err)
	}
	return d, db.NewRunStore(d), nil
}

// corpusOfRun returns the corpus directory a run directory belongs to
// (<corpus>/output/<timestamp>).
func corpusOfRun(runDir string) string {
	return filepath.Dir(filepath.Dir(filepath.Clean(runDir)))
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

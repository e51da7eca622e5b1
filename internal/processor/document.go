package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pedroananias/rag-3w-cot/internal/config"
	"github.com/pedroananias/rag-3w-cot/internal/corpus"
	"github.com/pedroananias/rag-3w-cot/internal/extract"
	"github.com/pedroananias/rag-3w-cot/internal/models"
	"github.com/pedroananias/rag-3w-cot/internal/progress"
	"github.com/pedroananias/rag-3w-cot/internal/vectordb"
)

// ErrNoDocuments is returned when a corpus yields nothing to index.
var ErrNoDocuments = errors.New("no documents to index")

// StoreFactory opens the vector store persisted under dir.
type StoreFactory func(dir string) (vectordb.VectorStore, error)

// DocumentOptions carries the collaborators of a DocumentProcessor.
type DocumentOptions struct {
	Extractor extract.Extractor
	Stores    StoreFactory
	Reporter  progress.Reporter
	Logger    *slog.Logger

	// Exclude lists glob patterns of corpus file names to skip.
	Exclude []string
	// KeepGoing builds the index from the files that succeeded when
	// others failed. Without it, any failed file aborts before indexing.
	KeepGoing bool
	// Now is the clock used for year inference.
	Now func() time.Time
}

// FileError records a file whose processing failed.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.File, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

// ProcessResult summarises a Process call.
type ProcessResult struct {
	Files     int
	Documents int
	Extracted int // files sent to the extraction service
	Cached    int // files served from the extraction cache
	Reused    bool
	StoreDir  string
	Errors    []*FileError
}

// DocumentProcessor builds the index of a corpus.
type DocumentProcessor struct {
	cfg    *config.Config
	opts   DocumentOptions
	logger *slog.Logger
}

// NewDocumentProcessor creates a processor over a snapshot of cfg.
func NewDocumentProcessor(cfg *config.Config, opts DocumentOptions) *DocumentProcessor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DocumentProcessor{
		cfg:    cfg.Snapshot(),
		opts:   opts,
		logger: logger.With("component", "documents"),
	}
}

// Layout returns the cache layout of corpusDir.
func (p *DocumentProcessor) Layout(corpusDir string) Layout {
	return NewLayout(corpusDir, p.cfg)
}

// Process builds and persists the index of the corpus at corpusDir. When
// caching is enabled and an index for the current configuration already
// exists, nothing is rebuilt.
func (p *DocumentProcessor) Process(ctx context.Context, corpusDir string) (*ProcessResult, error) {
	pc := p.cfg.Processing
	files, err := corpus.Walk(corpus.WalkConfig{
		RootDir:    corpusDir,
		Extensions: pc.AllowedExtensions,
		Exclude:    p.opts.Exclude,
	})
	if err != nil {
		return nil, err
	}

	layout := p.Layout(corpusDir)
	result := &ProcessResult{Files: len(files), StoreDir: layout.VectorStoreDir()}

	store, err := p.opts.Stores(layout.VectorStoreDir())
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	if !pc.EnableCache {
		p.logger.Info("caching disabled, purging cache", "dir", layout.CacheDir())
		if err := layout.Purge(); err != nil {
			return nil, err
		}
	} else if store.Exists() {
		p.logger.Info("reusing index", "dir", layout.VectorStoreDir())
		result.Reused = true
		return result, nil
	}

	table, err := corpus.LoadTable(filepath.Join(corpusDir, corpus.MetadataFile), files)
	if err != nil {
		return nil, err
	}

	perFile := p.processFiles(ctx, files, layout, table, result)
	if len(result.Errors) > 0 && !p.opts.KeepGoing {
		errs := make([]error, len(result.Errors))
		for i, fe := range result.Errors {
			errs[i] = fe
		}
		return result, fmt.Errorf("%d of %d files failed: %w", len(result.Errors), len(files), errors.Join(errs...))
	}

	var docs []models.Document
	for _, d := range perFile {
		docs = append(docs, d...)
	}
	if len(docs) == 0 {
		return result, ErrNoDocuments
	}
	result.Documents = len(docs)

	if err := store.Create(ctx, docs); err != nil {
		return result, err
	}
	p.logger.Info("index built", "files", len(files), "documents", len(docs))
	return result, nil
}

// processFiles runs the per-file pipeline with bounded concurrency. The
// returned slice is indexed like files; failed files leave a nil entry.
func (p *DocumentProcessor) processFiles(ctx context.Context, files []corpus.File, layout Layout, table *corpus.Table, result *ProcessResult) [][]models.Document {
	limit := int64(p.cfg.Processing.MaxConcurrentTasks)
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(limit)

	out := make([][]models.Document, len(files))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	p.opts.Reporter.Start(len(files), "Processing documents")
	defer p.opts.Reporter.Finish()

	for i, f := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			result.Errors = append(result.Errors, &FileError{File: f.Name, Err: err})
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(i int, f corpus.File) {
			defer wg.Done()
			defer sem.Release(1)

			docs, cached, err := p.processFile(ctx, f, layout, table)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Error("processing failed", "file", f.Name, "error", err)
				result.Errors = append(result.Errors, &FileError{File: f.Name, Err: err})
			} else {
				out[i] = docs
				if cached {
					result.Cached++
				} else {
					result.Extracted++
				}
			}
			p.opts.Reporter.Advance(f.Name)
		}(i, f)
	}
	wg.Wait()
	return out
}

// processFile loads or extracts the documents of one file and applies the
// configured transforms. cached reports whether extraction was skipped.
func (p *DocumentProcessor) processFile(ctx context.Context, f corpus.File, layout Layout, table *corpus.Table) (docs []models.Document, cached bool, err error) {
	pc := p.cfg.Processing
	logger := p.logger.With("file", f.Name)
	cachePath := layout.JSONCachePath(f.Path)

	var elements []extract.Element
	if pc.EnableCache {
		elements, err = readExtractionCache(cachePath, f.ContentHash)
		switch {
		case err == nil:
			cached = true
			logger.Debug("extraction cache hit", "elements", len(elements))
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("extraction cache miss")
		default:
			logger.Warn("ignoring extraction cache", "path", cachePath, "error", err)
		}
	}

	if !cached {
		logger.Info("extracting")
		elements, err = p.opts.Extractor.Extract(ctx, f.Path)
		if err != nil {
			return nil, false, err
		}
		if pc.EnableCache {
			if err := writeExtractionCache(cachePath, f.ContentHash, elements); err != nil {
				logger.Warn("could not write extraction cache", "error", err)
			}
		}
	}

	docs = extract.ToDocuments(elements, f.Name, table.Owner, p.opts.Now())
	return p.transform(docs, logger), cached, nil
}

// transform applies the enabled post-processing steps in order.
func (p *DocumentProcessor) transform(docs []models.Document, logger *slog.Logger) []models.Document {
	pc := p.cfg.Processing
	logger.Debug("documents extracted", "count", len(docs))

	if pc.HTMLToMarkdown {
		for i, d := range docs {
			converted, err := toMarkdown(d)
			if err != nil {
				logger.Warn("html to markdown failed, keeping html", "id", d.ID, "error", err)
				continue
			}
			docs[i] = converted
		}
	}
	if pc.Deduplicate {
		docs = RemoveDuplicates(docs)
		logger.Debug("after deduplication", "count", len(docs))
	}
	if pc.SmallDocumentsChars > 0 {
		docs = RemoveSmall(docs, pc.SmallDocumentsChars)
		logger.Debug("after small document filter", "count", len(docs))
	}
	if pc.SimilarDocumentsThreshold > 0 {
		docs = RemoveSimilar(docs, pc.SimilarDocumentsThreshold)
		logger.Debug("after similar document filter", "count", len(docs))
	}
	return docs
}

// Package processor turns a corpus into a searchable index and enriches
// questions with the documents relevant to them.
package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pedroananias/rag-3w-cot/internal/config"
	"github.com/pedroananias/rag-3w-cot/internal/extract"
)

const (
	cacheDirName       = ".cache"
	vectorStoreDirName = ".vectorstore"
	jsonDirName        = ".json"
)

// Layout locates the cache trees of one corpus. Paths are namespaced by
// configuration fingerprints, so changing a contributing setting moves
// the cache instead of overwriting it.
type Layout struct {
	CorpusDir              string
	VectorStoreFingerprint string
	ExtractionFingerprint  string
}

// NewLayout computes the layout of corpusDir under cfg.
func NewLayout(corpusDir string, cfg *config.Config) Layout {
	return Layout{
		CorpusDir:              corpusDir,
		VectorStoreFingerprint: cfg.VectorStoreFingerprint(),
		ExtractionFingerprint:  cfg.ExtractionFingerprint(),
	}
}

// CacheDir is the root of the corpus cache.
func (l Layout) CacheDir() string {
	return filepath.Join(l.CorpusDir, cacheDirName)
}

// VectorStoreDir is where the index for the current configuration lives.
func (l Layout) VectorStoreDir() string {
	name := filepath.Base(filepath.Clean(l.CorpusDir)) + ".vectorstore"
	return filepath.Join(l.CacheDir(), vectorStoreDirName, l.VectorStoreFingerprint, name)
}

// JSONCachePath is where the extracted documents of the source file at
// path are cached.
func (l Layout) JSONCachePath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(filepath.Dir(path), cacheDirName, jsonDirName, l.ExtractionFingerprint, stem+".json")
}

// Purge removes every cached index and extraction of the corpus, whatever
// configuration produced them.
func (l Layout) Purge() error {
	for _, dir := range []string{vectorStoreDirName, jsonDirName} {
		if err := os.RemoveAll(filepath.Join(l.CacheDir(), dir)); err != nil {
			return fmt.Errorf("purge %s cache: %w", dir, err)
		}
	}
	return nil
}

// extractionCache is the on-disk form of a file's extracted elements.
// SourceHash ties the entry to the file content it was extracted from.
// Owners and years are resolved when the entry is read, so metadata
// edits apply without re-extracting.
type extractionCache struct {
	SourceHash string            `json:"source_sha256"`
	Elements   []extract.Element `json:"elements"`
}

// errStaleCache marks a cache entry written for different file content
// or in an older format.
var errStaleCache = errors.New("stale extraction cache")

func readExtractionCache(path, sourceHash string) ([]extract.Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c extractionCache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if c.SourceHash != sourceHash || c.Elements == nil {
		return nil, errStaleCache
	}
	return c.Elements, nil
}

func writeExtractionCache(path, sourceHash string, elements []extract.Element) error {
	if elements == nil {
		elements = []extract.Element{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(extractionCache{SourceHash: sourceHash, Elements: elements}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return os.Rename(tmp, path)
}

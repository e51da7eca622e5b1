// Package corpus discovers source documents and resolves who published them.
package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is a source document discovered in the corpus directory.
type File struct {
	Path        string // Absolute path on disk.
	Name        string // Base name, e.g. "abc123.pdf".
	SHA1        string // Source identity: the file name without extension.
	Size        int64  // File size in bytes.
	ContentHash string // SHA-256 hex digest of the file content.
}

// WalkConfig controls the behaviour of the Walk function.
type WalkConfig struct {
	RootDir    string   // Corpus directory.
	Extensions []string // Allowed extensions, e.g. ".pdf". Matched case-insensitively.
	Exclude    []string // Glob patterns of file names to skip.
}

// Walk lists the files directly inside config.RootDir whose extension is
// allowed. Subdirectories, including the cache and output trees, are not
// descended into. Files are returned sorted by name.
func Walk(config WalkConfig) ([]File, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("corpus: resolve root: %w", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("corpus: read %s: %w", root, err)
	}

	var files []File
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if !hasExtension(name, config.Extensions) {
			continue
		}
		if MatchesExclude(name, config.Exclude) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(root, name)
		hash, err := HashFile(path)
		if err != nil {
			return nil, fmt.Errorf("corpus: hash %s: %w", name, err)
		}

		files = append(files, File{
			Path:        path,
			Name:        name,
			SHA1:        strings.TrimSuffix(name, filepath.Ext(name)),
			Size:        info.Size(),
			ContentHash: hash,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, allowed := range exts {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// HashFile computes the SHA-256 digest of the given file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

package corpus

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchesExclude returns true if name matches any of the exclude patterns.
// If patterns is empty, nothing is excluded.
func MatchesExclude(name string, patterns []string) bool {
	normalized := filepath.ToSlash(name)
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(filepath.ToSlash(pattern), normalized); err == nil && matched {
			return true
		}
	}
	return false
}

package vectordb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pedroananias/rag-3w-cot/internal/embeddings"
)

// Factory builds a backend that embeds with e.
type Factory func(e embeddings.Embedder) Backend

var backends = map[string]Factory{
	"dense":  func(e embeddings.Embedder) Backend { return NewChromemStore(e) },
	"hybrid": func(e embeddings.Embedder) Backend { return NewHybridStore(e) },
}

// NewBackend returns the backend registered under name.
func NewBackend(name string, e embeddings.Embedder) (Backend, error) {
	f, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownBackend, name, strings.Join(BackendNames(), ", "))
	}
	return f(e), nil
}

// BackendNames lists the registered backends.
func BackendNames() []string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

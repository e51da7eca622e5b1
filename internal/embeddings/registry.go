package embeddings

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Options carries the settings shared by every embeddings backend.
type Options struct {
	BatchSize int
	Precision string
	// BaseURL overrides the backend endpoint; empty uses the backend default.
	BaseURL string
}

// Factory builds an embedder for a model served by one backend.
type Factory func(model string, opts Options) (Embedder, error)

var registry = map[string]Factory{
	"openai": func(model string, opts Options) (Embedder, error) {
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for openai embeddings")
		}
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = os.Getenv("OPENAI_BASE_URL")
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(model), baseURL, opts.BatchSize), nil
	},
	"ollama": func(model string, opts Options) (Embedder, error) {
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = os.Getenv("OLLAMA_HOST")
		}
		return NewOllamaEmbedder(model, 768, baseURL, opts.BatchSize), nil
	},
	"google": func(model string, opts Options) (Embedder, error) {
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is required for google embeddings")
		}
		return NewGoogleEmbedder(apiKey, model, opts.BaseURL, opts.BatchSize), nil
	},
}

// New creates an embedder from a "backend/model" name such as
// "openai/text-embedding-3-small", wrapped to the requested precision.
func New(name string, opts Options) (Embedder, error) {
	backend, model, ok := strings.Cut(name, "/")
	if !ok || model == "" {
		return nil, fmt.Errorf("invalid embeddings model %q: want backend/model", name)
	}
	factory, ok := registry[backend]
	if !ok {
		return nil, fmt.Errorf("unknown embeddings backend %q (available: %s)", backend, strings.Join(Backends(), ", "))
	}
	e, err := factory(model, opts)
	if err != nil {
		return nil, err
	}
	return WithPrecision(e, opts.Precision)
}

// Backends lists the registered embeddings backends.
func Backends() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

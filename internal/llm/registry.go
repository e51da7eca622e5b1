package llm

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/pedroananias/rag-3w-cot/internal/config"
)

// backend describes one registered provider. local backends run on the
// caller's hardware and take requests in parallel batches; hosted ones are
// called one request at a time.
type backend struct {
	factory func(model string) (Provider, error)
	local   bool
}

var backends = map[string]backend{
	"openai": {factory: func(model string) (Provider, error) {
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, model, os.Getenv("OPENAI_BASE_URL")), nil
	}},
	"anthropic": {factory: func(model string) (Provider, error) {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		return NewAnthropicProvider(apiKey, model, os.Getenv("ANTHROPIC_BASE_URL")), nil
	}},
	"google": {factory: func(model string) (Provider, error) {
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		return NewGoogleProvider(apiKey, model, ""), nil
	}},
	"ollama": {local: true, factory: func(model string) (Provider, error) {
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil
	}},
}

// NewProvider creates the provider registered under name.
func NewProvider(name, model string) (Provider, error) {
	b, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownBackend, name, strings.Join(Backends(), ", "))
	}
	return b.factory(model)
}

// IsLocal reports whether the named backend generates on local hardware.
func IsLocal(name string) bool {
	return backends[name].local
}

// Backends lists the registered provider names.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewGeneratorFromConfig builds the generator described by cfg: the
// provider, optional rate limiting, and batch concurrency for local
// backends.
func NewGeneratorFromConfig(cfg *config.Config, logger *slog.Logger) (*Generator, error) {
	model := cfg.LLMModel
	if model == "" {
		model = config.DefaultModel(cfg.LLM)
	}
	provider, err := NewProvider(cfg.LLM, model)
	if err != nil {
		return nil, err
	}
	provider = NewRateLimitedProvider(provider, cfg.LLMRequestsPerMinute)

	concurrency := 1
	if IsLocal(cfg.LLM) {
		concurrency = cfg.LLMBatchSize
	}
	return NewGenerator(provider, GeneratorOptions{
		Model:        model,
		MaxTokens:    cfg.LLMMaxTokens,
		Temperature:  cfg.LLMTemperature,
		Concurrency:  concurrency,
		ReleaseCache: cfg.ForceCacheRelease,
		Logger:       logger,
	}), nil
}

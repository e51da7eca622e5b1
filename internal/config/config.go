package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (RAGCOT_*). Nested keys use a double
// underscore: RAGCOT_PROCESSING__ENABLE_CACHE -> processing.enable_cache.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider("RAGCOT_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "RAGCOT_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.UnstructuredAPIKey == "" {
		cfg.UnstructuredAPIKey = os.Getenv("UNSTRUCTURED_API_KEY")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = DefaultModel(cfg.LLM)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Export writes the configuration as indented JSON using the YAML key
// names. Secrets carry no YAML key and are left out.
func (c *Config) Export(path string) error {
	raw, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	var settings map[string]any
	if err := yamlv3.Unmarshal(raw, &settings); err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing settings to %s: %w", path, err)
	}
	return nil
}

// Snapshot returns a deep copy of the configuration. Components hold a
// snapshot so later mutations of the caller's Config do not leak in.
func (c *Config) Snapshot() *Config {
	cp := *c
	cp.Processing.AllowedExtensions = slices.Clone(c.Processing.AllowedExtensions)
	cp.Processing.QueryTermsDictionaries = slices.Clone(c.Processing.QueryTermsDictionaries)
	return &cp
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !slices.Contains(KnownLLMs, c.LLM) {
		return fmt.Errorf("invalid llm %q: must be one of %s", c.LLM, strings.Join(KnownLLMs, ", "))
	}
	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("llm_max_tokens must be positive")
	}
	if c.LLMBatchSize < 0 {
		return fmt.Errorf("llm_batch_size must be non-negative")
	}
	if c.EmbeddingsModel == "" {
		return fmt.Errorf("embeddings_model is required")
	}

	p := c.Processing
	if !slices.Contains(KnownVectorStores, p.VectorStore) {
		return fmt.Errorf("invalid vectorstore %q: must be one of %s", p.VectorStore, strings.Join(KnownVectorStores, ", "))
	}
	for _, name := range p.QueryTermsDictionaries {
		if !slices.Contains(KnownDictionaries, name) {
			return fmt.Errorf("invalid query terms dictionary %q", name)
		}
	}
	if p.QuerySearchType != SearchSimilarity && p.QuerySearchType != SearchMMR {
		return fmt.Errorf("invalid query_search_type %q: must be similarity or mmr", p.QuerySearchType)
	}
	if p.MaxConcurrentTasks < 0 {
		return fmt.Errorf("max_concurrent_tasks must be non-negative")
	}
	if len(p.AllowedExtensions) == 0 {
		return fmt.Errorf("allowed_extensions must not be empty")
	}
	for name, v := range map[string]float64{
		"file_score_threshold":        p.FileScoreThreshold,
		"similar_documents_threshold": p.SimilarDocumentsThreshold,
		"text.score_threshold":        p.Text.ScoreThreshold,
		"text.lambda_mult":            p.Text.LambdaMult,
		"type.score_threshold":        p.Type.ScoreThreshold,
		"type.lambda_mult":            p.Type.LambdaMult,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %v", name, v)
		}
	}
	if p.Text.TopK <= 0 || p.Type.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	if p.SmallDocumentsChars < 0 {
		return fmt.Errorf("small_documents_chars must be non-negative")
	}

	if c.Extraction.URL == "" {
		return fmt.Errorf("extraction.url is required")
	}
	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given LLM backend.
func APIKeyEnvVar(llm string) string {
	switch llm {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

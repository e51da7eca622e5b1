package config

// Registry keys accepted by Validate. The factories themselves live in the
// llm, vectordb, embeddings and dictionary packages.
var (
	KnownLLMs         = []string{"openai", "ollama", "anthropic", "google"}
	KnownVectorStores = []string{"dense", "hybrid"}
	KnownDictionaries = []string{"financial"}
)

// defaultModels maps each LLM backend to the model used when llm_model is empty.
var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"ollama":    "phi4-mini",
	"anthropic": "claude-haiku-4-5-20251001",
	"google":    "gemini-2.0-flash",
}

// DefaultModel returns the default model for the given LLM backend.
func DefaultModel(llm string) string {
	return defaultModels[llm]
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM:                 "openai",
		LLMModel:            "gpt-4o-mini",
		LLMMaxTokens:        1536,
		LLMBatchSize:        4,
		LLMTemperature:      0.0,
		EmbeddingsModel:     "openai/text-embedding-3-small",
		EmbeddingsPrecision: "float32",
		EmbeddingsBatchSize: 4,
		ForceCacheRelease:   true,
		Processing: ProcessingConfig{
			EnableCache:            true,
			MaxConcurrentTasks:     4,
			AllowedExtensions:      []string{".pdf"},
			VectorStore:            "dense",
			QueryTermsDictionaries: []string{"financial"},
			QuerySearchType:        SearchMMR,
			FileScoreThreshold:     0.5,
			Text: SearchParams{
				ScoreThreshold: 0.5,
				LambdaMult:     1.0,
				TopK:           20,
			},
			Type: SearchParams{
				ScoreThreshold: 0.25,
				LambdaMult:     1.0,
				TopK:           10,
			},
			HTMLToMarkdown:            true,
			Deduplicate:               true,
			SimilarDocumentsThreshold: 0.95,
			SmallDocumentsChars:       200,
		},
		Extraction: ExtractionConfig{
			URL:               "http://localhost:9500/general/v0/general",
			Strategy:          "hi_res",
			ChunkingStrategy:  "by_title",
			MultipageSections: true,
			Overlap:           0,
			Languages:         "eng",
			TimeoutSecs:       600,
		},
	}
}

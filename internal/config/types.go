package config

// SearchType selects how the vector store ranks candidates.
type SearchType string

const (
	SearchSimilarity SearchType = "similarity"
	SearchMMR        SearchType = "mmr"
)

// Config is the top-level ragcot configuration, corresponding to .ragcot.yml.
type Config struct {
	LLM                  string  `yaml:"llm" koanf:"llm"`
	LLMModel             string  `yaml:"llm_model" koanf:"llm_model"`
	LLMMaxTokens         int     `yaml:"llm_max_tokens" koanf:"llm_max_tokens"`
	LLMBatchSize         int     `yaml:"llm_batch_size" koanf:"llm_batch_size"`
	LLMTemperature       float64 `yaml:"llm_temperature" koanf:"llm_temperature"`
	LLMRequestsPerMinute int     `yaml:"llm_requests_per_minute" koanf:"llm_requests_per_minute"`

	EmbeddingsModel     string `yaml:"embeddings_model" koanf:"embeddings_model"`
	EmbeddingsPrecision string `yaml:"embeddings_precision" koanf:"embeddings_precision"`
	EmbeddingsBatchSize int    `yaml:"embeddings_batch_size" koanf:"embeddings_batch_size"`

	// ForceCacheRelease flushes model-side caches after the heaviest calls.
	ForceCacheRelease bool `yaml:"force_cache_release" koanf:"force_cache_release"`

	Processing ProcessingConfig `yaml:"processing" koanf:"processing"`
	Extraction ExtractionConfig `yaml:"extraction" koanf:"extraction"`

	// UnstructuredAPIKey is only read from the environment and never saved.
	UnstructuredAPIKey string `yaml:"-" koanf:"unstructured_api_key" json:"-"`
}

// ProcessingConfig controls document and query processing.
type ProcessingConfig struct {
	EnableCache               bool         `yaml:"enable_cache" koanf:"enable_cache"`
	MaxConcurrentTasks        int          `yaml:"max_concurrent_tasks" koanf:"max_concurrent_tasks"`
	AllowedExtensions         []string     `yaml:"allowed_extensions" koanf:"allowed_extensions"`
	UseNormalizedQuery        bool         `yaml:"use_normalized_query" koanf:"use_normalized_query"`
	VectorStore               string       `yaml:"vectorstore" koanf:"vectorstore"`
	QueryTermsDictionaries    []string     `yaml:"query_terms_dictionaries" koanf:"query_terms_dictionaries"`
	QuerySearchType           SearchType   `yaml:"query_search_type" koanf:"query_search_type"`
	FileScoreThreshold        float64      `yaml:"file_score_threshold" koanf:"file_score_threshold"`
	Text                      SearchParams `yaml:"text" koanf:"text"`
	Type                      SearchParams `yaml:"type" koanf:"type"`
	HTMLToMarkdown            bool         `yaml:"html_to_markdown" koanf:"html_to_markdown"`
	Deduplicate               bool         `yaml:"deduplicate" koanf:"deduplicate"`
	SimilarDocumentsThreshold float64      `yaml:"similar_documents_threshold" koanf:"similar_documents_threshold"`
	SmallDocumentsChars       int          `yaml:"small_documents_chars" koanf:"small_documents_chars"`
}

// SearchParams is the per-bucket retrieval profile. The "text" bucket applies
// to primary text content, the "type" bucket to everything else.
type SearchParams struct {
	ScoreThreshold float64 `yaml:"score_threshold" koanf:"score_threshold"`
	LambdaMult     float64 `yaml:"lambda_mult" koanf:"lambda_mult"`
	TopK           int     `yaml:"top_k" koanf:"top_k"`
}

// ExtractionConfig configures the remote document-extraction service.
type ExtractionConfig struct {
	URL               string `yaml:"url" koanf:"url"`
	Strategy          string `yaml:"strategy" koanf:"strategy"`
	ChunkingStrategy  string `yaml:"chunking_strategy" koanf:"chunking_strategy"`
	MultipageSections bool   `yaml:"multipage_sections" koanf:"multipage_sections"`
	Overlap           int    `yaml:"overlap" koanf:"overlap"`
	Languages         string `yaml:"languages" koanf:"languages"`
	TimeoutSecs       int    `yaml:"timeout_secs" koanf:"timeout_secs"`
}

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LLMMaxTokens != 1536 {
		t.Errorf("expected default llm_max_tokens 1536, got %d", cfg.LLMMaxTokens)
	}
	if cfg.Processing.VectorStore != "dense" {
		t.Errorf("expected default vectorstore %q, got %q", "dense", cfg.Processing.VectorStore)
	}
	if cfg.Processing.QuerySearchType != SearchMMR {
		t.Errorf("expected default search type %q, got %q", SearchMMR, cfg.Processing.QuerySearchType)
	}
	if cfg.Processing.Text.TopK != 20 || cfg.Processing.Type.TopK != 10 {
		t.Errorf("unexpected top_k defaults: text=%d type=%d", cfg.Processing.Text.TopK, cfg.Processing.Type.TopK)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.ragcot.yml")

	original := DefaultConfig()
	original.LLM = "ollama"
	original.LLMModel = "llama3"
	original.Processing.VectorStore = "hybrid"
	original.Processing.AllowedExtensions = []string{".pdf", ".docx"}
	original.Processing.Text.TopK = 7
	original.Extraction.Strategy = "fast"

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.LLM != original.LLM {
		t.Errorf("llm: got %q, want %q", loaded.LLM, original.LLM)
	}
	if loaded.LLMModel != original.LLMModel {
		t.Errorf("llm_model: got %q, want %q", loaded.LLMModel, original.LLMModel)
	}
	if loaded.Processing.VectorStore != "hybrid" {
		t.Errorf("vectorstore: got %q", loaded.Processing.VectorStore)
	}
	if loaded.Processing.Text.TopK != 7 {
		t.Errorf("text.top_k: got %d, want 7", loaded.Processing.Text.TopK)
	}
	if loaded.Extraction.Strategy != "fast" {
		t.Errorf("extraction.strategy: got %q", loaded.Extraction.Strategy)
	}
	if len(loaded.Processing.AllowedExtensions) != 2 {
		t.Errorf("allowed_extensions: got %v", loaded.Processing.AllowedExtensions)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.LLM != "openai" {
		t.Errorf("expected default llm, got %q", cfg.LLM)
	}
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.yml")

	t.Setenv("RAGCOT_LLM", "anthropic")
	t.Setenv("RAGCOT_PROCESSING__SMALL_DOCUMENTS_CHARS", "50")
	t.Setenv("UNSTRUCTURED_API_KEY", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM != "anthropic" {
		t.Errorf("expected env override llm=anthropic, got %q", cfg.LLM)
	}
	if cfg.Processing.SmallDocumentsChars != 50 {
		t.Errorf("expected small_documents_chars=50, got %d", cfg.Processing.SmallDocumentsChars)
	}
	if cfg.UnstructuredAPIKey != "secret" {
		t.Errorf("expected api key from env, got %q", cfg.UnstructuredAPIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown llm", func(c *Config) { c.LLM = "gpt" }, "invalid llm"},
		{"unknown store", func(c *Config) { c.Processing.VectorStore = "faiss" }, "invalid vectorstore"},
		{"unknown dictionary", func(c *Config) { c.Processing.QueryTermsDictionaries = []string{"medical"} }, "dictionary"},
		{"bad search", func(c *Config) { c.Processing.QuerySearchType = "knn" }, "query_search_type"},
		{"threshold range", func(c *Config) { c.Processing.Text.ScoreThreshold = 1.5 }, "text.score_threshold"},
		{"zero top_k", func(c *Config) { c.Processing.Type.TopK = 0 }, "top_k"},
		{"no extensions", func(c *Config) { c.Processing.AllowedExtensions = nil }, "allowed_extensions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	cfg := DefaultConfig()
	snap := cfg.Snapshot()
	cfg.Processing.AllowedExtensions[0] = ".txt"
	cfg.Processing.Text.TopK = 99
	if snap.Processing.AllowedExtensions[0] != ".pdf" {
		t.Errorf("snapshot shares extension slice")
	}
	if snap.Processing.Text.TopK != 20 {
		t.Errorf("snapshot shares search params")
	}
}

func TestFingerprints(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	if a.VectorStoreFingerprint() != b.VectorStoreFingerprint() {
		t.Fatal("equal configs should share a vector store fingerprint")
	}
	if a.ExtractionFingerprint() != b.ExtractionFingerprint() {
		t.Fatal("equal configs should share an extraction fingerprint")
	}

	b.Processing.SmallDocumentsChars = 100
	if a.VectorStoreFingerprint() == b.VectorStoreFingerprint() {
		t.Error("changing small_documents_chars should change the vector store fingerprint")
	}
	if a.ExtractionFingerprint() != b.ExtractionFingerprint() {
		t.Error("small_documents_chars should not affect the extraction fingerprint")
	}

	b.Extraction.Overlap = 64
	if a.ExtractionFingerprint() == b.ExtractionFingerprint() {
		t.Error("changing overlap should change the extraction fingerprint")
	}
	if len(a.VectorStoreFingerprint()) != 32 {
		t.Errorf("expected md5 hex digest, got %q", a.VectorStoreFingerprint())
	}
}

func TestExportOmitsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UnstructuredAPIKey = "top-secret"
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := cfg.Export(path); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "top-secret") {
		t.Error("exported settings must not contain the api key")
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		t.Fatalf("settings are not valid JSON: %v", err)
	}
	if settings["llm_max_tokens"] != float64(1536) {
		t.Errorf("expected llm_max_tokens in settings, got %v", settings["llm_max_tokens"])
	}
}

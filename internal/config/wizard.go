package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to ragcot! Let's configure the pipeline.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. LLM backend.
	llmPrompt := promptui.Select{
		Label: "Select LLM backend",
		Items: KnownLLMs,
	}
	_, llm, err := llmPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("llm selection: %w", err)
	}
	cfg.LLM = llm

	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: DefaultModel(llm),
	}
	if cfg.LLMModel, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 2. Embeddings. Local backends embed locally too.
	embedDefault := "openai/text-embedding-3-small"
	if llm == "ollama" {
		embedDefault = "ollama/nomic-embed-text"
	}
	embedPrompt := promptui.Prompt{
		Label:   "Embeddings model (provider/model)",
		Default: embedDefault,
	}
	if cfg.EmbeddingsModel, err = embedPrompt.Run(); err != nil {
		return nil, fmt.Errorf("embeddings model: %w", err)
	}

	// 3. Vector store.
	storePrompt := promptui.Select{
		Label: "Select vector store",
		Items: []string{
			"dense  - embeddings only",
			"hybrid - embeddings fused with keyword (BM25) ranking",
		},
	}
	storeIdx, _, err := storePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("vector store selection: %w", err)
	}
	cfg.Processing.VectorStore = KnownVectorStores[storeIdx]

	// 4. Search mode.
	searchPrompt := promptui.Select{
		Label: "Select search mode",
		Items: []string{string(SearchMMR), string(SearchSimilarity)},
	}
	_, search, err := searchPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("search mode selection: %w", err)
	}
	cfg.Processing.QuerySearchType = SearchType(search)

	// 5. Extraction service.
	urlPrompt := promptui.Prompt{
		Label:   "Extraction service URL",
		Default: cfg.Extraction.URL,
	}
	if cfg.Extraction.URL, err = urlPrompt.Run(); err != nil {
		return nil, fmt.Errorf("extraction url: %w", err)
	}

	concPrompt := promptui.Prompt{
		Label:   "Max concurrent files",
		Default: strconv.Itoa(cfg.Processing.MaxConcurrentTasks),
		Validate: func(s string) error {
			_, err := strconv.Atoi(strings.TrimSpace(s))
			return err
		},
	}
	concStr, err := concPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("max concurrent files: %w", err)
	}
	cfg.Processing.MaxConcurrentTasks, _ = strconv.Atoi(strings.TrimSpace(concStr))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(llm); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment (or .env) before running ragcot.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

package embeddings

import (
	"context"
	"net/http"
	"strings"

	"github.com/pedroananias/rag-3w-cot/internal/httpjson"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaEmbedder embeds through the /api/embed endpoint of an Ollama
// server.
type OllamaEmbedder struct {
	baseURL    string
	model      string
	dimensions int
	batchSize  int
	client     *http.Client
}

// NewOllamaEmbedder creates an embedder for model, e.g. "nomic-embed-text".
// An empty baseURL uses the default local server.
func NewOllamaEmbedder(model string, dimensions int, baseURL string, batchSize int) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &OllamaEmbedder{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		dimensions: dimensions,
		batchSize:  batchSize,
		client:     &http.Client{},
	}
}

func (e *OllamaEmbedder) Name() string    { return "ollama/" + e.model }
func (e *OllamaEmbedder) Dimensions() int { return e.dimensions }

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return embedBatched(ctx, e.Name(), texts, e.batchSize, func(ctx context.Context, batch []string) ([][]float32, error) {
		var resp ollamaEmbedResponse
		err := httpjson.Post(ctx, e.client, e.baseURL+"/api/embed", nil, ollamaEmbedRequest{Model: e.model, Input: batch}, &resp)
		return resp.Embeddings, err
	})
}

package llm

import (
	"context"
	"net/http"
	"strings"
)

// OllamaProvider calls a local Ollama server. The model runs on the same
// machine, so the registry marks it local and batches requests to it.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaProvider creates a provider for the server at baseURL.
func NewOllamaProvider(baseURL string, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Format   string    `json:"format,omitempty"`
	Options  struct {
		// Zero is a meaningful temperature, so it is always sent.
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict,omitempty"`
	} `json:"options"`
}

type ollamaChatResponse struct {
	Model           string  `json:"model"`
	Message         Message `json:"message"`
	DoneReason      string  `json:"done_reason"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	payload := ollamaChatRequest{
		Model:    orDefault(req.Model, p.model),
		Messages: req.Messages,
	}
	payload.Options.Temperature = req.Temperature
	payload.Options.NumPredict = req.MaxTokens
	if req.JSONMode {
		payload.Format = "json"
	}

	var resp ollamaChatResponse
	if err := postJSON(ctx, p.client, p.Name(), p.baseURL+"/api/chat", nil, payload, &resp); err != nil {
		return nil, err
	}
	return &CompletionResponse{
		Content:      resp.Message.Content,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
		Model:        resp.Model,
		FinishReason: resp.DoneReason,
	}, nil
}

// ReleaseCache asks the server to unload model from memory right away, by
// generating nothing with a zero keep-alive.
func (p *OllamaProvider) ReleaseCache(ctx context.Context, model string) error {
	payload := struct {
		Model     string `json:"model"`
		KeepAlive int    `json:"keep_alive"`
	}{Model: orDefault(model, p.model)}
	return postJSON(ctx, p.client, p.Name(), p.baseURL+"/api/generate", nil, payload, nil)
}

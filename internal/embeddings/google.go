package embeddings

import (
	"context"
	"net/http"
	"strings"

	"github.com/pedroananias/rag-3w-cot/internal/httpjson"
)

const (
	defaultGoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// googleMaxBatch is the per-request limit of batchEmbedContents.
	googleMaxBatch  = 100
	googleDimension = 3072
)

// GoogleEmbedder embeds with the Gemini batchEmbedContents endpoint.
type GoogleEmbedder struct {
	apiKey    string
	model     string
	baseURL   string
	batchSize int
	client    *http.Client
}

// NewGoogleEmbedder creates an embedder. An empty baseURL uses the public
// API; batchSize is clamped to the API limit.
func NewGoogleEmbedder(apiKey, model, baseURL string, batchSize int) *GoogleEmbedder {
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	if batchSize <= 0 || batchSize > googleMaxBatch {
		batchSize = googleMaxBatch
	}
	return &GoogleEmbedder{
		apiKey:    apiKey,
		model:     model,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		batchSize: batchSize,
		client:    &http.Client{},
	}
}

func (e *GoogleEmbedder) Name() string    { return "google/" + e.model }
func (e *GoogleEmbedder) Dimensions() int { return googleDimension }

type googlePart struct {
	Text string `json:"text"`
}

type googleText struct {
	Parts []googlePart `json:"parts"`
}

type googleEmbedRequest struct {
	Model   string     `json:"model"`
	Content googleText `json:"content"`
}

type googleBatchResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	header := http.Header{}
	header.Set("x-goog-api-key", e.apiKey)
	url := e.baseURL + "/models/" + e.model + ":batchEmbedContents"

	return embedBatched(ctx, e.Name(), texts, e.batchSize, func(ctx context.Context, batch []string) ([][]float32, error) {
		requests := make([]googleEmbedRequest, len(batch))
		for i, t := range batch {
			requests[i].Model = "models/" + e.model
			requests[i].Content.Parts = []googlePart{{Text: t}}
		}

		var resp googleBatchResponse
		payload := map[string]any{"requests": requests}
		if err := httpjson.Post(ctx, e.client, url, header, payload, &resp); err != nil {
			return nil, err
		}
		vecs := make([][]float32, len(resp.Embeddings))
		for i, emb := range resp.Embeddings {
			vecs[i] = emb.Values
		}
		return vecs, nil
	})
}

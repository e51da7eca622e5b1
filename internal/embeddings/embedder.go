// Package embeddings turns text into dense vectors.
package embeddings

import (
	"context"
	"fmt"
)

// Embedder generates dense vectors for text.
type Embedder interface {
	// Embed returns one vector per text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int

	// Name is "backend/model", the same form the registry accepts.
	Name() string
}

// EmbedQuery embeds a single text.
func EmbedQuery(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%s returned %d embeddings for one text", e.Name(), len(vecs))
	}
	return vecs[0], nil
}

// batchFunc embeds one request's worth of texts.
type batchFunc func(ctx context.Context, batch []string) ([][]float32, error)

// embedBatched splits texts into requests of at most size texts and checks
// every reply carries one vector per text.
func embedBatched(ctx context.Context, name string, texts []string, size int, embed batchFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for _, batch := range batches(texts, size) {
		vecs, err := embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("%s returned %d embeddings, expected %d", name, len(vecs), len(batch))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// batches splits texts into consecutive slices of at most size entries.
func batches(texts []string, size int) [][]string {
	if size <= 0 {
		size = len(texts)
	}
	var out [][]string
	for i := 0; i < len(texts); i += size {
		end := min(i+size, len(texts))
		out = append(out, texts[i:end])
	}
	return out
}

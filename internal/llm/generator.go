package llm

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// GeneratorOptions are the decoding settings shared by every request of
// a Generator.
type GeneratorOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// Concurrency bounds in-flight requests of a batch. 1 sends them one
	// after the other.
	Concurrency int
	// ReleaseCache frees provider-side model memory after each batch.
	ReleaseCache bool
	Logger       *slog.Logger
}

// Generator answers batches of conversations with one Provider.
type Generator struct {
	provider Provider
	opts     GeneratorOptions
	usage    Usage
	logger   *slog.Logger
}

// NewGenerator creates a generator over provider.
func NewGenerator(provider Provider, opts GeneratorOptions) *Generator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		provider: provider,
		opts:     opts,
		logger:   logger.With("llm", provider.Name()),
	}
}

// Name returns the provider name.
func (g *Generator) Name() string { return g.provider.Name() }

// Model returns the configured model.
func (g *Generator) Model() string { return g.opts.Model }

// Usage returns the tokens consumed so far.
func (g *Generator) Usage() (input, output, requests int) { return g.usage.Totals() }

// Call completes every conversation of batch and returns the responses in
// batch order. The first failure cancels the rest of the batch.
func (g *Generator) Call(ctx context.Context, batch [][]Message) ([]*CompletionResponse, error) {
	return g.call(ctx, batch, false)
}

// CallJSON is Call with the provider's JSON output mode turned on.
// Providers without one ignore it.
func (g *Generator) CallJSON(ctx context.Context, batch [][]Message) ([]*CompletionResponse, error) {
	return g.call(ctx, batch, true)
}

func (g *Generator) call(ctx context.Context, batch [][]Message, jsonMode bool) ([]*CompletionResponse, error) {
	out := make([]*CompletionResponse, len(batch))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)

	g.logger.Debug("calling model", "conversations", len(batch), "concurrency", g.opts.Concurrency, "json", jsonMode)
	for i, messages := range batch {
		eg.Go(func() error {
			resp, err := g.provider.Complete(egCtx, CompletionRequest{
				Model:       g.opts.Model,
				Messages:    messages,
				MaxTokens:   g.opts.MaxTokens,
				Temperature: g.opts.Temperature,
				JSONMode:    jsonMode,
			})
			if err != nil {
				return fmt.Errorf("conversation %d: %w", i, err)
			}
			g.usage.Add(resp)
			out[i] = resp
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if g.opts.ReleaseCache {
		g.releaseCache(ctx)
	}
	return out, nil
}

func (g *Generator) releaseCache(ctx context.Context) {
	cr, ok := g.provider.(CacheReleaser)
	if !ok {
		return
	}
	if err := cr.ReleaseCache(ctx, g.opts.Model); err != nil {
		g.logger.Warn("releasing model cache failed", "error", err)
	}
}

// ToStrings returns the text of each response. Missing responses give "".
func ToStrings(responses []*CompletionResponse) []string {
	out := make([]string, len(responses))
	for i, r := range responses {
		if r != nil {
			out[i] = r.Content
		}
	}
	return out
}

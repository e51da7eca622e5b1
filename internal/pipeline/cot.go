// Package pipeline answers processed queries with a three-stage
// chain-of-thought over the language model.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pedroananias/rag-3w-cot/internal/answer"
	"github.com/pedroananias/rag-3w-cot/internal/llm"
	"github.com/pedroananias/rag-3w-cot/internal/models"
	"github.com/pedroananias/rag-3w-cot/internal/prompts"
)

// Caller completes a batch of conversations, returning one response per
// conversation in order. CallJSON asks the model for a JSON object.
type Caller interface {
	Call(ctx context.Context, batch [][]llm.Message) ([]*llm.CompletionResponse, error)
	CallJSON(ctx context.Context, batch [][]llm.Message) ([]*llm.CompletionResponse, error)
}

// CoT runs reasoning, reformatting and schema extraction in sequence.
// Every stage completes for all queries before the next one starts.
type CoT struct {
	caller Caller
	parser *answer.Parser
	out    *Output
	logger *slog.Logger
}

// NewCoT creates a pipeline exporting its stage outputs to out. A nil out
// disables the export.
func NewCoT(caller Caller, out *Output, logger *slog.Logger) *CoT {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoT{
		caller: caller,
		parser: answer.NewParser(logger),
		out:    out,
		logger: logger.With("pipeline", "cot"),
	}
}

// Run answers queries, returning one Answer per query in input order.
func (c *CoT) Run(ctx context.Context, queries []*models.Query) ([]answer.Answer, error) {
	if len(queries) == 0 {
		return []answer.Answer{}, nil
	}

	outputs, err := c.stage(ctx, prompts.StepReasoning, c.reasoningInputs, c.caller.Call, queries, nil)
	if err != nil {
		return nil, err
	}
	outputs, err = c.stage(ctx, prompts.StepFormatting, c.formattingInputs, c.caller.Call, queries, outputs)
	if err != nil {
		return nil, err
	}
	outputs, err = c.stage(ctx, prompts.StepSchema, c.schemaInputs, c.caller.CallJSON, queries, outputs)
	if err != nil {
		return nil, err
	}

	questions := make([]string, len(queries))
	kinds := make([]string, len(queries))
	for i, q := range queries {
		questions[i], kinds[i] = q.QuestionText, q.Kind
	}
	return c.parser.ParseAll(outputs, questions, kinds), nil
}

type inputBuilder func(queries []*models.Query, previous []string) ([][]llm.Message, error)

type callFunc func(ctx context.Context, batch [][]llm.Message) ([]*llm.CompletionResponse, error)

// stage builds the conversations of one stage, calls the model and
// exports the outputs under the stage name.
func (c *CoT) stage(ctx context.Context, name string, build inputBuilder, call callFunc, queries []*models.Query, previous []string) ([]string, error) {
	c.logger.Info("running stage", "stage", name, "queries", len(queries))

	batch, err := build(queries, previous)
	if err != nil {
		return nil, err
	}
	resp, err := call(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", name, err)
	}
	outputs := llm.ToStrings(resp)

	if c.out != nil {
		if err := c.out.WriteJSON(name+".json", outputs); err != nil {
			return nil, err
		}
	}
	return outputs, nil
}

func (c *CoT) reasoningInputs(queries []*models.Query, _ []string) ([][]llm.Message, error) {
	system, err := prompts.Reasoning()
	if err != nil {
		return nil, err
	}
	batch := make([][]llm.Message, len(queries))
	for i, q := range queries {
		msgs := make([]llm.Message, 0, len(q.RelevantDocuments)+2)
		msgs = append(msgs, llm.System(system))
		for _, d := range q.RelevantDocuments {
			msgs = append(msgs, llm.User(d.JSON()))
		}
		msgs = append(msgs, llm.User(q.JSON()))
		batch[i] = msgs
	}
	return batch, nil
}

func (c *CoT) formattingInputs(_ []*models.Query, previous []string) ([][]llm.Message, error) {
	system, err := prompts.Formatting()
	if err != nil {
		return nil, err
	}
	batch := make([][]llm.Message, len(previous))
	for i, prev := range previous {
		batch[i] = []llm.Message{llm.System(system), llm.User(prev)}
	}
	return batch, nil
}

func (c *CoT) schemaInputs(queries []*models.Query, previous []string) ([][]llm.Message, error) {
	batch := make([][]llm.Message, len(previous))
	for i, prev := range previous {
		system, err := prompts.Schema(queries[i].JSON())
		if err != nil {
			return nil, err
		}
		batch[i] = []llm.Message{llm.System(system), llm.User(prev)}
	}
	return batch, nil
}

// Package evaluation scores answers against ground truth.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pedroananias/rag-3w-cot/internal/answer"
)

// TruthFile is the default name of the ground-truth answers file.
const TruthFile = "true_answers.json"

// missingAnswer stands in for a question the run did not answer.
const missingAnswer = "<nil>"

// Pair is one predicted answer lined up with its expected answer, both as
// lowercased trimmed strings.
type Pair struct {
	Question string
	Answer   string
	Truth    string
}

// Metric scores a set of pairs, returning the mean over them.
type Metric interface {
	Name() string
	Score(ctx context.Context, pairs []Pair) (float64, error)
}

// Pairs matches every truth with the first answer to the same question.
func Pairs(answers, truths []answer.Answer) []Pair {
	byQuestion := make(map[string]answer.Answer, len(answers))
	for _, a := range answers {
		if _, ok := byQuestion[a.QuestionText]; !ok {
			byQuestion[a.QuestionText] = a
		}
	}

	pairs := make([]Pair, 0, len(truths))
	for _, t := range truths {
		p := Pair{Question: t.QuestionText, Answer: missingAnswer, Truth: valueKey(t)}
		if a, ok := byQuestion[t.QuestionText]; ok {
			p.Answer = valueKey(a)
		}
		pairs = append(pairs, p)
	}
	return pairs
}

func valueKey(a answer.Answer) string {
	return strings.ToLower(strings.TrimSpace(a.ValueString()))
}

// Evaluate runs every metric over pairs. A metric that fails is logged and
// left out of the result.
func Evaluate(ctx context.Context, metrics []Metric, pairs []Pair, logger *slog.Logger) map[string]float64 {
	if logger == nil {
		logger = slog.Default()
	}
	scores := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		s, err := m.Score(ctx, pairs)
		if err != nil {
			logger.Error("metric failed", "metric", m.Name(), "error", err)
			continue
		}
		logger.Info("metric computed", "metric", m.Name(), "score", s)
		scores[m.Name()] = s
	}
	return scores
}

// LoadTruths reads a JSON array of ground-truth answers.
func LoadTruths(path string) ([]answer.Answer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ground truth: %w", err)
	}
	var truths []answer.Answer
	if err := json.Unmarshal(data, &truths); err != nil {
		return nil, fmt.Errorf("decode ground truth %s: %w", path, err)
	}
	return truths, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

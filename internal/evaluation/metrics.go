package evaluation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pedroananias/rag-3w-cot/internal/embeddings"
	"github.com/pedroananias/rag-3w-cot/internal/similarity"
)

// ExactMatch scores 1 for identical strings and 0 otherwise.
type ExactMatch struct{}

func (ExactMatch) Name() string { return "exact_match" }

func (ExactMatch) Score(_ context.Context, pairs []Pair) (float64, error) {
	scores := make([]float64, len(pairs))
	for i, p := range pairs {
		if p.Answer == p.Truth {
			scores[i] = 1
		}
	}
	return mean(scores), nil
}

// Cosine is the TF-IDF cosine between answer and truth, keeping stop words.
type Cosine struct{}

func (Cosine) Name() string { return "cosine_similarity" }

func (Cosine) Score(_ context.Context, pairs []Pair) (float64, error) {
	scores := make([]float64, len(pairs))
	for i, p := range pairs {
		scores[i] = similarity.Lexical(p.Answer, p.Truth, false)
	}
	return mean(scores), nil
}

// EmbeddingCosine is the cosine between the embeddings of answer and truth.
type EmbeddingCosine struct {
	Embedder embeddings.Embedder
}

func (EmbeddingCosine) Name() string { return "embedding_cosine_similarity" }

func (m EmbeddingCosine) Score(ctx context.Context, pairs []Pair) (float64, error) {
	scores := make([]float64, len(pairs))
	for i, p := range pairs {
		a, err := embeddings.EmbedQuery(ctx, m.Embedder, p.Answer)
		if err != nil {
			return 0, fmt.Errorf("embed answer: %w", err)
		}
		t, err := embeddings.EmbedQuery(ctx, m.Embedder, p.Truth)
		if err != nil {
			return 0, fmt.Errorf("embed truth: %w", err)
		}
		scores[i] = similarity.VectorCosine(a, t)
	}
	return mean(scores), nil
}

// Rouge is the mean of the ROUGE-1, ROUGE-2 and ROUGE-L F1 scores.
type Rouge struct{}

func (Rouge) Name() string { return "rouge" }

func (Rouge) Score(_ context.Context, pairs []Pair) (float64, error) {
	var r1, r2, rl []float64
	for _, p := range pairs {
		pred, ref := rougeTokens(p.Answer), rougeTokens(p.Truth)
		r1 = append(r1, rougeN(pred, ref, 1))
		r2 = append(r2, rougeN(pred, ref, 2))
		rl = append(rl, rougeL(pred, ref))
	}
	return mean([]float64{mean(r1), mean(r2), mean(rl)}), nil
}

// DefaultMetrics returns every metric. The embedding metric is left out
// when e is nil.
func DefaultMetrics(e embeddings.Embedder) []Metric {
	metrics := []Metric{ExactMatch{}, Cosine{}}
	if e != nil {
		metrics = append(metrics, EmbeddingCosine{Embedder: e})
	}
	return append(metrics, Rouge{})
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func rougeTokens(s string) []string {
	return strings.Fields(nonAlnum.ReplaceAllString(strings.ToLower(s), " "))
}

func ngrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

func f1(overlap, predicted, reference int) float64 {
	if overlap == 0 {
		return 0
	}
	p := float64(overlap) / float64(predicted)
	r := float64(overlap) / float64(reference)
	return 2 * p * r / (p + r)
}

// rougeN is the F1 of clipped n-gram overlap.
func rougeN(pred, ref []string, n int) float64 {
	pc, rc := ngrams(pred, n), ngrams(ref, n)
	var overlap, predTotal, refTotal int
	for g, c := range pc {
		predTotal += c
		overlap += min(c, rc[g])
	}
	for _, c := range rc {
		refTotal += c
	}
	return f1(overlap, predTotal, refTotal)
}

// rougeL is the F1 of the longest common subsequence.
func rougeL(pred, ref []string) float64 {
	if len(pred) == 0 || len(ref) == 0 {
		return 0
	}
	prev := make([]int, len(ref)+1)
	cur := make([]int, len(ref)+1)
	for i := 1; i <= len(pred); i++ {
		for j := 1; j <= len(ref); j++ {
			switch {
			case pred[i-1] == ref[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return f1(prev[len(ref)], len(pred), len(ref))
}

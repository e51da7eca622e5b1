package vectordb

import (
	"math"

	"github.com/pedroananias/rag-3w-cot/internal/similarity"
)

// defaultFetchK is the minimum number of nearest neighbours MMR chooses from.
const defaultFetchK = 20

// maximalMarginalRelevance picks up to k indices of candidates, starting
// from the one closest to query and then repeatedly taking the candidate
// that maximises lambda*relevance - (1-lambda)*redundancy.
func maximalMarginalRelevance(query []float32, candidates [][]float32, k int, lambda float64) []int {
	n := min(k, len(candidates))
	if n <= 0 {
		return nil
	}

	relevance := make([]float64, len(candidates))
	best := 0
	for i, c := range candidates {
		relevance[i] = similarity.VectorCosine(query, c)
		if relevance[i] > relevance[best] {
			best = i
		}
	}

	selected := []int{best}
	chosen := map[int]bool{best: true}
	// redundancy[i] is the max similarity of candidate i to any selected one.
	redundancy := make([]float64, len(candidates))
	for i := range redundancy {
		redundancy[i] = math.Inf(-1)
	}

	for len(selected) < n {
		last := candidates[selected[len(selected)-1]]
		bestScore, pick := math.Inf(-1), -1
		for i, c := range candidates {
			if chosen[i] {
				continue
			}
			redundancy[i] = math.Max(redundancy[i], similarity.VectorCosine(c, last))
			score := lambda*relevance[i] - (1-lambda)*redundancy[i]
			if score > bestScore {
				bestScore, pick = score, i
			}
		}
		if pick < 0 {
			break
		}
		selected = append(selected, pick)
		chosen[pick] = true
	}
	return selected
}

package embeddings

import (
	"context"
	"fmt"
	"math"
)

// precisionEmbedder rounds every vector component to a reduced float
// precision, so indexes built at different precisions never mix.
type precisionEmbedder struct {
	Embedder
	precision string
	round     func(float32) float32
}

// WithPrecision wraps e to emit vectors at the given precision:
// "float32" (unchanged), "float16" or "bfloat16".
func WithPrecision(e Embedder, precision string) (Embedder, error) {
	switch precision {
	case "", "float32":
		return e, nil
	case "float16":
		return &precisionEmbedder{Embedder: e, precision: precision, round: roundFloat16}, nil
	case "bfloat16":
		return &precisionEmbedder{Embedder: e, precision: precision, round: roundBFloat16}, nil
	default:
		return nil, fmt.Errorf("unsupported embeddings precision %q", precision)
	}
}

func (p *precisionEmbedder) Name() string {
	return p.Embedder.Name() + "@" + p.precision
}

func (p *precisionEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := p.Embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	for _, v := range vecs {
		for i, x := range v {
			v[i] = p.round(x)
		}
		renormalize(v)
	}
	return vecs, nil
}

// roundFloat16 keeps 10 mantissa bits.
func roundFloat16(x float32) float32 {
	return roundMantissa(x, 10)
}

// roundBFloat16 keeps 7 mantissa bits.
func roundBFloat16(x float32) float32 {
	return roundMantissa(x, 7)
}

func roundMantissa(x float32, bits uint) float32 {
	if x == 0 || math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
		return x
	}
	shift := 23 - bits
	u := math.Float32bits(x)
	u += 1 << (shift - 1)
	u &^= (1 << shift) - 1
	return math.Float32frombits(u)
}

// renormalize restores unit length after rounding.
func renormalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	n := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= n
	}
}

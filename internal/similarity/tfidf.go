// Package similarity provides lexical (TF-IDF) and vector cosine similarity.
package similarity

import (
	"math"
	"regexp"
	"strings"
)

// tokenPattern matches words of two or more word characters.
var tokenPattern = regexp.MustCompile(`\w\w+`)

// Vector is a sparse, L2-normalised TF-IDF vector keyed by term index.
type Vector map[int]float64

// Vectorizer builds TF-IDF vectors over a fitted vocabulary. Term
// frequencies are raw counts, IDF is smoothed, and vectors are L2
// normalised.
type Vectorizer struct {
	stopWords  bool
	vocabulary map[string]int
	idf        []float64
}

// NewVectorizer creates an unfitted vectorizer. With stopWords set,
// English stop words are excluded from the vocabulary.
func NewVectorizer(stopWords bool) *Vectorizer {
	return &Vectorizer{stopWords: stopWords, vocabulary: map[string]int{}}
}

// VocabularySize returns the number of fitted terms.
func (v *Vectorizer) VocabularySize() int { return len(v.vocabulary) }

func (v *Vectorizer) tokenize(text string) []string {
	toks := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if !v.stopWords {
		return toks
	}
	out := toks[:0]
	for _, t := range toks {
		if !isStopWord(t) {
			out = append(out, t)
		}
	}
	return out
}

// Fit learns the vocabulary and IDF weights from corpus.
func (v *Vectorizer) Fit(corpus []string) {
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range v.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	v.vocabulary = make(map[string]int, len(df))
	v.idf = make([]float64, 0, len(df))
	n := float64(len(corpus))
	for term, count := range df {
		v.vocabulary[term] = len(v.idf)
		v.idf = append(v.idf, math.Log((1+n)/(1+float64(count)))+1)
	}
}

// Transform maps text onto the fitted vocabulary. Unknown terms are ignored.
func (v *Vectorizer) Transform(text string) Vector {
	vec := Vector{}
	for _, tok := range v.tokenize(text) {
		if idx, ok := v.vocabulary[tok]; ok {
			vec[idx]++
		}
	}
	var norm float64
	for idx, tf := range vec {
		w := tf * v.idf[idx]
		vec[idx] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for idx := range vec {
		vec[idx] /= norm
	}
	return vec
}

// FitTransform fits on corpus and returns the vector of each entry.
func (v *Vectorizer) FitTransform(corpus []string) []Vector {
	v.Fit(corpus)
	out := make([]Vector, len(corpus))
	for i, text := range corpus {
		out[i] = v.Transform(text)
	}
	return out
}

// Cosine returns the cosine similarity of two vectors.
func Cosine(a, b Vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot, na, nb float64
	for idx, x := range a {
		dot += x * b[idx]
		na += x * x
	}
	if dot == 0 {
		return 0
	}
	for _, y := range b {
		nb += y * y
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Lexical scores how much of text1's vocabulary text2 covers. The
// vocabulary and IDF weights come from text1 alone, so the measure is
// asymmetric. Text with no usable tokens scores 0.
func Lexical(text1, text2 string, stopWords bool) float64 {
	v := NewVectorizer(stopWords)
	v.Fit([]string{text1})
	if v.VocabularySize() == 0 {
		return 0
	}
	return Cosine(v.Transform(text1), v.Transform(text2))
}

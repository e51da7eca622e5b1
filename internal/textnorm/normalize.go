// Package textnorm reduces free text to its content words.
package textnorm

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// forbiddenTags are Penn Treebank tags of function words: conjunctions,
// determiners, prepositions, pronouns, modals, adverbs, particles, symbols,
// interjections and wh-words.
var forbiddenTags = map[string]bool{
	"CC": true, "DT": true, "EX": true, "IN": true, "LS": true, "MD": true,
	"PDT": true, "POS": true, "PRP": true, "PRP$": true, "RB": true, "RBR": true,
	"RBS": true, "RP": true, "SYM": true, "TO": true, "UH": true, "WDT": true,
	"WP": true, "WP$": true, "WRB": true,
}

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Token is a tagged word.
type Token struct {
	Text string
	Tag  string
}

// Tokenize splits text into POS-tagged tokens.
func Tokenize(text string) ([]Token, error) {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("tagging text: %w", err)
	}
	toks := doc.Tokens()
	out := make([]Token, len(toks))
	for i, t := range toks {
		out[i] = Token{Text: t.Text, Tag: t.Tag}
	}
	return out, nil
}

// Normalize returns the lowercase content words of sentence in their
// original order, joined by single spaces. Tagging failures degrade to
// the input lowercased and trimmed.
func Normalize(sentence string) string {
	toks, err := Tokenize(sentence)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(sentence))
	}

	words := make([]string, 0, len(toks))
	for _, t := range toks {
		w := strings.Trim(strings.ToLower(t.Text), "'")
		if w == "" || IsStopword(w) || isPunctuation(w) || forbiddenTags[t.Tag] {
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

func isPunctuation(w string) bool {
	return strings.Trim(w, punctuation) == ""
}

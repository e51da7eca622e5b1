package textnorm

import (
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

// MaxYearElementChars bounds which elements are scanned for years. Short
// elements are headers, titles and captions, where the reporting year lives.
const MaxYearElementChars = 250

// yearWindow is how many years back from now a report year may be.
const yearWindow = 10

// InferYear estimates the publication year of a document from its short
// elements: the rounded mean of every four-digit number within the ten
// years before now. It returns -1 when no such number is found.
func InferYear(contents []string, now time.Time) int {
	lo, hi := now.Year()-yearWindow, now.Year()-1

	var sum, n int
	for _, c := range contents {
		if c == "" || utf8.RuneCountInString(c) > MaxYearElementChars {
			continue
		}
		toks, err := Tokenize(c)
		if err != nil {
			continue
		}
		for _, t := range toks {
			if t.Tag != "CD" || len(t.Text) != 4 {
				continue
			}
			y, err := strconv.Atoi(t.Text)
			if err != nil || y < lo || y > hi {
				continue
			}
			sum += y
			n++
		}
	}
	if n == 0 {
		return -1
	}
	return int(math.RoundToEven(float64(sum) / float64(n)))
}

package processor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/pedroananias/rag-3w-cot/internal/models"
	"github.com/pedroananias/rag-3w-cot/internal/similarity"
	"github.com/pedroananias/rag-3w-cot/internal/textnorm"
)

var blankLines = regexp.MustCompile(`\n\s*\n`)

// cleanMarkdown replaces non-breaking spaces and collapses runs of blank
// lines into one.
func cleanMarkdown(md string) string {
	md = strings.ReplaceAll(md, "\u00a0", " ")
	md = strings.TrimSpace(md)
	return blankLines.ReplaceAllString(md, "\n\n")
}

// toMarkdown converts an HTML document to markdown. Other documents are
// returned unchanged.
func toMarkdown(doc models.Document) (models.Document, error) {
	if doc.Metadata.ContentType != models.ContentHTML {
		return doc, nil
	}
	md, err := htmltomarkdown.ConvertString(doc.PageContent)
	if err != nil {
		return doc, err
	}
	doc.PageContent = cleanMarkdown(md)
	doc.Metadata.ContentType = models.ContentMarkdown
	return doc, nil
}

// RemoveDuplicates drops documents whose normalized content equals that
// of an earlier document.
func RemoveDuplicates(docs []models.Document) []models.Document {
	seen := make(map[string]bool, len(docs))
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		key := textnorm.Normalize(d.PageContent)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

// RemoveSmall keeps documents longer than minChars characters. A
// non-positive minChars keeps everything.
func RemoveSmall(docs []models.Document, minChars int) []models.Document {
	if minChars <= 0 {
		return docs
	}
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if utf8.RuneCountInString(d.PageContent) > minChars {
			out = append(out, d)
		}
	}
	return out
}

// RemoveSimilar drops every document whose TF-IDF similarity to an earlier
// surviving document exceeds threshold. A non-positive threshold keeps
// everything.
func RemoveSimilar(docs []models.Document, threshold float64) []models.Document {
	if threshold <= 0 || len(docs) < 2 {
		return docs
	}
	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.PageContent
	}
	vecs := similarity.NewVectorizer(true).FitTransform(contents)

	removed := make([]bool, len(docs))
	for i := range docs {
		if removed[i] {
			continue
		}
		for j := i + 1; j < len(docs); j++ {
			if removed[j] {
				continue
			}
			if similarity.Cosine(vecs[i], vecs[j]) > threshold {
				removed[j] = true
			}
		}
	}

	out := make([]models.Document, 0, len(docs))
	for i, d := range docs {
		if !removed[i] {
			out = append(out, d)
		}
	}
	return out
}

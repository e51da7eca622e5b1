package vectordb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/pedroananias/rag-3w-cot/internal/models"
	"github.com/pedroananias/rag-3w-cot/internal/similarity"
)

// ensureIDs gives every document without an id a random one.
func ensureIDs(docs []models.Document) []models.Document {
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = uuid.NewString()
		}
	}
	return docs
}

// DeduplicateByID keeps one document per id. A later duplicate replaces
// the earlier one but keeps its position.
func DeduplicateByID(docs []models.Document) []models.Document {
	pos := make(map[string]int, len(docs))
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if i, ok := pos[d.ID]; ok {
			out[i] = d
			continue
		}
		pos[d.ID] = len(out)
		out = append(out, d)
	}
	return out
}

// FilterDocuments keeps documents whose metadata matches every key/value
// pair of filter. An empty filter keeps everything.
func FilterDocuments(docs []models.Document, filter map[string]string) []models.Document {
	if len(filter) == 0 {
		return docs
	}
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		md := d.Metadata.ToMap()
		match := true
		for k, v := range filter {
			if got, ok := md[k]; !ok || got != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, d)
		}
	}
	return out
}

// AddScores attaches the lexical similarity between question and each
// document's content.
func AddScores(question string, docs []models.Document) []models.Document {
	out := make([]models.Document, len(docs))
	for i, d := range docs {
		out[i] = d.WithScore(similarity.Lexical(question, d.PageContent, true))
	}
	return out
}

// SortByScore orders documents by descending score, treating a missing
// score as 0. Ties keep their relative order.
func SortByScore(docs []models.Document) []models.Document {
	if len(docs) <= 1 {
		if docs == nil {
			return []models.Document{}
		}
		return docs
	}
	out := make([]models.Document, len(docs))
	copy(out, docs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScoreOrZero() > out[j].ScoreOrZero()
	})
	return out
}

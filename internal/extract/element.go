package extract

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pedroananias/rag-3w-cot/internal/models"
	"github.com/pedroananias/rag-3w-cot/internal/textnorm"
)

// Element is one structured unit returned by the extraction service.
type Element struct {
	ID        string          `json:"id,omitempty"`
	ElementID string          `json:"element_id,omitempty"`
	Type      string          `json:"type,omitempty"`
	Text      string          `json:"text"`
	Metadata  ElementMetadata `json:"metadata"`
}

// ElementMetadata is the subset of element metadata the pipeline reads.
type ElementMetadata struct {
	Filename    string       `json:"filename,omitempty"`
	PageIndex   *json.Number `json:"page_index,omitempty"`
	PageNumber  *json.Number `json:"page_number,omitempty"`
	ContentType string       `json:"content_type,omitempty"`
	TextAsHTML  *string      `json:"text_as_html,omitempty"`
}

// OwnerFunc resolves the owner of a source identity.
type OwnerFunc func(sha1 string) (string, bool)

// ToDocuments maps elements onto Documents. Elements without content are
// skipped. Every document gets the publication year inferred from the
// whole element set; fallbackName names the source when an element
// carries no filename.
func ToDocuments(elements []Element, fallbackName string, owner OwnerFunc, now time.Time) []models.Document {
	if len(elements) == 0 {
		return []models.Document{}
	}

	texts := make([]string, len(elements))
	for i, e := range elements {
		texts[i] = e.Text
	}
	year := textnorm.InferYear(texts, now)

	docs := make([]models.Document, 0, len(elements))
	for _, e := range elements {
		content := e.Text
		if content == "" {
			continue
		}

		id := e.ID
		if id == "" {
			id = e.ElementID
		}

		filename := e.Metadata.Filename
		if filename == "" {
			filename = fallbackName
		}
		sha1, _, _ := strings.Cut(filename, ".")

		name := filename
		if owner != nil {
			if o, ok := owner(sha1); ok {
				name = o
			}
		}

		contentType := e.Metadata.ContentType
		if contentType == "" {
			contentType = models.ContentText
		}
		if e.Metadata.TextAsHTML != nil {
			contentType = models.ContentHTML
			content = *e.Metadata.TextAsHTML
		}

		docs = append(docs, models.Document{
			ID:          id,
			PageContent: content,
			Metadata: models.Metadata{
				PDFSHA1:     sha1,
				PageIndex:   pageIndex(e.Metadata),
				Owner:       name,
				Year:        year,
				ContentType: contentType,
			},
		})
	}
	return docs
}

// pageIndex prefers an explicit zero-based index, then the one-based
// page number. Unparseable values give -1.
func pageIndex(md ElementMetadata) int {
	if md.PageIndex != nil {
		if n, err := strconv.Atoi(md.PageIndex.String()); err == nil {
			return n
		}
		return -1
	}
	if md.PageNumber != nil {
		if n, err := strconv.Atoi(md.PageNumber.String()); err == nil {
			return n - 1
		}
		return -1
	}
	return -1
}

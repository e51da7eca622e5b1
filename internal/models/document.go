// Package models holds the records passed between pipeline stages.
package models

import (
	"encoding/json"
	"strconv"
)

// Content types of extracted elements.
const (
	ContentText     = "text"
	ContentHTML     = "html"
	ContentMarkdown = "markdown"
)

// Metadata keys, as stored in the index and matched by filters.
const (
	KeyPDFSHA1     = "pdf_sha1"
	KeyPageIndex   = "page_index"
	KeyOwner       = "owner"
	KeyYear        = "year"
	KeyContentType = "content_type"
	KeyScore       = "score"
)

// Metadata describes where a Document came from.
type Metadata struct {
	PDFSHA1     string `json:"pdf_sha1"`
	PageIndex   int    `json:"page_index"`
	Owner       string `json:"owner"`
	Year        int    `json:"year"`
	ContentType string `json:"content_type"`

	// Score is set during retrieval and absent until then.
	Score *float64 `json:"score,omitempty"`
}

// Document is an extracted content unit.
type Document struct {
	ID          string   `json:"id"`
	Metadata    Metadata `json:"metadata"`
	PageContent string   `json:"page_content"`
}

// ScoreOrZero returns the retrieval score, treating a missing score as 0.
func (d Document) ScoreOrZero() float64 {
	if d.Metadata.Score == nil {
		return 0
	}
	return *d.Metadata.Score
}

// WithScore returns a copy of d carrying score.
func (d Document) WithScore(score float64) Document {
	d.Metadata.Score = &score
	return d
}

// JSON serialises the document for prompting and export.
func (d Document) JSON() string {
	data, err := json.Marshal(d)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ToMap flattens metadata into string pairs, the form used by the index
// and by filters.
func (m Metadata) ToMap() map[string]string {
	out := map[string]string{
		KeyPDFSHA1:     m.PDFSHA1,
		KeyPageIndex:   strconv.Itoa(m.PageIndex),
		KeyOwner:       m.Owner,
		KeyYear:        strconv.Itoa(m.Year),
		KeyContentType: m.ContentType,
	}
	if m.Score != nil {
		out[KeyScore] = strconv.FormatFloat(*m.Score, 'f', -1, 64)
	}
	return out
}

// MetadataFromMap is the inverse of ToMap. Unparseable numbers default to -1.
func MetadataFromMap(m map[string]string) Metadata {
	md := Metadata{
		PDFSHA1:     m[KeyPDFSHA1],
		PageIndex:   atoiOr(m[KeyPageIndex], -1),
		Owner:       m[KeyOwner],
		Year:        atoiOr(m[KeyYear], -1),
		ContentType: m[KeyContentType],
	}
	if s, ok := m[KeyScore]; ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			md.Score = &f
		}
	}
	return md
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// DocumentSchemaExample is the document shape shown to the model.
const DocumentSchemaExample = `{
    "id": "<uuid>",
    "metadata": {
        "pdf_sha1": "<sha1>",
        "page_index": "<int>",
        "owner": "<owner>",
        "year": "<int>",
        "content_type": "<text|html|markdown>",
        "score": "<float>"
    },
    "page_content": "<content>"
}`

package models

import (
	"encoding/json"
	"strings"
)

// Query is a user question and, after processing, its retrieval context.
type Query struct {
	QuestionText string `json:"question_text"`
	Kind         string `json:"kind"`

	// Set by the query processor.
	QuestionExpanded           string     `json:"-"`
	QuestionNormalizedExpanded string     `json:"-"`
	RelevantFiles              []string   `json:"-"`
	RelevantDocuments          []Document `json:"-"`
}

// NewQuery creates a query, replacing double quotes in the question with
// single quotes so it embeds cleanly in JSON prompts.
func NewQuery(question, kind string) *Query {
	return &Query{
		QuestionText: strings.ReplaceAll(question, `"`, `'`),
		Kind:         kind,
	}
}

// JSON serialises the question and kind.
func (q *Query) JSON() string {
	data, err := json.Marshal(q)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// QueryDump is the audit record of a processed query.
type QueryDump struct {
	Question                   string     `json:"question"`
	Kind                       string     `json:"kind"`
	QuestionExpanded           string     `json:"question_expanded"`
	QuestionNormalizedExpanded string     `json:"question_normalized_expanded"`
	RelevantFiles              []string   `json:"relevant_files"`
	RelevantDocuments          []Document `json:"relevant_documents"`
}

// Dump returns the audit record of q.
func (q *Query) Dump() QueryDump {
	files := q.RelevantFiles
	if files == nil {
		files = []string{}
	}
	docs := q.RelevantDocuments
	if docs == nil {
		docs = []Document{}
	}
	return QueryDump{
		Question:                   q.QuestionText,
		Kind:                       q.Kind,
		QuestionExpanded:           q.QuestionExpanded,
		QuestionNormalizedExpanded: q.QuestionNormalizedExpanded,
		RelevantFiles:              files,
		RelevantDocuments:          docs,
	}
}

// QuestionInput is one entry of a questions file.
type QuestionInput struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

// QuerySchemaExample is the query shape shown to the model.
const QuerySchemaExample = `{"question_text": "<string>", "kind": "<number|name|boolean|names>"}`

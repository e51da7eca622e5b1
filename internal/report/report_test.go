package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pedroananias/rag-3w-cot/internal/answer"
	"github.com/pedroananias/rag-3w-cot/internal/models"
)

func sampleRun() Run {
	score := 0.82
	return Run{
		Title: "Run 20240501_100000",
		Answers: []answer.Answer{
			answer.New("Did Acme_Corp pay a dividend?", "boolean", true, []answer.Reference{{PDFSHA1: "abc", PageIndex: 4}}),
			answer.New("How many employees?", "number", 120, nil),
		},
		Queries: []models.QueryDump{
			{
				Question:      "Did Acme_Corp pay a dividend?",
				RelevantFiles: []string{"abc"},
				RelevantDocuments: []models.Document{
					{PageContent: "## Dividends\nA dividend of $1 was paid.", Metadata: models.Metadata{Owner: "Acme Corp", PageIndex: 4, ContentType: "text", Score: &score}},
					{PageContent: "second", Metadata: models.Metadata{Owner: "Acme Corp", PageIndex: 5, ContentType: "text"}},
				},
			},
		},
		Scores:       map[string]float64{"rouge": 0.5, "exact_match": 1},
		MaxDocuments: 1,
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleRun())

	for _, want := range []string{
		"# Run 20240501_100000",
		"| exact_match | 1.0000 |",
		`### 1. Did Acme\_Corp pay a dividend?`,
		"- **Value:** true",
		"```json",
		"Relevant files: abc",
		"#### Acme Corp, page 4 (text, score 0.8200)",
		"> ## Dividends",
		"### 2. How many employees?",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	if strings.Contains(md, "page 5") {
		t.Error("MaxDocuments should cap the listed documents")
	}
	if strings.Index(md, "exact_match") > strings.Index(md, "rouge") {
		t.Error("scores should be sorted by metric name")
	}
}

func TestMarkdownDefaultTitle(t *testing.T) {
	if md := Markdown(Run{}); !strings.HasPrefix(md, "# Run report\n") {
		t.Errorf("unexpected title: %q", md)
	}
}

func TestRender(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, sampleRun()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<title>Run 20240501_100000</title>",
		"<table>",
		"<blockquote>",
		"Did Acme_Corp pay a dividend?",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if strings.Contains(out, "```") {
		t.Error("fenced block should be rendered, not left as text")
	}
}

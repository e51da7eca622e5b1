package answer

import (
	"io"
	"log/slog"
	"testing"
)

func quietParser() *Parser {
	return NewParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseStrict(t *testing.T) {
	raw := `{"question_text": "What was revenue?", "kind": "number", "value": "42", "references": [{"pdf_sha1": "abc", "page_index": "3"}]}`
	a := quietParser().Parse(raw, "What was revenue?", "number")

	if a.Value != 42 {
		t.Errorf("value: got %#v, want 42", a.Value)
	}
	if len(a.References) != 1 || a.References[0].PDFSHA1 != "abc" || a.References[0].PageIndex != 3 {
		t.Errorf("references: %+v", a.References)
	}
}

func TestParseNullValueIsNotSentinel(t *testing.T) {
	raw := `{"question_text": "Who is the CFO?", "kind": "name", "value": null, "references": [{"pdf_sha1": "abc", "page_index": 2}]}`
	a := quietParser().Parse(raw, "Who is the CFO?", "name")

	if a.Value != NullValue {
		t.Errorf("value: got %#v, want %q", a.Value, NullValue)
	}
	if a.IsSentinel() {
		t.Error("a parsed null answer must not look like the sentinel")
	}
	if len(a.References) != 1 {
		t.Errorf("references: %+v", a.References)
	}
}

func TestParseUsesCallerQuestionOnLooseJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"wrong question", `{"question_text": "Something else", "kind": "name", "value": 12.5, "references": []}`},
		{"partial record", `{"value": 12.5, "references": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := quietParser().Parse(tt.raw, "What was EPS?", "number")
			if a.QuestionText != "What was EPS?" || a.Kind != "number" {
				t.Errorf("expected caller question and kind, got %q / %q", a.QuestionText, a.Kind)
			}
			if a.Value != 12.5 {
				t.Errorf("value: got %#v", a.Value)
			}
		})
	}
}

func TestParseFencedBlock(t *testing.T) {
	raw := "Here is the answer:\n```json\n{\"value\": \"no\", \"references\": [{\"pdf_sha1\": \"x\", \"page_index\": 1}]}\n```\nDone."
	a := quietParser().Parse(raw, "Any layoffs?", "boolean")
	if a.Value != false {
		t.Errorf("value: got %#v, want false", a.Value)
	}
	if len(a.References) != 1 || a.References[0].PageIndex != 1 {
		t.Errorf("references: %+v", a.References)
	}
}

func TestParseFallsBackToSentinel(t *testing.T) {
	tests := []string{
		"I could not find the answer.",
		`{"value": 1}`,
		"```json\nnot json\n```",
		"",
	}
	for _, raw := range tests {
		a := quietParser().Parse(raw, "Q?", "name")
		if a.Value != NotAvailable || len(a.References) != 0 {
			t.Errorf("Parse(%q) = %+v, want sentinel", raw, a)
		}
		if !a.IsSentinel() {
			t.Errorf("IsSentinel false for %q", raw)
		}
		if a.References == nil {
			t.Error("sentinel references should be an empty list")
		}
	}
}

func TestParseAllPreservesOrder(t *testing.T) {
	outputs := []string{
		`{"value": "a", "references": []}`,
		"garbage",
	}
	questions := []string{"q1", "q2", "q3"}
	kinds := []string{"name", "name", "name"}

	answers := quietParser().ParseAll(outputs, questions, kinds)
	if len(answers) != 3 {
		t.Fatalf("expected 3 answers, got %d", len(answers))
	}
	if answers[0].Value != "a" || answers[0].QuestionText != "q1" {
		t.Errorf("answer 0: %+v", answers[0])
	}
	if !answers[1].IsSentinel() || !answers[2].IsSentinel() {
		t.Error("unparseable and missing outputs should be sentinels")
	}
}

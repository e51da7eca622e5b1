package answer

import (
	"encoding/json"
	"testing"
)

func TestCastValue(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{true, true},
		{"true", true},
		{"FALSE", false},
		{"yes", true},
		{"No", false},
		{"42", 42},
		{"42.5", 42.5},
		{"-3", -3},
		{"hello", "hello"},
		{"007", "007"},
		{"42.50", 42.5},
		{"42.0", 42.0},
		{"1e3", 1000.0},
		{"+42", 42.0},
		{" 7.5 ", 7.5},
		{"0x1p4", "0x1p4"},
		{"", ""},
		{json.Number("12"), 12},
		{json.Number("12.0"), 12.0},
		{3.25, 3.25},
		{nil, NullValue},
		{[]any{"a"}, `["a"]`},
	}
	for _, tt := range tests {
		got := CastValue(tt.in)
		if got != tt.want {
			t.Errorf("CastValue(%#v) = %#v (%T), want %#v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}
}

func TestCastPageIndex(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`3`, 3},
		{`"12"`, 12},
		{`"012"`, -1},
		{`"page 4"`, -1},
		{`4.5`, -1},
		{`null`, -1},
	}
	for _, tt := range tests {
		if got := castPageIndex(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("castPageIndex(%s) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{true, "true"},
		{42, "42"},
		{7.0, "7.0"},
		{42.5, "42.5"},
		{"Acme", "Acme"},
		{nil, "<nil>"},
	}
	for _, tt := range tests {
		a := Answer{Value: tt.value}
		if got := a.ValueString(); got != tt.want {
			t.Errorf("ValueString(%#v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestAnswerJSONRoundTrip(t *testing.T) {
	a := New(`Did "Acme" pay a dividend?`, "boolean", "yes", []Reference{{PDFSHA1: "abc", PageIndex: 2}})
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	var back Answer
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.QuestionText != "Did 'Acme' pay a dividend?" {
		t.Errorf("question: %q", back.QuestionText)
	}
	if back.Value != true {
		t.Errorf("value: %#v", back.Value)
	}
	if len(back.References) != 1 || back.References[0] != (Reference{"abc", 2}) {
		t.Errorf("references: %+v", back.References)
	}
}

func TestUnmarshalRequiresFields(t *testing.T) {
	for _, raw := range []string{
		`{"kind": "number", "value": 1}`,
		`{"question_text": "q", "value": 1}`,
		`{"question_text": "q", "kind": "number"}`,
		`{"question_text": "q", "kind": "number", "value": 1, "references": [{"page_index": 1}]}`,
		`{"question_text": "q", "kind": "number", "value": 1} trailing`,
	} {
		var a Answer
		if err := json.Unmarshal([]byte(raw), &a); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}

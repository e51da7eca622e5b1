// Package answer defines the structured answer record and the parser that
// recovers it from model output.
package answer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// NotAvailable is the value of an answer that could not be parsed.
const NotAvailable = "N/A"

// NullValue is the value of an answer whose model output held a JSON
// null. It stays distinct from NotAvailable: the output did parse.
const NullValue = "None"

// Reference points at the page an answer was taken from.
type Reference struct {
	PDFSHA1   string `json:"pdf_sha1"`
	PageIndex int    `json:"page_index"`
}

// Answer is the final structured output for one query. Value holds a
// bool, int, float64 or string.
type Answer struct {
	QuestionText string      `json:"question_text"`
	Kind         string      `json:"kind"`
	Value        any         `json:"value"`
	References   []Reference `json:"references"`
}

// New builds an answer, casting raw into its typed value.
func New(question, kind string, value any, refs []Reference) Answer {
	if refs == nil {
		refs = []Reference{}
	}
	return Answer{
		QuestionText: strings.ReplaceAll(question, `"`, `'`),
		Kind:         kind,
		Value:        CastValue(value),
		References:   refs,
	}
}

// Sentinel returns the answer used when nothing could be parsed.
func Sentinel(question, kind string) Answer {
	return New(question, kind, NotAvailable, nil)
}

// IsSentinel reports whether a holds the not-available value.
func (a Answer) IsSentinel() bool {
	s, ok := a.Value.(string)
	return ok && s == NotAvailable && len(a.References) == 0
}

// CastValue resolves the type of a raw answer value. The first matching
// rule wins: bool, "true"/"false", "yes"/"no", an integer whose text
// round-trips, a float, and finally the value as a string. Numeric
// strings must round-trip exactly, so "007" stays a string.
func CastValue(v any) any {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return x
	case json.Number:
		s := x.String()
		if n, err := strconv.Atoi(s); err == nil && strconv.Itoa(n) == s {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return s
	case string:
		switch strings.ToLower(x) {
		case "true", "yes":
			return true
		case "false", "no":
			return false
		}
		if n, err := strconv.Atoi(x); err == nil && strconv.Itoa(n) == x {
			return n
		}
		if f, ok := parseFloat(x); ok {
			return f
		}
		return x
	case nil:
		return NullValue
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
}

// parseFloat accepts decimal and exponent forms with surrounding space.
// Only integers must round-trip; "42.50" and "1e3" are floats.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// castPageIndex accepts integers and integer strings that round-trip.
// Anything else becomes -1.
func castPageIndex(raw json.RawMessage) int {
	var n json.Number
	var v any
	if err := decodeJSON(raw, &v); err != nil {
		return -1
	}
	switch x := v.(type) {
	case json.Number:
		n = x
	case string:
		n = json.Number(x)
	default:
		return -1
	}
	i, err := strconv.Atoi(n.String())
	if err != nil || strconv.Itoa(i) != n.String() {
		return -1
	}
	return i
}

// ValueString renders the value for comparison with ground truth.
// Integral floats keep a trailing ".0".
func (a Answer) ValueString() string {
	switch x := a.Value.(type) {
	case nil:
		return "<nil>"
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	default:
		return fmt.Sprint(x)
	}
}

// rawReference mirrors Reference with required fields left undecoded.
type rawReference struct {
	PDFSHA1   *string         `json:"pdf_sha1"`
	PageIndex json.RawMessage `json:"page_index"`
}

func (r rawReference) reference() (Reference, error) {
	if r.PDFSHA1 == nil {
		return Reference{}, fmt.Errorf("reference missing pdf_sha1")
	}
	if len(r.PageIndex) == 0 {
		return Reference{}, fmt.Errorf("reference missing page_index")
	}
	return Reference{PDFSHA1: *r.PDFSHA1, PageIndex: castPageIndex(r.PageIndex)}, nil
}

// UnmarshalJSON decodes an answer record, casting its value and page
// indices. question_text, kind and value are required.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw struct {
		QuestionText *string        `json:"question_text"`
		Kind         *string        `json:"kind"`
		Value        json.RawMessage `json:"value"`
		References   []rawReference `json:"references"`
	}
	if err := decodeJSON(data, &raw); err != nil {
		return err
	}
	if raw.QuestionText == nil {
		return fmt.Errorf("answer missing question_text")
	}
	if raw.Kind == nil {
		return fmt.Errorf("answer missing kind")
	}
	value, err := decodeValue(raw.Value)
	if err != nil {
		return err
	}
	refs, err := convertReferences(raw.References)
	if err != nil {
		return err
	}
	*a = New(*raw.QuestionText, *raw.Kind, value, refs)
	return nil
}

// decodeJSON decodes exactly one JSON value, keeping numbers as json.Number.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("answer missing value")
	}
	var v any
	if err := decodeJSON(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding value: %w", err)
	}
	return v, nil
}

func convertReferences(raw []rawReference) ([]Reference, error) {
	refs := make([]Reference, 0, len(raw))
	for _, r := range raw {
		ref, err := r.reference()
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// SchemaExample is the answer shape shown to the model.
const SchemaExample = `{
    "question_text": "<original question>",
    "kind": "<original kind>",
    "value": "<your answer>",
    "references": [
        {
            "pdf_sha1": "<file sha1>",
            "page_index": "<page number>"
        }
    ]
}`

package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```json\n(.*?)\n```")

// strategy tries to recover an answer from raw model output.
type strategy struct {
	name  string
	parse func(raw, question, kind string) (Answer, error)
}

// Parser converts model output into answers by trying progressively
// looser strategies. It never fails: when every strategy is exhausted
// it returns the sentinel answer.
type Parser struct {
	logger     *slog.Logger
	strategies []strategy
}

// NewParser creates a parser. A nil logger uses slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger: logger,
		strategies: []strategy{
			{"strict", parseStrict},
			{"json", parseLoose},
			{"fenced", parseFenced},
		},
	}
}

// Parse returns the answer to question found in raw.
func (p *Parser) Parse(raw, question, kind string) Answer {
	for i, s := range p.strategies {
		a, err := s.parse(raw, question, kind)
		if err == nil {
			if i > 0 {
				p.logger.Debug("answer recovered", "question", question, "strategy", s.name)
			}
			return a
		}
		level := slog.LevelWarn
		if i > 0 {
			level = slog.LevelError
		}
		p.logger.Log(context.Background(), level, "answer parse failed, escalating",
			"question", question, "strategy", s.name, "error", err)
	}
	p.logger.Error("no answer could be parsed, using sentinel", "question", question)
	return Sentinel(question, kind)
}

// ParseAll parses outputs pairwise with their questions. Missing outputs
// yield sentinel answers, so the result always matches questions in length.
func (p *Parser) ParseAll(outputs []string, questions, kinds []string) []Answer {
	answers := make([]Answer, len(questions))
	for i := range questions {
		if i >= len(outputs) {
			answers[i] = Sentinel(questions[i], kinds[i])
			continue
		}
		answers[i] = p.Parse(outputs[i], questions[i], kinds[i])
	}
	return answers
}

// parseStrict accepts a complete answer record for this question.
func parseStrict(raw, question, kind string) (Answer, error) {
	var a Answer
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return Answer{}, err
	}
	if a.QuestionText != strings.ReplaceAll(question, `"`, `'`) {
		return Answer{}, fmt.Errorf("answer is for a different question: %q", a.QuestionText)
	}
	return a, nil
}

// parseLoose takes value and references from any JSON object and pairs
// them with the caller's question and kind.
func parseLoose(raw, question, kind string) (Answer, error) {
	var obj struct {
		Value      json.RawMessage `json:"value"`
		References *[]rawReference `json:"references"`
	}
	if err := decodeJSON([]byte(raw), &obj); err != nil {
		return Answer{}, err
	}
	value, err := decodeValue(obj.Value)
	if err != nil {
		return Answer{}, err
	}
	if obj.References == nil {
		return Answer{}, fmt.Errorf("answer missing references")
	}
	refs, err := convertReferences(*obj.References)
	if err != nil {
		return Answer{}, err
	}
	return New(question, kind, value, refs), nil
}

// parseFenced looks for a ```json block anywhere in raw.
func parseFenced(raw, question, kind string) (Answer, error) {
	m := fencedJSON.FindStringSubmatch(raw)
	if m == nil {
		return Answer{}, fmt.Errorf("no fenced json block")
	}
	return parseLoose(m[1], question, kind)
}

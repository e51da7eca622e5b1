// Package prompts renders the instructions of each answering stage.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/pedroananias/rag-3w-cot/internal/answer"
	"github.com/pedroananias/rag-3w-cot/internal/models"
)

//go:embed markdown/*.md
var files embed.FS

const (
	StepReasoning  = "step_1_cot"
	StepFormatting = "step_2_formatting"
	StepSchema     = "step_3_schema_parsing"
)

var templates = template.Must(template.New("prompts").Option("missingkey=error").ParseFS(files, "markdown/*.md"))

// Data fills the placeholders of a prompt.
type Data struct {
	DocumentSchema string
	QuerySchema    string
	AnswerSchema   string
	Query          string
}

// defaults returns Data with every schema example set.
func defaults() Data {
	return Data{
		DocumentSchema: models.DocumentSchemaExample,
		QuerySchema:    models.QuerySchemaExample,
		AnswerSchema:   answer.SchemaExample,
	}
}

// Render executes the prompt named step.
func Render(step string, data Data) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, step+".md", data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", step, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// Reasoning returns the stage one instructions.
func Reasoning() (string, error) {
	return Render(StepReasoning, defaults())
}

// Formatting returns the stage two instructions.
func Formatting() (string, error) {
	return Render(StepFormatting, defaults())
}

// Schema returns the stage three instructions for the serialized query.
func Schema(queryJSON string) (string, error) {
	d := defaults()
	d.Query = queryJSON
	return Render(StepSchema, d)
}

package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pedroananias/rag-3w-cot/internal/models"
)

// QuestionsFile is the default name of the questions file in a corpus.
const QuestionsFile = "questions.json"

// LoadQueries reads a JSON array of {"text", "kind"} records.
func LoadQueries(path string) ([]*models.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	var inputs []models.QuestionInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("decode questions %s: %w", path, err)
	}

	queries := make([]*models.Query, 0, len(inputs))
	for i, in := range inputs {
		if in.Text == "" || in.Kind == "" {
			return nil, fmt.Errorf("question %d in %s: text and kind are required", i+1, path)
		}
		queries = append(queries, models.NewQuery(in.Text, in.Kind))
	}
	return queries, nil
}

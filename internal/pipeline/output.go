package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pedroananias/rag-3w-cot/internal/answer"
	"github.com/pedroananias/rag-3w-cot/internal/models"
)

// Names of the files written to a run directory.
const (
	SettingsFile = "settings.json"
	AnswersFile  = "answers.json"
	LatencyFile  = "latency.txt"
	ScoresFile   = "scores.json"
)

// runDirLayout formats the timestamped run directory name.
const runDirLayout = "20060102_150405"

// Output writes the artifacts of one run into a directory.
type Output struct {
	Dir string
}

// NewRunOutput creates a timestamped run directory under
// <corpusDir>/output.
func NewRunOutput(corpusDir string, now time.Time) (*Output, error) {
	dir := filepath.Join(corpusDir, "output", now.Format(runDirLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	return &Output{Dir: dir}, nil
}

// OpenOutput returns an Output over an existing run directory.
func OpenOutput(dir string) (*Output, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &Output{Dir: dir}, nil
}

// Path returns the path of name inside the run directory.
func (o *Output) Path(name string) string {
	return filepath.Join(o.Dir, name)
}

// WriteJSON writes v as indented JSON.
func (o *Output) WriteJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(o.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ReadJSON decodes the JSON file name into v.
func (o *Output) ReadJSON(name string, v any) error {
	data, err := os.ReadFile(o.Path(name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// WriteQueries writes one query_<n>.json dump per query, numbered from 1.
func (o *Output) WriteQueries(queries []*models.Query) error {
	for i, q := range queries {
		if err := o.WriteJSON("query_"+strconv.Itoa(i+1)+".json", q.Dump()); err != nil {
			return err
		}
	}
	return nil
}

// ReadQueries reads the query dumps back in order.
func (o *Output) ReadQueries() ([]models.QueryDump, error) {
	var dumps []models.QueryDump
	for i := 1; ; i++ {
		var d models.QueryDump
		err := o.ReadJSON("query_"+strconv.Itoa(i)+".json", &d)
		if os.IsNotExist(err) {
			return dumps, nil
		}
		if err != nil {
			return nil, err
		}
		dumps = append(dumps, d)
	}
}

// WriteAnswers writes the final answers.
func (o *Output) WriteAnswers(answers []answer.Answer) error {
	return o.WriteJSON(AnswersFile, answers)
}

// ReadAnswers reads the final answers back.
func (o *Output) ReadAnswers() ([]answer.Answer, error) {
	var answers []answer.Answer
	if err := o.ReadJSON(AnswersFile, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// WriteLatency records the run duration in seconds.
func (o *Output) WriteLatency(d time.Duration) error {
	return os.WriteFile(o.Path(LatencyFile), []byte(strconv.FormatFloat(d.Seconds(), 'f', -1, 64)), 0o644)
}

// ReadLatency reads the run duration back.
func (o *Output) ReadLatency() (time.Duration, error) {
	data, err := os.ReadFile(o.Path(LatencyFile))
	if err != nil {
		return 0, err
	}
	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, fmt.Errorf("parse latency: %w", err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

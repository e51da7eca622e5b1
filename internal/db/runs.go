package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pedroananias/rag-3w-cot/internal/answer"
)

// ErrRunNotFound is returned when no run matches.
var ErrRunNotFound = errors.New("run not found")

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one execution of the answering pipeline over a corpus.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Corpus      string
	OutputDir   string
	LLM         string
	Model       string
	VectorStore string
	Fingerprint string
	Questions   int
	Latency     time.Duration
	Status      Status
	Error       string
}

// RunStore records runs, their answers and their scores.
type RunStore struct {
	db *DB
}

// NewRunStore creates a RunStore backed by the given database.
func NewRunStore(database *DB) *RunStore {
	return &RunStore{db: database}
}

// Start inserts a running run. If run.ID is empty a UUID is generated.
func (s *RunStore) Start(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, created_at, corpus, output_dir, llm, model,
			vectorstore, fingerprint, questions, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.Corpus,
		run.OutputDir,
		run.LLM,
		run.Model,
		run.VectorStore,
		run.Fingerprint,
		run.Questions,
		string(StatusRunning),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return run.ID, nil
}

// Complete marks a run completed and stores its answers in order.
func (s *RunStore) Complete(ctx context.Context, id string, latency time.Duration, answers []answer.Answer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE runs SET status = ?, latency_secs = ? WHERE id = ?",
		string(StatusCompleted), latency.Seconds(), id,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	for i, a := range answers {
		value, err := json.Marshal(a.Value)
		if err != nil {
			return fmt.Errorf("marshalling answer %d: %w", i, err)
		}
		refs, err := json.Marshal(a.References)
		if err != nil {
			return fmt.Errorf("marshalling references %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO answers (run_id, position, question, kind, value, refs)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, i, a.QuestionText, a.Kind, string(value), string(refs),
		)
		if err != nil {
			return fmt.Errorf("inserting answer %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Fail marks a run failed with the given cause.
func (s *RunStore) Fail(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET status = ?, error = ? WHERE id = ?",
		string(StatusFailed), msg, id,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	return nil
}

// SaveScores stores evaluation scores, replacing earlier ones per metric.
func (s *RunStore) SaveScores(ctx context.Context, id string, scores map[string]float64) error {
	for metric, score := range scores {
		_, err := s.db.ExecContext(ctx,
			"INSERT OR REPLACE INTO scores (run_id, metric, score) VALUES (?, ?, ?)",
			id, metric, score,
		)
		if err != nil {
			return fmt.Errorf("inserting score %s: %w", metric, err)
		}
	}
	return nil
}

const runColumns = `id, created_at, corpus, output_dir, llm, model, vectorstore,
	fingerprint, questions, latency_secs, status, error`

// Get retrieves a run by id.
func (s *RunStore) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// Latest returns the most recent completed run over corpus.
func (s *RunStore) Latest(ctx context.Context, corpus string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE corpus = ? AND status = ? ORDER BY created_at DESC, rowid DESC LIMIT 1",
		corpus, string(StatusCompleted),
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for %s", ErrRunNotFound, corpus)
	}
	return r, err
}

// ByOutputDir returns the run that wrote its artifacts to dir.
func (s *RunStore) ByOutputDir(ctx context.Context, dir string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE output_dir = ? ORDER BY created_at DESC LIMIT 1", dir)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for %s", ErrRunNotFound, dir)
	}
	return r, err
}

// List returns the most recent runs first. A non-positive limit returns all.
func (s *RunStore) List(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// Answers returns the answers of a run in question order.
func (s *RunStore) Answers(ctx context.Context, id string) ([]answer.Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT question, kind, value, refs FROM answers WHERE run_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("querying answers: %w", err)
	}
	defer rows.Close()

	var answers []answer.Answer
	for rows.Next() {
		var question, kind, value, refs string
		if err := rows.Scan(&question, &kind, &value, &refs); err != nil {
			return nil, err
		}
		record, err := json.Marshal(map[string]any{
			"question_text": question,
			"kind":          kind,
			"value":         json.RawMessage(value),
			"references":    json.RawMessage(refs),
		})
		if err != nil {
			return nil, fmt.Errorf("encoding answer: %w", err)
		}
		var a answer.Answer
		if err := json.Unmarshal(record, &a); err != nil {
			return nil, fmt.Errorf("decoding answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// Scores returns the stored scores of a run.
func (s *RunStore) Scores(ctx context.Context, id string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT metric, score FROM scores WHERE run_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("querying scores: %w", err)
	}
	defer rows.Close()

	scores := map[string]float64{}
	for rows.Next() {
		var metric string
		var score float64
		if err := rows.Scan(&metric, &score); err != nil {
			return nil, err
		}
		scores[metric] = score
	}
	return scores, rows.Err()
}

// SortedMetrics returns the metric names of scores in alphabetical order.
func SortedMetrics(scores map[string]float64) []string {
	names := make([]string, 0, len(scores))
	for n := range scores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r       Run
		created string
		latency float64
		status  string
	)
	err := sc.Scan(
		&r.ID, &created, &r.Corpus, &r.OutputDir, &r.LLM, &r.Model, &r.VectorStore,
		&r.Fingerprint, &r.Questions, &latency, &status, &r.Error,
	)
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		r.CreatedAt = t
	}
	r.Latency = time.Duration(latency * float64(time.Second))
	r.Status = Status(status)
	return &r, nil
}

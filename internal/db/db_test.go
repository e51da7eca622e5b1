package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pedroananias/rag-3w-cot/internal/answer"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	for _, table := range []string{"runs", "answers", "scores"} {
		var count int
		err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	for i := 0; i < 2; i++ {
		d, err := Open(path)
		if err != nil {
			t.Fatalf("Open() #%d error: %v", i+1, err)
		}
		d.Close()
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".cache", DefaultFile)
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer d.Close()

	if d.Path() != path {
		t.Errorf("Path() = %q, want %q", d.Path(), path)
	}
}

func newStore(t *testing.T) *RunStore {
	t.Helper()
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewRunStore(d)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.Start(ctx, Run{Corpus: "data/test", LLM: "ollama", Model: "llama3.1", Questions: 2})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if id == "" {
		t.Fatal("Start() returned empty id")
	}

	answers := []answer.Answer{
		answer.New("Did Acme pay a dividend?", "boolean", true, []answer.Reference{{PDFSHA1: "abc", PageIndex: 3}}),
		answer.New("How many employees?", "number", 120, nil),
	}
	if err := s.Complete(ctx, id, 1500*time.Millisecond, answers); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	run, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if run.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", run.Status, StatusCompleted)
	}
	if run.Latency != 1500*time.Millisecond {
		t.Errorf("Latency = %v, want 1.5s", run.Latency)
	}
	if run.Questions != 2 || run.Model != "llama3.1" {
		t.Errorf("unexpected run: %+v", run)
	}

	got, err := s.Answers(ctx, id)
	if err != nil {
		t.Fatalf("Answers() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Answers() returned %d, want 2", len(got))
	}
	if got[0].Value != true || len(got[0].References) != 1 || got[0].References[0].PageIndex != 3 {
		t.Errorf("first answer = %+v", got[0])
	}
	if got[1].Value != 120 {
		t.Errorf("second answer value = %#v, want 120", got[1].Value)
	}
}

func TestCompleteUnknownRun(t *testing.T) {
	s := newStore(t)
	err := s.Complete(context.Background(), "missing", time.Second, nil)
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Complete() error = %v, want ErrRunNotFound", err)
	}
}

func TestGetUnknownRun(t *testing.T) {
	s := newStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get() error = %v, want ErrRunNotFound", err)
	}
}

func TestFail(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.Start(ctx, Run{Corpus: "c"})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := s.Fail(ctx, id, errors.New("llm unavailable")); err != nil {
		t.Fatalf("Fail() error: %v", err)
	}
	run, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if run.Status != StatusFailed || run.Error != "llm unavailable" {
		t.Errorf("run = %+v", run)
	}
}

func TestListAndLatest(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.Start(ctx, Run{Corpus: "c", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		if err != nil {
			t.Fatalf("Start() error: %v", err)
		}
		ids = append(ids, id)
	}
	if err := s.Complete(ctx, ids[1], time.Second, nil); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	runs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("List() order wrong: %+v", runs)
	}
	if !runs[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("CreatedAt = %v", runs[0].CreatedAt)
	}

	latest, err := s.Latest(ctx, "c")
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if latest.ID != ids[1] {
		t.Errorf("Latest() = %s, want the only completed run %s", latest.ID, ids[1])
	}

	if _, err := s.Latest(ctx, "other"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Latest(other) error = %v, want ErrRunNotFound", err)
	}
}

func TestByOutputDir(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.Start(ctx, Run{Corpus: "c", OutputDir: "c/output/20240501_100000"})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	run, err := s.ByOutputDir(ctx, "c/output/20240501_100000")
	if err != nil {
		t.Fatalf("ByOutputDir() error: %v", err)
	}
	if run.ID != id {
		t.Errorf("ByOutputDir() = %s, want %s", run.ID, id)
	}
	if _, err := s.ByOutputDir(ctx, "elsewhere"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("ByOutputDir(elsewhere) error = %v, want ErrRunNotFound", err)
	}
}

func TestScores(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.Start(ctx, Run{Corpus: "c"})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := s.SaveScores(ctx, id, map[string]float64{"rouge": 0.4, "exact_match": 0.5}); err != nil {
		t.Fatalf("SaveScores() error: %v", err)
	}
	if err := s.SaveScores(ctx, id, map[string]float64{"rouge": 0.6}); err != nil {
		t.Fatalf("SaveScores() error: %v", err)
	}

	scores, err := s.Scores(ctx, id)
	if err != nil {
		t.Fatalf("Scores() error: %v", err)
	}
	if scores["rouge"] != 0.6 || scores["exact_match"] != 0.5 {
		t.Errorf("Scores() = %v", scores)
	}
	names := SortedMetrics(scores)
	if len(names) != 2 || names[0] != "exact_match" || names[1] != "rouge" {
		t.Errorf("SortedMetrics() = %v", names)
	}
}

func TestScoresRequireRun(t *testing.T) {
	s := newStore(t)
	err := s.SaveScores(context.Background(), "missing", map[string]float64{"rouge": 1})
	if err == nil {
		t.Error("SaveScores() on unknown run should violate the foreign key")
	}
}

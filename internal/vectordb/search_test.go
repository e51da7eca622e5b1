package vectordb

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/pedroananias/rag-3w-cot/internal/models"
)

// recordingBackend returns fixed candidates and records search parameters.
type recordingBackend struct {
	docs    []models.Document
	loadErr error
	loads   int

	mode      string
	k         int
	threshold float64
	lambda    float64
}

func (b *recordingBackend) Name() string { return "recording" }
func (b *recordingBackend) Create(context.Context, []models.Document, string) error {
	return nil
}
func (b *recordingBackend) Load(context.Context, string) error {
	b.loads++
	return b.loadErr
}
func (b *recordingBackend) Exists(string) bool { return b.loadErr == nil }
func (b *recordingBackend) SimilaritySearch(_ context.Context, _ string, k int, threshold float64, _ map[string]string) ([]models.Document, error) {
	b.mode, b.k, b.threshold = "similarity", k, threshold
	return append([]models.Document(nil), b.docs...), nil
}
func (b *recordingBackend) MMRSearch(_ context.Context, _ string, k int, lambda float64, _ map[string]string) ([]models.Document, error) {
	b.mode, b.k, b.lambda = "mmr", k, lambda
	return append([]models.Document(nil), b.docs...), nil
}

func testOptions(mode SearchMode) Options {
	return Options{
		Mode:   mode,
		Text:   Profile{TopK: 20, ScoreThreshold: 0.5, LambdaMult: 1.0},
		Type:   Profile{TopK: 10, ScoreThreshold: 0.25, LambdaMult: 0.7},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestStoreSearchProfiles(t *testing.T) {
	tests := []struct {
		name       string
		mode       SearchMode
		filter     map[string]string
		wantMode   string
		wantK      int
		wantParam  float64
		paramOfMMR bool
	}{
		{"no filter uses text", ModeSimilarity, nil, "similarity", 20, 0.5, false},
		{"text filter", ModeSimilarity, map[string]string{models.KeyContentType: "text"}, "similarity", 20, 0.5, false},
		{"markdown uses type", ModeSimilarity, map[string]string{models.KeyContentType: "markdown"}, "similarity", 10, 0.25, false},
		{"html uses type", ModeMMR, map[string]string{models.KeyContentType: "html"}, "mmr", 10, 0.7, true},
		{"mmr text", ModeMMR, map[string]string{models.KeyPDFSHA1: "x"}, "mmr", 20, 1.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &recordingBackend{}
			s := NewStore(b, t.TempDir(), testOptions(tt.mode))
			if _, err := s.Search(context.Background(), "q", tt.filter); err != nil {
				t.Fatal(err)
			}
			if b.mode != tt.wantMode || b.k != tt.wantK {
				t.Errorf("got mode=%s k=%d, want %s k=%d", b.mode, b.k, tt.wantMode, tt.wantK)
			}
			param := b.threshold
			if tt.paramOfMMR {
				param = b.lambda
			}
			if param != tt.wantParam {
				t.Errorf("got param %v, want %v", param, tt.wantParam)
			}
		})
	}
}

func TestStoreSearchPostProcessing(t *testing.T) {
	b := &recordingBackend{docs: []models.Document{
		doc("x", "aaa", "text", "unrelated dividend text"),
		doc("y", "bbb", "text", "revenue from another file"),
		doc("z", "aaa", "text", "total revenue for the year"),
		doc("x", "aaa", "text", "duplicate id replaced content about revenue"),
	}}
	s := NewStore(b, t.TempDir(), testOptions(ModeSimilarity))

	docs, err := s.Search(context.Background(), "total revenue", map[string]string{models.KeyPDFSHA1: "aaa"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids(docs), []string{"z", "x"}) {
		t.Fatalf("got %v", ids(docs))
	}
	if docs[1].PageContent != "duplicate id replaced content about revenue" {
		t.Errorf("last duplicate should win, got %q", docs[1].PageContent)
	}
	for _, d := range docs {
		if d.Metadata.Score == nil {
			t.Errorf("document %s is unscored", d.ID)
		}
	}
	if b.loads != 1 {
		t.Errorf("expected a single lazy load, got %d", b.loads)
	}
	if _, err := s.Search(context.Background(), "again", nil); err != nil || b.loads != 1 {
		t.Errorf("index should load once, got %d loads (err %v)", b.loads, err)
	}
}

func TestStoreUnknownMode(t *testing.T) {
	b := &recordingBackend{docs: sampleDocs()}
	s := NewStore(b, t.TempDir(), testOptions("knn"))
	docs, err := s.Search(context.Background(), "q", nil)
	if !errors.Is(err, ErrUnknownSearchMode) {
		t.Errorf("expected ErrUnknownSearchMode, got %v", err)
	}
	if docs != nil || b.loads != 0 || b.mode != "" {
		t.Error("unknown mode must be rejected before touching the index")
	}
}

func TestStoreMissingIndex(t *testing.T) {
	b := &recordingBackend{loadErr: ErrIndexNotFound}
	s := NewStore(b, t.TempDir(), testOptions(ModeMMR))
	if s.Exists() {
		t.Error("Exists should be false")
	}
	if _, err := s.Search(context.Background(), "q", nil); !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestNewBackend(t *testing.T) {
	for _, name := range []string{"dense", "hybrid"} {
		b, err := NewBackend(name, newMockEmbedder(8))
		if err != nil {
			t.Fatalf("NewBackend(%s): %v", name, err)
		}
		if b.Name() != name {
			t.Errorf("got %s, want %s", b.Name(), name)
		}
	}
	if _, err := NewBackend("faiss", newMockEmbedder(8)); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

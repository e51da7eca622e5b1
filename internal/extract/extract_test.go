package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pedroananias/rag-3w-cot/internal/models"
)

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abc123.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions() Options {
	return Options{
		Strategy:          "hi_res",
		ChunkingStrategy:  "by_title",
		MaxCharacters:     1536,
		MultipageSections: true,
		Languages:         "eng",
		Timeout:           5 * time.Second,
	}
}

func TestClientExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		checks := map[string]string{
			"filename":              "abc123.pdf",
			"strategy":              "hi_res",
			"chunking_strategy":     "by_title",
			"max_characters":        "1536",
			"combine_under_n_chars": "1536",
			"multipage_sections":    "true",
			"languages":             "eng",
			"unique_element_ids":    "true",
		}
		for k, want := range checks {
			if got := r.FormValue(k); got != want {
				t.Errorf("field %s = %q, want %q", k, got, want)
			}
		}
		f, hdr, err := r.FormFile("files")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		f.Close()
		if hdr.Filename != "abc123.pdf" {
			t.Errorf("file part name %q", hdr.Filename)
		}
		if r.Header.Get("unstructured-api-key") != "secret" {
			t.Error("missing api key header")
		}
		w.Write([]byte(`[{"element_id": "e1", "text": "Annual Report 2023", "metadata": {"filename": "abc123.pdf", "page_number": 1}}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", testOptions())
	elements, err := c.Extract(context.Background(), writePDF(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(elements) != 1 || elements[0].ElementID != "e1" {
		t.Fatalf("unexpected elements: %+v", elements)
	}
}

func TestClientExtractNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", testOptions()).Extract(context.Background(), writePDF(t))
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("error should carry status and body: %v", err)
	}
}

func TestToDocuments(t *testing.T) {
	raw := `[
		{"id": "a", "text": "Annual Report 2023", "metadata": {"filename": "abc123.pdf", "page_number": 1}},
		{"element_id": "b", "text": "", "metadata": {"filename": "abc123.pdf", "page_number": 2}},
		{"element_id": "c", "text": "Revenue table", "metadata": {"filename": "abc123.pdf", "page_index": 4, "text_as_html": "<table><tr><td>1</td></tr></table>"}},
		{"id": "d", "text": "Orphan", "metadata": {}}
	]`
	var elements []Element
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		t.Fatal(err)
	}

	owners := map[string]string{"abc123": "Acme Corp"}
	lookup := func(sha string) (string, bool) {
		o, ok := owners[sha]
		return o, ok
	}
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	docs := ToDocuments(elements, "fallback.pdf", lookup, now)
	if len(docs) != 3 {
		t.Fatalf("empty element should be skipped, got %d docs", len(docs))
	}

	first := docs[0]
	if first.ID != "a" || first.Metadata.PDFSHA1 != "abc123" || first.Metadata.PageIndex != 0 {
		t.Errorf("first doc: %+v", first)
	}
	if first.Metadata.Owner != "Acme Corp" || first.Metadata.ContentType != models.ContentText {
		t.Errorf("first doc metadata: %+v", first.Metadata)
	}
	if first.Metadata.Year != 2023 {
		t.Errorf("expected inferred year 2023, got %d", first.Metadata.Year)
	}

	table := docs[1]
	if table.Metadata.ContentType != models.ContentHTML || !strings.HasPrefix(table.PageContent, "<table>") {
		t.Errorf("html element not mapped: %+v", table)
	}
	if table.Metadata.PageIndex != 4 {
		t.Errorf("explicit page_index should win, got %d", table.Metadata.PageIndex)
	}

	orphan := docs[2]
	if orphan.Metadata.PDFSHA1 != "fallback" || orphan.Metadata.Owner != "fallback.pdf" {
		t.Errorf("orphan should fall back to the file name, got %+v", orphan.Metadata)
	}
	if orphan.Metadata.PageIndex != -1 {
		t.Errorf("missing page info should give -1, got %d", orphan.Metadata.PageIndex)
	}
}

func TestToDocumentsEmpty(t *testing.T) {
	if docs := ToDocuments(nil, "x.pdf", nil, time.Now()); docs == nil || len(docs) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", docs)
	}
}

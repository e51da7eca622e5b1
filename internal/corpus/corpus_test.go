package corpus

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func setupCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bbb.pdf"), "%PDF-1.4 b")
	writeFile(t, filepath.Join(dir, "aaa.PDF"), "%PDF-1.4 a")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignore me")
	writeFile(t, filepath.Join(dir, "draft-ccc.pdf"), "%PDF-1.4 c")
	writeFile(t, filepath.Join(dir, ".cache", ".json", "x", "aaa.pdf"), "nested")
	writeFile(t, filepath.Join(dir, "sub", "ddd.pdf"), "nested")
	return dir
}

func TestWalk(t *testing.T) {
	dir := setupCorpus(t)

	files, err := Walk(WalkConfig{RootDir: dir, Extensions: []string{".pdf"}})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	want := []string{"aaa.PDF", "bbb.pdf", "draft-ccc.pdf"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}

	if files[0].SHA1 != "aaa" {
		t.Errorf("expected identity from file stem, got %q", files[0].SHA1)
	}
	if len(files[0].ContentHash) != 64 {
		t.Errorf("expected sha256 hex hash, got %q", files[0].ContentHash)
	}
	if !filepath.IsAbs(files[0].Path) {
		t.Errorf("expected absolute path, got %q", files[0].Path)
	}
}

func TestWalkExclude(t *testing.T) {
	dir := setupCorpus(t)
	files, err := Walk(WalkConfig{RootDir: dir, Extensions: []string{".pdf"}, Exclude: []string{"draft-*"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("expected draft to be excluded, got %d files", len(files))
	}
}

func TestWalkMissingDir(t *testing.T) {
	if _, err := Walk(WalkConfig{RootDir: filepath.Join(t.TempDir(), "nope"), Extensions: []string{".pdf"}}); err == nil {
		t.Error("expected error for missing corpus")
	}
}

func TestLoadTableJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subset.json")
	writeFile(t, path, `[
		{"sha1": "aaa", "company_name": "Acme Corp", "cur": "USD"},
		{"sha1": "bbb", "company_name": "Beta plc"},
		{"sha1": "zzz", "company_name": "Not In Corpus"}
	]`)

	table, err := LoadTable(path, []File{{SHA1: "aaa"}, {SHA1: "bbb"}})
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("expected rows for present files only, got %d", table.Len())
	}
	if owner, ok := table.Owner("aaa"); !ok || owner != "Acme Corp" {
		t.Errorf("Owner(aaa) = %q, %v", owner, ok)
	}
	if _, ok := table.Owner("zzz"); ok {
		t.Error("absent file should not resolve")
	}
	want := []Source{{"aaa", "Acme Corp"}, {"bbb", "Beta plc"}}
	if !reflect.DeepEqual(table.Sources(), want) {
		t.Errorf("Sources() = %v", table.Sources())
	}
}

func TestLoadTableCSVFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subset.csv")
	writeFile(t, path, "sha1,cur,company_name\naaa,USD,\"Acme, Inc.\"\n")

	table, err := LoadTable(path, []File{{SHA1: "aaa"}})
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if owner, _ := table.Owner("aaa"); owner != "Acme, Inc." {
		t.Errorf("got owner %q", owner)
	}
}

func TestLoadTableMissingAndInvalid(t *testing.T) {
	dir := t.TempDir()
	table, err := LoadTable(filepath.Join(dir, "missing.json"), nil)
	if err != nil || table.Len() != 0 {
		t.Errorf("missing file should give empty table, got %v, %v", table, err)
	}

	bad := filepath.Join(dir, "bad.csv")
	writeFile(t, bad, "name,owner\nx,y\n")
	if _, err := LoadTable(bad, nil); err == nil {
		t.Error("expected error for metadata without sha1/company_name")
	}
}

func TestSourcesForFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, MetadataFile)
	writeFile(t, path, `[{"sha1": "aaa", "company_name": "Acme Corp"}]`)

	files := []File{{SHA1: "aaa", Name: "aaa.pdf"}, {SHA1: "bbb", Name: "bbb.pdf"}}
	table, err := LoadTable(path, files)
	if err != nil {
		t.Fatal(err)
	}
	want := []Source{{"aaa", "Acme Corp"}, {"bbb", "bbb.pdf"}}
	if got := table.SourcesFor(files); !reflect.DeepEqual(got, want) {
		t.Errorf("SourcesFor() = %v, want %v", got, want)
	}
}

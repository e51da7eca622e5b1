package corpus

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// MetadataFile is the default name of the metadata table inside a corpus.
const MetadataFile = "subset.json"

// Source pairs a source identity with the company that published it.
type Source struct {
	SHA1  string `json:"sha1"`
	Owner string `json:"company_name"`
}

// Table maps source identities to owners, restricted to the files present
// in the corpus.
type Table struct {
	owners map[string]string
}

// EmptyTable returns a table that resolves nothing.
func EmptyTable() *Table {
	return &Table{owners: map[string]string{}}
}

// LoadTable reads a metadata file listing sha1 and company_name per
// source. The file is parsed as a JSON array of records, falling back to
// CSV with a header row. Rows for files not in the corpus are dropped.
// A missing file yields an empty table.
func LoadTable(path string, files []File) (*Table, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return EmptyTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("corpus: read metadata %s: %w", path, err)
	}

	rows, jsonErr := parseJSONRows(data)
	if jsonErr != nil {
		var csvErr error
		rows, csvErr = parseCSVRows(data)
		if csvErr != nil {
			return nil, fmt.Errorf("corpus: metadata %s is neither JSON (%v) nor CSV: %w", path, jsonErr, csvErr)
		}
	}

	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.SHA1] = true
	}

	t := EmptyTable()
	for _, r := range rows {
		if !present[r.SHA1] {
			continue
		}
		if _, dup := t.owners[r.SHA1]; !dup {
			t.owners[r.SHA1] = r.Owner
		}
	}
	return t, nil
}

func parseJSONRows(data []byte) ([]Source, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	rows := make([]Source, 0, len(records))
	for _, rec := range records {
		sha, ok := rec["sha1"]
		if !ok {
			return nil, fmt.Errorf("record without sha1")
		}
		rows = append(rows, Source{SHA1: fmt.Sprint(sha), Owner: fmt.Sprint(rec["company_name"])})
	}
	return rows, nil
}

func parseCSVRows(data []byte) ([]Source, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	shaCol, ownerCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "sha1":
			shaCol = i
		case "company_name":
			ownerCol = i
		}
	}
	if shaCol < 0 || ownerCol < 0 {
		return nil, fmt.Errorf("header must contain sha1 and company_name")
	}

	var rows []Source
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if shaCol >= len(rec) || ownerCol >= len(rec) {
			continue
		}
		rows = append(rows, Source{SHA1: rec[shaCol], Owner: rec[ownerCol]})
	}
	return rows, nil
}

// Owner returns the owner of a source identity.
func (t *Table) Owner(sha1 string) (string, bool) {
	o, ok := t.owners[sha1]
	return o, ok
}

// Sources lists the table entries ordered by source identity.
func (t *Table) Sources() []Source {
	out := make([]Source, 0, len(t.owners))
	for sha, owner := range t.owners {
		out = append(out, Source{SHA1: sha, Owner: owner})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SHA1 < out[j].SHA1 })
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.owners) }

// SourcesFor lists one source per corpus file, in file order. Files the
// table does not know are labelled with their file name.
func (t *Table) SourcesFor(files []File) []Source {
	out := make([]Source, 0, len(files))
	for _, f := range files {
		owner, ok := t.owners[f.SHA1]
		if !ok {
			owner = f.Name
		}
		out = append(out, Source{SHA1: f.SHA1, Owner: owner})
	}
	return out
}

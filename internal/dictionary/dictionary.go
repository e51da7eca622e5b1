// Package dictionary expands domain terms in questions with their synonyms.
package dictionary

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Entry maps a canonical term to its synonyms.
type Entry struct {
	Term     string
	Synonyms []string
}

// Dictionary is an ordered list of entries. Order matters: each entry
// sees the text as rewritten by the entries before it.
type Dictionary struct {
	name    string
	entries []Entry
}

// New creates a dictionary from entries, applied in the given order.
func New(name string, entries []Entry) *Dictionary {
	return &Dictionary{name: name, entries: entries}
}

// Name returns the registry key of the dictionary.
func (d *Dictionary) Name() string { return d.name }

// Entries returns the dictionary entries in application order.
func (d *Dictionary) Entries() []Entry { return d.entries }

// Expand appends "(or syn1, syn2)" after every as-is, capitalized and
// uppercase occurrence of each term found case-insensitively in text.
func (d *Dictionary) Expand(text string) string {
	expanded := text
	lower := strings.ToLower(text)
	for _, e := range d.entries {
		if !strings.Contains(lower, strings.ToLower(e.Term)) {
			continue
		}
		suffix := " (or " + strings.Join(e.Synonyms, ", ") + ")"
		for _, variant := range casings(e.Term) {
			expanded = strings.ReplaceAll(expanded, variant, variant+suffix)
		}
	}
	return expanded
}

// casings returns the distinct as-is, capitalized and uppercase forms of term.
func casings(term string) []string {
	out := []string{term}
	for _, v := range []string{capitalize(term), strings.ToUpper(term)} {
		dup := false
		for _, o := range out {
			if o == v {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// ExpandAll applies each dictionary to text in sequence.
func ExpandAll(text string, dicts []*Dictionary) string {
	for _, d := range dicts {
		text = d.Expand(text)
	}
	return text
}

var registry = map[string]func() *Dictionary{
	"financial": Financial,
}

// Get returns a new instance of the named dictionary.
func Get(name string) (*Dictionary, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown terms dictionary %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(), nil
}

// Load resolves a list of dictionary names.
func Load(names []string) ([]*Dictionary, error) {
	dicts := make([]*Dictionary, 0, len(names))
	for _, n := range names {
		d, err := Get(n)
		if err != nil {
			return nil, err
		}
		dicts = append(dicts, d)
	}
	return dicts, nil
}

// Names lists the registered dictionaries.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

package dictionary

import (
	"strings"
	"testing"
)

func TestExpand(t *testing.T) {
	d := New("test", []Entry{
		{"net income", []string{"profit", "earnings"}},
	})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"as-is",
			"What was the net income?",
			"What was the net income (or profit, earnings)?",
		},
		{
			"capitalized",
			"Net income of Acme",
			"Net income (or profit, earnings) of Acme",
		},
		{
			"uppercase",
			"NET INCOME in 2022",
			"NET INCOME (or profit, earnings) in 2022",
		},
		{
			"absent",
			"What was the revenue?",
			"What was the revenue?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Expand(tt.in); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandMixedCaseMatchesButOnlyKnownVariantsRewrite(t *testing.T) {
	d := New("test", []Entry{{"net income", []string{"profit"}}})
	in := "NeT InCoMe?"
	if got := d.Expand(in); got != in {
		t.Errorf("expected unchanged text for unmatched casing, got %q", got)
	}
}

func TestExpandAllInSequence(t *testing.T) {
	a := New("a", []Entry{{"revenue", []string{"sales"}}})
	b := New("b", []Entry{{"sales", []string{"turnover"}}})

	got := ExpandAll("total revenue", []*Dictionary{a, b})
	want := "total revenue (or sales (or turnover))"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFinancial(t *testing.T) {
	d := Financial()
	got := d.Expand("What was the dividend per share?")
	if got != "What was the dividend (or payout) per share?" {
		t.Errorf("unexpected expansion %q", got)
	}

	// Terms match as substrings, so a later short term also rewrites
	// inside an earlier expansion.
	got = d.Expand("EBITDA")
	if !strings.HasPrefix(got, "EBIT (or earnings)DA") {
		t.Errorf("unexpected acronym expansion %q", got)
	}
}

func TestRegistry(t *testing.T) {
	d, err := Get("financial")
	if err != nil {
		t.Fatalf("Get(financial): %v", err)
	}
	if d.Name() != "financial" || len(d.Entries()) == 0 {
		t.Errorf("unexpected dictionary: %s with %d entries", d.Name(), len(d.Entries()))
	}
	if _, err := Get("medical"); err == nil {
		t.Error("expected error for unknown dictionary")
	}
	dicts, err := Load([]string{"financial", "financial"})
	if err != nil || len(dicts) != 2 {
		t.Errorf("Load() = %d dicts, err %v", len(dicts), err)
	}
}

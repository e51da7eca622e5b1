// Package report renders a run's answers and retrieval context as a
// single HTML page.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/pedroananias/rag-3w-cot/internal/answer"
	"github.com/pedroananias/rag-3w-cot/internal/models"
)

// File is the default report file name inside a run directory.
const File = "report.html"

// Run is everything a report shows about one run.
type Run struct {
	Title   string
	Answers []answer.Answer
	Queries []models.QueryDump
	Scores  map[string]float64
	// MaxDocuments caps the documents listed per query. Zero lists all.
	MaxDocuments int
}

// Markdown builds the report body.
func Markdown(r Run) string {
	var b strings.Builder
	title := r.Title
	if title == "" {
		title = "Run report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(r.Scores) > 0 {
		b.WriteString("## Scores\n\n| Metric | Score |\n| --- | --- |\n")
		names := make([]string, 0, len(r.Scores))
		for n := range r.Scores {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(&b, "| %s | %.4f |\n", n, r.Scores[n])
		}
		b.WriteString("\n")
	}

	b.WriteString("## Answers\n\n")
	for i, a := range r.Answers {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, escapeInline(a.QuestionText))
		fmt.Fprintf(&b, "- **Kind:** %s\n- **Value:** %s\n\n", a.Kind, escapeInline(a.ValueString()))

		data, err := json.MarshalIndent(a, "", "    ")
		if err == nil {
			fmt.Fprintf(&b, "```json\n%s\n```\n\n", data)
		}

		if i < len(r.Queries) {
			writeContext(&b, r.Queries[i], r.MaxDocuments)
		}
	}
	return b.String()
}

func writeContext(b *strings.Builder, q models.QueryDump, limit int) {
	if len(q.RelevantFiles) > 0 {
		fmt.Fprintf(b, "Relevant files: %s\n\n", strings.Join(q.RelevantFiles, ", "))
	}
	docs := q.RelevantDocuments
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	for _, d := range docs {
		fmt.Fprintf(b, "#### %s, page %d (%s", escapeInline(d.Metadata.Owner), d.Metadata.PageIndex, d.Metadata.ContentType)
		if d.Metadata.Score != nil {
			fmt.Fprintf(b, ", score %.4f", *d.Metadata.Score)
		}
		b.WriteString(")\n\n")
		b.WriteString(quote(d.PageContent))
		b.WriteString("\n\n")
	}
}

// quote places content in a blockquote so its headings stay nested.
func quote(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}

var inlineEscaper = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;")

func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}

// Renderer converts report Markdown to a standalone HTML page.
type Renderer struct {
	md   goldmark.Markdown
	page *template.Template
}

// NewRenderer creates a renderer with GFM tables and highlighted JSON.
func NewRenderer() (*Renderer, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	page, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &Renderer{md: md, page: page}, nil
}

// Render writes the HTML report of r to w.
func (rd *Renderer) Render(w io.Writer, r Run) error {
	var body bytes.Buffer
	if err := rd.md.Convert([]byte(Markdown(r)), &body); err != nil {
		return fmt.Errorf("converting markdown: %w", err)
	}

	title := r.Title
	if title == "" {
		title = "Run report"
	}
	return rd.page.Execute(w, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(body.String()),
	})
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; color: #1f2328; }
table { border-collapse: collapse; }
th, td { border: 1px solid #d0d7de; padding: 4px 12px; }
blockquote { border-left: 4px solid #d0d7de; margin: 0; padding: 0 1rem; color: #59636e; }
pre { padding: 12px; overflow-x: auto; border-radius: 6px; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`

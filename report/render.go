package report

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/ghostimport/resolver"
)

//go:embed templates/*.md
var templates embed.FS

// Summary is the data behind the markdown summary.
type Summary struct {
	Records     int
	Stats       resolver.Stats
	NoMatches   []NoMatch
	Ambiguities []Ambiguity
	Skipped     []Skip
}

// Summary returns the run summary, given the resolver counters.
func (r *Reporter) Summary(stats resolver.Stats) Summary {
	return Summary{
		Records:     r.total,
		Stats:       stats,
		NoMatches:   r.noMatches,
		Ambiguities: r.ambiguities,
		Skipped:     r.skipped,
	}
}

// Markdown renders the run summary as markdown.
func (r *Reporter) Markdown(stats resolver.Stats) (string, error) {
	partials := map[string]string{
		"summary_counts":    "templates/summary_counts.md",
		"summary_nomatch":   "templates/summary_nomatch.md",
		"summary_ambiguous": "templates/summary_ambiguous.md",
		"summary_skipped":   "templates/summary_skipped.md",
	}
	return renderTemplate("summary", "templates/summary.md", partials, r.Summary(stats))
}

// Render writes the run summary to w, styled for a terminal unless plain.
func (r *Reporter) Render(w io.Writer, stats resolver.Stats, plain bool) error {
	md, err := r.Markdown(stats)
	if err != nil {
		return err
	}
	if plain {
		_, err = io.WriteString(w, md)
		return err
	}
	tr, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("cannot create terminal renderer: %w", err)
	}
	out, err := tr.Render(md)
	if err != nil {
		return fmt.Errorf("cannot render summary: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

var funcs = template.FuncMap{
	// cell escapes a value for a markdown table cell.
	"cell": func(s string) string { return strings.ReplaceAll(s, "|", `\|`) },
	"join": strings.Join,
}

// renderTemplate renders a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) (string, error) {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return "", fmt.Errorf("error reading main template %q: %w", mainFile, err)
	}
	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return "", fmt.Errorf("error parsing main template %q: %w", mainFile, err)
	}
	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return "", fmt.Errorf("error reading partial template %q: %w", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return "", fmt.Errorf("error parsing partial template %q for %q: %w", file, name, err)
		}
	}
	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return "", fmt.Errorf("error executing template %q: %w", templateName, err)
	}
	return b.String(), nil
}

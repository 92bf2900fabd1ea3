package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/candidstance/internal/model"
)

// Renderer writes finished analyses as JSON, Markdown or a terminal summary
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer whose summaries go to out
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out}
}

// RenderJSON writes the analysis as indented JSON to path
func (r *Renderer) RenderJSON(a *model.Analysis, path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// RenderMarkdown writes a Markdown report to path
func (r *Renderer) RenderMarkdown(a *model.Analysis, path string) error {
	return os.WriteFile(path, []byte(Markdown(a)), 0o644)
}

// Markdown formats the analysis as a Markdown document
func Markdown(a *model.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", a.CandidateName)
	if a.Cached && a.LastUpdated != nil {
		fmt.Fprintf(&b, "_Cached analysis from %s._\n\n", a.LastUpdated.UTC().Format("2006-01-02"))
	}

	for _, s := range a.Stances {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Issue, s.Stance)
		if s.HasNoInformation() {
			continue
		}
		if model.IsUnverifiable(s.Sources) {
			b.WriteString("_No credible sources found._\n\n")
			continue
		}
		if s.Confidence > 0 {
			fmt.Fprintf(&b, "_Confidence: %.0f/100_\n\n", s.Confidence)
		}
		for _, src := range s.Sources {
			fmt.Fprintf(&b, "- [%s](%s)\n", src.Title, src.URL)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderSummary prints a short overview
func (r *Renderer) RenderSummary(a *model.Analysis) {
	sourced, unverifiable, unknown := 0, 0, 0
	for _, s := range a.Stances {
		switch {
		case s.HasNoInformation():
			unknown++
		case model.IsUnverifiable(s.Sources) || len(s.Sources) == 0:
			unverifiable++
		default:
			sourced++
		}
	}

	fmt.Fprintf(r.out, "\n%s", a.CandidateName)
	if a.CandidateName != a.InputName {
		fmt.Fprintf(r.out, " (from %q)", a.InputName)
	}
	if a.Cached {
		fmt.Fprint(r.out, " [cached]")
	}
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  Issues:        %d\n", len(a.Stances))
	fmt.Fprintf(r.out, "  Sourced:       %d\n", sourced)
	fmt.Fprintf(r.out, "  Unverifiable:  %d\n", unverifiable)
	fmt.Fprintf(r.out, "  No info:       %d\n", unknown)
}

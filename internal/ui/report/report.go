// Package report renders analysis reports for the terminal and as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/ui/style"
)

// Text renders reports as human readable text.
type Text struct {
	w       io.Writer
	timings bool

	header  lipgloss.Style
	dim     lipgloss.Style
	accent  lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	success lipgloss.Style
}

// NewText creates a Text renderer writing to w with the given color profile.
// When timings is set, each report ends with per-phase timings.
func NewText(w io.Writer, profile termenv.Profile, timings bool) *Text {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	return &Text{
		w:       w,
		timings: timings,
		header:  r.NewStyle().Bold(true),
		dim:     r.NewStyle().Foreground(style.Dim),
		accent:  r.NewStyle().Foreground(style.Accent),
		warning: r.NewStyle().Foreground(style.Yellow),
		failure: r.NewStyle().Foreground(style.Red),
		success: r.NewStyle().Foreground(style.Green),
	}
}

// Render writes report to the renderer's writer.
func (t *Text) Render(report *domain.Report) error {
	var b strings.Builder

	if len(report.Changed) > 0 {
		changed := make([]string, len(report.Changed))
		for i, u := range report.Changed {
			changed[i] = string(u)
		}
		fmt.Fprintf(&b, "%s %s\n", t.accent.Render(style.Arrow), t.dim.Render("changed: "+strings.Join(changed, ", ")))
	}

	var features, warnings, errs int
	for _, doc := range report.AllDocuments() {
		fmt.Fprintf(&b, "%s %s %s\n", t.accent.Render(style.Dot), t.header.Render(string(doc.URL)), t.dim.Render("("+doc.Type+")"))
		for _, imp := range doc.Imports {
			fmt.Fprintf(&b, "  %s %s\n", t.accent.Render(style.Arrow), t.importLine(imp))
		}
		for _, f := range doc.Features {
			if !listed(f) {
				continue
			}
			features++
			fmt.Fprintf(&b, "  %s\n", t.featureLine(f))
		}
		for _, w := range doc.Warnings {
			warnings++
			icon := t.warning.Render(style.Warning)
			if w.Severity == domain.SeverityError {
				errs++
				icon = t.failure.Render(style.Cross)
			}
			fmt.Fprintf(&b, "  %s %s\n", icon, w.String())
		}
	}

	icon := t.success.Render(style.Check)
	if errs > 0 {
		icon = t.failure.Render(style.Cross)
	}
	fmt.Fprintf(&b, "%s %d document(s), %d feature(s), %d warning(s) in %s\n",
		icon, len(report.AllDocuments()), features, warnings, report.Elapsed.Round(time.Millisecond))

	if t.timings {
		for _, s := range Summarize(report.Measurements) {
			fmt.Fprintf(&b, "  %s %d× %s\n", t.dim.Render(s.Kind), s.Count, s.Total.Round(time.Microsecond))
		}
	}

	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Text) importLine(imp *domain.Import) string {
	target := string(imp.URL)
	if target == "" {
		target = t.warning.Render("unresolved")
	}
	kind := imp.Type
	if imp.Lazy {
		kind += ", lazy"
	}
	return fmt.Sprintf("%s %s %s", imp.Specifier, target, t.dim.Render("["+kind+"]"))
}

func (t *Text) featureLine(f domain.Feature) string {
	line := f.Kind
	if f.ID != "" {
		line += " " + f.ID
	}
	if f.Range != nil {
		line += " " + t.dim.Render(fmt.Sprintf("%d:%d", f.Range.Start.Line+1, f.Range.Start.Column+1))
	}
	return line
}

// listed reports whether a feature gets its own line. Imports are shown as
// edges and inline documents through their features.
func listed(f domain.Feature) bool {
	return f.Kind != domain.KindImport && f.Kind != domain.KindInlineDocument
}

// PhaseSummary aggregates the measurements of one phase.
type PhaseSummary struct {
	Kind  string        `json:"kind"`
	Count int           `json:"count"`
	Total time.Duration `json:"total"`
}

// Summarize groups measurements by phase, sorted by phase name.
func Summarize(measurements []domain.Measurement) []PhaseSummary {
	byKind := make(map[string]*PhaseSummary)
	for _, m := range measurements {
		s, ok := byKind[m.Kind]
		if !ok {
			s = &PhaseSummary{Kind: m.Kind}
			byKind[m.Kind] = s
		}
		s.Count++
		s.Total += m.Elapsed
	}
	out := make([]PhaseSummary, 0, len(byKind))
	for _, s := range byKind {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b PhaseSummary) int { return strings.Compare(a.Kind, b.Kind) })
	return out
}

type jsonReport struct {
	Root      string               `json:"root"`
	Documents []*domain.Document   `json:"documents"`
	Changed   []domain.ResolvedURL `json:"changed,omitempty"`
	Phases    []PhaseSummary       `json:"phases,omitempty"`
	ElapsedMs int64                `json:"elapsedMs"`
}

// JSON writes report as one line of JSON. Documents include everything the
// entrypoints eagerly import.
func JSON(w io.Writer, report *domain.Report) error {
	return json.NewEncoder(w).Encode(jsonReport{
		Root:      report.Root,
		Documents: report.AllDocuments(),
		Changed:   report.Changed,
		Phases:    Summarize(report.Measurements),
		ElapsedMs: report.Elapsed.Milliseconds(),
	})
}

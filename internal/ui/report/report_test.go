package report_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/ui/report"
)

func at(file domain.ResolvedURL, line, column int) *domain.SourceRange {
	return &domain.SourceRange{File: file, Start: domain.SourcePosition{Line: line, Column: column}}
}

func sampleReport() *domain.Report {
	a := &domain.Document{
		URL:  "a.js",
		Type: domain.TypeJS,
		Features: []domain.Feature{
			{Kind: domain.KindElement, ID: "x-b", URL: "a.js", Range: at("a.js", 0, 0)},
		},
		Warnings: []domain.Warning{
			{Code: domain.WarningParseError, Message: `unexpected "}"`, Severity: domain.SeverityError, Range: at("a.js", 4, 1)},
		},
	}
	index := &domain.Document{
		URL:  "index.html",
		Type: domain.TypeHTML,
		Features: []domain.Feature{
			{Kind: domain.KindImport, ID: "a.js", URL: "index.html"},
			{Kind: domain.KindElementReference, ID: "x-b", URL: "index.html", Range: at("index.html", 0, 12)},
		},
		Imports: []*domain.Import{
			{Type: "html-script", Specifier: "./a.js", URL: "a.js", Document: a},
			{Type: "js-dynamic-import", Specifier: "./lazy.js", URL: "lazy.js", Lazy: true},
			{Type: "html-import", Specifier: "https://x/y.html"},
		},
		Warnings: []domain.Warning{
			{
				Code:     domain.WarningCouldNotResolve,
				Message:  `could not resolve "https://x/y.html"`,
				Severity: domain.SeverityWarning,
				Range:    at("index.html", 2, 4),
			},
		},
	}
	return &domain.Report{
		Root:      "/project",
		Documents: []*domain.Document{index},
		Changed:   []domain.ResolvedURL{"a.js"},
		Measurements: []domain.Measurement{
			{Kind: domain.MeasureParse, Identifier: "index.html", Elapsed: time.Millisecond},
			{Kind: domain.MeasureParse, Identifier: "a.js", Elapsed: 500 * time.Microsecond},
			{Kind: domain.MeasureScan, Identifier: "a.js", Elapsed: 250 * time.Microsecond},
			{Kind: domain.MeasureAnalyze, Identifier: "index.html", Elapsed: 2 * time.Millisecond},
		},
		Elapsed: 12*time.Millisecond + 400*time.Microsecond,
	}
}

func TestText_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.NewText(&buf, termenv.Ascii, true).Render(sampleReport()))

	g := goldie.New(t)
	g.Assert(t, "text", buf.Bytes())
}

func TestText_RenderClean(t *testing.T) {
	var buf bytes.Buffer
	r := &domain.Report{
		Root:      "/project",
		Documents: []*domain.Document{{URL: "page.html", Type: domain.TypeHTML}},
		Measurements: []domain.Measurement{
			{Kind: domain.MeasureParse, Elapsed: time.Millisecond},
		},
	}
	require.NoError(t, report.NewText(&buf, termenv.Ascii, false).Render(r))

	assert.Equal(t, "● page.html (html)\n✓ 1 document(s), 0 feature(s), 0 warning(s) in 0s\n", buf.String())
}

func TestSummarize(t *testing.T) {
	phases := report.Summarize(sampleReport().Measurements)

	assert.Equal(t, []report.PhaseSummary{
		{Kind: domain.MeasureAnalyze, Count: 1, Total: 2 * time.Millisecond},
		{Kind: domain.MeasureParse, Count: 2, Total: 1500 * time.Microsecond},
		{Kind: domain.MeasureScan, Count: 1, Total: 250 * time.Microsecond},
	}, phases)
	assert.Empty(t, report.Summarize(nil))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.JSON(&buf, sampleReport()))

	var decoded struct {
		Root      string `json:"root"`
		Documents []struct {
			URL      string `json:"url"`
			Imports  []struct {
				URL  string `json:"url"`
				Lazy bool   `json:"lazy"`
			} `json:"imports"`
			Warnings []struct {
				Code string `json:"code"`
			} `json:"warnings"`
		} `json:"documents"`
		Changed   []string `json:"changed"`
		ElapsedMs int64    `json:"elapsedMs"`
		Phases    []struct {
			Kind  string `json:"kind"`
			Count int    `json:"count"`
		} `json:"phases"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "/project", decoded.Root)
	require.Len(t, decoded.Documents, 2)
	assert.Equal(t, "index.html", decoded.Documents[0].URL)
	assert.Equal(t, "a.js", decoded.Documents[1].URL)
	require.Len(t, decoded.Documents[0].Imports, 3)
	assert.True(t, decoded.Documents[0].Imports[1].Lazy)
	assert.Empty(t, decoded.Documents[0].Imports[2].URL)
	assert.Equal(t, "parse-error", decoded.Documents[1].Warnings[0].Code)
	assert.Equal(t, []string{"a.js"}, decoded.Changed)
	assert.Equal(t, int64(12), decoded.ElapsedMs)
	assert.Len(t, decoded.Phases, 3)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")), "one report per line")
}

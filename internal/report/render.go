package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"covreport/internal/coverage"
	"covreport/internal/stats"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNoDatasets signals that no coverage data was supplied. It is distinct
// from a failed run: the caller logs it and writes nothing.
var ErrNoDatasets = errors.New("no coverage datasets provided for comparison")

// Options configures a report generation run.
type Options struct {
	Series     stats.Options
	OutputPath string
}

// Meta carries the run identity rendered into the document footer.
type Meta struct {
	GeneratedAt  time.Time
	RunID        string
	LookbackDays int
}

type documentData struct {
	Title        string
	NoteText     string
	GeneratedAt  string
	RunID        string
	LookbackDays int
	Stats        stats.ComparisonStats
	Rows         []stats.ProjectStats
	PayloadJSON  template.JS
	ChartScript  template.JS
}

var reportTmpl = template.Must(template.New("report").Parse(reportTemplate))

// Generate runs the full pipeline over the datasets and writes the report to
// opts.OutputPath. Returns the written filename. The artifact is written in a
// single rename, so a failed run never leaves a partial report behind.
func Generate(ctx context.Context, datasets map[string]*coverage.CoverageData, opts Options) (string, error) {
	if len(datasets) == 0 {
		return "", ErrNoDatasets
	}

	log.Info().Int("projects", len(datasets)).Msg("Generating opportunity analysis report")

	summary := stats.Summarize(datasets)
	progress, err := stats.BuildProgress(ctx, datasets, opts.Series)
	if err != nil {
		return "", err
	}

	meta := Meta{
		GeneratedAt:  time.Now(),
		RunID:        uuid.NewString(),
		LookbackDays: opts.Series.LookbackDays,
	}
	if meta.LookbackDays < 1 {
		meta.LookbackDays = stats.DefaultOptions().LookbackDays
	}

	doc, err := Render(summary, progress, meta)
	if err != nil {
		return "", err
	}

	path := opts.OutputPath
	if path == "" {
		path = "opportunity_comparison_report.html"
	}
	if err := writeAtomic(path, doc); err != nil {
		return "", err
	}

	log.Info().Str("file", path).Str("run", meta.RunID).Msg("Opportunity analysis report saved")
	return path, nil
}

// Render produces the complete HTML document in memory.
func Render(summary stats.ComparisonStats, progress *stats.ProgressData, meta Meta) ([]byte, error) {
	payload, err := json.Marshal(progress)
	if err != nil {
		return nil, fmt.Errorf("marshal progress payload: %w", err)
	}

	// Singular vs. comparison framing depends on the project count.
	title := "Opportunity Comparison Report"
	note := "Progress charts show days since each opportunity's first active day (Day 0 = first service delivery or DU completion for that opportunity)."
	if summary.ProjectCount == 1 {
		title = "Opportunity Analysis Report"
		note = "Progress charts show days since the opportunity's first active day (Day 0 = first service delivery or DU completion)."
	}

	// Table rows in sorted project-key order for a stable document.
	keys := make([]string, 0, len(summary.Projects))
	for key := range summary.Projects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rows := make([]stats.ProjectStats, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, summary.Projects[key])
	}

	data := documentData{
		Title:        title,
		NoteText:     note,
		GeneratedAt:  meta.GeneratedAt.Format("2006-01-02 15:04:05"),
		RunID:        meta.RunID,
		LookbackDays: meta.LookbackDays,
		Stats:        summary,
		Rows:         rows,
		PayloadJSON:  template.JS(payload),
		ChartScript:  template.JS(minifiedChartScript()),
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

// minifiedChartScript runs the embedded chart script through esbuild. On a
// transform error the unminified source is used instead, since the report must
// still render.
func minifiedChartScript() string {
	result := api.Transform(chartScript, api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: false,
	})
	if len(result.Errors) > 0 {
		log.Warn().Interface("errors", result.Errors).Msg("Chart script minification failed, embedding unminified source")
		return chartScript
	}
	return string(result.Code)
}

func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".covreport-*.html")
	if err != nil {
		return fmt.Errorf("create temp report file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close report file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalize report file: %w", err)
	}
	return nil
}

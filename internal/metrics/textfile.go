package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/runlog/internal/report"
)

// TextfileReporter records a run on a private registry and writes it to path.
// It implements report.Reporter.
type TextfileReporter struct {
	path     string
	registry *prom.Registry
	recorder Recorder
}

// NewTextfileReporter creates a reporter writing to path. project becomes the
// "project" label on every series.
func NewTextfileReporter(path, project string) *TextfileReporter {
	reg := prom.NewRegistry()
	return &TextfileReporter{
		path:     path,
		registry: reg,
		recorder: NewPrometheusRecorder(reg, prom.Labels{"project": project}),
	}
}

// Name implements report.Reporter.
func (t *TextfileReporter) Name() string { return "metrics" }

// Report implements report.Reporter. The file is replaced atomically and only
// ever describes the last run.
func (t *TextfileReporter) Report(_ context.Context, rec report.Record) error {
	Observe(t.recorder, rec)
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(t.path, t.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Close implements report.Reporter.
func (t *TextfileReporter) Close() error { return nil }

// Observe feeds rec into r.
func Observe(r Recorder, rec report.Record) {
	r.ObserveRunDuration(rec.Duration())
	r.SetExitCode(rec.ExitCode)
	r.SetOutputLines(rec.Lines)
	r.SetLastRun(rec.FinishedAt)
	r.SetRunSuccess(rec.Outcome() == report.OutcomeSuccess)
}

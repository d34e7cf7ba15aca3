// Package report defines the record of a finished run and the reporters that
// consume it after the child process has exited.
package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/runlog/internal/capture"
	ferrors "git.home.luguber.info/inful/runlog/internal/foundation/errors"
	"git.home.luguber.info/inful/runlog/internal/logfields"
	"git.home.luguber.info/inful/runlog/internal/vcs"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Record is everything known about one run once the child has exited.
type Record struct {
	ID         string
	Command    []string
	Project    string
	LogFile    string
	ExitCode   int
	Lines      int
	StartedAt  time.Time
	FinishedAt time.Time
	Revision   vcs.Revision
}

// NewRecord combines a capture result with run metadata.
func NewRecord(id string, res *capture.Result, rev vcs.Revision) Record {
	return Record{
		ID:         id,
		Command:    res.Command,
		Project:    res.Project,
		LogFile:    res.LogFile,
		ExitCode:   res.ExitCode,
		Lines:      res.Lines,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Revision:   rev,
	}
}

// Duration is the child's wall time.
func (r Record) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Outcome is OutcomeSuccess for exit code 0 and OutcomeFailure otherwise.
func (r Record) Outcome() string {
	if r.ExitCode == 0 {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// Reporter consumes finished runs.
type Reporter interface {
	Name() string
	Report(ctx context.Context, rec Record) error
	Close() error
}

// Fanout hands a record to every reporter. Reporter failures are logged as
// warnings and returned, but never stop the remaining reporters.
type Fanout struct {
	reporters []Reporter
	logger    *slog.Logger
}

// NewFanout creates a Fanout over reporters.
func NewFanout(logger *slog.Logger, reporters ...Reporter) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{reporters: reporters, logger: logger}
}

// Len returns the number of reporters.
func (f *Fanout) Len() int { return len(f.reporters) }

// Report delivers rec to all reporters and joins their errors.
func (f *Fanout) Report(ctx context.Context, rec Record) error {
	var errs []error
	for _, r := range f.reporters {
		if err := r.Report(ctx, rec); err != nil {
			classified := ferrors.ReporterError("run reporter failed").
				WithCause(err).
				WithContext("reporter", r.Name()).
				Build()
			f.logger.Warn("Run reporter failed", logfields.Reporter(r.Name()), logfields.RunID(rec.ID), logfields.Error(err))
			errs = append(errs, classified)
			continue
		}
		f.logger.Debug("Run reported", logfields.Reporter(r.Name()), logfields.RunID(rec.ID))
	}
	return errors.Join(errs...)
}

// Close closes every reporter, logging failures.
func (f *Fanout) Close() {
	for _, r := range f.reporters {
		if err := r.Close(); err != nil {
			f.logger.Warn("Failed to close run reporter", logfields.Reporter(r.Name()), logfields.Error(err))
		}
	}
}

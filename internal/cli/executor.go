// Package cli executes a capture run end to end: configuration, revision
// lookup, the capture itself and the optional run reporters.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/runlog/internal/capture"
	"git.home.luguber.info/inful/runlog/internal/command"
	"git.home.luguber.info/inful/runlog/internal/config"
	"git.home.luguber.info/inful/runlog/internal/events"
	"git.home.luguber.info/inful/runlog/internal/history"
	"git.home.luguber.info/inful/runlog/internal/logfields"
	"git.home.luguber.info/inful/runlog/internal/metrics"
	"git.home.luguber.info/inful/runlog/internal/report"
	"git.home.luguber.info/inful/runlog/internal/vcs"
)

// RunRequest is the input of one invocation.
type RunRequest struct {
	Flags config.Flags
}

// RunResponse describes a finished invocation. ExitCode is the child's exit code.
type RunResponse struct {
	RunID    string
	ExitCode int
	LogFile  string
	Lines    int
	Duration time.Duration
	Revision vcs.Revision
}

// Executor runs capture sessions.
type Executor struct {
	runner *capture.Runner
	stdout io.Writer
	logger *slog.Logger
	newID  func() string
	detect func(dir string) (vcs.Revision, error)
	extra  []report.Reporter
}

// NewExecutor creates an executor bound to the process's standard streams.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	runner := capture.NewRunner()
	runner.Logger = logger
	return &Executor{
		runner: runner,
		stdout: os.Stdout,
		logger: logger,
		newID:  uuid.NewString,
		detect: vcs.Detect,
	}
}

// WithRunner replaces the capture runner (used by tests to capture console output).
func (e *Executor) WithRunner(r *capture.Runner) *Executor {
	if r != nil {
		e.runner = r
		if r.Stdout != nil {
			e.stdout = r.Stdout
		}
	}
	return e
}

// WithReporters adds reporters on top of the configured ones.
func (e *Executor) WithReporters(reporters ...report.Reporter) *Executor {
	e.extra = append(e.extra, reporters...)
	return e
}

// Execute resolves configuration, runs the tool and reports the finished run.
// A returned error is a runlog failure; the child's exit status is in the response.
func (e *Executor) Execute(ctx context.Context, req RunRequest) (*RunResponse, error) {
	opts, err := config.Resolve(req.Flags)
	if err != nil {
		return nil, err
	}
	if opts.ConfigFile != "" {
		e.logger.Debug("Loaded configuration file", logfields.Path(opts.ConfigFile))
	}

	runID := e.newID()
	logger := e.logger.With(logfields.RunID(runID))

	rev, err := e.detect(opts.Project)
	if err != nil {
		logger.Debug("Revision detection failed", logfields.Project(opts.Project), logfields.Error(err))
	}

	args := command.Build(opts.Tool, opts.Target, opts.Device)
	spec := capture.Spec{
		Project:    opts.Project,
		LogDir:     opts.LogDir,
		LogPrefix:  opts.LogPrefix,
		Command:    args,
		FlushLines: opts.FlushLines,
	}

	runner := *e.runner
	runner.Logger = logger
	if !opts.Quiet {
		runner.Announce = func(plan capture.Plan) {
			WriteBanner(e.stdout, plan, opts.Instructions)
		}
	}

	logger.Debug("Starting capture",
		logfields.Command(command.String(args)),
		logfields.Project(opts.Project),
		logfields.Revision(rev.String()))

	res, err := runner.Run(spec)
	if err != nil {
		return nil, err
	}

	rec := report.NewRecord(runID, res, rev)
	e.report(ctx, logger, opts, rec)

	logger.Info("Run finished",
		logfields.ExitCode(res.ExitCode),
		logfields.Lines(res.Lines),
		logfields.LogFile(res.LogFile),
		logfields.Duration(res.Duration()))

	return &RunResponse{
		RunID:    runID,
		ExitCode: res.ExitCode,
		LogFile:  res.LogFile,
		Lines:    res.Lines,
		Duration: res.Duration(),
		Revision: rev,
	}, nil
}

// report delivers rec to every configured reporter. Failures never change the
// run's outcome.
func (e *Executor) report(ctx context.Context, logger *slog.Logger, opts *config.Options, rec report.Record) {
	reporters := e.reporters(logger, opts)
	if len(reporters) == 0 {
		return
	}
	fan := report.NewFanout(logger, reporters...)
	defer fan.Close()
	_ = fan.Report(ctx, rec)
}

func (e *Executor) reporters(logger *slog.Logger, opts *config.Options) []report.Reporter {
	var out []report.Reporter
	if opts.History.Enabled {
		store, err := history.NewSQLiteStore(opts.History.Path)
		if err != nil {
			logger.Warn("Run history unavailable", logfields.Path(opts.History.Path), logfields.Error(err))
		} else {
			out = append(out, store)
		}
	}
	if opts.Metrics.Textfile != "" {
		out = append(out, metrics.NewTextfileReporter(opts.Metrics.Textfile, filepath.Base(opts.Project)))
	}
	if opts.NATS.URL != "" {
		out = append(out, events.NewNATSReporter(opts.NATS.URL, opts.NATS.Subject))
	}
	return append(out, e.extra...)
}

// Package commands defines the runlog command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/runlog/internal/cli"
	"git.home.luguber.info/inful/runlog/internal/config"
	ferrors "git.home.luguber.info/inful/runlog/internal/foundation/errors"
	"git.home.luguber.info/inful/runlog/internal/logfields"
)

// CLI is the single runlog entry point.
type CLI struct {
	Project     string           `help:"Project root; working directory of the tool" default:"." env:"RUNLOG_PROJECT"`
	Device      string           `short:"d" help:"Device identifier passed as -d" env:"RUNLOG_DEVICE"`
	Target      string           `short:"t" help:"Entry file passed as -t" default:"lib/google_sign_in_test_main.dart" env:"RUNLOG_TARGET"`
	LogDir      string           `name:"logdir" help:"Log directory, relative to the project" default:"logs" env:"RUNLOG_LOGDIR"`
	Config      string           `short:"c" help:"Configuration file (default <project>/runlog.yaml when present)" env:"RUNLOG_CONFIG"`
	History     bool             `help:"Record the run in the SQLite history" env:"RUNLOG_HISTORY"`
	MetricsFile string           `name:"metrics-file" help:"Write run metrics to a Prometheus textfile" env:"RUNLOG_METRICS_FILE"`
	NATSURL     string           `name:"nats-url" help:"Publish a run event to this NATS server" env:"RUNLOG_NATS_URL"`
	Quiet       bool             `short:"q" help:"Do not print the banner" env:"RUNLOG_QUIET"`
	Verbose     bool             `short:"v" help:"Enable verbose logging" env:"RUNLOG_VERBOSE"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	logger   *slog.Logger
	stderr   io.Writer
	explicit map[string]bool
}

// AfterApply runs after flag parsing; setup logging once and remember which
// flags the user actually gave.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(ctx *kong.Context) error {
	c.explicit = explicitFlags(ctx)
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(c.errOut(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(c.logger)
	return nil
}

// Flags converts the parsed command line into configuration input.
func (c *CLI) Flags() config.Flags {
	return config.Flags{
		Project:     c.Project,
		Device:      c.Device,
		Target:      c.Target,
		LogDir:      c.LogDir,
		ConfigPath:  c.Config,
		History:     c.History,
		MetricsFile: c.MetricsFile,
		NATSURL:     c.NATSURL,
		Quiet:       c.Quiet,
		Explicit:    c.explicit,
	}
}

// explicitFlags names the flags set on the command line or through a non-empty
// environment variable, as opposed to those left at their kong default.
func explicitFlags(ctx *kong.Context) map[string]bool {
	set := make(map[string]bool)
	if ctx == nil {
		return set
	}
	for _, p := range ctx.Path {
		if p.Flag != nil {
			set[p.Flag.Name] = true
		}
	}
	for _, f := range ctx.Flags() {
		if f.Tag == nil {
			continue
		}
		for _, env := range f.Tag.Envs {
			if os.Getenv(env) != "" {
				set[f.Name] = true
			}
		}
	}
	return set
}

// Execute runs the tool and returns the process exit code: the child's exit
// code, or a classified code when runlog itself fails.
func (c *CLI) Execute(ctx context.Context, executor *cli.Executor) int {
	logger := c.logger
	if logger == nil {
		logger = slog.Default()
	}
	if executor == nil {
		executor = cli.NewExecutor(logger)
	}

	resp, err := executor.Execute(ctx, cli.RunRequest{Flags: c.Flags()})
	if err != nil {
		return ferrors.NewCLIErrorAdapter(c.Verbose, logger).WithOutput(c.errOut()).Report(err)
	}
	logger.Debug("Exiting with tool status", logfields.RunID(resp.RunID), logfields.ExitCode(resp.ExitCode))
	return resp.ExitCode
}

func (c *CLI) errOut() io.Writer {
	if c.stderr != nil {
		return c.stderr
	}
	return os.Stderr
}

package capture

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"git.home.luguber.info/inful/runlog/internal/command"
	ferrors "git.home.luguber.info/inful/runlog/internal/foundation/errors"
	"git.home.luguber.info/inful/runlog/internal/logfields"
	"git.home.luguber.info/inful/runlog/internal/logfile"
)

// Spec describes one capture run. Project and LogDir must be absolute.
type Spec struct {
	Project    string
	LogDir     string
	LogPrefix  string
	Command    []string
	FlushLines bool
}

// Plan is what the runner is about to do, handed to the Announce hook after the
// log header is written and before the child starts.
type Plan struct {
	Command []string
	Project string
	LogFile string
}

// Result describes a finished child process.
type Result struct {
	Command    []string
	Project    string
	LogFile    string
	ExitCode   int
	Lines      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time between child start and exit.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Runner tees a child process's combined output to Stdout and a log file.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Now    func() time.Time
	// Announce, when set, runs once the log file is ready and before the child starts.
	Announce func(Plan)
	// AbsorbInterrupts keeps SIGINT from terminating runlog while the child runs;
	// the child still receives it from the terminal and decides how to exit.
	AbsorbInterrupts bool
	Logger           *slog.Logger
}

// NewRunner returns a Runner wired to the process's own standard streams.
func NewRunner() *Runner {
	return &Runner{
		Stdin:            os.Stdin,
		Stdout:           os.Stdout,
		Now:              time.Now,
		AbsorbInterrupts: true,
		Logger:           slog.Default(),
	}
}

// Run executes spec and blocks until the child has exited. The returned error is
// non-nil only for runlog's own failures; the child's exit code is in Result.
func (r *Runner) Run(spec Spec) (res *Result, err error) {
	if len(spec.Command) == 0 || spec.Command[0] == "" {
		return nil, ferrors.ValidationError("empty command").Build()
	}
	logger := r.logger()

	if err := logfile.EnsureDir(spec.LogDir); err != nil {
		return nil, err
	}

	path := logfile.Path(spec.LogDir, spec.LogPrefix, r.now())
	w, err := logfile.Create(path, logfile.Header{
		Command: command.String(spec.Command),
		Project: spec.Project,
	}, logfile.WithLineFlush(spec.FlushLines))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	logger.Debug("Log file opened", logfields.LogFile(path))

	if r.Announce != nil {
		r.Announce(Plan{Command: spec.Command, Project: spec.Project, LogFile: path})
	}

	if r.AbsorbInterrupts {
		stop := absorbInterrupts(logger)
		defer stop()
	}

	cmd, out, err := r.start(spec)
	if err != nil {
		return nil, err
	}
	res = &Result{
		Command:   spec.Command,
		Project:   spec.Project,
		LogFile:   path,
		StartedAt: r.now(),
	}
	logger.Debug("Child process started", logfields.Command(command.String(spec.Command)), slog.Int("pid", cmd.Process.Pid))

	loopErr := r.tee(out, w)
	// Closing the read end unblocks a child still writing after a failed tee.
	_ = out.Close()

	waitErr := cmd.Wait()
	res.FinishedAt = r.now()
	res.Lines = w.Lines()
	res.ExitCode = exitCode(cmd.ProcessState)

	if loopErr != nil {
		return res, loopErr
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return res, ferrors.ProcessError("wait for child process").
				WithCause(waitErr).
				WithContext("command", command.String(spec.Command)).
				Build()
		}
	}
	logger.Debug("Child process exited",
		logfields.ExitCode(res.ExitCode),
		logfields.Lines(res.Lines),
		logfields.Duration(res.Duration()))
	return res, nil
}

// start launches the child with stdout and stderr sharing one pipe so the two
// streams keep their arrival order.
func (r *Runner) start(spec Spec) (*exec.Cmd, *os.File, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, nil, ferrors.ProcessError("create output pipe").WithCause(err).Build()
	}

	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Project
	cmd.Stdin = r.Stdin
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, nil, ferrors.ProcessError("start child process").
			WithCause(err).
			WithContext("command", command.String(spec.Command)).
			WithContext("dir", spec.Project).
			Build()
	}
	// The child holds its own copy; ours must go so EOF arrives when the child exits.
	_ = pw.Close()
	return cmd, pr, nil
}

func (r *Runner) tee(out io.Reader, w *logfile.Writer) error {
	console := r.Stdout
	if console == nil {
		console = io.Discard
	}
	for line, err := range Lines(out) {
		if err != nil {
			return ferrors.ProcessError("read child output").WithCause(err).Build()
		}
		if _, err := io.WriteString(console, line); err != nil {
			return ferrors.FileSystemError("write console output").WithCause(err).Build()
		}
		if err := w.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

// exitCode maps a finished process to a shell-style status: the exit status, or
// 128+signal when the child was killed by a signal.
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

package capture

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/runlog/internal/command"
	ferrors "git.home.luguber.info/inful/runlog/internal/foundation/errors"
	"git.home.luguber.info/inful/runlog/internal/testutil"
)

type fixture struct {
	project string
	logDir  string
	console *bytes.Buffer
	runner  *Runner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	project := t.TempDir()
	console := &bytes.Buffer{}
	return &fixture{
		project: project,
		logDir:  filepath.Join(project, "logs"),
		console: console,
		runner: &Runner{
			Stdin:  strings.NewReader(""),
			Stdout: console,
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
	}
}

func (f *fixture) spec(tool, device string) Spec {
	return Spec{
		Project:    f.project,
		LogDir:     f.logDir,
		Command:    command.Build([]string{tool}, "lib/main.dart", device),
		FlushLines: true,
	}
}

func readLog(t *testing.T, res *Result) string {
	t.Helper()
	data, err := os.ReadFile(res.LogFile)
	require.NoError(t, err)
	return string(data)
}

func TestRunTeesTwoLines(t *testing.T) {
	tool := testutil.FakeTool(t, "echo 'Launching lib/main.dart'\necho 'Syncing files to device'\nexit 0")
	f := newFixture(t)
	spec := f.spec(tool, "")

	_, err := os.Stat(f.logDir)
	require.True(t, os.IsNotExist(err))

	res, err := f.runner.Run(spec)
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, 2, res.Lines)
	assert.Equal(t, f.logDir, filepath.Dir(res.LogFile))
	assert.Regexp(t, regexp.MustCompile(`^google_signin_\d{8}_\d{6}\.log$`), filepath.Base(res.LogFile))
	assert.False(t, res.FinishedAt.Before(res.StartedAt))

	body := "Launching lib/main.dart\nSyncing files to device\n"
	header := "CMD: " + command.String(spec.Command) + "\nPROJECT: " + f.project + "\n\n"
	assert.Equal(t, header+body, readLog(t, res))
	assert.Equal(t, body, f.console.String())
}

func TestRunPropagatesExitCode(t *testing.T) {
	for _, code := range []int{0, 1, 127} {
		t.Run(fmt.Sprintf("exit_%d", code), func(t *testing.T) {
			tool := testutil.FakeTool(t, fmt.Sprintf("echo done\nexit %d", code))
			f := newFixture(t)

			res, err := f.runner.Run(f.spec(tool, ""))
			require.NoError(t, err)
			assert.Equal(t, code, res.ExitCode)
		})
	}
}

func TestRunMergesStderrInOrder(t *testing.T) {
	tool := testutil.FakeTool(t, "echo out1\necho err1 1>&2\necho out2\necho err2 1>&2\nexit 3")
	f := newFixture(t)

	res, err := f.runner.Run(f.spec(tool, ""))
	require.NoError(t, err)

	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out1\nerr1\nout2\nerr2\n", f.console.String())
	assert.True(t, strings.HasSuffix(readLog(t, res), "\n\nout1\nerr1\nout2\nerr2\n"))
}

func TestRunPassesArgumentsAndWorkingDir(t *testing.T) {
	tool := testutil.FakeTool(t, "echo \"$@\"\npwd")
	f := newFixture(t)

	res, err := f.runner.Run(f.spec(tool, "emulator-5554"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(f.console.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "run -t lib/main.dart --verbose -d emulator-5554", lines[0])

	wantDir, err := filepath.EvalSymlinks(f.project)
	require.NoError(t, err)
	gotDir, err := filepath.EvalSymlinks(lines[1])
	require.NoError(t, err)
	assert.Equal(t, wantDir, gotDir)
	assert.Equal(t, 2, res.Lines)
}

func TestRunForwardsStdin(t *testing.T) {
	tool := testutil.FakeTool(t, "read key\necho \"got $key\"")
	f := newFixture(t)
	f.runner.Stdin = strings.NewReader("q\n")

	_, err := f.runner.Run(f.spec(tool, ""))
	require.NoError(t, err)
	assert.Equal(t, "got q\n", f.console.String())
}

func TestRunReplacesInvalidUTF8(t *testing.T) {
	tool := testutil.FakeTool(t, `printf 'bad \377 byte\n'`)
	f := newFixture(t)

	res, err := f.runner.Run(f.spec(tool, ""))
	require.NoError(t, err)
	assert.Equal(t, "bad � byte\n", f.console.String())
	assert.True(t, strings.HasSuffix(readLog(t, res), "bad � byte\n"))
}

func TestRunKeepsUnterminatedLastLine(t *testing.T) {
	tool := testutil.FakeTool(t, `printf 'first\nlast'`)
	f := newFixture(t)

	res, err := f.runner.Run(f.spec(tool, ""))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Lines)
	assert.True(t, strings.HasSuffix(readLog(t, res), "\n\nfirst\nlast"))
}

func TestRunSignalExit(t *testing.T) {
	tool := testutil.FakeTool(t, "echo before\nkill -TERM $$")
	f := newFixture(t)

	res, err := f.runner.Run(f.spec(tool, ""))
	require.NoError(t, err)
	assert.Equal(t, 128+15, res.ExitCode)
	assert.Equal(t, "before\n", f.console.String())
}

func TestRunUsesClockForFileName(t *testing.T) {
	tool := testutil.FakeTool(t, "exit 0")
	f := newFixture(t)
	f.runner.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local) }
	spec := f.spec(tool, "")
	spec.LogPrefix = "signin"

	res, err := f.runner.Run(spec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.logDir, "signin_20260102_030405.log"), res.LogFile)
	assert.Zero(t, res.Lines)
}

func TestRunAnnouncesBeforeChildOutput(t *testing.T) {
	tool := testutil.FakeTool(t, "echo child")
	f := newFixture(t)
	var plan Plan
	f.runner.Announce = func(p Plan) {
		plan = p
		_, _ = io.WriteString(f.console, "banner\n")
	}

	res, err := f.runner.Run(f.spec(tool, ""))
	require.NoError(t, err)
	assert.Equal(t, "banner\nchild\n", f.console.String())
	assert.Equal(t, res.LogFile, plan.LogFile)
	assert.Equal(t, f.project, plan.Project)
}

func TestRunLaunchFailure(t *testing.T) {
	f := newFixture(t)
	spec := f.spec(filepath.Join(f.project, "no-such-tool"), "")

	res, err := f.runner.Run(spec)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryProcess))
	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.True(t, classified.IsFatal())
	require.Error(t, classified.Cause())
	assert.Equal(t, ferrors.ExitProcess, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	// The header is written before launch and survives the failure.
	entries, readErr := os.ReadDir(f.logDir)
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	data, readErr := os.ReadFile(filepath.Join(f.logDir, entries[0].Name()))
	require.NoError(t, readErr)
	assert.True(t, strings.HasPrefix(string(data), "CMD: "))
}

func TestRunLogDirCreationFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.logDir, []byte("not a directory"), 0o644))

	_, err := f.runner.Run(f.spec("flutter", ""))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestRunRejectsEmptyCommand(t *testing.T) {
	f := newFixture(t)
	_, err := f.runner.Run(Spec{Project: f.project, LogDir: f.logDir})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

package logfile

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/runlog/internal/foundation/errors"
)

func TestEnsureDirCreatesParents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app", "logs", "nested")

	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Existing directory is fine.
	require.NoError(t, EnsureDir(dir))
}

func TestEnsureDirFailsOnFile(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "logs")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := EnsureDir(filepath.Join(blocker, "sub"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.True(t, classified.IsFatal())
	require.Error(t, classified.Cause())
	assert.Contains(t, ferrors.NewCLIErrorAdapter(false, nil).FormatError(err), "create log directory: ")
}

func TestName(t *testing.T) {
	ts := time.Date(2026, 3, 7, 9, 5, 2, 0, time.Local)

	assert.Equal(t, "google_signin_20260307_090502.log", Name("", ts))
	assert.Equal(t, "build_20260307_090502.log", Name("build", ts))

	pattern := regexp.MustCompile(`^google_signin_\d{8}_\d{6}\.log$`)
	assert.Regexp(t, pattern, Name(DefaultPrefix, time.Now()))
}

func TestPathIsUnderDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	p := Path(dir, "", time.Now())
	assert.Equal(t, dir, filepath.Dir(p))
}

func TestCreateWritesHeader(t *testing.T) {
	p := filepath.Join(t.TempDir(), "run.log")

	w, err := Create(p, Header{Command: "flutter run -t lib/main.dart --verbose", Project: "/tmp/app"})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// Header is durable before any line is written.
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "CMD: flutter run -t lib/main.dart --verbose\nPROJECT: /tmp/app\n\n", string(data))
}

func TestCreateTruncatesExistingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(p, []byte("stale content that should disappear\n"), 0o644))

	w, err := Create(p, Header{Command: "c", Project: "p"})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "CMD: c\nPROJECT: p\n\n", string(data))
}

func TestWriteLine(t *testing.T) {
	for _, flush := range []bool{true, false} {
		p := filepath.Join(t.TempDir(), "run.log")
		w, err := Create(p, Header{Command: "c", Project: "p"}, WithLineFlush(flush))
		require.NoError(t, err)

		require.NoError(t, w.WriteLine("first\n"))
		require.NoError(t, w.WriteLine("second without newline"))
		assert.Equal(t, 2, w.Lines())
		assert.Equal(t, p, w.Path())

		if flush {
			data, err := os.ReadFile(p)
			require.NoError(t, err)
			assert.Contains(t, string(data), "second without newline")
		}

		require.NoError(t, w.Close())
		require.NoError(t, w.Close())

		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, "CMD: c\nPROJECT: p\n\nfirst\nsecond without newline", string(data))
	}
}

func TestCreateUnwritablePath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory permissions behave differently on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := filepath.Join(t.TempDir(), "ro")
	require.NoError(t, os.Mkdir(dir, 0o555))

	_, err := Create(filepath.Join(dir, "run.log"), Header{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestCreateMissingDirectory(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "run.log"), Header{})
	require.Error(t, err)
	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	path, _ := classified.Context().Get("path")
	assert.Contains(t, path, "missing")
}

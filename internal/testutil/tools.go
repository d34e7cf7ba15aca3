// Package testutil provides fixtures shared by runlog tests: fake build tools,
// throwaway projects and log file assertions.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// FakeTool writes an executable shell script standing in for the build/run
// tool and returns its path. Tests using it are skipped on Windows.
func FakeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are POSIX shell scripts")
	}
	p := filepath.Join(t.TempDir(), "fake-flutter")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write fake tool: %v", err)
	}
	return p
}

// FakeProject creates a project directory whose runlog.yaml runs a fake tool
// with the given script body. extraYAML is appended to the file verbatim.
func FakeProject(t *testing.T, body, extraYAML string) string {
	t.Helper()
	tool := FakeTool(t, body)
	project := t.TempDir()
	cfg := "tool: [" + tool + "]\n" + extraYAML
	if err := os.WriteFile(filepath.Join(project, "runlog.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("failed to write runlog.yaml: %v", err)
	}
	return project
}

// SetupTestGitRepo initializes a git repository in a temporary directory with
// one commit and returns the directory and the commit hash.
func SetupTestGitRepo(t *testing.T) (string, plumbing.Hash) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pubspec.yaml"), []byte("name: app\n"), 0o644); err != nil {
		t.Fatalf("failed to write pubspec.yaml: %v", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := w.Add("pubspec.yaml"); err != nil {
		t.Fatalf("failed to stage pubspec.yaml: %v", err)
	}
	hash, err := w.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Dev", Email: "dev@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return dir, hash
}

// LogFile reads a capture log and splits it into its header and body lines.
type LogFile struct {
	t       *testing.T
	path    string
	Command string
	Project string
	Lines   []string
}

// ReadLogFile parses the log at path, failing the test when the header is malformed.
func ReadLogFile(t *testing.T, path string) *LogFile {
	t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file %s: %v", path, err)
	}
	parts := strings.SplitN(string(data), "\n", 4)
	if len(parts) < 4 || !strings.HasPrefix(parts[0], "CMD: ") || !strings.HasPrefix(parts[1], "PROJECT: ") || parts[2] != "" {
		t.Fatalf("log file %s has no valid header:\n%s", path, data)
	}
	lf := &LogFile{
		t:       t,
		path:    path,
		Command: strings.TrimPrefix(parts[0], "CMD: "),
		Project: strings.TrimPrefix(parts[1], "PROJECT: "),
	}
	if body := parts[3]; body != "" {
		lf.Lines = strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	}
	return lf
}

// AssertLines validates the body of the log line by line.
func (lf *LogFile) AssertLines(want ...string) *LogFile {
	lf.t.Helper()
	if len(lf.Lines) != len(want) {
		lf.t.Errorf("log %s: expected %d lines, got %d: %q", lf.path, len(want), len(lf.Lines), lf.Lines)
		return lf
	}
	for i := range want {
		if lf.Lines[i] != want[i] {
			lf.t.Errorf("log %s line %d: expected %q, got %q", lf.path, i+1, want[i], lf.Lines[i])
		}
	}
	return lf
}

// AssertCommandSuffix validates the end of the CMD header.
func (lf *LogFile) AssertCommandSuffix(suffix string) *LogFile {
	lf.t.Helper()
	if !strings.HasSuffix(lf.Command, suffix) {
		lf.t.Errorf("log %s: expected command ending in %q, got %q", lf.path, suffix, lf.Command)
	}
	return lf
}

// AssertSingleLog returns the only file in dir, failing when there is not exactly one.
func AssertSingleLog(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read directory %s: %v", dir, err)
	}
	var logs []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}
	if len(logs) != 1 {
		t.Fatalf("expected exactly one log in %s, found %d", dir, len(logs))
	}
	return logs[0]
}

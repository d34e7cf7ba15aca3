package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyProject    = "project"
	KeyLogFile    = "log_file"
	KeyCommand    = "command"
	KeyExitCode   = "exit_code"
	KeyLines      = "lines"
	KeyDurationMS = "duration_ms"
	KeyReporter   = "reporter"
	KeyPath       = "path"
	KeyRevision   = "revision"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Project(p string) slog.Attr      { return slog.String(KeyProject, p) }
func LogFile(p string) slog.Attr      { return slog.String(KeyLogFile, p) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Lines(n int) slog.Attr           { return slog.Int(KeyLines, n) }
func Reporter(name string) slog.Attr  { return slog.String(KeyReporter, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Revision(rev string) slog.Attr   { return slog.String(KeyRevision, rev) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Duration converts d to the canonical duration_ms attribute.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d) / float64(time.Millisecond))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/runlog/internal/report"
	"git.home.luguber.info/inful/runlog/internal/vcs"
)

type fakeConn struct {
	subject  string
	payload  []byte
	flushed  bool
	closed   bool
	flushErr error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject = subject
	f.payload = data
	return nil
}

func (f *fakeConn) FlushTimeout(time.Duration) error {
	f.flushed = true
	return f.flushErr
}

func (f *fakeConn) Close() { f.closed = true }

func record() report.Record {
	start := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	return report.Record{
		ID:         "6f1c",
		Command:    []string{"flutter", "run", "-t", "lib/main.dart", "--verbose"},
		Project:    "/tmp/app",
		LogFile:    "/tmp/app/logs/google_signin_20260601_120000.log",
		ExitCode:   1,
		Lines:      3,
		StartedAt:  start,
		FinishedAt: start.Add(2500 * time.Millisecond),
		Revision:   vcs.Revision{Commit: "abc123", Branch: "main"},
	}
}

func TestNewRunEvent(t *testing.T) {
	ev := NewRunEvent(record())
	assert.Equal(t, "6f1c", ev.RunID)
	assert.Equal(t, report.OutcomeFailure, ev.Outcome)
	assert.Equal(t, int64(2500), ev.DurationMS)
	assert.Equal(t, "abc123", ev.Commit)
	assert.Equal(t, "main", ev.Branch)
}

func TestNATSReporterPublishes(t *testing.T) {
	conn := &fakeConn{}
	dials := 0
	r := NewNATSReporter("nats://example:4222", "runlog.runs").WithDialer(func(url string) (Conn, error) {
		dials++
		assert.Equal(t, "nats://example:4222", url)
		return conn, nil
	})
	assert.Equal(t, "events", r.Name())

	require.NoError(t, r.Report(t.Context(), record()))
	require.NoError(t, r.Report(t.Context(), record()))
	assert.Equal(t, 1, dials)
	assert.Equal(t, "runlog.runs", conn.subject)
	assert.True(t, conn.flushed)

	var ev RunEvent
	require.NoError(t, json.Unmarshal(conn.payload, &ev))
	assert.Equal(t, 1, ev.ExitCode)
	assert.Equal(t, "/tmp/app/logs/google_signin_20260601_120000.log", ev.LogFile)

	require.NoError(t, r.Close())
	assert.True(t, conn.closed)
}

func TestNATSReporterDialFailure(t *testing.T) {
	r := NewNATSReporter("nats://unreachable:4222", "runlog.runs").WithDialer(func(string) (Conn, error) {
		return nil, errors.New("no servers available for connection")
	})
	err := r.Report(t.Context(), record())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
	require.NoError(t, r.Close())
}

func TestNATSReporterFlushFailure(t *testing.T) {
	conn := &fakeConn{flushErr: errors.New("timeout")}
	r := NewNATSReporter("nats://x", "s").WithDialer(func(string) (Conn, error) { return conn, nil })
	require.Error(t, r.Report(t.Context(), record()))
}

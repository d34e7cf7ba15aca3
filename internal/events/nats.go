// Package events publishes a JSON summary of every finished run on NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/runlog/internal/report"
)

const (
	connectTimeout = 5 * time.Second
	flushTimeout   = 5 * time.Second
)

// RunEvent is the message body published for a finished run.
type RunEvent struct {
	RunID      string    `json:"run_id"`
	Command    []string  `json:"command"`
	Project    string    `json:"project"`
	LogFile    string    `json:"log_file"`
	ExitCode   int       `json:"exit_code"`
	Outcome    string    `json:"outcome"`
	Lines      int       `json:"lines"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	Commit     string    `json:"commit,omitempty"`
	Branch     string    `json:"branch,omitempty"`
	Host       string    `json:"host,omitempty"`
}

// NewRunEvent converts a record into its wire form.
func NewRunEvent(rec report.Record) RunEvent {
	host, _ := os.Hostname()
	return RunEvent{
		RunID:      rec.ID,
		Command:    rec.Command,
		Project:    rec.Project,
		LogFile:    rec.LogFile,
		ExitCode:   rec.ExitCode,
		Outcome:    rec.Outcome(),
		Lines:      rec.Lines,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		DurationMS: rec.Duration().Milliseconds(),
		Commit:     rec.Revision.Commit,
		Branch:     rec.Revision.Branch,
		Host:       host,
	}
}

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// Dialer opens a connection to url.
type Dialer func(url string) (Conn, error)

// DialNATS connects with a bounded timeout and a client name identifying runlog.
func DialNATS(url string) (Conn, error) {
	nc, err := nats.Connect(url, nats.Name("runlog"), nats.Timeout(connectTimeout))
	if err != nil {
		return nil, err
	}
	return nc, nil
}

// NATSReporter publishes RunEvents. The connection is opened on first use so an
// unreachable server only costs time after the run has finished.
// It implements report.Reporter.
type NATSReporter struct {
	url     string
	subject string
	dial    Dialer
	conn    Conn
}

// NewNATSReporter creates a reporter publishing to subject on url.
func NewNATSReporter(url, subject string) *NATSReporter {
	return &NATSReporter{url: url, subject: subject, dial: DialNATS}
}

// WithDialer replaces the connection factory (used by tests).
func (r *NATSReporter) WithDialer(d Dialer) *NATSReporter {
	if d != nil {
		r.dial = d
	}
	return r
}

// Name implements report.Reporter.
func (r *NATSReporter) Name() string { return "events" }

// Report implements report.Reporter.
func (r *NATSReporter) Report(_ context.Context, rec report.Record) error {
	data, err := json.Marshal(NewRunEvent(rec))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if r.conn == nil {
		conn, err := r.dial(r.url)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		r.conn = conn
	}
	if err := r.conn.Publish(r.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := r.conn.FlushTimeout(flushTimeout); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	slog.Debug("Published run event", "subject", r.subject, "run_id", rec.ID)
	return nil
}

// Close implements report.Reporter.
func (r *NATSReporter) Close() error {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
	return nil
}

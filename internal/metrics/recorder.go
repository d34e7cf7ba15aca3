package metrics

import "time"

// Recorder defines observability hooks for a finished run. Implementations may
// forward to Prometheus or elsewhere.
type Recorder interface {
	ObserveRunDuration(d time.Duration)
	SetExitCode(code int)
	SetOutputLines(n int)
	SetLastRun(t time.Time)
	SetRunSuccess(ok bool)
}

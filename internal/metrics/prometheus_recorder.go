package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	runDuration prom.Gauge
	exitCode    prom.Gauge
	outputLines prom.Gauge
	lastRun     prom.Gauge
	runSuccess  prom.Gauge
}

// NewPrometheusRecorder constructs the run metrics and registers them on reg.
// constLabels are attached to every series (for example the project name).
func NewPrometheusRecorder(reg *prom.Registry, constLabels prom.Labels) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		runDuration: prom.NewGauge(prom.GaugeOpts{
			Namespace:   "runlog",
			Name:        "run_duration_seconds",
			Help:        "Wall time of the last captured run",
			ConstLabels: constLabels,
		}),
		exitCode: prom.NewGauge(prom.GaugeOpts{
			Namespace:   "runlog",
			Name:        "run_exit_code",
			Help:        "Exit code of the last captured run",
			ConstLabels: constLabels,
		}),
		outputLines: prom.NewGauge(prom.GaugeOpts{
			Namespace:   "runlog",
			Name:        "run_output_lines",
			Help:        "Lines captured from the last run",
			ConstLabels: constLabels,
		}),
		lastRun: prom.NewGauge(prom.GaugeOpts{
			Namespace:   "runlog",
			Name:        "run_last_timestamp_seconds",
			Help:        "Unix time the last captured run finished",
			ConstLabels: constLabels,
		}),
		runSuccess: prom.NewGauge(prom.GaugeOpts{
			Namespace:   "runlog",
			Name:        "run_success",
			Help:        "1 when the last captured run exited with code 0, else 0",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(pr.runDuration, pr.exitCode, pr.outputLines, pr.lastRun, pr.runSuccess)
	return pr
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Set(d.Seconds())
}

func (p *PrometheusRecorder) SetExitCode(code int) {
	p.exitCode.Set(float64(code))
}

func (p *PrometheusRecorder) SetOutputLines(n int) {
	p.outputLines.Set(float64(n))
}

func (p *PrometheusRecorder) SetLastRun(t time.Time) {
	p.lastRun.Set(float64(t.UnixNano()) / 1e9)
}

func (p *PrometheusRecorder) SetRunSuccess(ok bool) {
	if ok {
		p.runSuccess.Set(1)
		return
	}
	p.runSuccess.Set(0)
}

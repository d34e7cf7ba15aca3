// Package metrics exposes run metrics for runlog.
//
// PrometheusRecorder registers gauges describing the last run on a private
// registry. The TextfileReporter writes that registry to a file in the
// Prometheus text format so a node_exporter textfile collector can pick it up.
// Each run replaces the file; run counts come from the scraper (for example
// changes(runlog_run_last_timestamp_seconds[1d])), not from runlog.
//
//	reporter := metrics.NewTextfileReporter("/var/lib/node_exporter/runlog.prom", "app")
//	_ = reporter.Report(ctx, rec)
package metrics

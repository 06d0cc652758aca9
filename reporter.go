package bindcheck

import (
	"github.com/platformlab/bindcheck/metrics"
	"github.com/platformlab/bindcheck/runner"
)

// MetricsReporter is responsible for reporting metrics from check results.
type MetricsReporter interface {
	ReportResults(result *runner.RunnerResult)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct{}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter.
func NewDefaultMetricsReporter() *DefaultMetricsReporter {
	return &DefaultMetricsReporter{}
}

// ReportResults reports the check results to metrics systems.
func (r *DefaultMetricsReporter) ReportResults(result *runner.RunnerResult) {
	metrics.RecordRun(
		result.RunID,
		string(result.Status),
		result.Stats.Total,
		result.Stats.Passed,
		result.Stats.Failed,
		result.Duration,
	)
}

package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/platformlab/bindcheck/types"
)

const (
	MetricsNamespace = "bindcheck"
)

var (
	Debug                bool = true
	validResults              = []types.CheckStatus{types.CheckStatusPass, types.CheckStatusFail, types.CheckStatusSkip}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	compilationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "compilations_total",
		Help:      "Count of bindings compilations per platform version",
	}, []string{
		"platform",
		"result",
	})

	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "cache_hits_total",
		Help:      "Count of bindings-archive cache hits during setup",
	}, []string{
		"platform",
	})

	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "checks_total",
		Help:      "Count of acceptance checks",
	}, []string{
		"run_id",
		"platform",
		"check",
		"mode",
		"result",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of check runs",
	}, []string{
		"run_id",
		"result",
	})

	runChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_checks_total",
		Help:      "Total number of checks in a run",
	}, []string{
		"run_id",
	})

	runChecksPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_checks_passed",
		Help:      "Number of passed checks in a run",
	}, []string{
		"run_id",
	})

	runChecksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_checks_failed",
		Help:      "Number of failed checks in a run",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration",
		Help:      "Duration of check runs in seconds",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordCompilation(platform string, result types.CheckStatus) {
	if Debug {
		log.Debug("metric inc",
			"m", "compilations_total",
			"platform", platform,
			"result", result)
	}
	compilationsTotal.WithLabelValues(platform, string(result)).Inc()
}

func RecordCacheHit(platform string) {
	cacheHitsTotal.WithLabelValues(platform).Inc()
}

func RecordCheck(runID string, platform string, check string, mode types.CheckMode, result types.CheckStatus) {
	if !isValidResult(result) {
		log.Error("RecordCheck - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "checks_total",
			"run_id", runID,
			"platform", platform,
			"check", check,
			"mode", mode,
			"result", result)
	}
	checksTotal.WithLabelValues(runID, platform, check, string(mode), string(result)).Inc()
}

func RecordRun(
	runID string,
	result string,
	total int,
	passed int,
	failed int,
	duration time.Duration,
) {
	runResults.WithLabelValues(runID, result).Set(1)
	runChecksTotal.WithLabelValues(runID).Add(float64(total))
	runChecksPassed.WithLabelValues(runID).Add(float64(passed))
	runChecksFailed.WithLabelValues(runID).Add(float64(failed))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidResult(result types.CheckStatus) bool {
	return slices.Contains(validResults, result)
}

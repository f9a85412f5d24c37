package metrics

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/geo-infra/geo-acceptor/types"
)

const (
	MetricsNamespace = "geoacceptor"

	pushJobName = "geo_acceptor"
)

var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	categoryTests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "category_tests_total",
		Help:      "Number of tests executed per region and category",
	}, []string{
		"name",
		"run_id",
		"region",
		"category",
	})

	categoryFailures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "category_tests_failed",
		Help:      "Number of failed tests per region and category",
	}, []string{
		"name",
		"run_id",
		"region",
		"category",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the whole test run",
	}, []string{
		"name",
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

// RecordResult publishes the counts of one (region, category) record.
// Degraded records (no banner found) are skipped; their absence from the
// series is the signal.
func RecordResult(name, runID string, rec types.Record) {
	if !rec.Parsed {
		RecordError("unparsed_category_result")
		return
	}
	categoryTests.WithLabelValues(name, runID, rec.Region, rec.Category).Set(float64(rec.Total))
	categoryFailures.WithLabelValues(name, runID, rec.Region, rec.Category).Set(float64(rec.Failed))
}

// RecordRunDuration publishes the wall-clock duration of a whole run.
func RecordRunDuration(name, runID string, d time.Duration) {
	runDuration.WithLabelValues(name, runID).Set(d.Seconds())
}

// Push sends the gathered metrics to a Prometheus push gateway, grouped
// by run. The CLI is one-shot, so pushing at end of run is the only way
// the series outlive the process.
func Push(gatewayURL, runID string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	log.Info("pushing metrics", "gateway", gatewayURL, "run_id", runID)
	return push.New(gatewayURL, pushJobName).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("run_id", runID).
		Push()
}

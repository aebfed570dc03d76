package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels requests that ended in a usable response.
	OutcomeSuccess = "success"
	// OutcomeError labels transport failures and rejected requests.
	OutcomeError = "error"
	// OutcomeNotFound labels 404 answers, which callers treat as benign.
	OutcomeNotFound = "not_found"
)

var (
	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsguard",
			Name:      "backend_requests_total",
			Help:      "Backend request attempts, partitioned by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	backendRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "opsguard",
			Name:      "backend_request_seconds",
			Help:      "Backend request attempt latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"op"},
	)

	bulkDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsguard",
			Name:      "bulk_documents_total",
			Help:      "Documents submitted through the bulk API, partitioned by index and outcome.",
		},
		[]string{"index", "outcome"},
	)

	generatedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsguard",
			Name:      "generated_documents_total",
			Help:      "Documents produced by the scenario generator, partitioned by collection.",
		},
		[]string{"collection"},
	)
)

// Register attaches opsguard collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		backendRequestsTotal,
		backendRequestSeconds,
		bulkDocumentsTotal,
		generatedDocumentsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRequest records one backend request attempt.
func ObserveRequest(op, outcome string, duration time.Duration) {
	switch outcome {
	case OutcomeSuccess, OutcomeNotFound:
	default:
		outcome = OutcomeError
	}
	backendRequestsTotal.WithLabelValues(op, outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	backendRequestSeconds.WithLabelValues(op).Observe(duration.Seconds())
}

// ObserveBulkItems records per-item results of one bulk request.
func ObserveBulkItems(index string, indexed, failed int) {
	if indexed > 0 {
		bulkDocumentsTotal.WithLabelValues(index, OutcomeSuccess).Add(float64(indexed))
	}
	if failed > 0 {
		bulkDocumentsTotal.WithLabelValues(index, OutcomeError).Add(float64(failed))
	}
}

// ObserveGenerated records how many documents a collection produced.
func ObserveGenerated(collection string, n int) {
	if n > 0 {
		generatedDocumentsTotal.WithLabelValues(collection).Add(float64(n))
	}
}

// WriteTextfile dumps the gatherer in the node-exporter textfile format.
// An empty path is a no-op.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

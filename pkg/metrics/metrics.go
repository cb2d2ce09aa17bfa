package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load outcomes
const (
	OutcomeFresh   = "fresh"
	OutcomeFetched = "fetched"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
)

// Metrics holds the collectors for dataset loading and search.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	datasetLoads  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	searchQueries *prometheus.CounterVec
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		datasetLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moneyclub",
			Name:      "dataset_loads_total",
			Help:      "Dataset loads by outcome.",
		}, []string{"dataset", "outcome"}),
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "moneyclub",
			Name:      "dataset_fetch_duration_seconds",
			Help:      "Duration of remote dataset fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"dataset"}),
		searchQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moneyclub",
			Name:      "search_queries_total",
			Help:      "Search queries by matching path.",
		}, []string{"path"}),
	}
}

// DatasetLoaded counts one load of dataset with the given outcome
func (m *Metrics) DatasetLoaded(dataset, outcome string) {
	if m == nil {
		return
	}
	m.datasetLoads.WithLabelValues(dataset, outcome).Inc()
}

// FetchObserved records how long a remote fetch of dataset took
func (m *Metrics) FetchObserved(dataset string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(dataset).Observe(d.Seconds())
}

// SearchQueried counts one search on the given path ("text" or "numeric")
func (m *Metrics) SearchQueried(path string) {
	if m == nil {
		return
	}
	m.searchQueries.WithLabelValues(path).Inc()
}

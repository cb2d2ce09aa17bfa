package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.DatasetLoaded("members", OutcomeFetched)
	m.DatasetLoaded("members", OutcomeFetched)
	m.DatasetLoaded("members", OutcomeStale)
	m.SearchQueried("numeric")
	m.FetchObserved("members", 150*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.datasetLoads.WithLabelValues("members", OutcomeFetched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.datasetLoads.WithLabelValues("members", OutcomeStale)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searchQueries.WithLabelValues("numeric")))

	count, err := testutil.GatherAndCount(reg, "moneyclub_dataset_fetch_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.DatasetLoaded("members", OutcomeFresh)
		m.FetchObserved("members", time.Second)
		m.SearchQueried("text")
	})
}

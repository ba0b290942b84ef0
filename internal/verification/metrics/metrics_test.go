package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIncrementLookup(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncrementLookup("valid")
	m.IncrementLookup("valid")
	m.IncrementLookup("not_found")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Lookups.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("not_found")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.IncrementLookup("valid") })
}

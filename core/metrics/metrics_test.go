package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FetchFailures.WithLabelValues("postgres").Inc()
	m.FetchFailures.WithLabelValues("postgres").Inc()
	m.PatternLookups.WithLabelValues("hit").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchFailures.WithLabelValues("postgres")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PatternLookups.WithLabelValues("hit")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewNopDoesNotPanicOnReuse(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop()
		NewNop()
	})
}

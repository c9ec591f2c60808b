package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, Register)
	assert.NotPanics(t, Register)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["edd_aliases_queue_depth"])
	assert.True(t, names["edd_audit_fallback_total"])
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(LabResultsTotal.WithLabelValues("created"))
	LabResultsTotal.WithLabelValues("created").Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(LabResultsTotal.WithLabelValues("created")))
}

func TestSince(t *testing.T) {
	assert.GreaterOrEqual(t, Since(time.Now().Add(-time.Second)), 1.0)
}

package utils

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsAreIsolated(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RowsWritten.Add(3)
	a.EventsRejected.WithLabelValues("values", KindValidation.String()).Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(a.RowsWritten))
	assert.Zero(t, testutil.ToFloat64(b.RowsWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.EventsRejected.WithLabelValues("values", "validation")))

	n, err := testutil.GatherAndCount(a.Registry, "gaitlog_rows_written_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustRegisterExposesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { MustRegister(reg) })

	WatchRecordsTotal.WithLabelValues("recorded").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(WatchRecordsTotal.WithLabelValues("recorded")), 1.0)

	n, err := testutil.GatherAndCount(reg, "streamtv_watch_records_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

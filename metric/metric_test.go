package metric_test

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/raug/metric"
)

func TestMeasure(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := metric.New(reg, "a")
	require.NoError(t, err)
	second, err := metric.New(reg, "b")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, m := range []*metric.Metric{first, second} {
		wg.Add(1)
		go func(m *metric.Metric) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				m.Measure(512, time.Millisecond, 10*time.Millisecond)
			}
			m.Measure(512, 20*time.Millisecond, 10*time.Millisecond)
			m.NonFinite(3)
		}(m)
	}
	wg.Wait()

	expected := map[string]int{
		"raug_blocks_total":             2,
		"raug_samples_total":            2,
		"raug_non_finite_samples_total": 2,
		"raug_overruns_total":           2,
		"raug_block_duration_seconds":   2,
	}
	for name, series := range expected {
		n, err := testutil.GatherAndCount(reg, name)
		require.NoError(t, err)
		assert.Equal(t, series, n, name)
	}
}

func TestNil(t *testing.T) {
	var m *metric.Metric
	assert.NotPanics(t, func() {
		m.Measure(512, time.Second, time.Millisecond)
		m.NonFinite(1)
	})
}

func TestUnregistered(t *testing.T) {
	m, err := metric.New(nil, "x")
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.Measure(64, time.Microsecond, 0)
	})
}

// Package metric measures block processing of running runtimes.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "raug"

// Label used to tell runtimes apart.
const runtimeLabel = "runtime"

// Collectors shared by all runtimes registered with the same registerer.
type collectors struct {
	blocks    *prometheus.CounterVec
	samples   *prometheus.CounterVec
	nonFinite *prometheus.CounterVec
	overruns  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func newCollectors() *collectors {
	return &collectors{
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Number of processed blocks.",
		}, []string{runtimeLabel}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Number of processed frames.",
		}, []string{runtimeLabel}),
		nonFinite: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "non_finite_samples_total",
			Help:      "Number of NaN or infinite samples replaced with zero.",
		}, []string{runtimeLabel}),
		overruns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overruns_total",
			Help:      "Number of blocks computed slower than real time.",
		}, []string{runtimeLabel}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "block_duration_seconds",
			Help:      "Block computation time.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 16),
		}, []string{runtimeLabel}),
	}
}

func (c *collectors) all() []prometheus.Collector {
	return []prometheus.Collector{c.blocks, c.samples, c.nonFinite, c.overruns, c.duration}
}

// Metric measures a single runtime. A nil *Metric is valid and measures
// nothing.
type Metric struct {
	blocks    prometheus.Counter
	samples   prometheus.Counter
	nonFinite prometheus.Counter
	overruns  prometheus.Counter
	duration  prometheus.Observer
}

// New returns a metric for the runtime. Collectors are registered with
// reg; if they are already registered, the existing ones are reused. A nil
// reg keeps the collectors unregistered.
func New(reg prometheus.Registerer, runtimeID string) (*Metric, error) {
	c := newCollectors()
	if reg != nil {
		for i, col := range c.all() {
			existing, err := register(reg, col)
			if err != nil {
				return nil, err
			}
			c.replace(i, existing)
		}
	}
	return &Metric{
		blocks:    c.blocks.WithLabelValues(runtimeID),
		samples:   c.samples.WithLabelValues(runtimeID),
		nonFinite: c.nonFinite.WithLabelValues(runtimeID),
		overruns:  c.overruns.WithLabelValues(runtimeID),
		duration:  c.duration.WithLabelValues(runtimeID),
	}, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector, nil
		}
		return nil, err
	}
	return c, nil
}

func (c *collectors) replace(i int, col prometheus.Collector) {
	switch i {
	case 0:
		c.blocks = col.(*prometheus.CounterVec)
	case 1:
		c.samples = col.(*prometheus.CounterVec)
	case 2:
		c.nonFinite = col.(*prometheus.CounterVec)
	case 3:
		c.overruns = col.(*prometheus.CounterVec)
	case 4:
		c.duration = col.(*prometheus.HistogramVec)
	}
}

// Measure records one processed block of blockSize frames that took
// elapsed to compute. Blocks slower than budget count as overruns.
func (m *Metric) Measure(blockSize int, elapsed, budget time.Duration) {
	if m == nil {
		return
	}
	m.blocks.Inc()
	m.samples.Add(float64(blockSize))
	m.duration.Observe(elapsed.Seconds())
	if budget > 0 && elapsed > budget {
		m.overruns.Inc()
	}
}

// NonFinite records n sanitized samples.
func (m *Metric) NonFinite(n uint64) {
	if m == nil || n == 0 {
		return
	}
	m.nonFinite.Add(float64(n))
}

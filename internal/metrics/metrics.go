package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram.
type MetricID int

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginLocked
	MetricLoginRateLimited
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshReuseDetected
	MetricSessionCreated
	MetricSessionRevoked
	MetricLogout
	MetricLogoutAll
	MetricTokenRevoked
	MetricAccountCreated
	MetricAccountDeleted
	MetricValidateDenied
	MetricValidateLatency

	MetricIDCount
)

// HistogramBuckets is the number of fixed latency buckets.
const HistogramBuckets = 8

// BucketBounds are the upper bounds of the latency buckets; the last bucket
// is +Inf.
var BucketBounds = [HistogramBuckets - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	time.Second,
}

// Config controls which instruments are active.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// paddedCounter occupies a full cache line to avoid false sharing between
// adjacent hot counters.
type paddedCounter struct {
	value uint64
	_     [7]uint64
}

// Metrics holds atomic counters and optional latency histograms. A nil
// *Metrics is valid and inert.
type Metrics struct {
	cfg        Config
	counters   [MetricIDCount]paddedCounter
	histograms [MetricIDCount][HistogramBuckets]paddedCounter
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func New(cfg Config) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{cfg: cfg}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || id < 0 || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample into the histogram for id and also
// increments its counter slot (total sample count).
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.cfg.EnableLatency || id < 0 || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)

	bucket := HistogramBuckets - 1
	for i, bound := range BucketBounds {
		if d <= bound {
			bucket = i
			break
		}
	}
	atomic.AddUint64(&m.histograms[id][bucket].value, 1)
}

// Snapshot copies all counter and histogram values. Histograms are only
// included when latency tracking is enabled.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   make(map[MetricID]uint64, MetricIDCount),
		Histograms: make(map[MetricID][]uint64),
	}
	if m == nil {
		return snap
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	if m.cfg.EnableLatency {
		buckets := make([]uint64, HistogramBuckets)
		var total uint64
		for i := 0; i < HistogramBuckets; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricValidateLatency][i].value)
			total += buckets[i]
		}
		if total > 0 {
			snap.Histograms[MetricValidateLatency] = buckets
		}
	}
	return snap
}

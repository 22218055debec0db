package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// SampleKind distinguishes request vs query samples.
type SampleKind uint8

const (
	KindRequest SampleKind = iota
	KindQuery
)

// Sample is a single timing record stored in the ring buffer.
type Sample struct {
	Kind   SampleKind
	Label  string // HTTP path or "store.Method"
	Status int    // HTTP status (0 for queries)
	Millis float64
	At     time.Time
}

// Collector is a fixed-size ring buffer of timing samples. Writes are
// cheap and non-blocking; when the ring is full the oldest samples are
// overwritten. All aggregation happens on read.
type Collector struct {
	mu      sync.Mutex
	ring    []Sample
	size    int
	next    int
	written int64 // total samples ever recorded (atomic)
}

// NewCollector creates a collector with the given ring buffer capacity.
// PRE: size > 0 (non-positive sizes fall back to DefaultRingSize)
// POST: Returns a ready-to-use collector with pre-allocated storage
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{
		ring: make([]Sample, size),
		size: size,
	}
}

// Record appends a sample to the ring buffer.
// POST: Sample stored; if buffer full, oldest sample overwritten
func (c *Collector) Record(s Sample) {
	c.mu.Lock()
	c.ring[c.next] = s
	c.next = (c.next + 1) % c.size
	c.mu.Unlock()
	atomic.AddInt64(&c.written, 1)
}

// TotalRecorded returns the total number of samples ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return atomic.LoadInt64(&c.written)
}

// LabelStat aggregates timing for a single path or store method.
type LabelStat struct {
	Label   string  `json:"label"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	Count   int     `json:"count"`
	TotalMs float64 `json:"total_ms"`
}

// Snapshot holds aggregated performance data computed on read.
type Snapshot struct {
	TotalRecorded  int64       `json:"total_recorded"`
	RequestP50Ms   float64     `json:"request_p50_ms"`
	RequestP95Ms   float64     `json:"request_p95_ms"`
	RequestP99Ms   float64     `json:"request_p99_ms"`
	SlowestPaths   []LabelStat `json:"slowest_paths"`
	SlowestQueries []LabelStat `json:"slowest_queries"`
}

// Snapshot computes aggregated stats from the ring buffer. It sorts, so
// call it from the admin dashboard, not from hot paths.
// POST: Returns a Snapshot with percentiles and top-N lists
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Sample, c.size)
	copy(buf, c.ring)
	c.mu.Unlock()

	var requestMillis []float64
	requests := make(map[string]*LabelStat)
	queries := make(map[string]*LabelStat)

	for _, s := range buf {
		if s.At.IsZero() || s.At.Before(since) {
			continue
		}
		var bucket map[string]*LabelStat
		switch s.Kind {
		case KindRequest:
			requestMillis = append(requestMillis, s.Millis)
			bucket = requests
		case KindQuery:
			bucket = queries
		default:
			continue
		}
		stat, ok := bucket[s.Label]
		if !ok {
			stat = &LabelStat{Label: s.Label}
			bucket[s.Label] = stat
		}
		stat.Count++
		stat.TotalMs += s.Millis
		if s.Millis > stat.MaxMs {
			stat.MaxMs = s.Millis
		}
	}

	for _, stat := range requests {
		stat.AvgMs = stat.TotalMs / float64(stat.Count)
	}
	for _, stat := range queries {
		stat.AvgMs = stat.TotalMs / float64(stat.Count)
	}

	snap := Snapshot{
		TotalRecorded:  c.TotalRecorded(),
		SlowestPaths:   topByAvg(requests, topN),
		SlowestQueries: topByAvg(queries, topN),
	}

	if len(requestMillis) > 0 {
		sort.Float64s(requestMillis)
		snap.RequestP50Ms = percentile(requestMillis, 50)
		snap.RequestP95Ms = percentile(requestMillis, 95)
		snap.RequestP99Ms = percentile(requestMillis, 99)
	}

	return snap
}

// percentile returns the p-th percentile from a sorted slice using
// linear interpolation between the two nearest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// topByAvg returns the top N labels sorted by average duration (descending).
func topByAvg(stats map[string]*LabelStat, n int) []LabelStat {
	list := make([]LabelStat, 0, len(stats))
	for _, s := range stats {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].AvgMs > list[j].AvgMs
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}

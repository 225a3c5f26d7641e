// Package metrics provides a prometheus-backed stats sink for the range
// cache.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/meigma/rangecache"
)

// Stats implements rangecache.Stats on prometheus collectors.
//
// The in-flight gauge is mirrored by an atomic counter so the admission
// path reads an exact value instead of scraping the collector.
type Stats struct {
	hits     prometheus.Counter
	misses   prometheus.Counter
	inFlight prometheus.Gauge

	retained atomic.Int64
}

var _ rangecache.Stats = (*Stats)(nil)

// NewStats registers the cache collectors with reg and returns the sink.
func NewStats(reg prometheus.Registerer) *Stats {
	return &Stats{
		hits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "rangecache_hits_total",
			Help: "Total number of reads served from the local range cache.",
		}),
		misses: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "rangecache_misses_total",
			Help: "Total number of reads the local range cache could not serve.",
		}),
		inFlight: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "rangecache_in_flight_bytes",
			Help: "Bytes retained in memory by admitted but not yet flushed writes.",
		}),
	}
}

// IncrementCacheHit implements rangecache.Stats.
func (s *Stats) IncrementCacheHit() {
	s.hits.Inc()
}

// IncrementCacheMiss implements rangecache.Stats.
func (s *Stats) IncrementCacheMiss() {
	s.misses.Inc()
}

// AddInMemoryRetainedBytes implements rangecache.Stats.
func (s *Stats) AddInMemoryRetainedBytes(delta int64) {
	s.retained.Add(delta)
	s.inFlight.Add(float64(delta))
}

// InMemoryRetainedBytes implements rangecache.Stats.
func (s *Stats) InMemoryRetainedBytes() int64 {
	return s.retained.Load()
}

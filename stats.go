package rangecache

import "sync/atomic"

// Stats receives cache events from a [Manager].
//
// InMemoryRetainedBytes gates admission of new writes, so implementations
// must report the exact running sum of the deltas passed to
// AddInMemoryRetainedBytes. Implementations must be safe for concurrent
// use.
type Stats interface {
	// IncrementCacheHit records a read served from the cache.
	IncrementCacheHit()

	// IncrementCacheMiss records a read the cache could not serve.
	IncrementCacheMiss()

	// AddInMemoryRetainedBytes adjusts the gauge of bytes held by
	// admitted but not yet flushed writes. Negative deltas release.
	AddInMemoryRetainedBytes(delta int64)

	// InMemoryRetainedBytes returns the current gauge value.
	InMemoryRetainedBytes() int64
}

// CacheStats is the default in-process Stats implementation.
type CacheStats struct {
	hits     atomic.Int64
	misses   atomic.Int64
	retained atomic.Int64
}

// NewCacheStats returns a zeroed CacheStats.
func NewCacheStats() *CacheStats {
	return &CacheStats{}
}

// IncrementCacheHit implements Stats.
func (s *CacheStats) IncrementCacheHit() {
	s.hits.Add(1)
}

// IncrementCacheMiss implements Stats.
func (s *CacheStats) IncrementCacheMiss() {
	s.misses.Add(1)
}

// AddInMemoryRetainedBytes implements Stats.
func (s *CacheStats) AddInMemoryRetainedBytes(delta int64) {
	s.retained.Add(delta)
}

// InMemoryRetainedBytes implements Stats.
func (s *CacheStats) InMemoryRetainedBytes() int64 {
	return s.retained.Load()
}

// CacheHits returns the total number of hits recorded.
func (s *CacheStats) CacheHits() int64 {
	return s.hits.Load()
}

// CacheMisses returns the total number of misses recorded.
func (s *CacheStats) CacheMisses() int64 {
	return s.misses.Load()
}

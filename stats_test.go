package rangecache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheStatsCounters(t *testing.T) {
	t.Parallel()

	s := NewCacheStats()
	s.IncrementCacheHit()
	s.IncrementCacheHit()
	s.IncrementCacheMiss()

	assert.Equal(t, int64(2), s.CacheHits())
	assert.Equal(t, int64(1), s.CacheMisses())
}

func TestCacheStatsRetainedBytes(t *testing.T) {
	t.Parallel()

	s := NewCacheStats()
	s.AddInMemoryRetainedBytes(100)
	s.AddInMemoryRetainedBytes(50)
	assert.Equal(t, int64(150), s.InMemoryRetainedBytes())

	s.AddInMemoryRetainedBytes(-150)
	assert.Equal(t, int64(0), s.InMemoryRetainedBytes())
}

func TestCacheStatsConcurrent(t *testing.T) {
	t.Parallel()

	s := NewCacheStats()
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddInMemoryRetainedBytes(7)
			s.AddInMemoryRetainedBytes(-7)
			s.IncrementCacheHit()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(0), s.InMemoryRetainedBytes())
	assert.Equal(t, int64(100), s.CacheHits())
}

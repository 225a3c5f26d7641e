package rangecache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	extension = ".cache"

	defaultFlushWorkers   = 4
	defaultRemovalWorkers = 2
	purgeParallelism      = 4

	baseDirPerm   = 0o700
	cacheFilePerm = 0o600
)

// ReadRequest identifies a byte range of a remote file.
type ReadRequest struct {
	// Path is the opaque identifier of the remote file.
	Path string

	// Offset is the position of the first requested byte.
	Offset int64

	// Length is the number of requested bytes.
	Length int
}

// localCacheFile describes one contiguous chunk of a remote file stored
// on disk. offset is the position within the remote file at which the
// local file starts.
type localCacheFile struct {
	offset int64
	path   string
}

func cacheFileEquals(a, b *localCacheFile) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.offset == b.offset && a.path == b.path
}

// Manager is a disk-backed range cache. See the package documentation
// for the caching model.
type Manager struct {
	// persisted maps remote path -> *cacheRange. The entry cache below is
	// the sole lifecycle driver for entries of this map.
	persisted sync.Map

	entries *ttlcache.Cache[string, struct{}]

	flushExec   Executor
	removalExec Executor
	ownedPools  []*Pool

	stats  Stats
	logger *logrus.Logger

	baseDirectory    string
	maxInFlightBytes int64

	closeOnce sync.Once
}

// New creates a Manager from cfg. The base directory is created if
// missing; otherwise every regular file inside it is scheduled for
// deletion, since cache state never survives a restart.
func New(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		baseDirectory:    cfg.BaseDirectory,
		maxInFlightBytes: cfg.MaxInFlightBytes,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	if m.stats == nil {
		m.stats = NewCacheStats()
	}
	if m.logger == nil {
		m.logger = logrus.StandardLogger()
	}
	if m.flushExec == nil {
		pool, err := NewPool(defaultFlushWorkers)
		if err != nil {
			return nil, fmt.Errorf("create flush pool: %w", err)
		}
		m.flushExec = pool
		m.ownedPools = append(m.ownedPools, pool)
	}
	if m.removalExec == nil {
		pool, err := NewPool(defaultRemovalWorkers)
		if err != nil {
			for _, p := range m.ownedPools {
				p.Release()
			}
			return nil, fmt.Errorf("create removal pool: %w", err)
		}
		m.removalExec = pool
		m.ownedPools = append(m.ownedPools, pool)
	}

	m.entries = ttlcache.New(
		ttlcache.WithTTL[string, struct{}](cfg.CacheTTL),
		ttlcache.WithCapacity[string, struct{}](uint64(cfg.MaxCachedEntries)),
	)
	m.entries.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[string, struct{}]) {
		m.dropPath(item.Key())
	})
	go m.entries.Start()

	if err := m.prepareBaseDirectory(); err != nil {
		_ = m.Close()
		return nil, err
	}

	return m, nil
}

// Get serves req from the cache. On true, buf[off:off+req.Length] holds
// the requested bytes; on false the buffer contents are undefined and
// the caller must read from the origin.
func (m *Manager) Get(req ReadRequest, buf []byte, off int) bool {
	ok := m.read(req, buf, off)
	if ok {
		m.stats.IncrementCacheHit()
	} else {
		m.stats.IncrementCacheMiss()
	}
	return ok
}

func (m *Manager) read(req ReadRequest, buf []byte, off int) bool {
	if req.Length <= 0 {
		// no-op
		return true
	}

	// hint the entry cache no matter what
	m.touch(req.Path)

	v, ok := m.persisted.Load(req.Path)
	if !ok {
		return false
	}
	cr := v.(*cacheRange)

	var file *localCacheFile
	cr.mu.RLock()
	entries := cr.ranges.Query(req.Offset, req.Offset+int64(req.Length))
	if len(entries) == 1 {
		file = entries[0].Value
	}
	cr.mu.RUnlock()
	if file == nil {
		// no range or there is a hole in between
		return false
	}

	f, err := os.Open(file.path)
	if err != nil {
		// the file may have been deleted by eviction
		return false
	}
	defer f.Close()

	if _, err := f.ReadAt(buf[off:off+req.Length], req.Offset-file.offset); err != nil {
		return false
	}
	return true
}

// Invalidate drops all cached ranges for path and schedules deletion of
// their backing files.
func (m *Manager) Invalidate(path string) {
	m.entries.Delete(path)
	// the entry cache runs its eviction callback on a separate goroutine,
	// so unlink the path here as well; this also covers a path whose
	// entry expired between flush and now
	m.dropPath(path)
}

// Len returns the number of remote paths currently tracked by the entry
// cache.
func (m *Manager) Len() int {
	return m.entries.Len()
}

// Close stops the entry cache's expiry loop and releases the executor
// pools owned by the manager. In-flight flushes are abandoned; files they
// leave behind are purged at the next startup. Externally supplied
// executors are not released.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.entries.Stop()
		for _, pool := range m.ownedPools {
			pool.Release()
		}
	})
	return nil
}

// touch ensures path is present in the entry cache and refreshes its
// access time. Paths evicted by the insertion are dropped before touch
// returns, since the entry cache runs its eviction callback on a separate
// goroutine.
func (m *Manager) touch(path string) {
	if m.entries.Get(path) == nil {
		m.entries.Set(path, struct{}{}, ttlcache.DefaultTTL)
		m.persisted.Range(func(k, _ any) bool {
			if p := k.(string); p != path && !m.entries.Has(p) {
				m.dropPath(p)
			}
			return true
		})
	}
}

// dropPath unlinks path's cacheRange from the persisted map and schedules
// deletion of its files. Safe to call for paths that were never cached.
func (m *Manager) dropPath(path string) {
	v, ok := m.persisted.LoadAndDelete(path)
	if !ok {
		return
	}
	cr := v.(*cacheRange)

	err := m.removalExec.Submit(func() {
		// The read lock only fences against readers still draining; the
		// range is no longer reachable, so nothing mutates it anymore.
		cr.mu.RLock()
		paths := make([]string, 0, cr.ranges.Len())
		for _, e := range cr.ranges.Entries() {
			paths = append(paths, e.Value.path)
		}
		cr.mu.RUnlock()

		// A reader holding an open handle keeps succeeding; one that
		// loses the race fails its read and reports a miss.
		for _, p := range paths {
			tryRemoveFile(p)
		}
	})
	if err != nil {
		// executor released during shutdown; leftovers are purged at the
		// next startup
		m.logger.WithError(err).WithField("path", path).Debug("cache removal not scheduled")
	}
}

func (m *Manager) prepareBaseDirectory() error {
	info, err := os.Stat(m.baseDirectory)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(m.baseDirectory, baseDirPerm); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBaseDirectory, m.baseDirectory, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("%w: %s: %v", ErrBaseDirectory, m.baseDirectory, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s is not a directory", ErrBaseDirectory, m.baseDirectory)
	}

	dirents, err := os.ReadDir(m.baseDirectory)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBaseDirectory, m.baseDirectory, err)
	}

	stale := make([]string, 0, len(dirents))
	for _, d := range dirents {
		if !d.Type().IsRegular() {
			continue
		}
		stale = append(stale, filepath.Join(m.baseDirectory, d.Name()))
	}
	if len(stale) == 0 {
		return nil
	}

	submitErr := m.removalExec.Submit(func() {
		g := new(errgroup.Group)
		g.SetLimit(purgeParallelism)
		for _, path := range stale {
			g.Go(func() error {
				tryRemoveFile(path)
				return nil
			})
		}
		_ = g.Wait()
	})
	if submitErr != nil {
		m.logger.WithError(submitErr).Warn("startup purge not scheduled")
	}
	return nil
}

// tryRemoveFile deletes path best effort. Orphans left by failed
// deletions are collected at the next startup purge.
func tryRemoveFile(path string) {
	_ = os.Remove(path)
}

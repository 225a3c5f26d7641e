package rangecache

import "github.com/sirupsen/logrus"

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used by the manager. Defaults to
// logrus.StandardLogger().
func WithLogger(logger *logrus.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithStats sets the stats sink. Defaults to a fresh [CacheStats].
func WithStats(stats Stats) Option {
	return func(m *Manager) {
		m.stats = stats
	}
}

// WithFlushExecutor sets the executor that runs flush tasks. The manager
// does not release externally supplied executors on Close. Defaults to a
// pool owned by the manager.
func WithFlushExecutor(exec Executor) Option {
	return func(m *Manager) {
		m.flushExec = exec
	}
}

// WithRemovalExecutor sets the executor that runs file deletion batches
// for eviction and the startup purge. The manager does not release
// externally supplied executors on Close. Defaults to a pool owned by
// the manager.
func WithRemovalExecutor(exec Executor) Option {
	return func(m *Manager) {
		m.removalExec = exec
	}
}

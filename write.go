package rangecache

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/meigma/rangecache/internal/rangemap"
)

// cacheRange holds the cached intervals of a single remote file. The
// lock protects the interval map only; disk I/O never happens under it.
type cacheRange struct {
	mu     sync.RWMutex
	ranges *rangemap.Map[*localCacheFile]
}

func newCacheRange() *cacheRange {
	return &cacheRange{ranges: rangemap.New[*localCacheFile]()}
}

// Put offers data as the cached content of
// [req.Offset, req.Offset+req.Length) of req.Path. The write is admitted
// against the in-flight byte budget, copied, and flushed asynchronously;
// under memory pressure it is silently dropped.
func (m *Manager) Put(req ReadRequest, data []byte) {
	if req.Length <= 0 || len(data) == 0 {
		return
	}
	if m.stats.InMemoryRetainedBytes()+int64(len(data)) >= m.maxInFlightBytes {
		// cannot accept more requests
		return
	}

	// copy: the caller may reuse its buffer
	m.stats.AddInMemoryRetainedBytes(int64(len(data)))
	buf := make([]byte, len(data))
	copy(buf, data)

	err := m.flushExec.Submit(func() {
		defer m.stats.AddInMemoryRetainedBytes(-int64(len(buf)))

		newPath := filepath.Join(m.baseDirectory, uuid.NewString()+extension)
		if !m.flush(req, buf, newPath) {
			m.logger.WithFields(logrus.Fields{
				"path":   req.Path,
				"file":   newPath,
				"length": req.Length,
			}).Warn("failed to persist cache range")
		}
	})
	if err != nil {
		m.stats.AddInMemoryRetainedBytes(-int64(len(buf)))
	}
}

// flush persists data for [req.Offset, req.Offset+req.Length) of
// req.Path, merging it with a touching previous and following cached
// range into the single file at newPath.
//
// Neighbors are snapshotted under the read lock, the merged file is
// built with no lock held, and the swap happens under the write lock
// only if the snapshot still matches. A detected race discards newPath;
// the range map never referenced it, so the abort has no side effects.
func (m *Manager) flush(req ReadRequest, data []byte, newPath string) bool {
	m.touch(req.Path)

	v, _ := m.persisted.LoadOrStore(req.Path, newCacheRange())
	cr := v.(*cacheRange)

	lo := req.Offset
	hi := req.Offset + int64(req.Length)

	cr.mu.RLock()
	previousFile := pointFile(cr.ranges, lo-1)
	followingFile := pointFile(cr.ranges, hi)
	cr.mu.RUnlock()

	if previousFile != nil && cacheFileEquals(previousFile, followingFile) {
		m.logger.WithField("file", previousFile.path).Debug("range already covered")
		return true
	}

	newOffset, newLength, status := m.buildMergedFile(req, data, newPath, previousFile, followingFile)
	switch status {
	case flushCovered:
		return true
	case flushFailed:
		return false
	}

	var toDelete map[string]struct{}
	updated := false

	cr.mu.Lock()
	// check again whether the neighborhood changed under us
	if cacheFileEquals(previousFile, pointFile(cr.ranges, lo-1)) &&
		cacheFileEquals(followingFile, pointFile(cr.ranges, hi)) {
		updated = true

		// files fully covered by the incoming range are superseded
		toDelete = make(map[string]struct{})
		for _, e := range cr.ranges.Query(lo, hi) {
			toDelete[e.Value.path] = struct{}{}
		}

		cr.ranges.Replace(newOffset, newOffset+newLength, &localCacheFile{
			offset: newOffset,
			path:   newPath,
		})
	}
	cr.mu.Unlock()

	if updated {
		if previousFile != nil {
			toDelete[previousFile.path] = struct{}{}
		}
		if followingFile != nil {
			toDelete[followingFile.path] = struct{}{}
		}
	} else {
		m.logger.WithField("file", newPath).Debug("neighboring range changed, discarding merge")
		toDelete = map[string]struct{}{newPath: {}}
	}

	for path := range toDelete {
		tryRemoveFile(path)
	}
	return true
}

type flushStatus int

const (
	flushBuilt flushStatus = iota
	flushCovered
	flushFailed
)

// buildMergedFile writes the contiguous byte image for the union of the
// previous range, data, and the following range to newPath. No locks are
// held; on I/O failure the partial file is removed.
func (m *Manager) buildMergedFile(req ReadRequest, data []byte, newPath string, previous, following *localCacheFile) (int64, int64, flushStatus) {
	lo := req.Offset
	hi := req.Offset + int64(req.Length)

	var (
		newOffset int64
		newLength int64
	)

	if previous == nil {
		if err := writeNewFile(newPath, data); err != nil {
			m.logger.WithError(err).WithField("file", newPath).Warn("error while flushing cache file")
			tryRemoveFile(newPath)
			return 0, 0, flushFailed
		}
		newOffset = lo
		newLength = int64(len(data))
	} else {
		previousBytes, err := os.ReadFile(previous.path)
		if err != nil {
			m.logger.WithError(err).WithField("file", previous.path).Warn("error while flushing cache file")
			return 0, 0, flushFailed
		}
		previousEnd := previous.offset + int64(len(previousBytes))

		tailLength := hi - previousEnd
		if tailLength <= 0 {
			// the incoming range sits entirely inside the previous one
			m.logger.WithField("file", previous.path).Debug("range already covered")
			return 0, 0, flushCovered
		}

		tailStart := previousEnd - lo
		if tailStart < 0 || tailStart+tailLength > int64(len(data)) {
			m.logger.WithFields(logrus.Fields{
				"path":   req.Path,
				"length": req.Length,
				"data":   len(data),
			}).Warn("request length disagrees with data size, dropping flush")
			return 0, 0, flushFailed
		}

		if err := writeNewFile(newPath, previousBytes, data[tailStart:tailStart+tailLength]); err != nil {
			m.logger.WithError(err).WithField("file", newPath).Warn("error while flushing cache file")
			tryRemoveFile(newPath)
			return 0, 0, flushFailed
		}
		newOffset = previous.offset
		newLength = int64(len(previousBytes)) + tailLength
	}

	if following != nil {
		followingBytes, err := os.ReadFile(following.path)
		if err != nil {
			m.logger.WithError(err).WithField("file", following.path).Warn("error while flushing cache file")
			tryRemoveFile(newPath)
			return 0, 0, flushFailed
		}

		// skip the part the incoming range already provides
		skip := hi - following.offset
		if skip < 0 || skip > int64(len(followingBytes)) {
			skip = int64(len(followingBytes))
		}
		if err := appendToFile(newPath, followingBytes[skip:]); err != nil {
			m.logger.WithError(err).WithField("file", newPath).Warn("error while flushing cache file")
			tryRemoveFile(newPath)
			return 0, 0, flushFailed
		}
		newLength += int64(len(followingBytes)) - skip
	}

	return newOffset, newLength, flushBuilt
}

func pointFile(ranges *rangemap.Map[*localCacheFile], p int64) *localCacheFile {
	if e, ok := ranges.Point(p); ok {
		return e.Value
	}
	return nil
}

// writeNewFile creates path exclusively and writes the chunks in order.
// Create-new catches file name collisions as errors instead of silent
// overwrites.
func writeNewFile(path string, chunks ...[]byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, cacheFilePerm)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if _, err := f.Write(chunk); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

func appendToFile(path string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, cacheFilePerm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

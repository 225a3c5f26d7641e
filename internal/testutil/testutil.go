// Package testutil provides executors and data helpers for cache tests.
package testutil

import (
	"errors"
	"sync/atomic"
)

// SyncExecutor runs every submitted task inline on the caller's
// goroutine, making asynchronous cache work deterministic in tests.
type SyncExecutor struct{}

// Submit runs task immediately.
func (SyncExecutor) Submit(task func()) error {
	task()
	return nil
}

// ErrRejected is returned by RejectingExecutor.
var ErrRejected = errors.New("executor rejected task")

// RejectingExecutor fails every submission, modeling a released pool.
type RejectingExecutor struct{}

// Submit always fails.
func (RejectingExecutor) Submit(func()) error {
	return ErrRejected
}

// CountingExecutor wraps an executor and counts accepted submissions.
type CountingExecutor struct {
	Inner interface{ Submit(func()) error }

	count atomic.Int64
}

// Submit forwards to the wrapped executor.
func (c *CountingExecutor) Submit(task func()) error {
	err := c.Inner.Submit(task)
	if err == nil {
		c.count.Add(1)
	}
	return err
}

// Count returns the number of accepted submissions.
func (c *CountingExecutor) Count() int64 {
	return c.count.Load()
}

// RemoteFile models the immutable origin content the cache stores: byte
// i of the remote file is byte(i). It returns the bytes at [off, off+n),
// so overlapping ranges of the same path agree the way ranges fetched
// from a real remote file would.
func RemoteFile(off int64, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(off + int64(i))
	}
	return out
}

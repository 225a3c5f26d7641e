package rangecache

import "github.com/panjf2000/ants/v2"

// Executor runs tasks submitted by the manager. Submission is
// fire-and-forget: the manager never waits on a task's completion.
//
// Submit returns an error only when the task could not be enqueued at
// all (for example after the executor has been released).
type Executor interface {
	Submit(task func()) error
}

// Pool is an Executor backed by a fixed-size goroutine pool.
type Pool struct {
	pool *ants.Pool
}

// NewPool creates a pool with the given number of workers.
func NewPool(size int) (*Pool, error) {
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Pool{pool: p}, nil
}

// Submit implements Executor.
func (p *Pool) Submit(task func()) error {
	return p.pool.Submit(task)
}

// Release stops the pool immediately. Queued tasks are abandoned;
// submissions after Release fail.
func (p *Pool) Release() {
	p.pool.Release()
}

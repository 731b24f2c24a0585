// Package pool runs batches of independent jobs on a bounded number of
// goroutines.
package pool

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hansbonini/z64tools/pkg/common"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// minSize is the pool size used when the CPU count is too low to be useful
const minSize = 3

// ProgressFunc is called after every finished job with the number of jobs
// done so far and the number submitted. It may be called concurrently.
type ProgressFunc func(done, total int)

// Pool is a bounded executor for one batch of jobs. Jobs are expected to
// work on disjoint data; the pool only synchronizes submission and the
// final Wait.
type Pool struct {
	group    errgroup.Group
	progress ProgressFunc

	submitted atomic.Int64
	done      atomic.Int64

	mu   sync.Mutex
	errs *multierror.Error
}

// DefaultSize returns the number of CPUs plus two, and never less than 3
func DefaultSize() int {
	n := runtime.NumCPU() + 2
	if n < minSize {
		return minSize
	}
	return n
}

// New creates a pool running at most size jobs at once. A size below one
// selects DefaultSize.
func New(size int, progress ProgressFunc) *Pool {
	if size < 1 {
		size = DefaultSize()
	}
	p := &Pool{progress: progress}
	p.group.SetLimit(size)
	return p
}

// Submit schedules job, blocking while the pool is full. The error returned
// by job is recorded under name and reported by Wait.
func (p *Pool) Submit(name string, job func() error) {
	p.submitted.Add(1)
	p.group.Go(func() error {
		err := job()
		if err != nil {
			common.LogDebug(common.DebugPoolJobFailed, name, err)
			p.mu.Lock()
			p.errs = multierror.Append(p.errs, fmt.Errorf("%s: %w", name, err))
			p.mu.Unlock()
		}

		done := p.done.Add(1)
		if p.progress != nil {
			p.progress(int(done), int(p.submitted.Load()))
		}
		return nil
	})
}

// Remaining returns how many submitted jobs have not finished yet
func (p *Pool) Remaining() int {
	return int(p.submitted.Load() - p.done.Load())
}

// Wait blocks until every submitted job has finished and returns all job
// errors combined, or nil if every job succeeded.
func (p *Pool) Wait() error {
	_ = p.group.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errs.ErrorOrNil()
}

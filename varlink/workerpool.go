package varlink

import (
	"sync"
	"sync/atomic"
)

// workerPool runs connection jobs on a fixed number of goroutines
// draining one shared queue. A job covers the whole lifetime of one
// accepted connection, including any requests pipelined on it.
type workerPool struct {
	jobs chan func()
	size int
	busy atomic.Int32

	wg       sync.WaitGroup
	teardown sync.Once
}

func newWorkerPool(size int) *workerPool {
	if size < 1 {
		size = 1
	}

	p := &workerPool{
		jobs: make(chan func(), size),
		size: size,
	}

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}

	return p
}

// worker loops until it consumes a termination sentinel. The sentinel is
// only seen between jobs, never mid-job.
func (p *workerPool) worker() {
	defer p.wg.Done()

	for job := range p.jobs {
		if job == nil {
			return
		}

		p.busy.Add(1)
		job()
		p.busy.Add(-1)
	}
}

// execute queues one job. It blocks while the queue is full.
func (p *workerPool) execute(job func()) {
	p.jobs <- job
}

// numBusy returns how many workers currently run a job. The accept loop
// reads it for the idle-timeout decision.
func (p *workerPool) numBusy() int {
	return int(p.busy.Load())
}

// shutdownWait enqueues one termination sentinel per worker and joins
// them all. Outstanding jobs finish first. Safe to call more than once.
func (p *workerPool) shutdownWait() {
	p.teardown.Do(func() {
		for i := 0; i < p.size; i++ {
			p.jobs <- nil
		}
	})
	p.wg.Wait()
}

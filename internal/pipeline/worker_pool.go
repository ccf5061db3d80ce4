package pipeline

import (
	"runtime"
	"sync"
)

// WorkerPool runs independent pipeline jobs concurrently. The queue and
// workers are shared; completion is tracked per caller, so concurrent
// batches never wait on each other's jobs.
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	once     sync.Once
	closed   sync.Once
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// A non-positive count falls back to the CPU count.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start launches the workers. Safe to call more than once.
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		job()
	}
}

// Submit queues a job and registers it on the caller's WaitGroup before
// returning. The job is marked done when it finishes; waiting on wg waits
// only for jobs submitted with it. Blocks when the queue is full.
func (wp *WorkerPool) Submit(wg *sync.WaitGroup, job func()) {
	wg.Add(1)
	wp.jobQueue <- func() {
		defer wg.Done()
		job()
	}
}

// Close shuts the pool down after in-flight jobs complete.
func (wp *WorkerPool) Close() {
	wp.closed.Do(func() {
		close(wp.jobQueue)
	})
}

package httpd

import (
	"runtime"
	"sync"

	"github.com/breezehq/breeze/internal/logger"
)

// DefaultQueueCapacity is the maximum number of jobs a TaskPool holds while
// all workers are busy. Submissions beyond this are rejected.
const DefaultQueueCapacity = 10000

// Task is a unit of work executed by a TaskPool worker.
type Task func()

// TaskPool is a fixed-size worker pool with a bounded job queue.
//
// Workers are started eagerly by NewTaskPool and run until Stop is called.
// Submit never blocks: when the queue is full or the pool is stopped it
// returns false and the caller decides what to do with the work.
type TaskPool struct {
	jobs    chan Task
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewTaskPool creates a pool with the given number of workers and queue
// capacity. A non-positive worker count defaults to the number of logical
// CPUs (at least one); a non-positive capacity defaults to
// DefaultQueueCapacity.
func NewTaskPool(workers, capacity int) *TaskPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}

	p := &TaskPool{
		jobs: make(chan Task, capacity),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}

	logger.Debug("Task pool started with %d workers (queue capacity %d)", workers, capacity)
	return p
}

// Submit enqueues a task for execution. It returns false without blocking
// when the pool has been stopped or the queue is full.
func (p *TaskPool) Submit(task Task) bool {
	if task == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}

	select {
	case p.jobs <- task:
		return true
	default:
		return false
	}
}

// QueueLen returns the number of tasks currently waiting in the queue.
func (p *TaskPool) QueueLen() int {
	return len(p.jobs)
}

// Stop rejects further submissions, lets the workers drain every queued
// task, and waits for them to exit. It is safe to call more than once.
func (p *TaskPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	logger.Debug("Task pool stopped")
}

func (p *TaskPool) worker(id int) {
	defer p.wg.Done()
	for task := range p.jobs {
		p.runTask(id, task)
	}
}

// runTask isolates panics so a failing task never takes a worker down.
func (p *TaskPool) runTask(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Worker %d recovered from panic: %v", id, r)
		}
	}()
	task()
}

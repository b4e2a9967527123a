package lib

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

type handleState int

const (
	stateQueued handleState = iota
	stateRunning
	stateDone
)

// Handle tracks one submitted Job. Its Outcome is valid once the handle has
// been returned by WaitCompleted or PollCompleted.
type Handle struct {
	Job Job
	// Seq is the submission index, starting at 0.
	Seq int

	state   handleState
	outcome Outcome
}

func (h *Handle) Outcome() Outcome {
	return h.outcome
}

// WorkerPool runs jobs on at most maxWorkers concurrent workers. Jobs start
// in submission order; completions are delivered in the order they finish.
type WorkerPool struct {
	ctx        context.Context
	converter  Converter
	stop       *StopFlag
	maxWorkers int

	mu          sync.Mutex
	cond        *sync.Cond
	queue       []*Handle
	completed   []*Handle
	running     int
	peakRunning int
	submitted   int
	delivered   int
	closed      bool

	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// ClampWorkers bounds n to [1, runtime.NumCPU()]. Zero or negative selects
// the CPU count.
func ClampWorkers(n int) int {
	cpus := runtime.NumCPU()
	if n <= 0 || n > cpus {
		return cpus
	}
	return n
}

// NewWorkerPool starts the workers. ctx bounds the lifetime of the child
// processes; stop may be nil when no cooperative stop is wanted.
func NewWorkerPool(ctx context.Context, maxWorkers int, converter Converter, stop *StopFlag) *WorkerPool {
	p := &WorkerPool{
		ctx:        ctx,
		converter:  converter,
		stop:       stop,
		maxWorkers: ClampWorkers(maxWorkers),
	}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	slog.Debug("Worker pool started", "workers", p.maxWorkers)
	return p
}

func (p *WorkerPool) MaxWorkers() int {
	return p.maxWorkers
}

// Submit queues job behind every job submitted before it.
func (p *WorkerPool) Submit(job Job) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("submit %s: %w", job.Input, ErrPoolClosed)
	}

	h := &Handle{Job: job, Seq: p.submitted, state: stateQueued}
	p.submitted++
	p.queue = append(p.queue, h)
	p.cond.Broadcast()
	return h, nil
}

// Cancel prevents a queued job from starting and completes it as Cancelled.
// It returns false when the job is already running or done; running jobs are
// left to finish.
func (p *WorkerPool) Cancel(h *Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelLocked(h)
}

func (p *WorkerPool) cancelLocked(h *Handle) bool {
	if h.state != stateQueued {
		return false
	}
	for i, queued := range p.queue {
		if queued == h {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			break
		}
	}
	p.finishLocked(h, Cancelled())
	return true
}

// CancelQueued cancels every job that has not started yet and returns how
// many were cancelled.
func (p *WorkerPool) CancelQueued() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending := p.queue
	p.queue = nil
	for _, h := range pending {
		p.finishLocked(h, Cancelled())
	}
	return len(pending)
}

// PollCompleted returns the handles that finished since the last call,
// without blocking.
func (p *WorkerPool) PollCompleted() []*Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	done := p.completed
	p.completed = nil
	p.delivered += len(done)
	return done
}

// WaitCompleted blocks until some job finishes and returns its handle. It
// returns false once every submitted job has been delivered.
func (p *WorkerPool) WaitCompleted() (*Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.completed) == 0 {
		if p.delivered == p.submitted {
			return nil, false
		}
		p.cond.Wait()
	}

	h := p.completed[0]
	p.completed = p.completed[1:]
	p.delivered++
	return h, true
}

// PeakRunning reports the highest number of jobs observed running at once.
func (p *WorkerPool) PeakRunning() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peakRunning
}

// Shutdown cancels queued jobs and stops the workers once they are idle.
// With wait set it blocks until every worker has exited. Safe to call more
// than once.
func (p *WorkerPool) Shutdown(wait bool) {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		for _, h := range p.queue {
			p.finishLocked(h, Cancelled())
		}
		p.queue = nil
		p.cond.Broadcast()
		p.mu.Unlock()
		slog.Debug("Worker pool shutting down", "wait", wait)
	})
	if wait {
		p.wg.Wait()
	}
}

func (p *WorkerPool) finishLocked(h *Handle, outcome Outcome) {
	h.state = stateDone
	h.outcome = outcome
	p.completed = append(p.completed, h)
	p.cond.Broadcast()
}

func (p *WorkerPool) next() (*Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 {
		if p.closed {
			return nil, false
		}
		p.cond.Wait()
	}

	h := p.queue[0]
	p.queue = p.queue[1:]

	if p.stop != nil && p.stop.Stopped() {
		p.finishLocked(h, Cancelled())
		return nil, true
	}

	h.state = stateRunning
	p.running++
	if p.running > p.peakRunning {
		p.peakRunning = p.running
	}
	return h, true
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		h, ok := p.next()
		if !ok {
			return
		}
		if h == nil {
			continue
		}

		slog.Debug("Worker starting job", "worker", id, "seq", h.Seq, "file", h.Job.Input)
		outcome := p.run(h.Job)

		p.mu.Lock()
		p.running--
		p.finishLocked(h, outcome)
		p.mu.Unlock()
	}
}

// run contains a misbehaving converter so one job cannot take down the
// worker or the pool.
func (p *WorkerPool) run(job Job) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Worker recovered from crash", "file", job.Input, "panic", r)
			outcome = Failed(fmt.Sprintf("worker crashed: %v", r))
		}
	}()
	return p.converter.Convert(p.ctx, job)
}

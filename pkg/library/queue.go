package library

import (
	"context"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

type jobKind int

const (
	jobProcess jobKind = iota
	jobThumbnail
)

func (k jobKind) String() string {
	if k == jobThumbnail {
		return "thumbnail"
	}
	return "process"
}

type job struct {
	id   string
	kind jobKind
}

/**************************************************************************************************
** Queue is a single-consumer FIFO of per-item jobs. The worker goroutine is started lazily by
** the first enqueue and exits when the queue drains, so an idle store holds no goroutine.
** Jobs never run in parallel; the worker yields between jobs.
**************************************************************************************************/
type Queue struct {
	mu      sync.Mutex
	idle    *sync.Cond
	pending []job
	running bool
	ctx     context.Context
	handle  func(ctx context.Context, j job)
	logger  *logrus.Logger
}

/**************************************************************************************************
** newQueue creates an idle queue.
**
** @param ctx - Context handed to every job; once cancelled, remaining jobs are dropped
** @param handle - Job handler, called from the worker goroutine only
** @param logger - Logger instance for output
** @return *Queue - Empty queue
**************************************************************************************************/
func newQueue(ctx context.Context, handle func(ctx context.Context, j job), logger *logrus.Logger) *Queue {
	q := &Queue{ctx: ctx, handle: handle, logger: logger}
	q.idle = sync.NewCond(&q.mu)
	return q
}

func (q *Queue) enqueue(kind jobKind, ids ...string) {
	if len(ids) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range ids {
		q.pending = append(q.pending, job{id: id, kind: kind})
	}
	if !q.running {
		q.running = true
		go q.work()
	}
}

func (q *Queue) next() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 || q.ctx.Err() != nil {
		if dropped := len(q.pending); dropped > 0 {
			q.logger.Debugf("Queue stopped, dropping %d pending jobs", dropped)
		}
		q.pending = nil
		q.running = false
		q.idle.Broadcast()
		return job{}, false
	}
	j := q.pending[0]
	q.pending = q.pending[1:]
	return j, true
}

func (q *Queue) work() {
	for {
		j, ok := q.next()
		if !ok {
			return
		}
		q.logger.WithFields(logrus.Fields{"id": j.id, "job": j.kind}).Debug("Processing queued job")
		q.handle(q.ctx, j)
		runtime.Gosched()
	}
}

/**************************************************************************************************
** Cancel removes every queued job for the item. A job already running is not interrupted; its
** results are discarded by the store's revision check instead.
**
** @param id - Item id
** @return int - Number of jobs removed
**************************************************************************************************/
func (q *Queue) Cancel(id string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.pending[:0]
	removed := 0
	for _, j := range q.pending {
		if j.id == id {
			removed++
			continue
		}
		kept = append(kept, j)
	}
	q.pending = kept
	return removed
}

// Len returns the number of jobs waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Wait blocks until the queue is drained and the worker has exited.
func (q *Queue) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.running {
		q.idle.Wait()
	}
}

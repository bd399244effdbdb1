package images

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type job struct {
	subject Subject
	id      int
	srcURL  string
}

// Queue runs image materialization on a fixed pool of workers. Jobs carry
// no ordering or cancellation guarantees and their completion is unordered
// relative to the reconciliation that enqueued them; a failed job is
// logged and forgotten.
type Queue struct {
	mat  *Materializer
	jobs chan job
	wg   sync.WaitGroup
	log  *zap.Logger

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewQueue(mat *Materializer, workers, depth int, log *zap.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if depth <= 0 {
		depth = 64
	}
	q := &Queue{
		mat:  mat,
		jobs: make(chan job, depth),
		log:  log,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue submits a job without blocking. When the queue is full or
// already closed the job is dropped and logged; the next reconciliation
// will enqueue it again.
func (q *Queue) Enqueue(subject Subject, id int, srcURL string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.log.Warn("image queue closed, dropping job",
			zap.String("subject", string(subject)),
			zap.Int("id", id),
		)
		return false
	}
	select {
	case q.jobs <- job{subject: subject, id: id, srcURL: srcURL}:
		return true
	default:
		q.log.Warn("image queue full, dropping job",
			zap.String("subject", string(subject)),
			zap.Int("id", id),
		)
		return false
	}
}

// Close stops accepting jobs and waits for queued work to drain. Enqueue
// after Close reports the job as dropped instead of panicking, so a
// reconciliation that outlives shutdown stays harmless.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.jobs)
	})
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for j := range q.jobs {
		if _, err := q.mat.Materialize(context.Background(), j.subject, j.id, j.srcURL); err != nil {
			q.log.Error("image materialization failed",
				zap.String("subject", string(j.subject)),
				zap.Int("id", j.id),
				zap.String("source_url", j.srcURL),
				zap.Error(err),
			)
		}
	}
}

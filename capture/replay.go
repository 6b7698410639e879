package capture

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gpuix/drawcall_exporter/logger"
)

// ErrQueueClosed is returned for tasks that could not run because the
// replay worker was shut down.
var ErrQueueClosed = errors.New("replay queue is closed")

// Task is work executed on the replay worker goroutine.
type Task func(c Controller) error

type queuedTask struct {
	tag  string
	fn   Task
	done chan error
}

// Queue owns a Controller and serializes all access to it on a dedicated
// worker goroutine. Callers submit work with AsyncInvoke and consume the
// result from the returned channel on their own goroutine, so no caller
// ever touches the controller directly.
type Queue struct {
	c     Controller
	tasks chan queuedTask

	mu      sync.RWMutex
	closed  bool
	closing chan struct{}
}

// NewQueue starts the replay worker for the given controller.
func NewQueue(c Controller) *Queue {
	q := &Queue{
		c:       c,
		tasks:   make(chan queuedTask, 16),
		closing: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	for {
		select {
		case task := <-q.tasks:
			logger.Log.Debug("replay task", zap.String("tag", task.tag))
			task.done <- task.fn(q.c)
		case <-q.closing:
			// Close holds the submission lock until this channel is
			// closed, so no further task can arrive after the drain.
			for {
				select {
				case task := <-q.tasks:
					task.done <- ErrQueueClosed
				default:
					return
				}
			}
		}
	}
}

// AsyncInvoke posts fn to the replay worker and returns a channel that
// delivers its result exactly once. Tasks run in submission order.
func (q *Queue) AsyncInvoke(tag string, fn Task) <-chan error {
	done := make(chan error, 1)

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		done <- ErrQueueClosed
		return done
	}

	q.tasks <- queuedTask{tag: tag, fn: fn, done: done}
	return done
}

// Invoke runs fn on the replay worker and blocks until it completes.
func (q *Queue) Invoke(tag string, fn Task) error {
	return <-q.AsyncInvoke(tag, fn)
}

// Close stops the worker. Tasks already queued but not yet started
// receive ErrQueueClosed, as does anything submitted afterwards.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.closing)
}

package scheduler

import (
	"context"
	"sync"
)

// Task is a unit of work run on the loop goroutine.
type Task = func()

// Queue is the host callback queue everything in flowdom resumes on.
//
// Microtasks may only be queued from the loop goroutine, they run in FIFO
// order at the next Drain. Tasks posted from other goroutines run one at a
// time, each followed by a full Drain, so a goroutine finishing some work
// never observes or causes a half-propagated update.
type Queue struct {
	micro []Task

	mu    sync.Mutex
	tasks []Task
	wake  chan struct{}
}

func New() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
	}
}

// Microtask queues fn to run at the next Drain.
func (q *Queue) Microtask(fn Task) {
	q.micro = append(q.micro, fn)
}

// Post queues fn from any goroutine and wakes Run.
func (q *Queue) Post(fn Task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending reports the number of microtasks and posted tasks waiting.
func (q *Queue) Pending() (micro, tasks int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.micro), len(q.tasks)
}

// Drain runs microtasks until none are left, including the ones queued
// while draining. It returns how many ran.
func (q *Queue) Drain() int {
	ran := 0
	for len(q.micro) > 0 {
		fn := q.micro[0]
		q.micro[0] = nil
		q.micro = q.micro[1:]
		fn()
		ran++
	}
	q.micro = q.micro[:0]
	return ran
}

func (q *Queue) takeTask() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	fn := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return fn, true
}

// Flush runs microtasks and posted tasks until both queues are empty.
func (q *Queue) Flush() int {
	ran := q.Drain()
	for {
		fn, ok := q.takeTask()
		if !ok {
			return ran
		}
		fn()
		ran++
		ran += q.Drain()
	}
}

// Run is the event loop. It blocks until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	return q.RunUntil(ctx, func() bool { return false })
}

// RunUntil runs the event loop until done reports true after a flush or
// ctx is cancelled.
func (q *Queue) RunUntil(ctx context.Context, done func() bool) error {
	for {
		q.Flush()
		if done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
		}
	}
}

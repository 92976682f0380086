// internal/router/task.go
package router

import (
	"context"
	"fmt"
	"sync"
)

// Task is the pending asynchronous side effect of a handled event. Handlers
// return it instead of blocking; the coordinator decides whether to wait.
// A nil *Task means the event had no asynchronous part.
type Task struct {
	Name string

	done chan struct{}
	once sync.Once
	err  error
}

// Go runs fn on its own goroutine and returns its Task. A panic in fn is
// converted into the task's error.
func Go(ctx context.Context, name string, fn func(ctx context.Context) error) *Task {
	t := newTask(name)
	go t.run(ctx, fn)
	return t
}

func newTask(name string) *Task {
	return &Task{Name: name, done: make(chan struct{})}
}

func (t *Task) run(ctx context.Context, fn func(ctx context.Context) error) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t.Name, r)
		}
		t.finish(err)
	}()
	err = fn(ctx)
}

// Queue runs tasks one at a time in the order they were queued, so the
// writes of consecutive events land in event order. A failed or panicking
// task does not hold back the ones behind it.
type Queue struct {
	mu   sync.Mutex
	last *Task
}

func NewQueue() *Queue {
	return &Queue{}
}

// Go queues fn behind every task queued before it. A nil Queue starts fn
// right away.
func (q *Queue) Go(ctx context.Context, name string, fn func(ctx context.Context) error) *Task {
	if q == nil {
		return Go(ctx, name, fn)
	}
	t := newTask(name)

	q.mu.Lock()
	prev := q.last
	q.last = t
	q.mu.Unlock()

	go func() {
		<-prev.Done()
		t.run(ctx, fn)
	}()
	return t
}

// Completed returns a Task that has already finished with err.
func Completed(name string, err error) *Task {
	t := newTask(name)
	t.finish(err)
	return t
}

func (t *Task) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Done is closed when the task finishes.
func (t *Task) Done() <-chan struct{} {
	if t == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return t.done
}

// Err returns the task's result. It is only meaningful after Done.
func (t *Task) Err() error {
	if t == nil {
		return nil
	}
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Then starts next once t finished successfully. The returned task carries
// t's error when t failed.
func (t *Task) Then(ctx context.Context, name string, next func(ctx context.Context) error) *Task {
	return Go(ctx, name, func(ctx context.Context) error {
		if err := t.Wait(ctx); err != nil {
			return err
		}
		return next(ctx)
	})
}

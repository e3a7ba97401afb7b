// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import "sync"

// Task is one deferred unit of work on a content thread: an opaque closure
// consumed exactly once. After Run the closure reference is dropped so
// large captured state is not retained by spent tasks.
type Task struct {
	fn func()
}

// NewTask wraps fn as a task.
func NewTask(fn func()) *Task {
	return &Task{fn: fn}
}

// Run executes the task once. Subsequent calls are no-ops.
func (t *Task) Run() {
	fn := t.fn
	t.fn = nil
	if fn != nil {
		fn()
	}
}

// TaskQueue is the FIFO work queue of one content thread. Producers are the
// host thread (input-derived tasks), timer and worker goroutines
// (completion tasks) and the content thread itself (rendering-frame
// re-scheduling); the consumer is the content thread alone.
//
// The lock is held only across queue manipulation, never across running a
// task. Consumers idle on a condition variable rather than spinning.
type TaskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []*Task
	closed bool
}

// NewTaskQueue creates an empty queue.
func NewTaskQueue() *TaskQueue {
	q := &TaskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends t. Pushing to a closed queue drops the task: the owning
// content thread is gone and a late timer or worker completion must become
// a no-op rather than crash.
func (q *TaskQueue) Push(t *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.tasks = append(q.tasks, t)
	q.cond.Signal()
}

// TryPop removes and returns the head task without blocking.
func (q *TaskQueue) TryPop() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// Pop blocks until a task is available or the queue is closed. It returns
// false only on close. Dequeue happens strictly before run: the caller
// runs the returned task outside the queue lock.
func (q *TaskQueue) Pop() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.tasks) == 0 && !q.closed {
		q.cond.Wait()
	}
	return q.popLocked()
}

func (q *TaskQueue) popLocked() (*Task, bool) {
	if len(q.tasks) == 0 {
		return nil, false
	}
	t := q.tasks[0]
	q.tasks[0] = nil // release the reference held by the backing array
	q.tasks = q.tasks[1:]
	if len(q.tasks) == 0 {
		q.tasks = nil
	}
	return t, true
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close wakes the consumer and makes further pushes no-ops. Queued tasks
// are dropped.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.tasks = nil
	q.cond.Broadcast()
}

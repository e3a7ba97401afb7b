// Copyright 2026 The Kestrel Authors
// SPDX-License-Identifier: Apache-2.0

package kestrel

import "time"

// TimerService schedules tasks onto content-thread queues after a delay.
// Each pending timer is its own goroutine that fires once and exits: the
// expiry never touches script state directly, it only enqueues a task, so
// script execution stays on exactly one thread per page while any number
// of timers are in flight.
type TimerService struct{}

// After enqueues task on q once delay elapses. The liveness guard belongs
// to the task body: a timer for a navigated-away frame must find a dead
// handle and no-op.
func (TimerService) After(delay time.Duration, q *TaskQueue, task *Task) {
	go func() {
		time.Sleep(delay)
		q.Push(task)
	}()
}

// RunAsync performs blocking work off the content thread and enqueues the
// completion task with its result. The worker never invokes script
// callbacks itself; completion arrives as an ordinary task.
func RunAsync[T any](q *TaskQueue, work func() (T, error), done func(T, error)) {
	go func() {
		v, err := work()
		q.Push(NewTask(func() { done(v, err) }))
	}()
}

// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dispatch implements the per-peer dispatch engine: named
// cooperative queues, the before/after/on-error pipe chain wrapping each
// handler invocation, the invoker adapters, the explicit handler registry,
// and the Dispatcher that ties them together.
package dispatch

import (
	"container/list"
	"sync"

	"github.com/gansuranga/zebus/core"
	"github.com/uber-go/tally"
)

// Task is a unit of work submitted to a Queue.
type Task func()

// Queue is a named, single-consumer FIFO executor. Tasks of one Queue run
// serially, one after another, in arrival order; tasks of different Queues
// may run concurrently. Enqueue never blocks the caller.
type Queue struct {
	name  string
	stats tally.Scope

	mu      sync.Mutex
	pending *list.List
	wake    chan struct{}
	stopped bool
	done    chan struct{}
}

// NewQueue creates and starts a Queue named name. The caller should call
// Stop when the queue is no longer needed.
func NewQueue(name string, stats tally.Scope) *Queue {
	q := &Queue{
		name:    name,
		stats:   stats.Tagged(map[string]string{"queue": name}),
		pending: list.New(),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// Name returns the queue's name.
func (q *Queue) Name() string {
	return q.name
}

// Enqueue appends task to the queue. Returns immediately; task runs
// asynchronously once every task ahead of it has completed. A no-op after
// Stop.
func (q *Queue) Enqueue(task Task) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.pending.PushBack(task)
	q.mu.Unlock()

	q.stats.Counter("tasks_enqueued").Inc(1)

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// PurgeTasks atomically discards every pending (not-yet-started) task and
// returns how many were discarded. A task already running is unaffected.
func (q *Queue) PurgeTasks() int {
	q.mu.Lock()
	n := q.pending.Len()
	q.pending = list.New()
	q.mu.Unlock()

	if n > 0 {
		q.stats.Counter("tasks_purged").Inc(int64(n))
	}
	return n
}

// Stop halts the consumer goroutine. Pending tasks are abandoned; a task
// already running is allowed to finish. Idempotent.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.mu.Unlock()

	close(q.done)
}

func (q *Queue) run() {
	for {
		task := q.pop()
		if task != nil {
			// Run outside any lock. Any goroutine the task spawns resumes
			// on Go's default scheduler, not this consumer -- there is no
			// ambient executor to leak into here, unlike a SynchronizationContext
			// in a single-threaded-apartment runtime.
			task()
			continue
		}

		select {
		case <-q.wake:
		case <-q.done:
			return
		}
	}
}

func (q *Queue) pop() Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return nil
	}
	front := q.pending.Front()
	if front == nil {
		return nil
	}
	q.pending.Remove(front)
	return front.Value.(Task)
}

// Queues owns the set of named Queues known to a Dispatcher, creating them
// lazily on first use.
type Queues struct {
	stats tally.Scope

	mu   sync.Mutex
	byName map[string]*Queue
}

// NewQueues creates an empty Queues registry.
func NewQueues(stats tally.Scope) *Queues {
	return &Queues{stats: stats, byName: make(map[string]*Queue)}
}

// Get returns the named Queue, creating it if it does not yet exist.
func (qs *Queues) Get(name string) *Queue {
	if name == "" {
		name = core.DefaultDispatchQueueName
	}
	qs.mu.Lock()
	defer qs.mu.Unlock()

	q, ok := qs.byName[name]
	if !ok {
		q = NewQueue(name, qs.stats)
		qs.byName[name] = q
	}
	return q
}

// PurgeAll purges every known queue and returns the sum of discarded tasks.
func (qs *Queues) PurgeAll() int {
	qs.mu.Lock()
	queues := make([]*Queue, 0, len(qs.byName))
	for _, q := range qs.byName {
		queues = append(queues, q)
	}
	qs.mu.Unlock()

	total := 0
	for _, q := range queues {
		total += q.PurgeTasks()
	}
	return total
}

// StopAll stops every known queue.
func (qs *Queues) StopAll() {
	qs.mu.Lock()
	queues := make([]*Queue, 0, len(qs.byName))
	for _, q := range qs.byName {
		queues = append(queues, q)
	}
	qs.mu.Unlock()

	for _, q := range queues {
		q.Stop()
	}
}

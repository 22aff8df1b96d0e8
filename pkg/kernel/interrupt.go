// Copyright 2024 The Kernelcore Authors.
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

package kernel

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// defaultInterruptQueueDepth is the bounded ring-buffer capacity per IRQ,
// matching the original design's 256-slot MPMC queue.
const defaultInterruptQueueDepth = 256

// InterruptWork is one unit of deferred interrupt work: the ISR pushes
// these; the IRQ's dedicated thread drains and invokes them with
// interrupts enabled.
type InterruptWork struct {
	IRQ         uint32
	TrapContext interface{}
	Timestamp   uint64
	Handler     func(InterruptWork)
}

// irqQueue is the bounded MPMC queue backing one IRQ. Admission is gated
// by a weighted semaphore (golang.org/x/sync/semaphore) sized to the
// queue's capacity: a full queue's TryAcquire fails immediately rather
// than blocking the ISR, and dropped-item accounting increments
// Overflows.
type irqQueue struct {
	mu    sync.Mutex
	items []InterruptWork
	sem   *semaphore.Weighted

	Overflows uint64
}

func newIRQQueue(depth int) *irqQueue {
	if depth <= 0 {
		depth = defaultInterruptQueueDepth
	}
	return &irqQueue{sem: semaphore.NewWeighted(int64(depth))}
}

// push appends work if capacity remains, else drops it and counts the
// overflow. Never blocks: this is the path the ISR runs on.
func (q *irqQueue) push(work InterruptWork) bool {
	if !q.sem.TryAcquire(1) {
		atomic.AddUint64(&q.Overflows, 1)
		return false
	}
	q.mu.Lock()
	q.items = append(q.items, work)
	q.mu.Unlock()
	return true
}

// drain removes and returns every queued item, releasing their semaphore
// slots back to the pool.
func (q *irqQueue) drain() []InterruptWork {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	if len(items) > 0 {
		q.sem.Release(int64(len(items)))
	}
	return items
}

// InterruptDispatcher owns one dedicated kernel thread plus bounded work
// queue per registered IRQ.
type InterruptDispatcher struct {
	manager *TaskManager
	mu      sync.Mutex
	irqs    map[uint32]*irqQueue
}

func newInterruptDispatcher(manager *TaskManager) *InterruptDispatcher {
	return &InterruptDispatcher{manager: manager, irqs: make(map[uint32]*irqQueue)}
}

// RegisterInterruptThread creates the dedicated thread servicing irq.
// Its main loop blocks on the IRQ's ResourceId, and on wake drains the
// queue and invokes each item's handler with interrupts conceptually
// enabled (i.e. from ordinary task context, able to call any kernel
// service including further blocking calls).
func (d *InterruptDispatcher) RegisterInterruptThread(irq uint32, queueDepth int) *Task {
	d.mu.Lock()
	q := newIRQQueue(queueDepth)
	d.irqs[irq] = q
	d.mu.Unlock()

	resource := NewResourceId(ResourceInterrupt, uint64(irq))
	thread := NewTask(0, 0, nil)
	thread.IsInterruptThread = true
	thread.IRQ = irq
	thread.Policy = PolicyRealTime
	thread.Entry = func(t *Task) {
		for {
			t.Manager.Block(t, resource)
			for _, work := range q.drain() {
				if work.Handler != nil {
					work.Handler(work)
				}
			}
		}
	}
	d.manager.AddTask(thread)
	return thread
}

// Dispatch is the ISR-side call: push work for irq and wake its thread.
// It returns false if the queue was full (the item was dropped).
func (d *InterruptDispatcher) Dispatch(irq uint32, work InterruptWork) bool {
	d.mu.Lock()
	q, ok := d.irqs[irq]
	d.mu.Unlock()
	if !ok {
		return false
	}
	work.IRQ = irq
	if !q.push(work) {
		return false
	}
	d.manager.Wakeup(NewResourceId(ResourceInterrupt, uint64(irq)))
	return true
}

// Overflows reports the number of items dropped for irq due to a full
// queue, or 0 if irq is unregistered.
func (d *InterruptDispatcher) Overflows(irq uint32) uint64 {
	d.mu.Lock()
	q, ok := d.irqs[irq]
	d.mu.Unlock()
	if !ok {
		return 0
	}
	return atomic.LoadUint64(&q.Overflows)
}

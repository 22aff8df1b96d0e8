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

// SchedStats counts a scheduler's lifetime operations. Resettable via
// Scheduler.ResetStats.
type SchedStats struct {
	Enqueues    uint64
	Dequeues    uint64
	Picks       uint64
	Preemptions uint64
}

// Scheduler is the capability set every ready-queue discipline (FIFO, RR,
// CFS, Idle) implements. The run-queue dispatches to it once per tick or
// per schedule; no virtual call occurs on the enqueue/pick-next fast path
// within one scheduler's own data structure.
type Scheduler interface {
	// Enqueue places task per the policy's discipline.
	Enqueue(task *Task)

	// Dequeue removes task if present; a no-op if it is not.
	Dequeue(task *Task)

	// PickNext returns the policy's chosen task and removes it from the
	// ready structure, except Idle, which never removes its slot.
	PickNext() *Task

	// GetQueueSize reports the number of ready tasks.
	GetQueueSize() int

	// IsEmpty reports whether GetQueueSize() == 0.
	IsEmpty() bool

	// OnTick runs once per tick for the currently running task. It
	// returns true when the policy wants Schedule invoked immediately.
	OnTick(current *Task) bool

	// OnTimeSliceExpired reports whether task should be re-enqueued
	// after its time slice runs out.
	OnTimeSliceExpired(task *Task) bool

	// OnPreempted and OnScheduled are statistics hooks; default no-op.
	OnPreempted(task *Task)
	OnScheduled(task *Task)

	// BoostPriority and RestorePriority are priority-inheritance hooks;
	// default no-op.
	BoostPriority(task *Task, newPriority int)
	RestorePriority(task *Task)

	// Stats returns a snapshot of lifetime counters.
	Stats() SchedStats

	// ResetStats zeros the counters.
	ResetStats()
}

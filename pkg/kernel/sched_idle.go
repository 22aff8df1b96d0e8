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

// IdleScheduler holds exactly one slot, the CPU's idle task, and never
// drains it: PickNext returns the idle task without removing it, so it
// always remains available as the scheduling fallback.
type IdleScheduler struct {
	idle  *Task
	stats SchedStats
}

// NewIdleScheduler returns an idle scheduler with no idle task assigned
// yet; assign one via Enqueue during InitCurrentCore.
func NewIdleScheduler() *IdleScheduler {
	return &IdleScheduler{}
}

// Enqueue assigns task to the single idle slot.
func (s *IdleScheduler) Enqueue(task *Task) {
	s.idle = task
	s.stats.Enqueues++
}

// Dequeue clears the idle slot if it holds task.
func (s *IdleScheduler) Dequeue(task *Task) {
	if s.idle == task {
		s.idle = nil
		s.stats.Dequeues++
	}
}

// PickNext returns the idle task without removing it.
func (s *IdleScheduler) PickNext() *Task {
	if s.idle != nil {
		s.stats.Picks++
	}
	return s.idle
}

// GetQueueSize is 1 if an idle task is assigned, else 0.
func (s *IdleScheduler) GetQueueSize() int {
	if s.idle == nil {
		return 0
	}
	return 1
}

// IsEmpty reports whether no idle task has been assigned.
func (s *IdleScheduler) IsEmpty() bool { return s.idle == nil }

// OnTick never requests preemption for the idle task.
func (s *IdleScheduler) OnTick(current *Task) bool { return false }

// OnTimeSliceExpired never re-enqueues (the idle slot is not queue-based).
func (s *IdleScheduler) OnTimeSliceExpired(task *Task) bool { return false }

// OnPreempted is a statistics no-op.
func (s *IdleScheduler) OnPreempted(task *Task) {}

// OnScheduled counts a pick: Schedule falls back to the idle task
// directly, without calling PickNext.
func (s *IdleScheduler) OnScheduled(task *Task) { s.stats.Picks++ }

// BoostPriority is a no-op for Idle.
func (s *IdleScheduler) BoostPriority(task *Task, newPriority int) {}

// RestorePriority is a no-op for Idle.
func (s *IdleScheduler) RestorePriority(task *Task) {}

// Stats returns a snapshot of the lifetime counters.
func (s *IdleScheduler) Stats() SchedStats { return s.stats }

// ResetStats zeros the counters.
func (s *IdleScheduler) ResetStats() { s.stats = SchedStats{} }

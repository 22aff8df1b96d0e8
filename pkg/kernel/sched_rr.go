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

// RoundRobinScheduler is a FIFO ready queue that additionally resets a
// task's time slice on Enqueue. Preemption at time-slice expiry is driven
// by the Task Manager's tick handler, not by OnTick here.
type RoundRobinScheduler struct {
	queue []*Task
	stats SchedStats
}

// NewRoundRobinScheduler returns an empty round-robin scheduler.
func NewRoundRobinScheduler() *RoundRobinScheduler {
	return &RoundRobinScheduler{}
}

// Enqueue appends task to the tail and resets its time slice.
func (s *RoundRobinScheduler) Enqueue(task *Task) {
	task.Sched.TimeSliceRemain = task.Sched.TimeSliceDefault
	s.queue = append(s.queue, task)
	s.stats.Enqueues++
}

// Dequeue removes task wherever it sits in the queue, if present.
func (s *RoundRobinScheduler) Dequeue(task *Task) {
	for i, t := range s.queue {
		if t == task {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.stats.Dequeues++
			return
		}
	}
}

// PickNext removes and returns the head of the queue, or nil if empty.
func (s *RoundRobinScheduler) PickNext() *Task {
	if len(s.queue) == 0 {
		return nil
	}
	t := s.queue[0]
	s.queue = s.queue[1:]
	s.stats.Picks++
	return t
}

// GetQueueSize returns the number of ready tasks.
func (s *RoundRobinScheduler) GetQueueSize() int { return len(s.queue) }

// IsEmpty reports whether the queue is empty.
func (s *RoundRobinScheduler) IsEmpty() bool { return len(s.queue) == 0 }

// OnTick never itself requests preemption; the manager's time-slice
// countdown drives RR preemption.
func (s *RoundRobinScheduler) OnTick(current *Task) bool { return false }

// OnTimeSliceExpired always re-enqueues for RR.
func (s *RoundRobinScheduler) OnTimeSliceExpired(task *Task) bool { return true }

// OnPreempted is a statistics hook.
func (s *RoundRobinScheduler) OnPreempted(task *Task) { s.stats.Preemptions++ }

// OnScheduled is a statistics no-op.
func (s *RoundRobinScheduler) OnScheduled(task *Task) {}

// BoostPriority is a no-op for RR (no priority concept).
func (s *RoundRobinScheduler) BoostPriority(task *Task, newPriority int) {}

// RestorePriority is a no-op for RR.
func (s *RoundRobinScheduler) RestorePriority(task *Task) {}

// Stats returns a snapshot of the lifetime counters.
func (s *RoundRobinScheduler) Stats() SchedStats { return s.stats }

// ResetStats zeros the counters.
func (s *RoundRobinScheduler) ResetStats() { s.stats = SchedStats{} }

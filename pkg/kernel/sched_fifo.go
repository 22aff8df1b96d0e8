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

// FifoScheduler is a plain non-preemptive FIFO ready queue: tasks run in
// the order they were enqueued, and OnTick never requests preemption.
type FifoScheduler struct {
	queue []*Task
	stats SchedStats
}

// NewFifoScheduler returns an empty FIFO scheduler.
func NewFifoScheduler() *FifoScheduler {
	return &FifoScheduler{}
}

// Enqueue appends task to the tail.
func (s *FifoScheduler) Enqueue(task *Task) {
	s.queue = append(s.queue, task)
	s.stats.Enqueues++
}

// Dequeue removes task wherever it sits in the queue, if present.
func (s *FifoScheduler) Dequeue(task *Task) {
	for i, t := range s.queue {
		if t == task {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.stats.Dequeues++
			return
		}
	}
}

// PickNext removes and returns the head of the queue, or nil if empty.
func (s *FifoScheduler) PickNext() *Task {
	if len(s.queue) == 0 {
		return nil
	}
	t := s.queue[0]
	s.queue = s.queue[1:]
	s.stats.Picks++
	return t
}

// GetQueueSize returns the number of ready tasks.
func (s *FifoScheduler) GetQueueSize() int { return len(s.queue) }

// IsEmpty reports whether the queue is empty.
func (s *FifoScheduler) IsEmpty() bool { return len(s.queue) == 0 }

// OnTick is non-preemptive for FIFO: it never requests Schedule.
func (s *FifoScheduler) OnTick(current *Task) bool { return false }

// OnTimeSliceExpired always re-enqueues for FIFO.
func (s *FifoScheduler) OnTimeSliceExpired(task *Task) bool { return true }

// OnPreempted is a statistics hook.
func (s *FifoScheduler) OnPreempted(task *Task) { s.stats.Preemptions++ }

// OnScheduled is a statistics no-op.
func (s *FifoScheduler) OnScheduled(task *Task) {}

// BoostPriority is a no-op for FIFO (no priority concept).
func (s *FifoScheduler) BoostPriority(task *Task, newPriority int) {}

// RestorePriority is a no-op for FIFO.
func (s *FifoScheduler) RestorePriority(task *Task) {}

// Stats returns a snapshot of the lifetime counters.
func (s *FifoScheduler) Stats() SchedStats { return s.stats }

// ResetStats zeros the counters.
func (s *FifoScheduler) ResetStats() { s.stats = SchedStats{} }

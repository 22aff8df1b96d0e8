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

import "github.com/google/btree"

// cfsMinGranularity is the vruntime delta (in CFS units) the ready
// queue's head must lead the running task by before OnTick signals
// preemption. kconfig.Config.CFSMinGranularity carries the same default
// for any caller that constructs a CfsScheduler directly (CfsScheduler is
// not part of TaskManager's own live dispatch; see DESIGN.md).
const cfsMinGranularity = 10

// cfsDefaultWeight is assigned to a task whose weight is unset (zero).
const cfsDefaultWeight = 1024

// cfsItem orders tasks in the btree by (vruntime, pid); pid breaks ties
// between equal-vruntime tasks so the tree never silently merges them.
type cfsItem struct {
	task *Task
}

func (i cfsItem) Less(than btree.Item) bool {
	o := than.(cfsItem)
	if i.task.Sched.CFS.vruntime != o.task.Sched.CFS.vruntime {
		return i.task.Sched.CFS.vruntime < o.task.Sched.CFS.vruntime
	}
	return i.task.PID < o.task.PID
}

// CfsScheduler is a fair-share scheduler ordering ready tasks by
// vruntime, backed by a google/btree balanced tree rather than the
// original design's linear-scan heap: this gives O(log n) Enqueue,
// Dequeue, and PickNext-min instead of O(n) Dequeue.
type CfsScheduler struct {
	tree        *btree.BTree
	size        int
	minVruntime uint64
	minGran     uint64
	stats       SchedStats
}

// NewCfsScheduler returns an empty CFS scheduler using the given minimum
// preemption granularity (vruntime units).
func NewCfsScheduler(minGranularity uint64) *CfsScheduler {
	if minGranularity == 0 {
		minGranularity = cfsMinGranularity
	}
	return &CfsScheduler{tree: btree.New(32), minGran: minGranularity}
}

// Enqueue inserts task into the vruntime-ordered tree. A fresh task
// (vruntime == 0) is bootstrapped to the current min_vruntime so it
// cannot dominate the CPU merely by having just arrived; an unset weight
// defaults to the nominal 1024.
func (s *CfsScheduler) Enqueue(task *Task) {
	if task.Sched.CFS.vruntime == 0 {
		task.Sched.CFS.vruntime = s.minVruntime
	}
	if task.Sched.CFS.weight == 0 {
		task.Sched.CFS.weight = cfsDefaultWeight
	}
	s.tree.ReplaceOrInsert(cfsItem{task})
	s.size++
	s.stats.Enqueues++
}

// Dequeue removes task from the tree if present.
func (s *CfsScheduler) Dequeue(task *Task) {
	if s.tree.Delete(cfsItem{task}) != nil {
		s.size--
		s.stats.Dequeues++
	}
}

// PickNext removes and returns the minimum-vruntime task, updating
// min_vruntime from the new head (or leaving it at the returned task's
// vruntime if the tree is now empty).
func (s *CfsScheduler) PickNext() *Task {
	min := s.tree.Min()
	if min == nil {
		return nil
	}
	picked := min.(cfsItem).task
	s.tree.Delete(min)
	s.size--
	s.stats.Picks++

	if newMin := s.tree.Min(); newMin != nil {
		s.minVruntime = newMin.(cfsItem).task.Sched.CFS.vruntime
	} else {
		s.minVruntime = picked.Sched.CFS.vruntime
	}
	return picked
}

// GetQueueSize returns the number of ready tasks.
func (s *CfsScheduler) GetQueueSize() int { return s.size }

// IsEmpty reports whether the tree is empty.
func (s *CfsScheduler) IsEmpty() bool { return s.size == 0 }

// OnTick advances current's vruntime by (1024*1000)/weight and reports
// whether the ready queue's head now leads by more than minGranularity
// (head + minGranularity < current), the signal for preemption.
func (s *CfsScheduler) OnTick(current *Task) bool {
	delta := (uint64(1024) * 1000) / uint64(current.Sched.CFS.weight)
	current.Sched.CFS.vruntime += delta

	head := s.tree.Min()
	if head == nil {
		return false
	}
	headVruntime := head.(cfsItem).task.Sched.CFS.vruntime
	return headVruntime+s.minGran < current.Sched.CFS.vruntime
}

// OnTimeSliceExpired is unused by CFS (preemption is vruntime-driven, not
// a fixed time slice), but re-enqueuing is still correct if called.
func (s *CfsScheduler) OnTimeSliceExpired(task *Task) bool { return true }

// OnPreempted is a statistics hook.
func (s *CfsScheduler) OnPreempted(task *Task) { s.stats.Preemptions++ }

// OnScheduled is a statistics no-op.
func (s *CfsScheduler) OnScheduled(task *Task) {}

// BoostPriority and RestorePriority are priority-inheritance hooks; CFS
// has no priority concept beyond weight, so both are no-ops by default.
func (s *CfsScheduler) BoostPriority(task *Task, newPriority int) {}
func (s *CfsScheduler) RestorePriority(task *Task)                {}

// Stats returns a snapshot of the lifetime counters.
func (s *CfsScheduler) Stats() SchedStats { return s.stats }

// ResetStats zeros the counters.
func (s *CfsScheduler) ResetStats() { s.stats = SchedStats{} }

// SetWeight and SetVruntime let tests and Clone() seed a task's CFS data
// directly, matching the original design's exposed SchedData union.
func SetWeight(t *Task, weight uint32)     { t.Sched.CFS.weight = weight }
func SetVruntime(t *Task, vruntime uint64) { t.Sched.CFS.vruntime = vruntime }
func Vruntime(t *Task) uint64              { return t.Sched.CFS.vruntime }
func Weight(t *Task) uint32                { return t.Sched.CFS.weight }

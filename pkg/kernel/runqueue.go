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

import "container/heap"

// sleepHeap is a min-heap of tasks ordered by WakeTick, satisfying
// container/heap.Interface.
type sleepHeap []*Task

func (h sleepHeap) Len() int { return len(h) }
func (h sleepHeap) Less(i, j int) bool {
	return h[i].Sched.WakeTick < h[j].Sched.WakeTick
}
func (h sleepHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *sleepHeap) Push(x interface{}) {
	*h = append(*h, x.(*Task))
}
func (h *sleepHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// CpuSchedData is the per-CPU scheduling state: one Scheduler instance
// per Policy, the sleep min-heap, the blocked-by-resource buckets, the
// local tick counter, and the idle/schedule counters. All mutation goes
// through Lock, which the Task Manager acquires before touching any of
// this and releases before invoking the context-switch substrate.
type CpuSchedData struct {
	CPUID uint32
	Lock  *Spinlock

	policies [policyCount]Scheduler

	sleeping sleepHeap
	blocked  map[ResourceId][]*Task

	LocalTick      uint64
	IdleTime       uint64
	TotalSchedules uint64

	RunningTask *Task
	IdleTask    *Task

	// Resched is the baton-handoff channel: a live task's goroutine
	// sends itself here (via TaskManager.reschedule) to give control
	// back to this CPU's scheduling loop. See exec.go and manager.go.
	Resched chan *Task
}

// NewCpuSchedData constructs a per-CPU run-queue with FIFO, RR, and Idle
// scheduler instances already in place for RealTime/Normal/Idle (policy
// slots are cheap to construct; none is ever nil).
func NewCpuSchedData(cpuID uint32) *CpuSchedData {
	d := &CpuSchedData{
		CPUID:   cpuID,
		Lock:    NewSpinlock(nil),
		blocked: make(map[ResourceId][]*Task),
		Resched: make(chan *Task, 1),
	}
	// RealTime maps to fixed-priority FIFO, matching SCHED_FIFO's role as
	// the default realtime discipline. Normal maps to round-robin, matching
	// original_source's live InitCurrentCore wiring; CfsScheduler remains a
	// fully implemented, directly testable Scheduler for callers that
	// construct a run-queue slot themselves, but Policy only carries three
	// values and so never dispatches to it implicitly. See DESIGN.md's
	// Open Question decisions for both choices.
	d.policies[PolicyRealTime] = NewFifoScheduler()
	d.policies[PolicyNormal] = NewRoundRobinScheduler()
	d.policies[PolicyIdle] = NewIdleScheduler()
	heap.Init(&d.sleeping)
	return d
}

// Scheduler returns the scheduler instance backing p.
func (d *CpuSchedData) Scheduler(p Policy) Scheduler {
	return d.policies[p]
}

// pushSleep inserts task into the sleep heap, keyed by its WakeTick.
func (d *CpuSchedData) pushSleep(task *Task) {
	heap.Push(&d.sleeping, task)
}

// popDueSleepers pops every task whose WakeTick is <= tick, in wake
// order, stopping at the first task whose wake is still in the future.
func (d *CpuSchedData) popDueSleepers(tick uint64) []*Task {
	var due []*Task
	for len(d.sleeping) > 0 && d.sleeping[0].Sched.WakeTick <= tick {
		due = append(due, heap.Pop(&d.sleeping).(*Task))
	}
	return due
}

// addBlocked appends task to the bucket for resource.
func (d *CpuSchedData) addBlocked(resource ResourceId, task *Task) {
	d.blocked[resource] = append(d.blocked[resource], task)
}

// drainBlocked removes and returns every task blocked on resource.
func (d *CpuSchedData) drainBlocked(resource ResourceId) []*Task {
	tasks := d.blocked[resource]
	delete(d.blocked, resource)
	return tasks
}

// ReadyCount sums the ready-queue sizes of the RealTime and Normal
// policies (Idle is not a steal/balance candidate).
func (d *CpuSchedData) ReadyCount() int {
	return d.policies[PolicyRealTime].GetQueueSize() + d.policies[PolicyNormal].GetQueueSize()
}

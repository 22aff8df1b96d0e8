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

// Policy selects which per-CPU scheduler instance owns a task.
type Policy uint8

// Scheduling policies, in the priority order Schedule consults them.
const (
	PolicyRealTime Policy = iota
	PolicyNormal
	PolicyIdle
	policyCount
)

func (p Policy) String() string {
	switch p {
	case PolicyRealTime:
		return "RealTime"
	case PolicyNormal:
		return "Normal"
	case PolicyIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// CloneFlags is the subset of POSIX clone(2) flags this kernel recognizes.
// Unrecognized bits are ignored.
type CloneFlags uint32

// Recognized clone flag bits, matching Linux's asm-generic numbering.
const (
	CloneVm      CloneFlags = 0x100
	CloneFs      CloneFlags = 0x200
	CloneFiles   CloneFlags = 0x400
	CloneSighand CloneFlags = 0x800
	CloneParent  CloneFlags = 0x8000
	CloneThread  CloneFlags = 0x10000
)

func (f CloneFlags) has(bit CloneFlags) bool { return f&bit != 0 }

// cfsData is the CFS-specific half of a task's scheduling info tagged
// union.
type cfsData struct {
	vruntime uint64
	weight   uint32
}

// SchedInfo carries the scheduling bookkeeping fields of a TCB.
type SchedInfo struct {
	Priority          int
	BasePriority      int
	InheritedPriority int
	TimeSliceDefault  int
	TimeSliceRemain   int
	TotalRuntime      uint64
	SwitchCount       uint64
	WakeTick          uint64
	CFS               cfsData
}

// Task is one schedulable entity: a kernel thread or user thread. It is
// the Go equivalent of the original task_control_block.hpp TCB — the
// struct every component in this package ultimately operates on.
type Task struct {
	PID    uint64
	TGID   uint64
	PPID   uint64
	PGID   uint64
	SID    uint64

	fsm    *TaskFSM
	Policy Policy

	Sched SchedInfo

	// CPU is the index of the run-queue this task is currently assigned
	// to: the CPU it is running/ready/sleeping/blocked on. AddTask and
	// Clone pick it from CPUAffinity; Balance updates it on steal.
	CPU uint32

	// CPUAffinity is a 64-bit mask; default all-ones (every CPU allowed).
	CPUAffinity uint64

	// Resources stands in for the fd table / page-table style state a
	// real kernel would track per address space. Clone shares it when
	// CloneVm or CloneFiles is set, and deep-copies it otherwise.
	Resources map[string]interface{}

	// BlockedOn is valid (non-None) only while State() == StateBlocked.
	BlockedOn ResourceId

	CloneFlags CloneFlags

	// Thread-group sibling linkage. Never owning: the task table in
	// TaskManager is the sole owner of every *Task.
	tgNext, tgPrev *Task

	// IRQ binding, set only for interrupt-service threads (see interrupt.go).
	IsInterruptThread bool
	IRQ               uint32

	ExitCode int

	// Entry is the task's body, run on the task's dedicated goroutine
	// (see exec.go). Entry receives the Task so it can call back into
	// the owning TaskManager via Manager.
	Entry func(t *Task)

	Manager *TaskManager

	exec *taskExec
}

// NewTask allocates a Task in StateUnInit. pid/tgid of 0 signal "assign
// me" to AddTask.
func NewTask(pid, tgid uint64, entry func(t *Task)) *Task {
	t := &Task{
		PID:         pid,
		TGID:        tgid,
		CPUAffinity: ^uint64(0),
		BlockedOn:   NoResource,
		Entry:       entry,
	}
	t.fsm = NewTaskFSM(nil)
	t.tgNext, t.tgPrev = t, t
	t.exec = newTaskExec()
	return t
}

// State returns the task's current lifecycle state.
func (t *Task) State() TaskState {
	return t.fsm.State()
}

// IsLeader reports whether this task is the thread-group leader.
func (t *Task) IsLeader() bool {
	return t.PID == t.TGID
}

// JoinThreadGroup splices t into leader's sibling ring and adopts its
// tgid. Matches original_source's task_control_block.cpp thread-group
// linkage.
func (t *Task) JoinThreadGroup(leader *Task) {
	t.TGID = leader.TGID
	next := leader.tgNext
	leader.tgNext = t
	t.tgPrev = leader
	t.tgNext = next
	next.tgPrev = t
}

// LeaveThreadGroup unlinks t from its sibling ring.
func (t *Task) LeaveThreadGroup() {
	t.tgPrev.tgNext = t.tgNext
	t.tgNext.tgPrev = t.tgPrev
	t.tgNext, t.tgPrev = t, t
}

// GetThreadGroupSize traverses the sibling ring, bounded by group size.
func (t *Task) GetThreadGroupSize() int {
	n := 1
	for cur := t.tgNext; cur != t; cur = cur.tgNext {
		n++
	}
	return n
}

// InSameThreadGroup reports whether t and other share a nonzero tgid.
func (t *Task) InSameThreadGroup(other *Task) bool {
	return t.TGID != 0 && t.TGID == other.TGID
}

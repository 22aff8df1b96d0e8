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

// Package kernel implements the task management and scheduling core: the
// per-CPU run-queue, the task lifecycle FSM, pluggable scheduler
// policies, the blocking/wakeup resource registry, the sleep queue, and
// the clone/wait process-family operations, plus the spinlock, blocking
// Mutex, and interrupt-thread dispatch that sit directly alongside them.
package kernel

import (
	"fmt"
	"sync/atomic"

	"github.com/mohae/deepcopy"

	"kernelcore/internal/kconfig"
	"kernelcore/internal/kernelerr"
	"kernelcore/internal/klog"
)

// TaskManager is the single process-wide coordinator: it owns the task
// table, the pid allocator, every CPU's run-queue, and the interrupt
// thread registry.
type TaskManager struct {
	log *klog.Logger
	cfg kconfig.Config

	tableLock *Spinlock
	tasks     map[uint64]*Task
	nextPID   uint64

	// externalLockID hands out tableLock identities to callers that are
	// not running in any CPU's own execution context (TaskByPID,
	// TaskCount — introspection entry points called from the CLI or test
	// goroutines, not from a task's Entry). Spinlock.Acquire treats
	// "locked && owner==cpu" as a recursive acquire and returns
	// immediately without waiting; reusing a real CPU's id (or a single
	// shared constant) here would let one of these calls barge into, or
	// be barged into by, another caller's critical section instead of
	// waiting its turn. Seeded well above any realistic CPUCount and
	// incremented on every call so it never collides with a genuine CPU
	// id and never repeats across concurrent external callers.
	externalLockID uint32

	cpus []*CpuSchedData

	Interrupts *InterruptDispatcher
}

// NewTaskManager constructs a TaskManager for cfg.CPUCount virtual CPUs.
// Callers must call InitCurrentCore once per CPU index before any task
// is added to that CPU.
func NewTaskManager(cfg kconfig.Config, log *klog.Logger) *TaskManager {
	if log == nil {
		log = klog.New()
	}
	m := &TaskManager{
		log:            log,
		cfg:            cfg,
		tableLock:      NewSpinlock(log),
		tasks:          make(map[uint64]*Task),
		cpus:           make([]*CpuSchedData, cfg.CPUCount),
		externalLockID: 1 << 16,
	}
	m.Interrupts = newInterruptDispatcher(m)
	return m
}

// InitCurrentCore constructs cpuID's run-queue, spawns its idle task
// (an infinite low-power wait loop), and sets it as both the running and
// idle task — matching the original per-CPU boot sequence.
func (m *TaskManager) InitCurrentCore(cpuID uint32) *Task {
	rq := NewCpuSchedData(cpuID)
	m.cpus[cpuID] = rq

	idle := NewTask(0, 0, func(t *Task) {
		for {
			m.Yield(t)
		}
	})
	idle.fsm.AttachLogger(m.log)
	idle.Policy = PolicyIdle
	idle.Manager = m
	idle.CPU = cpuID

	m.tableLock.Acquire(cpuID, true)
	idle.PID = atomic.AddUint64(&m.nextPID, 1)
	idle.TGID = idle.PID
	m.tasks[idle.PID] = idle
	m.tableLock.Release(cpuID)

	idle.fsm.Fire(EventSchedule, false) // UnInit -> Ready
	idle.fsm.Fire(EventSchedule, false) // Ready -> Running

	rq.Scheduler(PolicyIdle).Enqueue(idle)
	rq.RunningTask = idle
	rq.IdleTask = idle

	m.log.With(fieldsCPU(cpuID)).Info("core initialized")
	return idle
}

// AddTask registers a freshly constructed UnInit task, assigns it a pid
// and (if unset) a singleton tgid, transitions it to Ready, and enqueues
// it on the first CPU its affinity permits (falling back to CPU 0 when no
// configured CPU is permitted). It never forces an immediate context
// switch.
func (m *TaskManager) AddTask(task *Task) error {
	return m.addTaskOnCPU(task, 0)
}

// addTaskOnCPU is AddTask with an explicit caller CPU used as the
// affinity-selection default.
func (m *TaskManager) addTaskOnCPU(task *Task, callerCPU uint32) error {
	task.fsm.AttachLogger(m.log)
	task.Manager = m
	if task.Sched.TimeSliceDefault == 0 {
		task.Sched.TimeSliceDefault = m.cfg.DefaultTimeSlice
	}

	m.tableLock.Acquire(callerCPU, true)
	if len(m.tasks) >= m.cfg.TaskTableCapacity {
		m.tableLock.Release(callerCPU)
		return fmt.Errorf("add task: %w", kernelerr.ErrOutOfMemory)
	}
	if task.PID == 0 {
		task.PID = atomic.AddUint64(&m.nextPID, 1)
	}
	if task.TGID == 0 {
		task.TGID = task.PID
	}
	m.tasks[task.PID] = task
	m.tableLock.Release(callerCPU)

	task.fsm.Fire(EventSchedule, false) // UnInit -> Ready

	target := callerCPU
	for i := 0; i < len(m.cpus); i++ {
		if task.CPUAffinity&(1<<uint(i)) != 0 {
			target = uint32(i)
			break
		}
	}
	task.CPU = target

	rq := m.cpus[target]
	g := AcquireGuard(rq.Lock, target, true)
	rq.Scheduler(task.Policy).Enqueue(task)
	g.Release()
	return nil
}

// Schedule is the core scheduling decision for cpuID: it processes the
// outgoing running task's terminal/voluntary state, picks the next task
// by policy priority (RealTime, Normal, Idle), marks it Running, and
// hands control to its goroutine if it has one.
func (m *TaskManager) Schedule(cpuID uint32) {
	rq := m.cpus[cpuID]

	g := AcquireGuard(rq.Lock, cpuID, true)
	outgoing := rq.RunningTask
	wakeupParent := uint64(0)
	needWakeup := false
	if outgoing != nil {
		switch outgoing.State() {
		case StateRunning:
			outgoing.fsm.Fire(EventYield, false)
			if outgoing != rq.IdleTask {
				rq.Scheduler(outgoing.Policy).Enqueue(outgoing)
			}
		case StateReady:
			if outgoing != rq.IdleTask {
				rq.Scheduler(outgoing.Policy).Enqueue(outgoing)
			}
		case StateZombie, StateExited:
			needWakeup = true
			wakeupParent = outgoing.PPID
		}
	}
	g.Release()

	if needWakeup {
		m.Wakeup(ChildExitResource(wakeupParent))
	}

	next := m.pickNext(cpuID)

	g = AcquireGuard(rq.Lock, cpuID, true)
	rq.RunningTask = next
	next.fsm.Fire(EventSchedule, false) // Ready -> Running
	if next != rq.IdleTask {
		next.Sched.TimeSliceRemain = next.Sched.TimeSliceDefault
	}
	rq.TotalSchedules++
	next.CPU = cpuID
	g.Release()

	rq.Scheduler(next.Policy).OnScheduled(next)

	if next.Entry != nil {
		next.exec.start(next)
		next.exec.resume <- struct{}{}
	}
}

// pickNext iterates policy schedulers in priority order, retrying once
// via Balance if every local policy is empty, and falls back to the
// idle task if Balance finds nothing to steal either.
func (m *TaskManager) pickNext(cpuID uint32) *Task {
	rq := m.cpus[cpuID]

	try := func() *Task {
		g := AcquireGuard(rq.Lock, cpuID, true)
		defer g.Release()
		for _, p := range []Policy{PolicyRealTime, PolicyNormal} {
			if t := rq.Scheduler(p).PickNext(); t != nil {
				return t
			}
		}
		return nil
	}

	if t := try(); t != nil {
		return t
	}
	m.Balance(cpuID)
	if t := try(); t != nil {
		return t
	}
	return rq.IdleTask
}

// Sleep transitions the calling task to Sleeping until localTick reaches
// ticksFromNow ticks from the CPU's current tick, then hands control
// back to the scheduler.
func (m *TaskManager) Sleep(t *Task, ticksFromNow uint64) {
	rq := m.cpus[t.CPU]
	g := AcquireGuard(rq.Lock, t.CPU, true)
	t.fsm.Fire(EventSleep, false)
	t.Sched.WakeTick = rq.LocalTick + ticksFromNow
	rq.pushSleep(t)
	g.Release()
	m.reschedule(t, false)
}

// Block transitions the calling task to Blocked on resource and hands
// control back to the scheduler.
func (m *TaskManager) Block(t *Task, resource ResourceId) {
	rq := m.cpus[t.CPU]
	g := AcquireGuard(rq.Lock, t.CPU, true)
	t.fsm.Fire(EventBlock, false)
	t.BlockedOn = resource
	rq.addBlocked(resource, t)
	g.Release()
	m.reschedule(t, false)
}

// Wakeup moves every task blocked on resource (across every CPU, since a
// blocker's CPU need not match the waker's) back to Ready and re-enqueues
// it on the CPU it was blocked on. This is wake-all semantics; callers
// that want wake-one (Mutex) retry their acquire after waking.
func (m *TaskManager) Wakeup(resource ResourceId) {
	for cpuID, rq := range m.cpus {
		if rq == nil {
			continue
		}
		g := AcquireGuard(rq.Lock, uint32(cpuID), true)
		woken := rq.drainBlocked(resource)
		for _, tk := range woken {
			tk.fsm.Fire(EventWakeup, false)
			tk.BlockedOn = NoResource
			rq.Scheduler(tk.Policy).Enqueue(tk)
		}
		g.Release()
	}
}

// Yield voluntarily gives up the CPU; Schedule's outgoing-task handling
// performs the Running -> Ready transition and re-enqueue.
func (m *TaskManager) Yield(t *Task) {
	m.reschedule(t, false)
}

// TickUpdate is the timer-interrupt handler for cpuID: it advances the
// local tick, wakes every sleeper whose wake tick has arrived, and
// updates the running task's accounting. It reports whether the caller
// should invoke a reschedule — true if the policy's OnTick requested
// preemption or the time slice has been exhausted. Because this package
// has no way to forcibly suspend an arbitrary live goroutine (the same
// reason context-switch assembly is out of scope), the actual handoff on
// a true result happens when the running task next calls CheckPoint,
// Yield, Sleep, Block, or Exit — a cooperative substitute for a hardware
// timer interrupt.
func (m *TaskManager) TickUpdate(cpuID uint32) bool {
	rq := m.cpus[cpuID]
	g := AcquireGuard(rq.Lock, cpuID, true)
	defer g.Release()

	rq.LocalTick++
	for _, tk := range rq.popDueSleepers(rq.LocalTick) {
		tk.fsm.Fire(EventWakeup, false)
		rq.Scheduler(tk.Policy).Enqueue(tk)
	}

	running := rq.RunningTask
	if running == nil || running == rq.IdleTask {
		rq.IdleTime++
		return false
	}
	running.Sched.TotalRuntime++
	if running.Sched.TimeSliceRemain > 0 {
		running.Sched.TimeSliceRemain--
	}
	needResched := rq.Scheduler(running.Policy).OnTick(running)
	return needResched || running.Sched.TimeSliceRemain == 0
}

// CheckPoint is the cooperative preemption point a live task's Entry
// loop calls periodically, in place of a hardware timer interrupt: it
// runs TickUpdate for the task's own CPU and, if preemption was
// requested, hands control back to the scheduler.
func (m *TaskManager) CheckPoint(t *Task) {
	if m.TickUpdate(t.CPU) {
		m.reschedule(t, false)
	}
}

// Balance attempts to steal at most one ready task from a peer CPU with
// more than one ready task, when cpuID's own policies are all empty.
// Peer locks are acquired in ascending CPU-index order to avoid deadlock
// against a concurrent Balance running the other direction. Returns
// whether a task was stolen. (The original implementation never
// completed this method; this is a first working implementation of the
// algorithm the design describes.)
func (m *TaskManager) Balance(cpuID uint32) bool {
	rq := m.cpus[cpuID]
	for peerIdx := range m.cpus {
		peerID := uint32(peerIdx)
		if peerID == cpuID || m.cpus[peerID] == nil {
			continue
		}
		peer := m.cpus[peerID]

		first, second := cpuID, peerID
		firstRQ, secondRQ := rq, peer
		if peerID < cpuID {
			first, second = peerID, cpuID
			firstRQ, secondRQ = peer, rq
		}
		gFirst := AcquireGuard(firstRQ.Lock, first, true)
		gSecond := AcquireGuard(secondRQ.Lock, second, true)

		stolen := m.stealOneLocked(rq, peer, cpuID)

		gSecond.Release()
		gFirst.Release()

		if stolen {
			return true
		}
	}
	return false
}

// stealOneLocked must be called with both rq's and peer's locks held.
func (m *TaskManager) stealOneLocked(rq, peer *CpuSchedData, cpuID uint32) bool {
	if peer.ReadyCount() <= 1 {
		return false
	}
	for _, p := range []Policy{PolicyRealTime, PolicyNormal} {
		sched := peer.Scheduler(p)
		if sched.GetQueueSize() == 0 {
			continue
		}
		t := sched.PickNext()
		if t.CPUAffinity&(1<<cpuID) == 0 {
			sched.Enqueue(t)
			return false
		}
		t.CPU = cpuID
		rq.Scheduler(p).Enqueue(t)
		return true
	}
	return false
}

// Clone implements clone(2)/fork(2) semantics: it auto-completes required
// flags, builds a new task, shares or deep-copies resources per CloneVm,
// links into the thread group per CloneThread, and adds the child. It
// returns the child task; its PID is the parent-side return of clone(2).
func (m *TaskManager) Clone(parent *Task, flags CloneFlags, entry func(*Task)) (*Task, error) {
	if flags.has(CloneThread) {
		flags |= CloneVm | CloneFiles | CloneSighand
	}

	child := NewTask(0, 0, entry)
	child.Policy = parent.Policy
	child.CPUAffinity = parent.CPUAffinity
	child.CloneFlags = flags

	if flags.has(CloneThread) {
		child.TGID = parent.TGID
	}
	if flags.has(CloneParent) {
		child.PPID = parent.PPID
	} else {
		child.PPID = parent.PID
	}

	if flags.has(CloneVm) || flags.has(CloneFiles) {
		child.Resources = parent.Resources
	} else if parent.Resources != nil {
		child.Resources = deepcopy.Copy(parent.Resources).(map[string]interface{})
	}

	if err := m.addTaskOnCPU(child, parent.CPU); err != nil {
		return nil, err
	}
	if flags.has(CloneThread) {
		child.JoinThreadGroup(parent)
	}
	return child, nil
}

// Fork is Clone with flags=0, matching sys_fork's documented routing.
func (m *TaskManager) Fork(parent *Task, entry func(*Task)) (*Task, error) {
	return m.Clone(parent, 0, entry)
}

// Wait implements wait(2)/waitpid(2): target -1 means any child, 0 means
// same process group as caller, >0 a specific pid, <-1 the process group
// |target|. It blocks (unless noHang) until a matching child is
// reapable.
func (m *TaskManager) Wait(caller *Task, target int64, noHang, untraced bool) (pid uint64, status int, err error) {
	matches := func(c *Task) bool {
		switch {
		case target == -1:
			return true
		case target == 0:
			return c.PGID == caller.PGID
		case target > 0:
			return c.PID == uint64(target)
		default:
			return c.PGID == uint64(-target)
		}
	}

	for {
		m.tableLock.Acquire(caller.CPU, true)
		var anyChild bool
		for _, c := range m.tasks {
			if c.PPID != caller.PID || !matches(c) {
				continue
			}
			anyChild = true
			switch c.State() {
			case StateZombie, StateExited:
				pid, status = c.PID, c.ExitCode
				m.tableLock.Release(caller.CPU)
				m.ReapTask(pid, caller.CPU)
				return pid, status, nil
			case StateBlocked:
				if untraced {
					pid = c.PID
					status = -1 // sentinel: stopped
					m.tableLock.Release(caller.CPU)
					return pid, status, nil
				}
			}
		}
		m.tableLock.Release(caller.CPU)

		if !anyChild {
			return 0, 0, fmt.Errorf("wait: %w", kernelerr.ErrNoSuchProcess)
		}
		if noHang {
			return 0, 0, nil
		}
		m.Block(caller, ChildExitResource(caller.PID))
	}
}

// Exit records exitCode, reparents any children to init (pid 1),
// transitions the FSM to Zombie (if the task has a parent) or Exited,
// and hands control back to the scheduler. The Schedule call this
// triggers wakes any task blocked on ChildExit(parent pid).
func (m *TaskManager) Exit(t *Task, exitCode int) {
	t.ExitCode = exitCode
	m.ReparentChildren(t)

	rq := m.cpus[t.CPU]
	g := AcquireGuard(rq.Lock, t.CPU, true)
	t.fsm.Fire(EventExit, t.PPID != 0)
	g.Release()

	m.reschedule(t, true)
}

// ReapTask removes pid's entry from the task table, dropping the last
// owning reference to its Task (and, transitively, any page table not
// shared via CloneVm). callerCPU must be the CPU of the task driving the
// reap (Wait's caller), not a hardcoded identity: Spinlock.Acquire treats
// "locked && owner==cpu" as a recursive acquire and returns immediately
// without waiting, so reusing another CPU's id here would let this call
// barge into that CPU's critical section instead of waiting its turn.
func (m *TaskManager) ReapTask(pid uint64, callerCPU uint32) {
	if !m.tableLock.Acquire(callerCPU, true) {
		m.log.With(fieldsCPU(callerCPU)).Error("tableLock: unexpected recursive acquire reaping task")
		return
	}
	delete(m.tasks, pid)
	m.tableLock.Release(callerCPU)
}

// ReparentChildren reassigns every direct child of t to init (pid 1),
// preventing orphaned zombies from being lost.
func (m *TaskManager) ReparentChildren(t *Task) {
	m.tableLock.Acquire(t.CPU, true)
	for _, c := range m.tasks {
		if c.PPID == t.PID {
			c.PPID = 1
		}
	}
	m.tableLock.Release(t.CPU)
}

// reschedule is the baton handoff used by Yield, Sleep, Block, and Exit:
// a live task (one whose goroutine has actually been started) sends
// itself on its CPU's Resched channel and, unless final (Exit), blocks
// on its own resume channel until scheduled again. A task driven
// synchronously (no live goroutine, as in tests that only inspect
// scheduling decisions) instead calls Schedule directly.
func (m *TaskManager) reschedule(t *Task, final bool) {
	rq := m.cpus[t.CPU]
	if t.exec.started {
		rq.Resched <- t
		if !final {
			<-t.exec.resume
		}
		return
	}
	m.Schedule(t.CPU)
}

// RunCPULoop drives cpuID's scheduling loop forever: it starts the idle
// task's goroutine, then repeatedly waits for the running task to ask to
// be rescheduled and calls Schedule. Intended for live operation (the
// CLI demo); tests typically call Schedule, TickUpdate, Sleep, Block, and
// Wakeup directly instead.
func (m *TaskManager) RunCPULoop(cpuID uint32) {
	rq := m.cpus[cpuID]
	idle := rq.IdleTask
	idle.exec.start(idle)
	idle.exec.resume <- struct{}{}
	for {
		<-rq.Resched
		m.Schedule(cpuID)
	}
}

// nextExternalLockID returns a tableLock identity guaranteed not to
// collide with any genuine CPU id or with any other concurrent caller of
// this function, for use by table accessors not tied to a CPU's own
// execution context.
func (m *TaskManager) nextExternalLockID() uint32 {
	return atomic.AddUint32(&m.externalLockID, 1)
}

// TaskByPID returns the live task for pid, or nil.
func (m *TaskManager) TaskByPID(pid uint64) *Task {
	id := m.nextExternalLockID()
	if !m.tableLock.Acquire(id, true) {
		m.log.Error("tableLock: unexpected recursive acquire looking up task")
		return nil
	}
	defer m.tableLock.Release(id)
	return m.tasks[pid]
}

// TaskCount returns the number of live entries in the task table.
func (m *TaskManager) TaskCount() int {
	id := m.nextExternalLockID()
	if !m.tableLock.Acquire(id, true) {
		m.log.Error("tableLock: unexpected recursive acquire counting tasks")
		return 0
	}
	defer m.tableLock.Release(id)
	return len(m.tasks)
}

// CPU returns the run-queue for cpuID, for tests and the CLI's stats
// command.
func (m *TaskManager) CPU(cpuID uint32) *CpuSchedData {
	return m.cpus[cpuID]
}

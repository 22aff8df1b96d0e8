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
	"sync/atomic"
	"unsafe"

	"kernelcore/internal/klog"
)

// noOwnerPID is the sentinel owner value of an unlocked Mutex.
const noOwnerPID = ^uint64(0)

// Mutex is a blocking, ownership-tracked lock built on the Task Manager's
// Block/Wakeup primitives rather than a spinlock: a task may suspend
// while holding one. It is non-reentrant.
type Mutex struct {
	Name string

	locked uint32 // 0 unlocked, 1 locked; CAS target
	owner  uint64 // pid of the owner, or noOwnerPID

	resource ResourceId
	manager  *TaskManager
	log      *klog.Logger
}

// NewMutex returns an unlocked mutex bound to manager. Its ResourceId's
// data field is the mutex's own address, so two Mutex values always
// produce distinct ResourceIds.
func NewMutex(name string, manager *TaskManager) *Mutex {
	m := &Mutex{
		Name:    name,
		owner:   noOwnerPID,
		manager: manager,
		log:     manager.log,
	}
	m.resource = NewResourceId(ResourceMutex, uint64(uintptr(unsafe.Pointer(m))))
	return m
}

// Lock blocks the calling task (via the Task Manager) until the mutex is
// acquired. Calling Lock while already the owner fails (non-recursive).
func (m *Mutex) Lock(caller *Task) bool {
	if atomic.LoadUint64(&m.owner) == caller.PID && atomic.LoadUint32(&m.locked) == 1 {
		if m.log != nil {
			m.log.With(fieldsTask(caller.PID, 0)).Error("recursive mutex lock: " + m.Name)
		}
		return false
	}
	for !atomic.CompareAndSwapUint32(&m.locked, 0, 1) {
		m.manager.Block(caller, m.resource)
	}
	atomic.StoreUint64(&m.owner, caller.PID)
	return true
}

// TryLock attempts the CAS once, never blocking.
func (m *Mutex) TryLock(caller *Task) bool {
	if !atomic.CompareAndSwapUint32(&m.locked, 0, 1) {
		return false
	}
	atomic.StoreUint64(&m.owner, caller.PID)
	return true
}

// UnLock releases the mutex and wakes every task blocked on it
// (wake-all; losers re-block and retry the CAS). Fails if caller is not
// the current owner.
func (m *Mutex) UnLock(caller *Task) bool {
	if atomic.LoadUint64(&m.owner) != caller.PID {
		if m.log != nil {
			m.log.With(fieldsTask(caller.PID, 0)).Error("mutex unlocked by non-owner: " + m.Name)
		}
		return false
	}
	atomic.StoreUint64(&m.owner, noOwnerPID)
	atomic.StoreUint32(&m.locked, 0)
	m.manager.Wakeup(m.resource)
	return true
}

// IsLockedByCurrentTask reports whether task currently owns the mutex.
func (m *Mutex) IsLockedByCurrentTask(task *Task) bool {
	return atomic.LoadUint32(&m.locked) == 1 && atomic.LoadUint64(&m.owner) == task.PID
}

// Resource returns the mutex's ResourceId, exposed for tests and tracing.
func (m *Mutex) Resource() ResourceId { return m.resource }

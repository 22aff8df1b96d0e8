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
	"time"

	"github.com/cenkalti/backoff"

	"kernelcore/internal/klog"
)

// noOwner marks a Spinlock as currently unheld.
const noOwner = ^uint32(0)

// Spinlock is a test-and-set flag carrying the id of the owning (virtual)
// CPU and that CPU's saved interrupt-enable flag. It is non-recursive:
// acquiring a lock the caller's own CPU already holds fails rather than
// deadlocking. Acquire/Release report success so callers that cannot
// recurse into logging (the logger itself, in principle) can recover.
type Spinlock struct {
	locked    uint32 // 0 unlocked, 1 locked; CAS target
	owner     uint32 // noOwner when unlocked
	savedIntr uint32 // saved interrupt-enable flag of the owner

	log *klog.Logger
}

// NewSpinlock returns an unlocked spinlock. log may be nil.
func NewSpinlock(log *klog.Logger) *Spinlock {
	return &Spinlock{owner: noOwner, log: log}
}

// Acquire spins until the lock is taken, then records cpu as owner.
// intrWasEnabled is the caller's interrupt-enable state; Acquire only
// saves it, and Release returns it for the caller to restore. Acquire fails immediately (without
// spinning) if cpu already owns the lock.
func (s *Spinlock) Acquire(cpu uint32, intrWasEnabled bool) bool {
	if atomic.LoadUint32(&s.locked) == 1 && atomic.LoadUint32(&s.owner) == cpu {
		s.warn("recursive spinlock acquire", cpu)
		return false
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Microsecond
	b.MaxInterval = 200 * time.Microsecond
	b.MaxElapsedTime = 0 // spin indefinitely; this is a spinlock, not a timeout

	for !atomic.CompareAndSwapUint32(&s.locked, 0, 1) {
		time.Sleep(b.NextBackOff())
	}

	atomic.StoreUint32(&s.owner, cpu)
	flag := uint32(0)
	if intrWasEnabled {
		flag = 1
	}
	atomic.StoreUint32(&s.savedIntr, flag)
	return true
}

// Release verifies cpu owns the lock, clears it, and returns the
// interrupt-enable state that should be restored.
func (s *Spinlock) Release(cpu uint32) (wasEnabled bool, ok bool) {
	if atomic.LoadUint32(&s.owner) != cpu || atomic.LoadUint32(&s.locked) != 1 {
		s.warn("spinlock released by non-owner", cpu)
		return false, false
	}
	wasEnabled = atomic.LoadUint32(&s.savedIntr) == 1
	atomic.StoreUint32(&s.owner, noOwner)
	atomic.StoreUint32(&s.locked, 0)
	return wasEnabled, true
}

// IsLockedByCurrentCore reports whether cpu currently holds this lock.
func (s *Spinlock) IsLockedByCurrentCore(cpu uint32) bool {
	return atomic.LoadUint32(&s.locked) == 1 && atomic.LoadUint32(&s.owner) == cpu
}

func (s *Spinlock) warn(msg string, cpu uint32) {
	if s.log == nil {
		return
	}
	s.log.With(fieldsCPU(cpu)).Error(msg)
}

// LockGuard acquires a Spinlock on construction and releases it exactly
// once via Release, whichever code path returns. Use as:
//
//	g := AcquireGuard(lock, cpu, intrEnabled)
//	defer g.Release()
type LockGuard struct {
	lock     *Spinlock
	cpu      uint32
	held     bool
	released bool
}

// AcquireGuard acquires lock for cpu and returns a guard wrapping it.
// Release is a no-op if the underlying Acquire failed.
func AcquireGuard(lock *Spinlock, cpu uint32, intrWasEnabled bool) *LockGuard {
	ok := lock.Acquire(cpu, intrWasEnabled)
	return &LockGuard{lock: lock, cpu: cpu, held: ok}
}

// Release is idempotent: calling it more than once, or on a guard whose
// Acquire failed, is a safe no-op.
func (g *LockGuard) Release() {
	if !g.held || g.released {
		return
	}
	g.released = true
	g.lock.Release(g.cpu)
}

// Held reports whether the guard actually holds its lock.
func (g *LockGuard) Held() bool { return g.held }

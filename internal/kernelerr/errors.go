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

// Package kernelerr defines the sentinel error taxonomy returned by the
// kernel core. Callers compare against these with errors.Is rather than
// inspecting error strings.
package kernelerr

import (
	"errors"

	"golang.org/x/sys/unix"
)

var (
	// ErrInvalidArgument covers null pointers where not permitted, unknown
	// syscall numbers, and flag combinations that cannot be auto-corrected.
	ErrInvalidArgument = errors.New("kernelcore: invalid argument")

	// ErrOutOfMemory covers task table exhaustion, MPMC queue exhaustion,
	// and kernel stack allocation failure.
	ErrOutOfMemory = errors.New("kernelcore: out of memory")

	// ErrNoSuchProcess is returned when a Wait target does not exist as a
	// child of the caller.
	ErrNoSuchProcess = errors.New("kernelcore: no such process")

	// ErrWouldBlock marks an operation that would have to block. Mutex.TryLock
	// reports contention as false, and Wait with noHang and no reapable child
	// returns pid 0 with a nil error; neither returns this sentinel.
	ErrWouldBlock = errors.New("kernelcore: would block")

	// ErrPermissionDenied is currently reserved; all tasks share one
	// security domain.
	ErrPermissionDenied = errors.New("kernelcore: permission denied")

	// ErrFatal marks an assertion failure or corrupted kernel state. The
	// caller that observes this should halt the affected CPU loop.
	ErrFatal = errors.New("kernelcore: fatal kernel error")

	// ErrLockDiscipline marks a programmer error in spinlock or mutex
	// usage (recursive acquire, foreign release). Logged, never fatal.
	ErrLockDiscipline = errors.New("kernelcore: lock discipline violation")
)

// Errno maps a sentinel error to its negative-errno equivalent, for the
// syscall-return surface described in the external interfaces.
func Errno(err error) int64 {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidArgument):
		return -int64(unix.EINVAL)
	case errors.Is(err, ErrOutOfMemory):
		return -int64(unix.ENOMEM)
	case errors.Is(err, ErrNoSuchProcess):
		return -int64(unix.ESRCH)
	case errors.Is(err, ErrWouldBlock):
		return -int64(unix.EAGAIN)
	case errors.Is(err, ErrPermissionDenied):
		return -int64(unix.EPERM)
	default:
		return -int64(unix.EIO)
	}
}

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

import "fmt"

// ResourceType tags the high byte of a ResourceId.
type ResourceType uint8

// Resource types recognized by the blocking/wakeup registry.
const (
	ResourceNone ResourceType = iota
	ResourceMutex
	ResourceSemaphore
	ResourceCondVar
	ResourceChildExit
	ResourceIOComplete
	ResourceFutex
	ResourceSignal
	ResourceTimer
	ResourceInterrupt
)

func (t ResourceType) String() string {
	switch t {
	case ResourceNone:
		return "None"
	case ResourceMutex:
		return "Mutex"
	case ResourceSemaphore:
		return "Semaphore"
	case ResourceCondVar:
		return "CondVar"
	case ResourceChildExit:
		return "ChildExit"
	case ResourceIOComplete:
		return "IoComplete"
	case ResourceFutex:
		return "Futex"
	case ResourceSignal:
		return "Signal"
	case ResourceTimer:
		return "Timer"
	case ResourceInterrupt:
		return "Interrupt"
	default:
		return "Unknown"
	}
}

const (
	resourceTypeShift = 56
	resourceDataMask  = (uint64(1) << resourceTypeShift) - 1
)

// ResourceId is a 64-bit tagged handle identifying anything a task can
// block on: the high 8 bits carry the ResourceType, the low 56 bits carry
// type-specific data (an object address, a pid, an IRQ number). Equality
// and hashing are on the full 64-bit value; ordering is not defined.
type ResourceId uint64

// NoResource is the default ResourceId: type None, data zero. A task's
// blocked_on field equals NoResource exactly when it is not Blocked.
const NoResource ResourceId = 0

// NewResourceId packs a type and data value into a ResourceId. Data is
// truncated to 56 bits.
func NewResourceId(t ResourceType, data uint64) ResourceId {
	return ResourceId((uint64(t) << resourceTypeShift) | (data & resourceDataMask))
}

// Type returns the high-byte resource type.
func (r ResourceId) Type() ResourceType {
	return ResourceType(uint64(r) >> resourceTypeShift)
}

// Data returns the low 56 bits.
func (r ResourceId) Data() uint64 {
	return uint64(r) & resourceDataMask
}

// IsNone reports whether r is the default "not blocked" value.
func (r ResourceId) IsNone() bool {
	return r == NoResource
}

func (r ResourceId) String() string {
	return fmt.Sprintf("%s(%#x)", r.Type(), r.Data())
}

// ChildExitResource builds the well-known ResourceId a parent blocks on
// while waiting for any child of pid parentPID to exit.
func ChildExitResource(parentPID uint64) ResourceId {
	return NewResourceId(ResourceChildExit, parentPID)
}

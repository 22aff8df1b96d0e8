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
	"github.com/sirupsen/logrus"

	"kernelcore/internal/klog"
)

// TaskState is one of the seven states in the task lifecycle.
type TaskState uint8

// Task lifecycle states and their debugger/export wire values.
const (
	StateUnInit   TaskState = 0
	StateReady    TaskState = 1
	StateRunning  TaskState = 2
	StateSleeping TaskState = 3
	StateBlocked  TaskState = 4
	StateExited   TaskState = 5
	StateZombie   TaskState = 6
)

func (s TaskState) String() string {
	switch s {
	case StateUnInit:
		return "UnInit"
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateSleeping:
		return "Sleeping"
	case StateBlocked:
		return "Blocked"
	case StateExited:
		return "Exited"
	case StateZombie:
		return "Zombie"
	default:
		return "Unknown"
	}
}

// FSMEvent is one of the messages the Task Manager feeds into a task's
// FSM. The FSM itself is purely declarative: it only computes the next
// state. Side effects (enqueuing, dequeuing, freeing resources) are the
// Task Manager's responsibility.
type FSMEvent uint8

// Events a TaskFSM accepts.
const (
	EventSchedule FSMEvent = iota
	EventYield
	EventSleep
	EventBlock
	EventWakeup
	EventExit
	EventReap
)

func (e FSMEvent) String() string {
	switch e {
	case EventSchedule:
		return "Schedule"
	case EventYield:
		return "Yield"
	case EventSleep:
		return "Sleep"
	case EventBlock:
		return "Block"
	case EventWakeup:
		return "Wakeup"
	case EventExit:
		return "Exit"
	case EventReap:
		return "Reap"
	default:
		return "Unknown"
	}
}

// TaskFSM owns one task's lifecycle state. Each TCB embeds exactly one.
type TaskFSM struct {
	state TaskState
	log   *klog.Logger
}

// NewTaskFSM returns an FSM starting in StateUnInit.
func NewTaskFSM(log *klog.Logger) *TaskFSM {
	return &TaskFSM{state: StateUnInit, log: log}
}

// State returns the current state.
func (f *TaskFSM) State() TaskState {
	return f.state
}

// AttachLogger wires a logger into an FSM created without one (NewTask
// builds TCBs before a TaskManager, and thus a logger, is known).
func (f *TaskFSM) AttachLogger(log *klog.Logger) {
	f.log = log
}

// Fire applies event against the current state, returning the new state
// and whether the event was valid in the prior state. hasParent is only
// consulted for EventExit (Zombie if true, Exited if false). Unexpected
// events log a warning and leave the state unchanged, matching the "never
// crash" requirement on unhandled FSM transitions.
func (f *TaskFSM) Fire(event FSMEvent, hasParent bool) (TaskState, bool) {
	prev := f.state
	next, ok := f.next(event, hasParent)
	if !ok {
		if f.log != nil {
			f.log.With(logrus.Fields{
				"event": event.String(),
				"state": prev.String(),
			}).Warn("unhandled FSM event")
		}
		return prev, false
	}
	f.state = next
	return next, true
}

func (f *TaskFSM) next(event FSMEvent, hasParent bool) (TaskState, bool) {
	switch event {
	case EventSchedule:
		switch f.state {
		case StateUnInit:
			return StateReady, true
		case StateReady:
			return StateRunning, true
		}
	case EventYield:
		if f.state == StateRunning {
			return StateReady, true
		}
	case EventSleep:
		if f.state == StateRunning {
			return StateSleeping, true
		}
	case EventBlock:
		if f.state == StateRunning {
			return StateBlocked, true
		}
	case EventWakeup:
		if f.state == StateSleeping || f.state == StateBlocked {
			return StateReady, true
		}
	case EventExit:
		if f.state == StateRunning {
			if hasParent {
				return StateZombie, true
			}
			return StateExited, true
		}
	case EventReap:
		if f.state == StateZombie {
			return StateExited, true
		}
	}
	return f.state, false
}

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

import "sync"

// taskExec is the goroutine-per-task substitute for architecture-specific
// context-switch assembly (explicitly out of scope). A task that is ever
// actually run live (as opposed to being driven synchronously by a test
// that only inspects scheduling decisions) owns a dedicated goroutine
// parked on resume until the per-CPU loop (see manager.go's RunCPULoop)
// hands it control.
//
// A task gains control exactly once per resume signal and gives it back
// by sending itself on its CpuSchedData's Resched channel and then
// blocking on its own resume channel again — the same handoff Yield,
// Sleep, Block, and the cooperative preemption checkpoint all use.
type taskExec struct {
	resume chan struct{}

	startOnce sync.Once
	started   bool
}

func newTaskExec() *taskExec {
	return &taskExec{resume: make(chan struct{}, 1)}
}

// start launches the task's dedicated goroutine the first time it is
// ever scheduled live. Idempotent.
func (e *taskExec) start(t *Task) {
	e.startOnce.Do(func() {
		e.started = true
		go func() {
			<-e.resume
			if t.Entry != nil {
				t.Entry(t)
			}
			if s := t.State(); s != StateExited && s != StateZombie {
				t.Manager.Exit(t, 0)
			}
		}()
	})
}

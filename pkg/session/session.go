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

// Package session provides the start/stop wrapper the CLI front-end uses
// to bring up a kernel core instance: constructing the TaskManager and
// booting every configured CPU with its scheduling loop. It registers no
// interrupt threads.
package session

import (
	"fmt"
	"sync"

	"kernelcore/internal/kconfig"
	"kernelcore/internal/klog"
	"kernelcore/pkg/kernel"
)

// sessionState tracks a Session's lifecycle; unlike a Task's FSM this is
// not event-driven, just a three-state guard against double start/stop.
type sessionState int

const (
	stateCreated sessionState = iota
	stateRunning
	stateStopped
)

// Session owns one TaskManager and the per-CPU scheduling loops running
// against it. A Session is meant to run for the lifetime of the process:
// RunCPULoop never returns, so Stop only prevents further Start calls and
// new task submission, it does not unwind already-running CPU loops.
type Session struct {
	mu    sync.Mutex
	state sessionState

	Manager *kernel.TaskManager
	cfg     kconfig.Config
	log     *klog.Logger
}

// New constructs a Session with a fresh TaskManager, but does not boot
// any CPU yet — call Start for that.
func New(cfg kconfig.Config, log *klog.Logger) *Session {
	if log == nil {
		log = klog.New()
	}
	return &Session{
		Manager: kernel.NewTaskManager(cfg, log),
		cfg:     cfg,
		log:     log,
	}
}

// Start initializes every configured CPU and launches its scheduling
// loop in its own goroutine. Calling Start more than once is an error.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateCreated {
		return fmt.Errorf("session: Start called in state %d, want created", s.state)
	}
	for cpu := 0; cpu < s.cfg.CPUCount; cpu++ {
		s.Manager.InitCurrentCore(uint32(cpu))
	}
	for cpu := 0; cpu < s.cfg.CPUCount; cpu++ {
		go s.Manager.RunCPULoop(uint32(cpu))
	}
	s.state = stateRunning
	s.log.Info("session started")
	return nil
}

// Stop marks the session stopped, refusing further AddTask calls made
// through Spawn. It does not attempt to tear down the live CPU loops:
// like a real kernel's idle loops, they are meant to run until the
// process exits.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateRunning {
		return fmt.Errorf("session: Stop called in state %d, want running", s.state)
	}
	s.state = stateStopped
	s.log.Info("session stopped")
	return nil
}

// Spawn adds a new task to the session's kernel, rejecting the call once
// the session has been stopped.
func (s *Session) Spawn(task *kernel.Task) error {
	s.mu.Lock()
	stopped := s.state == stateStopped
	s.mu.Unlock()
	if stopped {
		return fmt.Errorf("session: cannot spawn task on a stopped session")
	}
	return s.Manager.AddTask(task)
}

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
	"kernelcore/internal/kconfig"
	"kernelcore/internal/klog"
)

func klogForTest() *klog.Logger {
	return klog.New()
}

// newTestManager returns a TaskManager with n initialized CPUs, ready
// for AddTask/Schedule/TickUpdate calls driven synchronously by tests
// (no task's goroutine is ever started unless the test calls
// task.exec.start itself).
func newTestManager(n int) *TaskManager {
	cfg := kconfig.Default()
	cfg.CPUCount = n
	cfg.TaskTableCapacity = 1024
	m := NewTaskManager(cfg, klogForTest())
	for i := 0; i < n; i++ {
		m.InitCurrentCore(uint32(i))
	}
	return m
}

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

// Package kconfig loads kernel tunables from an optional TOML file,
// applying compiled-in defaults for anything the file omits.
package kconfig

import (
	"github.com/BurntSushi/toml"
)

// Config carries the kernel's boot-time tunables.
type Config struct {
	// KernelStackSize is the per-task stack allocation hint, in bytes.
	// Not used to size goroutine stacks directly (Go manages those), but
	// exported for tracing/accounting parity with the original design.
	KernelStackSize int `toml:"kernel_stack_size"`

	// DefaultTimeSlice is the number of ticks a Normal-policy task runs
	// before round-robin preemption.
	DefaultTimeSlice int `toml:"default_time_slice"`

	// TaskTableCapacity bounds the number of live tasks.
	TaskTableCapacity int `toml:"task_table_capacity"`

	// CFSMinGranularity is the vruntime delta (in CFS units) the head of
	// the ready queue must lead the running task by before OnTick signals
	// preemption.
	CFSMinGranularity uint64 `toml:"cfs_min_granularity"`

	// InterruptQueueDepth is the configured per-IRQ MPMC work queue depth.
	// The interrupt dispatcher does not read it: RegisterInterruptThread
	// takes the depth as an argument and uses 256 for a non-positive one.
	InterruptQueueDepth int `toml:"interrupt_queue_depth"`

	// CPUCount is the number of virtual CPUs the kernel boots.
	CPUCount int `toml:"cpu_count"`
}

// Default returns the compiled-in tunables used when no config file is
// supplied, or as the base that a file's fields are decoded on top of.
func Default() Config {
	return Config{
		KernelStackSize:     16 * 1024,
		DefaultTimeSlice:    100,
		TaskTableCapacity:   128,
		CFSMinGranularity:   10,
		InterruptQueueDepth: 256,
		CPUCount:            1,
	}
}

// Load decodes path on top of Default(). An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

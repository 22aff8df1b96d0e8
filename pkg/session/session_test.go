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

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kernelcore/internal/kconfig"
	"kernelcore/pkg/kernel"
)

func testConfig(cpus int) kconfig.Config {
	cfg := kconfig.Default()
	cfg.CPUCount = cpus
	cfg.TaskTableCapacity = 1024
	return cfg
}

func TestStartBootsEveryConfiguredCPU(t *testing.T) {
	s := New(testConfig(2), nil)
	require.NoError(t, s.Start())

	assert.NotNil(t, s.Manager.CPU(0))
	assert.NotNil(t, s.Manager.CPU(1))
}

func TestStartTwiceReturnsError(t *testing.T) {
	s := New(testConfig(1), nil)
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
}

func TestStopBeforeStartReturnsError(t *testing.T) {
	s := New(testConfig(1), nil)
	assert.Error(t, s.Stop())
}

func TestStopTwiceReturnsError(t *testing.T) {
	s := New(testConfig(1), nil)
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
	assert.Error(t, s.Stop())
}

func TestSpawnAfterStopIsRejected(t *testing.T) {
	s := New(testConfig(1), nil)
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())

	err := s.Spawn(kernel.NewTask(0, 0, nil))
	assert.Error(t, err)
}

func TestSpawnBeforeStopEnqueuesTask(t *testing.T) {
	s := New(testConfig(1), nil)
	require.NoError(t, s.Start())

	task := kernel.NewTask(0, 0, nil)
	require.NoError(t, s.Spawn(task))
	assert.NotZero(t, task.PID)
}

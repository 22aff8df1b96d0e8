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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskFSMLifecycleHappyPath(t *testing.T) {
	f := NewTaskFSM(nil)
	require.Equal(t, StateUnInit, f.State())

	s, ok := f.Fire(EventSchedule, false)
	require.True(t, ok)
	assert.Equal(t, StateReady, s)

	s, ok = f.Fire(EventSchedule, false)
	require.True(t, ok)
	assert.Equal(t, StateRunning, s)

	s, ok = f.Fire(EventSleep, false)
	require.True(t, ok)
	assert.Equal(t, StateSleeping, s)

	s, ok = f.Fire(EventWakeup, false)
	require.True(t, ok)
	assert.Equal(t, StateReady, s)
}

func TestTaskFSMExitWithParentGoesZombie(t *testing.T) {
	f := NewTaskFSM(nil)
	f.Fire(EventSchedule, false)
	f.Fire(EventSchedule, false)

	s, ok := f.Fire(EventExit, true)
	require.True(t, ok)
	assert.Equal(t, StateZombie, s)

	s, ok = f.Fire(EventReap, false)
	require.True(t, ok)
	assert.Equal(t, StateExited, s)
}

func TestTaskFSMExitWithoutParentGoesExited(t *testing.T) {
	f := NewTaskFSM(nil)
	f.Fire(EventSchedule, false)
	f.Fire(EventSchedule, false)

	s, ok := f.Fire(EventExit, false)
	require.True(t, ok)
	assert.Equal(t, StateExited, s)
}

func TestTaskFSMBlockThenWakeup(t *testing.T) {
	f := NewTaskFSM(nil)
	f.Fire(EventSchedule, false)
	f.Fire(EventSchedule, false)

	s, ok := f.Fire(EventBlock, false)
	require.True(t, ok)
	assert.Equal(t, StateBlocked, s)

	s, ok = f.Fire(EventWakeup, false)
	require.True(t, ok)
	assert.Equal(t, StateReady, s)
}

func TestTaskFSMRejectsInvalidTransition(t *testing.T) {
	f := NewTaskFSM(nil)
	// Sleeping from UnInit is not a valid transition.
	s, ok := f.Fire(EventSleep, false)
	assert.False(t, ok)
	assert.Equal(t, StateUnInit, s)
}

func TestTaskFSMUnhandledEventLogsAndKeepsState(t *testing.T) {
	log := klogForTest()
	f := NewTaskFSM(log)
	f.Fire(EventBlock, false) // invalid from UnInit
	assert.Equal(t, StateUnInit, f.State())
}

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

func TestMutexTryLockAndUnlock(t *testing.T) {
	m := newTestManager(1)
	mu := NewMutex("test", m)
	caller := NewTask(0, 0, nil)
	require.NoError(t, m.AddTask(caller))

	assert.True(t, mu.TryLock(caller))
	assert.True(t, mu.IsLockedByCurrentTask(caller))
	assert.False(t, mu.TryLock(caller)) // non-reentrant: second TryLock fails

	assert.True(t, mu.UnLock(caller))
	assert.False(t, mu.IsLockedByCurrentTask(caller))
}

func TestMutexUnlockByNonOwnerFails(t *testing.T) {
	m := newTestManager(1)
	mu := NewMutex("test", m)
	owner := NewTask(0, 0, nil)
	other := NewTask(0, 0, nil)
	require.NoError(t, m.AddTask(owner))
	require.NoError(t, m.AddTask(other))

	require.True(t, mu.TryLock(owner))
	assert.False(t, mu.UnLock(other))
}

func TestMutexBlocksContenderUntilUnlocked(t *testing.T) {
	m := newTestManager(1)
	mu := NewMutex("test", m)
	owner := NewTask(0, 0, nil)
	waiter := NewTask(0, 0, nil)
	require.NoError(t, m.AddTask(owner))
	require.NoError(t, m.AddTask(waiter))

	require.True(t, mu.TryLock(owner))

	// Manually drive waiter into Blocked on the mutex's resource, as Lock
	// would via Block, without spawning a live goroutine.
	waiter.fsm.Fire(EventSchedule, false) // AddTask already did Ready; this is Ready -> Running
	rq := m.cpus[waiter.CPU]
	g := AcquireGuard(rq.Lock, waiter.CPU, true)
	waiter.fsm.Fire(EventBlock, false)
	waiter.BlockedOn = mu.Resource()
	rq.addBlocked(mu.Resource(), waiter)
	g.Release()

	assert.Equal(t, StateBlocked, waiter.State())

	require.True(t, mu.UnLock(owner))
	assert.Equal(t, StateReady, waiter.State())
}

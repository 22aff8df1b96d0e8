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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpinlockAcquireRelease(t *testing.T) {
	l := NewSpinlock(nil)
	ok := l.Acquire(0, true)
	require.True(t, ok)
	assert.True(t, l.IsLockedByCurrentCore(0))

	wasEnabled, ok := l.Release(0)
	require.True(t, ok)
	assert.True(t, wasEnabled)
	assert.False(t, l.IsLockedByCurrentCore(0))
}

func TestSpinlockRecursiveAcquireFails(t *testing.T) {
	l := NewSpinlock(nil)
	require.True(t, l.Acquire(1, true))
	assert.False(t, l.Acquire(1, true))
	l.Release(1)
}

func TestSpinlockReleaseByNonOwnerFails(t *testing.T) {
	l := NewSpinlock(nil)
	require.True(t, l.Acquire(0, true))
	_, ok := l.Release(1)
	assert.False(t, ok)
	l.Release(0)
}

func TestSpinlockSerializesConcurrentAcquirers(t *testing.T) {
	l := NewSpinlock(nil)
	var mu sync.Mutex
	counter := 0
	var wg sync.WaitGroup

	for cpu := uint32(0); cpu < 8; cpu++ {
		wg.Add(1)
		go func(cpu uint32) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Acquire(cpu, true)
				mu.Lock()
				counter++
				mu.Unlock()
				l.Release(cpu)
			}
		}(cpu)
	}
	wg.Wait()
	assert.Equal(t, 400, counter)
}

func TestLockGuardReleaseIsIdempotent(t *testing.T) {
	l := NewSpinlock(nil)
	g := AcquireGuard(l, 0, true)
	require.True(t, g.Held())
	g.Release()
	g.Release() // must not panic or double-unlock
	assert.False(t, l.IsLockedByCurrentCore(0))
}

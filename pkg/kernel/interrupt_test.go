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

func TestInterruptQueuePushDrainAndOverflow(t *testing.T) {
	q := newIRQQueue(2)
	assert.True(t, q.push(InterruptWork{Timestamp: 1}))
	assert.True(t, q.push(InterruptWork{Timestamp: 2}))
	assert.False(t, q.push(InterruptWork{Timestamp: 3})) // over capacity
	assert.Equal(t, uint64(1), q.Overflows)

	items := q.drain()
	require.Len(t, items, 2)
	assert.Equal(t, uint64(1), items[0].Timestamp)

	// Slots released by drain are reusable.
	assert.True(t, q.push(InterruptWork{Timestamp: 4}))
}

func TestInterruptDispatcherRegisterAndDispatch(t *testing.T) {
	m := newTestManager(1)
	thread := m.Interrupts.RegisterInterruptThread(7, 4)
	require.NotNil(t, thread)
	assert.True(t, thread.IsInterruptThread)
	assert.Equal(t, uint32(7), thread.IRQ)
	assert.Equal(t, PolicyRealTime, thread.Policy)

	handled := false
	ok := m.Interrupts.Dispatch(7, InterruptWork{
		Handler: func(InterruptWork) { handled = true },
	})
	assert.True(t, ok)

	// Dispatch pushes to the IRQ's queue and wakes its thread; the
	// thread's goroutine was never started in this synchronous test, so
	// drain the queue directly to confirm the work item was queued and
	// that its handler runs as the thread's Entry would run it.
	items := m.Interrupts.irqs[7].drain()
	require.Len(t, items, 1)
	items[0].Handler(items[0])
	assert.True(t, handled)
}

func TestInterruptDispatcherUnknownIRQReturnsFalse(t *testing.T) {
	m := newTestManager(1)
	ok := m.Interrupts.Dispatch(99, InterruptWork{})
	assert.False(t, ok)
}

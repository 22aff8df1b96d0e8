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

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFifoSchedulerOrdersByArrival(t *testing.T) {
	s := NewFifoScheduler()
	a := NewTask(1, 1, nil)
	b := NewTask(2, 2, nil)
	c := NewTask(3, 3, nil)

	s.Enqueue(a)
	s.Enqueue(b)
	s.Enqueue(c)
	require.Equal(t, 3, s.GetQueueSize())

	assert.Same(t, a, s.PickNext())
	assert.Same(t, b, s.PickNext())
	assert.Same(t, c, s.PickNext())
	assert.True(t, s.IsEmpty())
	assert.Nil(t, s.PickNext())
}

func TestFifoSchedulerDequeueRemovesFromMiddle(t *testing.T) {
	s := NewFifoScheduler()
	a := NewTask(1, 1, nil)
	b := NewTask(2, 2, nil)
	c := NewTask(3, 3, nil)
	s.Enqueue(a)
	s.Enqueue(b)
	s.Enqueue(c)

	s.Dequeue(b)
	assert.Equal(t, 2, s.GetQueueSize())
	assert.Same(t, a, s.PickNext())
	assert.Same(t, c, s.PickNext())
}

func TestFifoSchedulerNeverRequestsPreemption(t *testing.T) {
	s := NewFifoScheduler()
	task := NewTask(1, 1, nil)
	assert.False(t, s.OnTick(task))
}

func TestFifoSchedulerStatsCountEnqueuesAndPicks(t *testing.T) {
	s := NewFifoScheduler()
	task := NewTask(1, 1, nil)
	s.Enqueue(task)
	s.PickNext()
	want := SchedStats{Enqueues: 1, Picks: 1}
	if diff := cmp.Diff(want, s.Stats()); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}

	s.ResetStats()
	if diff := cmp.Diff(SchedStats{}, s.Stats()); diff != "" {
		t.Errorf("Stats() after reset mismatch (-want +got):\n%s", diff)
	}
}

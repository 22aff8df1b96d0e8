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

func TestCpuSchedDataSleepHeapOrdersByWakeTick(t *testing.T) {
	rq := NewCpuSchedData(0)
	a := NewTask(1, 1, nil)
	b := NewTask(2, 2, nil)
	c := NewTask(3, 3, nil)
	a.Sched.WakeTick = 30
	b.Sched.WakeTick = 10
	c.Sched.WakeTick = 20

	rq.pushSleep(a)
	rq.pushSleep(b)
	rq.pushSleep(c)

	due := rq.popDueSleepers(15)
	require.Len(t, due, 1)
	assert.Same(t, b, due[0])

	due = rq.popDueSleepers(25)
	require.Len(t, due, 1)
	assert.Same(t, c, due[0])

	due = rq.popDueSleepers(100)
	require.Len(t, due, 1)
	assert.Same(t, a, due[0])
}

func TestCpuSchedDataBlockedBuckets(t *testing.T) {
	rq := NewCpuSchedData(0)
	resource := NewResourceId(ResourceMutex, 1)
	a := NewTask(1, 1, nil)
	b := NewTask(2, 2, nil)

	rq.addBlocked(resource, a)
	rq.addBlocked(resource, b)

	drained := rq.drainBlocked(resource)
	require.Len(t, drained, 2)
	assert.Empty(t, rq.drainBlocked(resource))
}

func TestCpuSchedDataPoliciesAreAllNonNil(t *testing.T) {
	rq := NewCpuSchedData(0)
	assert.NotNil(t, rq.Scheduler(PolicyRealTime))
	assert.NotNil(t, rq.Scheduler(PolicyNormal))
	assert.NotNil(t, rq.Scheduler(PolicyIdle))
}

func TestCpuSchedDataReadyCountExcludesIdle(t *testing.T) {
	rq := NewCpuSchedData(0)
	rq.Scheduler(PolicyRealTime).Enqueue(NewTask(1, 1, nil))
	rq.Scheduler(PolicyNormal).Enqueue(NewTask(2, 2, nil))
	rq.Scheduler(PolicyIdle).Enqueue(NewTask(3, 3, nil))
	assert.Equal(t, 2, rq.ReadyCount())
}

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
)

func TestRoundRobinSchedulerResetsTimeSliceOnEnqueue(t *testing.T) {
	s := NewRoundRobinScheduler()
	task := NewTask(1, 1, nil)
	task.Sched.TimeSliceDefault = 5
	task.Sched.TimeSliceRemain = 0

	s.Enqueue(task)
	assert.Equal(t, 5, task.Sched.TimeSliceRemain)
}

func TestRoundRobinSchedulerRotatesFairly(t *testing.T) {
	s := NewRoundRobinScheduler()
	a := NewTask(1, 1, nil)
	b := NewTask(2, 2, nil)
	s.Enqueue(a)
	s.Enqueue(b)

	first := s.PickNext()
	s.Enqueue(first)
	second := s.PickNext()
	assert.NotSame(t, first, second)
}

func TestRoundRobinSchedulerDoesNotSelfPreemptOnTick(t *testing.T) {
	s := NewRoundRobinScheduler()
	task := NewTask(1, 1, nil)
	assert.False(t, s.OnTick(task))
	assert.True(t, s.OnTimeSliceExpired(task))
}

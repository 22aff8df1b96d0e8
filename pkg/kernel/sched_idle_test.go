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

func TestIdleSchedulerNeverDrainsItsSlot(t *testing.T) {
	s := NewIdleScheduler()
	assert.True(t, s.IsEmpty())

	idle := NewTask(1, 1, nil)
	s.Enqueue(idle)
	assert.Equal(t, 1, s.GetQueueSize())

	for i := 0; i < 5; i++ {
		assert.Same(t, idle, s.PickNext())
	}
	assert.Equal(t, 1, s.GetQueueSize())
}

func TestIdleSchedulerDequeueClearsOnlyMatchingTask(t *testing.T) {
	s := NewIdleScheduler()
	idle := NewTask(1, 1, nil)
	other := NewTask(2, 2, nil)
	s.Enqueue(idle)

	s.Dequeue(other)
	assert.False(t, s.IsEmpty())

	s.Dequeue(idle)
	assert.True(t, s.IsEmpty())
	assert.Nil(t, s.PickNext())
}

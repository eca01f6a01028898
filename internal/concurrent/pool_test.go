// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package concurrent

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// S1: bounded workers, all callbacks run, wall time reflects the
// max=2 concurrency bound.
func TestPool_BoundedWorkers(t *testing.T) {
	pool := NewPool("s1")
	assert.NoError(t, pool.SetMaxThreads(2))

	var ran int32
	start := time.Now()

	objs := make([]*Object, 0, 10)
	for i := 0; i < 10; i++ {
		obj, err := NewWork(pool, func(_ *Instance, _ any, _ any) {
			atomic.AddInt32(&ran, 1)
			time.Sleep(100 * time.Millisecond)
		}, nil, nil)
		assert.NoError(t, err)
		assert.NoError(t, obj.Submit())
		objs = append(objs, obj)
	}

	for _, obj := range objs {
		obj.Wait(false)
	}

	elapsed := time.Since(start)
	assert.Equal(t, int32(10), atomic.LoadInt32(&ran))
	assert.True(t, elapsed >= 400*time.Millisecond, "elapsed=%s", elapsed)

	workers, _ := pool.WorkerCounts()
	assert.LessOrEqual(t, workers, 2)

	for _, obj := range objs {
		obj.Release()
	}
	pool.Release()
}

// Property 7: while a High-priority Object is queued, no Normal/Low
// callback starts on that Pool.
func TestPool_PriorityOrdering(t *testing.T) {
	pool := NewPool("priority")
	assert.NoError(t, pool.SetMaxThreads(1))

	var order []int
	done := make(chan struct{})
	block := make(chan struct{})

	first, _ := NewWork(pool, func(_ *Instance, _ any, _ any) {
		<-block
	}, nil, nil)
	assert.NoError(t, first.Submit())

	time.Sleep(20 * time.Millisecond) // let the first callback claim the worker

	lowObj, _ := NewWork(pool, func(_ *Instance, _ any, _ any) {
		order = append(order, 3)
	}, nil, &Environ{Version: 3, Priority: PriorityLow})
	normalObj, _ := NewWork(pool, func(_ *Instance, _ any, _ any) {
		order = append(order, 2)
	}, nil, &Environ{Version: 3, Priority: PriorityNormal})
	highObj, _ := NewWork(pool, func(_ *Instance, _ any, _ any) {
		order = append(order, 1)
		close(done)
	}, nil, &Environ{Version: 3, Priority: PriorityHigh})

	assert.NoError(t, lowObj.Submit())
	assert.NoError(t, normalObj.Submit())
	assert.NoError(t, highObj.Submit())

	close(block)
	<-done

	lowObj.Wait(false)
	normalObj.Wait(false)
	highObj.Wait(false)

	assert.Equal(t, []int{1, 2, 3}, order)

	first.Release()
	lowObj.Release()
	normalObj.Release()
	highObj.Release()
	pool.Release()
}

func TestPool_SetMinThreads(t *testing.T) {
	pool := NewPool("min")
	assert.True(t, pool.SetMinThreads(3))
	workers, _ := pool.WorkerCounts()
	assert.Equal(t, 3, workers)
	pool.Release()
}

func TestPool_SetMaxThreadsRejectsZero(t *testing.T) {
	pool := NewPool("invalid")
	assert.ErrorIs(t, pool.SetMaxThreads(0), ErrInvalidParameter)
	pool.Release()
}

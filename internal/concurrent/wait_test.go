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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// S3: one-shot Wait on event E with a 1s timeout; E signals at 200ms.
func TestWait_SignalBeforeTimeout(t *testing.T) {
	pool := NewPool("wait-s3")
	ev, err := NewEvent()
	assert.NoError(t, err)
	defer ev.Close()

	var invocations int32
	var lastResult WaitResult

	obj, err := NewWait(pool, func(_ *Instance, _ any, result any) {
		atomic.AddInt32(&invocations, 1)
		lastResult = result.(WaitResult)
	}, nil, nil, WaitFlagExecuteOnlyOnce)
	assert.NoError(t, err)

	_, err = obj.SetWait(ev, true, -1*int64(time.Second/100))
	assert.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	assert.NoError(t, ev.Set())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&invocations))
	assert.True(t, lastResult.Signaled)

	// Signalling again after the Wait already fired and detached has
	// no observable effect.
	assert.NoError(t, ev.Set())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&invocations))

	// No timeout callback after the original 1s deadline passes.
	time.Sleep(800 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&invocations))

	obj.Release()
	pool.Release()
}

// S6: pushing membership past two bucket's worth of capacity forces a
// third bucket to appear; releasing two thirds of the membership lets
// consolidation collapse it back down.
func TestWait_BucketSplitAndMerge(t *testing.T) {
	pool := NewPool("wait-s6")
	const total = 2*maxWaitQueueObjects + 5

	type member struct {
		obj *Object
		ev  Event
	}
	members := make([]member, 0, total)
	var fired sync.Map

	for i := 0; i < total; i++ {
		ev, err := NewEvent()
		assert.NoError(t, err)

		obj, err := NewWait(pool, func(_ *Instance, userData any, _ any) {
			fired.Store(userData, true)
		}, i, nil)
		assert.NoError(t, err)

		_, err = obj.SetWait(ev, false, 0)
		assert.NoError(t, err)

		members = append(members, member{obj: obj, ev: ev})
	}

	q := globalWaitQueue()
	q.mu.Lock()
	bucketsAfterFill := len(q.buckets)
	q.mu.Unlock()
	assert.Equal(t, 3, bucketsAfterFill, "expected 3 buckets after filling %d waits", total)

	releaseCount := (total * 2) / 3
	for i := 0; i < releaseCount; i++ {
		members[i].obj.CancelWait()
	}

	time.Sleep(50 * time.Millisecond)

	q.mu.Lock()
	bucketsAfterDrain := len(q.buckets)
	q.mu.Unlock()
	assert.True(t, bucketsAfterDrain == 1 || bucketsAfterDrain == 2,
		"expected consolidation to 1 or 2 buckets, got %d", bucketsAfterDrain)

	// Every surviving member still fires on signal.
	for i := releaseCount; i < total; i++ {
		assert.NoError(t, members[i].ev.Set())
	}
	time.Sleep(100 * time.Millisecond)
	for i := releaseCount; i < total; i++ {
		_, ok := fired.Load(i)
		assert.True(t, ok, "surviving wait %d never fired", i)
	}
	for i := 0; i < total; i++ {
		members[i].obj.Release()
		_ = members[i].ev.Close()
	}

	pool.Release()
}

func TestWait_Timeout(t *testing.T) {
	pool := NewPool("wait-timeout")
	ev, err := NewEvent()
	assert.NoError(t, err)
	defer ev.Close()

	var result WaitResult
	done := make(chan struct{})

	obj, err := NewWait(pool, func(_ *Instance, _ any, r any) {
		result = r.(WaitResult)
		close(done)
	}, nil, nil)
	assert.NoError(t, err)

	_, err = obj.SetWait(ev, true, -1*int64(100*time.Millisecond/100))
	assert.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for wait-timeout callback")
	}
	assert.False(t, result.Signaled)

	obj.Release()
	pool.Release()
}

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

package threadpool

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWork_PostRunsCallback(t *testing.T) {
	pool := NewPool("public-work")
	defer pool.Release()
	env := &Environ{Pool: pool}

	var ran int32
	w, err := NewWork(func(_ *Instance, _ any, _ any) {
		atomic.StoreInt32(&ran, 1)
	}, nil, env)
	assert.NoError(t, err)
	defer w.Release()

	assert.NoError(t, w.Post())
	w.Wait(false)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestTimer_OneShotFires(t *testing.T) {
	pool := NewPool("public-timer")
	defer pool.Release()
	env := &Environ{Pool: pool}

	var ran int32
	tm, err := NewTimer(func(_ *Instance, _ any, _ any) {
		atomic.StoreInt32(&ran, 1)
	}, nil, env)
	assert.NoError(t, err)
	defer tm.Release()

	replaced, err := tm.Set(-1_000_000, 0)
	assert.NoError(t, err)
	assert.False(t, replaced)
	assert.True(t, tm.IsSet())

	tm.Wait(false)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestWait_FiresOnEventSet(t *testing.T) {
	pool := NewPool("public-wait")
	defer pool.Release()
	env := &Environ{Pool: pool}

	ev, err := NewEvent()
	assert.NoError(t, err)

	done := make(chan WaitResult, 1)
	w, err := NewWait(func(_ *Instance, _ any, result any) {
		done <- result.(WaitResult)
	}, nil, env, WaitFlagExecuteOnlyOnce)
	assert.NoError(t, err)
	defer w.Release()

	_, err = w.Set(ev)
	assert.NoError(t, err)
	assert.NoError(t, ev.Set())

	select {
	case r := <-done:
		assert.True(t, r.Signaled)
	case <-time.After(time.Second):
		t.Fatal("wait callback never fired")
	}
	w.Wait(false)
}

func TestIO_CompletionDispatches(t *testing.T) {
	pool := NewPool("public-io")
	defer pool.Release()
	env := &Environ{Pool: pool}

	r, w2, err := os.Pipe()
	assert.NoError(t, err)
	defer r.Close()
	defer w2.Close()

	done := make(chan Completion, 1)
	io, err := NewIO(int(r.Fd()), func(_ *Instance, _ any, result any) {
		done <- result.(Completion)
	}, nil, env)
	assert.NoError(t, err)
	defer io.Release()

	io.StartAsyncIO()
	assert.NoError(t, io.PostCompletion(128))

	select {
	case c := <-done:
		assert.Equal(t, 128, c.Bytes)
	case <-time.After(time.Second):
		t.Fatal("io callback never fired")
	}
	io.Wait(false)
}

func TestCleanupGroup_ReleaseMembersWaitsForAll(t *testing.T) {
	group := NewCleanupGroup()
	defer group.Release()

	pool := NewPool("public-group")
	defer pool.Release()
	env := &Environ{Pool: pool, Group: group}

	const n = 5
	var completed int32
	for i := 0; i < n; i++ {
		w, err := NewWork(func(_ *Instance, _ any, _ any) {
			atomic.AddInt32(&completed, 1)
		}, nil, env)
		assert.NoError(t, err)
		assert.NoError(t, w.Post())
		w.Release()
	}
	assert.Equal(t, n, group.MemberCount())

	group.ReleaseMembers(false, nil)
	assert.Equal(t, int32(n), atomic.LoadInt32(&completed))
}

func TestListPoolsAndLookupPool(t *testing.T) {
	pool := NewPool("public-registry")
	defer pool.Release()

	found, ok := LookupPool("public-registry")
	assert.True(t, ok)
	assert.Equal(t, "public-registry", found.Name())

	var names []string
	for _, p := range ListPools() {
		names = append(names, p.Name())
	}
	assert.Contains(t, names, "public-registry")
}

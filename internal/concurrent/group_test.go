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

// S4: a group of 3 Works and 1 Timer, released with cancel_pending.
func TestGroup_ReleaseMembersCancelPending(t *testing.T) {
	pool := NewPool("group-s4")
	assert.NoError(t, pool.SetMaxThreads(1))
	group := NewGroup()

	var cancelled int32
	var cancelCtxs sync.Map

	env := func() *Environ {
		return &Environ{
			Pool:  pool,
			Group: group,
			GroupCancelCallback: func(objectCtx, groupCtx any) {
				atomic.AddInt32(&cancelled, 1)
				cancelCtxs.Store(objectCtx, groupCtx)
			},
		}
	}

	var objs []*Object
	for i := 0; i < 3; i++ {
		i := i
		obj, err := NewWork(pool, func(_ *Instance, userData any, _ any) {
			time.Sleep(50 * time.Millisecond)
			_ = userData
		}, i, env())
		assert.NoError(t, err)
		objs = append(objs, obj)
	}
	timerObj, err := NewTimer(pool, func(_ *Instance, _ any, _ any) {}, nil, env())
	assert.NoError(t, err)
	objs = append(objs, timerObj)
	_, err = timerObj.SetTimer(-10*10000*1000, 0, 0)
	assert.NoError(t, err)

	assert.Equal(t, 4, group.MemberCount())

	// Submit the Works before release so there is something to cancel;
	// with only one worker, at most one starts running before release
	// requests cancellation of the rest.
	for _, obj := range objs[:3] {
		assert.NoError(t, obj.Submit())
	}

	group.ReleaseMembers(true, 42)

	for _, obj := range objs {
		assert.True(t, obj.IsFinished(true))
	}

	cancelCtxs.Range(func(key, value any) bool {
		assert.Equal(t, 42, value)
		return true
	})

	for _, obj := range objs {
		obj.Release()
	}
	pool.Release()
}

func TestGroup_MemberCount(t *testing.T) {
	group := NewGroup()
	assert.Equal(t, 0, group.MemberCount())

	pool := NewPool("group-count")
	obj, err := NewWork(pool, func(_ *Instance, _ any, _ any) {}, nil, &Environ{Pool: pool, Group: group})
	assert.NoError(t, err)
	assert.Equal(t, 1, group.MemberCount())

	obj.Release()
	assert.Equal(t, 0, group.MemberCount())

	group.Release()
	pool.Release()
}

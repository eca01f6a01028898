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

const hundredNanosPerMilli = 10000

// S2: timeout=50ms, period=100ms; cancel at 350ms; expect 3 or 4 invocations.
func TestTimer_PeriodicCancel(t *testing.T) {
	pool := NewPool("timer-s2")
	var fires int32

	obj, err := NewTimer(pool, func(_ *Instance, _ any, _ any) {
		atomic.AddInt32(&fires, 1)
	}, nil, nil)
	assert.NoError(t, err)

	_, err = obj.SetTimer(-50*hundredNanosPerMilli, 100, 0)
	assert.NoError(t, err)

	time.Sleep(350 * time.Millisecond)
	obj.CancelTimer()
	time.Sleep(150 * time.Millisecond) // drain any in-flight dispatch

	n := atomic.LoadInt32(&fires)
	assert.True(t, n == 3 || n == 4, "fires=%d", n)

	obj.Release()
	pool.Release()
}

// Property 6: if timer A's expiry <= timer B's, A fires first.
func TestTimer_OrderingByExpiry(t *testing.T) {
	pool := NewPool("timer-order")

	var mu sync.Mutex
	var order []string

	a, err := NewTimer(pool, func(_ *Instance, _ any, _ any) {
		mu.Lock()
		order = append(order, "A")
		mu.Unlock()
	}, nil, nil)
	assert.NoError(t, err)
	b, err := NewTimer(pool, func(_ *Instance, _ any, _ any) {
		mu.Lock()
		order = append(order, "B")
		mu.Unlock()
	}, nil, nil)
	assert.NoError(t, err)

	_, err = b.SetTimer(-80*hundredNanosPerMilli, 0, 0)
	assert.NoError(t, err)
	_, err = a.SetTimer(-20*hundredNanosPerMilli, 0, 0)
	assert.NoError(t, err)

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"A", "B"}, order)

	a.Release()
	b.Release()
	pool.Release()
}

func TestTimer_IsSet(t *testing.T) {
	pool := NewPool("timer-isset")
	obj, err := NewTimer(pool, func(_ *Instance, _ any, _ any) {}, nil, nil)
	assert.NoError(t, err)
	assert.False(t, obj.IsSet())

	_, err = obj.SetTimer(-5*hundredNanosPerMilli*1000, 0, 0)
	assert.NoError(t, err)
	assert.True(t, obj.IsSet())

	obj.CancelTimer()
	assert.False(t, obj.IsSet())

	obj.Release()
	pool.Release()
}

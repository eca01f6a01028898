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

func TestInstance_MayRunLongPromotesWorker(t *testing.T) {
	pool := NewPool("instance-promote")
	assert.NoError(t, pool.SetMaxThreads(2))

	done := make(chan error, 1)
	obj, err := NewWork(pool, func(inst *Instance, _ any, _ any) {
		done <- inst.MayRunLong()
	}, nil, nil)
	assert.NoError(t, err)
	assert.NoError(t, obj.Submit())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("callback never ran")
	}

	workers, _ := pool.WorkerCounts()
	assert.Equal(t, 2, workers)

	obj.Release()
	pool.Release()
}

func TestInstance_MayRunLongSaturated(t *testing.T) {
	pool := NewPool("instance-saturated")
	assert.NoError(t, pool.SetMaxThreads(1))

	done := make(chan error, 1)
	obj, err := NewWork(pool, func(inst *Instance, _ any, _ any) {
		done <- inst.MayRunLong()
	}, nil, nil)
	assert.NoError(t, err)
	assert.NoError(t, obj.Submit())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrTooManyThreads)
	case <-time.After(time.Second):
		t.Fatal("callback never ran")
	}

	obj.Release()
	pool.Release()
}

func TestInstance_MayRunLongIdempotent(t *testing.T) {
	pool := NewPool("instance-idempotent")
	assert.NoError(t, pool.SetMaxThreads(2))

	done := make(chan struct{})
	obj, err := NewWork(pool, func(inst *Instance, _ any, _ any) {
		first := inst.MayRunLong()
		second := inst.MayRunLong()
		assert.NoError(t, first)
		assert.NoError(t, second, "a second call after promotion must be a no-op, not re-evaluate capacity")
		close(done)
	}, nil, nil)
	assert.NoError(t, err)
	assert.NoError(t, obj.Submit())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never ran")
	}

	obj.Release()
	pool.Release()
}

// Disassociating lets a non-group Wait observe the Object as finished
// while its callback is still running.
func TestInstance_DisassociateEarlyFinish(t *testing.T) {
	pool := NewPool("instance-disassociate")

	var stillRunning int32
	atomic.StoreInt32(&stillRunning, 1)

	obj, err := NewWork(pool, func(inst *Instance, _ any, _ any) {
		inst.Disassociate()
		time.Sleep(300 * time.Millisecond)
		atomic.StoreInt32(&stillRunning, 0)
	}, nil, nil)
	assert.NoError(t, err)
	assert.NoError(t, obj.Submit())

	waitReturned := make(chan struct{})
	go func() {
		obj.Wait(false)
		close(waitReturned)
	}()

	select {
	case <-waitReturned:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Disassociate")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&stillRunning), "callback should still be sleeping when Wait returns")

	time.Sleep(400 * time.Millisecond)
	obj.Release()
	pool.Release()
}

type recordingLocker struct {
	name  string
	order *[]string
	mu    *sync.Mutex
}

func (r recordingLocker) Lock() {}
func (r recordingLocker) Unlock() {
	r.mu.Lock()
	*r.order = append(*r.order, r.name)
	r.mu.Unlock()
}

type recordingEvent struct {
	name  string
	order *[]string
	mu    *sync.Mutex
}

func (r recordingEvent) FD() int    { return -1 }
func (r recordingEvent) Close() error { return nil }
func (r recordingEvent) Reset() error { return nil }
func (r recordingEvent) Set() error {
	r.mu.Lock()
	*r.order = append(*r.order, r.name)
	r.mu.Unlock()
	return nil
}

type recordingCloser struct {
	name  string
	order *[]string
	mu    *sync.Mutex
}

func (r recordingCloser) Close() error {
	r.mu.Lock()
	*r.order = append(*r.order, r.name)
	r.mu.Unlock()
	return nil
}

// The five named cleanup variants, plus a general one, run in
// registration order after the callback returns.
func TestInstance_CleanupsRunInRegistrationOrder(t *testing.T) {
	pool := NewPool("instance-cleanup-order")

	var mu sync.Mutex
	var order []string
	sem := make(chan struct{}, 2)

	obj, err := NewWork(pool, func(inst *Instance, _ any, _ any) {
		inst.LeaveCriticalSectionWhenCallbackReturns(recordingLocker{name: "cs", order: &order, mu: &mu})
		inst.ReleaseMutexWhenCallbackReturns(recordingLocker{name: "mutex", order: &order, mu: &mu})
		inst.ReleaseSemaphoreWhenCallbackReturns(sem, 2)
		inst.SetEventWhenCallbackReturns(recordingEvent{name: "event", order: &order, mu: &mu})
		inst.FreeLibraryWhenCallbackReturns(recordingCloser{name: "library", order: &order, mu: &mu})
		inst.RegisterCleanup(func() error {
			mu.Lock()
			order = append(order, "custom")
			mu.Unlock()
			return nil
		})
	}, nil, nil)
	assert.NoError(t, err)
	assert.NoError(t, obj.Submit())
	obj.Wait(false)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"cs", "mutex", "event", "library", "custom"}, order)
	assert.Len(t, sem, 2)

	obj.Release()
	pool.Release()
}

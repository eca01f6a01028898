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
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	jump "github.com/lithammer/go-jump-consistent-hash"
	"go.uber.org/atomic"

	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/threadpool/internal/linmetric"
	"github.com/lindb/threadpool/pkg/timeutil"
)

// maxWaitQueueObjects bounds how many Waitables one bucket multiplexes,
// mirroring the original's MAXIMUM_WAITQUEUE_OBJECTS; one extra slot
// (index 0) is reserved for the bucket's own wake event.
const maxWaitQueueObjects = 63

// WaitResult is the outcome a Wait Object's callback observes
// (spec.md §4.5 "wait outcome").
type WaitResult struct {
	// Signaled is true if the awaited Waitable fired before the
	// timeout; false if the wait timed out.
	Signaled bool
}

// WaitFlags selects a Wait Object's dispatch behaviour at allocation
// time (spec.md §3 "flags"). The zero value is the default: the Wait
// stays armed after firing (auto-rearm) and dispatches through the
// Pool like any other Object.
type WaitFlags uint8

const (
	// WaitFlagExecuteOnlyOnce disarms the Wait after it fires once,
	// moving it to a "reserved", no-longer-multiplexed state instead
	// of leaving it registered for further signals.
	WaitFlagExecuteOnlyOnce WaitFlags = 1 << iota
	// WaitFlagExecuteInWaitThread runs the callback synchronously on
	// the bucket's own goroutine instead of submitting it to the Pool,
	// blocking that bucket's dispatch until the callback returns.
	WaitFlagExecuteInWaitThread
	// WaitFlagExecuteInIOThread is WaitFlagExecuteInWaitThread's
	// counterpart for waits registered alongside I/O completions; this
	// runtime has one bucket goroutine per wait bucket rather than a
	// separate I/O thread, so it is treated identically to
	// WaitFlagExecuteInWaitThread.
	WaitFlagExecuteInIOThread
	// WaitFlagAlertable is recognised but unimplemented, matching
	// Environ.ActivationContext's treatment: there is no host-thread
	// alertable-wait-state concept for this runtime's goroutine-backed
	// buckets to hook into.
	WaitFlagAlertable
)

// waitState is a Wait Object's kind-specific state.
type waitState struct {
	callback   Callback
	waitable   Waitable
	hasTimeout bool
	deadline   int64 // absolute 100-ns ticks, valid iff hasTimeout
	flags      WaitFlags

	signaled int

	bucket *waitBucket
	slot   int

	result WaitResult
}

func (w *waitState) consumeResult() any {
	return w.result
}

// waitBucket is one goroutine multiplexing up to maxWaitQueueObjects-1
// Wait Objects' Waitables through a MultiWaiter, plus a wake event used
// to interrupt it when membership or deadlines change (spec.md §4.5
// "bucket").
type waitBucket struct {
	id int

	mu      sync.Mutex
	members []*Object // nil slots are free
	count   int

	wake    Event
	waiter  MultiWaiter
	closed  atomic.Bool
	started bool

	parent *waitQueue
}

// waitQueue is the singleton wait service: a set of buckets, split as
// membership grows past capacity and merged back together as it
// drains (spec.md §4.5 "bucket splitting and merging").
type waitQueue struct {
	mu      sync.Mutex
	buckets []*waitBucket
	nextID  int

	stats  *linmetric.WaitStatistics
	logger logger.Logger
}

var (
	waitQueueOnce sync.Once
	waitQueueInst *waitQueue
)

// globalWaitQueue returns the lazily-initialised process-wide wait service.
func globalWaitQueue() *waitQueue {
	waitQueueOnce.Do(func() {
		waitQueueInst = &waitQueue{
			stats:  linmetric.NewWaitStatistics(),
			logger: logger.GetLogger("Concurrent", "Wait"),
		}
	})
	return waitQueueInst
}

// set registers obj to be signaled when waitable fires, or when
// deadline (absolute 100-ns ticks) elapses if hasTimeout. A negative
// deadline is resolved relative to now, matching Timer's convention
// (spec.md §4.5 "set_wait").
func (q *waitQueue) set(obj *Object, waitable Waitable, hasTimeout bool, deadline int64) (wasReplaced bool, err error) {
	if hasTimeout {
		deadline = timeutil.ResolveTimeout(deadline, timeutil.Now())
	}

	if obj.wait.bucket != nil {
		q.unlock(obj)
		wasReplaced = true
	}

	obj.wait.waitable = waitable
	obj.wait.hasTimeout = hasTimeout
	obj.wait.deadline = deadline
	obj.updateSerial.Inc()

	b, slot, aerr := q.assign(obj)
	if aerr != nil {
		return wasReplaced, aerr
	}
	obj.wait.bucket = b
	obj.wait.slot = slot
	return wasReplaced, nil
}

// assign places obj into a bucket with spare capacity, preferring the
// bucket a jump-consistent hash of its ID selects and probing forward
// through the rest when that one is full, creating a new bucket only
// when every existing one is saturated.
func (q *waitQueue) assign(obj *Object) (*waitBucket, int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.buckets)
	if n > 0 {
		start := int(jump.Hash(xxhash.Sum64String(obj.ID), int32(n)))
		for i := 0; i < n; i++ {
			b := q.buckets[(start+i)%n]
			if slot, ok := b.tryAdd(obj); ok {
				return b, slot, nil
			}
		}
	}

	b, err := q.newBucketLocked()
	if err != nil {
		return nil, 0, err
	}
	slot, ok := b.tryAdd(obj)
	if !ok {
		return nil, 0, ErrServiceAttach
	}
	return b, slot, nil
}

func (q *waitQueue) newBucketLocked() (*waitBucket, error) {
	wake, err := NewEvent()
	if err != nil {
		return nil, ErrServiceAttach
	}
	b := &waitBucket{
		id:      q.nextID,
		members: make([]*Object, maxWaitQueueObjects-1),
		wake:    wake,
		waiter:  NewMultiWaiter(),
		parent:  q,
	}
	q.nextID++
	q.buckets = append(q.buckets, b)
	q.stats.BucketsLive.Inc()
	return b, nil
}

// unlock detaches obj from its bucket, used by cancel and
// prepare_shutdown (spec.md §4.1, §4.5).
func (q *waitQueue) unlock(obj *Object) {
	b := obj.wait.bucket
	if b == nil {
		return
	}
	b.remove(obj)
	obj.wait.bucket = nil
	q.considerMerge(b)
}

// considerMerge folds a bucket whose membership has fallen below a
// third of capacity into another bucket with room, once it can absorb
// the donor without exceeding two thirds of capacity itself — the
// same 1/3-drain, 2/3-ceiling thresholds the original bucket
// consolidation logic uses to avoid thrashing near the boundary.
func (q *waitQueue) considerMerge(donor *waitBucket) {
	const (
		lowWatermark  = maxWaitQueueObjects / 3
		highWatermark = 2 * maxWaitQueueObjects / 3
	)

	donor.mu.Lock()
	donorCount := donor.count
	donor.mu.Unlock()

	if donorCount == 0 || donorCount >= lowWatermark {
		return
	}

	q.mu.Lock()
	var target *waitBucket
	for _, b := range q.buckets {
		if b == donor {
			continue
		}
		b.mu.Lock()
		room := b.count+donorCount <= highWatermark && !b.closed.Load()
		b.mu.Unlock()
		if room {
			target = b
			break
		}
	}
	if target == nil {
		q.mu.Unlock()
		return
	}
	q.removeBucketLocked(donor)
	q.mu.Unlock()

	donor.closed.Store(true)
	_ = donor.wake.Set()

	donor.mu.Lock()
	members := donor.members
	donor.mu.Unlock()

	for _, obj := range members {
		if obj == nil {
			continue
		}
		if slot, ok := target.tryAdd(obj); ok {
			obj.wait.bucket = target
			obj.wait.slot = slot
		}
	}
	q.stats.BucketsMerged.Inc()
}

func (q *waitQueue) removeBucketLocked(b *waitBucket) {
	for i, other := range q.buckets {
		if other == b {
			q.buckets = append(q.buckets[:i], q.buckets[i+1:]...)
			q.stats.BucketsLive.Dec()
			return
		}
	}
}

// tryAdd places obj in the first free slot, spawning the bucket's
// goroutine on first use. Returns false if the bucket is full or
// closed.
func (b *waitBucket) tryAdd(obj *Object) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Load() {
		return 0, false
	}
	for i, m := range b.members {
		if m == nil {
			b.members[i] = obj
			b.count++
			b.parent.stats.WaitsLive.Inc()
			if !b.started {
				b.started = true
				go b.run()
			} else {
				_ = b.wake.Set()
			}
			return i, true
		}
	}
	return 0, false
}

func (b *waitBucket) remove(obj *Object) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if obj.wait.slot >= 0 && obj.wait.slot < len(b.members) && b.members[obj.wait.slot] == obj {
		b.members[obj.wait.slot] = nil
		b.count--
		b.parent.stats.WaitsLive.Dec()
		_ = b.wake.Set()
	}
}

// run is one bucket's multiplexing loop: wait on every live member's
// Waitable plus the wake event, submit whichever one fired (or every
// member whose deadline has elapsed, on a timeout), and repeat.
func (b *waitBucket) run() {
	for {
		if b.closed.Load() {
			return
		}

		handles, objs, serials, deadline, hasDeadline := b.snapshot()

		ctx := context.Background()
		var cancel context.CancelFunc
		if hasDeadline {
			d := time.Duration(deadline-timeutil.Now()) * timeutil.HundredNanos
			if d < 0 {
				d = 0
			}
			ctx, cancel = context.WithTimeout(context.Background(), d)
		}

		idx, err := b.waiter.Wait(ctx, handles)
		if cancel != nil {
			cancel()
		}

		if b.closed.Load() {
			return
		}

		switch {
		case err == context.DeadlineExceeded:
			b.fireTimedOut()
		case idx == 0:
			_ = b.wake.Reset()
		case idx > 0:
			b.fireSignaled(objs[idx], serials[idx])
		}
	}
}

// snapshot builds the handle list (index 0 is always the wake event)
// for the current membership, a parallel array of each member's
// updateSerial as observed at snapshot time (so a later fire can
// detect a member reconfigured in between, spec.md §4.5 "stale
// signal"), plus the earliest deadline among timed members, if any.
func (b *waitBucket) snapshot() ([]Waitable, []*Object, []int32, int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handles := make([]Waitable, 1, len(b.members)+1)
	objs := make([]*Object, 1, len(b.members)+1)
	serials := make([]int32, 1, len(b.members)+1)
	handles[0] = b.wake
	objs[0] = nil
	serials[0] = 0

	var (
		nearest     int64
		hasDeadline bool
	)
	for _, obj := range b.members {
		if obj == nil {
			continue
		}
		handles = append(handles, obj.wait.waitable)
		objs = append(objs, obj)
		serials = append(serials, obj.updateSerial.Load())
		if obj.wait.hasTimeout && (!hasDeadline || obj.wait.deadline < nearest) {
			nearest = obj.wait.deadline
			hasDeadline = true
		}
	}
	return handles, objs, serials, nearest, hasDeadline
}

// fireSignaled handles a Waitable that fired during run()'s wait call.
// serial is the updateSerial obj carried in the snapshot that produced
// this fire; if obj has since been reassigned to another bucket or
// reconfigured via set_wait, its updateSerial will have moved on and
// this fire is discarded as stale instead of delivered.
func (b *waitBucket) fireSignaled(obj *Object, serial int32) {
	if obj.wait.bucket != b || obj.updateSerial.Load() != serial {
		b.parent.stats.WaitsStale.Inc()
		return
	}

	if obj.wait.flags&WaitFlagExecuteOnlyOnce != 0 {
		b.remove(obj)
		obj.wait.bucket = nil
	}
	obj.wait.result = WaitResult{Signaled: true}
	b.parent.stats.WaitsSignaled.Inc()
	b.dispatch(obj)
}

func (b *waitBucket) fireTimedOut() {
	now := timeutil.Now()
	var due []*Object
	b.mu.Lock()
	for _, obj := range b.members {
		if obj != nil && obj.wait.hasTimeout && obj.wait.deadline <= now {
			due = append(due, obj)
		}
	}
	b.mu.Unlock()

	for _, obj := range due {
		if obj.wait.flags&WaitFlagExecuteOnlyOnce != 0 {
			b.remove(obj)
			obj.wait.bucket = nil
		}
		obj.wait.result = WaitResult{Signaled: false}
		b.parent.stats.WaitsTimedOut.Inc()
		b.dispatch(obj)
	}
}

// dispatch hands a fired Wait off for callback execution: inline on
// this bucket's own goroutine when WaitFlagExecuteInWaitThread or
// WaitFlagExecuteInIOThread is set, blocking further dispatch from
// this bucket until the callback returns; through the Pool otherwise,
// the default.
func (b *waitBucket) dispatch(obj *Object) {
	if obj.wait.flags&(WaitFlagExecuteInWaitThread|WaitFlagExecuteInIOThread) != 0 {
		if err := obj.executeInline(); err != nil {
			obj.logger.Warn("wait inline execution after object shutdown", logger.Error(err))
		}
		b.parent.considerMerge(b)
		return
	}

	obj.refCount.Inc()
	go func() {
		defer obj.release()
		if err := obj.submit(true); err != nil {
			obj.logger.Warn("wait submit after object shutdown", logger.Error(err))
		}
	}()
	b.parent.considerMerge(b)
}

// WaitStats returns the process-wide wait service's statistics bundle.
func WaitStats() *linmetric.WaitStatistics { return globalWaitQueue().stats }

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

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/lindb/common/pkg/logger"
)

// Kind discriminates the five Object variants (spec.md §3).
type Kind int

const (
	// KindSimple objects submit exactly once, at allocation, and
	// auto-shut-down after their single callback runs.
	KindSimple Kind = iota
	// KindWork objects are submitted manually by the caller, any
	// number of times.
	KindWork
	// KindTimer objects are driven by the timer service.
	KindTimer
	// KindWait objects are driven by the wait service.
	KindWait
	// KindIO objects are driven by the I/O completion pump.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "Simple"
	case KindWork:
		return "Work"
	case KindTimer:
		return "Timer"
	case KindWait:
		return "Wait"
	case KindIO:
		return "IO"
	default:
		return "Unknown"
	}
}

// Callback is the user function invoked for one dispatch of an Object.
// instance carries the per-invocation cleanup registration (§3
// Callback Instance); result carries kind-specific context (Wait's
// signaled/timed-out outcome, IO's completion record).
type Callback func(instance *Instance, userData any, result any)

// Object is a discriminated, ref-counted union of the five kinds
// (spec.md §3). Its envelope fields (refCount, shutdown, the three
// in-flight counters, priority, updateSerial) are shared by every
// variant; kind-specific state lives in the matching *State field.
//
// numPendingCallbacks/numRunningCallbacks/numAssociatedCallbacks and
// queued are protected by pool.mu (spec.md §5 "Pool lock"), not by a
// lock on Object itself — this mirrors the original's single
// threadpool->cs guarding every queued object's counters.
type Object struct {
	ID   string
	Kind Kind

	pool  *Pool
	group *Group
	env   *Environ

	userData any
	logger   logger.Logger

	refCount atomic.Int32
	shutdown atomic.Bool

	priority     Priority
	mayRunLong   atomic.Bool
	// updateSerial increments on every set_wait/reconfiguration so a
	// wait bucket can detect and discard a signal it captured before
	// the reconfiguration (§4.5 "stale signal").
	updateSerial atomic.Int32

	numPendingCallbacks    int
	numRunningCallbacks    int
	numAssociatedCallbacks int
	queued                 bool

	finishedCond      *sync.Cond
	groupFinishedCond *sync.Cond

	simple *simpleState
	work   *workState
	timer  *timerState
	wait   *waitState
	io     *ioState
}

type simpleState struct {
	callback Callback
}

type workState struct {
	callback Callback
}

// isGroupMember reports whether the Object still claims membership
// in a Group (cleared by release_group_members step 1).
func (o *Object) isGroupMember() bool {
	return o.group != nil
}

// allocate creates an Object of the given kind against pool, applying
// the shared Environ fields (spec.md §4.1 "allocate").
func allocate(kind Kind, pool *Pool, userData any, env *Environ) (*Object, error) {
	if pool == nil {
		pool = DefaultPool()
	}
	if env != nil && env.Version == 3 && !env.Priority.Valid() {
		return nil, ErrInvalidParameter
	}

	pool.refCount.Inc()
	pool.objCount.Inc()

	obj := &Object{
		ID:       uuid.NewString(),
		Kind:     kind,
		pool:     pool,
		env:      env,
		userData: userData,
		logger:   logger.GetLogger("Concurrent", kind.String()),
		priority: env.priority(),
	}
	obj.finishedCond = sync.NewCond(&pool.mu)
	obj.groupFinishedCond = sync.NewCond(&pool.mu)
	obj.refCount.Store(1)

	switch kind {
	case KindSimple:
		obj.simple = &simpleState{}
	case KindWork:
		obj.work = &workState{}
	case KindTimer:
		obj.timer = &timerState{}
	case KindWait:
		obj.wait = &waitState{}
	case KindIO:
		obj.io = &ioState{}
	}
	if env != nil {
		obj.mayRunLong.Store(env.LongFunction)
		if env.ActivationContext != nil {
			obj.logger.Warn("activation context is recognised but not implemented")
		}
	}

	if env != nil && env.Group != nil {
		env.Group.addMember(obj)
		obj.group = env.Group
	}

	return obj, nil
}

// submit enqueues obj for dispatch (spec.md §4.1 "submit"). signaled
// is only meaningful for Wait objects, where it increments
// u.wait.signaled instead of relying solely on the dispatch-time
// WaitResult computation.
func (o *Object) submit(signaled bool) error {
	o.pool.mu.Lock()
	defer o.pool.mu.Unlock()
	return o.submitLocked(signaled)
}

// submitLocked is submit with pool.mu already held.
func (o *Object) submitLocked(signaled bool) error {
	if o.shutdown.Load() {
		o.pool.stats.TasksRejected.Inc()
		return ErrPoolShutdown
	}
	if o.pool.shutdown.Load() {
		o.pool.stats.TasksRejected.Inc()
		return ErrPoolShutdown
	}

	o.refCount.Inc()
	o.numPendingCallbacks++
	if o.Kind == KindWait && signaled {
		o.wait.signaled++
	}

	if o.numPendingCallbacks == 1 {
		o.pool.enqueueLocked(o)
	}
	return nil
}

// executeInline runs obj's callback synchronously on the calling
// goroutine instead of handing it to a pool worker, for Wait Objects
// allocated with WaitFlagExecuteInWaitThread/WaitFlagExecuteInIOThread
// (spec.md §4.5 "inline dispatch"). It mirrors submitLocked's
// bookkeeping (one refCount and one pending callback) before driving
// the same executeAndAccountLocked path a pool worker would.
func (o *Object) executeInline() error {
	o.pool.mu.Lock()
	if o.shutdown.Load() || o.pool.shutdown.Load() {
		o.pool.mu.Unlock()
		return ErrPoolShutdown
	}

	o.refCount.Inc()
	o.numPendingCallbacks++
	o.pool.executeAndAccountLocked(o)
	o.pool.mu.Unlock()
	return nil
}

// cancel removes obj from its queue (spec.md §4.1 "cancel"): it only
// affects queued submissions, never running callbacks.
func (o *Object) cancel() {
	o.pool.mu.Lock()
	defer o.pool.mu.Unlock()

	if o.queued {
		o.pool.dequeueLocked(o)
	}
	n := o.numPendingCallbacks
	o.numPendingCallbacks = 0
	for i := 0; i < n; i++ {
		o.releaseLocked()
	}

	switch o.Kind {
	case KindWait:
		o.wait.signaled = 0
	case KindIO:
		o.io.skippedCount += o.io.pendingCount
		o.io.pendingCount = 0
	}
}

// isFinishedLocked implements spec.md §4.1 "is_finished" with pool.mu
// held: pending callbacks and (for IO) pending kernel operations must
// both be zero, plus either no running callbacks (group mode) or no
// associated callbacks (non-group mode).
func (o *Object) isFinishedLocked(groupMode bool) bool {
	if o.numPendingCallbacks != 0 {
		return false
	}
	if o.Kind == KindIO && o.io.pendingCount != 0 {
		return false
	}
	if groupMode {
		return o.numRunningCallbacks == 0
	}
	return o.numAssociatedCallbacks == 0
}

// awaitFinished blocks until obj is finished under the given mode
// (spec.md §4.1 "wait"): groupMode=false waits on association
// semantics, groupMode=true waits on running-callback (group
// release) semantics.
func (o *Object) awaitFinished(groupMode bool) {
	o.pool.mu.Lock()
	defer o.pool.mu.Unlock()
	for !o.isFinishedLocked(groupMode) {
		if groupMode {
			o.groupFinishedCond.Wait()
		} else {
			o.finishedCond.Wait()
		}
	}
}

// prepareShutdown dispatches to the per-kind service detach (spec.md
// §4.1 "prepare_shutdown"), called with no lock held.
func (o *Object) prepareShutdown() {
	switch o.Kind {
	case KindTimer:
		globalTimerQueue().unlock(o)
	case KindWait:
		globalWaitQueue().unlock(o)
	case KindIO:
		globalIOQueue().detach(o)
	}
}

// release drops one reference (spec.md §4.1 "release"); on reaching
// zero it detaches from its Group, drops its Pool reference and
// closes the race-dll. It does not check that the Object is shut down.
func (o *Object) release() {
	o.pool.mu.Lock()
	destroy := o.releaseLocked()
	o.pool.mu.Unlock()
	if destroy {
		o.destroy()
	}
}

// releaseLocked is release's refcount arithmetic with pool.mu held;
// it returns true exactly once, when the Object should be destroyed.
func (o *Object) releaseLocked() bool {
	return o.refCount.Dec() == 0
}

func (o *Object) destroy() {
	if o.group != nil {
		o.group.removeMember(o)
	}
	o.pool.objCount.Dec()
	o.pool.unref()
	if o.env != nil && o.env.RaceDLL != nil {
		_ = o.env.RaceDLL.Close()
	}
}

// shutdownNow marks the Object shut down; used by Simple objects
// after their single callback and by Group release.
func (o *Object) shutdownNow() {
	o.shutdown.Store(true)
}

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

// This file is the CORE's public surface: the threadpool package
// (the spec's §6 handle types) only ever reaches into this package
// through the exported constructors and methods declared here.

// NewSimple allocates a Simple Object and submits it once,
// immediately, auto-shutting it down after its single callback runs
// (spec.md §3 "Simple").
func NewSimple(pool *Pool, cb Callback, userData any, env *Environ) (*Object, error) {
	obj, err := allocate(KindSimple, pool, userData, env)
	if err != nil {
		return nil, err
	}
	obj.simple.callback = cb
	if err := obj.submit(false); err != nil {
		obj.release()
		return nil, err
	}
	return obj, nil
}

// NewWork allocates a Work Object; the caller submits it explicitly
// via Submit (spec.md §6 "Work alloc").
func NewWork(pool *Pool, cb Callback, userData any, env *Environ) (*Object, error) {
	obj, err := allocate(KindWork, pool, userData, env)
	if err != nil {
		return nil, err
	}
	obj.work.callback = cb
	return obj, nil
}

// NewTimer allocates an unarmed Timer Object; call SetTimer to arm it
// (spec.md §6 "Timer alloc").
func NewTimer(pool *Pool, cb Callback, userData any, env *Environ) (*Object, error) {
	obj, err := allocate(KindTimer, pool, userData, env)
	if err != nil {
		return nil, err
	}
	obj.timer.callback = cb
	return obj, nil
}

// NewWait allocates an unarmed Wait Object; call SetWait to arm it
// (spec.md §6 "Wait alloc"). flags is set once at allocation and
// governs every subsequent fire: no flags (the default, omitted)
// auto-rearms after each fire and dispatches through the Pool;
// WaitFlagExecuteOnlyOnce disarms after firing once; the execute-in-*
// flags run the callback inline on the wait bucket's goroutine instead.
func NewWait(pool *Pool, cb Callback, userData any, env *Environ, flags ...WaitFlags) (*Object, error) {
	obj, err := allocate(KindWait, pool, userData, env)
	if err != nil {
		return nil, err
	}
	obj.wait.callback = cb
	for _, f := range flags {
		obj.wait.flags |= f
	}
	if obj.wait.flags&WaitFlagAlertable != 0 {
		obj.logger.Warn("alertable wait is recognised but not implemented")
	}
	return obj, nil
}

// NewIO allocates an I/O Object bound to fd (spec.md §6 "I/O alloc").
func NewIO(pool *Pool, fd int, cb Callback, userData any, env *Environ) (*Object, error) {
	obj, err := allocate(KindIO, pool, userData, env)
	if err != nil {
		return nil, err
	}
	obj.io.callback = cb
	if err := globalIOQueue().start(obj, fd); err != nil {
		obj.release()
		return nil, err
	}
	return obj, nil
}

// Submit enqueues a Work Object for dispatch (spec.md §6 "post").
func (o *Object) Submit() error { return o.submit(false) }

// Cancel removes obj's queued (not yet running) submissions (spec.md §6).
func (o *Object) Cancel() { o.cancel() }

// Wait blocks until obj is finished; groupMode selects the
// running-callback semantics release_group_members uses internally —
// ordinary callers always pass false (spec.md §6 "wait").
func (o *Object) Wait(groupMode bool) { o.awaitFinished(groupMode) }

// Release drops one reference to obj (spec.md §6 "release").
func (o *Object) Release() { o.release() }

// PrepareShutdown detaches obj from its owning service ahead of
// final release (spec.md §4.1 "prepare_shutdown").
func (o *Object) PrepareShutdown() { o.prepareShutdown() }

// IsFinished reports whether obj currently satisfies is_finished
// under groupMode (spec.md §3 Testable Property 1).
func (o *Object) IsFinished(groupMode bool) bool {
	o.pool.mu.Lock()
	defer o.pool.mu.Unlock()
	return o.isFinishedLocked(groupMode)
}

// UserData returns the userdata pointer obj was allocated with.
func (o *Object) UserData() any { return o.userData }

// SetTimer arms or rearms a Timer Object (spec.md §6 "Timer set_ex").
// dueTime is an absolute or (if negative) relative 100-ns timestamp;
// period is in milliseconds (0 = one-shot); windowLength is the
// coalescing slack in milliseconds. Returns whether a prior schedule
// was replaced.
func (o *Object) SetTimer(dueTime, period, windowLength int64) (wasSet bool, err error) {
	if o.Kind != KindTimer {
		return false, ErrInvalidParameter
	}
	return globalTimerQueue().set(o, dueTime, period, windowLength)
}

// CancelTimer disarms obj, preventing any future firing, without
// affecting a callback already dispatched to the Pool (spec.md §9
// seed scenario S2 "cancel").
func (o *Object) CancelTimer() {
	if o.Kind != KindTimer {
		return
	}
	globalTimerQueue().cancel(o)
}

// IsSet reports whether a Timer Object currently has a pending schedule.
func (o *Object) IsSet() bool {
	if o.Kind != KindTimer {
		return false
	}
	q := globalTimerQueue()
	q.mu.Lock()
	defer q.mu.Unlock()
	return o.timer.active
}

// SetWait arms or rearms a Wait Object against waitable, with an
// optional timeout expressed as an absolute or (if negative) relative
// 100-ns timestamp (spec.md §6 "Wait set_ex"). Returns whether a
// prior wait was replaced.
func (o *Object) SetWait(waitable Waitable, hasTimeout bool, timeout int64) (wasReplaced bool, err error) {
	if o.Kind != KindWait {
		return false, ErrInvalidParameter
	}
	return globalWaitQueue().set(o, waitable, hasTimeout, timeout)
}

// CancelWait disarms obj, deregistering it from its wait bucket
// without affecting a callback already dispatched to the Pool.
func (o *Object) CancelWait() {
	if o.Kind != KindWait {
		return
	}
	globalWaitQueue().unlock(o)
}

// StartAsyncIO records one more in-flight kernel I/O request against
// obj, paired with a later completion or CancelAsyncIO (spec.md §6
// "start_async_io").
func (o *Object) StartAsyncIO() {
	o.pool.mu.Lock()
	o.io.pendingCount++
	o.pool.mu.Unlock()
}

// CancelAsyncIO pairs with a StartAsyncIO the caller knows will never
// complete, moving it from pending to skipped (spec.md §6 "cancel_async_io").
func (o *Object) CancelAsyncIO() {
	o.pool.mu.Lock()
	if o.io.pendingCount > 0 {
		o.io.pendingCount--
		o.io.skippedCount++
	}
	o.pool.mu.Unlock()
}

// PostIOCompletion simulates a kernel I/O completion for obj, used by
// hosts without a real file descriptor to drive (tests, in-memory
// transports). bytes is reported to the callback via Completion.Bytes.
func (o *Object) PostIOCompletion(bytes int) error {
	if o.Kind != KindIO {
		return ErrInvalidParameter
	}
	return globalIOQueue().post(o, bytes)
}

// MarkIOShuttingDown flags an I/O Object as shutting down ahead of
// final release, so the pump swallows any completion that races the
// release instead of dispatching it (spec.md §4.5 "shutting_down").
func (o *Object) MarkIOShuttingDown() {
	if o.Kind != KindIO {
		return
	}
	o.pool.mu.Lock()
	o.io.shuttingDown = true
	o.pool.mu.Unlock()
}

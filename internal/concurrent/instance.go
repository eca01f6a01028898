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
	"io"
	"sync"

	"github.com/lindb/common/pkg/logger"
)

// cleanupAction is one of the six ordered post-callback cleanups
// spec.md §3/§4.7 names: leave a critical section, release a mutex,
// release a semaphore by N, signal an event, unload a library, plus
// an arbitrary caller-supplied func for anything else registered
// through the public threadpool package.
type cleanupAction struct {
	run func() error
}

// Instance is the per-invocation, conceptually stack-allocated state
// spec.md §3/§4.7 describes: which Object is executing, whether it
// is still "associated", and the ordered
// cleanup actions to run once the user callback returns.
type Instance struct {
	object       *Object
	goroutineID  uint64
	mu           sync.Mutex
	associated   bool
	mayRunLong   bool
	promoted     bool
	cleanups     []cleanupAction
}

func newInstance(o *Object) *Instance {
	return &Instance{
		object:     o,
		associated: true,
		mayRunLong: o.mayRunLong.Load(),
	}
}

// MayRunLong promotes the pool's worker count to accommodate a
// long-running callback (spec.md §4.7 "may_run_long promotion"). It
// is idempotent once promoted and returns ErrTooManyThreads if the
// pool is already saturated at MaxThreads.
func (inst *Instance) MayRunLong() error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.promoted || inst.mayRunLong {
		return nil
	}

	p := inst.object.pool
	p.mu.Lock()
	defer p.mu.Unlock()

	workers := int(p.numWorkers.Load())
	busy := int(p.numBusyWorkers.Load())
	if busy < workers {
		inst.promoted = true
		return nil
	}
	if workers >= int(p.maxWorkers.Load()) {
		return ErrTooManyThreads
	}
	p.spawnWorkerLocked()
	inst.promoted = true
	return nil
}

// Disassociate flips associated=false and decrements the owning
// Object's numAssociatedCallbacks, letting a non-group Wait for the
// Object finish early even while this callback keeps running
// (spec.md §4.7 "Dissociation").
func (inst *Instance) Disassociate() {
	inst.mu.Lock()
	if !inst.associated {
		inst.mu.Unlock()
		return
	}
	inst.associated = false
	inst.mu.Unlock()

	o := inst.object
	o.pool.mu.Lock()
	o.numAssociatedCallbacks--
	if o.isFinishedLocked(false) {
		o.finishedCond.Broadcast()
	}
	o.pool.mu.Unlock()
}

// registerCleanup appends a cleanup action, run in registration order
// after the user callback returns (spec.md §4.7).
func (inst *Instance) registerCleanup(run func() error) {
	inst.mu.Lock()
	inst.cleanups = append(inst.cleanups, cleanupAction{run: run})
	inst.mu.Unlock()
}

// RegisterCleanup registers an arbitrary cleanup action, for cases
// the five named variants below don't cover.
func (inst *Instance) RegisterCleanup(run func() error) {
	inst.registerCleanup(run)
}

// LeaveCriticalSectionWhenCallbackReturns registers cs.Unlock to run
// after the callback returns (spec.md §3 "leave a critical section").
func (inst *Instance) LeaveCriticalSectionWhenCallbackReturns(cs sync.Locker) {
	inst.registerCleanup(func() error { cs.Unlock(); return nil })
}

// ReleaseMutexWhenCallbackReturns registers m.Unlock to run after the
// callback returns (spec.md §3 "release a mutex").
func (inst *Instance) ReleaseMutexWhenCallbackReturns(m sync.Locker) {
	inst.registerCleanup(func() error { m.Unlock(); return nil })
}

// ReleaseSemaphoreWhenCallbackReturns registers n releases of sem to
// run after the callback returns (spec.md §3 "release a semaphore by N").
func (inst *Instance) ReleaseSemaphoreWhenCallbackReturns(sem chan struct{}, n int) {
	inst.registerCleanup(func() error {
		for i := 0; i < n; i++ {
			select {
			case sem <- struct{}{}:
			default:
				return nil
			}
		}
		return nil
	})
}

// SetEventWhenCallbackReturns registers e.Set to run after the
// callback returns (spec.md §3 "signal an event").
func (inst *Instance) SetEventWhenCallbackReturns(e Event) {
	inst.registerCleanup(e.Set)
}

// FreeLibraryWhenCallbackReturns registers lib.Close to run after the
// callback returns (spec.md §3 "unload a library").
func (inst *Instance) FreeLibraryWhenCallbackReturns(lib io.Closer) {
	inst.registerCleanup(lib.Close)
}

// runCleanups executes the registered cleanup actions in order;
// a failure skips the remaining ones but never aborts the worker
// (spec.md §4.1 "Failure semantics", §7 category (c)).
func (inst *Instance) runCleanups(logf func(err error)) {
	inst.mu.Lock()
	actions := inst.cleanups
	inst.mu.Unlock()

	for _, a := range actions {
		if err := a.run(); err != nil {
			if logf != nil {
				logf(err)
			}
			return
		}
	}
}

// executeObject runs one callback for o outside the pool lock
// (spec.md §4.7 "Callback invocation"). waitThread indicates the call
// came from a wait bucket's in-line execution path rather than a
// pool worker. It returns whether the Instance was still associated
// when the callback returned — false if Disassociate already
// decremented numAssociatedCallbacks during the callback, telling the
// caller not to decrement it again.
func executeObject(o *Object, waitThread bool) bool {
	inst := newInstance(o)

	var (
		callback Callback
		result   any
	)

	switch o.Kind {
	case KindSimple:
		callback = o.simple.callback
	case KindWork:
		callback = o.work.callback
	case KindTimer:
		callback = o.timer.callback
	case KindWait:
		callback = o.wait.callback
		result = o.wait.consumeResult()
	case KindIO:
		callback = o.io.callback
		result = o.io.popCompletion()
	}

	if callback != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					o.pool.stats.TasksPanic.Inc()
					o.logger.Error("panic while executing object callback",
						logger.Any("panic", r), logger.Stack())
				}
			}()
			callback(inst, o.userData, result)
		}()
	}

	if o.env != nil && o.env.FinalizationCallback != nil {
		o.env.FinalizationCallback(o.userData, o.env.FinalizationContext)
	}

	inst.runCleanups(func(err error) {
		o.logger.Error("cleanup action failed, skipping remaining cleanups", logger.Error(err))
	})

	if o.Kind == KindSimple {
		o.shutdownNow()
	}
	_ = waitThread

	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.associated
}

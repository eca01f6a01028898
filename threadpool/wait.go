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
	"github.com/lindb/threadpool/internal/concurrent"
	"github.com/lindb/threadpool/internal/linmetric"
)

// Wait fires its callback when a Waitable becomes signaled or its
// timeout elapses (spec.md §6 "Wait").
type Wait struct {
	o *concurrent.Object
}

// NewWait allocates an unarmed Wait handle; call SetEx to arm it.
// flags is set once at allocation and governs every subsequent fire;
// omit it for the default auto-rearm, pool-dispatched behaviour.
func NewWait(cb Callback, userData any, env *Environ, flags ...WaitFlags) (*Wait, error) {
	obj, err := concurrent.NewWait(env.pool(), cb, userData, env.toInternal(), flags...)
	if err != nil {
		return nil, err
	}
	return &Wait{o: obj}, nil
}

// SetEx arms or rearms the Wait against waitable, with an optional
// timeout expressed as an absolute (or, if negative, relative) 100-ns
// timestamp. Returns whether a prior wait was replaced.
func (w *Wait) SetEx(waitable Waitable, hasTimeout bool, timeout int64) (bool, error) {
	return w.o.SetWait(waitable, hasTimeout, timeout)
}

// Set arms the Wait against waitable with no timeout.
func (w *Wait) Set(waitable Waitable) (bool, error) {
	return w.o.SetWait(waitable, false, 0)
}

// Wait blocks until the Wait has no pending or running invocations.
// cancelPending both deregisters from the wait bucket and drops any
// already-queued dispatch.
func (w *Wait) Wait(cancelPending bool) {
	if cancelPending {
		w.o.CancelWait()
		w.o.Cancel()
	}
	w.o.Wait(false)
}

// Release detaches the Wait from its bucket, then drops one
// reference — without the detach, an armed Wait would stay
// multiplexed in its bucket and keep firing against an Object whose
// refcount has already reached zero (spec.md §4.1 "prepare_shutdown").
func (w *Wait) Release() {
	w.o.PrepareShutdown()
	w.o.Release()
}

// WaitStats returns the process-wide wait service's statistics bundle.
func WaitStats() *linmetric.WaitStatistics { return concurrent.WaitStats() }

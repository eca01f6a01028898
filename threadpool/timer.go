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

// Timer fires its callback once at a due time, and repeatedly every
// period thereafter if period is non-zero (spec.md §6 "Timer").
type Timer struct {
	o *concurrent.Object
}

// NewTimer allocates an unarmed Timer handle; call SetEx to arm it.
func NewTimer(cb Callback, userData any, env *Environ) (*Timer, error) {
	obj, err := concurrent.NewTimer(env.pool(), cb, userData, env.toInternal())
	if err != nil {
		return nil, err
	}
	return &Timer{o: obj}, nil
}

// SetEx arms or rearms the Timer. dueTime is an absolute 100-ns
// timestamp, or — if negative — relative to now by its magnitude.
// period is in milliseconds (0 = one-shot). windowLength is the
// coalescing slack, in milliseconds. Returns whether a prior schedule
// was replaced.
func (t *Timer) SetEx(dueTime, period, windowLength int64) (bool, error) {
	return t.o.SetTimer(dueTime, period, windowLength)
}

// Set is SetEx with no coalescing window.
func (t *Timer) Set(dueTime, period int64) (bool, error) {
	return t.o.SetTimer(dueTime, period, 0)
}

// IsSet reports whether the Timer currently has a pending schedule.
func (t *Timer) IsSet() bool { return t.o.IsSet() }

// Wait blocks until the Timer has no pending or running invocations.
// cancelPending both disarms the schedule and drops any already-queued
// dispatch.
func (t *Timer) Wait(cancelPending bool) {
	if cancelPending {
		t.o.CancelTimer()
		t.o.Cancel()
	}
	t.o.Wait(false)
}

// Release detaches the Timer from the timer service, then drops one
// reference — without the detach, an armed Timer would stay in the
// expiry heap and keep firing against an Object whose refcount has
// already reached zero (spec.md §4.1 "prepare_shutdown").
func (t *Timer) Release() {
	t.o.PrepareShutdown()
	t.o.Release()
}

// TimerStats returns the process-wide timer service's statistics bundle.
func TimerStats() *linmetric.TimerStatistics { return concurrent.TimerStats() }

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

import "github.com/lindb/threadpool/internal/concurrent"

// Callback is the user function invoked for one dispatch of a handle.
// result is nil for Work callbacks, a WaitResult for Wait callbacks,
// and a Completion for I/O callbacks.
type Callback = concurrent.Callback

// WaitResult is the outcome observed by a Wait callback.
type WaitResult = concurrent.WaitResult

// WaitFlags selects a Wait handle's dispatch behaviour, set once at
// allocation time.
type WaitFlags = concurrent.WaitFlags

const (
	// WaitFlagExecuteOnlyOnce disarms the Wait after its first fire.
	WaitFlagExecuteOnlyOnce = concurrent.WaitFlagExecuteOnlyOnce
	// WaitFlagExecuteInWaitThread runs the callback inline on the wait
	// bucket's own goroutine instead of submitting it to the Pool.
	WaitFlagExecuteInWaitThread = concurrent.WaitFlagExecuteInWaitThread
	// WaitFlagExecuteInIOThread is WaitFlagExecuteInWaitThread's
	// counterpart for waits paired with I/O completions.
	WaitFlagExecuteInIOThread = concurrent.WaitFlagExecuteInIOThread
	// WaitFlagAlertable is recognised but unimplemented.
	WaitFlagAlertable = concurrent.WaitFlagAlertable
)

// Completion is the outcome observed by an I/O callback.
type Completion = concurrent.Completion

// Waitable is a host-kernel wait primitive a Wait handle targets.
type Waitable = concurrent.Waitable

// Event is a manual-reset Waitable a producer can Set/Reset.
type Event = concurrent.Event

// NewEvent creates the default Event implementation.
func NewEvent() (Event, error) { return concurrent.NewEvent() }

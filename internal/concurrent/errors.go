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

import "errors"

// Sentinel errors returned by the object lifecycle and pool layer.
// Category (d) programmer errors are returned as status rather than
// asserted so a host embedding this runtime can decide how to react.
var (
	// ErrOutOfMemory names an allocation failure; no operation in this
	// package returns it.
	ErrOutOfMemory = errors.New("concurrent: out of memory")
	// ErrInvalidParameter is returned for an unknown priority, a
	// kind-specific call on an Object of another kind, an invalid timer
	// or max-threads setting, or invalid stack information. A nil
	// callback is not rejected.
	ErrInvalidParameter = errors.New("concurrent: invalid parameter")
	// ErrTooManyThreads is returned by Instance.MayRunLong when the
	// pool is already saturated at MaxThreads.
	ErrTooManyThreads = errors.New("concurrent: too many threads")
	// ErrPoolShutdown is returned by Submit when the Pool has already
	// been shut down.
	ErrPoolShutdown = errors.New("concurrent: pool is shut down")
	// ErrWrongThread names a call to Instance.MayRunLong or
	// Instance.Disassociate from a goroutine other than the one
	// executing the Instance. Neither method checks the calling
	// goroutine, so no operation in this package returns it.
	ErrWrongThread = errors.New("concurrent: not the callback's owning thread")
	// ErrServiceAttach wraps a failure to attach an object to its
	// service (timer thread spawn, wait bucket creation, completion
	// port association).
	ErrServiceAttach = errors.New("concurrent: failed to attach object to service")
)

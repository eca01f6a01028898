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

// IO fires its callback once per completed asynchronous operation
// started with StartAsyncIO against the associated file descriptor
// (spec.md §6 "I/O").
type IO struct {
	o *concurrent.Object
}

// NewIO allocates an I/O handle bound to fd (spec.md §6 "I/O alloc").
func NewIO(fd int, cb Callback, userData any, env *Environ) (*IO, error) {
	obj, err := concurrent.NewIO(env.pool(), fd, cb, userData, env.toInternal())
	if err != nil {
		return nil, err
	}
	return &IO{o: obj}, nil
}

// StartAsyncIO records one more in-flight kernel I/O request, paired
// with a later completion or CancelAsyncIO.
func (io *IO) StartAsyncIO() { io.o.StartAsyncIO() }

// CancelAsyncIO pairs with a StartAsyncIO the caller knows will never
// complete.
func (io *IO) CancelAsyncIO() { io.o.CancelAsyncIO() }

// PostCompletion simulates a kernel completion, for hosts driving the
// I/O handle without a real file descriptor (tests, in-memory transports).
func (io *IO) PostCompletion(bytes int) error { return io.o.PostIOCompletion(bytes) }

// Wait blocks until every started operation has either completed or
// been cancelled.
func (io *IO) Wait(cancelPending bool) {
	if cancelPending {
		io.o.Cancel()
	}
	io.o.Wait(false)
}

// Release marks the IO handle shutting down, detaches it from the I/O
// pump, then drops one reference — without the detach, a still-
// associated fd would keep delivering completions to an Object whose
// refcount has already reached zero (spec.md §4.1 "prepare_shutdown").
func (io *IO) Release() {
	io.o.MarkIOShuttingDown()
	io.o.PrepareShutdown()
	io.o.Release()
}

// IOStats returns the process-wide I/O pump's statistics bundle.
func IOStats() *linmetric.IOStatistics { return concurrent.IOStats() }

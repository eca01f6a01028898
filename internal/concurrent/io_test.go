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
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// S5: four outstanding async reads, two complete, two are cancelled;
// exactly two callback dispatches fire, and waiting drains cleanly once
// both are accounted for.
func TestIO_StartCompleteCancel(t *testing.T) {
	pool := NewPool("io-s5")

	r, w, err := os.Pipe()
	assert.NoError(t, err)
	defer r.Close()
	defer w.Close()

	var dispatches int32
	var lastBytes int32

	obj, err := NewIO(pool, int(r.Fd()), func(_ *Instance, _ any, result any) {
		atomic.AddInt32(&dispatches, 1)
		c := result.(Completion)
		atomic.StoreInt32(&lastBytes, int32(c.Bytes))
	}, nil, nil)
	assert.NoError(t, err)

	for i := 0; i < 4; i++ {
		obj.StartAsyncIO()
	}

	assert.NoError(t, obj.PostIOCompletion(128))
	assert.NoError(t, obj.PostIOCompletion(64))

	obj.CancelAsyncIO()
	obj.CancelAsyncIO()

	obj.Wait(false)

	assert.Equal(t, int32(2), atomic.LoadInt32(&dispatches))

	obj.Release()
	pool.Release()
}

func TestIO_CancelBeforeAnyCompletion(t *testing.T) {
	pool := NewPool("io-cancel-all")

	r, w, err := os.Pipe()
	assert.NoError(t, err)
	defer r.Close()
	defer w.Close()

	var dispatches int32
	obj, err := NewIO(pool, int(r.Fd()), func(_ *Instance, _ any, _ any) {
		atomic.AddInt32(&dispatches, 1)
	}, nil, nil)
	assert.NoError(t, err)

	obj.StartAsyncIO()
	obj.StartAsyncIO()
	obj.CancelAsyncIO()
	obj.CancelAsyncIO()

	done := make(chan struct{})
	go func() {
		obj.Wait(false)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after all pending I/O was cancelled")
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&dispatches))

	obj.Release()
	pool.Release()
}

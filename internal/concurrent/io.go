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

	"github.com/cespare/xxhash/v2"

	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/threadpool/internal/linmetric"
)

// Completion is the result an I/O Object's callback observes: the
// byte count the host completion reported, and the correlation token
// the pump stamped it with at post time (spec.md §4.5 "completion record").
type Completion struct {
	Bytes int
	Token uint64
}

// ioState is an I/O Object's kind-specific state (spec.md §4.5).
type ioState struct {
	callback Callback
	fd       int
	key      uintptr

	pendingCount int
	skippedCount int
	shuttingDown bool

	mu    sync.Mutex
	queue []Completion
}

// popCompletion returns (and removes) the oldest queued completion,
// or a zero Completion if none is queued yet — defensive only, since
// executeObject is only invoked once the pump has already queued one.
func (io *ioState) popCompletion() any {
	io.mu.Lock()
	defer io.mu.Unlock()
	if len(io.queue) == 0 {
		return Completion{}
	}
	c := io.queue[0]
	io.queue = io.queue[1:]
	return c
}

func (io *ioState) pushCompletion(c Completion) {
	io.mu.Lock()
	io.queue = append(io.queue, c)
	io.mu.Unlock()
}

// ioQueue is the singleton I/O completion pump: one goroutine draining
// a CompletionPort and dispatching each completion to the Object its
// key identifies (spec.md §4.5 "start_threadpool_io" / pump loop).
//
// Grounded on the teacher's internal/concurrent.workerPool single
// dispatch-goroutine shape; replaces its task channel with the
// CompletionPort abstraction from kernel.go since I/O completions
// arrive from outside this process's own queues.
type ioQueue struct {
	mu      sync.Mutex
	port    CompletionPort
	byKey   map[uintptr]*Object
	started bool
	cancel  context.CancelFunc

	stats  *linmetric.IOStatistics
	logger logger.Logger
}

var (
	ioQueueOnce sync.Once
	ioQueueInst *ioQueue
)

// globalIOQueue returns the lazily-initialised process-wide I/O pump.
func globalIOQueue() *ioQueue {
	ioQueueOnce.Do(func() {
		ioQueueInst = &ioQueue{
			byKey:  make(map[uintptr]*Object),
			stats:  linmetric.NewIOStatistics(),
			logger: logger.GetLogger("Concurrent", "IO"),
		}
	})
	return ioQueueInst
}

// start associates fd with obj and ensures the pump goroutine is
// running (spec.md §4.5 "start_threadpool_io").
func (q *ioQueue) start(obj *Object, fd int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.port == nil {
		port, err := NewCompletionPort()
		if err != nil {
			return ErrServiceAttach
		}
		q.port = port
	}

	key := uintptr(fd)
	if err := q.port.Associate(fd, key); err != nil {
		return ErrServiceAttach
	}

	obj.io.fd = fd
	obj.io.key = key
	q.byKey[key] = obj
	q.stats.ObjectsLive.Inc()

	if !q.started {
		q.started = true
		ctx, cancel := context.WithCancel(context.Background())
		q.cancel = cancel
		go q.run(ctx)
	}
	return nil
}

// detach removes obj's association, used by cancel and
// prepare_shutdown (spec.md §4.1, §4.5).
func (q *ioQueue) detach(obj *Object) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if obj.io.key == 0 {
		return
	}
	delete(q.byKey, obj.io.key)
	q.stats.ObjectsLive.Dec()
	obj.io.key = 0
}

// post enqueues a synthetic completion for obj, used by tests and by
// hosts that simulate I/O instead of wiring a real descriptor.
func (q *ioQueue) post(obj *Object, bytes int) error {
	q.mu.Lock()
	port := q.port
	key := obj.io.key
	q.mu.Unlock()
	if port == nil {
		return ErrServiceAttach
	}
	return port.PostCompletion(key, bytes)
}

// run drains the completion port and dispatches each completion to
// the Object its key names, incrementing its pending-callback count
// and submitting it (spec.md §4.5 "completion dispatch").
func (q *ioQueue) run(ctx context.Context) {
	for {
		key, bytes, err := q.port.GetCompletion(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Warn("completion port read failed", logger.Error(err))
			continue
		}

		q.mu.Lock()
		obj, ok := q.byKey[key]
		q.mu.Unlock()
		if !ok {
			q.stats.CompletionsSkipped.Inc()
			continue
		}

		obj.pool.mu.Lock()
		if obj.shutdown.Load() || obj.io.shuttingDown {
			// Raced a cancel/release: this completion belongs to an
			// operation already counted into skippedCount rather than
			// pendingCount. Swallow it instead of dispatching.
			if obj.io.skippedCount > 0 {
				obj.io.skippedCount--
			}
			obj.pool.mu.Unlock()
			q.stats.CompletionsSkipped.Inc()
			continue
		}
		if obj.io.pendingCount > 0 {
			obj.io.pendingCount--
		}
		obj.pool.mu.Unlock()

		token := xxhash.Sum64String(obj.ID)
		obj.io.pushCompletion(Completion{Bytes: bytes, Token: token})
		q.stats.CompletionsPosted.Inc()

		obj.refCount.Inc()
		go func(o *Object) {
			defer o.release()
			if err := o.submit(false); err != nil {
				o.logger.Warn("io submit after object shutdown", logger.Error(err))
			}
		}(obj)
	}
}

// stop tears down the pump goroutine by cancelling its context and
// closes the completion port. Nothing in this package calls it.
func (q *ioQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel != nil {
		q.cancel()
	}
	if q.port != nil {
		_ = q.port.Close()
	}
	q.started = false
}

// IOStats returns the process-wide I/O pump's statistics bundle.
func IOStats() *linmetric.IOStatistics { return globalIOQueue().stats }

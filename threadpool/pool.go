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

// Package threadpool is the public, handle-based surface over the
// runtime in internal/concurrent (spec.md §6 EXTERNAL INTERFACES): a
// Pool, and the five Object kinds it drives — Simple (via Submit),
// Work, Timer, Wait, IO —
// plus CleanupGroup and Instance. Every handle here is a thin wrapper
// translating method calls to the corresponding internal/concurrent
// operation; none of the actual scheduling, timer coalescing, wait
// bucketing or completion dispatch lives in this package.
package threadpool

import (
	"github.com/lindb/threadpool/internal/concurrent"
	"github.com/lindb/threadpool/internal/linmetric"
)

// Pool is an execution domain: a bounded set of worker goroutines
// draining three priority-ordered queues (spec.md §6 "Pool").
type Pool struct {
	p *concurrent.Pool
}

// NewPool allocates a Pool with the given name (spec.md §6 "alloc").
func NewPool(name string) *Pool {
	return &Pool{p: concurrent.NewPool(name)}
}

// Default returns the process-wide default Pool, created lazily on
// first use (spec.md §9 "process-wide state").
func Default() *Pool {
	return &Pool{p: concurrent.DefaultPool()}
}

// SetMaxThreads sets the pool's upper worker bound.
func (p *Pool) SetMaxThreads(max int) error { return p.p.SetMaxThreads(max) }

// SetMinThreads spawns workers up-front to meet min, returning false
// without changing min if spawning fails.
func (p *Pool) SetMinThreads(min int) bool { return p.p.SetMinThreads(min) }

// SetThreadBasePriority sets the base priority new workers are
// reported as having.
func (p *Pool) SetThreadBasePriority(priority int) { p.p.SetThreadBasePriority(priority) }

// StackInformation is the reserve/commit pair new workers are
// reported as using.
type StackInformation = concurrent.StackInformation

// SetStackInformation sets the pool's reported stack sizing.
func (p *Pool) SetStackInformation(info StackInformation) error {
	return p.p.SetStackInformation(info)
}

// QueryStackInformation returns the pool's currently reported stack sizing.
func (p *Pool) QueryStackInformation() StackInformation {
	return p.p.QueryStackInformation()
}

// Release drops one reference to the Pool.
func (p *Pool) Release() { p.p.Release() }

// Name returns the pool's name.
func (p *Pool) Name() string { return p.p.Name() }

// WorkerCounts returns the current worker/busy-worker counts.
func (p *Pool) WorkerCounts() (workers, busy int) { return p.p.WorkerCounts() }

// QueueDepths returns the current per-priority queue depths.
func (p *Pool) QueueDepths() (high, normal, low int) { return p.p.QueueDepths() }

// Stats returns the pool's statistics bundle.
func (p *Pool) Stats() *linmetric.ConcurrentStatistics { return p.p.Stats() }

// ListPools returns every currently registered Pool, for admin
// introspection (spec.md §6 "enumerate pools").
func ListPools() []*Pool {
	pools := concurrent.ListPools()
	out := make([]*Pool, 0, len(pools))
	for _, p := range pools {
		out = append(out, &Pool{p: p})
	}
	return out
}

// LookupPool returns the registered Pool named name, if any.
func LookupPool(name string) (*Pool, bool) {
	p, ok := concurrent.LookupPool(name)
	if !ok {
		return nil, false
	}
	return &Pool{p: p}, true
}

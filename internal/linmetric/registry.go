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

package linmetric

import "go.uber.org/atomic"

// ConcurrentStatistics is the statistics bundle a Pool keeps, named
// after (and filling the role of) the metrics.ConcurrentStatistics
// type the teacher's internal/concurrent/pool.go already referenced
// structurally.
type ConcurrentStatistics struct {
	WorkersAlive   atomic.Int64
	WorkersCreated atomic.Int64
	WorkersKilled  atomic.Int64

	TasksSubmitted atomic.Int64
	TasksConsumed  atomic.Int64
	TasksRejected  atomic.Int64
	TasksPanic     atomic.Int64

	QueueDepthHigh   atomic.Int64
	QueueDepthNormal atomic.Int64
	QueueDepthLow    atomic.Int64

	QueueWaitTime  *BoundHistogram
	ExecutionTime  *BoundHistogram
}

// NewConcurrentStatistics creates a zeroed statistics bundle for one Pool.
func NewConcurrentStatistics() *ConcurrentStatistics {
	return &ConcurrentStatistics{
		QueueWaitTime: NewHistogram(),
		ExecutionTime: NewHistogram(),
	}
}

// TimerStatistics is the statistics bundle for the process-wide timer service.
type TimerStatistics struct {
	TimersLive     atomic.Int64
	TimersFired    atomic.Int64
	TimersCanceled atomic.Int64
}

// NewTimerStatistics creates a zeroed timer-service statistics bundle.
func NewTimerStatistics() *TimerStatistics { return &TimerStatistics{} }

// WaitStatistics is the statistics bundle for the process-wide wait service.
type WaitStatistics struct {
	BucketsLive    atomic.Int64
	WaitsLive      atomic.Int64
	WaitsSignaled  atomic.Int64
	WaitsTimedOut  atomic.Int64
	WaitsStale     atomic.Int64
	BucketsMerged  atomic.Int64
}

// NewWaitStatistics creates a zeroed wait-service statistics bundle.
func NewWaitStatistics() *WaitStatistics { return &WaitStatistics{} }

// IOStatistics is the statistics bundle for the process-wide I/O pump.
type IOStatistics struct {
	ObjectsLive        atomic.Int64
	CompletionsPosted  atomic.Int64
	CompletionsSkipped atomic.Int64
}

// NewIOStatistics creates a zeroed I/O-pump statistics bundle.
func NewIOStatistics() *IOStatistics { return &IOStatistics{} }

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
	"io"

	"github.com/lindb/threadpool/internal/concurrent"
)

// Priority is an Object's dispatch priority, honoured only when
// Environ.Version is 3 (spec.md §6).
type Priority = concurrent.Priority

const (
	PriorityHigh   = concurrent.PriorityHigh
	PriorityNormal = concurrent.PriorityNormal
	PriorityLow    = concurrent.PriorityLow
)

// Environ is the environment block recognised at allocation time
// (spec.md §6 "Environment block fields").
type Environ struct {
	Pool                 *Pool
	Group                *CleanupGroup
	GroupCancelCallback  func(objectCtx, groupCtx any)
	FinalizationCallback func(objectCtx, finalizationCtx any)
	FinalizationContext  any
	ActivationContext    any
	LongFunction         bool
	RaceDLL              io.Closer
	Persistent           bool
	Version              int
	Priority             Priority
}

func (e *Environ) toInternal() *concurrent.Environ {
	if e == nil {
		return nil
	}
	ce := &concurrent.Environ{
		GroupCancelCallback:  e.GroupCancelCallback,
		FinalizationCallback: e.FinalizationCallback,
		FinalizationContext:  e.FinalizationContext,
		ActivationContext:    e.ActivationContext,
		LongFunction:         e.LongFunction,
		RaceDLL:              e.RaceDLL,
		Persistent:           e.Persistent,
		Version:              e.Version,
		Priority:             e.Priority,
	}
	if e.Pool != nil {
		ce.Pool = e.Pool.p
	}
	if e.Group != nil {
		ce.Group = e.Group.g
	}
	return ce
}

func (e *Environ) pool() *concurrent.Pool {
	if e == nil || e.Pool == nil {
		return nil
	}
	return e.Pool.p
}

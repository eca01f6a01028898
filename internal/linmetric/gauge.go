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

// Gauge is a last-value sample, used for point-in-time host metrics
// (CPU/memory/disk percentages) that a histogram's distribution
// shape would be the wrong fit for.
type Gauge struct {
	value atomic.Float64
}

// NewGauge creates a zeroed Gauge.
func NewGauge() *Gauge { return &Gauge{} }

// Update sets the gauge's current value.
func (g *Gauge) Update(v float64) { g.value.Store(v) }

// Get returns the gauge's current value.
func (g *Gauge) Get() float64 { return g.value.Load() }

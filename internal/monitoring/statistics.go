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

package monitoring

import (
	"go.uber.org/atomic"

	"github.com/lindb/threadpool/internal/linmetric"
)

// SystemStatistics is the host-resource gauge bundle SystemCollector
// fills in, read back by the admin API's system-state route.
type SystemStatistics struct {
	CPUIdle           *linmetric.Gauge
	CPUUser           *linmetric.Gauge
	MemoryUsedPercent *linmetric.Gauge
	DiskUsedPercent   *linmetric.Gauge
	NetBytesSent      atomic.Int64
	NetBytesRecv      atomic.Int64
}

// NewSystemStatistics creates a zeroed SystemStatistics bundle.
func NewSystemStatistics() *SystemStatistics {
	return &SystemStatistics{
		CPUIdle:           linmetric.NewGauge(),
		CPUUser:           linmetric.NewGauge(),
		MemoryUsedPercent: linmetric.NewGauge(),
		DiskUsedPercent:   linmetric.NewGauge(),
	}
}

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

package api

import (
	"github.com/gin-gonic/gin"

	httppkg "github.com/lindb/common/pkg/http"

	"github.com/lindb/threadpool/internal/monitoring"
)

// SystemStatePath returns the host resource usage sampled by the
// process's SystemCollector.
var SystemStatePath = "/state/system"

// systemState is the wire shape for SystemStatePath.
type systemState struct {
	CPUIdle           float64 `json:"cpuIdle"`
	CPUUser           float64 `json:"cpuUser"`
	MemoryUsedPercent float64 `json:"memoryUsedPercent"`
	DiskUsedPercent   float64 `json:"diskUsedPercent"`
	NetBytesSent      int64   `json:"netBytesSent"`
	NetBytesRecv      int64   `json:"netBytesRecv"`
}

// SystemAPI represents host resource state explore REST api.
type SystemAPI struct {
	stats *monitoring.SystemStatistics
}

// NewSystemAPI creates a SystemAPI instance reading from stats.
func NewSystemAPI(stats *monitoring.SystemStatistics) *SystemAPI {
	return &SystemAPI{stats: stats}
}

// Register adds the system state url route.
func (api *SystemAPI) Register(route gin.IRoutes) {
	route.GET(SystemStatePath, api.GetSystemState)
}

// GetSystemState returns the most recently sampled host resource usage.
func (api *SystemAPI) GetSystemState(c *gin.Context) {
	httppkg.OK(c, systemState{
		CPUIdle:           api.stats.CPUIdle.Get(),
		CPUUser:           api.stats.CPUUser.Get(),
		MemoryUsedPercent: api.stats.MemoryUsedPercent.Get(),
		DiskUsedPercent:   api.stats.DiskUsedPercent.Get(),
		NetBytesSent:      api.stats.NetBytesSent.Load(),
		NetBytesRecv:      api.stats.NetBytesRecv.Load(),
	})
}

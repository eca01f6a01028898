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

// Package monitoring samples host CPU/memory/disk/network usage for
// the admin API's system-state route. Pool sizing does not read it.
package monitoring

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/lindb/common/pkg/logger"
)

// CPUStat is the host CPU utilization this package samples, a
// narrower replacement for the dropped models.CPUStat.
type CPUStat struct {
	Idle float64
	User float64
	Sys  float64
}

// GetCPUStat samples aggregate CPU utilization over a short window.
func GetCPUStat(ctx context.Context) (*CPUStat, error) {
	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	if len(percentages) == 0 {
		return &CPUStat{Idle: 100}, nil
	}
	used := percentages[0]
	return &CPUStat{Idle: 100 - used, User: used, Sys: 0}, nil
}

// GetNetStat samples per-interface network I/O counters.
func GetNetStat(ctx context.Context) ([]net.IOCountersStat, error) {
	return net.IOCountersWithContext(ctx, true)
}

// collectInterval is how often the background Run loop samples.
const collectInterval = 10 * time.Second

// SystemCollector periodically samples host resource usage into
// SystemStatistics, and is driven from cmd/tpctl's run subcommand.
// Each *StatGetter field is overridable, letting tests exercise the
// collector's error-handling path without a real host dependency.
type SystemCollector struct {
	ctx    context.Context
	dir    string
	stats  *SystemStatistics
	logger logger.Logger

	MemoryStatGetter    func() (*mem.VirtualMemoryStat, error)
	CPUStatGetter       func(ctx context.Context) (*CPUStat, error)
	DiskUsageStatGetter func(ctx context.Context, path string) (*disk.UsageStat, error)
	NetStatGetter       func(ctx context.Context) ([]net.IOCountersStat, error)
}

// NewSystemCollector creates a SystemCollector sampling dir's
// filesystem and the host's CPU/memory/network into stats.
func NewSystemCollector(ctx context.Context, dir string, stats *SystemStatistics) *SystemCollector {
	return &SystemCollector{
		ctx:                 ctx,
		dir:                 dir,
		stats:               stats,
		logger:              logger.GetLogger("Monitoring", "SystemCollector"),
		MemoryStatGetter:    mem.VirtualMemory,
		CPUStatGetter:       GetCPUStat,
		DiskUsageStatGetter: disk.UsageWithContext,
		NetStatGetter:       GetNetStat,
	}
}

// Run samples host usage every collectInterval until the context is
// cancelled.
func (c *SystemCollector) Run() {
	ticker := time.NewTicker(collectInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

// collect samples each source once, logging (but not failing on) any
// single source's error so the others still get recorded.
func (c *SystemCollector) collect() {
	if memStat, err := c.MemoryStatGetter(); err != nil {
		c.logger.Error("get memory stat", logger.Error(err))
	} else {
		c.stats.MemoryUsedPercent.Update(memStat.UsedPercent)
	}

	if cpuStat, err := c.CPUStatGetter(c.ctx); err != nil {
		c.logger.Error("get cpu stat", logger.Error(err))
	} else {
		c.stats.CPUIdle.Update(cpuStat.Idle)
		c.stats.CPUUser.Update(cpuStat.User)
	}

	if diskStat, err := c.DiskUsageStatGetter(c.ctx, c.dir); err != nil {
		c.logger.Error("get disk usage stat", logger.Error(err))
	} else {
		c.stats.DiskUsedPercent.Update(diskStat.UsedPercent)
	}

	if netStats, err := c.NetStatGetter(c.ctx); err != nil {
		c.logger.Error("get net stat", logger.Error(err))
	} else {
		var sent, recv uint64
		for _, s := range netStats {
			sent += s.BytesSent
			recv += s.BytesRecv
		}
		c.stats.NetBytesSent.Store(int64(sent))
		c.stats.NetBytesRecv.Store(int64(recv))
	}
}

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
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	httppkg "github.com/lindb/common/pkg/http"
	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/threadpool/threadpool"
)

var (
	// PoolsPath lists every registered pool's current state.
	PoolsPath = "/state/pools"
	// PoolPath returns one pool's current state.
	PoolPath = "/state/pools/:name"
	// PoolMaxThreadsPath mutates a pool's upper worker bound.
	PoolMaxThreadsPath = "/pools/:name/max-threads"
)

// poolState is the wire shape returned for one registered Pool.
type poolState struct {
	Name          string `json:"name"`
	Workers       int    `json:"workers"`
	BusyWorkers   int    `json:"busyWorkers"`
	QueueHigh     int    `json:"queueHigh"`
	QueueNormal   int    `json:"queueNormal"`
	QueueLow      int    `json:"queueLow"`
	TasksConsumed int64  `json:"tasksConsumed"`
	TasksRejected int64  `json:"tasksRejected"`
	TasksPanic    int64  `json:"tasksPanic"`
}

// setMaxThreadsParam is the request body for PoolMaxThreadsPath.
type setMaxThreadsParam struct {
	Max int `json:"max" binding:"required,min=1"`
}

// PoolAPI represents pool state explore and control REST api.
type PoolAPI struct {
	validate *validator.Validate
	logger   logger.Logger
}

// NewPoolAPI creates a PoolAPI instance.
func NewPoolAPI() *PoolAPI {
	return &PoolAPI{
		validate: validator.New(),
		logger:   logger.GetLogger("API", "PoolAPI"),
	}
}

// Register adds pool state url routes.
func (api *PoolAPI) Register(route gin.IRoutes) {
	route.GET(PoolsPath, api.ListPools)
	route.GET(PoolPath, api.GetPool)
	route.PUT(PoolMaxThreadsPath, api.SetMaxThreads)
}

// ListPools returns every registered pool's current state.
func (api *PoolAPI) ListPools(c *gin.Context) {
	pools := threadpool.ListPools()
	rs := make([]poolState, 0, len(pools))
	for _, p := range pools {
		rs = append(rs, toPoolState(p))
	}
	httppkg.OK(c, rs)
}

// GetPool returns one registered pool's current state.
func (api *PoolAPI) GetPool(c *gin.Context) {
	name := c.Param("name")
	p, ok := threadpool.LookupPool(name)
	if !ok {
		httppkg.Error(c, fmt.Errorf("pool not found: %s", name))
		return
	}
	httppkg.OK(c, toPoolState(p))
}

// SetMaxThreads sets a registered pool's upper worker bound.
func (api *PoolAPI) SetMaxThreads(c *gin.Context) {
	name := c.Param("name")
	p, ok := threadpool.LookupPool(name)
	if !ok {
		httppkg.Error(c, fmt.Errorf("pool not found: %s", name))
		return
	}
	var param setMaxThreadsParam
	body, err := c.GetRawData()
	if err != nil {
		httppkg.Error(c, err)
		return
	}
	if err := json.Unmarshal(body, &param); err != nil {
		httppkg.Error(c, err)
		return
	}
	if err := api.validate.Struct(&param); err != nil {
		httppkg.Error(c, err)
		return
	}
	if err := p.SetMaxThreads(param.Max); err != nil {
		api.logger.Error("set pool max threads", logger.String("pool", name), logger.Error(err))
		httppkg.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toPoolState(p *threadpool.Pool) poolState {
	workers, busy := p.WorkerCounts()
	high, normal, low := p.QueueDepths()
	stats := p.Stats()
	return poolState{
		Name:          p.Name(),
		Workers:       workers,
		BusyWorkers:   busy,
		QueueHigh:     high,
		QueueNormal:   normal,
		QueueLow:      low,
		TasksConsumed: stats.TasksConsumed.Load(),
		TasksRejected: stats.TasksRejected.Load(),
		TasksPanic:    stats.TasksPanic.Load(),
	}
}

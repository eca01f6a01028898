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

// Package client is the admin HTTP client cmd/tpctl drives: a single
// process's state, not a cluster of nodes, so there is no
// fetch-by-node fan-out here.
package client

import (
	"fmt"

	resty "github.com/go-resty/resty/v2"

	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/threadpool/config"
	"github.com/lindb/threadpool/pkg/http/middleware"
)

// PoolState mirrors the admin API's pool state wire shape.
type PoolState struct {
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

// ObjectsState mirrors the admin API's process-wide object state wire shape.
type ObjectsState struct {
	Timer struct {
		Live     int64 `json:"live"`
		Fired    int64 `json:"fired"`
		Canceled int64 `json:"canceled"`
	} `json:"timer"`
	Wait struct {
		BucketsLive   int64 `json:"bucketsLive"`
		WaitsLive     int64 `json:"waitsLive"`
		WaitsSignaled int64 `json:"waitsSignaled"`
		WaitsTimedOut int64 `json:"waitsTimedOut"`
		WaitsStale    int64 `json:"waitsStale"`
		BucketsMerged int64 `json:"bucketsMerged"`
	} `json:"wait"`
	IO struct {
		ObjectsLive        int64 `json:"objectsLive"`
		CompletionsPosted  int64 `json:"completionsPosted"`
		CompletionsSkipped int64 `json:"completionsSkipped"`
	} `json:"io"`
}

// AdminCli queries a running process's admin HTTP API.
type AdminCli interface {
	// ListPools fetches every registered pool's current state.
	ListPools() ([]PoolState, error)
	// ObjectsState fetches the process-wide timer/wait/I/O state.
	ObjectsState() (*ObjectsState, error)
	// SetMaxThreads mutates a pool's upper worker bound.
	SetMaxThreads(pool string, max int) error
}

// adminCli implements AdminCli against one admin server address.
type adminCli struct {
	address string
	token   string
	client  *resty.Client
	logger  logger.Logger
}

// NewAdminCli creates an AdminCli targeting address (e.g. "http://127.0.0.1:2892")
// authenticating as user.
func NewAdminCli(address string, user config.User) (AdminCli, error) {
	token, err := middleware.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &adminCli{
		address: address,
		token:   token,
		client:  resty.New(),
		logger:  logger.GetLogger("Client", "Admin"),
	}, nil
}

// ListPools fetches every registered pool's current state.
func (cli *adminCli) ListPools() ([]PoolState, error) {
	var rs []PoolState
	resp, err := cli.client.R().
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", cli.token).
		SetResult(&rs).
		Get(cli.address + "/api/v1/state/pools")
	if err != nil {
		cli.logger.Error("list pools", logger.String("address", cli.address), logger.Error(err))
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list pools: %s", resp.Status())
	}
	return rs, nil
}

// ObjectsState fetches the process-wide timer/wait/I/O state.
func (cli *adminCli) ObjectsState() (*ObjectsState, error) {
	var rs ObjectsState
	resp, err := cli.client.R().
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", cli.token).
		SetResult(&rs).
		Get(cli.address + "/api/v1/state/objects")
	if err != nil {
		cli.logger.Error("get objects state", logger.String("address", cli.address), logger.Error(err))
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get objects state: %s", resp.Status())
	}
	return &rs, nil
}

// SetMaxThreads mutates a pool's upper worker bound.
func (cli *adminCli) SetMaxThreads(pool string, max int) error {
	resp, err := cli.client.R().
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", cli.token).
		SetBody(map[string]int{"max": max}).
		Put(fmt.Sprintf("%s/api/v1/pools/%s/max-threads", cli.address, pool))
	if err != nil {
		cli.logger.Error("set max threads", logger.String("pool", pool), logger.Error(err))
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("set max threads: %s", resp.Status())
	}
	return nil
}

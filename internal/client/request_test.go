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

package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lindb/threadpool/config"
)

func TestAdminCli_ListPools(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/v1/state/pools", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]PoolState{
			{Name: "default", Workers: 2, BusyWorkers: 1, TasksConsumed: 10},
		})
	}))
	defer server.Close()

	user := config.User{UserName: "admin", Password: "admin123"}
	cli, err := NewAdminCli(server.URL, user)
	assert.NoError(t, err)

	pools, err := cli.ListPools()
	assert.NoError(t, err)
	assert.Len(t, pools, 1)
	assert.Equal(t, "default", pools[0].Name)
	assert.Equal(t, int64(10), pools[0].TasksConsumed)
	assert.True(t, len(gotAuth) > len("Bearer "))
}

func TestAdminCli_SetMaxThreadsErrorOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/pools/default/max-threads", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	user := config.User{UserName: "admin", Password: "admin123"}
	cli, err := NewAdminCli(server.URL, user)
	assert.NoError(t, err)

	err = cli.SetMaxThreads("default", 8)
	assert.Error(t, err)
}

func TestAdminCli_ObjectsState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/state/objects", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		var state ObjectsState
		state.Timer.Live = 3
		state.Wait.BucketsLive = 1
		state.IO.ObjectsLive = 2
		_ = json.NewEncoder(w).Encode(state)
	}))
	defer server.Close()

	user := config.User{UserName: "admin", Password: "admin123"}
	cli, err := NewAdminCli(server.URL, user)
	assert.NoError(t, err)

	state, err := cli.ObjectsState()
	assert.NoError(t, err)
	assert.Equal(t, int64(3), state.Timer.Live)
	assert.Equal(t, int64(1), state.Wait.BucketsLive)
	assert.Equal(t, int64(2), state.IO.ObjectsLive)
}

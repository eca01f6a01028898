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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lindb/threadpool/config"
	"github.com/lindb/threadpool/internal/monitoring"
	"github.com/lindb/threadpool/pkg/http/middleware"
	"github.com/lindb/threadpool/threadpool"
)

func TestRouter_HealthCheckIsUnauthenticated(t *testing.T) {
	user := config.User{UserName: "admin", Password: "admin123"}
	engine := NewRouter(user, monitoring.NewSystemStatistics())

	req := httptest.NewRequest(http.MethodGet, "/health-check", nil)
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_StateRoutesRequireBearerToken(t *testing.T) {
	user := config.User{UserName: "admin", Password: "admin123"}
	engine := NewRouter(user, monitoring.NewSystemStatistics())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state/pools", nil)
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	token, err := middleware.GenerateToken(user)
	assert.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/state/pools", nil)
	req.Header.Set("Authorization", token)
	rr = httptest.NewRecorder()
	engine.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_UnacceptableContentTypeRejected(t *testing.T) {
	user := config.User{UserName: "admin", Password: "admin123"}
	engine := NewRouter(user, monitoring.NewSystemStatistics())

	token, err := middleware.GenerateToken(user)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state/objects", nil)
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept", "application/xml")
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotAcceptable, rr.Code)
}

func Test_toPoolState(t *testing.T) {
	p := threadpool.NewPool("router-test-pool")
	defer p.Release()
	assert.NoError(t, p.SetMaxThreads(4))

	s := toPoolState(p)
	assert.Equal(t, "router-test-pool", s.Name)
	workers, busy := p.WorkerCounts()
	assert.Equal(t, workers, s.Workers)
	assert.Equal(t, busy, s.BusyWorkers)
}

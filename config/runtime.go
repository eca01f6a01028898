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

package config

import (
	"fmt"
	"time"

	"github.com/lindb/common/pkg/logger"
	"github.com/lindb/common/pkg/ltoml"
)

// Pool represents the default Pool's sizing and timing configuration.
type Pool struct {
	MinThreads         int            `env:"MIN_THREADS" toml:"min-threads"`
	MaxThreads         int            `env:"MAX_THREADS" toml:"max-threads"`
	IdleTimeout        ltoml.Duration `env:"IDLE_TIMEOUT" toml:"idle-timeout"`
	StackReserve       ltoml.Size     `env:"STACK_RESERVE" toml:"stack-reserve"`
	StackCommit        ltoml.Size     `env:"STACK_COMMIT" toml:"stack-commit"`
	WaitBucketCapacity int            `env:"WAIT_BUCKET_CAPACITY" toml:"wait-bucket-capacity"`
	TimerWindowDefault ltoml.Duration `env:"TIMER_WINDOW_DEFAULT" toml:"timer-window-default"`
}

// TOML returns Pool's toml config string.
func (p *Pool) TOML() string {
	return fmt.Sprintf(`
## Worker bounds for the default Pool.
## Default: %d
## Env: LINDB_RUNTIME_POOL_MIN_THREADS
min-threads = %d
## Default: %d
## Env: LINDB_RUNTIME_POOL_MAX_THREADS
max-threads = %d
## How long an idle worker waits before exiting, subject to min-threads.
## Not applied: pool workers use a fixed 5s idle timeout.
## Default: %s
## Env: LINDB_RUNTIME_POOL_IDLE_TIMEOUT
idle-timeout = "%s"
## Stack reserve/commit reported by QueryStackInformation (introspection only).
## Not applied: tpctl run does not pass these to the default Pool.
## Default: %s
## Env: LINDB_RUNTIME_POOL_STACK_RESERVE
stack-reserve = "%s"
## Default: %s
## Env: LINDB_RUNTIME_POOL_STACK_COMMIT
stack-commit = "%s"
## Members per wait bucket before a split is considered.
## Not applied: wait buckets use a fixed limit of 63 handles, one of
## them the bucket's own wake event.
## Default: %d
## Env: LINDB_RUNTIME_POOL_WAIT_BUCKET_CAPACITY
wait-bucket-capacity = %d
## Default coalescing window applied when a Timer is armed without
## an explicit window.
## Not applied: a Timer armed without a window gets none.
## Default: %s
## Env: LINDB_RUNTIME_POOL_TIMER_WINDOW_DEFAULT
timer-window-default = "%s"`,
		p.MinThreads, p.MinThreads,
		p.MaxThreads, p.MaxThreads,
		p.IdleTimeout.String(), p.IdleTimeout.String(),
		p.StackReserve.String(), p.StackReserve.String(),
		p.StackCommit.String(), p.StackCommit.String(),
		p.WaitBucketCapacity, p.WaitBucketCapacity,
		p.TimerWindowDefault.String(), p.TimerWindowDefault.String(),
	)
}

// AdminHTTP represents the admin introspection server's configuration.
type AdminHTTP struct {
	Port         uint16         `env:"PORT" toml:"port"`
	IdleTimeout  ltoml.Duration `env:"IDLE_TIMEOUT" toml:"idle-timeout"`
	ReadTimeout  ltoml.Duration `env:"READ_TIMEOUT" toml:"read-timeout"`
	WriteTimeout ltoml.Duration `env:"WRITE_TIMEOUT" toml:"write-timeout"`
}

// TOML returns AdminHTTP's toml config string.
func (h *AdminHTTP) TOML() string {
	return fmt.Sprintf(`
## Port the admin introspection server listens on.
## Default: %d
## Env: LINDB_RUNTIME_ADMIN_HTTP_PORT
port = %d
## Default: %s
## Env: LINDB_RUNTIME_ADMIN_HTTP_IDLE_TIMEOUT
idle-timeout = "%s"
## Default: %s
## Env: LINDB_RUNTIME_ADMIN_HTTP_READ_TIMEOUT
read-timeout = "%s"
## Default: %s
## Env: LINDB_RUNTIME_ADMIN_HTTP_WRITE_TIMEOUT
write-timeout = "%s"`,
		h.Port, h.Port,
		h.IdleTimeout.String(), h.IdleTimeout.String(),
		h.ReadTimeout.String(), h.ReadTimeout.String(),
		h.WriteTimeout.String(), h.WriteTimeout.String(),
	)
}

// RuntimeConfig is the top-level configuration for a threadpool runtime
// process: the default Pool's sizing, the admin HTTP server, and logging.
type RuntimeConfig struct {
	Pool    Pool           `envPrefix:"POOL_" toml:"pool"`
	Admin   AdminHTTP      `envPrefix:"ADMIN_HTTP_" toml:"admin-http"`
	User    User           `envPrefix:"USER_" toml:"user"`
	Logging logger.Setting `envPrefix:"LINDB_LOGGING_" toml:"logging"`
}

// TOML returns RuntimeConfig's toml config string.
func (c *RuntimeConfig) TOML() string {
	return fmt.Sprintf(`## Pool related configuration.
[pool]%s

## Admin HTTP related configuration.
[admin-http]%s

## Admin credential.
[user]%s
%s`,
		c.Pool.TOML(),
		c.Admin.TOML(),
		c.User.TOML(),
		c.Logging.TOML("LINDB"),
	)
}

// NewDefaultPool returns a new default Pool config.
func NewDefaultPool() *Pool {
	return &Pool{
		MinThreads:         0,
		MaxThreads:         500,
		IdleTimeout:        ltoml.Duration(5 * time.Second),
		StackReserve:       ltoml.Size(1024 * 1024),
		StackCommit:        ltoml.Size(64 * 1024),
		WaitBucketCapacity: 63,
		TimerWindowDefault: ltoml.Duration(0),
	}
}

// NewDefaultAdminHTTP returns a new default AdminHTTP config.
func NewDefaultAdminHTTP() *AdminHTTP {
	return &AdminHTTP{
		Port:         2892,
		IdleTimeout:  ltoml.Duration(time.Minute * 2),
		ReadTimeout:  ltoml.Duration(time.Second * 5),
		WriteTimeout: ltoml.Duration(time.Second * 5),
	}
}

// NewDefaultRuntimeConfig returns a new default RuntimeConfig.
func NewDefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Pool:  *NewDefaultPool(),
		Admin: *NewDefaultAdminHTTP(),
		User:  *NewDefaultUser(),
	}
}

// NewDefaultRuntimeTOML creates the runtime's default toml config string.
func NewDefaultRuntimeTOML() string {
	return NewDefaultRuntimeConfig().TOML()
}

// checkPoolCfg validates and fills in zero-valued Pool fields.
func checkPoolCfg(poolCfg *Pool) error {
	def := NewDefaultPool()
	if poolCfg.MaxThreads <= 0 {
		poolCfg.MaxThreads = def.MaxThreads
	}
	if poolCfg.MinThreads < 0 || poolCfg.MinThreads > poolCfg.MaxThreads {
		return fmt.Errorf("pool min-threads must be in [0, max-threads]")
	}
	if poolCfg.IdleTimeout <= 0 {
		poolCfg.IdleTimeout = def.IdleTimeout
	}
	if poolCfg.WaitBucketCapacity <= 0 {
		poolCfg.WaitBucketCapacity = def.WaitBucketCapacity
	}
	return nil
}

// checkAdminHTTPCfg validates and fills in zero-valued AdminHTTP fields.
func checkAdminHTTPCfg(httpCfg *AdminHTTP) error {
	def := NewDefaultAdminHTTP()
	if httpCfg.Port == 0 {
		httpCfg.Port = def.Port
	}
	if httpCfg.IdleTimeout <= 0 {
		httpCfg.IdleTimeout = def.IdleTimeout
	}
	if httpCfg.ReadTimeout <= 0 {
		httpCfg.ReadTimeout = def.ReadTimeout
	}
	if httpCfg.WriteTimeout <= 0 {
		httpCfg.WriteTimeout = def.WriteTimeout
	}
	return nil
}

// checkUserCfg fills in a zero-valued User with the default credential.
func checkUserCfg(userCfg *User) {
	def := NewDefaultUser()
	if userCfg.UserName == "" {
		userCfg.UserName = def.UserName
	}
	if userCfg.Password == "" {
		userCfg.Password = def.Password
	}
}

// CheckRuntimeCfg validates a loaded RuntimeConfig, filling defaults
// for zero-valued fields.
func CheckRuntimeCfg(cfg *RuntimeConfig) error {
	if err := checkPoolCfg(&cfg.Pool); err != nil {
		return err
	}
	if err := checkAdminHTTPCfg(&cfg.Admin); err != nil {
		return err
	}
	checkUserCfg(&cfg.User)
	return nil
}

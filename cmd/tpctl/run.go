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

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lindb/common/pkg/fileutil"
	"github.com/lindb/common/pkg/ltoml"
	"github.com/spf13/cobra"

	"github.com/lindb/common/pkg/logger"

	"github.com/lindb/threadpool/config"
	"github.com/lindb/threadpool/internal/api"
	"github.com/lindb/threadpool/internal/monitoring"
	"github.com/lindb/threadpool/threadpool"
)

const defaultRunCfgFile = "tpctl.toml"

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a threadpool process with its admin API",
		RunE:  runRuntime,
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file path, default is "+defaultRunCfgFile)
	return cmd
}

// newInitConfigCmd writes the runtime's default config to disk.
func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "create a new default tpctl config",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := cfgFile
			if path == "" {
				path = defaultRunCfgFile
			}
			return ltoml.WriteConfig(path, config.NewDefaultRuntimeTOML())
		},
	}
}

func loadRuntimeConfig() (*config.RuntimeConfig, error) {
	cfg := config.NewDefaultRuntimeConfig()
	path := cfgFile
	if path == "" {
		path = defaultRunCfgFile
	}
	if fileutil.Exist(path) {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := config.CheckRuntimeCfg(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runRuntime(_ *cobra.Command, _ []string) error {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}
	if err := logger.InitLogger(cfg.Logging, "tpctl.log"); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pool := threadpool.Default()
	pool.SetMinThreads(cfg.Pool.MinThreads)
	if err := pool.SetMaxThreads(cfg.Pool.MaxThreads); err != nil {
		return fmt.Errorf("set default pool max threads: %w", err)
	}

	ctx := newCtxWithSignals()

	stats := monitoring.NewSystemStatistics()
	collector := monitoring.NewSystemCollector(ctx, ".", stats)
	go collector.Run()

	engine := api.NewRouter(cfg.User, stats)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:      api.NewGzipHandler(engine),
		IdleTimeout:  time.Duration(cfg.Admin.IdleTimeout),
		ReadTimeout:  time.Duration(cfg.Admin.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Admin.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	log := logger.GetLogger("CMD", "Run")
	log.Info("admin API listening", logger.Int("port", int(cfg.Admin.Port)))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

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

// Command tpctl runs and inspects a threadpool runtime process: start
// one with its admin API (run), inspect a running one (status),
// hammer it with synthetic load (bench), or drive it interactively
// (repl).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	adminAddr string
	adminUser string
	adminPass string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tpctl",
		Short: "Inspect and drive a threadpool runtime process",
	}

	root.PersistentFlags().StringVar(&adminAddr, "addr", "http://127.0.0.1:2892",
		"admin API address")
	root.PersistentFlags().StringVar(&adminUser, "user", "admin", "admin credential username")
	root.PersistentFlags().StringVar(&adminPass, "password", "admin123", "admin credential password")

	root.AddCommand(
		newRunCmd(),
		newInitConfigCmd(),
		newStatusCmd(),
		newBenchCmd(),
		newReplCmd(),
	)
	return root
}

// newCtxWithSignals returns a context cancelled on SIGINT/SIGTERM.
func newCtxWithSignals() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx
}

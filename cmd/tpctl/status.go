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
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lindb/threadpool/config"
	"github.com/lindb/threadpool/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "print the current pool and object state of a running process",
		RunE:  runStatus,
	}
}

func newAdminCli() (client.AdminCli, error) {
	return client.NewAdminCli(adminAddr, config.User{UserName: adminUser, Password: adminPass})
}

func runStatus(_ *cobra.Command, _ []string) error {
	cli, err := newAdminCli()
	if err != nil {
		return err
	}

	pools, err := cli.ListPools()
	if err != nil {
		return err
	}
	objects, err := cli.ObjectsState()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"pool", "workers", "busy", "high", "normal", "low", "consumed", "rejected", "panics"})
	for _, p := range pools {
		row := table.Row{p.Name, p.Workers, p.BusyWorkers, p.QueueHigh, p.QueueNormal, p.QueueLow,
			p.TasksConsumed, p.TasksRejected, p.TasksPanic}
		if p.TasksPanic > 0 {
			row[8] = color.RedString("%d", p.TasksPanic)
		}
		t.AppendRow(row)
	}
	t.Render()

	fmt.Println()
	fmt.Printf("%s timers live=%d fired=%d canceled=%d\n", color.CyanString("timer"),
		objects.Timer.Live, objects.Timer.Fired, objects.Timer.Canceled)
	fmt.Printf("%s buckets=%d waits=%d signaled=%d timedOut=%d stale=%d merged=%d\n", color.CyanString("wait"),
		objects.Wait.BucketsLive, objects.Wait.WaitsLive, objects.Wait.WaitsSignaled,
		objects.Wait.WaitsTimedOut, objects.Wait.WaitsStale, objects.Wait.BucketsMerged)
	fmt.Printf("%s live=%d posted=%d skipped=%d\n", color.CyanString("io"),
		objects.IO.ObjectsLive, objects.IO.CompletionsPosted, objects.IO.CompletionsSkipped)

	return nil
}

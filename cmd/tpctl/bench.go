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
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/spf13/cobra"

	"github.com/lindb/threadpool/threadpool"
)

var (
	benchCount     int
	benchPoolMax   int
	benchLongCount int
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "submit synthetic Work to an in-process Pool and report throughput/latency",
		RunE:  runBench,
	}
	cmd.Flags().IntVar(&benchCount, "count", 100000, "number of Work items to submit")
	cmd.Flags().IntVar(&benchPoolMax, "max-threads", 0, "pool max threads (0 = runtime default)")
	cmd.Flags().IntVar(&benchLongCount, "long-count", 0, "number of submissions that call MayRunLong")
	return cmd
}

func runBench(_ *cobra.Command, _ []string) error {
	pool := threadpool.NewPool("bench")
	defer pool.Release()
	if benchPoolMax > 0 {
		if err := pool.SetMaxThreads(benchPoolMax); err != nil {
			return err
		}
	}

	env := &threadpool.Environ{Pool: pool}

	var wg sync.WaitGroup
	wg.Add(benchCount)
	var totalLatency atomic.Int64
	start := time.Now()

	for i := 0; i < benchCount; i++ {
		submitTime := time.Now()
		idx := i
		w, err := threadpool.NewWork(func(inst *threadpool.Instance, _ any, _ any) {
			defer wg.Done()
			if benchLongCount > 0 && idx < benchLongCount {
				_ = inst.MayRunLong()
			}
			totalLatency.Add(int64(time.Since(submitTime)))
		}, nil, env)
		if err != nil {
			return err
		}
		if err := w.Post(); err != nil {
			return err
		}
		w.Release()
	}
	wg.Wait()
	elapsed := time.Since(start)

	fmt.Printf("submitted %d items in %s (%.0f items/sec)\n",
		benchCount, elapsed, float64(benchCount)/elapsed.Seconds())
	fmt.Printf("average queue+execution latency: %s\n",
		time.Duration(totalLatency.Load()/int64(benchCount)))
	return nil
}

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
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"github.com/lindb/threadpool/threadpool"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "interactively submit Work/Timer/Wait objects against an in-process Pool",
		RunE:  runRepl,
	}
}

func runRepl(_ *cobra.Command, _ []string) error {
	pool := threadpool.NewPool("repl")
	defer pool.Release()
	env := &threadpool.Environ{Pool: pool}

	fmt.Println("tpctl repl: work <n>, timer <ms>, wait <ms>, quit")
	p := prompt.New(
		func(line string) { handleReplLine(strings.TrimSpace(line), pool, env) },
		replCompleter,
	)
	p.Run()
	return nil
}

func replCompleter(_ prompt.Document) []prompt.Suggest {
	return []prompt.Suggest{
		{Text: "work", Description: "submit n Work items"},
		{Text: "timer", Description: "arm a one-shot Timer after ms milliseconds"},
		{Text: "wait", Description: "arm a Wait against a fresh Event, signaled after ms milliseconds"},
		{Text: "quit", Description: "exit the repl"},
	}
}

func handleReplLine(line string, pool *threadpool.Pool, env *threadpool.Environ) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "quit", "exit":
		fmt.Println("bye")
		_ = pool
	case "work":
		n := 1
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				n = v
			}
		}
		for i := 0; i < n; i++ {
			idx := i
			w, err := threadpool.NewWork(func(_ *threadpool.Instance, _ any, _ any) {
				fmt.Printf("work %d ran\n", idx)
			}, nil, env)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if err := w.Post(); err != nil {
				fmt.Println("error:", err)
			}
			w.Release()
		}
	case "timer":
		ms := int64(1000)
		if len(fields) > 1 {
			if v, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
				ms = v
			}
		}
		t, err := threadpool.NewTimer(func(_ *threadpool.Instance, _ any, _ any) {
			fmt.Println("timer fired")
		}, nil, env)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		if _, err := t.Set(-ms*int64(time.Millisecond)/100, 0); err != nil {
			fmt.Println("error:", err)
		}
	case "wait":
		ms := int64(1000)
		if len(fields) > 1 {
			if v, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
				ms = v
			}
		}
		ev, err := threadpool.NewEvent()
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		w, err := threadpool.NewWait(func(_ *threadpool.Instance, _ any, result any) {
			fmt.Printf("wait fired: %+v\n", result)
		}, nil, env)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		if _, err := w.Set(ev); err != nil {
			fmt.Println("error:", err)
			return
		}
		go func() {
			time.Sleep(time.Duration(ms) * time.Millisecond)
			_ = ev.Set()
		}()
	default:
		fmt.Println("unknown command:", fields[0])
	}
}

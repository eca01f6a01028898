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

package threadpool

import "github.com/lindb/threadpool/internal/concurrent"

// Instance is the per-invocation state a Callback receives (spec.md
// §6 "Instance (inside a callback)"): it may promote the callback to
// long-running, disassociate it early, or register a cleanup action
// to run once the callback returns.
type Instance = concurrent.Instance

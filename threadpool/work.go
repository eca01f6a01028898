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

// Work is a manually-submitted, repeatable callback (spec.md §6 "Work").
type Work struct {
	o *concurrent.Object
}

// NewWork allocates a Work handle against env.Pool (or the default
// Pool if env is nil or env.Pool is nil).
func NewWork(cb Callback, userData any, env *Environ) (*Work, error) {
	obj, err := concurrent.NewWork(env.pool(), cb, userData, env.toInternal())
	if err != nil {
		return nil, err
	}
	return &Work{o: obj}, nil
}

// Post submits the Work for dispatch (spec.md §6 "post").
func (w *Work) Post() error { return w.o.Submit() }

// Wait blocks until every submission has either completed or been cancelled.
func (w *Work) Wait(cancelPending bool) {
	if cancelPending {
		w.o.Cancel()
	}
	w.o.Wait(false)
}

// Release drops one reference to the Work.
func (w *Work) Release() { w.o.Release() }

// Submit allocates a Work handle and immediately Posts it once,
// mirroring TrySubmitThreadpoolCallback's Simple-Object convenience
// (spec.md §3 "Simple").
func Submit(cb Callback, userData any, env *Environ) error {
	_, err := concurrent.NewSimple(env.pool(), cb, userData, env.toInternal())
	return err
}

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

// CleanupGroup is an unordered membership of handles, released in
// bulk (spec.md §6 "Cleanup Group").
type CleanupGroup struct {
	g *concurrent.Group
}

// NewCleanupGroup allocates an empty Cleanup Group.
func NewCleanupGroup() *CleanupGroup {
	return &CleanupGroup{g: concurrent.NewGroup()}
}

// ReleaseMembers waits for every member to finish, optionally
// cancelling pending (not yet started) submissions first and invoking
// each cancelled member's group-cancel callback with userData (spec.md
// §6 "release_members"). Returns only once every member has settled.
func (g *CleanupGroup) ReleaseMembers(cancelPending bool, userData any) {
	g.g.ReleaseMembers(cancelPending, userData)
}

// MemberCount reports the current membership size.
func (g *CleanupGroup) MemberCount() int { return g.g.MemberCount() }

// Release drops the caller's own reference to the Cleanup Group,
// distinct from ReleaseMembers which settles the members themselves.
func (g *CleanupGroup) Release() { g.g.Release() }

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

package concurrent

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/lindb/common/pkg/logger"
)

// Group is a Cleanup Group: an unordered membership list an Object
// joins at allocation time via Environ.Group, released in bulk by
// ReleaseMembers (spec.md §4.6).
type Group struct {
	ID string

	mu      sync.Mutex
	members map[*Object]struct{}
	logger  logger.Logger

	refCount atomic.Int32
}

// NewGroup creates an empty Cleanup Group.
func NewGroup() *Group {
	g := &Group{
		ID:      uuid.NewString(),
		members: make(map[*Object]struct{}),
		logger:  logger.GetLogger("Concurrent", "Group"),
	}
	g.refCount.Store(1)
	return g
}

// Release drops the caller's own reference to the Group (spec.md §6
// "Cleanup Group release"), distinct from ReleaseMembers which settles
// the members themselves. It is a no-op once the reference has
// already reached zero.
func (g *Group) Release() {
	for {
		n := g.refCount.Load()
		if n <= 0 {
			return
		}
		if g.refCount.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// addMember records obj as belonging to g. Called once, at allocate
// time, under no external lock.
func (g *Group) addMember(obj *Object) {
	g.mu.Lock()
	g.members[obj] = struct{}{}
	g.mu.Unlock()
}

// removeMember drops obj from g, called from Object.destroy once its
// last reference is released.
func (g *Group) removeMember(obj *Object) {
	g.mu.Lock()
	delete(g.members, obj)
	g.mu.Unlock()
}

// ReleaseMembers implements release_group_members (spec.md §4.6): under
// the group lock, try to raise each member's refcount as a protective
// pin against concurrent destruction — if the pre-increment was
// already 0 the Object is being destroyed elsewhere, so it is detached
// and skipped instead of waited on. Survivors have group membership
// cleared and prepare_shutdown called before being moved to a local
// list. Optionally cancel every local member's queued submissions,
// wait for each to finish in group mode, run its GroupCancelCallback
// if it wasn't already shut down, mark it shut down, then release the
// protective pin —
// the caller's own reference from allocation is untouched and must
// still be dropped through the usual Release call.
func (g *Group) ReleaseMembers(cancelPending bool, groupCtx any) {
	g.mu.Lock()
	snapshot := make([]*Object, 0, len(g.members))
	for obj := range g.members {
		if obj.refCount.Inc() == 1 {
			// Pre-increment was 0: already being destroyed elsewhere.
			obj.refCount.Dec()
			obj.group = nil
			delete(g.members, obj)
			continue
		}
		obj.group = nil
		obj.prepareShutdown()
		snapshot = append(snapshot, obj)
		delete(g.members, obj)
	}
	g.mu.Unlock()

	if cancelPending {
		for _, obj := range snapshot {
			obj.cancel()
		}
	}

	for _, obj := range snapshot {
		obj.awaitFinished(true)

		if cancelPending && !obj.shutdown.Load() && obj.env != nil && obj.env.GroupCancelCallback != nil {
			func() {
				defer func() {
					if r := recover(); r != nil {
						g.logger.Error("panic in group cancel callback", logger.Any("panic", r), logger.Stack())
					}
				}()
				obj.env.GroupCancelCallback(obj.userData, groupCtx)
			}()
		}
		obj.shutdownNow()
		obj.release()
	}
}

// MemberCount reports the current membership size, for introspection.
func (g *Group) MemberCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

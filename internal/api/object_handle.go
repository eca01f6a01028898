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

package api

import (
	"github.com/gin-gonic/gin"

	httppkg "github.com/lindb/common/pkg/http"

	"github.com/lindb/threadpool/threadpool"
)

// ObjectsPath returns the process-wide timer/wait/I/O service
// statistics, independent of any one Pool.
var ObjectsPath = "/state/objects"

type timerState struct {
	Live     int64 `json:"live"`
	Fired    int64 `json:"fired"`
	Canceled int64 `json:"canceled"`
}

type waitState struct {
	BucketsLive   int64 `json:"bucketsLive"`
	WaitsLive     int64 `json:"waitsLive"`
	WaitsSignaled int64 `json:"waitsSignaled"`
	WaitsTimedOut int64 `json:"waitsTimedOut"`
	WaitsStale    int64 `json:"waitsStale"`
	BucketsMerged int64 `json:"bucketsMerged"`
}

type ioState struct {
	ObjectsLive        int64 `json:"objectsLive"`
	CompletionsPosted  int64 `json:"completionsPosted"`
	CompletionsSkipped int64 `json:"completionsSkipped"`
}

type objectsState struct {
	Timer timerState `json:"timer"`
	Wait  waitState  `json:"wait"`
	IO    ioState    `json:"io"`
}

// ObjectAPI represents process-wide timer/wait/I/O state explore REST api.
type ObjectAPI struct {
}

// NewObjectAPI creates an ObjectAPI instance.
func NewObjectAPI() *ObjectAPI {
	return &ObjectAPI{}
}

// Register adds the object state url route.
func (api *ObjectAPI) Register(route gin.IRoutes) {
	route.GET(ObjectsPath, api.GetObjectsState)
}

// GetObjectsState returns the current timer/wait/I/O service statistics.
func (api *ObjectAPI) GetObjectsState(c *gin.Context) {
	timerStats := threadpool.TimerStats()
	waitStats := threadpool.WaitStats()
	ioStats := threadpool.IOStats()

	httppkg.OK(c, objectsState{
		Timer: timerState{
			Live:     timerStats.TimersLive.Load(),
			Fired:    timerStats.TimersFired.Load(),
			Canceled: timerStats.TimersCanceled.Load(),
		},
		Wait: waitState{
			BucketsLive:   waitStats.BucketsLive.Load(),
			WaitsLive:     waitStats.WaitsLive.Load(),
			WaitsSignaled: waitStats.WaitsSignaled.Load(),
			WaitsTimedOut: waitStats.WaitsTimedOut.Load(),
			WaitsStale:    waitStats.WaitsStale.Load(),
			BucketsMerged: waitStats.BucketsMerged.Load(),
		},
		IO: ioState{
			ObjectsLive:        ioStats.ObjectsLive.Load(),
			CompletionsPosted:  ioStats.CompletionsPosted.Load(),
			CompletionsSkipped: ioStats.CompletionsSkipped.Load(),
		},
	})
}

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

// Package timeutil converts between time.Time and the 100-nanosecond
// absolute timestamps Timer and Wait operate on (spec.md §3, "absolute
// expiry timestamp (100-ns units)"), and resolves the relative/negative
// timeout convention shared by both kinds.
package timeutil

import "time"

// HundredNanos is the tick unit Timer/Wait absolute timeouts use.
const HundredNanos = 100 * time.Nanosecond

// Now returns the current instant as an absolute 100-ns tick count.
func Now() int64 {
	return ToFileTime(time.Now())
}

// ToFileTime converts t to a 100-ns tick count since the Unix epoch.
func ToFileTime(t time.Time) int64 {
	return t.UnixNano() / int64(HundredNanos)
}

// FromFileTime converts a 100-ns tick count back to a time.Time.
func FromFileTime(ticks int64) time.Time {
	return time.Unix(0, ticks*int64(HundredNanos))
}

// ResolveTimeout applies the relative/negative timeout convention
// shared by Timer.SetEx and Wait.SetEx: a negative value is relative
// to now (the magnitude is the offset in 100-ns ticks); a
// non-negative value is an absolute 100-ns tick count already.
func ResolveTimeout(timeout int64, now int64) int64 {
	if timeout < 0 {
		return now - timeout
	}
	return timeout
}

// AddMillis adds ms milliseconds (expressed as 100-ns ticks) to an
// absolute timeout, used by the Timer service's period arithmetic.
func AddMillis(ticks int64, ms int64) int64 {
	return ticks + ms*10000
}

// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package core

import (
	"github.com/andres-erbsen/clock"
	"go.uber.org/atomic"
)

// LogicalClock issues monotonic, unique-per-instance timestamps for
// directory updates. Two successive calls to Next never return the same
// value, even under concurrent callers, satisfying the "logical timestamp
// provider" contract: a CAS loop over the last-issued value breaks ties
// within the same nanosecond tick by bumping it forward by one.
type LogicalClock struct {
	clk  clock.Clock
	last atomic.Int64
}

// NewLogicalClock creates a LogicalClock backed by clk. Pass clock.New()
// in production and clock.NewMock() in tests.
func NewLogicalClock(clk clock.Clock) *LogicalClock {
	return &LogicalClock{clk: clk}
}

// Next returns the next logical timestamp, strictly greater than every
// previous value this clock has returned.
func (c *LogicalClock) Next() int64 {
	now := c.clk.Now().UnixNano()
	for {
		prev := c.last.Load()
		next := now
		if next <= prev {
			next = prev + 1
		}
		if c.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}

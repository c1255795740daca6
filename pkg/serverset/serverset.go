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

// Package serverset provides a thread-safe iterator over a fixed list of
// server addresses, used to walk a configured list of directory servers
// with bounded retries and an optional shuffle.
package serverset

import (
	"math/rand"

	"go.uber.org/atomic"
)

// Set defines access to a set of servers via iterator.
type Set interface {
	Iter() Iter
}

// Iter iterates over a set of addresses. Exactly one full pass is
// guaranteed; HasNext reports whether any address remains untried.
type Iter interface {
	Addr() string
	HasNext() bool
	Next()
}

// List is a Set over a fixed, optionally-shuffled address list. Each call
// to Iter starts its own independent pass; concurrent Iter calls share
// only the round-robin cursor, not iteration state.
type List struct {
	addrs   []string
	shuffle bool
	cursor  *atomic.Uint32
}

// New creates a List over addrs. When shuffle is true, each Iter call
// walks the addresses in a freshly randomized order instead of the
// configured order.
func New(addrs []string, shuffle bool) *List {
	return &List{addrs: addrs, shuffle: shuffle, cursor: atomic.NewUint32(0)}
}

type listIter struct {
	addrs []string
	i     int
}

// Addr implements Iter.
func (it *listIter) Addr() string { return it.addrs[it.i] }

// HasNext implements Iter.
func (it *listIter) HasNext() bool { return it.i < len(it.addrs) }

// Next implements Iter.
func (it *listIter) Next() { it.i++ }

// Iter returns an iterator over every configured address exactly once.
func (l *List) Iter() Iter {
	addrs := make([]string, len(l.addrs))
	copy(addrs, l.addrs)
	if l.shuffle {
		rand.Shuffle(len(addrs), func(i, j int) { addrs[i], addrs[j] = addrs[j], addrs[i] })
	} else {
		// Rotate the starting point on each successive Iter call of this
		// List; the first pass starts at the first configured address.
		if n := len(addrs); n > 0 {
			start := int(l.cursor.Inc()-1) % n
			addrs = append(addrs[start:], addrs[:start]...)
		}
	}

	return &listIter{addrs: addrs, i: 0}
}

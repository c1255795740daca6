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
package directory

import "sync"

// inbox buffers directory events that arrive while a registration is in
// flight. Event handlers check IsOpen first; if open, they Add and
// return instead of applying in-line. Once the registration request
// completes, CompleteAdding closes the inbox and Drain replays whatever
// arrived, in arrival order.
type inbox struct {
	mu     sync.Mutex
	open   bool
	events []func() error
}

// newInbox creates an open inbox.
func newInbox() *inbox {
	return &inbox{open: true}
}

// IsOpen reports whether the inbox is still buffering.
func (b *inbox) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Add buffers apply, to be run during Drain. No-op if the inbox is closed.
func (b *inbox) Add(apply func() error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return false
	}
	b.events = append(b.events, apply)
	return true
}

// CompleteAdding closes the inbox to further buffering.
func (b *inbox) CompleteAdding() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
}

// Drain runs every buffered apply in arrival order. Must be called after
// CompleteAdding. A failing apply is reported via onError; the drain
// continues regardless, per the non-aborting drain contract.
func (b *inbox) Drain(onError func(err error)) {
	b.mu.Lock()
	events := b.events
	b.events = nil
	b.mu.Unlock()

	for _, apply := range events {
		if err := apply(); err != nil && onError != nil {
			onError(err)
		}
	}
}

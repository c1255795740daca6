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

// Package routing implements the per-message-type subscription index: a
// trie over binding-key tokens whose leaves hold the set of peers
// currently bound to that key, queried on every outbound message.
package routing

import (
	"sync"

	"github.com/gansuranga/zebus/core"
)

// Tree is a binding-key trie for one message type. Readers take per-node
// read locks, so they never block each other; a writer holds the lock of
// only the node it mutates. Safe for concurrent use.
type Tree struct {
	root *node
}

type node struct {
	mu       sync.RWMutex
	children map[string]*node
	tail     *node // the "#" child, matches zero or more remaining tokens.
	peers    map[core.PeerID]bool
}

func newNode() *node {
	return &node{
		children: make(map[string]*node),
		peers:    make(map[core.PeerID]bool),
	}
}

// New creates an empty subscription tree.
func New() *Tree {
	return &Tree{root: newNode()}
}

// Add inserts a binding for peer on key. Idempotent: adding the same
// (peer, key) pair more than once has no additional effect, and a single
// Remove of that pair undoes it.
func (t *Tree) Add(peer core.PeerID, key core.BindingKey) {
	n := t.descend(key, true)
	n.mu.Lock()
	n.peers[peer] = true
	n.mu.Unlock()
}

// descend walks key from the root, creating intermediate nodes on demand
// when create is true. An empty key is equivalent to a leading "#": both
// denote "match everything", so they resolve to the same tail node.
func (t *Tree) descend(key core.BindingKey, create bool) *node {
	n := t.root
	if len(key) == 0 {
		return t.descendTail(n, create)
	}
	for _, tok := range key {
		if tok == "#" {
			return t.descendTail(n, create)
		}
		n.mu.Lock()
		child, ok := n.children[tok]
		if !ok {
			if !create {
				n.mu.Unlock()
				return nil
			}
			child = newNode()
			n.children[tok] = child
		}
		n.mu.Unlock()
		n = child
	}
	return n
}

func (t *Tree) descendTail(n *node, create bool) *node {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.tail == nil {
		if !create {
			return nil
		}
		n.tail = newNode()
	}
	return n.tail
}

// Remove removes a binding for peer on key. Idempotent: removing a binding
// that does not exist is a no-op. The peer disappears from the tree
// entirely once every binding it held has been removed.
func (t *Tree) Remove(peer core.PeerID, key core.BindingKey) {
	n := t.descend(key, false)
	if n == nil {
		return
	}
	n.mu.Lock()
	delete(n.peers, peer)
	n.mu.Unlock()
}

// GetPeers returns every peer with a binding matching routingKey, each
// appearing at most once even if it holds multiple matching bindings.
// Order is unspecified.
func (t *Tree) GetPeers(routingKey core.BindingKey) []core.PeerID {
	seen := make(map[core.PeerID]bool)
	t.collect(t.root, routingKey, seen)
	peers := make([]core.PeerID, 0, len(seen))
	for p := range seen {
		peers = append(peers, p)
	}
	return peers
}

func (t *Tree) collect(n *node, routingKey core.BindingKey, seen map[core.PeerID]bool) {
	if n == nil {
		return
	}

	n.mu.RLock()
	tail := n.tail
	var literalChild, wildcardChild *node
	if len(routingKey) > 0 {
		literalChild = n.children[routingKey[0]]
		wildcardChild = n.children["*"]
	}
	if len(routingKey) == 0 {
		for p := range n.peers {
			seen[p] = true
		}
	}
	n.mu.RUnlock()

	// A "#" child matches the remainder of routingKey regardless of length,
	// including the empty remainder.
	if tail != nil {
		tail.mu.RLock()
		for p := range tail.peers {
			seen[p] = true
		}
		tail.mu.RUnlock()
	}

	if len(routingKey) == 0 {
		return
	}
	t.collect(literalChild, routingKey[1:], seen)
	t.collect(wildcardChild, routingKey[1:], seen)
}

// Stats summarizes a tree for metrics emission.
type Stats struct {
	Peers int
	Nodes int
}

// Stats returns an introspective snapshot of t. Intended for periodic
// metrics gauges, not for the routing hot path.
func (t *Tree) Stats() Stats {
	peers := make(map[core.PeerID]bool)
	nodes := 0
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		n.mu.RLock()
		defer n.mu.RUnlock()
		nodes++
		for p := range n.peers {
			peers[p] = true
		}
		for _, c := range n.children {
			walk(c)
		}
		walk(n.tail)
	}
	walk(t.root)
	return Stats{Peers: len(peers), Nodes: nodes}
}

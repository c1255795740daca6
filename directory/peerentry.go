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

// Package directory maintains the map of known peers and the
// per-message-type subscription trees, and implements the registration
// protocol against the configured directory servers.
package directory

import (
	"sync"

	"github.com/gansuranga/zebus/core"
	"github.com/gansuranga/zebus/routing"
)

// Trees indexes a *routing.Tree by the MessageTypeID it serves. Shared by
// every PeerEntry: entries mutate the trees they have bindings in, but
// never own them -- the map is passed by handle, not by ownership, so the
// lifetime of the index is independent of any one entry's lifetime.
type Trees struct {
	mu    sync.Mutex
	byType map[core.MessageTypeID]*routing.Tree
}

// NewTrees creates an empty Trees index.
func NewTrees() *Trees {
	return &Trees{byType: make(map[core.MessageTypeID]*routing.Tree)}
}

// Get returns the Tree for messageType, creating it if it does not yet exist.
func (t *Trees) Get(messageType core.MessageTypeID) *routing.Tree {
	t.mu.Lock()
	defer t.mu.Unlock()

	tree, ok := t.byType[messageType]
	if !ok {
		tree = routing.New()
		t.byType[messageType] = tree
	}
	return tree
}

// GetPeersHandlingMessage resolves the peers subscribed to binding.
func (t *Trees) GetPeersHandlingMessage(binding core.MessageBinding) []core.PeerID {
	return t.Get(binding.MessageTypeID).GetPeers(binding.RoutingKey)
}

// PeerEntry is the authoritative in-memory record of one known peer: its
// liveness, persistence flag, last-applied subscription timestamp, and the
// per-MessageTypeId binding sets it currently holds in the shared Trees.
type PeerEntry struct {
	trees *Trees

	mu                   sync.Mutex
	peer                 core.Peer
	isPersistent         bool
	timestampUTC         int64
	hasDebuggerAttached  bool
	subscriptionTimestamp int64
	bindings             map[core.MessageTypeID][]core.BindingKey
}

// NewPeerEntry creates a PeerEntry for peer, indexing its bindings into trees.
func NewPeerEntry(peer core.Peer, trees *Trees) *PeerEntry {
	return &PeerEntry{
		peer:     peer,
		trees:    trees,
		bindings: make(map[core.MessageTypeID][]core.BindingKey),
	}
}

// Peer returns the current liveness record.
func (e *PeerEntry) Peer() core.Peer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.peer
}

// SetLiveness updates IsUp/IsResponding if timestamp is not older than the
// entry's stored TimestampUTC. Returns false if the update was dropped as
// out of order.
func (e *PeerEntry) SetLiveness(isUp, isResponding bool, timestamp int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if timestamp < e.timestampUTC {
		return false
	}
	e.peer.IsUp = isUp
	e.peer.IsResponding = isResponding
	e.timestampUTC = timestamp
	return true
}

// SetSubscriptions replaces the entire subscription set if timestamp is at
// least the entry's last-applied subscription timestamp. Diffs against the
// previous set and mutates only the affected Trees nodes. Silently
// rejected (returns false) if out of order.
func (e *PeerEntry) SetSubscriptions(subs []core.Subscription, timestamp int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if timestamp < e.subscriptionTimestamp {
		return false
	}

	next := make(map[core.MessageTypeID][]core.BindingKey)
	for _, s := range subs {
		next[s.MessageTypeID] = append(next[s.MessageTypeID], s.BindingKey)
	}

	allTypes := make(map[core.MessageTypeID]bool, len(e.bindings)+len(next))
	for t := range e.bindings {
		allTypes[t] = true
	}
	for t := range next {
		allTypes[t] = true
	}
	for t := range allTypes {
		e.applyTypeDiffLocked(t, next[t])
	}

	e.bindings = next
	e.subscriptionTimestamp = timestamp
	e.timestampUTC = timestamp
	return true
}

// SubscriptionsForType is one (MessageTypeId, BindingKey[]) partial update.
type SubscriptionsForType struct {
	MessageTypeID core.MessageTypeID
	BindingKeys   []core.BindingKey
}

// SetSubscriptionsForType replaces only the named MessageTypeIds' binding
// sets, gated by the same monotonic timestamp as SetSubscriptions. An
// empty BindingKeys slice for a type removes every binding of that type,
// matching the "empty list" resolution for this ambiguity.
func (e *PeerEntry) SetSubscriptionsForType(updates []SubscriptionsForType, timestamp int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if timestamp < e.subscriptionTimestamp {
		return false
	}

	for _, u := range updates {
		e.applyTypeDiffLocked(u.MessageTypeID, u.BindingKeys)
		if len(u.BindingKeys) == 0 {
			delete(e.bindings, u.MessageTypeID)
		} else {
			e.bindings[u.MessageTypeID] = u.BindingKeys
		}
	}

	e.subscriptionTimestamp = timestamp
	e.timestampUTC = timestamp
	return true
}

// applyTypeDiffLocked diffs the current bindings of messageType against
// next and applies Add/Remove against the shared Tree so it holds exactly
// the union across peers. Caller holds e.mu.
func (e *PeerEntry) applyTypeDiffLocked(messageType core.MessageTypeID, next []core.BindingKey) {
	prev := e.bindings[messageType]
	prevSet := make(map[string]bool, len(prev))
	for _, k := range prev {
		prevSet[k.String()] = true
	}
	nextSet := make(map[string]bool, len(next))
	for _, k := range next {
		nextSet[k.String()] = true
	}

	tree := e.trees.Get(messageType)
	for _, k := range prev {
		if !nextSet[k.String()] {
			tree.Remove(e.peer.PeerID, k)
		}
	}
	for _, k := range next {
		if !prevSet[k.String()] {
			tree.Add(e.peer.PeerID, k)
		}
	}
}

// RemoveSubscriptions removes every binding this entry holds from every
// Tree it appears in. Called on decommission.
func (e *PeerEntry) RemoveSubscriptions() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for messageType, keys := range e.bindings {
		tree := e.trees.Get(messageType)
		for _, k := range keys {
			tree.Remove(e.peer.PeerID, k)
		}
	}
	e.bindings = make(map[core.MessageTypeID][]core.BindingKey)
}

// ToPeerDescriptor snapshots the entry's current state.
func (e *PeerEntry) ToPeerDescriptor() core.PeerDescriptor {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := make([]core.Subscription, 0)
	for messageType, keys := range e.bindings {
		for _, k := range keys {
			subs = append(subs, core.Subscription{MessageTypeID: messageType, BindingKey: k})
		}
	}

	return core.PeerDescriptor{
		Peer:                e.peer,
		IsPersistent:        e.isPersistent,
		TimestampUTC:        e.timestampUTC,
		Subscriptions:       subs,
		HasDebuggerAttached: e.hasDebuggerAttached,
	}
}

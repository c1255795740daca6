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

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gansuranga/zebus/core"
	"github.com/gansuranga/zebus/pkg/log"
	"github.com/gansuranga/zebus/pkg/serverset"
	"golang.org/x/sync/singleflight"
)

// Transport is the collaborator the Client sends directory commands
// through. The default implementation lives in pkg/wire/httpwire; tests
// use a hand-written mock (mocks/transport).
type Transport interface {
	RegisterPeer(ctx context.Context, addr string, cmd RegisterPeerCommand) (RegisterPeerResponse, error)
	UpdatePeerSubscriptionsForTypes(ctx context.Context, addr string, cmd UpdatePeerSubscriptionsForTypesCommand) error
	UnregisterPeer(ctx context.Context, addr string, cmd UnregisterPeerCommand) error
}

// RegistrationExhaustedError reports that every configured directory
// endpoint failed or timed out during registration.
type RegistrationExhaustedError struct {
	Endpoints []string
	Errs      []error
}

func (e *RegistrationExhaustedError) Error() string {
	parts := make([]string, len(e.Endpoints))
	for i, ep := range e.Endpoints {
		parts[i] = fmt.Sprintf("%s: %v", ep, e.Errs[i])
	}
	return fmt.Sprintf("directory: registration exhausted every endpoint: %s", strings.Join(parts, "; "))
}

// Client maintains the map of PeerEntry and the per-message-type
// subscription Trees, and implements the registration protocol against
// the configured directory servers.
type Client struct {
	config    Config
	self      core.Peer
	transport Transport
	trees     *Trees
	lclock    *core.LogicalClock
	onUpdate  func(PeerUpdated)

	registerGroup singleflight.Group

	mu              sync.Mutex
	entries         map[core.PeerID]*PeerEntry
	inbox           *inbox
	cachedEndpoints []string
}

// NewClient creates a Client for self, sending registration traffic
// through transport and indexing subscriptions into trees.
func NewClient(config Config, self core.Peer, transport Transport, trees *Trees, lclock *core.LogicalClock, onUpdate func(PeerUpdated)) *Client {
	if onUpdate == nil {
		onUpdate = func(PeerUpdated) {}
	}
	return &Client{
		config:    config.applyDefaults(),
		self:      self,
		transport: transport,
		trees:     trees,
		lclock:    lclock,
		onUpdate:  onUpdate,
		entries:   make(map[core.PeerID]*PeerEntry),
	}
}

func (c *Client) entryLocked(id core.PeerID) *PeerEntry {
	e, ok := c.entries[id]
	if !ok {
		e = NewPeerEntry(core.Peer{PeerID: id}, c.trees)
		c.entries[id] = e
	}
	return e
}

// GetPeerDescriptor returns the current snapshot of peer id, if known.
func (c *Client) GetPeerDescriptor(id core.PeerID) (core.PeerDescriptor, bool) {
	c.mu.Lock()
	e, ok := c.entries[id]
	c.mu.Unlock()
	if !ok {
		return core.PeerDescriptor{}, false
	}
	return e.ToPeerDescriptor(), true
}

// GetPeersHandlingMessage resolves every peer subscribed to messageTypeID,
// deriving the outbound binding's routing key from message when message
// implements core.Routable.
func (c *Client) GetPeersHandlingMessage(messageTypeID core.MessageTypeID, message interface{}) []core.PeerID {
	return c.trees.GetPeersHandlingMessage(core.NewMessageBinding(messageTypeID, message))
}

// Register builds a self-descriptor with subscriptions and a fresh
// logical timestamp, then registers with the first configured directory
// server to succeed within RegistrationTimeout. Concurrent callers
// collapse onto a single in-flight attempt.
func (c *Client) Register(ctx context.Context, subscriptions []core.Subscription) error {
	_, err, _ := c.registerGroup.Do("register", func() (interface{}, error) {
		return nil, c.register(ctx, subscriptions)
	})
	return err
}

func (c *Client) register(ctx context.Context, subscriptions []core.Subscription) error {
	timestamp := c.lclock.Next()

	c.mu.Lock()
	self := c.entryLocked(c.self.PeerID)
	box := newInbox()
	c.inbox = box
	endpoints := append([]string(nil), c.config.DirectoryServiceEndPoints...)
	c.mu.Unlock()

	self.mu.Lock()
	self.peer = c.self
	self.isPersistent = c.config.IsPersistent
	self.mu.Unlock()
	self.SetSubscriptions(subscriptions, timestamp)

	selfDescriptor := self.ToPeerDescriptor()

	servers := serverset.New(endpoints, c.config.IsDirectoryPickedRandomly)
	it := servers.Iter()

	var errs []error
	var tried []string
	for it.HasNext() {
		addr := it.Addr()
		attemptCtx, cancel := context.WithTimeout(ctx, c.config.RegistrationTimeout)
		resp, err := c.transport.RegisterPeer(attemptCtx, addr, RegisterPeerCommand{Self: selfDescriptor})
		cancel()

		if err == nil && resp.ErrorCode == ErrorCodeNone && resp.PeerDescriptors != nil {
			for _, d := range resp.PeerDescriptors {
				c.applyPeerDescriptor(d)
			}

			c.mu.Lock()
			c.cachedEndpoints = endpoints
			c.inbox = nil
			c.mu.Unlock()

			box.CompleteAdding()
			box.Drain(func(err error) {
				log.Errorf("directory: error applying buffered event during registration drain: %v", err)
			})
			return nil
		}

		if err == nil && resp.ErrorCode == ErrorCodePeerAlreadyExists {
			err = fmt.Errorf("peer already exists at %s", addr)
		} else if err == nil {
			err = fmt.Errorf("empty registration response from %s", addr)
		}
		log.Errorf("directory: registration attempt against %s failed: %v", addr, err)
		errs = append(errs, err)
		tried = append(tried, addr)
		it.Next()
	}

	c.mu.Lock()
	c.inbox = nil
	c.mu.Unlock()

	return &RegistrationExhaustedError{Endpoints: tried, Errs: errs}
}

// applyPeerDescriptor adds or updates the PeerEntry for d.Peer.PeerID,
// gated by d.TimestampUTC the same as any other directory update.
func (c *Client) applyPeerDescriptor(d core.PeerDescriptor) {
	c.mu.Lock()
	e := c.entryLocked(d.Peer.PeerID)
	c.mu.Unlock()

	e.mu.Lock()
	if d.TimestampUTC < e.timestampUTC {
		e.mu.Unlock()
		return
	}
	e.peer = d.Peer
	e.isPersistent = d.IsPersistent
	e.hasDebuggerAttached = d.HasDebuggerAttached
	e.mu.Unlock()
	e.SetSubscriptions(d.Subscriptions, d.TimestampUTC)
}

// viaInboxOrApply buffers apply while registration is in flight, else
// runs it immediately. Implements the race-handling rule shared by every
// event handler.
func (c *Client) viaInboxOrApply(apply func() error) {
	c.mu.Lock()
	box := c.inbox
	c.mu.Unlock()

	if box != nil && box.IsOpen() {
		if box.Add(apply) {
			return
		}
	}
	if err := apply(); err != nil {
		log.Errorf("directory: error applying event: %v", err)
	}
}

// OnPeerStarted adds or updates the entry for ev.Descriptor.
func (c *Client) OnPeerStarted(ev PeerStarted) {
	c.viaInboxOrApply(func() error {
		c.applyPeerDescriptor(ev.Descriptor)
		c.onUpdate(PeerUpdated{PeerID: ev.Descriptor.Peer.PeerID, Kind: PeerUpdateStarted})
		return nil
	})
}

// OnPeerStopped flips the entry's liveness to down, gated by timestamp.
// The entry is not removed.
func (c *Client) OnPeerStopped(ev PeerStopped) {
	c.viaInboxOrApply(func() error {
		c.mu.Lock()
		e, ok := c.entries[ev.PeerID]
		c.mu.Unlock()
		if !ok {
			return fmt.Errorf("PeerStopped for unknown peer %s", ev.PeerID)
		}
		if !e.SetLiveness(false, false, ev.TimestampUTC) {
			return nil
		}
		c.onUpdate(PeerUpdated{PeerID: ev.PeerID, Kind: PeerUpdateStopped})
		return nil
	})
}

// OnPeerDecommissioned removes the entry for ev.PeerID entirely,
// purging its subscriptions from every tree.
func (c *Client) OnPeerDecommissioned(ev PeerDecommissioned) {
	c.viaInboxOrApply(func() error {
		c.mu.Lock()
		e, ok := c.entries[ev.PeerID]
		if ok {
			delete(c.entries, ev.PeerID)
		}
		c.mu.Unlock()
		if !ok {
			return nil
		}
		e.RemoveSubscriptions()
		c.onUpdate(PeerUpdated{PeerID: ev.PeerID, Kind: PeerUpdateDecommissioned})
		return nil
	})
}

// OnPeerSubscriptionsUpdated replaces the entry's full subscription set,
// gated by the event's timestamp. Warns if the peer is unknown.
func (c *Client) OnPeerSubscriptionsUpdated(ev PeerSubscriptionsUpdated) {
	c.viaInboxOrApply(func() error {
		c.mu.Lock()
		_, ok := c.entries[ev.Descriptor.Peer.PeerID]
		c.mu.Unlock()
		if !ok {
			return fmt.Errorf("PeerSubscriptionsUpdated for unknown peer %s", ev.Descriptor.Peer.PeerID)
		}
		c.applyPeerDescriptor(ev.Descriptor)
		c.onUpdate(PeerUpdated{PeerID: ev.Descriptor.Peer.PeerID, Kind: PeerUpdateSubscriptionsUpdated})
		return nil
	})
}

// OnPeerSubscriptionsForTypesUpdated applies a partial subscription
// update, gated by the event's timestamp.
func (c *Client) OnPeerSubscriptionsForTypesUpdated(ev PeerSubscriptionsForTypesUpdated) {
	c.viaInboxOrApply(func() error {
		c.mu.Lock()
		e, ok := c.entries[ev.PeerID]
		c.mu.Unlock()
		if !ok {
			return fmt.Errorf("PeerSubscriptionsForTypesUpdated for unknown peer %s", ev.PeerID)
		}
		e.SetSubscriptionsForType(ev.SubscriptionsForType, ev.TimestampUTC)
		c.onUpdate(PeerUpdated{PeerID: ev.PeerID, Kind: PeerUpdateSubscriptionsUpdated})
		return nil
	})
}

// OnPeerNotResponding flips IsResponding false for a known peer.
func (c *Client) OnPeerNotResponding(ev PeerNotResponding) {
	c.setResponding(ev.PeerID, false)
}

// OnPeerResponding flips IsResponding true for a known peer.
func (c *Client) OnPeerResponding(ev PeerResponding) {
	c.setResponding(ev.PeerID, true)
}

func (c *Client) setResponding(id core.PeerID, responding bool) {
	c.viaInboxOrApply(func() error {
		c.mu.Lock()
		e, ok := c.entries[id]
		c.mu.Unlock()
		if !ok {
			return nil
		}
		e.mu.Lock()
		e.peer.IsResponding = responding
		e.mu.Unlock()
		c.onUpdate(PeerUpdated{PeerID: id, Kind: PeerUpdateSubscriptionsUpdated})
		return nil
	})
}

// UpdatePeerSubscriptionsForTypes pushes a partial subscription update to
// the first configured directory server to accept it.
func (c *Client) UpdatePeerSubscriptionsForTypes(ctx context.Context, updates []SubscriptionsForType) error {
	timestamp := c.lclock.Next()

	c.mu.Lock()
	self := c.entryLocked(c.self.PeerID)
	endpoints := append([]string(nil), c.config.DirectoryServiceEndPoints...)
	c.mu.Unlock()
	self.SetSubscriptionsForType(updates, timestamp)

	it := serverset.New(endpoints, c.config.IsDirectoryPickedRandomly).Iter()
	var lastErr error
	for it.HasNext() {
		addr := it.Addr()
		attemptCtx, cancel := context.WithTimeout(ctx, c.config.RegistrationTimeout)
		err := c.transport.UpdatePeerSubscriptionsForTypes(attemptCtx, addr, UpdatePeerSubscriptionsForTypesCommand{
			PeerID: c.self.PeerID, TimestampUTC: timestamp, SubscriptionsForType: updates,
		})
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		it.Next()
	}
	return fmt.Errorf("directory: UpdatePeerSubscriptionsForTypes failed against every endpoint: %w", lastErr)
}

// Unregister decommissions the local peer, using the directory endpoint
// list captured during Register rather than a fresh configuration lookup.
func (c *Client) Unregister(ctx context.Context) error {
	timestamp := c.lclock.Next()

	c.mu.Lock()
	endpoints := append([]string(nil), c.cachedEndpoints...)
	c.mu.Unlock()

	it := serverset.New(endpoints, false).Iter()
	var lastErr error
	for it.HasNext() {
		addr := it.Addr()
		attemptCtx, cancel := context.WithTimeout(ctx, c.config.RegistrationTimeout)
		err := c.transport.UnregisterPeer(attemptCtx, addr, UnregisterPeerCommand{Self: c.self, TimestampUTC: timestamp})
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		it.Next()
	}
	return fmt.Errorf("directory: Unregister failed against every endpoint: %w", lastErr)
}

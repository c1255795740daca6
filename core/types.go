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

// Package core defines the value types shared by every subsystem of the
// bus: peer identity and liveness, message typing, and the binding/routing
// key vocabulary used to match subscriptions against outbound messages.
package core

import "strings"

// Endpoint is a transport-dependent address for reaching a peer, typically
// in "host:port" form. The bus core treats it as an opaque string; dialing
// it is the transport's concern.
type Endpoint string

// MessageTypeID is a stable identifier for a message class, e.g. a fully
// qualified type name. It is the key used to look up handlers and
// subscription trees.
type MessageTypeID string

// Peer is the mutable liveness record the directory maintains for one
// remote participant.
type Peer struct {
	PeerID       PeerID
	Endpoint     Endpoint
	IsUp         bool
	IsResponding bool
}

// bindingTailWildcard matches zero or more trailing tokens. It is only
// valid as the last token of a BindingKey.
const bindingTailWildcard = "#"

// bindingSingleWildcard matches exactly one token at its position.
const bindingSingleWildcard = "*"

// BindingKey is a tokenized routing pattern, AMQP-topic-like: each token is
// either a literal, a single-token wildcard ("*"), or — only as the final
// token — a tail wildcard ("#"). An empty BindingKey matches everything.
type BindingKey []string

// NewBindingKey splits a dot-delimited string into a BindingKey.
func NewBindingKey(s string) BindingKey {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// String renders the BindingKey back into dot-delimited form.
func (k BindingKey) String() string {
	return strings.Join(k, ".")
}

// Equal reports whether k and o contain the same tokens in the same order.
// Used for deduping identical subscriptions, not for routing matches.
func (k BindingKey) Equal(o BindingKey) bool {
	if len(k) != len(o) {
		return false
	}
	for i := range k {
		if k[i] != o[i] {
			return false
		}
	}
	return true
}

// Matches reports whether routingKey satisfies the pattern described by k,
// per the wildcard semantics documented on BindingKey.
func (k BindingKey) Matches(routingKey BindingKey) bool {
	if len(k) == 0 {
		return true
	}
	i := 0
	for i < len(k) {
		tok := k[i]
		if tok == bindingTailWildcard {
			return true
		}
		if i >= len(routingKey) {
			return false
		}
		if tok != bindingSingleWildcard && tok != routingKey[i] {
			return false
		}
		i++
	}
	return i == len(routingKey)
}

// Subscription declares interest in one message type under one binding key.
type Subscription struct {
	MessageTypeID MessageTypeID
	BindingKey    BindingKey
}

// MessageBinding identifies an outbound message for routing purposes: its
// type plus the routing key derived from its routable fields.
type MessageBinding struct {
	MessageTypeID MessageTypeID
	RoutingKey    BindingKey
}

// NewMessageBinding builds the MessageBinding used to resolve peers for an
// outbound message of messageTypeID. When message implements Routable, its
// RoutingKey() supplies the binding's routing key; otherwise the binding
// carries an empty key, matching only subscriptions whose binding key is
// empty or "#".
func NewMessageBinding(messageTypeID MessageTypeID, message interface{}) MessageBinding {
	var key BindingKey
	if r, ok := message.(Routable); ok {
		key = r.RoutingKey()
	}
	return MessageBinding{MessageTypeID: messageTypeID, RoutingKey: key}
}

// MessageContext flows alongside a dispatch. ReplyCode is mutable by
// handlers to signal an application-level outcome back to the sender.
type MessageContext struct {
	SenderID          PeerID
	MessageID         string
	DispatchQueueName string
	ReplyCode         int32
}

// PeerDescriptor is an immutable snapshot of a peer as exchanged over the
// wire: its liveness, whether it persists across restarts, the logical
// timestamp of the snapshot, its current subscriptions, and whether a
// debugger is attached (informational only).
type PeerDescriptor struct {
	Peer                Peer
	IsPersistent        bool
	TimestampUTC        int64
	Subscriptions       []Subscription
	HasDebuggerAttached bool
}

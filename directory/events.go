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

import "github.com/gansuranga/zebus/core"

// ErrorCode reports an application-level outcome for a directory command,
// the explicit-variant replacement for a dynamically-typed error payload.
type ErrorCode int

const (
	// ErrorCodeNone indicates success.
	ErrorCodeNone ErrorCode = iota
	// ErrorCodePeerAlreadyExists is returned by RegisterPeerCommand when
	// the directory already holds a live entry for the registering peer.
	ErrorCodePeerAlreadyExists
)

// RegisterPeerCommand registers self with a directory server. Field order
// fixed for wire compatibility.
type RegisterPeerCommand struct {
	Self core.PeerDescriptor
}

// RegisterPeerResponse answers a RegisterPeerCommand with the directory's
// global snapshot, or an ErrorCode on failure.
type RegisterPeerResponse struct {
	PeerDescriptors []core.PeerDescriptor
	ErrorCode       ErrorCode
}

// UpdatePeerSubscriptionsForTypesCommand pushes a partial subscription
// update for the sending peer.
type UpdatePeerSubscriptionsForTypesCommand struct {
	PeerID               core.PeerID
	TimestampUTC         int64
	SubscriptionsForType []SubscriptionsForType
}

// UnregisterPeerCommand asks a directory server to decommission self.
type UnregisterPeerCommand struct {
	Self         core.Peer
	TimestampUTC int64
}

// PeerStarted announces a new or restarted peer.
type PeerStarted struct {
	Descriptor core.PeerDescriptor
}

// PeerStopped announces a peer going down without being decommissioned.
type PeerStopped struct {
	PeerID       core.PeerID
	Endpoint     core.Endpoint
	TimestampUTC int64
}

// PeerDecommissioned announces a peer's permanent removal.
type PeerDecommissioned struct {
	PeerID core.PeerID
}

// PeerSubscriptionsUpdated announces a full subscription-set replacement.
type PeerSubscriptionsUpdated struct {
	Descriptor core.PeerDescriptor
}

// PeerSubscriptionsForTypesUpdated announces a partial subscription update.
type PeerSubscriptionsForTypesUpdated struct {
	PeerID               core.PeerID
	SubscriptionsForType []SubscriptionsForType
	TimestampUTC         int64
}

// PeerNotResponding flags a peer as unresponsive without changing IsUp.
type PeerNotResponding struct {
	PeerID core.PeerID
}

// PeerResponding clears a prior PeerNotResponding.
type PeerResponding struct {
	PeerID core.PeerID
}

// PingPeerCommand asks a peer to prove liveness.
type PingPeerCommand struct {
	PeerID core.PeerID
}

// PeerUpdateKind names the reason a PeerUpdated notification fired.
type PeerUpdateKind int

const (
	PeerUpdateStarted PeerUpdateKind = iota
	PeerUpdateStopped
	PeerUpdateDecommissioned
	PeerUpdateSubscriptionsUpdated
)

// PeerUpdated is emitted by the Client after applying any directory event
// that changes a PeerEntry, for observers (metrics, logging, UI) to consume.
type PeerUpdated struct {
	PeerID core.PeerID
	Kind   PeerUpdateKind
}

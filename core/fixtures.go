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

import "fmt"

// PeerIDFixture returns a randomly generated PeerID for use in tests.
func PeerIDFixture() PeerID {
	return RandomPeerID()
}

// PeerFixture returns a Peer with a random identity, up and responding.
func PeerFixture() Peer {
	return Peer{
		PeerID:       PeerIDFixture(),
		Endpoint:     Endpoint("localhost:0"),
		IsUp:         true,
		IsResponding: true,
	}
}

// PeerDescriptorFixture returns a minimal, valid PeerDescriptor.
func PeerDescriptorFixture() PeerDescriptor {
	return PeerDescriptor{
		Peer:         PeerFixture(),
		TimestampUTC: 1,
	}
}

// SubscriptionFixture returns a Subscription for messageType with the given
// binding tokens.
func SubscriptionFixture(messageType MessageTypeID, tokens ...string) Subscription {
	return Subscription{MessageTypeID: messageType, BindingKey: BindingKey(tokens)}
}

// MessageTypeIDFixture returns a MessageTypeID derived from n, distinct
// across different values of n.
func MessageTypeIDFixture(n int) MessageTypeID {
	return MessageTypeID(fmt.Sprintf("bus.test.Message%d", n))
}

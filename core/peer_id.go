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
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	uuid "github.com/satori/go.uuid"
)

// PeerID is an opaque, comparable identity for one peer on the bus.
type PeerID string

// String implements fmt.Stringer.
func (p PeerID) String() string {
	return string(p)
}

// Empty returns true if p carries no identity.
func (p PeerID) Empty() bool {
	return p == ""
}

// PeerIDFactory defines how a PeerID is minted for a newly bootstrapped peer.
type PeerIDFactory string

// RandomPeerIDFactory mints a random, UUID-derived peer id.
const RandomPeerIDFactory PeerIDFactory = "random"

// AddrHashPeerIDFactory derives a peer id deterministically from the peer's
// endpoint, which is useful when peers must be recognized across restarts.
const AddrHashPeerIDFactory PeerIDFactory = "addr_hash"

// ErrUnknownPeerIDFactory is returned by GeneratePeerID for an unrecognized
// factory name.
var ErrUnknownPeerIDFactory = errors.New("unknown peer id factory")

// GeneratePeerID mints a PeerID for endpoint according to the factory policy.
func (f PeerIDFactory) GeneratePeerID(endpoint Endpoint) (PeerID, error) {
	switch f {
	case RandomPeerIDFactory, "":
		return RandomPeerID(), nil
	case AddrHashPeerIDFactory:
		return HashedPeerID(string(endpoint))
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeerIDFactory, string(f))
	}
}

// RandomPeerID returns a randomly generated PeerID.
func RandomPeerID() PeerID {
	return PeerID(uuid.NewV4().String())
}

// HashedPeerID returns a PeerID derived deterministically from s.
func HashedPeerID(s string) (PeerID, error) {
	if s == "" {
		return "", errors.New("cannot generate peer id from empty string")
	}
	h := sha1.New()
	io.WriteString(h, s)
	return PeerID(hex.EncodeToString(h.Sum(nil))), nil
}

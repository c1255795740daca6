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

// NoScan is implemented by a handler type that must never be subscribed
// automatically on startup -- its subscriptions, if any, are managed
// explicitly elsewhere.
type NoScan interface {
	NoScan()
}

// Routable is implemented by a message type whose routing key is derived
// from its own fields rather than a static, auto-scanned binding. Handlers
// of a Routable message are never auto-subscribed on startup; the bus
// expects an explicit binding key to be supplied.
type Routable interface {
	RoutingKey() BindingKey
}

// QueueNamed is implemented by a handler type that wants its invocations
// scheduled on a named dispatch queue other than the default.
type QueueNamed interface {
	DispatchQueueName() string
}

// DefaultDispatchQueueName is used when neither the handler nor the
// message context specifies a queue.
const DefaultDispatchQueueName = "DispatchQueue"

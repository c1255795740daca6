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
package dispatch

import (
	"errors"
	"reflect"

	"github.com/gansuranga/zebus/core"
)

// ErrHandlerDidNotStart is returned when an async handler returns a nil
// AsyncResult instead of one it has actually started.
var ErrHandlerDidNotStart = errors.New("dispatch failed because handler did not start its task")

// AsyncResult is the deferred-completion contract an async handler
// returns: Done closes once the underlying work finishes, and Err reports
// its outcome. The Go stand-in for a task-like/future return value.
type AsyncResult interface {
	Done() <-chan struct{}
	Err() error
}

// SyncHandlerFunc handles one message type synchronously.
type SyncHandlerFunc func(msg interface{}, ctx *core.MessageContext) error

// AsyncHandlerFunc handles one message type asynchronously, returning an
// AsyncResult that must not be nil.
type AsyncHandlerFunc func(msg interface{}, ctx *core.MessageContext) AsyncResult

// Invoker adapts one concrete handler function to one message type.
type Invoker interface {
	MessageTypeID() core.MessageTypeID
	MessageHandlerType() reflect.Type
	ShouldBeSubscribedOnStartup() bool
	DispatchQueueName() string
	// Invoke calls the handler, blocking until it completes (awaiting its
	// AsyncResult for async handlers), and returns its error, if any.
	Invoke(msg interface{}, ctx *core.MessageContext) error
}

type baseInvoker struct {
	messageTypeID    core.MessageTypeID
	handlerType      reflect.Type
	subscribeOnStart bool
	queueName        string
}

func (b *baseInvoker) MessageTypeID() core.MessageTypeID { return b.messageTypeID }
func (b *baseInvoker) MessageHandlerType() reflect.Type  { return b.handlerType }
func (b *baseInvoker) ShouldBeSubscribedOnStartup() bool { return b.subscribeOnStart }
func (b *baseInvoker) DispatchQueueName() string         { return b.queueName }

// SyncInvoker invokes a handler whose entry point returns synchronously.
type SyncInvoker struct {
	baseInvoker
	Handle SyncHandlerFunc
}

// NewSyncInvoker creates a SyncInvoker for one (handlerType, messageType) pair.
func NewSyncInvoker(
	messageTypeID core.MessageTypeID,
	handlerType reflect.Type,
	subscribeOnStart bool,
	queueName string,
	handle SyncHandlerFunc,
) *SyncInvoker {
	return &SyncInvoker{
		baseInvoker: baseInvoker{messageTypeID, handlerType, subscribeOnStart, queueName},
		Handle:      handle,
	}
}

// Invoke implements Invoker.
func (s *SyncInvoker) Invoke(msg interface{}, ctx *core.MessageContext) error {
	return s.Handle(msg, ctx)
}

// AsyncInvoker invokes a handler whose entry point returns a deferred
// AsyncResult; Invoke blocks until that result completes.
type AsyncInvoker struct {
	baseInvoker
	Handle AsyncHandlerFunc
}

// NewAsyncInvoker creates an AsyncInvoker for one (handlerType, messageType) pair.
func NewAsyncInvoker(
	messageTypeID core.MessageTypeID,
	handlerType reflect.Type,
	subscribeOnStart bool,
	queueName string,
	handle AsyncHandlerFunc,
) *AsyncInvoker {
	return &AsyncInvoker{
		baseInvoker: baseInvoker{messageTypeID, handlerType, subscribeOnStart, queueName},
		Handle:      handle,
	}
}

// Invoke implements Invoker.
func (a *AsyncInvoker) Invoke(msg interface{}, ctx *core.MessageContext) error {
	result := a.Handle(msg, ctx)
	if result == nil {
		return ErrHandlerDidNotStart
	}
	<-result.Done()
	return result.Err()
}

// completedResult is a trivial AsyncResult that is already done, useful for
// handlers that perform their async work eagerly before returning.
type completedResult struct {
	err error
}

// NewCompletedResult returns an AsyncResult that is already finished with err.
func NewCompletedResult(err error) AsyncResult {
	return completedResult{err}
}

func (r completedResult) Done() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

func (r completedResult) Err() error { return r.err }

// channelResult adapts a channel-based goroutine into an AsyncResult.
type channelResult struct {
	done chan struct{}
	err  error
}

// NewChannelResult returns an AsyncResult that completes once fn returns,
// run on its own goroutine -- the idiomatic Go shape of a deferred task.
func NewChannelResult(fn func() error) AsyncResult {
	r := &channelResult{done: make(chan struct{})}
	go func() {
		defer close(r.done)
		r.err = fn()
	}()
	return r
}

func (r *channelResult) Done() <-chan struct{} { return r.done }
func (r *channelResult) Err() error            { return r.err }

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
	"sync/atomic"
	"testing"
	"time"

	"github.com/gansuranga/zebus/core"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
)

type dispatchCommand struct{}
type failingCommand struct{}
type asyncFailingCommand struct{}

func (dispatchCommand) MessageTypeID() core.MessageTypeID    { return "DispatchCommand" }
func (failingCommand) MessageTypeID() core.MessageTypeID     { return "FailingCommand" }
func (asyncFailingCommand) MessageTypeID() core.MessageTypeID { return "AsyncFailingCommand" }

func newTestDispatcher() (*Dispatcher, *Registry) {
	reg := NewRegistry(testContainer())
	d := NewDispatcher(reg, NewQueues(tally.NoopScope), StaticPipeManager{}, tally.NoopScope)
	return d, reg
}

func TestDispatcherSyncAndAsyncFanOut(t *testing.T) {
	require := require.New(t)

	d, reg := newTestDispatcher()
	var syncCalled atomic.Bool
	asyncDone := make(chan struct{})

	reg.Register(Registration{
		Group: "t", HandlerType: reflect.TypeOf(struct{ sync int }{}),
		MessageType: reflect.TypeOf(dispatchCommand{}), MessageTypeID: "DispatchCommand",
		Kind: KindSync,
		NewSyncHandler: func(interface{}) SyncHandlerFunc {
			return func(msg interface{}, ctx *core.MessageContext) error {
				syncCalled.Store(true)
				return nil
			}
		},
	})
	reg.Register(Registration{
		Group: "t", HandlerType: reflect.TypeOf(struct{ async int }{}),
		MessageType: reflect.TypeOf(dispatchCommand{}), MessageTypeID: "DispatchCommand",
		Kind: KindAsync,
		NewAsyncHandler: func(interface{}) AsyncHandlerFunc {
			return func(msg interface{}, ctx *core.MessageContext) AsyncResult {
				require.True(syncCalled.Load())
				return NewChannelResult(func() error {
					close(asyncDone)
					return nil
				})
			}
		},
	})
	require.NoError(d.LoadMessageHandlerInvokers())

	done := make(chan DispatchResult, 1)
	d.Dispatch(MessageDispatch{
		Context: &core.MessageContext{},
		Message: dispatchCommand{},
		CompletionCallback: func(r DispatchResult) { done <- r },
	})

	select {
	case r := <-done:
		require.True(r.WasHandled)
		require.Empty(r.Errors)
	case <-time.After(time.Second):
		t.Fatal("dispatch did not complete within 1s")
	}
	select {
	case <-asyncDone:
	case <-time.After(time.Second):
		t.Fatal("async handler did not complete within 1s")
	}
}

func TestDispatcherCapturesHandlerException(t *testing.T) {
	require := require.New(t)

	d, reg := newTestDispatcher()
	wantErr := errors.New("boom")
	reg.Register(Registration{
		Group: "t", HandlerType: reflect.TypeOf(struct{}{}),
		MessageType: reflect.TypeOf(failingCommand{}), MessageTypeID: "FailingCommand",
		Kind: KindSync,
		NewSyncHandler: func(interface{}) SyncHandlerFunc {
			return func(msg interface{}, ctx *core.MessageContext) error { return wantErr }
		},
	})
	require.NoError(d.LoadMessageHandlerInvokers())

	done := make(chan DispatchResult, 1)
	d.Dispatch(MessageDispatch{
		Context:            &core.MessageContext{},
		Message:            failingCommand{},
		CompletionCallback: func(r DispatchResult) { done <- r },
	})

	r := <-done
	require.True(r.WasHandled)
	require.Len(r.Errors, 1)
	require.Equal(wantErr, r.Errors[0])
}

func TestDispatcherCapturesAsyncHandlerException(t *testing.T) {
	require := require.New(t)

	d, reg := newTestDispatcher()
	wantErr := errors.New("async boom")
	reg.Register(Registration{
		Group: "t", HandlerType: reflect.TypeOf(struct{}{}),
		MessageType: reflect.TypeOf(asyncFailingCommand{}), MessageTypeID: "AsyncFailingCommand",
		Kind: KindAsync,
		NewAsyncHandler: func(interface{}) AsyncHandlerFunc {
			return func(msg interface{}, ctx *core.MessageContext) AsyncResult {
				return NewCompletedResult(wantErr)
			}
		},
	})
	require.NoError(d.LoadMessageHandlerInvokers())

	done := make(chan DispatchResult, 1)
	d.Dispatch(MessageDispatch{
		Context:            &core.MessageContext{},
		Message:            asyncFailingCommand{},
		CompletionCallback: func(r DispatchResult) { done <- r },
	})

	r := <-done
	require.True(r.WasHandled)
	require.Len(r.Errors, 1)
	require.Equal(wantErr, r.Errors[0])
}

func TestDispatcherNoHandlerBeforeLoadIsUnhandled(t *testing.T) {
	require := require.New(t)

	d, _ := newTestDispatcher()

	done := make(chan DispatchResult, 1)
	d.Dispatch(MessageDispatch{
		Context:            &core.MessageContext{},
		Message:            dispatchCommand{},
		CompletionCallback: func(r DispatchResult) { done <- r },
	})

	r := <-done
	require.False(r.WasHandled)
	require.Empty(r.Errors)
}

func TestDispatcherPurgeQueuesSumsPendingAcrossQueues(t *testing.T) {
	require := require.New(t)

	d, _ := newTestDispatcher()
	for _, name := range []string{"q1", "q2", "q3"} {
		q := d.queues.Get(name)
		block := make(chan struct{})
		started := make(chan struct{})
		q.Enqueue(func() { close(started); <-block })
		<-started
		q.Enqueue(func() {})
		defer close(block)
	}

	require.Equal(3, d.PurgeQueues())
}

func TestDispatcherLoadMessageHandlerInvokersIsIdempotent(t *testing.T) {
	require := require.New(t)

	d, reg := newTestDispatcher()
	reg.Register(Registration{
		Group: "t", HandlerType: reflect.TypeOf(struct{}{}),
		MessageType: reflect.TypeOf(dispatchCommand{}), MessageTypeID: "DispatchCommand",
		Kind: KindSync,
		NewSyncHandler: func(interface{}) SyncHandlerFunc {
			return func(msg interface{}, ctx *core.MessageContext) error { return nil }
		},
	})

	require.NoError(d.LoadMessageHandlerInvokers())
	first := d.GetHandledMessageTypes()
	require.NoError(d.LoadMessageHandlerInvokers())
	second := d.GetHandledMessageTypes()

	require.ElementsMatch(first, second)
	require.Len(second, 1)
}

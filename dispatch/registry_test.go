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
	"reflect"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/gansuranga/zebus/core"
	"github.com/gansuranga/zebus/mocks/container"
)

type scanCommandHandler1 struct{}
type scanCommandHandler2 struct{}

type scanCommand1 struct{}
type scanCommand2 struct{}
type scanCommand3 struct{}
type routableCommand struct{}

func (routableCommand) RoutingKey() core.BindingKey { return nil }

func testContainer() Container {
	return ContainerFunc(func(t reflect.Type) (interface{}, error) {
		return reflect.New(t).Elem().Interface(), nil
	})
}

func TestRegistryBuildDiscoversHandlersWithFilters(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry(testContainer())
	noop := func(interface{}) SyncHandlerFunc {
		return func(msg interface{}, ctx *core.MessageContext) error { return nil }
	}

	reg.Register(Registration{
		Group: "test", HandlerType: reflect.TypeOf(scanCommandHandler1{}),
		MessageType: reflect.TypeOf(scanCommand1{}), MessageTypeID: "ScanCommand1",
		Kind: KindSync, NewSyncHandler: noop,
	})
	reg.Register(Registration{
		Group: "test", HandlerType: reflect.TypeOf(scanCommandHandler1{}),
		MessageType: reflect.TypeOf(scanCommand2{}), MessageTypeID: "ScanCommand2",
		Kind: KindSync, NewSyncHandler: noop,
	})
	reg.Register(Registration{
		Group: "test", HandlerType: reflect.TypeOf(scanCommandHandler2{}),
		MessageType: reflect.TypeOf(scanCommand3{}), MessageTypeID: "ScanCommand3",
		Kind: KindSync, NewSyncHandler: noop, NoScan: true,
	})
	reg.Register(Registration{
		Group: "test", HandlerType: reflect.TypeOf(scanCommandHandler2{}),
		MessageType: reflect.TypeOf(routableCommand{}), MessageTypeID: "RoutableCommand",
		Kind: KindSync, NewSyncHandler: noop, Routable: true,
	})

	invokers, err := reg.Build()
	require.NoError(err)
	require.Len(invokers, 4)

	byType := make(map[core.MessageTypeID]Invoker, len(invokers))
	for _, inv := range invokers {
		byType[inv.MessageTypeID()] = inv
	}

	require.True(byType["ScanCommand1"].ShouldBeSubscribedOnStartup())
	require.True(byType["ScanCommand2"].ShouldBeSubscribedOnStartup())
	require.False(byType["ScanCommand3"].ShouldBeSubscribedOnStartup())
	require.False(byType["RoutableCommand"].ShouldBeSubscribedOnStartup())
}

func TestRegistryBuildIsIdempotent(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry(testContainer())
	reg.Register(Registration{
		Group: "test", HandlerType: reflect.TypeOf(scanCommandHandler1{}),
		MessageType: reflect.TypeOf(scanCommand1{}), MessageTypeID: "ScanCommand1",
		Kind: KindSync,
		NewSyncHandler: func(interface{}) SyncHandlerFunc {
			return func(msg interface{}, ctx *core.MessageContext) error { return nil }
		},
	})

	first, err := reg.Build()
	require.NoError(err)
	second, err := reg.Build()
	require.NoError(err)
	require.Equal(len(first), len(second))
	require.Equal(first[0].MessageTypeID(), second[0].MessageTypeID())
}

func TestRegistryAssemblyAndHandlerFiltersExclude(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry(testContainer())
	noop := func(interface{}) SyncHandlerFunc {
		return func(msg interface{}, ctx *core.MessageContext) error { return nil }
	}
	reg.Register(Registration{
		Group: "excluded", HandlerType: reflect.TypeOf(scanCommandHandler1{}),
		MessageType: reflect.TypeOf(scanCommand1{}), MessageTypeID: "ScanCommand1",
		Kind: KindSync, NewSyncHandler: noop,
	})
	reg.ConfigureAssemblyFilter(func(group string) bool { return group != "excluded" })

	invokers, err := reg.Build()
	require.NoError(err)
	require.Empty(invokers)
}

func TestRegistryBuildResolvesEachHandlerThroughContainer(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handlerType := reflect.TypeOf(scanCommandHandler1{})
	instance := scanCommandHandler1{}

	c := mockcontainer.NewMockContainer(ctrl)
	c.EXPECT().GetInstance(handlerType).Return(instance, nil)

	reg := NewRegistry(c)
	reg.Register(Registration{
		Group: "test", HandlerType: handlerType,
		MessageType: reflect.TypeOf(scanCommand1{}), MessageTypeID: "ScanCommand1",
		Kind: KindSync,
		NewSyncHandler: func(got interface{}) SyncHandlerFunc {
			require.Equal(instance, got)
			return func(msg interface{}, ctx *core.MessageContext) error { return nil }
		},
	})

	invokers, err := reg.Build()
	require.NoError(err)
	require.Len(invokers, 1)
}

func TestRegistryRejectsWrongAsyncHandler(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry(testContainer())
	reg.Register(Registration{
		Group: "test", HandlerType: reflect.TypeOf(scanCommandHandler1{}),
		MessageType: reflect.TypeOf(scanCommand1{}), MessageTypeID: "ScanCommand1",
		Kind: KindAsync, // no NewAsyncHandler set
	})

	_, err := reg.Build()
	require.ErrorIs(err, ErrWrongAsyncHandler)
}

func TestRegistryRejectsMissingSyncHandler(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry(testContainer())
	reg.Register(Registration{
		Group: "test", HandlerType: reflect.TypeOf(scanCommandHandler1{}),
		MessageType: reflect.TypeOf(scanCommand1{}), MessageTypeID: "ScanCommand1",
		Kind: KindSync, // no NewSyncHandler set
	})

	_, err := reg.Build()
	require.ErrorIs(err, ErrMissingSyncHandler)
	require.NotErrorIs(err, ErrWrongAsyncHandler)
}

type noScanHandler struct{}

func (noScanHandler) NoScan() {}

type queueNamedHandler struct{}

func (queueNamedHandler) DispatchQueueName() string { return "QueueNamedQueue" }

func TestRegistryDerivesNoScanFromHandlerCapabilityInterface(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry(testContainer())
	noop := func(interface{}) SyncHandlerFunc {
		return func(msg interface{}, ctx *core.MessageContext) error { return nil }
	}
	reg.Register(Registration{
		Group: "test", HandlerType: reflect.TypeOf(noScanHandler{}),
		MessageType: reflect.TypeOf(scanCommand1{}), MessageTypeID: "NoScanCommand",
		Kind: KindSync, NewSyncHandler: noop,
		// NoScan bool left false: the handler type itself implements core.NoScan.
	})

	invokers, err := reg.Build()
	require.NoError(err)
	require.Len(invokers, 1)
	require.False(invokers[0].ShouldBeSubscribedOnStartup())
}

func TestRegistryDerivesRoutableFromMessageCapabilityInterface(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry(testContainer())
	noop := func(interface{}) SyncHandlerFunc {
		return func(msg interface{}, ctx *core.MessageContext) error { return nil }
	}
	reg.Register(Registration{
		Group: "test", HandlerType: reflect.TypeOf(scanCommandHandler1{}),
		MessageType: reflect.TypeOf(routableCommand{}), MessageTypeID: "RoutableCommand2",
		Kind: KindSync, NewSyncHandler: noop,
		// Routable bool left false: the message type itself implements core.Routable.
	})

	invokers, err := reg.Build()
	require.NoError(err)
	require.Len(invokers, 1)
	require.False(invokers[0].ShouldBeSubscribedOnStartup())
}

func TestRegistryDerivesQueueNameFromHandlerCapabilityInterface(t *testing.T) {
	require := require.New(t)

	container := ContainerFunc(func(t reflect.Type) (interface{}, error) {
		return queueNamedHandler{}, nil
	})
	reg := NewRegistry(container)
	noop := func(interface{}) SyncHandlerFunc {
		return func(msg interface{}, ctx *core.MessageContext) error { return nil }
	}
	reg.Register(Registration{
		Group: "test", HandlerType: reflect.TypeOf(queueNamedHandler{}),
		MessageType: reflect.TypeOf(scanCommand1{}), MessageTypeID: "QueueNamedCommand",
		Kind: KindSync, NewSyncHandler: noop,
		// QueueName left unset: the resolved instance implements core.QueueNamed.
	})

	invokers, err := reg.Build()
	require.NoError(err)
	require.Len(invokers, 1)
	require.Equal("QueueNamedQueue", invokers[0].DispatchQueueName())
}

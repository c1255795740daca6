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
package httpwire

import (
	"context"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"

	"github.com/gansuranga/zebus/core"
	"github.com/gansuranga/zebus/dispatch"
)

func TestClientSendMessageMintsMessageIDWhenUnset(t *testing.T) {
	require := require.New(t)

	reg := dispatch.NewRegistry(dispatch.ContainerFunc(func(t reflect.Type) (interface{}, error) {
		return reflect.New(t).Elem().Interface(), nil
	}))
	var gotSenderID core.PeerID
	var gotText string
	var gotMessageID string
	reg.Register(dispatch.Registration{
		Group: "t", HandlerType: reflect.TypeOf(struct{}{}),
		MessageType: reflect.TypeOf(pingMessage{}), MessageTypeID: "Ping",
		Kind: dispatch.KindSync,
		NewSyncHandler: func(interface{}) dispatch.SyncHandlerFunc {
			return func(msg interface{}, ctx *core.MessageContext) error {
				gotText = msg.(*pingMessage).Text
				gotSenderID = ctx.SenderID
				gotMessageID = ctx.MessageID
				return nil
			}
		},
	})
	dispatcher := dispatch.NewDispatcher(reg, dispatch.NewQueues(tally.NoopScope), dispatch.StaticPipeManager{}, tally.NoopScope)
	require.NoError(dispatcher.LoadMessageHandlerInvokers())

	codec := NewMessageCodec()
	codec.Register("Ping", func() interface{} { return &pingMessage{} })

	srv := NewServer(&stubDirectoryServer{}, dispatcher, codec)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	addr := strings.TrimPrefix(ts.URL, "http://")
	client := NewClient(time.Second)

	result, err := client.SendMessage(context.Background(), addr, "Ping",
		core.MessageContext{SenderID: "sender-1"}, &pingMessage{Text: "hi"})
	require.NoError(err)
	require.True(result.WasHandled)
	require.Equal("hi", gotText)
	require.Equal(core.PeerID("sender-1"), gotSenderID)
	require.NotEmpty(gotMessageID)
}

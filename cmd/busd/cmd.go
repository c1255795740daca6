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
package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"reflect"

	"github.com/andres-erbsen/clock"

	"github.com/gansuranga/zebus/core"
	"github.com/gansuranga/zebus/dispatch"
	"github.com/gansuranga/zebus/directory"
	"github.com/gansuranga/zebus/pkg/configutil"
	"github.com/gansuranga/zebus/pkg/log"
	"github.com/gansuranga/zebus/pkg/metrics"
	"github.com/gansuranga/zebus/pkg/wire/httpwire"
)

// stubDirectoryServer answers directory commands with "not implemented":
// the directory authority is a symmetric design exercise left to the
// server-side deployment, out of scope here. busd only runs the client
// replica against a configured set of directory peers.
type stubDirectoryServer struct{}

var errDirectoryServerNotImplemented = errors.New("busd: this peer does not run a directory authority")

func (stubDirectoryServer) HandleRegisterPeer(directory.RegisterPeerCommand) (directory.RegisterPeerResponse, error) {
	return directory.RegisterPeerResponse{}, errDirectoryServerNotImplemented
}

func (stubDirectoryServer) HandleUpdatePeerSubscriptionsForTypes(directory.UpdatePeerSubscriptionsForTypesCommand) error {
	return errDirectoryServerNotImplemented
}

func (stubDirectoryServer) HandleUnregisterPeer(directory.UnregisterPeerCommand) error {
	return errDirectoryServerNotImplemented
}

func run() {
	var cfg Config
	if err := configutil.Load(configFile, &cfg); err != nil {
		panic(err)
	}
	cfg = cfg.ApplyDefaults()

	if _, err := log.ConfigureLogger(cfg.ZapLogging); err != nil {
		panic(err)
	}

	stats, closer, err := metrics.New(cfg.Metrics)
	if err != nil {
		log.Fatalf("busd: failed to init metrics: %s", err)
	}
	defer closer.Close()

	selfID := core.RandomPeerID()
	self := core.Peer{
		PeerID:       selfID,
		Endpoint:     core.Endpoint(cfg.Listener.Addr),
		IsUp:         true,
		IsResponding: true,
	}

	reg := dispatch.NewRegistry(dispatch.ContainerFunc(func(t reflect.Type) (interface{}, error) {
		return nil, errors.New("busd: no handlers registered for " + t.String())
	}))
	dispatcher := dispatch.NewDispatcher(reg, dispatch.NewQueues(stats), dispatch.StaticPipeManager{}, stats)
	if err := dispatcher.LoadMessageHandlerInvokers(); err != nil {
		log.Fatalf("busd: failed to load message handler invokers: %s", err)
	}
	defer dispatcher.Stop()

	trees := directory.NewTrees()
	lclock := core.NewLogicalClock(clock.New())
	transport := httpwire.NewClient(cfg.Directory.RegistrationTimeout)

	directoryClient := directory.NewClient(cfg.Directory, self, transport, trees, lclock, func(ev directory.PeerUpdated) {
		log.Infof("busd: peer %s updated: %v", ev.PeerID, ev.Kind)
	})

	codec := httpwire.NewMessageCodec()
	server := httpwire.NewServer(stubDirectoryServer{}, dispatcher, codec)

	ln, err := net.Listen(cfg.Listener.Net, cfg.Listener.Addr)
	if err != nil {
		log.Fatalf("busd: failed to listen on %s %s: %s", cfg.Listener.Net, cfg.Listener.Addr, err)
	}

	log.Infof("busd: peer %s listening on %s", selfID, cfg.Listener.Addr)

	go func() {
		if err := directoryClient.Register(context.Background(), nil); err != nil {
			log.Errorf("busd: initial directory registration failed: %s", err)
		}
	}()

	log.Fatalf("busd: server exited: %s", http.Serve(ln, server))
}

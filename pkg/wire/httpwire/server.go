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
	"encoding/json"
	"net/http"
	"time"

	"github.com/gansuranga/zebus/core"
	"github.com/gansuranga/zebus/dispatch"
	"github.com/gansuranga/zebus/directory"
	"github.com/gansuranga/zebus/pkg/log"
	"github.com/gorilla/mux"
)

// DirectoryServer is implemented by whichever peer is acting as a
// directory authority for this process group.
type DirectoryServer interface {
	HandleRegisterPeer(cmd directory.RegisterPeerCommand) (directory.RegisterPeerResponse, error)
	HandleUpdatePeerSubscriptionsForTypes(cmd directory.UpdatePeerSubscriptionsForTypesCommand) error
	HandleUnregisterPeer(cmd directory.UnregisterPeerCommand) error
}

// MessageCodec decodes a JSON envelope body into the concrete Go type
// registered for a MessageTypeID, so the generic inbound endpoint can
// feed a typed value into the Dispatcher.
type MessageCodec struct {
	constructors map[core.MessageTypeID]func() interface{}
}

// NewMessageCodec creates an empty MessageCodec.
func NewMessageCodec() *MessageCodec {
	return &MessageCodec{constructors: make(map[core.MessageTypeID]func() interface{})}
}

// Register associates messageType with a zero-value constructor so
// inbound envelopes of that type can be decoded.
func (c *MessageCodec) Register(messageType core.MessageTypeID, newMessage func() interface{}) {
	c.constructors[messageType] = newMessage
}

// envelope is the wire shape for one inbound message post.
type envelope struct {
	MessageTypeID     core.MessageTypeID `json:"message_type_id"`
	SenderID          core.PeerID        `json:"sender_id"`
	MessageID         string             `json:"message_id"`
	DispatchQueueName string             `json:"dispatch_queue_name"`
	Body              json.RawMessage    `json:"body"`
}

// Server answers directory commands (delegated to a DirectoryServer) and
// generic inbound message posts (delegated to a dispatch.Dispatcher),
// routed with gorilla/mux.
type Server struct {
	router     *mux.Router
	directory  DirectoryServer
	dispatcher *dispatch.Dispatcher
	codec      *MessageCodec
}

// NewServer builds the routed http.Handler for one bus peer.
func NewServer(directoryServer DirectoryServer, dispatcher *dispatch.Dispatcher, codec *MessageCodec) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		directory:  directoryServer,
		dispatcher: dispatcher,
		codec:      codec,
	}
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/directory/register", s.handleRegisterPeer).Methods(http.MethodPost)
	s.router.HandleFunc("/directory/subscriptions", s.handleUpdateSubscriptions).Methods(http.MethodPost)
	s.router.HandleFunc("/directory/unregister", s.handleUnregisterPeer).Methods(http.MethodPost)
	s.router.HandleFunc("/dispatch", s.handleDispatch).Methods(http.MethodPost)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Errorf("httpwire: encoding response: %v", err)
		}
	}
}

func (s *Server) handleRegisterPeer(w http.ResponseWriter, r *http.Request) {
	var cmd directory.RegisterPeerCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := s.directory.HandleRegisterPeer(cmd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateSubscriptions(w http.ResponseWriter, r *http.Request) {
	var cmd directory.UpdatePeerSubscriptionsForTypesCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.directory.HandleUpdatePeerSubscriptionsForTypes(cmd); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleUnregisterPeer(w http.ResponseWriter, r *http.Request) {
	var cmd directory.UnregisterPeerCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.directory.HandleUnregisterPeer(cmd); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	newMessage, ok := s.codec.constructors[env.MessageTypeID]
	if !ok {
		http.Error(w, "unknown message type "+string(env.MessageTypeID), http.StatusBadRequest)
		return
	}
	msg := newMessage()
	if len(env.Body) > 0 {
		if err := json.Unmarshal(env.Body, msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	done := make(chan dispatch.DispatchResult, 1)
	s.dispatcher.Dispatch(dispatch.MessageDispatch{
		Context: &core.MessageContext{
			SenderID:          env.SenderID,
			MessageID:         env.MessageID,
			DispatchQueueName: env.DispatchQueueName,
		},
		Message:            msg,
		CompletionCallback: func(r dispatch.DispatchResult) { done <- r },
	})

	select {
	case result := <-done:
		writeJSON(w, http.StatusOK, dispatchResultWire{
			WasHandled: result.WasHandled,
			Errors:     errorStrings(result.Errors),
		})
	case <-time.After(30 * time.Second):
		http.Error(w, "dispatch timed out", http.StatusGatewayTimeout)
	}
}

// dispatchResultWire is the JSON-safe shape of a dispatch.DispatchResult:
// error values don't round-trip through encoding/json, so errors travel
// as their messages.
type dispatchResultWire struct {
	WasHandled bool     `json:"was_handled"`
	Errors     []string `json:"errors,omitempty"`
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

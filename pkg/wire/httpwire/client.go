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

// Package httpwire is the default wire transport: a directory.Transport
// implementation over plain JSON-over-HTTP, and the gorilla/mux server
// that answers it plus generic inbound message posts feeding a
// dispatch.Dispatcher.
package httpwire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gansuranga/zebus/core"
	"github.com/gansuranga/zebus/dispatch"
	"github.com/gansuranga/zebus/directory"
)

// Client is the default directory.Transport, speaking JSON over HTTP.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a Client. timeout bounds each individual HTTP round
// trip; per-attempt cancellation is additionally governed by the context
// passed to each call.
func NewClient(timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

func (c *Client) postJSON(ctx context.Context, addr, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("httpwire: marshal request: %w", err)
	}

	url := fmt.Sprintf("http://%s%s", addr, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("httpwire: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpwire: request to %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpwire: %s responded %d", addr, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("httpwire: decode response from %s: %w", addr, err)
	}
	return nil
}

// RegisterPeer implements directory.Transport.
func (c *Client) RegisterPeer(ctx context.Context, addr string, cmd directory.RegisterPeerCommand) (directory.RegisterPeerResponse, error) {
	var resp directory.RegisterPeerResponse
	err := c.postJSON(ctx, addr, "/directory/register", cmd, &resp)
	return resp, err
}

// UpdatePeerSubscriptionsForTypes implements directory.Transport.
func (c *Client) UpdatePeerSubscriptionsForTypes(ctx context.Context, addr string, cmd directory.UpdatePeerSubscriptionsForTypesCommand) error {
	return c.postJSON(ctx, addr, "/directory/subscriptions", cmd, nil)
}

// UnregisterPeer implements directory.Transport.
func (c *Client) UnregisterPeer(ctx context.Context, addr string, cmd directory.UnregisterPeerCommand) error {
	return c.postJSON(ctx, addr, "/directory/unregister", cmd, nil)
}

// SendMessage posts message to a remote peer's generic inbound endpoint,
// the outbound half of the Dispatcher's wire contract. A MessageID is
// minted when senderContext leaves one unset, so every outbound message
// carries a unique identity even when the caller doesn't track one.
func (c *Client) SendMessage(ctx context.Context, addr string, messageType core.MessageTypeID, senderContext core.MessageContext, message interface{}) (dispatch.DispatchResult, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return dispatch.DispatchResult{}, fmt.Errorf("httpwire: marshal message: %w", err)
	}
	if senderContext.MessageID == "" {
		senderContext.MessageID = uuid.New().String()
	}

	var result dispatchResultWire
	err = c.postJSON(ctx, addr, "/dispatch", envelope{
		MessageTypeID:     messageType,
		SenderID:          senderContext.SenderID,
		MessageID:         senderContext.MessageID,
		DispatchQueueName: senderContext.DispatchQueueName,
		Body:              body,
	}, &result)
	if err != nil {
		return dispatch.DispatchResult{}, err
	}

	errs := make([]error, len(result.Errors))
	for i, msg := range result.Errors {
		errs[i] = fmt.Errorf("%s", msg)
	}
	return dispatch.DispatchResult{WasHandled: result.WasHandled, Errors: errs}, nil
}

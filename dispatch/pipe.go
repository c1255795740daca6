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

import "github.com/gansuranga/zebus/core"

// Pipe is an interceptor around a handler invocation. A concrete Pipe
// implements any subset of BeforePipe, AfterPipe and OnErrorPipe; the
// PipeInvocation probes for each via a type assertion, mirroring the
// "subset of conn.Conn methods" capability-probing idiom used for
// dispatch collaborators.
type Pipe interface {
	// Name distinguishes pipes in logs; does not need to be unique.
	Name() string
}

// BeforePipe runs before the handler. It may return a state value, stashed
// per-invocation and handed back to the matching AfterPipe/OnErrorPipe.
type BeforePipe interface {
	Pipe
	BeforeInvoke(msg interface{}, ctx *core.MessageContext) (state interface{}, err error)
}

// AfterPipe runs after the handler, in reverse registration order. err is
// non-nil if the handler or an earlier hook failed; the hook still runs,
// informed of the failure.
type AfterPipe interface {
	Pipe
	AfterInvoke(msg interface{}, ctx *core.MessageContext, state interface{}, err error)
}

// OnErrorPipe runs, in reverse registration order, when the handler or any
// Before hook fails.
type OnErrorPipe interface {
	Pipe
	OnInvokeError(msg interface{}, ctx *core.MessageContext, state interface{}, err error)
}

// PipeInvocation bundles one handler invocation with the ordered pipe
// stack wrapping it and the per-invocation state each Before hook may
// stash for its matching After/OnError hook.
type PipeInvocation struct {
	Invoker Invoker
	Message interface{}
	Context *core.MessageContext
	Pipes   []Pipe

	state map[Pipe]interface{}
}

// NewPipeInvocation builds a PipeInvocation. Pipes built by a PipeManager
// collaborator in production; constructed directly in tests.
func NewPipeInvocation(invoker Invoker, msg interface{}, ctx *core.MessageContext, pipes []Pipe) *PipeInvocation {
	return &PipeInvocation{
		Invoker: invoker,
		Message: msg,
		Context: ctx,
		Pipes:   pipes,
		state:   make(map[Pipe]interface{}, len(pipes)),
	}
}

// Run executes the Before hooks in registration order, then the handler,
// then the After hooks in reverse registration order. If the handler or
// any Before hook fails, the OnError hooks run in reverse order first; the
// After hooks still run afterward, informed of the failure. Returns the
// final error, if any.
func (inv *PipeInvocation) Run() error {
	err := inv.runBefore()
	if err == nil {
		err = inv.Invoker.Invoke(inv.Message, inv.Context)
	}
	if err != nil {
		inv.runOnError(err)
	}
	inv.runAfter(err)
	return err
}

func (inv *PipeInvocation) runBefore() error {
	for _, p := range inv.Pipes {
		before, ok := p.(BeforePipe)
		if !ok {
			continue
		}
		state, err := before.BeforeInvoke(inv.Message, inv.Context)
		inv.state[p] = state
		if err != nil {
			return err
		}
	}
	return nil
}

func (inv *PipeInvocation) runAfter(err error) {
	for i := len(inv.Pipes) - 1; i >= 0; i-- {
		p := inv.Pipes[i]
		after, ok := p.(AfterPipe)
		if !ok {
			continue
		}
		after.AfterInvoke(inv.Message, inv.Context, inv.state[p], err)
	}
}

func (inv *PipeInvocation) runOnError(err error) {
	for i := len(inv.Pipes) - 1; i >= 0; i-- {
		p := inv.Pipes[i]
		onErr, ok := p.(OnErrorPipe)
		if !ok {
			continue
		}
		onErr.OnInvokeError(inv.Message, inv.Context, inv.state[p], err)
	}
}

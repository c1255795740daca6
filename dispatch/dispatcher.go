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
	"sync"

	"github.com/gansuranga/zebus/core"
	"github.com/uber-go/tally"
)

// DispatchResult aggregates the outcome of every invoker that ran for one
// MessageDispatch.
type DispatchResult struct {
	WasHandled bool
	Errors     []error
}

// MessageDispatch is one in-flight invocation across all matching
// handlers. CompletionCallback fires exactly once, with the final
// DispatchResult, once every matching invoker has completed.
type MessageDispatch struct {
	Context            *core.MessageContext
	Message            interface{}
	CompletionCallback func(DispatchResult)
}

// PipeManager builds the ordered pipe stack wrapping one invocation. A
// production Dispatcher is handed a PipeManager assembled from
// configuration; tests can supply a no-op one.
type PipeManager interface {
	BuildPipeInvocation(invoker Invoker, message interface{}, ctx *core.MessageContext) *PipeInvocation
}

// StaticPipeManager wraps every invocation with the same fixed pipe stack.
type StaticPipeManager struct {
	Pipes []Pipe
}

// BuildPipeInvocation implements PipeManager.
func (m StaticPipeManager) BuildPipeInvocation(invoker Invoker, message interface{}, ctx *core.MessageContext) *PipeInvocation {
	return NewPipeInvocation(invoker, message, ctx, m.Pipes)
}

// Dispatcher routes one inbound message to the dispatch queue(s) owning
// its matching invokers, running each through the pipe chain and
// aggregating a single DispatchResult delivered to the dispatch's
// completion callback exactly once.
type Dispatcher struct {
	registry    *Registry
	queues      *Queues
	pipeManager PipeManager
	stats       tally.Scope

	mu       sync.RWMutex
	invokers []Invoker
	byType   map[core.MessageTypeID][]Invoker
}

// NewDispatcher creates a Dispatcher. registry supplies invokers,
// queues owns the named dispatch queues they run on, pipeManager wraps
// each invocation.
func NewDispatcher(registry *Registry, queues *Queues, pipeManager PipeManager, stats tally.Scope) *Dispatcher {
	if pipeManager == nil {
		pipeManager = StaticPipeManager{}
	}
	return &Dispatcher{
		registry:    registry,
		queues:      queues,
		pipeManager: pipeManager,
		stats:       stats,
		byType:      make(map[core.MessageTypeID][]Invoker),
	}
}

// ConfigureAssemblyFilter sets the predicate consumed on the next
// LoadMessageHandlerInvokers.
func (d *Dispatcher) ConfigureAssemblyFilter(fn AssemblyFilter) {
	d.registry.ConfigureAssemblyFilter(fn)
}

// ConfigureHandlerFilter sets the predicate consumed on the next
// LoadMessageHandlerInvokers.
func (d *Dispatcher) ConfigureHandlerFilter(fn HandlerFilter) {
	d.registry.ConfigureHandlerFilter(fn)
}

// LoadMessageHandlerInvokers rebuilds the invoker set from the registry.
// Idempotent: calling it twice without changing registrations/filters
// yields an equivalent set.
func (d *Dispatcher) LoadMessageHandlerInvokers() error {
	invokers, err := d.registry.Build()
	if err != nil {
		return err
	}

	byType := make(map[core.MessageTypeID][]Invoker, len(invokers))
	for _, inv := range invokers {
		byType[inv.MessageTypeID()] = append(byType[inv.MessageTypeID()], inv)
	}

	d.mu.Lock()
	d.invokers = invokers
	d.byType = byType
	d.mu.Unlock()
	return nil
}

// GetMessageHandlerInvokers returns a read-only snapshot of every loaded invoker.
func (d *Dispatcher) GetMessageHandlerInvokers() []Invoker {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Invoker, len(d.invokers))
	copy(out, d.invokers)
	return out
}

// GetHandledMessageTypes returns each handled MessageTypeID exactly once.
func (d *Dispatcher) GetHandledMessageTypes() []core.MessageTypeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]core.MessageTypeID, 0, len(d.byType))
	for t := range d.byType {
		out = append(out, t)
	}
	return out
}

// PurgeQueues purges every known dispatch queue and returns the sum of
// discarded tasks.
func (d *Dispatcher) PurgeQueues() int {
	return d.queues.PurgeAll()
}

// Stop stops every known dispatch queue, abandoning pending work.
func (d *Dispatcher) Stop() {
	d.queues.StopAll()
}

func (d *Dispatcher) invokersFor(messageType core.MessageTypeID) []Invoker {
	d.mu.RLock()
	defer d.mu.RUnlock()
	matches := d.byType[messageType]
	out := make([]Invoker, len(matches))
	copy(out, matches)
	return out
}

// messageTypeIDOf resolves a MessageTypeID for msg: a message with a
// MessageTypeID() method names its own id, everything else dispatches by its
// runtime (reflect) type name -- the Go stand-in for a full type name
// used as a stable MessageTypeId.
func messageTypeIDOf(msg interface{}) core.MessageTypeID {
	if named, ok := msg.(interface{ MessageTypeID() core.MessageTypeID }); ok {
		return named.MessageTypeID()
	}
	t := reflect.TypeOf(msg)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return core.MessageTypeID(t.PkgPath() + "." + t.Name())
}

// Dispatch resolves every invoker matching the message's runtime type,
// submits one pipe-wrapped invocation per invoker to its dispatch queue,
// and fires CompletionCallback exactly once with the aggregated
// DispatchResult once they have all completed.
func (d *Dispatcher) Dispatch(md MessageDispatch) {
	messageType := messageTypeIDOf(md.Message)
	invokers := d.invokersFor(messageType)

	if len(invokers) == 0 {
		if md.CompletionCallback != nil {
			md.CompletionCallback(DispatchResult{})
		}
		return
	}

	var (
		mu      sync.Mutex
		result  DispatchResult
		pending = len(invokers)
	)
	result.WasHandled = true

	complete := func(err error) {
		mu.Lock()
		if err != nil {
			result.Errors = append(result.Errors, err)
		}
		pending--
		done := pending == 0
		mu.Unlock()

		if done && md.CompletionCallback != nil {
			mu.Lock()
			final := result
			mu.Unlock()
			md.CompletionCallback(final)
		}
	}

	for _, inv := range invokers {
		inv := inv
		queueName := inv.DispatchQueueName()
		if queueName == "" {
			queueName = md.Context.DispatchQueueName
		}
		if queueName == "" {
			queueName = core.DefaultDispatchQueueName
		}

		pipeInvocation := d.pipeManager.BuildPipeInvocation(inv, md.Message, md.Context)
		d.queues.Get(queueName).Enqueue(func() {
			complete(pipeInvocation.Run())
		})
	}
}

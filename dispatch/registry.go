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
	"fmt"
	"reflect"
	"sync"

	"github.com/gansuranga/zebus/core"
)

// Container resolves a handler instance given its type. Kept as an
// explicit interface, not a package-level singleton, so dependency
// injection stays pluggable -- callers wire their own container the way
// blobclient wires a resolver rather than reaching for a global.
type Container interface {
	GetInstance(handlerType reflect.Type) (interface{}, error)
}

// ContainerFunc adapts a plain function to Container.
type ContainerFunc func(handlerType reflect.Type) (interface{}, error)

// GetInstance implements Container.
func (f ContainerFunc) GetInstance(handlerType reflect.Type) (interface{}, error) {
	return f(handlerType)
}

// HandlerKind distinguishes how a Registration's entry point is invoked.
type HandlerKind int

const (
	// KindSync handlers return (error) synchronously.
	KindSync HandlerKind = iota
	// KindAsync handlers return an AsyncResult.
	KindAsync
)

// Registration describes one (handler type, message type) binding a
// handler package contributes to the Registry, in place of scanning an
// assembly for capability-tagged types. Handler packages populate these
// at construction/init time.
type Registration struct {
	// Group stands in for "assembly" -- the filterable unit AssemblyFilter
	// predicates over.
	Group string

	HandlerType   reflect.Type
	MessageType   reflect.Type
	MessageTypeID core.MessageTypeID
	Kind          HandlerKind
	QueueName     string

	// NoScan mirrors the handler-level capability tag: when true,
	// ShouldBeSubscribedOnStartup is forced false regardless of MessageType.
	NoScan bool
	// Routable mirrors the message-level capability tag with the same effect.
	Routable bool

	NewSyncHandler  func(instance interface{}) SyncHandlerFunc
	NewAsyncHandler func(instance interface{}) AsyncHandlerFunc
}

// AssemblyFilter admits or rejects a Registration by its Group.
type AssemblyFilter func(group string) bool

// HandlerFilter admits or rejects a Registration by its HandlerType.
type HandlerFilter func(handlerType reflect.Type) bool

// AllAssemblies admits every group.
func AllAssemblies(string) bool { return true }

// AllHandlers admits every handler type.
func AllHandlers(reflect.Type) bool { return true }

// ErrWrongAsyncHandler is returned when a Registration is declared async
// but carries no async entry point constructor.
var ErrWrongAsyncHandler = fmt.Errorf("dispatch: handler declared async-capable but entry point does not return a deferred result")

// ErrMissingSyncHandler is returned when a Registration is declared sync
// but carries no sync entry point constructor.
var ErrMissingSyncHandler = fmt.Errorf("dispatch: handler declared sync but entry point constructor is nil")

var (
	noScanType     = reflect.TypeOf((*core.NoScan)(nil)).Elem()
	routableType   = reflect.TypeOf((*core.Routable)(nil)).Elem()
	queueNamedType = reflect.TypeOf((*core.QueueNamed)(nil)).Elem()
)

// Registry holds the statically-known set of Registrations and builds
// Invokers from them on demand, replacing assembly/reflection scanning
// with an explicit list handler packages register into.
type Registry struct {
	container Container

	mu            sync.Mutex
	registrations []Registration
	assemblyFn    AssemblyFilter
	handlerFn     HandlerFilter
}

// NewRegistry creates an empty Registry resolving handler instances via container.
func NewRegistry(container Container) *Registry {
	return &Registry{
		container:  container,
		assemblyFn: AllAssemblies,
		handlerFn:  AllHandlers,
	}
}

// Register adds one Registration. Safe to call concurrently with Build.
func (r *Registry) Register(reg Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = append(r.registrations, reg)
}

// ConfigureAssemblyFilter sets the predicate consumed on the next Build.
func (r *Registry) ConfigureAssemblyFilter(fn AssemblyFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fn == nil {
		fn = AllAssemblies
	}
	r.assemblyFn = fn
}

// ConfigureHandlerFilter sets the predicate consumed on the next Build.
func (r *Registry) ConfigureHandlerFilter(fn HandlerFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fn == nil {
		fn = AllHandlers
	}
	r.handlerFn = fn
}

// Build constructs one Invoker per admitted Registration, resolving each
// handler instance from the Container. Idempotent: calling Build twice
// with unchanged Registrations and filters yields an equivalent set.
func (r *Registry) Build() ([]Invoker, error) {
	r.mu.Lock()
	regs := make([]Registration, len(r.registrations))
	copy(regs, r.registrations)
	assemblyFn := r.assemblyFn
	handlerFn := r.handlerFn
	r.mu.Unlock()

	invokers := make([]Invoker, 0, len(regs))
	for _, reg := range regs {
		if !assemblyFn(reg.Group) || !handlerFn(reg.HandlerType) {
			continue
		}

		instance, err := r.container.GetInstance(reg.HandlerType)
		if err != nil {
			return nil, fmt.Errorf("dispatch: resolving %s: %w", reg.HandlerType, err)
		}

		noScan := reg.NoScan || reg.HandlerType.Implements(noScanType)
		routable := reg.Routable || (reg.MessageType != nil && reg.MessageType.Implements(routableType))
		subscribeOnStart := !noScan && !routable

		queueName := reg.QueueName
		if queueName == "" {
			if qn, ok := instance.(core.QueueNamed); ok {
				queueName = qn.DispatchQueueName()
			}
		}

		switch reg.Kind {
		case KindSync:
			if reg.NewSyncHandler == nil {
				return nil, ErrMissingSyncHandler
			}
			invokers = append(invokers, NewSyncInvoker(
				reg.MessageTypeID, reg.HandlerType, subscribeOnStart, queueName,
				reg.NewSyncHandler(instance)))
		case KindAsync:
			if reg.NewAsyncHandler == nil {
				return nil, ErrWrongAsyncHandler
			}
			invokers = append(invokers, NewAsyncInvoker(
				reg.MessageTypeID, reg.HandlerType, subscribeOnStart, queueName,
				reg.NewAsyncHandler(instance)))
		default:
			return nil, fmt.Errorf("dispatch: unknown handler kind %d for %s", reg.Kind, reg.HandlerType)
		}
	}
	return invokers, nil
}

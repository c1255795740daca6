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

// Package localdispatch carries the flag a bus client checks before
// short-circuiting a send to a locally-handled message type straight into
// the local Dispatcher instead of going out over transport.
//
// The source this was distilled from keeps this flag thread-local,
// restoring the prior value when a scoped disable is disposed so nested
// disables compose. Go has no ambient per-goroutine storage to leak into
// the way a thread-local would, and a goroutine-local-storage shim (e.g.
// via runtime stack introspection) would fight the language rather than
// use it. The context.Context already threaded through every call on this
// path carries the flag instead: Disable returns a derived context with
// the flag set, and nesting falls out for free -- a caller that keeps its
// own ctx reference around the inner call sees its outer value restored
// the moment the inner context is dropped, with no explicit restore step.
package localdispatch

import "context"

type guardKey struct{}

// Disable returns a context in which local short-circuit dispatch is
// disabled. The parent ctx is unaffected, so calling code that retains it
// observes the prior state once the derived context goes out of scope --
// the Go equivalent of a nested scoped disable restoring the outer value.
func Disable(ctx context.Context) context.Context {
	return context.WithValue(ctx, guardKey{}, true)
}

// IsDisabled reports whether local short-circuit dispatch is disabled in ctx.
func IsDisabled(ctx context.Context) bool {
	disabled, _ := ctx.Value(guardKey{}).(bool)
	return disabled
}

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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gansuranga/zebus/core"
)

type recordingPipe struct {
	name  string
	trace *[]string
	state interface{}
}

func (p *recordingPipe) Name() string { return p.name }

func (p *recordingPipe) BeforeInvoke(msg interface{}, ctx *core.MessageContext) (interface{}, error) {
	*p.trace = append(*p.trace, p.name+":before")
	return p.state, nil
}

func (p *recordingPipe) AfterInvoke(msg interface{}, ctx *core.MessageContext, state interface{}, err error) {
	*p.trace = append(*p.trace, p.name+":after")
}

type failingBeforePipe struct {
	name string
	err  error
}

func (p *failingBeforePipe) Name() string { return p.name }
func (p *failingBeforePipe) BeforeInvoke(msg interface{}, ctx *core.MessageContext) (interface{}, error) {
	return nil, p.err
}

type errorRecordingPipe struct {
	name  string
	trace *[]string
}

func (p *errorRecordingPipe) Name() string { return p.name }
func (p *errorRecordingPipe) OnInvokeError(msg interface{}, ctx *core.MessageContext, state interface{}, err error) {
	*p.trace = append(*p.trace, p.name+":onerror:"+err.Error())
}

type fakeInvoker struct {
	err error
}

func (f *fakeInvoker) MessageTypeID() core.MessageTypeID              { return "fake" }
func (f *fakeInvoker) MessageHandlerType() reflect.Type               { return reflect.TypeOf(f) }
func (f *fakeInvoker) ShouldBeSubscribedOnStartup() bool              { return true }
func (f *fakeInvoker) DispatchQueueName() string                      { return "" }
func (f *fakeInvoker) Invoke(interface{}, *core.MessageContext) error { return f.err }

func TestPipeInvocationRunsBeforeThenHandlerThenAfterInOrder(t *testing.T) {
	require := require.New(t)

	var trace []string
	pipes := []Pipe{
		&recordingPipe{name: "p1", trace: &trace},
		&recordingPipe{name: "p2", trace: &trace},
	}
	inv := NewPipeInvocation(&fakeInvoker{}, "msg", &core.MessageContext{}, pipes)

	require.NoError(inv.Run())
	require.Equal([]string{"p1:before", "p2:before", "p2:after", "p1:after"}, trace)
}

func TestPipeInvocationRunsOnErrorOnHandlerFailureThenStillRunsAfter(t *testing.T) {
	require := require.New(t)

	var trace []string
	handlerErr := errors.New("handler boom")
	pipes := []Pipe{
		&recordingPipe{name: "p1", trace: &trace},
		&errorRecordingPipe{name: "p2", trace: &trace},
	}
	inv := NewPipeInvocation(&fakeInvoker{err: handlerErr}, "msg", &core.MessageContext{}, pipes)

	err := inv.Run()
	require.Equal(handlerErr, err)
	require.Equal([]string{"p1:before", "p2:onerror:handler boom", "p1:after"}, trace)
}

func TestPipeInvocationBeforeHookFailureSkipsHandlerButRunsOnErrorAndAfter(t *testing.T) {
	require := require.New(t)

	var trace []string
	beforeErr := errors.New("before boom")
	invoked := false
	pipes := []Pipe{
		&failingBeforePipe{name: "p1", err: beforeErr},
		&errorRecordingPipe{name: "p2", trace: &trace},
	}
	inv := NewPipeInvocation(&invocationSpy{invoked: &invoked}, "msg", &core.MessageContext{}, pipes)

	err := inv.Run()
	require.Equal(beforeErr, err)
	require.False(invoked, "handler must not run when a Before hook fails")
	require.Equal([]string{"p2:onerror:before boom"}, trace)
}

type invocationSpy struct {
	invoked *bool
}

func (s *invocationSpy) MessageTypeID() core.MessageTypeID { return "fake" }
func (s *invocationSpy) MessageHandlerType() reflect.Type  { return reflect.TypeOf(s) }
func (s *invocationSpy) ShouldBeSubscribedOnStartup() bool { return true }
func (s *invocationSpy) DispatchQueueName() string         { return "" }
func (s *invocationSpy) Invoke(interface{}, *core.MessageContext) error {
	*s.invoked = true
	return nil
}

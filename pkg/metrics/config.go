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

// Package metrics builds the process-wide tally.Scope handed to the
// dispatcher and its dispatch queues; the queues tag their counters onto it.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/uber-go/tally"
)

// Config selects and configures the metrics backend.
type Config struct {
	Backend string `yaml:"backend"`
	Prefix  string `yaml:"prefix"`
}

type scopeFactory func(config Config) (tally.Scope, io.Closer, error)

var scopeFactories = map[string]scopeFactory{
	"":         newDisabledScope,
	"disabled": newDisabledScope,
	"noop":     newDisabledScope,
}

// New builds a tally.Scope from config. An unregistered backend is a
// configuration error.
func New(config Config) (tally.Scope, io.Closer, error) {
	f, ok := scopeFactories[config.Backend]
	if !ok {
		return nil, nil, fmt.Errorf("metrics: backend %q not registered", config.Backend)
	}
	return f(config)
}

func newDisabledScope(config Config) (tally.Scope, io.Closer, error) {
	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:   config.Prefix,
		Reporter: disabledReporter{},
	}, time.Second)
	return scope, closer, nil
}

// disabledReporter discards every metric, used when no backend is
// configured -- counters and gauges stay cheap to call everywhere in the
// dispatch path without requiring a live collector in tests.
type disabledReporter struct{}

func (disabledReporter) ReportCounter(string, map[string]string, int64)       {}
func (disabledReporter) ReportGauge(string, map[string]string, float64)       {}
func (disabledReporter) ReportTimer(string, map[string]string, time.Duration) {}
func (disabledReporter) ReportHistogramValueSamples(
	string, map[string]string, tally.Buckets, float64, float64, int64) {
}
func (disabledReporter) ReportHistogramDurationSamples(
	string, map[string]string, tally.Buckets, time.Duration, time.Duration, int64) {
}
func (r disabledReporter) Capabilities() tally.Capabilities { return r }
func (disabledReporter) Reporting() bool                    { return true }
func (disabledReporter) Tagging() bool                      { return false }
func (disabledReporter) Flush()                             {}

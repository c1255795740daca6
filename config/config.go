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

// Package config defines the root configuration for a bus peer process,
// composing the configuration of every layer busd wires together.
package config

import (
	"go.uber.org/zap"

	"github.com/gansuranga/zebus/directory"
	"github.com/gansuranga/zebus/pkg/metrics"
)

// ListenerConfig configures the address busd's HTTP server binds to.
type ListenerConfig struct {
	Net  string `yaml:"net"`
	Addr string `yaml:"addr"`
}

func (c ListenerConfig) applyDefaults() ListenerConfig {
	if c.Net == "" {
		c.Net = "tcp"
	}
	if c.Addr == "" {
		c.Addr = ":9091"
	}
	return c
}

// Config is the top-level busd configuration, loaded from YAML via
// pkg/configutil.Load.
type Config struct {
	ZapLogging zap.Config       `yaml:"zap"`
	Metrics    metrics.Config   `yaml:"metrics"`
	Listener   ListenerConfig   `yaml:"listener"`
	Directory  directory.Config `yaml:"directory"`
}

// ApplyDefaults fills in zero-valued fields with their defaults. Exported
// since, unlike directory.Config, it is applied by the cmd/busd entrypoint
// rather than by a constructor living in this same package.
func (c Config) ApplyDefaults() Config {
	c.Listener = c.Listener.applyDefaults()
	return c
}

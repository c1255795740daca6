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

// Package log provides the process-wide sugared logger every other
// package logs through. It wraps zap instead of exposing it directly so
// the global can be reconfigured once, at startup, without touching call
// sites.
package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop().Sugar()
)

// ConfigureLogger builds a zap.Logger from config and installs it as the
// global logger, returning the underlying *zap.Logger for callers (e.g.
// an http server) that want an unsugared instance.
func ConfigureLogger(config zap.Config) (*zap.Logger, error) {
	zl, err := config.Build()
	if err != nil {
		return nil, err
	}
	SetGlobalLogger(zl.Sugar())
	return zl, nil
}

// SetGlobalLogger installs l as the process-wide logger.
func SetGlobalLogger(l *zap.SugaredLogger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns a logger decorated with the given key-value pairs.
func With(args ...interface{}) *zap.SugaredLogger {
	return current().With(args...)
}

// Debugf logs at debug level.
func Debugf(template string, args ...interface{}) { current().Debugf(template, args...) }

// Infof logs at info level.
func Infof(template string, args ...interface{}) { current().Infof(template, args...) }

// Info logs its arguments, joined as by fmt.Sprint, at info level.
func Info(args ...interface{}) { current().Info(args...) }

// Warnf logs at warn level.
func Warnf(template string, args ...interface{}) { current().Warnf(template, args...) }

// Errorf logs at error level.
func Errorf(template string, args ...interface{}) { current().Errorf(template, args...) }

// Fatalf logs at fatal level and then calls os.Exit(1).
func Fatalf(template string, args ...interface{}) { current().Fatalf(template, args...) }

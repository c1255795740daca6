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

// Package configutil loads and validates YAML configuration, chaining
// together any number of files via an "extends" directive.
package configutil

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v2"
)

// ValidationError wraps a validator.v2 error map so the caller can inspect
// which fields failed and why.
type ValidationError struct {
	errs map[string]validator.ErrorArray
}

// Error implements error.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %v", e.errs)
}

// ErrForField returns the validation errors recorded against field, if any.
func (e ValidationError) ErrForField(field string) validator.ErrorArray {
	return e.errs[field]
}

type extendsStub struct {
	Extends string `yaml:"extends"`
}

// Load reads fname into target, following its "extends" chain (a parent
// file is loaded first, then overlaid by each child in order) and
// validating the final merged result against its `validate` struct tags.
func Load(fname string, target interface{}) error {
	chain, err := resolveChain(fname)
	if err != nil {
		return err
	}
	return loadFiles(target, chain)
}

// resolveChain walks "extends" references starting from fname, returning
// the chain from root ancestor to fname itself. A relative "extends" path
// is resolved against the directory of the file that names it.
func resolveChain(fname string) ([]string, error) {
	var chain []string
	seen := make(map[string]bool)

	for fname != "" {
		if seen[fname] {
			return nil, fmt.Errorf("configutil: cycle detected in extends chain at %s", fname)
		}
		seen[fname] = true
		chain = append([]string{fname}, chain...)

		data, err := os.ReadFile(fname)
		if err != nil {
			return nil, fmt.Errorf("configutil: reading %s: %w", fname, err)
		}
		var stub extendsStub
		if err := yaml.Unmarshal(data, &stub); err != nil {
			return nil, fmt.Errorf("configutil: parsing %s: %w", fname, err)
		}
		if stub.Extends != "" && !filepath.IsAbs(stub.Extends) {
			stub.Extends = filepath.Join(filepath.Dir(fname), stub.Extends)
		}
		fname = stub.Extends
	}
	return chain, nil
}

// loadFiles unmarshals each file in files into target in order -- later
// files overlay fields present in earlier ones -- then validates once,
// against the fully merged result.
func loadFiles(target interface{}, files []string) error {
	for _, fname := range files {
		data, err := os.ReadFile(fname)
		if err != nil {
			return fmt.Errorf("configutil: reading %s: %w", fname, err)
		}
		if err := yaml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("configutil: parsing %s: %w", fname, err)
		}
	}

	if err := validator.Validate(target); err != nil {
		errs, ok := err.(validator.ErrorMap)
		if !ok {
			return err
		}
		return ValidationError{errs: errs}
	}
	return nil
}

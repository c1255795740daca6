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
package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Addr string `yaml:"addr" validate:"nonzero"`
	Name string `yaml:"name"`
}

func writeFile(t *testing.T, dir, name, contents string) string {
	fname := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fname, []byte(contents), 0644))
	return fname
}

func TestLoadMergesExtendsChainParentFirst(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	writeFile(t, dir, "base.yaml", "addr: base:9091\nname: base\n")
	childName := "child.yaml"
	child := writeFile(t, dir, childName, "extends: base.yaml\nname: child\n")

	var cfg testConfig
	require.NoError(Load(child, &cfg))
	require.Equal("base:9091", cfg.Addr, "child does not set addr, so base's value survives")
	require.Equal("child", cfg.Name, "child overlays the parent's name")
}

func TestLoadDetectsExtendsCycle(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	writeFile(t, dir, "a.yaml", "extends: b.yaml\n")
	b := writeFile(t, dir, "b.yaml", "extends: a.yaml\n")

	var cfg testConfig
	err := Load(b, &cfg)
	require.Error(err)
	require.Contains(err.Error(), "cycle detected")
}

func TestLoadReturnsValidationErrorOnMissingRequiredField(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	fname := writeFile(t, dir, "empty.yaml", "name: onlyname\n")

	var cfg testConfig
	err := Load(fname, &cfg)
	require.Error(err)

	var verr ValidationError
	require.ErrorAs(err, &verr)
	require.NotEmpty(verr.ErrForField("Addr"))
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	require := require.New(t)

	var cfg testConfig
	err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	require.Error(err)
}

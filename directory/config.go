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
package directory

import "time"

// Config configures the directory Client.
type Config struct {
	// DirectoryServiceEndPoints is the ordered list of directory server
	// addresses tried during registration.
	DirectoryServiceEndPoints []string `yaml:"directory_service_endpoints"`

	// IsDirectoryPickedRandomly shuffles DirectoryServiceEndPoints per
	// registration attempt instead of trying them in configured order.
	IsDirectoryPickedRandomly bool `yaml:"is_directory_picked_randomly"`

	// IsPersistent marks the local peer as surviving restarts, echoed
	// into its PeerDescriptor.
	IsPersistent bool `yaml:"is_persistent"`

	// RegistrationTimeout bounds each individual directory server attempt.
	RegistrationTimeout time.Duration `yaml:"registration_timeout"`
}

func (c Config) applyDefaults() Config {
	if c.RegistrationTimeout <= 0 {
		c.RegistrationTimeout = 5 * time.Second
	}
	return c
}

// Copyright (c) 2025 GMartin-Data
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// The TOML configuration file contains a number of sections (or
// tables):
//
//   [driver]     - the ODBC driver this tool ensures is registered
//   [repository] - the vendor package repository providing the driver
//   [packages]   - the packages to install when the driver is missing
//   [runtime]    - settings for the tool itself
//
// Every value has a built-in default matching the one supported
// vendor/distribution pair (Microsoft ODBC Driver 18 on Ubuntu 22.04),
// so the tool runs without a configuration file.
const (
	defaultRuntimeConfiguration = "/etc/odbc-bootstrap/configuration.toml"

	defaultDriverName = "ODBC Driver 18 for SQL Server"

	defaultKeyURL   = "https://packages.microsoft.com/keys/microsoft.asc"
	defaultKeyPath  = "/etc/apt/trusted.gpg.d/microsoft.asc"
	defaultListURL  = "https://packages.microsoft.com/config/ubuntu/22.04/prod.list"
	defaultListPath = "/etc/apt/sources.list.d/mssql-release.list"
)

var defaultPackageNames = []string{"msodbcsql18", "unixodbc-dev"}

type bootstrapConfig struct {
	Driver     driverConfig
	Repository repository
	Packages   packages
	Runtime    runtime
}

type driverConfig struct {
	Name string
}

type repository struct {
	KeyURL   string `toml:"key_url"`
	KeyPath  string `toml:"key_path"`
	ListURL  string `toml:"list_url"`
	ListPath string `toml:"list_path"`
}

type packages struct {
	Names      []string
	AcceptEULA *bool `toml:"accept_eula"`
}

type runtime struct {
	GlobalLogPath string `toml:"global_log_path"`
}

func (d driverConfig) name() string {
	if d.Name == "" {
		return defaultDriverName
	}

	return d.Name
}

func (r repository) keyURL() string {
	if r.KeyURL == "" {
		return defaultKeyURL
	}

	return r.KeyURL
}

func (r repository) keyPath() string {
	if r.KeyPath == "" {
		return defaultKeyPath
	}

	return r.KeyPath
}

func (r repository) listURL() string {
	if r.ListURL == "" {
		return defaultListURL
	}

	return r.ListURL
}

func (r repository) listPath() string {
	if r.ListPath == "" {
		return defaultListPath
	}

	return r.ListPath
}

func (p packages) names() []string {
	if len(p.Names) == 0 {
		return defaultPackageNames
	}

	return p.Names
}

func (p packages) acceptEULA() bool {
	if p.AcceptEULA == nil {
		return true
	}

	return *p.AcceptEULA
}

// loadConfiguration loads the configuration file, if any, and returns
// the resulting configuration.
//
// Unlike the values inside the file, the file itself is optional: if
// neither an explicit path nor the default one exists, the built-in
// defaults apply.
//
// If ignoreLogging is true, the global log will not be initialised nor
// will this function make any log calls.
func loadConfiguration(configPath string, ignoreLogging bool) (resolvedConfigPath, logfilePath string, config bootstrapConfig, err error) {
	explicit := configPath != ""

	if configPath == "" {
		configPath = defaultRuntimeConfiguration
	}

	resolved, err := resolvePath(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				// Make the error clearer than the one returned
				// by EvalSymlinks().
				return "", "", config, fmt.Errorf("Config file %v does not exist", configPath)
			}

			// No configuration file: run on defaults.
			return "", "", config, nil
		}

		return "", "", config, err
	}

	configData, err := getFileContents(resolved)
	if err != nil {
		return "", "", config, err
	}

	_, err = toml.Decode(configData, &config)
	if err != nil {
		return "", "", config, err
	}

	logfilePath = config.Runtime.GlobalLogPath

	if !ignoreLogging {
		// The configuration file may have enabled global logging,
		// so handle that before any log calls.
		err = handleGlobalLog(logfilePath)
		if err != nil {
			return "", "", config, err
		}

		obLog.Debugf("TOML configuration: %v", config)
	}

	return resolved, logfilePath, config, nil
}

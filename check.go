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
	"os/exec"
	"strings"

	"github.com/urfave/cli"
)

// variables rather than consts to allow tests to modify them
var (
	odbcinstCmd = "odbcinst"

	// arguments querying the installed-driver section of the
	// driver manager's registry
	odbcinstQueryArgs = []string{"-q", "-d"}
)

// listDrivers queries the system driver manager for its installed
// driver registry and returns the raw listing. The query has no side
// effects.
func listDrivers() (string, error) {
	cmd := exec.Command(odbcinstCmd, odbcinstQueryArgs...)

	bytes, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(bytes))
	if err != nil {
		return output, fmt.Errorf("failed to query ODBC driver registry: %w", err)
	}

	return output, nil
}

// driverRegistered determines whether the registry listing contains
// the specified driver name.
func driverRegistered(listing, driverName string) bool {
	if listing == "" || driverName == "" {
		return false
	}

	return strings.Contains(listing, driverName)
}

// hostHasDriver queries the driver registry and reports whether the
// given driver is registered, returning the listing either way.
func hostHasDriver(driverName string) (bool, string, error) {
	listing, err := listDrivers()
	if err != nil {
		return false, listing, err
	}

	return driverRegistered(listing, driverName), listing, nil
}

var checkCommand = cli.Command{
	Name:  "check",
	Usage: "tests if the configured ODBC driver is registered on this host",
	Action: func(context *cli.Context) error {
		config, err := commandConfig(context)
		if err != nil {
			return err
		}

		driverName := config.Driver.name()

		registered, listing, err := hostHasDriver(driverName)
		if err != nil {
			return fmt.Errorf("ERROR: %v", err)
		}

		fmt.Fprintln(defaultOutputFile, listing)

		if !registered {
			return fmt.Errorf("driver %q is not registered", driverName)
		}

		obLog.Infof("Found ODBC driver %q", driverName)

		return nil
	},
}

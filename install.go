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

	"github.com/urfave/cli"
)

const (
	// eulaEnv pre-accepts the vendor's end-user license agreement
	// for non-interactive installation.
	eulaEnv = "ACCEPT_EULA=Y"

	// frontendEnv stops apt from prompting.
	frontendEnv = "DEBIAN_FRONTEND=noninteractive"
)

// ensureDriverInstalled makes sure the configured ODBC driver is
// registered with the system driver manager.
//
// The operation is idempotent: when the driver is already registered,
// only the registry query runs and no system state is touched.
// Otherwise the vendor repository is registered, the package index
// refreshed, and the driver and development packages installed. The
// first failing step aborts the whole operation; partially applied
// state is not rolled back.
func ensureDriverInstalled(config bootstrapConfig, system systemConfigurator) error {
	driverName := config.Driver.name()

	registered, listing, err := hostHasDriver(driverName)
	if err != nil {
		return err
	}

	if registered {
		fmt.Fprintln(defaultOutputFile, listing)
		obLog.Infof("Driver %q already registered, nothing to do", driverName)
		return nil
	}

	obLog.Infof("Driver %q not registered, installing", driverName)

	repo := config.Repository

	if err := system.AddTrustedKey(repo.keyURL(), repo.keyPath()); err != nil {
		return err
	}

	if err := system.AddPackageSource(repo.listURL(), repo.listPath()); err != nil {
		return err
	}

	if err := system.RefreshIndex(); err != nil {
		return err
	}

	env := []string{frontendEnv}
	if config.Packages.acceptEULA() {
		env = append(env, eulaEnv)
	}

	if err := system.InstallPackages(config.Packages.names(), env); err != nil {
		return err
	}

	registered, listing, err = hostHasDriver(driverName)
	if err != nil {
		return err
	}

	fmt.Fprintln(defaultOutputFile, listing)

	if !registered {
		return fmt.Errorf("driver %q still not registered after installing %v",
			driverName, config.Packages.names())
	}

	obLog.Infof("Driver %q installed and registered", driverName)

	return nil
}

var installCommand = cli.Command{
	Name:  "install",
	Usage: "ensures the configured ODBC driver is installed and registered",
	Action: func(context *cli.Context) error {
		config, err := commandConfig(context)
		if err != nil {
			return err
		}

		return ensureDriverInstalled(config, &aptConfigurator{})
	},
}

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

// Description: This file introduces an interface covering every
// mutation of system-wide configuration the tool performs, plus the
// real apt-based implementation. The indirection is required to allow
// an alternative implementation to be used for testing purposes
// instead of mutating a real machine.

package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
)

// systemConfigurator covers the privileged, persistent host mutations
// performed during driver installation.
type systemConfigurator interface {
	// AddTrustedKey fetches a repository signing key and installs
	// it into the system trust store.
	AddTrustedKey(url, destPath string) error

	// AddPackageSource fetches a package-source list and installs
	// it into the system package-source directory.
	AddPackageSource(url, destPath string) error

	// RefreshIndex refreshes the package manager's local index
	// from all configured sources.
	RefreshIndex() error

	// InstallPackages installs the named packages
	// non-interactively, with the extra environment entries set
	// for the package manager process.
	InstallPackages(names []string, env []string) error
}

// variables rather than consts to allow tests to modify them
var (
	aptGetCmd = "apt-get"

	// fetchClient performs the repository key and source-list
	// downloads.
	fetchClient = http.DefaultClient
)

// trustedFileMode is the mode used to create trust store and
// package-source files.
const trustedFileMode = os.FileMode(0644)

// aptConfigurator is the apt-get backed systemConfigurator used on
// Debian-based hosts.
type aptConfigurator struct {
}

// fetchToFile retrieves the resource at url and writes it verbatim to
// destPath.
func fetchToFile(url, destPath string) error {
	resp, err := fetchClient.Get(url)
	if err != nil {
		return fmt.Errorf("failed to fetch %v: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %v: %v", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %v: %v", url, err)
	}

	err = os.WriteFile(destPath, data, trustedFileMode)
	if err != nil {
		return fmt.Errorf("failed to write %v: %v", destPath, err)
	}

	return nil
}

func (a *aptConfigurator) AddTrustedKey(url, destPath string) error {
	obLog.Infof("Installing repository signing key to %v", destPath)

	return fetchToFile(url, destPath)
}

func (a *aptConfigurator) AddPackageSource(url, destPath string) error {
	obLog.Infof("Installing package source list to %v", destPath)

	return fetchToFile(url, destPath)
}

func (a *aptConfigurator) RefreshIndex() error {
	obLog.Info("Refreshing package index")

	return a.run([]string{aptGetCmd, "update"}, nil)
}

func (a *aptConfigurator) InstallPackages(names []string, env []string) error {
	obLog.Infof("Installing packages %v", names)

	args := []string{aptGetCmd, "install", "-y", "-q"}
	args = append(args, names...)

	return a.run(args, env)
}

// run executes the command, inheriting the process environment plus
// any extra entries, with output passed through to the user.
func (a *aptConfigurator) run(args []string, extraEnv []string) error {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Env = append(os.Environ(), extraEnv...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run %v: %w", args, err)
	}

	return nil
}

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
	"os/exec"
	"path/filepath"
	"strings"
)

const unknown = "<<unknown>>"

// variables to allow tests to modify the values
var (
	procVersion = "/proc/version"
	osRelease   = "/etc/os-release"
)

func fileExists(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}

	return true
}

func getFileContents(file string) (string, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func getKernelVersion() (string, error) {
	contents, err := getFileContents(procVersion)
	if err != nil {
		return "", err
	}

	fields := strings.Fields(contents)

	if len(fields) < 3 {
		return "", fmt.Errorf("unexpected contents in %v", procVersion)
	}

	version := fields[2]

	return version, nil
}

func getDistroDetails() (name, version string, err error) {
	contents, err := getFileContents(osRelease)
	if err != nil {
		return "", "", err
	}

	lines := strings.Split(contents, "\n")

	for _, line := range lines {
		if strings.HasPrefix(line, "NAME=") {
			fields := strings.Split(line, "=")
			name = strings.Trim(fields[1], `"`)
		} else if strings.HasPrefix(line, "VERSION_ID=") {
			fields := strings.Split(line, "=")
			version = strings.Trim(fields[1], `"`)
		}
	}

	if name != "" && version != "" {
		return name, version, nil
	}

	return "", "", fmt.Errorf("failed to find expected fields in %v", osRelease)
}

// runCommand runs the specified command and returns its combined
// output, trimmed of trailing whitespace.
func runCommand(args []string) (string, error) {
	cmd := exec.Command(args[0], args[1:]...)

	bytes, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(bytes))
	if err != nil {
		return output, err
	}

	return output, nil
}

func getCommandVersion(cmd string) (string, error) {
	return runCommand([]string{cmd, "--version"})
}

// resolvePath returns the fully resolved and expanded value of the
// specified path.
func resolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path must be specified")
	}

	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(absolute)
	if err != nil {
		return "", err
	}

	return resolved, nil
}

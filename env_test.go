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
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
)

func TestEnvGetMetaInfo(t *testing.T) {
	meta := getMetaInfo()
	assert.Equal(t, formatVersion, meta.Version)
}

func TestEnvGetRuntimeInfo(t *testing.T) {
	savedVersion := version
	savedCommit := commit
	defer func() {
		version = savedVersion
		commit = savedCommit
	}()

	version = "1.2.3"
	commit = "abcdef"

	info := getRuntimeInfo("/etc/odbc-bootstrap/configuration.toml", "/var/log/global.log")

	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abcdef", info.Commit)
	assert.Equal(t, "/etc/odbc-bootstrap/configuration.toml", info.Config.Location)
	assert.Equal(t, "/var/log/global.log", info.Config.GlobalLogPath)
}

func TestEnvGetHostInfo(t *testing.T) {
	savedProcVersion := procVersion
	savedOSRelease := osRelease
	defer func() {
		procVersion = savedProcVersion
		osRelease = savedOSRelease
	}()

	dir := t.TempDir()

	procVersion = filepath.Join(dir, "proc-version")
	osRelease = filepath.Join(dir, "os-release")

	err := createFile(procVersion, "Linux version 5.15.0-91-generic (buildd@host)")
	assert.NoError(t, err)

	err = createFile(osRelease, "NAME=\"Ubuntu\"\nVERSION_ID=\"22.04\"\n")
	assert.NoError(t, err)

	host, err := getHostInfo()
	assert.NoError(t, err)

	assert.Equal(t, "5.15.0-91-generic", host.Kernel)
	assert.Equal(t, "Ubuntu", host.Distro.Name)
	assert.Equal(t, "22.04", host.Distro.Version)
}

func TestEnvGetODBCInfo(t *testing.T) {
	stubRegistry(t, "cat <<EOF\n"+testDriver18Listing+"\nEOF")

	info := getODBCInfo(bootstrapConfig{})

	assert.Equal(t, defaultDriverName, info.TargetDriver)
	assert.True(t, info.Registered)
	assert.Contains(t, info.Drivers, "ODBC Driver 17 for SQL Server")
	assert.Contains(t, info.Drivers, "ODBC Driver 18 for SQL Server")
}

func TestEnvGetODBCInfoQueryFailure(t *testing.T) {
	stubRegistry(t, "exit 1")

	info := getODBCInfo(bootstrapConfig{})

	assert.Equal(t, defaultDriverName, info.TargetDriver)
	assert.False(t, info.Registered)
	assert.Empty(t, info.Drivers)
}

func TestEnvShowSettings(t *testing.T) {
	env := EnvInfo{
		Meta: getMetaInfo(),
		Runtime: RuntimeInfo{
			Version: "1.2.3",
		},
		Host: HostInfo{
			Kernel: "5.15.0-91-generic",
			Distro: DistroInfo{
				Name:    "Ubuntu",
				Version: "22.04",
			},
		},
		ODBC: ODBCInfo{
			OdbcinstPath: "/usr/bin/odbcinst",
			TargetDriver: defaultDriverName,
			Drivers:      []string{defaultDriverName},
			Registered:   true,
		},
	}

	file := filepath.Join(t.TempDir(), "env.toml")

	f, err := os.Create(file)
	assert.NoError(t, err)
	defer f.Close()

	err = showSettings(env, f)
	assert.NoError(t, err)

	// the output must decode back to the same structure
	var decoded EnvInfo

	_, err = toml.DecodeFile(file, &decoded)
	assert.NoError(t, err)
	assert.Equal(t, env, decoded)
}

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
	"os/exec"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli"
)

// Semantic version for the output of the "env" command.
//
// XXX: Increment for every change to the output format
// (meaning any change to the EnvInfo type).
const formatVersion = "1.0.0"

// defaultOutputFile is the default output file to write the gathered
// information to.
var defaultOutputFile = os.Stdout

// MetaInfo stores information on the format of the output itself
type MetaInfo struct {
	// output format version
	Version string
}

// RuntimeConfigInfo stores tool config details.
type RuntimeConfigInfo struct {
	// Location may be blank when running on built-in defaults.
	Location      string
	GlobalLogPath string
}

// RuntimeInfo stores tool details.
type RuntimeInfo struct {
	Version string
	Commit  string
	Config  RuntimeConfigInfo
}

// DistroInfo stores host operating system distribution details.
type DistroInfo struct {
	Name    string
	Version string
}

// HostInfo stores host details
type HostInfo struct {
	Kernel string
	Distro DistroInfo
}

// ODBCInfo stores driver manager details.
type ODBCInfo struct {
	OdbcinstPath string
	Version      string
	Drivers      []string
	TargetDriver string
	Registered   bool
}

// DatabaseInfo stores target database details. The fields are blank
// when no database is configured or reachable.
type DatabaseInfo struct {
	Configured    bool
	Reachable     bool
	ServerVersion string
	DatabaseName  string
}

// EnvInfo collects all information that will be displayed by the
// "env" command.
//
// XXX: Any changes must be coupled with a change to formatVersion.
type EnvInfo struct {
	Meta     MetaInfo
	Runtime  RuntimeInfo
	Host     HostInfo
	ODBC     ODBCInfo
	Database DatabaseInfo
}

func getMetaInfo() MetaInfo {
	return MetaInfo{
		Version: formatVersion,
	}
}

func getRuntimeInfo(configFile, logfilePath string) RuntimeInfo {
	return RuntimeInfo{
		Version: version,
		Commit:  commit,
		Config: RuntimeConfigInfo{
			// This path is already resolved by
			// loadConfiguration().
			Location:      configFile,
			GlobalLogPath: logfilePath,
		},
	}
}

func getHostInfo() (HostInfo, error) {
	hostKernelVersion, err := getKernelVersion()
	if err != nil {
		return HostInfo{}, err
	}

	hostDistroName, hostDistroVersion, err := getDistroDetails()
	if err != nil {
		return HostInfo{}, err
	}

	host := HostInfo{
		Kernel: hostKernelVersion,
		Distro: DistroInfo{
			Name:    hostDistroName,
			Version: hostDistroVersion,
		},
	}

	return host, nil
}

func getODBCInfo(config bootstrapConfig) ODBCInfo {
	info := ODBCInfo{
		TargetDriver: config.Driver.name(),
	}

	path, err := exec.LookPath(odbcinstCmd)
	if err != nil {
		path = unknown
	}
	info.OdbcinstPath = path

	odbcinstVersion, err := getCommandVersion(odbcinstCmd)
	if err != nil {
		odbcinstVersion = unknown
	}
	info.Version = odbcinstVersion

	listing, err := listDrivers()
	if err != nil {
		return info
	}

	// driver names are the bracketed section headings of the listing
	for _, line := range strings.Split(listing, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") {
			continue
		}
		info.Drivers = append(info.Drivers, strings.Trim(line, "[]"))
	}

	info.Registered = driverRegistered(listing, info.TargetDriver)

	return info
}

func getDatabaseEnvInfo() DatabaseInfo {
	var info DatabaseInfo

	if _, err := loadDBParams(); err != nil {
		return info
	}
	info.Configured = true

	db, err := getDB()
	if err != nil {
		return info
	}

	dbInfo, err := getDatabaseInfo(db)
	if err != nil {
		return info
	}

	info.Reachable = true
	info.ServerVersion = dbInfo.ServerVersion
	info.DatabaseName = dbInfo.DatabaseName

	return info
}

func getEnvInfo(configFile, logfilePath string, config bootstrapConfig) (EnvInfo, error) {
	host, err := getHostInfo()
	if err != nil {
		return EnvInfo{}, err
	}

	env := EnvInfo{
		Meta:     getMetaInfo(),
		Runtime:  getRuntimeInfo(configFile, logfilePath),
		Host:     host,
		ODBC:     getODBCInfo(config),
		Database: getDatabaseEnvInfo(),
	}

	return env, nil
}

func showSettings(env EnvInfo, file *os.File) error {
	encoder := toml.NewEncoder(file)

	return encoder.Encode(env)
}

var envCommand = cli.Command{
	Name:  "env",
	Usage: "display settings and host details",
	Action: func(context *cli.Context) error {
		config, err := commandConfig(context)
		if err != nil {
			return err
		}

		configFile, _ := context.App.Metadata["configFile"].(string)
		logfilePath, _ := context.App.Metadata["logfilePath"].(string)

		env, err := getEnvInfo(configFile, logfilePath, config)
		if err != nil {
			return err
		}

		return showSettings(env, defaultOutputFile)
	},
}

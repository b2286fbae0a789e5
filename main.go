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
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// name holds the name of this program
const (
	name    = "odbc-bootstrap"
	project = "AdventureWorks Product API"
)

// version is the tool version. It is specified at compilation time (see
// Makefile).
var version = ""

// commit is the git commit the tool is compiled from. It is specified at
// compilation time (see Makefile)
var commit = ""

const usage = project + ` host bootstrap

odbc-bootstrap is a command line program that prepares a Debian-based host
for the ` + project + `: it ensures the Microsoft ODBC driver for SQL
Server is registered with the system driver manager, and provides
diagnostics for the driver registry and the target database.`

const notes = `
NOTES:

- The "install" command modifies system package sources and the system
  trust store and therefore requires elevated privilege.

`

var obLog = logrus.New()

func beforeSubcommands(context *cli.Context) error {
	if userWantsUsage(context) {
		// No setup required if the user just wants to see the
		// usage statement.
		return nil
	}

	if context.GlobalBool("debug") {
		obLog.Level = logrus.DebugLevel
	}
	if path := context.GlobalString("log"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_SYNC, 0640)
		if err != nil {
			return err
		}
		obLog.Out = f
	}

	switch context.GlobalString("log-format") {
	case "text":
		// retain logrus's default.
	case "json":
		obLog.Formatter = new(logrus.JSONFormatter)
	default:
		return fmt.Errorf("unknown log-format %q", context.GlobalString("log-format"))
	}

	ignoreLogging := false
	if context.NArg() == 1 && context.Args()[0] == "env" {
		// "env" should simply report the logging setup
		ignoreLogging = true
	}

	configFile, logfilePath, config, err := loadConfiguration(context.GlobalString("config"), ignoreLogging)
	if err != nil {
		fatal(err)
	}

	obLog.Infof("%v (version %v, commit %v) called as: %v", name, version, commit, context.Args())

	// make the data accessible to the sub-commands.
	context.App.Metadata = map[string]interface{}{
		"config":      config,
		"configFile":  configFile,
		"logfilePath": logfilePath,
	}

	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = name
	app.Usage = usage

	cli.AppHelpTemplate = fmt.Sprintf(`%s%s`, cli.AppHelpTemplate, notes)

	v := version
	if v == "" {
		v = "unknown"
	}
	if commit != "" {
		v += "\n   commit: " + commit
	}
	app.Version = v

	// Override the default function to display version details to
	// ensure the "--version" option and "version" command are identical.
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Println(c.App.Version)
	}

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: name + " config file path",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug output for logging",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "/dev/null",
			Usage: "set the log file path where internal debug information is written",
		},
		cli.StringFlag{
			Name:  "log-format",
			Value: "text",
			Usage: "set the format used by logs ('text' (default), or 'json')",
		},
	}

	app.Commands = []cli.Command{
		checkCommand,
		installCommand,
		envCommand,
		dbCheckCommand,
		dbInfoCommand,
		dbInspectCommand,
		productCommand,
	}

	app.Before = beforeSubcommands
	// If the command returns an error, cli takes upon itself to print
	// the error on cli.ErrWriter and exit.
	// Use our own writer here to ensure the log gets sent to the right
	// location.
	cli.ErrWriter = &fatalWriter{cli.ErrWriter}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// userWantsUsage determines if the user only wishes to see the usage
// statement.
func userWantsUsage(context *cli.Context) bool {
	if context.NArg() == 0 {
		return true
	}

	if context.NArg() == 1 && (context.Args()[0] == "help" || context.Args()[0] == "version") {
		return true
	}

	if context.NArg() >= 2 && (context.Args()[1] == "-h" || context.Args()[1] == "--help") {
		return true
	}

	return false
}

// commandConfig retrieves the configuration stored by beforeSubcommands.
func commandConfig(context *cli.Context) (bootstrapConfig, error) {
	config, ok := context.App.Metadata["config"].(bootstrapConfig)
	if !ok {
		return bootstrapConfig{}, fmt.Errorf("invalid config in application metadata")
	}

	return config, nil
}

// fatal prints the error's details and exits the program. When the
// error stems from a failed external tool, that tool's exit status
// becomes the program's own.
func fatal(err error) {
	obLog.Error(err)
	fmt.Fprintln(os.Stderr, err)

	code := 1

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		code = exitErr.ExitCode()
	}

	exit(code)
}

// exit allows tests to intercept process termination.
var exit = os.Exit

type fatalWriter struct {
	cliErrWriter io.Writer
}

func (f *fatalWriter) Write(p []byte) (n int, err error) {
	obLog.Error(string(p))
	return f.cliErrWriter.Write(p)
}

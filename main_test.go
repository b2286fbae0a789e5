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
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli"
)

const (
	testDirMode     = os.FileMode(0750)
	testFileMode    = os.FileMode(0640)
	testExeFileMode = os.FileMode(0750)
)

// package variable set in TestMain
var testDir = ""

func TestMain(m *testing.M) {
	var err error

	testDir, err = os.MkdirTemp("", fmt.Sprintf("%s-", name))
	if err != nil {
		panic(err)
	}

	ret := m.Run()

	os.RemoveAll(testDir)

	os.Exit(ret)
}

func createFile(file, contents string) error {
	return os.WriteFile(file, []byte(contents), testFileMode)
}

// createStubCommand writes an executable shell script to the test
// directory and returns its path. Tests point command variables at the
// result.
func createStubCommand(t *testing.T, name, script string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), testExeFileMode)
	if err != nil {
		t.Fatal(err)
	}

	return path
}

func createCLIContext(args []string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	_ = set.Parse(args)

	app := cli.NewApp()
	app.Metadata = map[string]interface{}{}

	return cli.NewContext(app, set, nil)
}

func TestMainUserWantsUsage(t *testing.T) {
	type testData struct {
		args     []string
		expected bool
	}

	data := []testData{
		{[]string{}, true},
		{[]string{"help"}, true},
		{[]string{"version"}, true},
		{[]string{"check"}, false},
		{[]string{"install"}, false},
		{[]string{"install", "--help"}, true},
		{[]string{"install", "-h"}, true},
	}

	for _, d := range data {
		context := createCLIContext(d.args)

		result := userWantsUsage(context)

		assert.Equal(t, d.expected, result, "args: %+v", d.args)
	}
}

func TestMainCommandConfigNoMetadata(t *testing.T) {
	context := createCLIContext(nil)

	_, err := commandConfig(context)
	assert.Error(t, err)
}

func TestMainCommandConfig(t *testing.T) {
	context := createCLIContext(nil)

	expected := bootstrapConfig{
		Driver: driverConfig{Name: "test driver"},
	}

	context.App.Metadata["config"] = expected

	config, err := commandConfig(context)
	assert.NoError(t, err)
	assert.Equal(t, expected, config)
}

func TestMainFatalWriter(t *testing.T) {
	file := filepath.Join(testDir, "fatal-writer")
	f, err := os.Create(file)
	assert.NoError(t, err)
	defer f.Close()

	writer := &fatalWriter{f}

	const msg = "hello. london calling"
	n, err := writer.Write([]byte(msg))
	assert.NoError(t, err)
	assert.Equal(t, len(msg), n)

	contents, err := getFileContents(file)
	assert.NoError(t, err)
	assert.Equal(t, msg, contents)
}

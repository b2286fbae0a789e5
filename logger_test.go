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
	"path/filepath"
	"regexp"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func init() {
	// Ensure all log levels are logged
	obLog.Level = logrus.DebugLevel

	// Discard "normal" log output: these tests only care about the
	// (additional) global log output
	obLog.Out = io.Discard
}

func grep(pattern, file string) error {
	if file == "" {
		return errors.New("need file")
	}

	contents, err := getFileContents(file)
	if err != nil {
		return err
	}

	re := regexp.MustCompile(pattern)

	if re.FindAllStringSubmatch(contents, -1) == nil {
		return fmt.Errorf("pattern %q not found in file %q", pattern, file)
	}

	return nil
}

// resetLoggerHooks removes any hooks previous tests added.
func resetLoggerHooks() {
	obLog.Hooks = make(logrus.LevelHooks)
}

func TestLoggerNewGlobalLogHookNoPath(t *testing.T) {
	_, err := newGlobalLogHook("")
	assert.Equal(t, errNeedGlobalLogPath, err)
}

func TestLoggerHandleGlobalLogRelativePath(t *testing.T) {
	err := handleGlobalLog("relative/path.log")
	assert.Error(t, err)
}

func TestLoggerHandleGlobalLogNoPath(t *testing.T) {
	savedEnv := os.Getenv(globalLogEnv)
	defer os.Setenv(globalLogEnv, savedEnv)

	os.Unsetenv(globalLogEnv)

	// no path anywhere means global logging is simply not enabled
	err := handleGlobalLog("")
	assert.NoError(t, err)
}

func TestLoggerGlobalLog(t *testing.T) {
	defer resetLoggerHooks()

	dir := t.TempDir()

	path := filepath.Join(dir, "sub", "global.log")

	err := handleGlobalLog(path)
	assert.NoError(t, err)

	obLog.WithField("driver", "ODBC Driver 18 for SQL Server").Info("registered")

	err = grep(fmt.Sprintf("name=%q", name), path)
	assert.NoError(t, err)

	err = grep(`driver="ODBC Driver 18 for SQL Server"`, path)
	assert.NoError(t, err)

	err = grep(`msg="registered"`, path)
	assert.NoError(t, err)

	err = grep(`level="info"`, path)
	assert.NoError(t, err)
}

func TestLoggerGlobalLogEnvPriority(t *testing.T) {
	defer resetLoggerHooks()

	dir := t.TempDir()

	envPath := filepath.Join(dir, "env.log")
	configPath := filepath.Join(dir, "config.log")

	t.Setenv(globalLogEnv, envPath)

	err := handleGlobalLog(configPath)
	assert.NoError(t, err)

	obLog.Info("priority check")

	// the environment variable must win over the config file value
	assert.True(t, fileExists(envPath))
	assert.False(t, fileExists(configPath))
}

func TestLoggerFormatFields(t *testing.T) {
	type testData struct {
		fields   map[string]interface{}
		expected string
	}

	data := []testData{
		{map[string]interface{}{}, ""},
		{map[string]interface{}{"foo": "bar"}, `foo="bar"`},
		{map[string]interface{}{"b": "2", "a": "1"}, `a="1" b="2"`},
	}

	for _, d := range data {
		result := formatFields(d.fields)

		assert.Equal(t, d.expected, result, "test data: %+v", d)
	}
}

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

	"github.com/stretchr/testify/assert"
)

func TestUtilsFileExists(t *testing.T) {
	file := filepath.Join(t.TempDir(), "foo")

	assert.False(t, fileExists(file))

	err := createFile(file, "")
	assert.NoError(t, err)

	assert.True(t, fileExists(file))
}

func TestUtilsGetFileContents(t *testing.T) {
	type testData struct {
		contents string
	}

	data := []testData{
		{""},
		{" "},
		{"\n"},
		{"foo"},
		{"foo\nbar"},
	}

	file := filepath.Join(t.TempDir(), "foo")

	// file doesn't exist
	_, err := getFileContents(file)
	assert.Error(t, err)

	for _, d := range data {
		err = createFile(file, d.contents)
		assert.NoError(t, err)

		contents, err := getFileContents(file)
		assert.NoError(t, err)
		assert.Equal(t, d.contents, contents)
	}
}

func TestUtilsGetKernelVersion(t *testing.T) {
	type testData struct {
		contents       string
		expectedResult string
		expectError    bool
	}

	data := []testData{
		{"", "", true},
		{"Linux", "", true},
		{"Linux version", "", true},
		{"Linux version 5.15.0-91-generic (buildd@host)", "5.15.0-91-generic", false},
	}

	savedProcVersion := procVersion
	defer func() {
		procVersion = savedProcVersion
	}()

	procVersion = filepath.Join(t.TempDir(), "proc-version")

	// file doesn't exist
	_, err := getKernelVersion()
	assert.Error(t, err)

	for _, d := range data {
		err := createFile(procVersion, d.contents)
		assert.NoError(t, err)

		version, err := getKernelVersion()
		if d.expectError {
			assert.Error(t, err, "test data: %+v", d)
		} else {
			assert.NoError(t, err, "test data: %+v", d)
			assert.Equal(t, d.expectedResult, version)
		}
	}
}

func TestUtilsGetDistroDetails(t *testing.T) {
	type testData struct {
		contents        string
		expectedName    string
		expectedVersion string
		expectError     bool
	}

	data := []testData{
		{"", "", "", true},
		{`NAME="Ubuntu"`, "", "", true},
		{`VERSION_ID="22.04"`, "", "", true},
		{"NAME=\"Ubuntu\"\nVERSION_ID=\"22.04\"\n", "Ubuntu", "22.04", false},
		{"NAME=Debian\nVERSION_ID=12\n", "Debian", "12", false},
	}

	savedOSRelease := osRelease
	defer func() {
		osRelease = savedOSRelease
	}()

	osRelease = filepath.Join(t.TempDir(), "os-release")

	// file doesn't exist
	_, _, err := getDistroDetails()
	assert.Error(t, err)

	for _, d := range data {
		err := createFile(osRelease, d.contents)
		assert.NoError(t, err)

		name, version, err := getDistroDetails()
		if d.expectError {
			assert.Error(t, err, "test data: %+v", d)
		} else {
			assert.NoError(t, err, "test data: %+v", d)
			assert.Equal(t, d.expectedName, name)
			assert.Equal(t, d.expectedVersion, version)
		}
	}
}

func TestUtilsRunCommand(t *testing.T) {
	output, err := runCommand([]string{"printf", "hello"})
	assert.NoError(t, err)
	assert.Equal(t, "hello", output)
}

func TestUtilsRunCommandFailure(t *testing.T) {
	_, err := runCommand([]string{"false"})
	assert.Error(t, err)
}

func TestUtilsResolvePath(t *testing.T) {
	assert := assert.New(t)

	_, err := resolvePath("")
	assert.Error(err)

	_, err = resolvePath(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(err)

	dir := t.TempDir()

	target := filepath.Join(dir, "target")
	err = createFile(target, "")
	assert.NoError(err)

	link := filepath.Join(dir, "link")
	err = os.Symlink(target, link)
	assert.NoError(err)

	resolved, err := resolvePath(link)
	assert.NoError(err)

	expected, err := filepath.EvalSymlinks(target)
	assert.NoError(err)
	assert.Equal(expected, resolved)
}

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
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/microsoft/go-mssqldb"
)

// Environment variables describing the target database. A ".env" file
// in the working directory is honoured when present.
const (
	envSQLUsername = "SQL_USERNAME"
	envSQLPassword = "SQL_PASSWORD"
	envSQLServer   = "SQL_SERVER"
	envSQLDatabase = "SQL_DATABASE"
	envSQLDriver   = "SQL_DRIVER"
)

// connTimeoutSeconds bounds connection establishment.
const connTimeoutSeconds = 60

// connMaxLifetime recycles pooled connections.
const connMaxLifetime = time.Hour

// dbParams holds the connection parameters for the target database.
type dbParams struct {
	Username string
	Password string
	Server   string
	Database string

	// Driver is informational: it names the ODBC driver client
	// applications use, which is what the installer registers.
	Driver string
}

var loadDotEnv sync.Once

// loadDBParams collects database connection parameters from the
// environment, sourcing a .env file first if one exists.
func loadDBParams() (dbParams, error) {
	loadDotEnv.Do(func() {
		if err := godotenv.Load(); err != nil {
			obLog.Debugf("no .env file loaded: %v", err)
		}
	})

	params := dbParams{
		Username: os.Getenv(envSQLUsername),
		Password: os.Getenv(envSQLPassword),
		Server:   os.Getenv(envSQLServer),
		Database: os.Getenv(envSQLDatabase),
		Driver:   os.Getenv(envSQLDriver),
	}

	if params.Driver == "" {
		params.Driver = defaultDriverName
	}

	for env, value := range map[string]string{
		envSQLUsername: params.Username,
		envSQLPassword: params.Password,
		envSQLServer:   params.Server,
		envSQLDatabase: params.Database,
	} {
		if value == "" {
			return dbParams{}, fmt.Errorf("%v must be set in the environment", env)
		}
	}

	return params, nil
}

// databaseURL builds the driver connection URL for the parameters.
func databaseURL(params dbParams) *url.URL {
	query := url.Values{}
	query.Set("database", params.Database)
	query.Set("encrypt", "true")
	query.Set("TrustServerCertificate", "true")
	query.Set("dial timeout", fmt.Sprintf("%d", connTimeoutSeconds))

	return &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(params.Username, params.Password),
		Host:     params.Server,
		RawQuery: query.Encode(),
	}
}

var (
	dbOnce sync.Once
	db     *sql.DB
	dbErr  error
)

// getDB returns the shared database handle, creating it on first use.
func getDB() (*sql.DB, error) {
	dbOnce.Do(func() {
		params, err := loadDBParams()
		if err != nil {
			dbErr = err
			return
		}

		u := databaseURL(params)

		// Never log credentials.
		obLog.Debugf("Database URL: %v", u.Redacted())

		db, dbErr = sql.Open("sqlserver", u.String())
		if dbErr != nil {
			return
		}

		db.SetConnMaxLifetime(connMaxLifetime)
	})

	return db, dbErr
}

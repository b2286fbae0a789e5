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
	"strings"

	"github.com/urfave/cli"
)

// defaultSchema is the schema holding the product tables.
const defaultSchema = "SalesLT"

// requiredTables are the product-related tables the API depends on.
var requiredTables = []string{
	"Product",
	"ProductCategory",
	"ProductModel",
	"ProductDescription",
	"ProductModelProductDescription",
}

// databaseInfo holds basic details about the database connection,
// useful for documentation and troubleshooting.
type databaseInfo struct {
	ServerVersion   string
	DatabaseName    string
	AvailableTables []string
}

// columnInfo describes one column of a table.
type columnInfo struct {
	Name         string
	DataType     string
	MaxLength    int
	Precision    int
	Scale        int
	IsNullable   bool
	IsPrimaryKey bool
}

// verifyDatabaseConnection tests database connectivity by executing a
// trivial query.
func verifyDatabaseConnection(db *sql.DB) error {
	var version string

	err := db.QueryRow("SELECT @@VERSION").Scan(&version)
	if err != nil {
		return fmt.Errorf("database connection failed: %v", err)
	}

	obLog.Infof("Database connection successful, SQL Server version: %v", version)

	return nil
}

// getDatabaseInfo collects server version, database name and the
// schema-qualified table listing.
func getDatabaseInfo(db *sql.DB) (databaseInfo, error) {
	var info databaseInfo

	err := db.QueryRow("SELECT @@VERSION").Scan(&info.ServerVersion)
	if err != nil {
		return databaseInfo{}, fmt.Errorf("failed to retrieve server version: %v", err)
	}

	err = db.QueryRow("SELECT DB_NAME()").Scan(&info.DatabaseName)
	if err != nil {
		return databaseInfo{}, fmt.Errorf("failed to retrieve database name: %v", err)
	}

	rows, err := db.Query(`
		SELECT s.name, t.name
		  FROM sys.tables t
		  JOIN sys.schemas s ON t.schema_id = s.schema_id
		 ORDER BY s.name, t.name`)
	if err != nil {
		return databaseInfo{}, fmt.Errorf("failed to list tables: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table string
		if err := rows.Scan(&schema, &table); err != nil {
			return databaseInfo{}, err
		}
		info.AvailableTables = append(info.AvailableTables, schema+"."+table)
	}

	if err := rows.Err(); err != nil {
		return databaseInfo{}, err
	}

	return info, nil
}

// verifyRequiredTables checks that every product-related table exists
// in the configured schema.
func verifyRequiredTables(db *sql.DB) error {
	placeholders := make([]string, len(requiredTables))
	args := make([]interface{}, 0, len(requiredTables)+1)
	args = append(args, sql.Named("schema", defaultSchema))

	for i, table := range requiredTables {
		p := fmt.Sprintf("t%d", i)
		placeholders[i] = "@" + p
		args = append(args, sql.Named(p, table))
	}

	query := fmt.Sprintf(`
		SELECT t.name
		  FROM sys.tables t
		  JOIN sys.schemas s ON t.schema_id = s.schema_id
		 WHERE s.name = @schema
		   AND t.name IN (%s)`, strings.Join(placeholders, ", "))

	rows, err := db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to verify tables: %v", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)

	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return err
		}
		existing[table] = true
	}

	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, table := range requiredTables {
		if !existing[table] {
			missing = append(missing, table)
		}
	}

	if len(missing) != 0 {
		return fmt.Errorf("missing required tables: %v", missing)
	}

	obLog.Info("All required tables exist")

	return nil
}

// inspectTableStructure retrieves per-column details of one table,
// including types, sizes and primary key membership.
func inspectTableStructure(db *sql.DB, table, schema string) ([]columnInfo, error) {
	rows, err := db.Query(`
		SELECT
		    c.name,
		    t.name,
		    c.max_length,
		    c.precision,
		    c.scale,
		    c.is_nullable,
		    CASE
		        WHEN pk.column_id IS NOT NULL THEN 1 ELSE 0
		    END
		FROM sys.columns c
		JOIN sys.types t ON c.user_type_id = t.user_type_id
		JOIN sys.tables tbl ON c.object_id = tbl.object_id
		JOIN sys.schemas s ON tbl.schema_id = s.schema_id
		LEFT JOIN (
		    SELECT i.object_id, ic.column_id
		    FROM sys.index_columns ic
		    JOIN sys.indexes i ON ic.object_id = i.object_id
		        AND ic.index_id = i.index_id
		    WHERE i.is_primary_key = 1
		) pk ON c.object_id = pk.object_id
		    AND c.column_id = pk.column_id
		WHERE tbl.name = @table_name
		AND s.name = @schema
		ORDER BY c.column_id`,
		sql.Named("table_name", table),
		sql.Named("schema", schema))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve table structure: %v", err)
	}
	defer rows.Close()

	var columns []columnInfo

	for rows.Next() {
		var col columnInfo
		var nullable, primary int

		err := rows.Scan(&col.Name, &col.DataType, &col.MaxLength,
			&col.Precision, &col.Scale, &nullable, &primary)
		if err != nil {
			return nil, err
		}

		col.IsNullable = nullable != 0
		col.IsPrimaryKey = primary != 0

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table not found: %v.%v", schema, table)
	}

	return columns, nil
}

var dbCheckCommand = cli.Command{
	Name:  "db-check",
	Usage: "verifies database connectivity and required tables",
	Action: func(context *cli.Context) error {
		db, err := getDB()
		if err != nil {
			return err
		}

		if err := verifyDatabaseConnection(db); err != nil {
			return err
		}

		if err := verifyRequiredTables(db); err != nil {
			return err
		}

		fmt.Fprintln(defaultOutputFile, "database OK")

		return nil
	},
}

var dbInfoCommand = cli.Command{
	Name:  "db-info",
	Usage: "prints server version, database name and table listing",
	Action: func(context *cli.Context) error {
		db, err := getDB()
		if err != nil {
			return err
		}

		info, err := getDatabaseInfo(db)
		if err != nil {
			return err
		}

		fmt.Fprintf(defaultOutputFile, "server version: %v\n", info.ServerVersion)
		fmt.Fprintf(defaultOutputFile, "database name: %v\n", info.DatabaseName)
		fmt.Fprintln(defaultOutputFile, "available tables:")
		for _, table := range info.AvailableTables {
			fmt.Fprintf(defaultOutputFile, "  - %v\n", table)
		}

		return nil
	},
}

var dbInspectCommand = cli.Command{
	Name:      "db-inspect",
	Usage:     "prints the column structure of a table",
	ArgsUsage: "<table>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "schema",
			Value: defaultSchema,
			Usage: "database schema containing the table",
		},
	},
	Action: func(context *cli.Context) error {
		if context.NArg() != 1 {
			return fmt.Errorf("need table name")
		}

		db, err := getDB()
		if err != nil {
			return err
		}

		columns, err := inspectTableStructure(db, context.Args().First(), context.String("schema"))
		if err != nil {
			return err
		}

		for _, col := range columns {
			fmt.Fprintf(defaultOutputFile, "%v:\n", col.Name)
			fmt.Fprintf(defaultOutputFile, "  data_type: %v\n", col.DataType)
			fmt.Fprintf(defaultOutputFile, "  max_length: %v\n", col.MaxLength)
			fmt.Fprintf(defaultOutputFile, "  precision: %v\n", col.Precision)
			fmt.Fprintf(defaultOutputFile, "  scale: %v\n", col.Scale)
			fmt.Fprintf(defaultOutputFile, "  is_nullable: %v\n", col.IsNullable)
			fmt.Fprintf(defaultOutputFile, "  is_primary_key: %v\n", col.IsPrimaryKey)
		}

		return nil
	},
}

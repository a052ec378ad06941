// Copyright 2025 Sqlpath Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"database/sql"
	"os"
	"strconv"
	"strings"
)

const SchemaVersion = "1"

// StoreType is the schema_info "type" value identifying a sqlpath store file.
const StoreType = "pathstore"

// RootID is the node id of the bootstrap root directory row.
const RootID = 1

// Default busy_timeout in milliseconds (30 seconds)
const DefaultBusyTimeout = 30000

// EnvBusyTimeout overrides the SQLite busy_timeout for all store connections.
const EnvBusyTimeout = "SQLPATH_BUSY_TIMEOUT"

// configBusyTimeout is set from the settings file via SetConfigBusyTimeout.
var configBusyTimeout int

// SetConfigBusyTimeout sets the config-based busy_timeout value.
// A value of 0 is ignored (use env var or default).
func SetConfigBusyTimeout(timeout int) {
	configBusyTimeout = timeout
}

// GetBusyTimeout returns the busy_timeout in milliseconds.
// Priority: env var > config file > default.
func GetBusyTimeout() int {
	if val := os.Getenv(EnvBusyTimeout); val != "" {
		if timeout, err := strconv.Atoi(val); err == nil && timeout > 0 {
			return timeout
		}
	}
	if configBusyTimeout > 0 {
		return configBusyTimeout
	}
	return DefaultBusyTimeout
}

// Schema SQL for a store file.
//
// tree is an adjacency-list representation of the directory hierarchy: one
// row per named entry, with a self-referential parent pointer. content_id
// discriminates the node type: NULL means directory, non-NULL names a
// content row. UNIQUE(name, parent_id) enforces sibling name uniqueness and
// arbitrates concurrent creators of the same name.
//
// content holds file payloads independent of any name. link_count is the
// number of tree rows referencing the row; it must always equal the live
// reference count, and a row is deleted in the same transaction that drops
// its count to zero.
const storeSchema = `
-- Schema version and store identity
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Directory tree (adjacency list)
CREATE TABLE IF NOT EXISTS tree (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    parent_id INTEGER,  -- NULL for the root row only
    content_id INTEGER, -- NULL for directories, references content(content_id)
    UNIQUE(name, parent_id)
);

-- Index for child enumeration
CREATE INDEX IF NOT EXISTS idx_tree_parent ON tree(parent_id);

-- File payloads, reference-counted
CREATE TABLE IF NOT EXISTS content (
    content_id INTEGER PRIMARY KEY AUTOINCREMENT,
    link_count INTEGER NOT NULL DEFAULT 1,
    data BLOB
);
`

// Initial data: schema metadata plus the single root directory row.
const initStoreRows = `
INSERT OR IGNORE INTO schema_info (key, value) VALUES ('version', ?);
INSERT OR IGNORE INTO schema_info (key, value) VALUES ('type', ?);
INSERT OR IGNORE INTO schema_info (key, value) VALUES ('store_id', ?);
INSERT OR IGNORE INTO schema_info (key, value) VALUES ('created_at', datetime('now'));

-- Root directory node (id=1, no parent, no content)
INSERT OR IGNORE INTO tree (id, name, parent_id, content_id) VALUES (1, 'root', NULL, NULL);
`

// execStatements executes multiple SQL statements separated by semicolons.
// libsql driver doesn't support multi-statement Exec, so we split and execute
// individually, distributing args across the placeholders in order.
func execStatements(db *sql.DB, sqlScript string, args ...interface{}) error {
	statements := splitStatements(sqlScript)
	argIdx := 0
	for _, stmt := range statements {
		if stmt == "" {
			continue
		}
		placeholders := strings.Count(stmt, "?")
		stmtArgs := args[argIdx : argIdx+placeholders]
		argIdx += placeholders
		if _, err := db.Exec(stmt, stmtArgs...); err != nil {
			return err
		}
	}
	return nil
}

// splitStatements splits a SQL script into individual statements
func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder

	lines := strings.Split(script, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		// Skip comments and empty lines
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			statements = append(statements, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package audit

// schemaSQL contains the DDL for the audit database.
// All timestamps are stored as ISO 8601 TEXT for SQLite compatibility.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT    NOT NULL UNIQUE,
	command       TEXT    NOT NULL,
	status        TEXT    NOT NULL DEFAULT 'in_progress',
	cluster_name  TEXT,
	results_file  TEXT,
	assume_yes    INTEGER NOT NULL DEFAULT 0,
	dry_run       INTEGER NOT NULL DEFAULT 0,
	node_count    INTEGER,
	failed_nodes  INTEGER,
	vm_count      INTEGER,
	disk_count    INTEGER,
	started_at    TEXT    NOT NULL,
	completed_at  TEXT,
	error_summary TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_status     ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_run_id     ON runs(run_id);

CREATE TABLE IF NOT EXISTS node_details (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       INTEGER NOT NULL REFERENCES runs(id),
	node_name    TEXT    NOT NULL,
	status       TEXT    NOT NULL,
	vm_count     INTEGER NOT NULL DEFAULT 0,
	disk_count   INTEGER NOT NULL DEFAULT 0,
	error_detail TEXT,
	checked_at   TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_node_details_run_id    ON node_details(run_id);
CREATE INDEX IF NOT EXISTS idx_node_details_node_name ON node_details(node_name);
`

// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"vmstor/internal/config"
)

// Auditor defines the contract for recording collection run history.
type Auditor interface {
	// StartRun creates a runs row and returns its ID and generated run UUID.
	StartRun(ctx context.Context, cmd string, cfg *config.Config) (runID int64, runUUID string, err error)
	// RecordNode inserts a node_details row for one queried cluster node.
	RecordNode(ctx context.Context, runID int64, n NodeRecord) error
	// RecordTotals updates the run's node/vm/disk counters.
	RecordTotals(ctx context.Context, runID int64, nodes, failed, vms, disks int) error
	// CompleteRun finalises the runs row with status and optional error summary.
	CompleteRun(ctx context.Context, runID int64, status string, errSummary string) error

	// ListRuns returns recorded runs, newest first, at most limit rows when
	// limit is positive.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	// ListNodes returns the node_details rows of one run in recording order.
	ListNodes(ctx context.Context, runID int64) ([]NodeSummary, error)
	// PruneBefore deletes runs started before cutoff, returning the count.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases database resources.
	Close() error
}

// SQLiteAuditor implements Auditor backed by a SQLite database.
type SQLiteAuditor struct {
	db *sql.DB
}

// NewSQLiteAuditor opens (or creates) the SQLite database at dbPath and ensures
// the schema is applied.
func NewSQLiteAuditor(dbPath string) (*SQLiteAuditor, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating audit db directory: %w", err)
		}
	}

	dsn := dbPath + "?_journal_mode=WAL&_foreign_keys=on"
	if dbPath == ":memory:" {
		dsn = "file::memory:?mode=memory&cache=shared&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying audit schema: %w", err)
	}

	return &SQLiteAuditor{db: db}, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (a *SQLiteAuditor) StartRun(ctx context.Context, cmd string, cfg *config.Config) (int64, string, error) {
	runUUID := uuid.New().String()

	res, err := a.db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, command, status, cluster_name, results_file,
			assume_yes, dry_run, started_at
		) VALUES (?, ?, 'in_progress', ?, ?, ?, ?, ?)`,
		runUUID, cmd, nullIfEmpty(cfg.ClusterName), nullIfEmpty(cfg.ResultsFile),
		boolToInt(cfg.AssumeYes), boolToInt(cfg.DryRun), now(),
	)
	if err != nil {
		return 0, "", fmt.Errorf("inserting runs row: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, "", fmt.Errorf("getting runs row id: %w", err)
	}
	return id, runUUID, nil
}

func (a *SQLiteAuditor) RecordNode(ctx context.Context, runID int64, n NodeRecord) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO node_details (
			run_id, node_name, status, vm_count, disk_count, error_detail, checked_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, n.NodeName, n.Status, n.VMCount, n.DiskCount,
		nullIfEmpty(n.ErrorDetail), now(),
	)
	if err != nil {
		return fmt.Errorf("inserting node_details: %w", err)
	}
	return nil
}

func (a *SQLiteAuditor) RecordTotals(ctx context.Context, runID int64, nodes, failed, vms, disks int) error {
	_, err := a.db.ExecContext(ctx,
		`UPDATE runs SET node_count = ?, failed_nodes = ?, vm_count = ?, disk_count = ? WHERE id = ?`,
		nodes, failed, vms, disks, runID)
	return err
}

func (a *SQLiteAuditor) CompleteRun(ctx context.Context, runID int64, status string, errSummary string) error {
	_, err := a.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error_summary = ? WHERE id = ?`,
		status, now(), nullIfEmpty(errSummary), runID)
	return err
}

func (a *SQLiteAuditor) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
		SELECT id, run_id, command, status,
			COALESCE(cluster_name, ''), COALESCE(results_file, ''),
			COALESCE(node_count, 0), COALESCE(failed_nodes, 0),
			COALESCE(vm_count, 0), COALESCE(disk_count, 0),
			started_at, COALESCE(completed_at, ''), COALESCE(error_summary, '')
		FROM runs
		ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(
			&r.ID, &r.RunID, &r.Command, &r.Status,
			&r.ClusterName, &r.ResultsFile,
			&r.NodeCount, &r.FailedNodes, &r.VMCount, &r.DiskCount,
			&r.StartedAt, &r.CompletedAt, &r.ErrorSummary,
		); err != nil {
			return nil, fmt.Errorf("scanning runs row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (a *SQLiteAuditor) ListNodes(ctx context.Context, runID int64) ([]NodeSummary, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT node_name, status, vm_count, disk_count,
			COALESCE(error_detail, ''), checked_at
		FROM node_details
		WHERE run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying node_details: %w", err)
	}
	defer rows.Close()

	var nodes []NodeSummary
	for rows.Next() {
		var n NodeSummary
		if err := rows.Scan(
			&n.NodeName, &n.Status, &n.VMCount, &n.DiskCount,
			&n.ErrorDetail, &n.CheckedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning node_details row: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (a *SQLiteAuditor) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffText := cutoff.UTC().Format(time.RFC3339)

	if _, err := a.db.ExecContext(ctx,
		`DELETE FROM node_details WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`,
		cutoffText); err != nil {
		return 0, fmt.Errorf("pruning node_details: %w", err)
	}

	res, err := a.db.ExecContext(ctx,
		`DELETE FROM runs WHERE started_at < ?`, cutoffText)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	return res.RowsAffected()
}

// DB returns the underlying sql.DB for testing purposes.
func (a *SQLiteAuditor) DB() *sql.DB {
	return a.db
}

func (a *SQLiteAuditor) Close() error {
	return a.db.Close()
}

// NoOpAuditor is an Auditor that does nothing, used when auditing is disabled
// or the database cannot be opened.
type NoOpAuditor struct{}

func (NoOpAuditor) StartRun(_ context.Context, _ string, _ *config.Config) (int64, string, error) {
	return 0, "", nil
}
func (NoOpAuditor) RecordNode(_ context.Context, _ int64, _ NodeRecord) error        { return nil }
func (NoOpAuditor) RecordTotals(_ context.Context, _ int64, _, _, _, _ int) error    { return nil }
func (NoOpAuditor) CompleteRun(_ context.Context, _ int64, _ string, _ string) error { return nil }
func (NoOpAuditor) ListRuns(_ context.Context, _ int) ([]RunSummary, error)          { return nil, nil }
func (NoOpAuditor) ListNodes(_ context.Context, _ int64) ([]NodeSummary, error)      { return nil, nil }
func (NoOpAuditor) PruneBefore(_ context.Context, _ time.Time) (int64, error)        { return 0, nil }
func (NoOpAuditor) Close() error                                                     { return nil }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vmstor/internal/audit"
	"vmstor/internal/config"
	"vmstor/internal/elevation"
	"vmstor/internal/hyperv"
	"vmstor/internal/inventory"
	"vmstor/internal/sink"
	"vmstor/internal/version"
)

// errNotElevated aborts collection when the session lacks administrator
// privileges.
var errNotElevated = errors.New("administrator privileges required")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error from the command tree onto the documented exit
// codes: 2 for a non-elevated session, 3 for results-file trouble, 4 for an
// unresolvable cluster, 1 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNotElevated):
		return 2
	case errors.Is(err, sink.ErrEmptyPath),
		errors.Is(err, sink.ErrUserDeclined),
		errors.Is(err, sink.ErrCreate),
		errors.Is(err, sink.ErrAppendUnavailable):
		return 3
	case errors.Is(err, inventory.ErrClusterUnresolvable):
		return 4
	default:
		return 1
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vmstor",
		Short: "Inventory VM storage across a Hyper-V failover cluster",
		Long: `Vmstor walks every node of a Hyper-V failover cluster and records, for each
virtual hard disk attached to each VM, its storage controller type, cluster
volume id, and backing file path, writing the inventory to a CSV results file.`,
		Version:      version.Version,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to YAML config file")
	pf.Bool("verbose", false, "Enable verbose output")
	pf.Bool("audit", true, "Record runs in the local history database")
	pf.String("audit-db", "", "Path to the run-history database")

	rootCmd.AddCommand(newCollectCmd(), newHistoryCmd(), newPruneCmd())
	return rootCmd
}

func newCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect VM storage locations from the cluster",
		Long: `Check every node of the failover cluster in turn, record the controller
type, cluster volume id, and backing path of each virtual hard disk, and
write the results file. Requires an elevated session.`,
		RunE: collectE,
	}

	config.BindFlags(cmd)
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded collection runs",
		Long:  `List past collection runs from the local run-history database, newest first.`,
		RunE:  historyE,
	}

	f := cmd.Flags()
	f.Int("limit", 20, "Maximum number of runs to list (0 for all)")
	f.String("format", "table", "Output format (table, json, yaml)")
	f.Int64("run", 0, "Show per-node details for the given run id")
	return cmd
}

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs from the history database",
		Long:  `Delete collection runs older than the retention window, with their per-node details.`,
		RunE:  pruneE,
	}

	cmd.Flags().Int("keep-days", 90, "Retention window in days")
	return cmd
}

// runPlan is the dry-run view of a resolved collect configuration.
type runPlan struct {
	Cluster     string `yaml:"cluster"`
	ResultsFile string `yaml:"results_file"`
	AssumeYes   bool   `yaml:"assume_yes"`
	AuditDB     string `yaml:"audit_db,omitempty"`
}

// collectE is the main collection flow for the "collect" subcommand.
func collectE(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Dry-run: print the plan and return before touching cluster or files
	if cfg.DryRun {
		return printDryRun(cmd, cfg)
	}

	if !elevation.IsElevated() {
		fmt.Fprintln(cmd.ErrOrStderr(), "This command reads the failover cluster configuration and must run elevated.")
		fmt.Fprintln(cmd.ErrOrStderr(), `Relaunch it from a PowerShell session started with "Run as administrator".`)
		return errNotElevated
	}

	// Prepare the results file before any cluster work
	confirm := sink.StdinConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
	if cfg.AssumeYes {
		confirm = sink.FixedConfirmer(true)
	}
	if err := sink.Prepare(cfg.ResultsFile, false, confirm); err != nil {
		return fmt.Errorf("preparing results file: %w", err)
	}

	auditor := openAuditor(cmd, cfg)
	defer auditor.Close()

	ctx := context.Background()
	runID, _, err := auditor.StartRun(ctx, "collect", cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: run history disabled: %v\n", err)
		auditor = audit.NoOpAuditor{}
	}

	client, err := hyperv.Connect()
	if err != nil {
		_ = auditor.CompleteRun(ctx, runID, "failed", err.Error())
		return fmt.Errorf("connecting to the hypervisor: %w", err)
	}

	collector := inventory.Collector{Client: client, Progress: cmd.OutOrStdout()}
	report, err := collector.Collect(ctx, cfg.ClusterName)
	if err != nil {
		_ = auditor.CompleteRun(ctx, runID, "failed", err.Error())
		return err
	}

	for _, n := range report.Nodes {
		rec := audit.NodeRecord{NodeName: n.Node}
		if n.Err != nil {
			rec.Status = "failed"
			rec.ErrorDetail = n.Err.Error()
		} else {
			rec.Status = "ok"
			rec.VMCount = len(n.VMs)
			for _, vm := range n.VMs {
				rec.DiskCount += len(vm.Drives)
			}
		}
		if err := auditor.RecordNode(ctx, runID, rec); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: recording node %s: %v\n", n.Node, err)
		}
	}
	if err := auditor.RecordTotals(ctx, runID, len(report.Nodes),
		len(report.FailedNodes()), report.VMCount(), report.DiskCount()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: recording totals: %v\n", err)
	}

	if err := sink.Write(cfg.ResultsFile, report.Lines(), false); err != nil {
		_ = auditor.CompleteRun(ctx, runID, "failed", err.Error())
		return fmt.Errorf("writing results: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", cfg.ResultsFile)

	if err := auditor.CompleteRun(ctx, runID, "completed", ""); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: completing run record: %v\n", err)
	}

	if cfg.Verbose {
		printSummary(cmd, report, cfg)
	}
	return nil
}

// historyE lists recorded runs, or the node details of one run.
func historyE(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q (use table, json, or yaml)", format)
	}

	auditor, err := audit.NewSQLiteAuditor(cfg.AuditDBPath)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer auditor.Close()

	ctx := context.Background()

	if runID, _ := cmd.Flags().GetInt64("run"); runID > 0 {
		nodes, err := auditor.ListNodes(ctx, runID)
		if err != nil {
			return fmt.Errorf("listing run %d: %w", runID, err)
		}
		return renderNodes(cmd, nodes, format)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := auditor.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	return renderRuns(cmd, runs, format)
}

// pruneE deletes audit runs older than the retention window.
func pruneE(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	keepDays, _ := cmd.Flags().GetInt("keep-days")

	auditor, err := audit.NewSQLiteAuditor(cfg.AuditDBPath)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer auditor.Close()

	cutoff := time.Now().UTC().AddDate(0, 0, -keepDays)
	pruned, err := auditor.PruneBefore(context.Background(), cutoff)
	if err != nil {
		return fmt.Errorf("pruning run history: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d runs older than %d days\n", pruned, keepDays)
	return nil
}

// openAuditor opens the run-history database, downgrading to a no-op recorder
// when it is disabled or cannot be opened. Audit trouble never fails a run.
func openAuditor(cmd *cobra.Command, cfg *config.Config) audit.Auditor {
	if !cfg.AuditEnabled {
		return audit.NoOpAuditor{}
	}
	a, err := audit.NewSQLiteAuditor(cfg.AuditDBPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: run history disabled: %v\n", err)
		return audit.NoOpAuditor{}
	}
	return a
}

// printDryRun outputs the resolved run plan in YAML without touching the
// cluster, the results file, or the history database.
func printDryRun(cmd *cobra.Command, cfg *config.Config) error {
	cluster := cfg.ClusterName
	if cluster == "" {
		cluster = "(local cluster)"
	}
	plan := runPlan{
		Cluster:     cluster,
		ResultsFile: cfg.ResultsFile,
		AssumeYes:   cfg.AssumeYes,
	}
	if cfg.AuditEnabled {
		plan.AuditDB = cfg.AuditDBPath
	}

	data, err := yaml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshaling run plan: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "--- Dry Run ---")
	fmt.Fprint(out, string(data))
	return nil
}

// renderRuns writes run summaries in the requested format.
func renderRuns(cmd *cobra.Command, runs []audit.RunSummary, format string) error {
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	switch format {
	case "table":
		table := tablewriter.NewWriter(out)
		table.Header("ID", "STARTED", "STATUS", "CLUSTER", "NODES", "FAILED", "VMS", "DISKS")
		for _, r := range runs {
			cluster := r.ClusterName
			if cluster == "" {
				cluster = "(local)"
			}
			table.Append(
				strconv.FormatInt(r.ID, 10),
				r.StartedAt,
				r.Status,
				cluster,
				strconv.Itoa(r.NodeCount),
				strconv.Itoa(r.FailedNodes),
				strconv.Itoa(r.VMCount),
				strconv.Itoa(r.DiskCount),
			)
		}
		return table.Render()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer func() { _ = enc.Close() }()
		return enc.Encode(runs)
	default:
		return fmt.Errorf("unknown format %q (use table, json, or yaml)", format)
	}
}

// renderNodes writes the per-node details of a single run.
func renderNodes(cmd *cobra.Command, nodes []audit.NodeSummary, format string) error {
	out := cmd.OutOrStdout()
	if len(nodes) == 0 {
		fmt.Fprintln(out, "No node details recorded.")
		return nil
	}

	switch format {
	case "table":
		table := tablewriter.NewWriter(out)
		table.Header("NODE", "STATUS", "VMS", "DISKS", "CHECKED", "ERROR")
		for _, n := range nodes {
			table.Append(
				n.NodeName,
				n.Status,
				strconv.Itoa(n.VMCount),
				strconv.Itoa(n.DiskCount),
				n.CheckedAt,
				n.ErrorDetail,
			)
		}
		return table.Render()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(nodes)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer func() { _ = enc.Close() }()
		return enc.Encode(nodes)
	default:
		return fmt.Errorf("unknown format %q (use table, json, or yaml)", format)
	}
}

// printSummary outputs a collection summary block.
func printSummary(cmd *cobra.Command, report *inventory.Report, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out, "Collection Summary")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "Cluster:       %s\n", report.Cluster)
	fmt.Fprintf(out, "Nodes checked: %d\n", len(report.Nodes))
	fmt.Fprintf(out, "Nodes failed:  %d\n", len(report.FailedNodes()))
	fmt.Fprintf(out, "VMs:           %d\n", report.VMCount())
	fmt.Fprintf(out, "Disks:         %d\n", report.DiskCount())
	fmt.Fprintf(out, "Results file:  %s\n", cfg.ResultsFile)
	fmt.Fprintln(out, strings.Repeat("=", 50))
}

// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package audit

// NodeRecord holds data for inserting a node_details row.
type NodeRecord struct {
	NodeName    string
	Status      string
	VMCount     int
	DiskCount   int
	ErrorDetail string
}

// RunSummary is one runs row as read back for the history listing. The tags
// drive the json and yaml output formats.
type RunSummary struct {
	ID           int64  `json:"id" yaml:"id"`
	RunID        string `json:"run_id" yaml:"run_id"`
	Command      string `json:"command" yaml:"command"`
	Status       string `json:"status" yaml:"status"`
	ClusterName  string `json:"cluster_name,omitempty" yaml:"cluster_name,omitempty"`
	ResultsFile  string `json:"results_file,omitempty" yaml:"results_file,omitempty"`
	NodeCount    int    `json:"node_count" yaml:"node_count"`
	FailedNodes  int    `json:"failed_nodes" yaml:"failed_nodes"`
	VMCount      int    `json:"vm_count" yaml:"vm_count"`
	DiskCount    int    `json:"disk_count" yaml:"disk_count"`
	StartedAt    string `json:"started_at" yaml:"started_at"`
	CompletedAt  string `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	ErrorSummary string `json:"error_summary,omitempty" yaml:"error_summary,omitempty"`
}

// NodeSummary is one node_details row as read back for a recorded run.
type NodeSummary struct {
	NodeName    string `json:"node_name" yaml:"node_name"`
	Status      string `json:"status" yaml:"status"`
	VMCount     int    `json:"vm_count" yaml:"vm_count"`
	DiskCount   int    `json:"disk_count" yaml:"disk_count"`
	ErrorDetail string `json:"error_detail,omitempty" yaml:"error_detail,omitempty"`
	CheckedAt   string `json:"checked_at" yaml:"checked_at"`
}

// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

// Package inventory walks the nodes of a failover cluster, collects the disk
// attachments of every hosted VM, and renders the comma-separated result set.
package inventory

import (
	"vmstor/internal/constants"
)

// DiskDrive is one virtual hard disk attachment, verbatim from the node's
// hypervisor API.
type DiskDrive struct {
	ControllerType string `json:"ControllerType"`
	Path           string `json:"Path"`
}

// VMDisks is one VM together with its disk attachments.
type VMDisks struct {
	Name   string      `json:"Name"`
	Drives []DiskDrive `json:"Drives"`
}

// NodeResult is the outcome of querying one cluster node: either the hosted
// VM data or the error that prevented retrieving it.
type NodeResult struct {
	Node string
	VMs  []VMDisks
	Err  error
}

// Report is the collected inventory of a cluster, nodes in enumeration order.
type Report struct {
	Cluster string
	Nodes   []NodeResult
}

// ClusterVolumeID derives the cluster-volume digit from a disk path laid out
// as C:\ClusterStorage\Volume<N>\... by reading the rune at the fixed volume
// offset. Paths too short for the offset yield "n/a" instead of an error.
func ClusterVolumeID(path string) string {
	runes := []rune(path)
	if len(runes) <= constants.VolumeIDOffset {
		return constants.VolumeIDUnavailable
	}
	return string(runes[constants.VolumeIDOffset])
}

// Rows renders the data rows in collection order: one comma-joined row per
// disk attachment, and a single placeholder line for each node that could
// not be queried. Field values are joined verbatim without quoting, so a
// value containing a comma shifts that row's columns; the previous report
// format behaves the same way and its consumers depend on it.
func (r *Report) Rows() []string {
	var rows []string
	for _, n := range r.Nodes {
		if n.Err != nil {
			rows = append(rows, constants.NodeFailurePrefix+n.Node)
			continue
		}
		for _, vm := range n.VMs {
			for _, d := range vm.Drives {
				rows = append(rows, vm.Name+","+d.ControllerType+","+ClusterVolumeID(d.Path)+","+d.Path)
			}
		}
	}
	return rows
}

// Lines is the full file content: the fixed header followed by Rows.
func (r *Report) Lines() []string {
	return append([]string{constants.CSVHeader}, r.Rows()...)
}

// VMCount counts the VMs found on successfully queried nodes.
func (r *Report) VMCount() int {
	count := 0
	for _, n := range r.Nodes {
		if n.Err == nil {
			count += len(n.VMs)
		}
	}
	return count
}

// DiskCount counts the disk attachments found on successfully queried nodes.
func (r *Report) DiskCount() int {
	count := 0
	for _, n := range r.Nodes {
		if n.Err != nil {
			continue
		}
		for _, vm := range n.VMs {
			count += len(vm.Drives)
		}
	}
	return count
}

// FailedNodes returns the names of nodes whose query failed, in collection
// order.
func (r *Report) FailedNodes() []string {
	var failed []string
	for _, n := range r.Nodes {
		if n.Err != nil {
			failed = append(failed, n.Node)
		}
	}
	return failed
}

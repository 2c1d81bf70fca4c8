// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

// Package hyperv reaches the Windows failover cluster service and the per-node
// Hyper-V management API. It invokes Cmdlets from the FailoverClusters and
// Hyper-V PowerShell modules through an embedded interface script, one verb
// per query, and decodes the JSON envelope the script prints.
package hyperv

import (
	"context"
	"fmt"

	"vmstor/internal/inventory"
)

// Client runs interface script verbs against the local PowerShell. It
// implements inventory.ClusterClient.
type Client struct {
	run runner
}

// Connect locates PowerShell, writes the interface script into the cache
// directory if it is not there yet, and returns a ready Client. Both failures
// produce a wrapped error.
func Connect() (*Client, error) {
	powershellpath, err := findPowerShell()
	if err != nil {
		return nil, fmt.Errorf("failed to locate PowerShell: %w", err)
	}

	scriptpath, err := findScript()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare interface script: %w", err)
	}

	return &Client{run: powershellRunner(powershellpath, scriptpath)}, nil
}

// LocalClusterName resolves the name of the cluster the local machine
// belongs to.
// It does this by running the Cmdlet:
//
//	Get-Cluster
//
// through the interface script.
func (c *Client) LocalClusterName(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	env, err := c.runWithResults("localcluster")
	if err != nil {
		return "", err
	}

	var name string
	if err := payloadValue(env, "ClusterName", &name); err != nil {
		return "", err
	}
	return name, nil
}

// ValidateCluster confirms that the named cluster is reachable.
// It does this by running the Cmdlet:
//
//	Get-Cluster -Name <name>
//
// through the interface script.
func (c *Client) ValidateCluster(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := c.runWithResults("checkcluster", name)
	return err
}

// ClusterNodes lists the names of the cluster's nodes in the order the
// cluster service reports them.
// It does this by running the Cmdlet:
//
//	Get-ClusterNode -Cluster <cluster>
//
// through the interface script.
func (c *Client) ClusterNodes(ctx context.Context, cluster string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	env, err := c.runWithResults("listnodes", cluster)
	if err != nil {
		return nil, err
	}

	var nodes []string
	if err := payloadValue(env, "Nodes", &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// NodeVMs lists the VMs hosted on one node together with their virtual hard
// disk attachments, in enumeration order.
// It does this by running the Cmdlets:
//
//	Get-VM -ComputerName <node>
//	Get-VMHardDiskDrive -ComputerName <node> -VMName <vm>
//
// through the interface script.
func (c *Client) NodeVMs(ctx context.Context, node string) ([]inventory.VMDisks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	env, err := c.runWithResults("listvmdisks", node)
	if err != nil {
		return nil, err
	}

	var vms []inventory.VMDisks
	if err := payloadValue(env, "VMs", &vms); err != nil {
		return nil, err
	}
	return vms, nil
}

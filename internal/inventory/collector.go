// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"

	"vmstor/internal/constants"
)

// ClusterClient is the surface of the cluster and hypervisor management APIs
// the collector depends on.
type ClusterClient interface {
	// LocalClusterName resolves the name of the cluster the local machine
	// belongs to.
	LocalClusterName(ctx context.Context) (string, error)
	// ValidateCluster confirms that the named cluster is reachable.
	ValidateCluster(ctx context.Context, name string) error
	// ClusterNodes lists the cluster's node names in service order.
	ClusterNodes(ctx context.Context, cluster string) ([]string, error)
	// NodeVMs lists the VMs hosted on one node with their disk attachments.
	NodeVMs(ctx context.Context, node string) ([]VMDisks, error)
}

// ErrClusterUnresolvable marks a failure to resolve or reach the target
// cluster. Collection aborts on it with no partial output.
var ErrClusterUnresolvable = errors.New("cluster could not be resolved")

// Collector queries the cluster one node at a time, in enumeration order.
type Collector struct {
	Client   ClusterClient
	Progress io.Writer
}

// Collect resolves the target cluster, enumerates its nodes, and gathers the
// VM disk attachments hosted on each. An empty clusterName targets the local
// cluster. A node whose query fails is recorded with its error and the run
// continues; there is no retry. Cluster resolution failures abort instead.
func (c *Collector) Collect(ctx context.Context, clusterName string) (*Report, error) {
	resolved := clusterName
	if resolved == "" {
		name, err := c.Client.LocalClusterName(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: the local cluster: %w", ErrClusterUnresolvable, err)
		}
		resolved = name
	} else if err := c.Client.ValidateCluster(ctx, resolved); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrClusterUnresolvable, resolved, err)
	}

	nodes, err := c.Client.ClusterNodes(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrClusterUnresolvable, resolved, err)
	}

	report := &Report{Cluster: resolved}
	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.Progress != nil {
			fmt.Fprintf(c.Progress, "%s%s\n", constants.NodeCheckPrefix, node)
		}
		vms, err := c.Client.NodeVMs(ctx, node)
		if err != nil {
			report.Nodes = append(report.Nodes, NodeResult{Node: node, Err: err})
			continue
		}
		report.Nodes = append(report.Nodes, NodeResult{Node: node, VMs: vms})
	}
	return report, nil
}

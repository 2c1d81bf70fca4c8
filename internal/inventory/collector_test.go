package inventory_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vmstor/internal/inventory"
)

// fakeClient is a canned ClusterClient recording the calls made against it.
type fakeClient struct {
	localName   string
	localErr    error
	validateErr error
	nodes       []string
	nodesErr    error
	vmsByNode   map[string][]inventory.VMDisks
	errByNode   map[string]error

	validated []string
	queried   []string
}

func (f *fakeClient) LocalClusterName(ctx context.Context) (string, error) {
	return f.localName, f.localErr
}

func (f *fakeClient) ValidateCluster(ctx context.Context, name string) error {
	f.validated = append(f.validated, name)
	return f.validateErr
}

func (f *fakeClient) ClusterNodes(ctx context.Context, cluster string) ([]string, error) {
	return f.nodes, f.nodesErr
}

func (f *fakeClient) NodeVMs(ctx context.Context, node string) ([]inventory.VMDisks, error) {
	f.queried = append(f.queried, node)
	if err, ok := f.errByNode[node]; ok {
		return nil, err
	}
	return f.vmsByNode[node], nil
}

var _ = Describe("Collector", func() {
	var (
		client    *fakeClient
		progress  *strings.Builder
		collector *inventory.Collector
	)

	BeforeEach(func() {
		client = &fakeClient{
			localName: "LocalCluster",
			nodes:     []string{"Node1", "Node2", "Node3"},
			vmsByNode: map[string][]inventory.VMDisks{
				"Node1": {{Name: "VM1", Drives: []inventory.DiskDrive{
					{ControllerType: "IDE", Path: `C:\ClusterStorage\Volume1\VM1\disk.vhdx`},
				}}},
				"Node2": {},
				"Node3": {{Name: "VM3", Drives: []inventory.DiskDrive{
					{ControllerType: "SCSI", Path: `C:\ClusterStorage\Volume2\VM3\disk.vhdx`},
				}}},
			},
			errByNode: map[string]error{},
		}
		progress = &strings.Builder{}
		collector = &inventory.Collector{Client: client, Progress: progress}
	})

	Context("cluster resolution", func() {
		It("should resolve the local cluster when no name is given", func() {
			report, err := collector.Collect(context.Background(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Cluster).To(Equal("LocalCluster"))
			Expect(client.validated).To(BeEmpty())
		})

		It("should validate a named cluster instead of resolving", func() {
			report, err := collector.Collect(context.Background(), "Cluster01")
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Cluster).To(Equal("Cluster01"))
			Expect(client.validated).To(Equal([]string{"Cluster01"}))
		})

		It("should abort when the local cluster cannot be resolved", func() {
			client.localErr = errors.New("cluster service not running")

			report, err := collector.Collect(context.Background(), "")
			Expect(report).To(BeNil())
			Expect(errors.Is(err, inventory.ErrClusterUnresolvable)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("the local cluster"))
			Expect(client.queried).To(BeEmpty())
		})

		It("should abort when a named cluster is unreachable", func() {
			client.validateErr = errors.New("no such cluster")

			report, err := collector.Collect(context.Background(), "Ghost")
			Expect(report).To(BeNil())
			Expect(errors.Is(err, inventory.ErrClusterUnresolvable)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("Ghost"))
		})

		It("should abort when node enumeration fails", func() {
			client.nodesErr = errors.New("access denied")

			report, err := collector.Collect(context.Background(), "Cluster01")
			Expect(report).To(BeNil())
			Expect(errors.Is(err, inventory.ErrClusterUnresolvable)).To(BeTrue())
			Expect(client.queried).To(BeEmpty())
		})
	})

	Context("node queries", func() {
		It("should query nodes sequentially in enumeration order", func() {
			_, err := collector.Collect(context.Background(), "Cluster01")
			Expect(err).NotTo(HaveOccurred())
			Expect(client.queried).To(Equal([]string{"Node1", "Node2", "Node3"}))
		})

		It("should announce each node before querying it", func() {
			_, err := collector.Collect(context.Background(), "Cluster01")
			Expect(err).NotTo(HaveOccurred())
			Expect(progress.String()).To(Equal(
				"Checking cluster node Node1\n" +
					"Checking cluster node Node2\n" +
					"Checking cluster node Node3\n"))
		})

		It("should isolate a node failure and continue with the rest", func() {
			client.errByNode["Node2"] = errors.New("RPC server unavailable")

			report, err := collector.Collect(context.Background(), "Cluster01")
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Nodes).To(HaveLen(3))
			Expect(report.Nodes[0].Err).NotTo(HaveOccurred())
			Expect(report.Nodes[1].Err).To(MatchError("RPC server unavailable"))
			Expect(report.Nodes[2].Err).NotTo(HaveOccurred())
			Expect(client.queried).To(Equal([]string{"Node1", "Node2", "Node3"}))
		})

		It("should carry the VM data through verbatim", func() {
			report, err := collector.Collect(context.Background(), "Cluster01")
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Nodes[0].VMs).To(Equal(client.vmsByNode["Node1"]))
			Expect(report.Nodes[1].VMs).To(BeEmpty())
		})

		It("should work without a progress writer", func() {
			collector.Progress = nil
			_, err := collector.Collect(context.Background(), "Cluster01")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should stop between nodes when the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			report, err := collector.Collect(ctx, "Cluster01")
			Expect(report).To(BeNil())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(client.queried).To(BeEmpty())
		})
	})
})

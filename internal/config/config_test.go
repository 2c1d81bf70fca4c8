package config_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"vmstor/internal/config"
	"vmstor/internal/constants"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	config.BindFlags(cmd)
	return cmd
}

func writeConfigFile(dir, content string) string {
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	Expect(err).NotTo(HaveOccurred())
	return path
}

var _ = Describe("Config", func() {
	var cmd *cobra.Command

	BeforeEach(func() {
		// Clear all VMSTOR_ env vars before each test
		for _, env := range os.Environ() {
			if strings.HasPrefix(env, constants.EnvPrefix+"_") {
				key := env
				if i := strings.IndexByte(env, '='); i >= 0 {
					key = env[:i]
				}
				os.Unsetenv(key)
			}
		}
		cmd = newTestCommand()
	})

	Context("with defaults", func() {
		It("should default the results file to the user temp directory", func() {
			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ResultsFile).To(Equal(filepath.Join(os.TempDir(), constants.DefaultResultsFileName)))
		})

		It("should default the cluster name to empty", func() {
			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ClusterName).To(BeEmpty())
		})

		It("should default AssumeYes to false", func() {
			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.AssumeYes).To(BeFalse())
		})

		It("should default DryRun to false", func() {
			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.DryRun).To(BeFalse())
		})

		It("should default Verbose to false", func() {
			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Verbose).To(BeFalse())
		})

		It("should enable auditing by default", func() {
			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.AuditEnabled).To(BeTrue())
			Expect(cfg.AuditDBPath).To(HaveSuffix(constants.DefaultAuditDBFileName))
		})
	})

	Context("with YAML config file", func() {
		var tmpDir string

		BeforeEach(func() {
			var err error
			tmpDir, err = os.MkdirTemp("", "vmstor-config-test-*")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tmpDir)
		})

		It("should load the cluster name from file", func() {
			path := writeConfigFile(tmpDir, `cluster-name: Cluster01`)
			cmd.Flags().Set("config", path)

			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ClusterName).To(Equal("Cluster01"))
		})

		It("should load multiple values from file", func() {
			path := writeConfigFile(tmpDir, `
cluster-name: Cluster01
results-file: /reports/storage.csv
assume-yes: true
audit: false
`)
			cmd.Flags().Set("config", path)

			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ClusterName).To(Equal("Cluster01"))
			Expect(cfg.ResultsFile).To(Equal("/reports/storage.csv"))
			Expect(cfg.AssumeYes).To(BeTrue())
			Expect(cfg.AuditEnabled).To(BeFalse())
		})

		It("should return error for missing file", func() {
			cmd.Flags().Set("config", "/nonexistent/path/config.yaml")

			_, err := config.LoadConfig(cmd)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("with environment variables", func() {
		It("should override defaults with VMSTOR_ env vars", func() {
			os.Setenv("VMSTOR_CLUSTER_NAME", "EnvCluster")
			defer os.Unsetenv("VMSTOR_CLUSTER_NAME")

			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ClusterName).To(Equal("EnvCluster"))
		})

		It("should override the results file from env", func() {
			os.Setenv("VMSTOR_RESULTS_FILE", "/env/results.csv")
			defer os.Unsetenv("VMSTOR_RESULTS_FILE")

			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ResultsFile).To(Equal("/env/results.csv"))
		})

		It("should override the audit db path from env", func() {
			os.Setenv("VMSTOR_AUDIT_DB", "/env/audit.db")
			defer os.Unsetenv("VMSTOR_AUDIT_DB")

			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.AuditDBPath).To(Equal("/env/audit.db"))
		})
	})

	Context("priority chain", func() {
		var tmpDir string

		BeforeEach(func() {
			var err error
			tmpDir, err = os.MkdirTemp("", "vmstor-config-test-*")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tmpDir)
		})

		It("should prefer flags over env vars", func() {
			os.Setenv("VMSTOR_CLUSTER_NAME", "EnvCluster")
			defer os.Unsetenv("VMSTOR_CLUSTER_NAME")

			cmd.Flags().Set("cluster-name", "FlagCluster")

			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ClusterName).To(Equal("FlagCluster"))
		})

		It("should prefer env vars over config file", func() {
			path := writeConfigFile(tmpDir, `cluster-name: FileCluster`)
			cmd.Flags().Set("config", path)

			os.Setenv("VMSTOR_CLUSTER_NAME", "EnvCluster")
			defer os.Unsetenv("VMSTOR_CLUSTER_NAME")

			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ClusterName).To(Equal("EnvCluster"))
		})

		It("should prefer config file over defaults", func() {
			path := writeConfigFile(tmpDir, `cluster-name: FileCluster`)
			cmd.Flags().Set("config", path)

			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ClusterName).To(Equal("FileCluster"))
		})

		It("should prefer a boolean flag over the file value", func() {
			path := writeConfigFile(tmpDir, `assume-yes: false`)
			cmd.Flags().Set("config", path)
			cmd.Flags().Set("assume-yes", "true")

			cfg, err := config.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.AssumeYes).To(BeTrue())
		})
	})
})

// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vmstor/internal/constants"
)

// Config holds the complete application configuration.
type Config struct {
	ClusterName  string `mapstructure:"cluster-name"`
	ResultsFile  string `mapstructure:"results-file"`
	AssumeYes    bool   `mapstructure:"assume-yes"`
	DryRun       bool   `mapstructure:"dry-run"`
	Verbose      bool   `mapstructure:"verbose"`
	AuditEnabled bool   `mapstructure:"audit"`
	AuditDBPath  string `mapstructure:"audit-db"`
}

// DefaultResultsFile returns the default destination for the CSV report,
// placed in the user's temp directory like the predecessor tooling.
func DefaultResultsFile() string {
	return filepath.Join(os.TempDir(), constants.DefaultResultsFileName)
}

// DefaultAuditDBPath returns the default location of the run-history
// database, preferring the user cache directory.
func DefaultAuditDBPath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "vmstor", constants.DefaultAuditDBFileName)
}

// SetDefaults registers Viper defaults.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cluster-name", "")
	v.SetDefault("results-file", DefaultResultsFile())
	v.SetDefault("assume-yes", false)
	v.SetDefault("dry-run", false)
	v.SetDefault("verbose", false)
	v.SetDefault("audit", true)
	v.SetDefault("audit-db", DefaultAuditDBPath())
}

// BindFlags registers the collect command's flags.
func BindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("cluster-name", "", "Failover cluster to query (defaults to the local cluster)")
	f.String("results-file", "", "Destination path for the CSV report")
	f.String("config", "", "Path to YAML config file")
	f.Bool("assume-yes", false, "Overwrite an existing results file without prompting")
	f.Bool("dry-run", false, "Print the run plan without touching cluster or files")
}

// LoadConfig loads configuration from flags, environment variables, config file,
// and defaults using the Viper priority chain: flags > env > file > defaults.
func LoadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	// Set defaults first (lowest priority)
	SetDefaults(v)

	// Environment variables (middle priority)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Config file (if specified via --config flag)
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Bind flags (highest priority — only overrides when explicitly set)
	bindStringIfSet(v, cmd, "cluster-name")
	bindStringIfSet(v, cmd, "results-file")
	bindStringIfSet(v, cmd, "audit-db")
	bindBoolIfSet(v, cmd, "assume-yes")
	bindBoolIfSet(v, cmd, "dry-run")
	bindBoolIfSet(v, cmd, "verbose")
	bindBoolIfSet(v, cmd, "audit")

	cfg := &Config{}
	cfg.ClusterName = v.GetString("cluster-name")
	cfg.ResultsFile = v.GetString("results-file")
	cfg.AssumeYes = v.GetBool("assume-yes")
	cfg.DryRun = v.GetBool("dry-run")
	cfg.Verbose = v.GetBool("verbose")
	cfg.AuditEnabled = v.GetBool("audit")
	cfg.AuditDBPath = v.GetString("audit-db")

	return cfg, nil
}

// bindStringIfSet sets a Viper key from a Cobra flag only when the flag was
// explicitly provided. Persistent flags are consulted as well so subcommands
// inherit root-level settings.
func bindStringIfSet(v *viper.Viper, cmd *cobra.Command, name string) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		val, _ := cmd.Flags().GetString(name)
		v.Set(name, val)
	}
}

func bindBoolIfSet(v *viper.Viper, cmd *cobra.Command, name string) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		val, _ := cmd.Flags().GetBool(name)
		v.Set(name, val)
	}
}

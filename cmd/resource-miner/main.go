// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the resource-miner CLI.
// Stages: harvest (search, dedup, shard, chunk), preprocess (full text to
// plain text), mentions (detection and optional classification).
package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/resource-miner/internal/harvest"
	"github.com/pdiddy/resource-miner/internal/logging"
	"github.com/pdiddy/resource-miner/internal/secrets"
	"github.com/pdiddy/resource-miner/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Populated by the root PersistentPreRunE for every subcommand.
var (
	cfg    types.PipelineConfig
	logger zerolog.Logger
	runID  string
)

// rootCmd is the base command for the resource-miner CLI.
var rootCmd = &cobra.Command{
	Use:   "resource-miner",
	Short: "Harvest Europe PMC literature and find mentions of biodata resources",
	Long: `resource-miner searches Europe PMC for articles that mention known
biodata resources, keeps one metadata record per article across sharded
files, splits the collected ids into batch files, converts full text to
plain text, and detects candidate resource mentions for classification.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindCommandFlags(viper.GetViper(), cmd); err != nil {
			return err
		}
		cfg = decodeConfig(viper.GetViper())
		runID = harvest.NewRunID()
		logger = logging.New(logging.FromConfig(cfg.Log, runID))
		if configFileUsed != "" {
			logger.Info().Str("path", configFileUsed).Msg("using config file")
		}

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		secrets.Apply(&cfg, s)
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./resource-miner.yaml or ~/.config/resource-miner/resource-miner.yaml)")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("resource-miner")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "resource-miner"))
		}
	}

	viper.SetEnvPrefix("RESOURCE_MINER")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		configFileUsed = viper.ConfigFileUsed()
	}
}

// replacer maps nested config keys to environment variable names.
var replacer = strings.NewReplacer(".", "_", "-", "_")

// configFileUsed is reported once the logger exists.
var configFileUsed string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bookharvest CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the bookharvest CLI.
var rootCmd = &cobra.Command{
	Use:   "bookharvest",
	Short: "Aggregate free-book metadata and files from public catalogs",
	Long: `bookharvest collects free-book records from archive.org and Project
Gutenberg, deduplicates them by identifier, optionally downloads documents and
covers, and writes a CSV table, a zip archive, and collection statistics.

Use 'run' for a full pipeline run, 'stats' to re-report on an existing table,
and 'index' to build and query a local SQLite catalog.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bookharvest.yaml or ~/.config/bookharvest/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bookharvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bookharvest"))
		}
	}

	viper.SetEnvPrefix("BOOKHARVEST")
	viper.AutomaticEnv()

	setConfigDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

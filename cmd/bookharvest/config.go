// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bookharvest/pkg/types"
)

const defaultUserAgent = "bookharvest/0.1"

// setConfigDefaults registers viper defaults; config file values and
// BOOKHARVEST_* environment variables override these, and flags
// override both.
func setConfigDefaults() {
	viper.SetDefault("books_dir", "books")
	viper.SetDefault("user_agent", defaultUserAgent)
	viper.SetDefault("source.timeout", 30*time.Second)
	viper.SetDefault("source.page_size", 100)
	viper.SetDefault("source.page_delay", 200*time.Millisecond)
	viper.SetDefault("source.probe_timeout", 10*time.Second)
	viper.SetDefault("fetch.timeout", 30*time.Second)
	viper.SetDefault("fetch.delay", 100*time.Millisecond)
	viper.SetDefault("index.max_results", 20)
	viper.SetDefault("languages", []string{})
}

// outputConfig resolves the output tree location from viper plus the
// --books-dir flag.
func outputConfig(cmd *cobra.Command) types.OutputConfig {
	booksDir := viper.GetString("books_dir")
	if cmd.Flags().Changed("books-dir") {
		booksDir, _ = cmd.Flags().GetString("books-dir")
	}
	return types.OutputConfig{BooksDir: booksDir}
}

// aggregateConfig assembles the full run configuration.
func aggregateConfig(cmd *cobra.Command) types.AggregateConfig {
	cfg := types.AggregateConfig{
		Source: types.SourceConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("source.timeout"),
				UserAgent: viper.GetString("user_agent"),
			},
			PageSize:     viper.GetInt("source.page_size"),
			PageDelay:    viper.GetDuration("source.page_delay"),
			ProbeTimeout: viper.GetDuration("source.probe_timeout"),
		},
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("fetch.timeout"),
				UserAgent: viper.GetString("user_agent"),
			},
			OutputConfig: outputConfig(cmd),
			FetchDelay:   viper.GetDuration("fetch.delay"),
		},
		Languages: viper.GetStringSlice("languages"),
	}

	if cmd.Flags().Changed("timeout") {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		cfg.Source.Timeout = timeout
		cfg.Fetch.Timeout = timeout
	}
	if cmd.Flags().Changed("languages") {
		langs, _ := cmd.Flags().GetStringSlice("languages")
		cfg.Languages = langs
	}
	return cfg
}

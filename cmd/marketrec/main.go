// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

// Package main is the marketrec command.
//
// Marketrec serves hybrid recommendations for an auction marketplace: a
// TF-IDF content scorer and user and item collaborative filters fused into
// one ranked list, with a popularity fallback for unknown users.
//
// Usage:
//
//	marketrec serve                      # HTTP API under a supervisor tree
//	marketrec seed --file fixture.json   # load listings, bids and reviews
//	marketrec recommend <user-id>        # one-shot build, JSON to stdout
//
// Configuration layers (highest priority wins): environment variables,
// the YAML file from --config or CONFIG_PATH, then built-in defaults.
//
// # Signal Handling
//
// serve stops on SIGINT or SIGTERM: the HTTP server drains in-flight
// requests within server.shutdown_timeout and the refresh service exits
// before the database is closed.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/marketrec/internal/config"
	"github.com/tomtom215/marketrec/internal/logging"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries state resolved by the root command for its subcommands.
type app struct {
	configPath string
	cfg        *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "marketrec",
		Short: "Hybrid recommendation service for marketplace listings",
		Long: `marketrec recommends active marketplace listings to users.

Bids and reviews are folded into one preference per (user, listing) and
scored by three strategies: TF-IDF content similarity, user-based and
item-based collaborative filtering. Users without history receive the
most-bid active listings.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"path to a YAML config file (default: $CONFIG_PATH or ./config.yaml)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newSeedCmd(a))
	root.AddCommand(newRecommendCmd(a))
	return root
}

// load resolves configuration and initializes logging.
func (a *app) load() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(cfg.Logging.LoggerConfig())
	a.cfg = cfg
	return nil
}

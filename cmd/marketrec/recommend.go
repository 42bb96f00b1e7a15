// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package main

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/marketrec/internal/logging"
)

func newRecommendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend <user-id>",
		Short: "Build the models once and print recommendations as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := logging.WithComponent("cli")

			db, err := openStore(ctx, a.cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			engine, err := newEngine(a.cfg, db, logger)
			if err != nil {
				return err
			}
			resp, err := engine.Recommend(ctx, args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
}

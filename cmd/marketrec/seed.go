// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/marketrec/internal/database"
)

func newSeedCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load listings, bids and reviews from a JSON fixture",
		Example: `  marketrec seed --file testdata/fixture.json
  DUCKDB_PATH=/tmp/shop.duckdb marketrec seed -f fixture.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = a.cfg.Database.SeedFile
			}
			if file == "" {
				return errors.New("no fixture given: use --file or database.seed_file")
			}

			db, err := database.New(a.cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			res, err := db.SeedFromFile(cmd.Context(), file)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d listings, %d bids, %d reviews\n",
				res.Listings, res.Bids, res.Reviews)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON fixture with listings, bids and reviews")
	return cmd
}

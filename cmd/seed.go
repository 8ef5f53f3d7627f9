// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/hotspots/incident"
	"github.com/spf13/cobra"
)

const seedFile = "cmd/testdata/seed.json"

func newSeedCmd() *cobra.Command {
	input := seedFile

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seeds a fresh database with data from " + seedFile,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := os.MkdirAll(dbPath, 0o750); err != nil {
				return fmt.Errorf("creating db directory: %w", err)
			}

			return seedDatabase(databasePath(), input)
		},
	}
	cmd.Flags().StringVar(&input, "input", input, "JSON dataset to seed from")

	return cmd
}

func init() {
	rootCmd.AddCommand(newSeedCmd())
}

// openRepository opens the database at path and makes sure the schema exists.
func openRepository(path string) (*sql.DB, incident.Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := incident.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, repo, nil
}

func seedDatabase(dbPath, input string) error {
	ds, err := incident.LoadDataset(input)
	if err != nil {
		return fmt.Errorf("loading %s: %w", input, err)
	}

	// remove old db if it exists
	_ = os.Remove(dbPath)
	_ = os.Remove(dbPath + ".wal")

	db, repo, err := openRepository(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repo.SaveReports(ds.Reports); err != nil {
		return fmt.Errorf("failed to save reports: %w", err)
	}

	if err := repo.SaveAlerts(ds.Alerts); err != nil {
		return fmt.Errorf("failed to save alerts: %w", err)
	}

	fmt.Println("Database seeded successfully.")

	return nil
}

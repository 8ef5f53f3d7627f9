// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/jcodagnone/hotspots/incident"
	"github.com/jcodagnone/hotspots/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const importBatchSize = 500

var importCmd = &cobra.Command{
	Use:   "import <dataset.json>",
	Short: "Appends the reports and alerts of a JSON dataset to the database",
	Long: `Imports a dataset of the form {"reports": [...], "alerts": [...]}.
Records are validated first; records whose id is already stored are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ds, err := incident.LoadDataset(args[0])
		if err != nil {
			return err
		}

		if err := os.MkdirAll(dbPath, 0o750); err != nil {
			return fmt.Errorf("creating db directory: %w", err)
		}

		db, repo, err := openRepository(databasePath())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := importDataset(repo, ds); err != nil {
			return err
		}

		counts, err := repo.Counts()
		if err != nil {
			return fmt.Errorf("counting records: %w", err)
		}

		log.Printf("✅ Imported %s reports and %s alerts from %s\n",
			textutils.FormatInt(int64(len(ds.Reports))),
			textutils.FormatInt(int64(len(ds.Alerts))),
			args[0])
		log.Printf("📊 Database holds %s reports (%s geolocated) and %s alerts\n",
			textutils.FormatInt(int64(counts.Reports)),
			textutils.FormatInt(int64(counts.GeolocatedReports)),
			textutils.FormatInt(int64(counts.Alerts)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func importDataset(repo incident.Repository, ds *incident.Dataset) error {
	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(ds.Reports)+len(ds.Alerts),
			progressbar.OptionSetDescription("Importing incidents"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	if err := inBatches(ds.Reports, bar, repo.SaveReports); err != nil {
		return fmt.Errorf("saving reports: %w", err)
	}

	if err := inBatches(ds.Alerts, bar, repo.SaveAlerts); err != nil {
		return fmt.Errorf("saving alerts: %w", err)
	}

	if bar != nil {
		_ = bar.Finish()
	}

	return nil
}

func inBatches[T any](items []T, bar *progressbar.ProgressBar, save func([]T) error) error {
	for start := 0; start < len(items); start += importBatchSize {
		batch := items[start:min(start+importBatchSize, len(items))]
		if err := save(batch); err != nil {
			return err
		}

		if bar != nil {
			_ = bar.Add(len(batch))
		}
	}

	return nil
}

// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "crime hotspot prediction for the safety dashboard",
	Long: `
hotspots clusters geolocated crime reports and SOS alerts into hotspots and
rates the risk of each one. Records live in a local DuckDB database that can be
seeded or imported from JSON datasets; predictions are available from the
command line or over HTTP.
`,
}

var dbPath string

const dbFile = "hotspots.duckdb"

func databasePath() string {
	return filepath.Join(dbPath, dbFile)
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&dbPath,
		"db",
		"db",
		"Directory holding the incident database",
	)
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/jcodagnone/hotspots/incident"
	"github.com/jcodagnone/hotspots/kmeans"
	"github.com/jcodagnone/hotspots/server"
	"github.com/spf13/cobra"
)

const (
	defaultAddr = ":8080"
	addrEnv     = "HOTSPOTS_ADDR"
)

var (
	serveAddr          string
	serveMaxIterations int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves hotspot predictions over HTTP",
	Long: `Serves POST /api/predict-hotspots for ad hoc predictions and, when the
database exists, GET /api/hotspots over the stored incidents.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		var repo incident.Repository

		path := databasePath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			log.Printf("⚠️  database not found at %s, GET /api/hotspots disabled\n", path)
		} else {
			db, r, err := openRepository(path)
			if err != nil {
				return err
			}
			defer db.Close()

			repo = r
		}

		fmt.Println("🗺️  Hotspot prediction server starting...")
		fmt.Printf("📍 Listening on %s\n", serveAddr)

		return server.NewServer(repo, serveMaxIterations).Run(serveAddr)
	},
}

func listenAddr() string {
	if addr := os.Getenv(addrEnv); addr != "" {
		return addr
	}

	return defaultAddr
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", listenAddr(), "Listen address (env "+addrEnv+")")
	serveCmd.Flags().IntVar(&serveMaxIterations, "max-iterations", kmeans.DefaultMaxIterations, "Maximum k-means iterations")
	rootCmd.AddCommand(serveCmd)
}

// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/jcodagnone/hotspots/hotspot"
	"github.com/jcodagnone/hotspots/incident"
	"github.com/jcodagnone/hotspots/kmeans"
	"github.com/jcodagnone/hotspots/utils/textutils"
	"github.com/spf13/cobra"
)

type predictOptions struct {
	Input         string
	Seed          uint64
	HasSeed       bool
	MaxIterations int
	Category      string
	Format        string
}

var predictOpts = &predictOptions{}

var errUnknownFormat = errors.New("unknown output format")

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Clusters the stored incidents into hotspots",
	Long: `Runs k-means over the geolocated reports and SOS alerts and prints every
hotspot with its risk level. Incidents are read from the database unless
--input names a JSON dataset.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		predictOpts.HasSeed = cmd.Flags().Changed("seed")

		reports, alerts, err := loadIncidents(predictOpts)
		if err != nil {
			return err
		}

		result := newPredictor(predictOpts).Predict(reports, alerts)
		if !result.Success {
			return errors.New(result.Error)
		}

		if result.Error != "" {
			log.Printf("⚠️  %s\n", result.Error)
		}

		return render(cmd.OutOrStdout(), predictOpts.Format, result)
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictOpts.Input, "input", "", "Read incidents from this JSON dataset instead of the database")
	predictCmd.Flags().Uint64Var(&predictOpts.Seed, "seed", 0, "Seed for centroid selection; random when unset")
	predictCmd.Flags().IntVar(&predictOpts.MaxIterations, "max-iterations", kmeans.DefaultMaxIterations, "Maximum k-means iterations")
	predictCmd.Flags().StringVar(&predictOpts.Category, "category", "", "Only cluster reports of this category")
	predictCmd.Flags().StringVar(&predictOpts.Format, "format", "table", "Output format: table or json")
	rootCmd.AddCommand(predictCmd)
}

func newPredictor(opts *predictOptions) *hotspot.Predictor {
	options := []hotspot.Option{hotspot.WithMaxIterations(opts.MaxIterations)}
	if opts.HasSeed {
		options = append(options, hotspot.WithRand(rand.New(rand.NewPCG(opts.Seed, opts.Seed))))
	}

	return hotspot.New(options...)
}

func loadIncidents(opts *predictOptions) ([]incident.Report, []incident.Alert, error) {
	if opts.Input != "" {
		ds, err := incident.LoadDataset(opts.Input)
		if err != nil {
			return nil, nil, err
		}

		reports, alerts := ds.Values()

		return filterCategory(reports, opts.Category), alerts, nil
	}

	path := databasePath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("database not found at %s - run 'seed' or 'import' first", path)
	}

	db, repo, err := openRepository(path)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	reports, err := repo.ListReports(incident.ReportFilter{Category: opts.Category, GeolocatedOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("listing reports: %w", err)
	}

	alerts, err := repo.ListAlerts(incident.AlertFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("listing alerts: %w", err)
	}

	return reports, alerts, nil
}

func filterCategory(reports []incident.Report, category string) []incident.Report {
	if category == "" {
		return reports
	}

	want := incident.Category(textutils.LowerASCIIFolding(category))

	var filtered []incident.Report

	for _, r := range reports {
		if r.Category == want {
			filtered = append(filtered, r)
		}
	}

	return filtered
}

type predictOutput struct {
	*hotspot.PredictionResult
	Summary hotspot.Summary `json:"summary"`
}

func render(w io.Writer, format string, result *hotspot.PredictionResult) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(predictOutput{PredictionResult: result, Summary: result.Summary()}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}

		_, err = fmt.Fprintln(w, string(data))

		return err
	case "table":
		renderTable(w, result)

		return nil
	default:
		return fmt.Errorf("%w %q", errUnknownFormat, format)
	}
}

func renderTable(w io.Writer, result *hotspot.PredictionResult) {
	a, b, c, d, e, f := strings.Repeat("─", 10), strings.Repeat("─", 10), strings.Repeat("─", 11),
		strings.Repeat("─", 7), strings.Repeat("─", 6), strings.Repeat("─", 10)

	fmt.Fprintf(w, "╭─%s─┬─%s─┬─%s─┬─%s─┬─%s─┬─%s─╮\n", a, b, c, d, e, f)
	fmt.Fprintf(w, "│ %-10s │ %10s │ %11s │ %7s │ %-6s │ %10s │\n", "Hotspot", "Latitude", "Longitude", "Crimes", "Risk", "Radius (m)")
	fmt.Fprintf(w, "├─%s─┼─%s─┼─%s─┼─%s─┼─%s─┼─%s─┤\n", a, b, c, d, e, f)

	for _, h := range result.Hotspots {
		fmt.Fprintf(w, "│ %-10s │ %10.5f │ %11.5f │ %7s │ %-6s │ %10.0f │\n",
			h.ID, h.Latitude, h.Longitude, textutils.FormatInt(int64(h.CrimeCount)), h.RiskLevel, h.RadiusMeters)
	}

	fmt.Fprintf(w, "╰─%s─┴─%s─┴─%s─┴─%s─┴─%s─┴─%s─╯\n", a, b, c, d, e, f)

	s := result.Summary()
	fmt.Fprintf(w, "%s crimes in %s hotspots: %d high, %d medium, %d low risk\n",
		textutils.FormatInt(int64(result.TotalCrimes)),
		textutils.FormatInt(int64(s.TotalHotspots)),
		s.HighRiskAreas, s.MediumRiskAreas, s.LowRiskAreas)
}

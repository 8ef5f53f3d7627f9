// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package hotspot predicts crime hotspots: it clusters geolocated reports and
// SOS alerts with k-means and annotates every cluster with a risk level.
package hotspot

import (
	"fmt"
	"log"

	"github.com/jcodagnone/hotspots/incident"
	"github.com/jcodagnone/hotspots/kmeans"
	"github.com/jcodagnone/hotspots/spatial"
)

const (
	// MinClusters and MaxClusters bound the number of requested clusters.
	MinClusters = 2
	MaxClusters = 5
	// CrimesPerCluster is the target number of incidents per hotspot.
	CrimesPerCluster = 3

	// CellResolution is the H3 resolution of Hotspot.H3Cell.
	CellResolution = 8

	highRiskPercentage   = 50
	mediumRiskPercentage = 20

	alertTitle   = "Emergency SOS Alert"
	alertAddress = "GPS Coordinates"
)

// payload is what a clustered point remembers about its incident.
type payload struct {
	Title    string
	Category string
	Priority string
	Address  string
}

// Predictor turns incidents into hotspots. A Predictor with an injected
// random source is as safe for concurrent use as that source.
type Predictor struct {
	opts kmeans.Options
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithRand seeds centroids from r, making predictions reproducible.
func WithRand(r kmeans.Rand) Option {
	return func(p *Predictor) {
		p.opts.Rand = r
	}
}

// WithMaxIterations bounds the k-means passes.
func WithMaxIterations(n int) Option {
	return func(p *Predictor) {
		p.opts.MaxIterations = n
	}
}

// New creates a predictor.
func New(opts ...Option) *Predictor {
	p := &Predictor{opts: kmeans.DefaultOptions()}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Predict runs a prediction with the default predictor.
func Predict(reports []incident.Report, alerts []incident.Alert) *PredictionResult {
	return New().Predict(reports, alerts)
}

// ClusterCount is the number of clusters requested for n incidents: one per
// CrimesPerCluster, between MinClusters and MaxClusters.
func ClusterCount(n int) int {
	return min(MaxClusters, max(MinClusters, (n+CrimesPerCluster-1)/CrimesPerCluster))
}

// RiskFor derives the risk level of a cluster of total incidents, high of
// them with high or emergency priority.
func RiskFor(total, high int) RiskLevel {
	if total <= 0 {
		return RiskLow
	}

	percentage := 100 * float64(high) / float64(total)

	switch {
	case percentage > highRiskPercentage:
		return RiskHigh
	case percentage > mediumRiskPercentage:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Predict clusters reports and alerts into hotspots. It never fails: faults
// are reported through PredictionResult.Success and Error. Reports without
// coordinates are ignored; neither slice is modified.
func (p *Predictor) Predict(reports []incident.Report, alerts []incident.Alert) (result *PredictionResult) {
	defer func() {
		if r := recover(); r != nil {
			err := stageError(StageUnknown, fmt.Errorf("%v", r))
			log.Printf("[hotspot] Error predicting hotspots: %v", err)
			result = failure(err)
		}
	}()

	result, err := p.predict(reports, alerts)
	if err != nil {
		log.Printf("[hotspot] Error predicting hotspots: %v", err)

		return failure(err)
	}

	return result
}

func failure(err error) *PredictionResult {
	r := emptyResult()
	r.Error = "Failed to predict hotspots: " + err.Error()

	return r
}

func (p *Predictor) predict(reports []incident.Report, alerts []incident.Alert) (*PredictionResult, error) {
	points, err := buildPoints(reports, alerts)
	if err != nil {
		return nil, stageError(StagePoints, err)
	}

	if len(points) == 0 {
		r := emptyResult()
		r.Success = true
		r.Error = NoDataMessage

		return r, nil
	}

	clusters, err := kmeans.Partition(points, ClusterCount(len(points)), p.opts)
	if err != nil {
		return nil, stageError(StageClustering, err)
	}

	hotspots, err := assemble(clusters)
	if err != nil {
		return nil, stageError(StageAssembly, err)
	}

	return &PredictionResult{
		Success:         true,
		Hotspots:        hotspots,
		ClusteredCrimes: tag(reports, clusters),
		TotalClusters:   len(hotspots),
		TotalCrimes:     len(points),
	}, nil
}

func buildPoints(reports []incident.Report, alerts []incident.Alert) ([]kmeans.Point[payload], error) {
	points := make([]kmeans.Point[payload], 0, len(reports)+len(alerts))

	for i := range reports {
		r := &reports[i]

		pt, ok := r.Location.Point()
		if !ok {
			continue
		}

		if err := pt.Validate(); err != nil {
			return nil, fmt.Errorf("report %q: %w", r.ID, err)
		}

		points = append(points, kmeans.Point[payload]{
			Point: pt,
			Payload: payload{
				Title:    r.Title,
				Category: string(r.Category),
				Priority: string(r.Priority),
				Address:  r.Location.Address,
			},
		})
	}

	for i := range alerts {
		a := &alerts[i]

		pt := a.Point()
		if err := pt.Validate(); err != nil {
			return nil, fmt.Errorf("alert %q: %w", a.ID, err)
		}

		address := a.Location.Address
		if address == "" {
			address = alertAddress
		}

		points = append(points, kmeans.Point[payload]{
			Point: pt,
			Payload: payload{
				Title:    alertTitle,
				Category: string(incident.CategoryEmergency),
				Priority: string(incident.PriorityEmergency),
				Address:  address,
			},
		})
	}

	return points, nil
}

func assemble(clusters []kmeans.Cluster[payload]) ([]Hotspot, error) {
	hotspots := make([]Hotspot, 0, len(clusters))

	for i, c := range clusters {
		cell, err := c.Centroid.Cell(CellResolution)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.ID, err)
		}

		crimes := make([]Crime, 0, len(c.Points))
		high := 0
		radius := 0.0

		for _, pt := range c.Points {
			if incident.Priority(pt.Payload.Priority).IsHigh() {
				high++
			}

			radius = max(radius, c.Centroid.HaversineDistance(&pt.Point))

			crimes = append(crimes, Crime{
				Title:     pt.Payload.Title,
				Category:  pt.Payload.Category,
				Priority:  pt.Payload.Priority,
				Latitude:  pt.Lat,
				Longitude: pt.Lng,
			})
		}

		hotspots = append(hotspots, Hotspot{
			ID:           fmt.Sprintf("hotspot_%d", i),
			Latitude:     c.Centroid.Lat,
			Longitude:    c.Centroid.Lng,
			CrimeCount:   len(c.Points),
			RiskLevel:    RiskFor(len(c.Points), high),
			H3Cell:       cell.String(),
			RadiusMeters: radius,
			Crimes:       crimes,
		})
	}

	return hotspots, nil
}

// tag assigns every geolocated report to the first cluster holding a point
// with exactly its coordinates. Points keep the input coordinates untouched,
// so exact comparison is sound.
func tag(reports []incident.Report, clusters []kmeans.Cluster[payload]) []ClusteredCrime {
	tagged := make([]ClusteredCrime, 0, len(reports))

	for _, r := range reports {
		pt, ok := r.Location.Point()
		if !ok {
			continue
		}

		clusterID := Unclustered

		for _, c := range clusters {
			if containsPoint(c.Points, pt) {
				clusterID = c.ID

				break
			}
		}

		if clusterID == Unclustered {
			log.Printf("[hotspot] ⚠️  report %q at %v matched no cluster", r.ID, pt)
		}

		tagged = append(tagged, ClusteredCrime{Report: r, ClusterID: clusterID})
	}

	return tagged
}

func containsPoint(points []kmeans.Point[payload], pt spatial.Point) bool {
	for _, p := range points {
		if p.Lat == pt.Lat && p.Lng == pt.Lng {
			return true
		}
	}

	return false
}

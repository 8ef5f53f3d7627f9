// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package hotspot

import (
	"github.com/jcodagnone/hotspots/incident"
)

// RiskLevel is the qualitative risk of a hotspot.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Color is the display color dashboards use for the level.
func (r RiskLevel) Color() string {
	switch r {
	case RiskHigh:
		return "#dc2626" // red
	case RiskMedium:
		return "#f59e0b" // orange
	case RiskLow:
		return "#10b981" // green
	default:
		return "#6b7280" // gray
	}
}

// Crime is the summary of a clustered incident shown inside a hotspot.
type Crime struct {
	Title     string  `json:"title"`
	Category  string  `json:"category"`
	Priority  string  `json:"priority"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Hotspot is a cluster of incidents with its center and risk.
type Hotspot struct {
	ID         string    `json:"id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CrimeCount int       `json:"crime_count"`
	RiskLevel  RiskLevel `json:"risk_level"`
	// H3Cell is the res 8 cell containing the center.
	H3Cell string `json:"h3_cell,omitempty"`
	// RadiusMeters is the distance from the center to the farthest member.
	RadiusMeters float64 `json:"radius_meters"`
	Crimes       []Crime `json:"crimes"`
}

// ClusteredCrime is a geolocated report tagged with the cluster it fell in.
type ClusteredCrime struct {
	incident.Report
	ClusterID string `json:"cluster_id"`
}

// Unclustered tags reports whose coordinates matched no cluster.
const Unclustered = "unclustered"

// NoDataMessage is reported when nothing can be clustered.
const NoDataMessage = "No crime data with coordinates available for analysis"

// PredictionResult is the outcome of a prediction. Success with no hotspots
// means there was not enough data; it is not an error.
type PredictionResult struct {
	Success         bool             `json:"success"`
	Error           string           `json:"error,omitempty"`
	Hotspots        []Hotspot        `json:"hotspots"`
	ClusteredCrimes []ClusteredCrime `json:"clustered_crimes"`
	TotalClusters   int              `json:"total_clusters"`
	TotalCrimes     int              `json:"total_crimes"`
}

// Summary counts hotspots per risk level.
type Summary struct {
	TotalHotspots   int `json:"total_hotspots"`
	HighRiskAreas   int `json:"high_risk_areas"`
	MediumRiskAreas int `json:"medium_risk_areas"`
	LowRiskAreas    int `json:"low_risk_areas"`
}

// Summary returns the per risk level counts.
func (r *PredictionResult) Summary() Summary {
	s := Summary{TotalHotspots: len(r.Hotspots)}

	for _, h := range r.Hotspots {
		switch h.RiskLevel {
		case RiskHigh:
			s.HighRiskAreas++
		case RiskMedium:
			s.MediumRiskAreas++
		case RiskLow:
			s.LowRiskAreas++
		}
	}

	return s
}

func emptyResult() *PredictionResult {
	return &PredictionResult{
		Hotspots:        []Hotspot{},
		ClusteredCrimes: []ClusteredCrime{},
	}
}

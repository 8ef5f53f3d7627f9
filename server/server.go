// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes hotspot predictions over HTTP for the dashboard.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/hotspots/hotspot"
	"github.com/jcodagnone/hotspots/incident"
	"github.com/jcodagnone/hotspots/utils/textutils"
)

const invalidInputPrefix = "Invalid input: "

// Server serves predictions over an optional incident repository.
type Server struct {
	repo          incident.Repository
	maxIterations int
}

// NewServer creates a server. repo may be nil, in which case only the
// stateless prediction endpoint is useful.
func NewServer(repo incident.Repository, maxIterations int) *Server {
	return &Server{repo: repo, maxIterations: maxIterations}
}

// Handler returns the router with every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.Default()
	s.Register(r)

	return r
}

// Register adds the routes to r.
func (s *Server) Register(r gin.IRoutes) {
	r.GET("/healthz", s.healthz)
	r.POST("/api/predict-hotspots", s.predictHotspots)
	r.GET("/api/hotspots", s.listHotspots)
}

// Run listens on addr until the server fails.
func (s *Server) Run(addr string) error {
	return s.Handler().Run(addr)
}

// predictor is built per request: predictions share no state.
func (s *Server) predictor() *hotspot.Predictor {
	return hotspot.New(hotspot.WithMaxIterations(s.maxIterations))
}

func (s *Server) healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// predictRequest accepts "crimes" as an alias of "reports" for older
// dashboard clients.
type predictRequest struct {
	Reports *[]incident.Report `json:"reports"`
	Crimes  *[]incident.Report `json:"crimes"`
	Alerts  []incident.Alert   `json:"alerts"`
}

func invalidInput(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, hotspot.PredictionResult{
		Error:           invalidInputPrefix + message,
		Hotspots:        []hotspot.Hotspot{},
		ClusteredCrimes: []hotspot.ClusteredCrime{},
	})
}

func (s *Server) predictHotspots(ctx *gin.Context) {
	var req predictRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidInput(ctx, err.Error())

		return
	}

	if req.Reports == nil {
		req.Reports = req.Crimes
	}

	if req.Reports == nil {
		invalidInput(ctx, "reports array required")

		return
	}

	reports := *req.Reports
	for i := range reports {
		reports[i].Normalize()
	}

	for i := range req.Alerts {
		req.Alerts[i].Normalize()
	}

	ctx.JSON(http.StatusOK, s.predictor().Predict(reports, req.Alerts))
}

type hotspotsResponse struct {
	*hotspot.PredictionResult
	Summary hotspot.Summary `json:"summary"`
}

func (s *Server) listHotspots(ctx *gin.Context) {
	if s.repo == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "no incident database configured"})

		return
	}

	reports, err := s.repo.ListReports(incident.ReportFilter{
		Category:       ctx.Query("category"),
		Cell:           ctx.Query("cell"),
		GeolocatedOnly: true,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, incident.ErrInvalidCell) {
			status = http.StatusBadRequest
		}

		ctx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	alerts, err := s.repo.ListAlerts(incident.AlertFilter{
		Status: incident.AlertStatus(textutils.Identifier(ctx.Query("alert_status"))),
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	result := s.predictor().Predict(reports, alerts)

	ctx.JSON(http.StatusOK, hotspotsResponse{PredictionResult: result, Summary: result.Summary()})
}

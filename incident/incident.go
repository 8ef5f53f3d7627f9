// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package incident holds the records filed through the dashboard: citizen
// crime reports and SOS alerts.
package incident

import (
	"time"

	"github.com/jcodagnone/hotspots/spatial"
	"github.com/jcodagnone/hotspots/utils/textutils"
)

// Category classifies a crime report.
type Category string

const (
	CategoryTheft     Category = "theft"
	CategoryAssault   Category = "assault"
	CategoryVandalism Category = "vandalism"
	CategoryFraud     Category = "fraud"
	CategoryDomestic  Category = "domestic"
	CategoryTraffic   Category = "traffic"
	CategoryOther     Category = "other"
	// CategoryEmergency is only used for SOS alerts.
	CategoryEmergency Category = "emergency"
)

// Priority is the urgency the reporter assigned.
type Priority string

const (
	PriorityLow       Priority = "low"
	PriorityMedium    Priority = "medium"
	PriorityHigh      Priority = "high"
	PriorityEmergency Priority = "emergency"
)

// IsHigh reports whether p counts towards a hotspot's risk.
func (p Priority) IsHigh() bool {
	return p == PriorityHigh || p == PriorityEmergency
}

// Status is the case-management state of a report.
type Status string

const (
	StatusPending       Status = "pending"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
	StatusClosed        Status = "closed"
)

// AlertStatus is the dispatch state of an SOS alert.
type AlertStatus string

const (
	AlertActive     AlertStatus = "active"
	AlertResponded  AlertStatus = "responded"
	AlertFalseAlarm AlertStatus = "false_alarm"
)

// Location is where a report happened. Coordinates are optional: citizens may
// only provide a street address.
type Location struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Point returns the coordinates and whether both are present.
func (l Location) Point() (spatial.Point, bool) {
	if l.Latitude == nil || l.Longitude == nil {
		return spatial.Point{}, false
	}

	return spatial.Point{Lat: *l.Latitude, Lng: *l.Longitude}, true
}

// Report is a crime report filed by a citizen.
type Report struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        Category  `json:"category"`
	Priority        Priority  `json:"priority"`
	Status          Status    `json:"status"`
	Location        Location  `json:"location"`
	DateTime        time.Time `json:"date_time"`
	AssignedOfficer string    `json:"assigned_officer,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AlertLocation is the GPS fix attached to an SOS alert.
type AlertLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Alert is an emergency SOS alert. Alerts always carry coordinates.
type Alert struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Location    AlertLocation `json:"location"`
	Timestamp   time.Time     `json:"timestamp"`
	Status      AlertStatus   `json:"status"`
	ResponderID string        `json:"responder_id,omitempty"`
}

// Point returns the alert coordinates.
func (a *Alert) Point() spatial.Point {
	return spatial.Point{Lat: a.Location.Latitude, Lng: a.Location.Longitude}
}

// Normalize folds the enumerated fields so that "High", " HIGH " and "high"
// compare equal.
func (r *Report) Normalize() {
	r.Category = Category(textutils.LowerASCIIFolding(string(r.Category)))
	r.Priority = Priority(textutils.LowerASCIIFolding(string(r.Priority)))
	r.Status = Status(textutils.Identifier(string(r.Status)))
}

// Normalize folds the alert status.
func (a *Alert) Normalize() {
	a.Status = AlertStatus(textutils.Identifier(string(a.Status)))
}

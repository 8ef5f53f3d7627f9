// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package incident

import (
	"errors"
	"fmt"
	"strings"
)

var validCategories = map[Category]bool{
	CategoryTheft:     true,
	CategoryAssault:   true,
	CategoryVandalism: true,
	CategoryFraud:     true,
	CategoryDomestic:  true,
	CategoryTraffic:   true,
	CategoryOther:     true,
}

var validPriorities = map[Priority]bool{
	PriorityLow:       true,
	PriorityMedium:    true,
	PriorityHigh:      true,
	PriorityEmergency: true,
}

var validStatuses = map[Status]bool{
	StatusPending:       true,
	StatusInvestigating: true,
	StatusResolved:      true,
	StatusClosed:        true,
}

var validAlertStatuses = map[AlertStatus]bool{
	AlertActive:     true,
	AlertResponded:  true,
	AlertFalseAlarm: true,
}

// ValidateReport checks that r has a title, known enumerations and, when
// present, usable coordinates. Reports without coordinates are valid.
func ValidateReport(r *Report) error {
	if r == nil {
		return errors.New("report can't be nil")
	}

	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("report %q: title can't be empty", r.ID)
	}

	if !validCategories[r.Category] {
		return fmt.Errorf("report %q: invalid category %q", r.ID, r.Category)
	}

	if !validPriorities[r.Priority] {
		return fmt.Errorf("report %q: invalid priority %q", r.ID, r.Priority)
	}

	if r.Status != "" && !validStatuses[r.Status] {
		return fmt.Errorf("report %q: invalid status %q", r.ID, r.Status)
	}

	if (r.Location.Latitude == nil) != (r.Location.Longitude == nil) {
		return fmt.Errorf("report %q: latitude and longitude must be set together", r.ID)
	}

	if p, ok := r.Location.Point(); ok {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("report %q: %w", r.ID, err)
		}
	}

	return nil
}

// ValidateAlert checks the alert status and coordinates.
func ValidateAlert(a *Alert) error {
	if a == nil {
		return errors.New("alert can't be nil")
	}

	if a.Status != "" && !validAlertStatuses[a.Status] {
		return fmt.Errorf("alert %q: invalid status %q", a.ID, a.Status)
	}

	if err := a.Point().Validate(); err != nil {
		return fmt.Errorf("alert %q: %w", a.ID, err)
	}

	return nil
}

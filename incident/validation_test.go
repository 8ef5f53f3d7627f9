// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package incident

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validReport() *Report {
	return &Report{
		ID:       "1",
		Title:    "Bicycle Theft",
		Category: CategoryTheft,
		Priority: PriorityMedium,
		Status:   StatusInvestigating,
		Location: Location{
			Address:   "123 Main St, Downtown",
			Latitude:  coord(40.7128),
			Longitude: coord(-74.006),
		},
	}
}

func TestValidateReport(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Report)
		wantErr string
	}{
		{name: "valid", mutate: func(_ *Report) {}},
		{name: "no coordinates", mutate: func(r *Report) { r.Location = Location{Address: "456 Oak Ave"} }},
		{name: "no status", mutate: func(r *Report) { r.Status = "" }},
		{name: "empty title", mutate: func(r *Report) { r.Title = "  " }, wantErr: "title can't be empty"},
		{name: "unknown category", mutate: func(r *Report) { r.Category = "arson" }, wantErr: "invalid category"},
		{name: "emergency category", mutate: func(r *Report) { r.Category = CategoryEmergency }, wantErr: "invalid category"},
		{name: "unknown priority", mutate: func(r *Report) { r.Priority = "urgent" }, wantErr: "invalid priority"},
		{name: "unknown status", mutate: func(r *Report) { r.Status = "archived" }, wantErr: "invalid status"},
		{
			name:    "latitude only",
			mutate:  func(r *Report) { r.Location.Longitude = nil },
			wantErr: "must be set together",
		},
		{
			name:    "nan latitude",
			mutate:  func(r *Report) { r.Location.Latitude = coord(math.NaN()) },
			wantErr: "non finite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReport()
			tt.mutate(r)

			err := ValidateReport(r)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}

	assert.Error(t, ValidateReport(nil))
}

func TestValidateAlert(t *testing.T) {
	alert := &Alert{ID: "a1", Location: AlertLocation{Latitude: 40.7, Longitude: -74.0}, Status: AlertActive}
	assert.NoError(t, ValidateAlert(alert))

	alert.Status = "ignored"
	assert.ErrorContains(t, ValidateAlert(alert), "invalid status")

	alert.Status = AlertResponded
	alert.Location.Latitude = 123
	assert.ErrorContains(t, ValidateAlert(alert), "latitude must be between")

	assert.Error(t, ValidateAlert(nil))
}

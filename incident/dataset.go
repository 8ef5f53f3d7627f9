// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package incident

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Dataset is the exchange format used by the seed and import commands.
type Dataset struct {
	Reports []*Report `json:"reports"`
	Alerts  []*Alert  `json:"alerts"`
}

// LoadDataset reads a dataset from a JSON file.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	return ReadDataset(f)
}

// ReadDataset decodes, normalizes and validates a dataset.
func ReadDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}

	ds.Normalize()

	if err := ds.Validate(); err != nil {
		return nil, err
	}

	return &ds, nil
}

// Normalize folds the enumerated fields of every record.
func (ds *Dataset) Normalize() {
	for _, r := range ds.Reports {
		if r != nil {
			r.Normalize()
		}
	}

	for _, a := range ds.Alerts {
		if a != nil {
			a.Normalize()
		}
	}
}

// Validate returns every invalid record, joined.
func (ds *Dataset) Validate() error {
	var errs []error

	for _, r := range ds.Reports {
		if err := ValidateReport(r); err != nil {
			errs = append(errs, err)
		}
	}

	for _, a := range ds.Alerts {
		if err := ValidateAlert(a); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Values returns copies of the records, the shape the predictor consumes.
func (ds *Dataset) Values() ([]Report, []Alert) {
	reports := make([]Report, 0, len(ds.Reports))
	for _, r := range ds.Reports {
		reports = append(reports, *r)
	}

	alerts := make([]Alert, 0, len(ds.Alerts))
	for _, a := range ds.Alerts {
		alerts = append(alerts, *a)
	}

	return reports, alerts
}

// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package hotspot

import (
	"errors"
	"fmt"
)

// Stage identifies the prediction step that failed.
type Stage int

const (
	// StageUnknown is used for recovered panics.
	StageUnknown Stage = iota
	// StagePoints builds clustering input from reports and alerts.
	StagePoints
	// StageClustering runs k-means.
	StageClustering
	// StageAssembly turns clusters into hotspots.
	StageAssembly
)

func (s Stage) String() string {
	switch s {
	case StagePoints:
		return "building points"
	case StageClustering:
		return "clustering"
	case StageAssembly:
		return "assembling hotspots"
	default:
		return "unexpected failure"
	}
}

// PredictionError is a computation fault caught at the predictor boundary.
type PredictionError struct {
	Stage Stage
	Err   error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

// StageOf returns the failing stage of err, StageUnknown if err is not a
// PredictionError.
func StageOf(err error) Stage {
	var pErr *PredictionError
	if errors.As(err, &pErr) {
		return pErr.Stage
	}

	return StageUnknown
}

func stageError(stage Stage, err error) error {
	return &PredictionError{Stage: stage, Err: err}
}

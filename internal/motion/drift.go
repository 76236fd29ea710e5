// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/relabs-tech/motion_tracker/internal/imu"
)

// Metrics summarizes position drift over one completed motion series.
// The known-distance fields are only populated by EvaluateDriftAgainst.
type Metrics struct {
	FinalPosition     imu.Vec3 `json:"final_position"`
	FinalDisplacement float64  `json:"final_displacement"`
	DriftMagnitude    float64  `json:"drift_magnitude"`

	KnownDistance               float64 `json:"known_distance,omitempty"`
	MaxDisplacement             float64 `json:"max_displacement,omitempty"`
	MaxDisplacementError        float64 `json:"max_displacement_error,omitempty"`
	MaxDisplacementErrorPercent float64 `json:"max_displacement_error_percent,omitempty"`
	ReturnError                 float64 `json:"return_error,omitempty"`
}

// EvaluateDrift reads the drift summary off the final state.
func EvaluateDrift(states []MotionState) (Metrics, error) {
	if len(states) == 0 {
		return Metrics{}, fmt.Errorf("%w: no motion states to evaluate", ErrInsufficientData)
	}
	last := states[len(states)-1]
	return Metrics{
		FinalPosition:     last.Position,
		FinalDisplacement: last.Displacement,
		DriftMagnitude:    last.Position.Norm(),
	}, nil
}

// EvaluateDriftAgainst additionally compares the trajectory against a known
// reference distance. The return error assumes a round-trip motion profile
// ending near the origin. A zero known distance makes the percentage error
// undefined and is rejected.
func EvaluateDriftAgainst(states []MotionState, knownDistance float64) (Metrics, error) {
	m, err := EvaluateDrift(states)
	if err != nil {
		return Metrics{}, err
	}
	if knownDistance == 0 {
		return Metrics{}, fmt.Errorf("%w: known distance must be non-zero for percentage error metrics", ErrConfiguration)
	}

	var maxDisp float64
	for _, st := range states {
		if st.Displacement > maxDisp {
			maxDisp = st.Displacement
		}
	}

	m.KnownDistance = knownDistance
	m.MaxDisplacement = maxDisp
	m.MaxDisplacementError = math.Abs(maxDisp - knownDistance)
	m.MaxDisplacementErrorPercent = m.MaxDisplacementError / knownDistance * 100
	m.ReturnError = m.FinalPosition.Norm()
	return m, nil
}

// Improvement quantifies the drift reduction gained by calibration.
type Improvement struct {
	ReturnErrorReduction                 float64 `json:"return_error_reduction"`
	ReturnErrorReductionPercent          float64 `json:"return_error_reduction_percent"`
	MaxDisplacementErrorReduction        float64 `json:"max_displacement_error_reduction"`
	MaxDisplacementErrorReductionPercent float64 `json:"max_displacement_error_reduction_percent"`
}

// Results is the persisted comparison of one run processed twice, with raw
// and with calibrated data.
type Results struct {
	RawDataMetrics        Metrics     `json:"raw_data_metrics"`
	CalibratedDataMetrics Metrics     `json:"calibrated_data_metrics"`
	Improvement           Improvement `json:"improvement"`
}

// NewResults pairs raw and calibrated metrics and computes improvement
// deltas.
func NewResults(raw, cal Metrics) Results {
	imp := Improvement{
		ReturnErrorReduction:          raw.ReturnError - cal.ReturnError,
		MaxDisplacementErrorReduction: raw.MaxDisplacementError - cal.MaxDisplacementError,
	}
	if raw.ReturnError > 0 {
		imp.ReturnErrorReductionPercent = imp.ReturnErrorReduction / raw.ReturnError * 100
	}
	if raw.MaxDisplacementError > 0 {
		imp.MaxDisplacementErrorReductionPercent = imp.MaxDisplacementErrorReduction / raw.MaxDisplacementError * 100
	}
	return Results{
		RawDataMetrics:        raw,
		CalibratedDataMetrics: cal,
		Improvement:           imp,
	}
}

// Save writes the results record as indented JSON.
func (r Results) Save(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/relabs-tech/motion_tracker/internal/imu"
)

// Statistics summarizes acceleration magnitudes before and after
// correction. Calibrated magnitudes near 1 with a small spread indicate a
// good fit.
type Statistics struct {
	RawMagnitudeMean        float64 `json:"raw_magnitude_mean"`
	RawMagnitudeStd         float64 `json:"raw_magnitude_std"`
	CalibratedMagnitudeMean float64 `json:"calibrated_magnitude_mean"`
	CalibratedMagnitudeStd  float64 `json:"calibrated_magnitude_std"`
}

// EllipsoidParams is the persisted form of a fitted ellipsoid.
type EllipsoidParams struct {
	Center         [3]float64    `json:"center"`
	Radii          [3]float64    `json:"radii"`
	RotationMatrix [3][3]float64 `json:"rotation_matrix"`
}

// Params is the calibration file schema. It is computed once from a
// calibration recording and read back by every later positioning run.
type Params struct {
	Bias            [3]float64      `json:"bias"`
	TransformMatrix [3][3]float64   `json:"transform_matrix"`
	Statistics      Statistics      `json:"statistics"`
	EllipsoidParams EllipsoidParams `json:"ellipsoid_params"`
}

// Model rebuilds the applied correction from persisted parameters.
func (p Params) Model() Model {
	return Model{
		Bias:      imu.Vec3FromArray(p.Bias),
		Transform: imu.Mat3(p.TransformMatrix),
	}
}

// Ellipsoid rebuilds the fitted ellipsoid from persisted parameters.
func (p Params) Ellipsoid() Ellipsoid {
	return Ellipsoid{
		Center:   imu.Vec3FromArray(p.EllipsoidParams.Center),
		Radii:    imu.Vec3FromArray(p.EllipsoidParams.Radii),
		Rotation: imu.Mat3(p.EllipsoidParams.RotationMatrix),
	}
}

// Calibrate runs the full offline calibration: ellipsoid fit, model
// derivation and before/after magnitude statistics over the input cloud.
// Input points must be in g-units.
func Calibrate(points []imu.Vec3) (Params, error) {
	e, err := FitEllipsoid(points)
	if err != nil {
		return Params{}, err
	}
	m := FromEllipsoid(e)

	rawMags := make([]float64, len(points))
	calMags := make([]float64, len(points))
	for i, p := range points {
		rawMags[i] = p.Norm()
		calMags[i] = m.Apply(p, imu.UnitG).Norm()
	}
	rawMean, rawStd := meanStd(rawMags)
	calMean, calStd := meanStd(calMags)

	return Params{
		Bias:            m.Bias.Array(),
		TransformMatrix: [3][3]float64(m.Transform),
		Statistics: Statistics{
			RawMagnitudeMean:        rawMean,
			RawMagnitudeStd:         rawStd,
			CalibratedMagnitudeMean: calMean,
			CalibratedMagnitudeStd:  calStd,
		},
		EllipsoidParams: EllipsoidParams{
			Center:         e.Center.Array(),
			Radii:          e.Radii.Array(),
			RotationMatrix: [3][3]float64(e.Rotation),
		},
	}, nil
}

// Save writes the calibration parameters as indented JSON.
func (p Params) Save(path string) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal calibration parameters: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write calibration file: %w", err)
	}
	return nil
}

// LoadParams reads calibration parameters from a JSON file.
func LoadParams(path string) (Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("failed to read calibration file: %w", err)
	}
	var p Params
	if err := json.Unmarshal(b, &p); err != nil {
		return Params{}, fmt.Errorf("failed to parse calibration file %s: %w", path, err)
	}
	return p, nil
}

func meanStd(xs []float64) (mean, sd float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, v := range xs {
		mean += v
	}
	mean /= float64(len(xs))
	var s float64
	for _, v := range xs {
		d := v - mean
		s += d * d
	}
	sd = math.Sqrt(s / float64(len(xs)))
	return mean, sd
}

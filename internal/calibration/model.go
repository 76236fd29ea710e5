// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"github.com/relabs-tech/motion_tracker/internal/imu"
)

// Model is the applied form of an ellipsoid fit:
//
//	corrected = Transform · (raw - Bias)
//
// with Bias the ellipsoid center and Transform = Rotation · diag(1/Radii).
// The model always operates in g-units; Apply converts m/s² inputs around
// the correction. Models are value objects and never mutate.
type Model struct {
	Bias      imu.Vec3
	Transform imu.Mat3
}

// FromEllipsoid derives the correction model from fitted ellipsoid
// parameters.
func FromEllipsoid(e Ellipsoid) Model {
	scaling := imu.Mat3{
		{1 / e.Radii.X, 0, 0},
		{0, 1 / e.Radii.Y, 0},
		{0, 0, 1 / e.Radii.Z},
	}
	return Model{
		Bias:      e.Center,
		Transform: e.Rotation.Mul(scaling),
	}
}

// Apply corrects a single raw acceleration sample. unit names the unit of
// the input; the returned vector is in the same unit.
func (m Model) Apply(a imu.Vec3, unit imu.Unit) imu.Vec3 {
	if unit == imu.UnitMPS2 {
		a = a.Scale(1 / imu.StandardGravity)
	}
	out := m.Transform.MulVec(a.Sub(m.Bias))
	if unit == imu.UnitMPS2 {
		out = out.Scale(imu.StandardGravity)
	}
	return out
}

// ApplySeries corrects every sample of a series, returning a new series.
// Timestamps and gyro values pass through untouched.
func (m Model) ApplySeries(series imu.SampleSeries, unit imu.Unit) imu.SampleSeries {
	out := make(imu.SampleSeries, len(series))
	for i, s := range series {
		s.Acc = m.Apply(s.Acc, unit)
		out[i] = s
	}
	return out
}

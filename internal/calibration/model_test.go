// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/relabs-tech/motion_tracker/internal/imu"
)

func TestModelMapsEllipsoidToUnitSphere(t *testing.T) {
	center := imu.Vec3{X: 0.05, Y: -0.1, Z: 0.02}
	radii := imu.Vec3{X: 1.08, Y: 0.94, Z: 1.01}
	pts := ellipsoidCloud(center, radii)

	e, err := FitEllipsoid(pts)
	if err != nil {
		t.Fatalf("FitEllipsoid: %v", err)
	}
	m := FromEllipsoid(e)

	for _, p := range pts {
		if mag := m.Apply(p, imu.UnitG).Norm(); math.Abs(mag-1) > 1e-6 {
			t.Fatalf("corrected magnitude of %+v = %g, want 1", p, mag)
		}
	}
}

func TestModelUnitConversionSymmetry(t *testing.T) {
	m := Model{
		Bias:      imu.Vec3{X: 0.1, Y: -0.05, Z: 0.02},
		Transform: imu.Mat3{{1.02, 0.01, 0}, {0.01, 0.97, 0}, {0, 0, 1.01}},
	}

	rawG := imu.Vec3{X: 0.3, Y: -0.7, Z: 0.65}
	fromG := m.Apply(rawG, imu.UnitG).Scale(imu.StandardGravity)
	fromMPS2 := m.Apply(rawG.Scale(imu.StandardGravity), imu.UnitMPS2)

	if d := fromG.Sub(fromMPS2).Norm(); d > 1e-12 {
		t.Fatalf("g and m/s² paths disagree by %g: %+v vs %+v", d, fromG, fromMPS2)
	}
}

func TestCalibrateStatisticsAndPersistence(t *testing.T) {
	center := imu.Vec3{X: -0.03, Y: 0.08, Z: 0.01}
	radii := imu.Vec3{X: 1.05, Y: 0.96, Z: 1.02}
	pts := ellipsoidCloud(center, radii)

	params, err := Calibrate(pts)
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}

	st := params.Statistics
	if math.Abs(st.CalibratedMagnitudeMean-1) > 1e-6 {
		t.Errorf("calibrated magnitude mean = %g, want 1", st.CalibratedMagnitudeMean)
	}
	if st.CalibratedMagnitudeStd > 1e-6 {
		t.Errorf("calibrated magnitude std = %g, want ~0", st.CalibratedMagnitudeStd)
	}
	if st.RawMagnitudeStd < st.CalibratedMagnitudeStd {
		t.Errorf("raw std %g should exceed calibrated std %g", st.RawMagnitudeStd, st.CalibratedMagnitudeStd)
	}

	path := filepath.Join(t.TempDir(), "calibration_params.json")
	if err := params.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	if loaded != params {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, params)
	}

	// The persisted model must correct identically to the in-memory one.
	m, lm := params.Model(), loaded.Model()
	for _, p := range pts[:10] {
		a, b := m.Apply(p, imu.UnitG), lm.Apply(p, imu.UnitG)
		if a.Sub(b).Norm() > 0 {
			t.Fatalf("persisted model diverges at %+v", p)
		}
	}
}

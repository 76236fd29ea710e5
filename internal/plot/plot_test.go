// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package plot

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/relabs-tech/motion_tracker/internal/imu"
	"github.com/relabs-tech/motion_tracker/internal/motion"
)

func decodePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("figure not written: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Fatalf("figure is not a valid PNG: %v", err)
	}
}

func TestCalibrationScatter(t *testing.T) {
	raw := []imu.Vec3{{X: 1.1, Y: 0.1, Z: 0}, {X: -0.9, Y: -0.1, Z: 0.2}, {X: 0, Y: 1.05, Z: 0}}
	cal := []imu.Vec3{{X: 1, Y: 0, Z: 0}, {X: -1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}

	path := filepath.Join(t.TempDir(), "scatter.png")
	if err := CalibrationScatter(path, raw, cal); err != nil {
		t.Fatalf("CalibrationScatter: %v", err)
	}
	decodePNG(t, path)
}

func TestDisplacement(t *testing.T) {
	ts := []float64{0, 1, 2, 3}
	raw := []motion.MotionState{{}, {Displacement: 1}, {Displacement: 3}, {Displacement: 2}}
	cal := []motion.MotionState{{}, {Displacement: 0.5}, {Displacement: 2}, {Displacement: 1.9}}

	path := filepath.Join(t.TempDir(), "displacement.png")
	if err := Displacement(path, ts, raw, cal, 2.0); err != nil {
		t.Fatalf("Displacement: %v", err)
	}
	decodePNG(t, path)
}

func TestDisplacementEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "displacement.png")
	if err := Displacement(path, nil, nil, nil, 0); err == nil {
		t.Fatal("expected error for empty series")
	}
}

func TestTrajectory(t *testing.T) {
	raw := []motion.MotionState{
		{Position: imu.Vec3{}},
		{Position: imu.Vec3{X: 1, Y: 0.5}},
		{Position: imu.Vec3{X: 2, Y: -0.5}},
	}

	path := filepath.Join(t.TempDir(), "trajectory.png")
	if err := Trajectory(path, raw, nil); err != nil {
		t.Fatalf("Trajectory: %v", err)
	}
	decodePNG(t, path)
}

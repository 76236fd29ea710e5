// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"testing"

	"github.com/relabs-tech/motion_tracker/internal/calibration"
	"github.com/relabs-tech/motion_tracker/internal/config"
	"github.com/relabs-tech/motion_tracker/internal/imu"
	"github.com/relabs-tech/motion_tracker/internal/motion"
)

// The pipeline order is filter, calibrate, gravity removal, integrate. A
// transient inside the gravity estimation window makes any other order
// produce a different gravity estimate and different states.
func TestProcessFiltersBeforeCalibration(t *testing.T) {
	series := make(imu.SampleSeries, 40)
	for i := range series {
		series[i] = imu.Sample{T: float64(i) * 0.01, Acc: imu.Vec3{Z: 9.81}}
	}
	series[3].Acc.Z += 5
	for i := 15; i < len(series); i++ {
		series[i].Acc.X = 0.4
	}

	model := &calibration.Model{
		Bias:      imu.Vec3{X: 0.02, Y: -0.01, Z: 0.03},
		Transform: imu.Identity3(),
	}
	cfg := &config.Config{
		Units:         imu.UnitMPS2,
		LowPassFilter: true,
		CutoffFreq:    5,
	}

	got, err := process(series, model, cfg)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	filtered, err := motion.LowPass(series, cfg.CutoffFreq)
	if err != nil {
		t.Fatalf("LowPass: %v", err)
	}
	calibrated := model.ApplySeries(filtered, cfg.Units)
	noGravity, _, err := motion.RemoveGravity(calibrated)
	if err != nil {
		t.Fatalf("RemoveGravity: %v", err)
	}
	want, err := motion.Integrate(noGravity, motion.Options{Mode: motion.ModePlain, Unit: cfg.Units})
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d states, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Velocity != want[i].Velocity || got[i].Position != want[i].Position {
			t.Fatalf("state %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

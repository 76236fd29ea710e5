// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"errors"
	"math"
	"testing"

	"github.com/relabs-tech/motion_tracker/internal/imu"
)

func TestIntegrateNeedsTwoSamples(t *testing.T) {
	_, err := Integrate(imu.SampleSeries{{T: 0}}, Options{Unit: imu.UnitMPS2})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestIntegrateZeroAcceleration(t *testing.T) {
	series := constantSeries(10, imu.Vec3{}, 0.1)
	states, err := Integrate(series, Options{Unit: imu.UnitMPS2})
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	for i, st := range states {
		if st.Velocity.Norm() != 0 || st.Position.Norm() != 0 || st.Displacement != 0 {
			t.Fatalf("state %d = %+v, want all zero", i, st)
		}
	}
}

func TestIntegrateTrapezoid(t *testing.T) {
	// Constant 1 m/s² on Y at 1 s steps: v = 0, 1, 2; p = 0, 0.5, 2.
	series := imu.SampleSeries{
		{T: 0, Acc: imu.Vec3{Y: 1}},
		{T: 1, Acc: imu.Vec3{Y: 1}},
		{T: 2, Acc: imu.Vec3{Y: 1}},
	}
	states, err := Integrate(series, Options{Unit: imu.UnitMPS2})
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}

	wantV := []float64{0, 1, 2}
	wantP := []float64{0, 0.5, 2}
	for i := range states {
		if math.Abs(states[i].Velocity.Y-wantV[i]) > 1e-12 {
			t.Errorf("state %d velocity = %g, want %g", i, states[i].Velocity.Y, wantV[i])
		}
		if math.Abs(states[i].Position.Y-wantP[i]) > 1e-12 {
			t.Errorf("state %d position = %g, want %g", i, states[i].Position.Y, wantP[i])
		}
		if math.Abs(states[i].Displacement-wantP[i]) > 1e-12 {
			t.Errorf("state %d displacement = %g, want %g", i, states[i].Displacement, wantP[i])
		}
	}
}

func TestIntegratePulse(t *testing.T) {
	// Acceleration pulse 0, 2, 0 at 1 s steps. The trapezoidal recurrence
	// gives v₁ = ½(0+2) = 1, v₂ = 1 + ½(2+0) = 2; p₁ = ½(0+1) = 0.5,
	// p₂ = 0.5 + ½(1+2) = 2.
	series := imu.SampleSeries{
		{T: 0},
		{T: 1, Acc: imu.Vec3{X: 2}},
		{T: 2},
	}
	states, err := Integrate(series, Options{Unit: imu.UnitMPS2})
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}

	wantV := []float64{0, 1, 2}
	wantP := []float64{0, 0.5, 2}
	for i := range states {
		if math.Abs(states[i].Velocity.X-wantV[i]) > 1e-12 {
			t.Errorf("state %d velocity = %g, want %g", i, states[i].Velocity.X, wantV[i])
		}
		if math.Abs(states[i].Position.X-wantP[i]) > 1e-12 {
			t.Errorf("state %d position = %g, want %g", i, states[i].Position.X, wantP[i])
		}
	}
}

func TestIntegrateMonotoneDisplacement(t *testing.T) {
	// Constant positive acceleration from rest: displacement never shrinks.
	series := constantSeries(50, imu.Vec3{X: 0.2}, 0.1)
	states, err := Integrate(series, Options{Unit: imu.UnitMPS2})
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	for i := 1; i < len(states); i++ {
		if states[i].Displacement < states[i-1].Displacement {
			t.Fatalf("displacement decreased at %d: %g -> %g", i, states[i-1].Displacement, states[i].Displacement)
		}
	}
}

func TestIntegrateGUnits(t *testing.T) {
	series := imu.SampleSeries{
		{T: 0, Acc: imu.Vec3{Z: 1}},
		{T: 1, Acc: imu.Vec3{Z: 1}},
	}
	states, err := Integrate(series, Options{Unit: imu.UnitG})
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if math.Abs(states[1].Velocity.Z-imu.StandardGravity) > 1e-12 {
		t.Fatalf("velocity after 1 s at 1 g = %g, want %g", states[1].Velocity.Z, imu.StandardGravity)
	}
}

func TestIntegrateZUPTClampsVelocity(t *testing.T) {
	// Constant magnitude keeps the rolling variance at zero, so every
	// sample is stationary and velocity must stay clamped.
	series := constantSeries(10, imu.Vec3{X: 1}, 0.1)
	states, err := Integrate(series, Options{
		Mode:          ModeZUPT,
		Unit:          imu.UnitMPS2,
		ZUPTThreshold: 0.01,
		ZUPTWindow:    3,
	})
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	for i, st := range states {
		if !st.Stationary {
			t.Errorf("state %d not stationary", i)
		}
		if st.Velocity.Norm() != 0 {
			t.Errorf("state %d velocity = %+v, want zero under ZUPT", i, st.Velocity)
		}
		if st.Position.Norm() != 0 {
			t.Errorf("state %d position = %+v, want zero under ZUPT", i, st.Position)
		}
	}
}

func TestTrackerNonPositiveStep(t *testing.T) {
	tr := NewTracker(Options{Unit: imu.UnitMPS2})
	tr.Step(imu.Sample{T: 0, Acc: imu.Vec3{X: 1}}, false)
	before := tr.Step(imu.Sample{T: 1, Acc: imu.Vec3{X: 1}}, false)

	// Duplicate timestamp: the step contributes nothing.
	after := tr.Step(imu.Sample{T: 1, Acc: imu.Vec3{X: 5}}, false)
	if after.Velocity != before.Velocity || after.Position != before.Position {
		t.Fatalf("state changed on dt=0: %+v -> %+v", before, after)
	}

	// Time going backwards behaves the same.
	after = tr.Step(imu.Sample{T: 0.5, Acc: imu.Vec3{X: 5}}, false)
	if after.Velocity != before.Velocity || after.Position != before.Position {
		t.Fatalf("state changed on dt<0: %+v -> %+v", before, after)
	}
}

func TestTrackerFirstStateIsOrigin(t *testing.T) {
	tr := NewTracker(Options{Unit: imu.UnitMPS2})
	st := tr.Step(imu.Sample{T: 3.5, Acc: imu.Vec3{X: 9, Y: 9, Z: 9}}, true)
	if st.Velocity.Norm() != 0 || st.Position.Norm() != 0 {
		t.Fatalf("first state = %+v, want zero velocity at origin", st)
	}
	if !st.Stationary {
		t.Error("stationary flag not carried through")
	}
}

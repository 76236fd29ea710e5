// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"fmt"

	"github.com/relabs-tech/motion_tracker/internal/imu"
)

// Mode selects the velocity-correction strategy during integration.
type Mode int

const (
	// ModePlain integrates acceleration without corrections.
	ModePlain Mode = iota
	// ModeZUPT forces velocity to zero on samples detected as stationary,
	// bounding the drift from integrating small persistent bias.
	ModeZUPT
)

// Options are the immutable integration parameters for one run.
type Options struct {
	Mode Mode
	// Unit of the input acceleration; g values are converted to m/s²
	// before integrating.
	Unit imu.Unit
	// ZUPT stationary detection: rolling-variance threshold and window.
	// Only read in ModeZUPT.
	ZUPTThreshold float64
	ZUPTWindow    int
}

// MotionState is the integrated state at one sample: velocity and position
// in metres(/s), displacement ‖position‖, and whether the sample was
// detected as stationary.
type MotionState struct {
	Velocity     imu.Vec3 `json:"velocity"`
	Position     imu.Vec3 `json:"position"`
	Displacement float64  `json:"displacement"`
	Stationary   bool     `json:"stationary"`
}

// Integrate double-integrates the acceleration series with the trapezoidal
// rule, producing one MotionState per sample. State 0 is always zero
// velocity at the origin. A non-positive time step contributes nothing:
// velocity and position carry over unchanged.
func Integrate(series imu.SampleSeries, opts Options) ([]MotionState, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("%w: integration needs at least 2 samples, got %d", ErrInsufficientData, len(series))
	}

	var stationary []bool
	if opts.Mode == ModeZUPT {
		var err error
		stationary, err = DetectStationary(series, opts.ZUPTThreshold, opts.ZUPTWindow)
		if err != nil {
			return nil, err
		}
	}

	tr := NewTracker(opts)
	states := make([]MotionState, len(series))
	for i, s := range series {
		flag := false
		if stationary != nil {
			flag = stationary[i]
		}
		states[i] = tr.Step(s, flag)
	}
	return states, nil
}

// Tracker integrates one sample at a time, for the live producer. The batch
// Integrate runs on top of it.
type Tracker struct {
	opts    Options
	started bool
	prevT   float64
	prevAcc imu.Vec3
	state   MotionState
}

func NewTracker(opts Options) *Tracker {
	return &Tracker{opts: opts}
}

// Step folds in the next sample and returns the updated state. The first
// call establishes the integration boundary condition: zero velocity at
// the origin.
func (tr *Tracker) Step(s imu.Sample, stationary bool) MotionState {
	acc := s.Acc
	if tr.opts.Unit == imu.UnitG {
		acc = acc.Scale(imu.StandardGravity)
	}

	if !tr.started {
		tr.started = true
		tr.prevT = s.T
		tr.prevAcc = acc
		tr.state = MotionState{Stationary: stationary}
		return tr.state
	}

	dt := s.T - tr.prevT
	prevV := tr.state.Velocity

	v := prevV
	if dt > 0 {
		v = prevV.Add(tr.prevAcc.Add(acc).Scale(0.5 * dt))
	}
	if tr.opts.Mode == ModeZUPT && stationary {
		v = imu.Vec3{}
	}

	p := tr.state.Position
	if dt > 0 {
		p = p.Add(prevV.Add(v).Scale(0.5 * dt))
	}

	tr.prevT = s.T
	tr.prevAcc = acc
	tr.state = MotionState{
		Velocity:     v,
		Position:     p,
		Displacement: p.Norm(),
		Stationary:   stationary,
	}
	return tr.state
}

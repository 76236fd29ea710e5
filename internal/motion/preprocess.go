// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motion turns corrected acceleration series into velocity and
// position estimates and drift metrics. Every function is a pure transform
// over an in-memory series; nothing here blocks or retries.
package motion

import (
	"fmt"
	"math"

	"github.com/relabs-tech/motion_tracker/internal/imu"
)

// gravityWindow is the number of leading samples assumed stationary when
// estimating the gravity direction. The device must be at rest for these;
// a moving start silently biases all subsequent integration.
const gravityWindow = 10

// Scale multiplies every acceleration component by factor. Identity when
// factor is 1 (the input series is returned as-is).
func Scale(series imu.SampleSeries, factor float64) imu.SampleSeries {
	if factor == 1 {
		return series
	}
	out := make(imu.SampleSeries, len(series))
	for i, s := range series {
		s.Acc = s.Acc.Scale(factor)
		out[i] = s
	}
	return out
}

// RemoveGravity estimates the gravity vector as the mean acceleration over
// the first 10 samples, and subtracts from every sample the projection of
// its acceleration onto the gravity direction. Returns the new series and
// the estimated gravity vector.
func RemoveGravity(series imu.SampleSeries) (imu.SampleSeries, imu.Vec3, error) {
	if len(series) == 0 {
		return nil, imu.Vec3{}, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}

	n := gravityWindow
	if n > len(series) {
		n = len(series)
	}
	var gravity imu.Vec3
	for _, s := range series[:n] {
		gravity = gravity.Add(s.Acc)
	}
	gravity = gravity.Scale(1 / float64(n))

	mag := gravity.Norm()
	if mag == 0 {
		return nil, imu.Vec3{}, fmt.Errorf("%w: zero acceleration in stationary window, cannot estimate gravity", ErrInsufficientData)
	}
	dir := gravity.Scale(1 / mag)

	out := make(imu.SampleSeries, len(series))
	for i, s := range series {
		s.Acc = s.Acc.Sub(dir.Scale(s.Acc.Dot(dir)))
		out[i] = s
	}
	return out, gravity, nil
}

// DetectStationary marks samples whose rolling acceleration-magnitude
// variance over windowSize samples falls below threshold. The first
// windowSize-1 samples have no full window and default to variance 0.
func DetectStationary(series imu.SampleSeries, threshold float64, windowSize int) ([]bool, error) {
	if windowSize < 1 {
		return nil, fmt.Errorf("%w: stationary window size must be >= 1, got %d", ErrConfiguration, windowSize)
	}
	det := NewStationaryDetector(threshold, windowSize)
	flags := make([]bool, len(series))
	for i, s := range series {
		flags[i] = det.Push(s.Acc.Norm())
	}
	return flags, nil
}

// StationaryDetector is the streaming form of DetectStationary, used by the
// live producer where samples arrive one at a time.
type StationaryDetector struct {
	threshold float64
	window    []float64
	count     int
}

func NewStationaryDetector(threshold float64, windowSize int) *StationaryDetector {
	return &StationaryDetector{
		threshold: threshold,
		window:    make([]float64, windowSize),
	}
}

// Push adds one acceleration magnitude and reports whether the sample is
// considered stationary.
func (d *StationaryDetector) Push(mag float64) bool {
	d.window[d.count%len(d.window)] = mag
	d.count++
	return d.variance() < d.threshold
}

// variance is the sample variance over the current window, 0 until the
// window has filled.
func (d *StationaryDetector) variance() float64 {
	w := len(d.window)
	if d.count < w || w < 2 {
		return 0
	}
	var mean float64
	for _, v := range d.window {
		mean += v
	}
	mean /= float64(w)
	var s float64
	for _, v := range d.window {
		diff := v - mean
		s += diff * diff
	}
	return s / float64(w-1)
}

// filtfiltPadLen is the odd-extension padding applied on each side before
// zero-phase filtering, three taps per filter coefficient.
const filtfiltPadLen = 9

// LowPass applies a 2nd-order Butterworth low-pass filter at cutoffHz to
// each acceleration axis, zero-phase (forward then backward). The sampling
// frequency is estimated from the mean inter-sample interval.
func LowPass(series imu.SampleSeries, cutoffHz float64) (imu.SampleSeries, error) {
	if len(series) <= filtfiltPadLen {
		return nil, fmt.Errorf("%w: need more than %d samples for zero-phase filtering, got %d",
			ErrInsufficientData, filtfiltPadLen, len(series))
	}

	dur := series.Duration()
	if dur <= 0 {
		return nil, fmt.Errorf("%w: series spans no time, cannot estimate sampling frequency", ErrInsufficientData)
	}
	fs := float64(len(series)-1) / dur

	nyquist := fs / 2
	if cutoffHz <= 0 || cutoffHz >= nyquist {
		return nil, fmt.Errorf("%w: cutoff %g Hz outside (0, %g) for fs=%g Hz", ErrConfiguration, cutoffHz, nyquist, fs)
	}

	coef := butter2(cutoffHz, fs)

	axes := [3][]float64{
		make([]float64, len(series)),
		make([]float64, len(series)),
		make([]float64, len(series)),
	}
	for i, s := range series {
		axes[0][i] = s.Acc.X
		axes[1][i] = s.Acc.Y
		axes[2][i] = s.Acc.Z
	}

	out := make(imu.SampleSeries, len(series))
	copy(out, series)
	for a, xs := range axes {
		ys := coef.filtfilt(xs)
		for i := range out {
			switch a {
			case 0:
				out[i].Acc.X = ys[i]
			case 1:
				out[i].Acc.Y = ys[i]
			case 2:
				out[i].Acc.Z = ys[i]
			}
		}
	}
	return out, nil
}

// biquad holds normalized 2nd-order IIR coefficients (a0 = 1).
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// butter2 designs a 2nd-order Butterworth low-pass via the bilinear
// transform with frequency prewarping.
func butter2(cutoffHz, fs float64) biquad {
	k := math.Tan(math.Pi * cutoffHz / fs)
	norm := 1 / (1 + math.Sqrt2*k + k*k)
	return biquad{
		b0: k * k * norm,
		b1: 2 * k * k * norm,
		b2: k * k * norm,
		a1: 2 * (k*k - 1) * norm,
		a2: (1 - math.Sqrt2*k + k*k) * norm,
	}
}

// filter runs the biquad in direct form II transposed, with the initial
// state set to the step-response steady state for x[0] so a constant input
// passes through unchanged.
func (c biquad) filter(xs []float64) []float64 {
	// Steady-state conditions for unit input; DC gain of the low-pass is 1.
	z2 := (c.b2 - c.a2) * xs[0]
	z1 := (c.b1-c.a1)*xs[0] + z2

	ys := make([]float64, len(xs))
	for i, x := range xs {
		y := c.b0*x + z1
		z1 = c.b1*x - c.a1*y + z2
		z2 = c.b2*x - c.a2*y
		ys[i] = y
	}
	return ys
}

// filtfilt filters forward and backward for zero phase distortion, with
// odd-extension padding at both ends to suppress edge transients.
func (c biquad) filtfilt(xs []float64) []float64 {
	n := len(xs)
	ext := make([]float64, 0, n+2*filtfiltPadLen)
	for i := filtfiltPadLen; i >= 1; i-- {
		ext = append(ext, 2*xs[0]-xs[i])
	}
	ext = append(ext, xs...)
	for i := n - 2; i >= n-1-filtfiltPadLen; i-- {
		ext = append(ext, 2*xs[n-1]-xs[i])
	}

	ys := c.filter(ext)
	reverse(ys)
	ys = c.filter(ys)
	reverse(ys)
	return ys[filtfiltPadLen : filtfiltPadLen+n]
}

func reverse(xs []float64) {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
}

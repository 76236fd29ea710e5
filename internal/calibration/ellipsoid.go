// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration estimates and applies accelerometer calibration.
//
// A perfect accelerometer rotated through all orientations while at rest
// traces the unit sphere in g-units. Bias, per-axis scale errors and axis
// cross-coupling distort that sphere into an off-center ellipsoid. Fitting
// the ellipsoid recovers the distortion; inverting it maps raw readings
// back onto the unit sphere.
package calibration

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/motion_tracker/internal/imu"
)

// ErrDegenerateInput marks calibration input that cannot support an
// ellipsoid fit: too few points, coplanar/collinear clouds, or a quadric
// whose eigenvalues are not all positive.
var ErrDegenerateInput = errors.New("degenerate calibration input")

// minFitPoints is the number of unknown quadric coefficients; fewer points
// leave the least-squares system under-determined.
const minFitPoints = 9

// Ellipsoid describes the fitted quadric: center offset, semi-axis radii
// and the orientation of the principal axes (eigenvectors as columns).
type Ellipsoid struct {
	Center   imu.Vec3
	Radii    imu.Vec3
	Rotation imu.Mat3
}

// FitEllipsoid fits a general quadric surface
//
//	a·x² + b·y² + c·z² + 2d·xy + 2e·xz + 2f·yz + 2g·x + 2h·y + 2i·z = 1
//
// to the point cloud by linear least squares and decomposes it into center,
// radii and rotation. Points must span multiple orientations; flat or
// sparse clouds return ErrDegenerateInput.
func FitEllipsoid(points []imu.Vec3) (Ellipsoid, error) {
	if len(points) < minFitPoints {
		return Ellipsoid{}, fmt.Errorf("%w: need at least %d points, got %d",
			ErrDegenerateInput, minFitPoints, len(points))
	}

	// Design matrix for the 9 quadric coefficients, right-hand side all ones.
	n := len(points)
	d := mat.NewDense(n, 9, nil)
	ones := mat.NewVecDense(n, nil)
	for i, p := range points {
		d.SetRow(i, []float64{
			p.X * p.X, p.Y * p.Y, p.Z * p.Z,
			2 * p.X * p.Y, 2 * p.X * p.Z, 2 * p.Y * p.Z,
			2 * p.X, 2 * p.Y, 2 * p.Z,
		})
		ones.SetVec(i, 1)
	}

	var u mat.VecDense
	if err := u.SolveVec(d, ones); err != nil {
		return Ellipsoid{}, fmt.Errorf("%w: least-squares system is singular: %v", ErrDegenerateInput, err)
	}

	// Homogeneous 4x4 quadric matrix assembled from the coefficients.
	a := mat.NewDense(4, 4, []float64{
		u.AtVec(0), u.AtVec(3), u.AtVec(4), u.AtVec(6),
		u.AtVec(3), u.AtVec(1), u.AtVec(5), u.AtVec(7),
		u.AtVec(4), u.AtVec(5), u.AtVec(2), u.AtVec(8),
		u.AtVec(6), u.AtVec(7), u.AtVec(8), -1,
	})

	// Center: A[:3,:3]·c = -A[:3,3].
	a3 := a.Slice(0, 3, 0, 3)
	rhs := mat.NewVecDense(3, []float64{-a.At(0, 3), -a.At(1, 3), -a.At(2, 3)})
	var center mat.VecDense
	if err := center.SolveVec(a3, rhs); err != nil {
		return Ellipsoid{}, fmt.Errorf("%w: center system is singular: %v", ErrDegenerateInput, err)
	}

	// Translate the quadric to the origin: R = Tᵀ·A·T with T carrying the
	// center in its last column, cancelling the linear term.
	t := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		t.Set(i, i, 1)
	}
	for i := 0; i < 3; i++ {
		t.Set(i, 3, center.AtVec(i))
	}
	var ta, r mat.Dense
	ta.Mul(t.T(), a)
	r.Mul(&ta, t)

	norm := -r.At(3, 3)
	if norm == 0 || math.IsNaN(norm) {
		return Ellipsoid{}, fmt.Errorf("%w: quadric normalization term is zero", ErrDegenerateInput)
	}

	// The centered quadratic form is symmetric up to round-off; symmetrize
	// before the eigendecomposition.
	sym := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			sym.SetSym(i, j, (r.At(i, j)+r.At(j, i))/(2*norm))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return Ellipsoid{}, fmt.Errorf("%w: eigendecomposition failed", ErrDegenerateInput)
	}

	vals := eig.Values(nil)
	for _, v := range vals {
		if v <= 0 || math.IsNaN(v) {
			return Ellipsoid{}, fmt.Errorf("%w: non-positive quadric eigenvalue %g", ErrDegenerateInput, v)
		}
	}

	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// EigenSym orders eigenvalues ascending. Reorder the pairs so each
	// eigenvector's dominant component sits on the diagonal with positive
	// sign, keeping the rotation close to identity for the near-axis-aligned
	// ellipsoids real accelerometers produce. The correction formula divides
	// by the radii in axis order and needs this alignment.
	perm := dominantPermutation(&vecs)

	var e Ellipsoid
	e.Center = imu.Vec3{X: center.AtVec(0), Y: center.AtVec(1), Z: center.AtVec(2)}
	radii := [3]float64{}
	for axis := 0; axis < 3; axis++ {
		col := perm[axis]
		radii[axis] = 1 / math.Sqrt(vals[col])
		sign := 1.0
		if vecs.At(axis, col) < 0 {
			sign = -1
		}
		for i := 0; i < 3; i++ {
			e.Rotation[i][axis] = sign * vecs.At(i, col)
		}
	}
	e.Radii = imu.Vec3FromArray(radii)
	return e, nil
}

// dominantPermutation assigns each axis the eigenvector column with the
// largest component on that axis, trying all six column orders.
func dominantPermutation(vecs *mat.Dense) [3]int {
	best := [3]int{0, 1, 2}
	bestScore := -1.0
	for _, p := range [][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	} {
		score := math.Abs(vecs.At(0, p[0])) + math.Abs(vecs.At(1, p[1])) + math.Abs(vecs.At(2, p[2]))
		if score > bestScore {
			bestScore = score
			best = p
		}
	}
	return best
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package plot renders diagnostic PNG figures for calibration and position
// runs: calibration scatter projections, displacement over time, and a
// top-down trajectory view.
package plot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/motion_tracker/internal/imu"
	"github.com/relabs-tech/motion_tracker/internal/motion"
)

var (
	colWhite = color.RGBA{255, 255, 255, 255}
	colBlack = color.RGBA{0, 0, 0, 255}
	colGrid  = color.RGBA{210, 210, 210, 255}
	colRaw   = color.RGBA{60, 90, 200, 255}
	colCal   = color.RGBA{200, 60, 60, 255}
	colRef   = color.RGBA{60, 160, 60, 255}
)

type canvas struct {
	img *image.RGBA
}

func newCanvas(w, h int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return &canvas{img: img}
}

func (c *canvas) set(x, y int, col color.RGBA) {
	if image.Pt(x, y).In(c.img.Bounds()) {
		c.img.SetRGBA(x, y, col)
	}
}

// dot draws a 3x3 marker.
func (c *canvas) dot(x, y int, col color.RGBA) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c.set(x+dx, y+dy, col)
		}
	}
}

// line draws with the Bresenham algorithm.
func (c *canvas) line(x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *canvas) text(x, y int, s string, col color.RGBA) {
	drawer := &font.Drawer{
		Dst:  c.img,
		Src:  &image.Uniform{col},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(s)
}

func (c *canvas) save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create figure file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, c.img); err != nil {
		return fmt.Errorf("failed to encode figure: %w", err)
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// panel maps data coordinates onto a square pixel region.
type panel struct {
	x0, y0, size int
	xMin, xMax   float64
	yMin, yMax   float64
}

func (p panel) px(x float64) int {
	return p.x0 + int(float64(p.size)*(x-p.xMin)/(p.xMax-p.xMin))
}

func (p panel) py(y float64) int {
	// pixel y grows downward
	return p.y0 + p.size - int(float64(p.size)*(y-p.yMin)/(p.yMax-p.yMin))
}

const (
	panelSize   = 300
	panelMargin = 40
)

// CalibrationScatter renders raw and corrected acceleration points projected
// onto the XY, XZ, and YZ planes, with the unit circle as the target locus
// for stationary samples in g.
func CalibrationScatter(path string, raw, cal []imu.Vec3) error {
	planes := []struct {
		label  string
		coords func(v imu.Vec3) (float64, float64)
	}{
		{"XY", func(v imu.Vec3) (float64, float64) { return v.X, v.Y }},
		{"XZ", func(v imu.Vec3) (float64, float64) { return v.X, v.Z }},
		{"YZ", func(v imu.Vec3) (float64, float64) { return v.Y, v.Z }},
	}

	// Symmetric range covering all points and the unit circle.
	lim := 1.0
	for _, v := range append(append([]imu.Vec3{}, raw...), cal...) {
		for _, f := range []float64{v.X, v.Y, v.Z} {
			if a := math.Abs(f); a > lim {
				lim = a
			}
		}
	}
	lim *= 1.1

	w := 3*panelSize + 4*panelMargin
	h := panelSize + 2*panelMargin + 20
	c := newCanvas(w, h)

	for i, pl := range planes {
		p := panel{
			x0:   panelMargin + i*(panelSize+panelMargin),
			y0:   panelMargin,
			size: panelSize,
			xMin: -lim, xMax: lim,
			yMin: -lim, yMax: lim,
		}

		// frame and zero axes
		c.line(p.x0, p.y0, p.x0+p.size, p.y0, colBlack)
		c.line(p.x0, p.y0+p.size, p.x0+p.size, p.y0+p.size, colBlack)
		c.line(p.x0, p.y0, p.x0, p.y0+p.size, colBlack)
		c.line(p.x0+p.size, p.y0, p.x0+p.size, p.y0+p.size, colBlack)
		c.line(p.px(-lim), p.py(0), p.px(lim), p.py(0), colGrid)
		c.line(p.px(0), p.py(-lim), p.px(0), p.py(lim), colGrid)

		// unit circle
		const steps = 180
		for s := 0; s < steps; s++ {
			a0 := 2 * math.Pi * float64(s) / steps
			a1 := 2 * math.Pi * float64(s+1) / steps
			c.line(p.px(math.Cos(a0)), p.py(math.Sin(a0)),
				p.px(math.Cos(a1)), p.py(math.Sin(a1)), colRef)
		}

		for _, v := range raw {
			x, y := pl.coords(v)
			c.dot(p.px(x), p.py(y), colRaw)
		}
		for _, v := range cal {
			x, y := pl.coords(v)
			c.dot(p.px(x), p.py(y), colCal)
		}

		c.text(p.x0+p.size/2-8, p.y0-10, pl.label, colBlack)
	}

	c.text(panelMargin, h-12, "raw", colRaw)
	c.text(panelMargin+60, h-12, "calibrated", colCal)
	c.text(panelMargin+160, h-12, "unit sphere", colRef)

	return c.save(path)
}

// Displacement renders displacement magnitude over time for the raw and
// calibrated runs. A non-zero knownDistance is drawn as a horizontal
// reference line.
func Displacement(path string, t []float64, raw, cal []motion.MotionState, knownDistance float64) error {
	if len(t) == 0 {
		return fmt.Errorf("displacement plot: no samples")
	}

	yMax := knownDistance
	for _, st := range raw {
		if st.Displacement > yMax {
			yMax = st.Displacement
		}
	}
	for _, st := range cal {
		if st.Displacement > yMax {
			yMax = st.Displacement
		}
	}
	if yMax == 0 {
		yMax = 1
	}
	yMax *= 1.1

	p := panel{
		x0: panelMargin, y0: panelMargin, size: panelSize,
		xMin: t[0], xMax: t[len(t)-1],
		yMin: 0, yMax: yMax,
	}
	if p.xMax <= p.xMin {
		p.xMax = p.xMin + 1
	}

	w := panelSize + 2*panelMargin
	h := panelSize + 2*panelMargin + 20
	c := newCanvas(w, h)

	c.line(p.x0, p.y0, p.x0, p.y0+p.size, colBlack)
	c.line(p.x0, p.y0+p.size, p.x0+p.size, p.y0+p.size, colBlack)

	if knownDistance > 0 {
		c.line(p.px(p.xMin), p.py(knownDistance), p.px(p.xMax), p.py(knownDistance), colRef)
		c.text(p.x0+4, p.py(knownDistance)-4, fmt.Sprintf("known %.2f m", knownDistance), colRef)
	}

	plotSeries := func(states []motion.MotionState, col color.RGBA) {
		n := len(states)
		if n > len(t) {
			n = len(t)
		}
		for i := 1; i < n; i++ {
			c.line(p.px(t[i-1]), p.py(states[i-1].Displacement),
				p.px(t[i]), p.py(states[i].Displacement), col)
		}
	}
	plotSeries(raw, colRaw)
	plotSeries(cal, colCal)

	c.text(p.x0+p.size/2-50, p.y0-10, "displacement [m]", colBlack)
	c.text(panelMargin, h-12, "raw", colRaw)
	c.text(panelMargin+60, h-12, "calibrated", colCal)

	return c.save(path)
}

// Trajectory renders a top-down (XY plane) view of both position tracks,
// with the origin marked.
func Trajectory(path string, raw, cal []motion.MotionState) error {
	lim := 0.1
	for _, st := range append(append([]motion.MotionState{}, raw...), cal...) {
		if a := math.Abs(st.Position.X); a > lim {
			lim = a
		}
		if a := math.Abs(st.Position.Y); a > lim {
			lim = a
		}
	}
	lim *= 1.1

	p := panel{
		x0: panelMargin, y0: panelMargin, size: panelSize,
		xMin: -lim, xMax: lim,
		yMin: -lim, yMax: lim,
	}

	w := panelSize + 2*panelMargin
	h := panelSize + 2*panelMargin + 20
	c := newCanvas(w, h)

	c.line(p.px(-lim), p.py(0), p.px(lim), p.py(0), colGrid)
	c.line(p.px(0), p.py(-lim), p.px(0), p.py(lim), colGrid)

	plotTrack := func(states []motion.MotionState, col color.RGBA) {
		for i := 1; i < len(states); i++ {
			c.line(p.px(states[i-1].Position.X), p.py(states[i-1].Position.Y),
				p.px(states[i].Position.X), p.py(states[i].Position.Y), col)
		}
	}
	plotTrack(raw, colRaw)
	plotTrack(cal, colCal)

	c.dot(p.px(0), p.py(0), colBlack)
	c.text(p.px(0)+6, p.py(0)-4, "origin", colBlack)

	c.text(p.x0+p.size/2-60, p.y0-10, "trajectory, top view", colBlack)
	c.text(panelMargin, h-12, "raw", colRaw)
	c.text(panelMargin+60, h-12, "calibrated", colCal)

	return c.save(path)
}

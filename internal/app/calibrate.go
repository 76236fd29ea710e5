// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"
	"os"
	"path/filepath"

	"github.com/relabs-tech/motion_tracker/internal/calibration"
	"github.com/relabs-tech/motion_tracker/internal/config"
	"github.com/relabs-tech/motion_tracker/internal/imu"
	"github.com/relabs-tech/motion_tracker/internal/motion"
	"github.com/relabs-tech/motion_tracker/internal/plot"
)

// RunCalibrate fits an ellipsoid to a slow-rotation recording and writes the
// calibration parameter file. The recording must cover many orientations of
// the stationary device so gravity traces out the ellipsoid surface.
func RunCalibrate(dataPath string) error {
	cfg := config.Get()

	series, err := imu.ReadSeriesCSV(dataPath)
	if err != nil {
		return err
	}
	log.Printf("calibrate: loaded %d samples (%.1f s) from %s", len(series), series.Duration(), dataPath)

	series = motion.Scale(series, cfg.ScaleFactor)

	// The fit operates in g so the target locus is the unit sphere.
	points := series.AccPoints()
	if cfg.Units == imu.UnitMPS2 {
		for i := range points {
			points[i] = points[i].Scale(1 / imu.StandardGravity)
		}
	}

	params, err := calibration.Calibrate(points)
	if err != nil {
		return err
	}

	st := params.Statistics
	log.Printf("calibrate: raw magnitude        %.4f ± %.4f g", st.RawMagnitudeMean, st.RawMagnitudeStd)
	log.Printf("calibrate: calibrated magnitude %.4f ± %.4f g", st.CalibratedMagnitudeMean, st.CalibratedMagnitudeStd)
	log.Printf("calibrate: bias [%.4f %.4f %.4f], radii [%.4f %.4f %.4f]",
		params.Bias[0], params.Bias[1], params.Bias[2],
		params.EllipsoidParams.Radii[0], params.EllipsoidParams.Radii[1], params.EllipsoidParams.Radii[2])

	if err := params.Save(cfg.CalibrationFile); err != nil {
		return err
	}
	log.Printf("calibrate: saved parameters to %s", cfg.CalibrationFile)

	// Diagnostic scatter of the point cloud before and after correction.
	if err := os.MkdirAll(cfg.FigureDir, 0o755); err != nil {
		return err
	}
	model := params.Model()
	corrected := make([]imu.Vec3, len(points))
	for i, p := range points {
		corrected[i] = model.Apply(p, imu.UnitG)
	}
	figPath := filepath.Join(cfg.FigureDir, "calibration_scatter.png")
	if err := plot.CalibrationScatter(figPath, points, corrected); err != nil {
		return err
	}
	log.Printf("calibrate: saved figure to %s", figPath)

	return nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/relabs-tech/motion_tracker/internal/calibration"
	"github.com/relabs-tech/motion_tracker/internal/config"
	"github.com/relabs-tech/motion_tracker/internal/gps"
	"github.com/relabs-tech/motion_tracker/internal/imu"
	"github.com/relabs-tech/motion_tracker/internal/motion"
	"github.com/relabs-tech/motion_tracker/internal/plot"
)

const resultsFile = "position_results.json"

// RunPosition processes one motion recording twice, once raw and once with
// the calibration model applied, and reports drift metrics for both. An
// optional NMEA log overrides the configured known distance with a GPS
// reference track.
func RunPosition(dataPath, nmeaPath string) error {
	cfg := config.Get()

	series, err := imu.ReadSeriesCSV(dataPath)
	if err != nil {
		return err
	}
	log.Printf("position: loaded %d samples (%.1f s) from %s", len(series), series.Duration(), dataPath)

	series = motion.Scale(series, cfg.ScaleFactor)

	knownDistance := cfg.KnownDistance
	if nmeaPath != "" {
		f, err := os.Open(nmeaPath)
		if err != nil {
			return fmt.Errorf("failed to open NMEA log: %w", err)
		}
		track, err := gps.ReadTrack(f)
		f.Close()
		if err != nil {
			return err
		}
		knownDistance = gps.TrackDistance(track)
		log.Printf("position: GPS reference track with %d fixes, distance %.2f m", len(track), knownDistance)
	}

	var model *calibration.Model
	params, err := calibration.LoadParams(cfg.CalibrationFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		log.Printf("position: WARNING: calibration file %s not found, processing raw data only", cfg.CalibrationFile)
	} else {
		m := params.Model()
		model = &m
	}

	rawStates, err := process(series, nil, cfg)
	if err != nil {
		return err
	}
	rawMetrics, err := evaluate(rawStates, knownDistance)
	if err != nil {
		return err
	}
	logMetrics("raw", rawMetrics)

	times := make([]float64, len(series))
	for i, s := range series {
		times[i] = s.T - series[0].T
	}

	if err := os.MkdirAll(cfg.FigureDir, 0o755); err != nil {
		return err
	}

	if model == nil {
		if err := plot.Displacement(filepath.Join(cfg.FigureDir, "displacement.png"), times, rawStates, nil, knownDistance); err != nil {
			return err
		}
		if err := plot.Trajectory(filepath.Join(cfg.FigureDir, "trajectory.png"), rawStates, nil); err != nil {
			return err
		}
		return saveJSON(resultsFile, rawMetrics)
	}

	calStates, err := process(series, model, cfg)
	if err != nil {
		return err
	}
	calMetrics, err := evaluate(calStates, knownDistance)
	if err != nil {
		return err
	}
	logMetrics("calibrated", calMetrics)

	results := motion.NewResults(rawMetrics, calMetrics)
	log.Printf("position: return error reduction %.4f m (%.1f%%)",
		results.Improvement.ReturnErrorReduction, results.Improvement.ReturnErrorReductionPercent)

	if err := plot.Displacement(filepath.Join(cfg.FigureDir, "displacement.png"), times, rawStates, calStates, knownDistance); err != nil {
		return err
	}
	if err := plot.Trajectory(filepath.Join(cfg.FigureDir, "trajectory.png"), rawStates, calStates); err != nil {
		return err
	}
	log.Printf("position: saved figures to %s", cfg.FigureDir)

	if err := results.Save(resultsFile); err != nil {
		return err
	}
	log.Printf("position: saved results to %s", resultsFile)
	return nil
}

// process runs the preprocessing and integration pipeline over one series:
// low-pass filter, calibration, gravity removal, integration. Filtering
// comes first so the gravity estimate sees smoothed samples. A nil model
// skips calibration.
func process(series imu.SampleSeries, model *calibration.Model, cfg *config.Config) ([]motion.MotionState, error) {
	if cfg.LowPassFilter {
		var err error
		series, err = motion.LowPass(series, cfg.CutoffFreq)
		if err != nil {
			return nil, err
		}
	}

	if model != nil {
		series = model.ApplySeries(series, cfg.Units)
	}

	series, gravity, err := motion.RemoveGravity(series)
	if err != nil {
		return nil, err
	}
	log.Printf("position: estimated gravity [%.4f %.4f %.4f], |g|=%.4f",
		gravity.X, gravity.Y, gravity.Z, gravity.Norm())

	opts := motion.Options{
		Mode:          motion.ModePlain,
		Unit:          cfg.Units,
		ZUPTThreshold: cfg.ZUPTThreshold,
		ZUPTWindow:    cfg.ZUPTWindow,
	}
	if cfg.ApplyZUPT {
		opts.Mode = motion.ModeZUPT
	}
	return motion.Integrate(series, opts)
}

func evaluate(states []motion.MotionState, knownDistance float64) (motion.Metrics, error) {
	if knownDistance > 0 {
		return motion.EvaluateDriftAgainst(states, knownDistance)
	}
	return motion.EvaluateDrift(states)
}

func saveJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

func logMetrics(label string, m motion.Metrics) {
	log.Printf("position: %s final position [%.4f %.4f %.4f], displacement %.4f m, drift %.4f m",
		label, m.FinalPosition.X, m.FinalPosition.Y, m.FinalPosition.Z, m.FinalDisplacement, m.DriftMagnitude)
	if m.KnownDistance > 0 {
		log.Printf("position: %s max displacement %.4f m vs known %.2f m (error %.1f%%), return error %.4f m",
			label, m.MaxDisplacement, m.KnownDistance, m.MaxDisplacementErrorPercent, m.ReturnError)
	}
}

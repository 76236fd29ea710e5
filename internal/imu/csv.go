// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSV column names for recorded accelerometer data. The gyro columns are
// optional; the pipeline ignores them either way.
var (
	csvColumns     = []string{"seconds_elapsed", "x_acc", "y_acc", "z_acc"}
	csvGyroColumns = []string{"x_gyro", "y_gyro", "z_gyro"}
)

// ReadSeriesCSV reads a sample series from a CSV file with a
// seconds_elapsed,x_acc,y_acc,z_acc[,x_gyro,y_gyro,z_gyro] header.
func ReadSeriesCSV(path string) (SampleSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()
	series, err := ReadSeries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}

// ReadSeries decodes a sample series from CSV data. Columns are located by
// header name so extra columns and reordered files are accepted.
func ReadSeries(r io.Reader) (SampleSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range csvColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing required CSV column %q", name)
		}
	}
	_, hasGyro := idx[csvGyroColumns[0]]

	var series SampleSeries
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		line++

		field := func(name string) (float64, error) {
			v, err := strconv.ParseFloat(rec[idx[name]], 64)
			if err != nil {
				return 0, fmt.Errorf("line %d: invalid %s value %q: %w", line, name, rec[idx[name]], err)
			}
			return v, nil
		}

		var s Sample
		if s.T, err = field("seconds_elapsed"); err != nil {
			return nil, err
		}
		if s.Acc.X, err = field("x_acc"); err != nil {
			return nil, err
		}
		if s.Acc.Y, err = field("y_acc"); err != nil {
			return nil, err
		}
		if s.Acc.Z, err = field("z_acc"); err != nil {
			return nil, err
		}
		if hasGyro {
			if s.Gyro.X, err = field("x_gyro"); err != nil {
				return nil, err
			}
			if s.Gyro.Y, err = field("y_gyro"); err != nil {
				return nil, err
			}
			if s.Gyro.Z, err = field("z_gyro"); err != nil {
				return nil, err
			}
		}
		series = append(series, s)
	}
	return series, nil
}

// WriteSeriesCSV writes a sample series to path, gyro columns included when
// withGyro is set.
func WriteSeriesCSV(path string, series SampleSeries, withGyro bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create data file: %w", err)
	}
	defer f.Close()

	w := NewSeriesWriter(f, withGyro)
	for _, s := range series {
		if err := w.Write(s); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return w.Flush()
}

// SeriesWriter writes samples to CSV incrementally, for the recorder which
// streams rows as they arrive from the serial port.
type SeriesWriter struct {
	cw       *csv.Writer
	withGyro bool
	wrote    bool
}

func NewSeriesWriter(w io.Writer, withGyro bool) *SeriesWriter {
	return &SeriesWriter{cw: csv.NewWriter(w), withGyro: withGyro}
}

func (w *SeriesWriter) Write(s Sample) error {
	if !w.wrote {
		header := csvColumns
		if w.withGyro {
			header = append(append([]string{}, csvColumns...), csvGyroColumns...)
		}
		if err := w.cw.Write(header); err != nil {
			return err
		}
		w.wrote = true
	}

	rec := []string{
		strconv.FormatFloat(s.T, 'f', 6, 64),
		strconv.FormatFloat(s.Acc.X, 'f', 6, 64),
		strconv.FormatFloat(s.Acc.Y, 'f', 6, 64),
		strconv.FormatFloat(s.Acc.Z, 'f', 6, 64),
	}
	if w.withGyro {
		rec = append(rec,
			strconv.FormatFloat(s.Gyro.X, 'f', 6, 64),
			strconv.FormatFloat(s.Gyro.Y, 'f', 6, 64),
			strconv.FormatFloat(s.Gyro.Z, 'f', 6, 64),
		)
	}
	return w.cw.Write(rec)
}

func (w *SeriesWriter) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

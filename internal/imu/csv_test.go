// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func sampleFixture() SampleSeries {
	return SampleSeries{
		{T: 0, Acc: Vec3{X: 0.01, Y: -0.02, Z: 0.98}, Gyro: Vec3{X: 1, Y: 2, Z: 3}},
		{T: 0.01, Acc: Vec3{X: 0.02, Y: -0.01, Z: 0.99}, Gyro: Vec3{X: 4, Y: 5, Z: 6}},
		{T: 0.02, Acc: Vec3{X: 0.015, Y: 0, Z: 1.0}, Gyro: Vec3{X: 7, Y: 8, Z: 9}},
	}
}

func seriesEqual(a, b SampleSeries, withGyro bool) bool {
	if len(a) != len(b) {
		return false
	}
	const tol = 1e-6 // writer precision
	near := func(x, y float64) bool { return math.Abs(x-y) <= tol }
	for i := range a {
		if !near(a[i].T, b[i].T) ||
			!near(a[i].Acc.X, b[i].Acc.X) || !near(a[i].Acc.Y, b[i].Acc.Y) || !near(a[i].Acc.Z, b[i].Acc.Z) {
			return false
		}
		if withGyro &&
			(!near(a[i].Gyro.X, b[i].Gyro.X) || !near(a[i].Gyro.Y, b[i].Gyro.Y) || !near(a[i].Gyro.Z, b[i].Gyro.Z)) {
			return false
		}
	}
	return true
}

func TestSeriesRoundTripWithGyro(t *testing.T) {
	series := sampleFixture()

	var buf bytes.Buffer
	w := NewSeriesWriter(&buf, true)
	for _, s := range series {
		if err := w.Write(s); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := ReadSeries(&buf)
	if err != nil {
		t.Fatalf("ReadSeries: %v", err)
	}
	if !seriesEqual(series, got, true) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, series)
	}
}

func TestSeriesRoundTripWithoutGyro(t *testing.T) {
	series := sampleFixture()

	var buf bytes.Buffer
	w := NewSeriesWriter(&buf, false)
	for _, s := range series {
		if err := w.Write(s); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if strings.Contains(buf.String(), "x_gyro") {
		t.Fatal("gyro columns written without withGyro")
	}

	got, err := ReadSeries(&buf)
	if err != nil {
		t.Fatalf("ReadSeries: %v", err)
	}
	if !seriesEqual(series, got, false) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, series)
	}
	for i, s := range got {
		if s.Gyro != (Vec3{}) {
			t.Errorf("sample %d gyro = %+v, want zero", i, s.Gyro)
		}
	}
}

func TestReadSeriesReorderedColumns(t *testing.T) {
	in := "z_acc,seconds_elapsed,y_acc,x_acc\n0.98,0.5,-0.02,0.01\n"
	got, err := ReadSeries(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadSeries: %v", err)
	}
	want := Sample{T: 0.5, Acc: Vec3{X: 0.01, Y: -0.02, Z: 0.98}}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %+v, want [%+v]", got, want)
	}
}

func TestReadSeriesMissingColumn(t *testing.T) {
	in := "seconds_elapsed,x_acc,y_acc\n0,1,2\n"
	if _, err := ReadSeries(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for missing z_acc column")
	}
}

func TestReadSeriesBadValue(t *testing.T) {
	in := "seconds_elapsed,x_acc,y_acc,z_acc\n0,oops,2,3\n"
	if _, err := ReadSeries(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for non-numeric field")
	}
}

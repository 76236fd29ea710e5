// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/motion_tracker/internal/config"
	"github.com/relabs-tech/motion_tracker/internal/imu"
)

// countsPerG is the accelerometer sensitivity of the recording firmware,
// which runs the sensor fixed at ±2g.
const countsPerG = 16384

// RunRecord streams accelerometer lines from the serial port into a CSV
// file. The device emits "timestamp_ms,ax,ay,az[,gx,gy,gz]" in raw counts;
// rows are written with seconds relative to the first sample and counts
// converted to g. Stops after MAX_MEASUREMENTS samples or on SIGINT.
func RunRecord(outPath string) error {
	cfg := config.Get()

	if cfg.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT not configured")
	}

	serialOpts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              uint(cfg.SerialBaud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", cfg.SerialPort, err)
	}
	defer port.Close()
	log.Printf("record: serial port opened on %s at %d baud", cfg.SerialPort, cfg.SerialBaud)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(port)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				readErr <- err
				return
			}
			lines <- strings.TrimSpace(line)
		}
	}()

	var writer *imu.SeriesWriter
	var t0 float64
	count := 0

	for {
		select {
		case <-sigCh:
			log.Printf("record: interrupted, wrote %d samples to %s", count, outPath)
			if writer == nil {
				return nil
			}
			return writer.Flush()

		case err := <-readErr:
			if writer != nil {
				writer.Flush()
			}
			return fmt.Errorf("serial read error: %w", err)

		case line := <-lines:
			sample, withGyro, err := parseDeviceLine(line)
			if err != nil {
				// resets and partial lines are normal right after opening
				continue
			}

			if writer == nil {
				writer = imu.NewSeriesWriter(out, withGyro)
				t0 = sample.T
			}
			sample.T -= t0

			if err := writer.Write(sample); err != nil {
				return fmt.Errorf("failed to write sample: %w", err)
			}
			count++
			if count%500 == 0 {
				log.Printf("record: %d samples (%.1f s)", count, sample.T)
			}

			if cfg.MaxMeasurement > 0 && count >= cfg.MaxMeasurement {
				log.Printf("record: reached %d samples, wrote %s", count, outPath)
				return writer.Flush()
			}
		}
	}
}

// parseDeviceLine decodes one firmware line. Timestamps arrive in
// milliseconds and accel/gyro values in raw counts.
func parseDeviceLine(line string) (imu.Sample, bool, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 4 && len(fields) != 7 {
		return imu.Sample{}, false, fmt.Errorf("expected 4 or 7 fields, got %d", len(fields))
	}

	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return imu.Sample{}, false, fmt.Errorf("invalid field %q: %w", f, err)
		}
		vals[i] = v
	}

	s := imu.Sample{
		T: vals[0] / 1000,
		Acc: imu.Vec3{
			X: vals[1] / countsPerG,
			Y: vals[2] / countsPerG,
			Z: vals[3] / countsPerG,
		},
	}
	withGyro := len(fields) == 7
	if withGyro {
		s.Gyro = imu.Vec3{X: vals[4], Y: vals[5], Z: vals[6]}
	}
	return s, withGyro, nil
}

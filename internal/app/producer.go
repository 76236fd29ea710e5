// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motion_tracker/internal/calibration"
	"github.com/relabs-tech/motion_tracker/internal/config"
	"github.com/relabs-tech/motion_tracker/internal/imu"
	"github.com/relabs-tech/motion_tracker/internal/motion"
	"github.com/relabs-tech/motion_tracker/internal/sensors"
)

// AccMessage is the per-sample acceleration payload on the acc topic,
// values in g.
type AccMessage struct {
	T         float64  `json:"t"`
	Raw       imu.Vec3 `json:"raw"`
	Corrected imu.Vec3 `json:"corrected"`
}

// MotionMessage is the integrated state payload on the motion topic.
type MotionMessage struct {
	T float64 `json:"t"`
	motion.MotionState
}

// RunProducer reads the MPU9250 on a fixed interval, applies the calibration
// model, tracks position live and publishes both streams over MQTT.
func RunProducer() error {
	log.Println("starting motion-tracker producer (IMU → MQTT)")

	cfg := config.Get()

	src, err := sensors.NewIMUSource()
	if err != nil {
		return err
	}

	// Calibration is optional for the live stream; without it the corrected
	// values equal the raw ones.
	model := calibration.Model{Transform: imu.Identity3()}
	params, err := calibration.LoadParams(cfg.CalibrationFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		log.Printf("producer: WARNING: calibration file %s not found, publishing uncorrected values", cfg.CalibrationFile)
	} else {
		model = params.Model()
		log.Printf("producer: loaded calibration from %s", cfg.CalibrationFile)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Counts per g follow from the configured range; ±2g is 16384.
	accScale := 1 / float64(int(countsPerG)>>cfg.IMUAccelRange)

	detector := motion.NewStationaryDetector(cfg.ZUPTThreshold, cfg.ZUPTWindow)
	mode := motion.ModePlain
	if cfg.ApplyZUPT {
		mode = motion.ModeZUPT
	}
	tracker := motion.NewTracker(motion.Options{
		Mode:          mode,
		Unit:          imu.UnitG,
		ZUPTThreshold: cfg.ZUPTThreshold,
		ZUPTWindow:    cfg.ZUPTWindow,
	})

	start := time.Now()

	ticker := time.NewTicker(time.Duration(cfg.SampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		reading, err := src.Read()
		if err != nil {
			log.Printf("producer: IMU read error: %v", err)
			continue
		}

		elapsed := t.Sub(start).Seconds()
		raw := reading.Acc().Scale(accScale)
		corrected := model.Apply(raw, imu.UnitG)

		accMsg := AccMessage{T: elapsed, Raw: raw, Corrected: corrected}
		if payload, err := json.Marshal(accMsg); err != nil {
			log.Printf("producer: acc marshal error: %v", err)
		} else {
			if token := client.Publish(cfg.TopicAcc, 0, true, payload); token.Wait() && token.Error() != nil {
				log.Printf("producer: MQTT publish error (acc): %v", token.Error())
				continue
			}
		}

		// Stationary detection runs on corrected magnitudes in m/s² to
		// match the configured variance threshold.
		stationary := detector.Push(corrected.Scale(imu.StandardGravity).Norm())
		state := tracker.Step(imu.Sample{T: elapsed, Acc: corrected}, stationary)

		motionMsg := MotionMessage{T: elapsed, MotionState: state}
		if payload, err := json.Marshal(motionMsg); err != nil {
			log.Printf("producer: motion marshal error: %v", err)
		} else {
			if token := client.Publish(cfg.TopicMotion, 0, true, payload); token.Wait() && token.Error() != nil {
				log.Printf("producer: MQTT publish error (motion): %v", token.Error())
				continue
			}
		}

		log.Printf("%s tick: acc=[%.3f %.3f %.3f]g | pos=[%.3f %.3f %.3f]m disp=%.3fm stationary=%t",
			t.Format(time.RFC3339),
			corrected.X, corrected.Y, corrected.Z,
			state.Position.X, state.Position.Y, state.Position.Z,
			state.Displacement, state.Stationary,
		)
	}
	return nil
}

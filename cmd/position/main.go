// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/motion_tracker/internal/app"
	"github.com/relabs-tech/motion_tracker/internal/config"
)

func main() {
	configPath := flag.String("config", "./motion_config.txt", "path to configuration file")
	dataPath := flag.String("data", "motion_data.csv", "path to motion recording CSV")
	nmeaPath := flag.String("nmea", "", "optional NMEA log providing the reference distance")
	flag.Parse()

	log.Println("starting motion-tracker position estimation")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunPosition(*dataPath, *nmeaPath); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

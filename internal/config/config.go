package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/motion_tracker/internal/imu"
)

// Config holds all application configuration values. The numeric pipeline
// never reads it directly; callers derive immutable option structs from it
// and pass those into each stage.
type Config struct {
	// Units of recorded acceleration values: "g" or "mps2"
	Units imu.Unit

	// Pipeline
	KnownDistance float64 // reference distance in metres, 0 = none
	ApplyZUPT     bool
	ZUPTThreshold float64 // rolling-variance threshold (m/s²)²
	ZUPTWindow    int     // rolling-variance window in samples
	LowPassFilter bool
	CutoffFreq    float64 // low-pass cutoff in Hz
	ScaleFactor   float64 // multiplier applied to raw values before anything else

	// Files
	CalibrationFile string
	FigureDir       string

	// Serial recorder
	SerialPort     string
	SerialBaud     int
	MaxMeasurement int // recorder stops after this many samples, 0 = unlimited

	// IMU hardware (live producer)
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer range: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope range: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// Timing
	SampleInterval int // milliseconds between producer samples

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDWeb      string
	TopicAcc             string
	TopicMotion          string

	// Web server
	WebServerPort int
}

// Package-level unexported variables for the singleton pattern, matching
// the producer processes which all read one immutable config after startup.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults mirrors the reference processing configuration.
func defaults() *Config {
	return &Config{
		Units:           imu.UnitMPS2,
		ZUPTThreshold:   0.01,
		ZUPTWindow:      5,
		CutoffFreq:      2.0,
		ScaleFactor:     1.0,
		CalibrationFile: "calibration_params.json",
		FigureDir:       "position_plots",
		SerialBaud:      115200,
		SampleInterval:  10,
		TopicAcc:        "motion/acc",
		TopicMotion:     "motion/state",
		WebServerPort:   8080,
	}
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	case "UNITS":
		switch value {
		case "g":
			c.Units = imu.UnitG
		case "mps2":
			c.Units = imu.UnitMPS2
		default:
			return fmt.Errorf("UNITS must be \"g\" or \"mps2\", got %q", value)
		}

	case "KNOWN_DISTANCE":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid KNOWN_DISTANCE %q: %w", value, err)
		}
		if v < 0 {
			return fmt.Errorf("KNOWN_DISTANCE must be >= 0, got %g", v)
		}
		c.KnownDistance = v
	case "APPLY_ZUPT":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid APPLY_ZUPT %q: %w", value, err)
		}
		c.ApplyZUPT = v
	case "ZUPT_THRESHOLD":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid ZUPT_THRESHOLD %q: %w", value, err)
		}
		if v <= 0 {
			return fmt.Errorf("ZUPT_THRESHOLD must be > 0, got %g", v)
		}
		c.ZUPTThreshold = v
	case "ZUPT_WINDOW":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ZUPT_WINDOW %q: %w", value, err)
		}
		if v < 1 {
			return fmt.Errorf("ZUPT_WINDOW must be >= 1, got %d", v)
		}
		c.ZUPTWindow = v
	case "LOW_PASS_FILTER":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid LOW_PASS_FILTER %q: %w", value, err)
		}
		c.LowPassFilter = v
	case "CUTOFF_FREQ":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid CUTOFF_FREQ %q: %w", value, err)
		}
		if v <= 0 {
			return fmt.Errorf("CUTOFF_FREQ must be > 0, got %g", v)
		}
		c.CutoffFreq = v
	case "SCALE_FACTOR":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SCALE_FACTOR %q: %w", value, err)
		}
		if v == 0 {
			return fmt.Errorf("SCALE_FACTOR must be non-zero")
		}
		c.ScaleFactor = v

	case "CALIBRATION_FILE":
		c.CalibrationFile = value
	case "FIGURE_DIR":
		c.FigureDir = value

	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD %q: %w", value, err)
		}
		c.SerialBaud = v
	case "MAX_MEASUREMENTS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAX_MEASUREMENTS %q: %w", value, err)
		}
		if v < 0 {
			return fmt.Errorf("MAX_MEASUREMENTS must be >= 0, got %d", v)
		}
		c.MaxMeasurement = v

	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if v < 0 || v > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", v)
		}
		c.IMUAccelRange = byte(v)
	case "IMU_GYRO_RANGE":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_GYRO_RANGE %q: %w", value, err)
		}
		if v < 0 || v > 3 {
			return fmt.Errorf("IMU_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", v)
		}
		c.IMUGyroRange = byte(v)

	case "SAMPLE_INTERVAL":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.SampleInterval = v

	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "TOPIC_ACC":
		c.TopicAcc = value
	case "TOPIC_MOTION":
		c.TopicMotion = value

	case "WEB_SERVER_PORT":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = v

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks cross-field consistency. Per-key range checks happen in
// setValue.
func (c *Config) validate() error {
	if c.SerialBaud <= 0 {
		return fmt.Errorf("SERIAL_BAUD must be > 0")
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL must be > 0")
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Uses sync.Once
// so repeated calls are harmless.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be called
// first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relabs-tech/motion_tracker/internal/imu"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motion_config.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "# only comments\n\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Units != imu.UnitMPS2 {
		t.Errorf("Units = %v, want mps2", cfg.Units)
	}
	if cfg.ZUPTThreshold != 0.01 || cfg.ZUPTWindow != 5 {
		t.Errorf("ZUPT defaults = %g/%d, want 0.01/5", cfg.ZUPTThreshold, cfg.ZUPTWindow)
	}
	if cfg.CutoffFreq != 2.0 || cfg.ScaleFactor != 1.0 {
		t.Errorf("filter defaults = %g/%g, want 2.0/1.0", cfg.CutoffFreq, cfg.ScaleFactor)
	}
	if cfg.CalibrationFile != "calibration_params.json" {
		t.Errorf("CalibrationFile = %q", cfg.CalibrationFile)
	}
	if cfg.WebServerPort != 8080 || cfg.SerialBaud != 115200 || cfg.SampleInterval != 10 {
		t.Errorf("unexpected defaults: port=%d baud=%d interval=%d", cfg.WebServerPort, cfg.SerialBaud, cfg.SampleInterval)
	}
}

func TestLoadValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
UNITS=g
KNOWN_DISTANCE=6.5
APPLY_ZUPT=true
ZUPT_THRESHOLD=0.02
ZUPT_WINDOW=8
LOW_PASS_FILTER=true
CUTOFF_FREQ=3.5
SCALE_FACTOR=0.5

CALIBRATION_FILE=my_cal.json
SERIAL_PORT=/dev/ttyUSB0
MAX_MEASUREMENTS=2000
IMU_ACCEL_RANGE=2
MQTT_BROKER=tcp://broker:1883
TOPIC_MOTION=lab/motion
WEB_SERVER_PORT=9090
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Units != imu.UnitG {
		t.Errorf("Units = %v, want g", cfg.Units)
	}
	if cfg.KnownDistance != 6.5 || !cfg.ApplyZUPT || cfg.ZUPTThreshold != 0.02 || cfg.ZUPTWindow != 8 {
		t.Errorf("pipeline values wrong: %+v", cfg)
	}
	if !cfg.LowPassFilter || cfg.CutoffFreq != 3.5 || cfg.ScaleFactor != 0.5 {
		t.Errorf("filter values wrong: %+v", cfg)
	}
	if cfg.CalibrationFile != "my_cal.json" || cfg.SerialPort != "/dev/ttyUSB0" || cfg.MaxMeasurement != 2000 {
		t.Errorf("file/serial values wrong: %+v", cfg)
	}
	if cfg.IMUAccelRange != 2 {
		t.Errorf("IMUAccelRange = %d, want 2", cfg.IMUAccelRange)
	}
	if cfg.MQTTBroker != "tcp://broker:1883" || cfg.TopicMotion != "lab/motion" || cfg.WebServerPort != 9090 {
		t.Errorf("mqtt/web values wrong: %+v", cfg)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unknown key", "NO_SUCH_KEY=1\n"},
		{"missing equals", "UNITS\n"},
		{"bad units", "UNITS=furlongs\n"},
		{"negative distance", "KNOWN_DISTANCE=-1\n"},
		{"zero threshold", "ZUPT_THRESHOLD=0\n"},
		{"zero window", "ZUPT_WINDOW=0\n"},
		{"zero scale", "SCALE_FACTOR=0\n"},
		{"accel range", "IMU_ACCEL_RANGE=4\n"},
		{"bad port", "WEB_SERVER_PORT=70000\n"},
		{"zero interval", "SAMPLE_INTERVAL=0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.content)); err == nil {
				t.Fatalf("Load accepted %q", tc.content)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

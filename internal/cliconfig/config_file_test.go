package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Home:             "/test/root",
				Endpoint:         "http://frames.local/image?displayId=2",
				SuspendInterval:  "10m",
				FailureThreshold: 4,
				StoreQuota:       1 << 20,
				SelectorInputs:   []string{"GPIO3", "GPIO4"},
				Voltage: VoltageFileConfig{
					Sensor: "adc",
					Path:   "/sys/bus/iio/devices/iio:device0/in_voltage0_raw",
					Trim:   1.05,
				},
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Home:             "/test/root",
				Endpoint:         "http://frames.local/image?displayId=2",
				SuspendInterval:  10 * time.Minute,
				FailureThreshold: 4,
				StoreQuota:       1 << 20,
				SelectorInputs:   []string{"GPIO3", "GPIO4"},
				VoltageSensor:    "adc",
				VoltagePath:      "/sys/bus/iio/devices/iio:device0/in_voltage0_raw",
				VoltageTrim:      1.05,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Home:     "/config/home",
				Endpoint: "http://config/image",
			},
			changed: map[string]bool{"home": true},
			initial: Config{
				Home: "/flag/home",
			},
			expected: Config{
				Home:     "/flag/home", // unchanged because flag was set
				Endpoint: "http://config/image",
			},
			wantErr: false,
		},
		{
			name: "returns error for invalid duration",
			fileConfig: FileConfig{
				ConnectTimeout: "soon",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr {
				if cfg.Home != tt.expected.Home {
					t.Errorf("Home = %v, want %v", cfg.Home, tt.expected.Home)
				}
				if cfg.Endpoint != tt.expected.Endpoint {
					t.Errorf("Endpoint = %v, want %v", cfg.Endpoint, tt.expected.Endpoint)
				}
				if cfg.SuspendInterval != tt.expected.SuspendInterval {
					t.Errorf("SuspendInterval = %v, want %v", cfg.SuspendInterval, tt.expected.SuspendInterval)
				}
				if cfg.FailureThreshold != tt.expected.FailureThreshold {
					t.Errorf("FailureThreshold = %v, want %v", cfg.FailureThreshold, tt.expected.FailureThreshold)
				}
				if cfg.StoreQuota != tt.expected.StoreQuota {
					t.Errorf("StoreQuota = %v, want %v", cfg.StoreQuota, tt.expected.StoreQuota)
				}
				if strings.Join(cfg.SelectorInputs, ",") != strings.Join(tt.expected.SelectorInputs, ",") {
					t.Errorf("SelectorInputs = %v, want %v", cfg.SelectorInputs, tt.expected.SelectorInputs)
				}
				if cfg.VoltageSensor != tt.expected.VoltageSensor || cfg.VoltagePath != tt.expected.VoltagePath {
					t.Errorf("voltage = %v %v", cfg.VoltageSensor, cfg.VoltagePath)
				}
				if cfg.VoltageTrim != tt.expected.VoltageTrim {
					t.Errorf("VoltageTrim = %v, want %v", cfg.VoltageTrim, tt.expected.VoltageTrim)
				}
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
home = "/srv/framecast"
endpoint = "http://10.0.0.2:8080/image?displayId=1"
suspend_interval = "6m"
failure_threshold = 3
selector_inputs = ["GPIO3"]

[voltage]
sensor = "power_supply"
path = "/sys/class/power_supply/BAT0/voltage_now"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Home != "/srv/framecast" {
		t.Errorf("Home = %v, want /srv/framecast", fc.Home)
	}
	if fc.SuspendInterval != "6m" {
		t.Errorf("SuspendInterval = %v, want 6m", fc.SuspendInterval)
	}
	if fc.FailureThreshold != 3 {
		t.Errorf("FailureThreshold = %v, want 3", fc.FailureThreshold)
	}
	if len(fc.SelectorInputs) != 1 || fc.SelectorInputs[0] != "GPIO3" {
		t.Errorf("SelectorInputs = %v", fc.SelectorInputs)
	}
	if fc.Voltage.Sensor != "power_supply" {
		t.Errorf("Voltage.Sensor = %v, want power_supply", fc.Voltage.Sensor)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
home = "/test"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".framecast") {
		t.Errorf("DefaultConfigPath() = %v, should contain .framecast", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}

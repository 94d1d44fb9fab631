package cliconfig

import (
	"testing"
	"time"

	"github.com/bft-labs/framecast/internal/app"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("Endpoint = %v, want %v", cfg.Endpoint, DefaultEndpoint)
	}
	if cfg.SuspendInterval != 6*time.Minute {
		t.Errorf("SuspendInterval = %v, want 6m", cfg.SuspendInterval)
	}
	if cfg.ConnectTimeout != 30*time.Second {
		t.Errorf("ConnectTimeout = %v, want 30s", cfg.ConnectTimeout)
	}
	if cfg.StoreHeadroom != 1000 {
		t.Errorf("StoreHeadroom = %v, want 1000", cfg.StoreHeadroom)
	}
	if cfg.VoltageMax != 4095 || cfg.VoltageTrim != 1.039 {
		t.Errorf("calibration = %+v", cfg.Calibration())
	}
}

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Home = "/tmp/framecast"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"missing home", func(c *Config) { c.Home = "" }, true},
		{"relative endpoint", func(c *Config) { c.Endpoint = "/image" }, true},
		{"zero suspend", func(c *Config) { c.SuspendInterval = 0 }, true},
		{"zero connect timeout", func(c *Config) { c.ConnectTimeout = 0 }, true},
		{"negative banner", func(c *Config) { c.BannerDuration = -time.Second }, true},
		{"zero banner allowed", func(c *Config) { c.BannerDuration = 0 }, false},
		{"zero threshold", func(c *Config) { c.FailureThreshold = 0 }, true},
		{"negative quota", func(c *Config) { c.StoreQuota = -1 }, true},
		{"unknown suspend mode", func(c *Config) { c.SuspendMode = "hibernate" }, true},
		{"rtc suspend", func(c *Config) { c.SuspendMode = "rtc" }, false},
		{"unknown display", func(c *Config) { c.Display = "lcd" }, true},
		{"epaper display", func(c *Config) { c.Display = DisplayEPaper }, false},
		{"unknown sensor", func(c *Config) { c.VoltageSensor = "hall" }, true},
		{"sensor without path", func(c *Config) { c.VoltageSensor = "adc" }, true},
		{"sensor with path", func(c *Config) {
			c.VoltageSensor = "power_supply"
			c.VoltagePath = "/sys/class/power_supply/BAT0/voltage_now"
		}, false},
		{"zero adc range", func(c *Config) { c.VoltageMax = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Derivations(t *testing.T) {
	c1 := validConfig()
	if err := c1.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c1.StoreDir != "/tmp/framecast/frames" {
		t.Errorf("StoreDir = %v, want /tmp/framecast/frames", c1.StoreDir)
	}
	if c1.StateDir != "/tmp/framecast/state" {
		t.Errorf("StateDir = %v, want /tmp/framecast/state", c1.StateDir)
	}
	if c1.PartitionsFile != "/tmp/framecast/partitions.yaml" {
		t.Errorf("PartitionsFile = %v", c1.PartitionsFile)
	}
	if c1.SnapshotDir != "/tmp/framecast/display" {
		t.Errorf("SnapshotDir = %v", c1.SnapshotDir)
	}

	// explicit directories are kept
	c2 := validConfig()
	c2.StoreDir = "/data/frames"
	c2.StateDir = "/state"
	if err := c2.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c2.StoreDir != "/data/frames" || c2.StateDir != "/state" {
		t.Errorf("dirs = %v, %v", c2.StoreDir, c2.StateDir)
	}
}

func TestConfig_CycleConfig(t *testing.T) {
	cfg := validConfig()
	cfg.SuspendInterval = time.Minute
	cfg.FailureThreshold = 5
	cfg.Partition = "ota_1"

	cc := cfg.CycleConfig()
	if cc.SuspendInterval != time.Minute || cc.FailureThreshold != 5 || cc.Partition != "ota_1" {
		t.Errorf("CycleConfig() = %+v", cc)
	}
	if cc.MaxEnqueueFailures != app.DefaultMaxEnqueueFailures {
		t.Errorf("MaxEnqueueFailures = %d, want default", cc.MaxEnqueueFailures)
	}
}

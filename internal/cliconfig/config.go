package cliconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/framecast/internal/adapters/platform"
	"github.com/bft-labs/framecast/internal/adapters/power"
	"github.com/bft-labs/framecast/internal/app"
)

// DefaultEndpoint is the frame producer queried when none is configured.
const DefaultEndpoint = "http://localhost:8080/image?displayId=1"

// Display kinds.
const (
	DisplaySnapshot = "snapshot"
	DisplayEPaper   = "epaper"
)

// Config holds CLI configuration for framecast.
type Config struct {
	Home           string
	StoreDir       string
	StateDir       string
	PartitionsFile string
	Partition      string

	Endpoint    string
	HTTPTimeout time.Duration
	NetworkUp   string
	NetworkDown string

	StoreQuota    int
	StoreHeadroom int

	SuspendInterval  time.Duration
	BannerDuration   time.Duration
	ConnectTimeout   time.Duration
	FailureThreshold int
	SuspendMode      string

	Display     string
	SnapshotDir string
	SPIPort     string

	ResetInput     string
	SelectorInputs []string

	VoltageSensor  string
	VoltagePath    string
	VoltageRef     float64
	VoltageMax     float64
	VoltageDivider float64
	VoltageTrim    float64

	MetricsTextfile string

	RestartDelay time.Duration
	MaxBoots     int

	LogLevel  string
	LogFormat string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	cal := power.DefaultCalibration()
	return Config{
		Home:             defaultHome(),
		Partition:        os.Getenv(platform.PartitionEnv),
		Endpoint:         DefaultEndpoint,
		HTTPTimeout:      20 * time.Second,
		StoreHeadroom:    1000,
		SuspendInterval:  app.DefaultSuspendInterval,
		BannerDuration:   app.DefaultBannerDuration,
		ConnectTimeout:   app.DefaultConnectTimeout,
		FailureThreshold: app.DefaultFailureThreshold,
		SuspendMode:      platform.SuspendSimulate,
		Display:          DisplaySnapshot,
		SelectorInputs:   []string{"static:true"},
		VoltageRef:       cal.Reference,
		VoltageMax:       cal.MaxCount,
		VoltageDivider:   cal.Divider,
		VoltageTrim:      cal.Trim,
		RestartDelay:     time.Second,
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

func defaultHome() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".framecast")
	}
	return ""
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Home == "" {
		return fmt.Errorf("home is required")
	}
	if c.StoreDir == "" {
		c.StoreDir = filepath.Join(c.Home, "frames")
	}
	if c.StateDir == "" {
		c.StateDir = filepath.Join(c.Home, "state")
	}
	if c.PartitionsFile == "" {
		c.PartitionsFile = filepath.Join(c.Home, platform.PartitionsFile)
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = filepath.Join(c.Home, "display")
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Host == "" {
		return fmt.Errorf("endpoint %q must be an absolute URL", c.Endpoint)
	}

	if c.SuspendInterval <= 0 {
		return fmt.Errorf("suspend interval must be positive")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.BannerDuration < 0 {
		return fmt.Errorf("banner duration must not be negative")
	}
	if c.FailureThreshold <= 0 {
		return fmt.Errorf("failure threshold must be positive")
	}
	if c.StoreQuota < 0 || c.StoreHeadroom < 0 {
		return fmt.Errorf("store quota and headroom must not be negative")
	}

	switch c.SuspendMode {
	case platform.SuspendSimulate, platform.SuspendRTC:
	default:
		return fmt.Errorf("suspend mode must be %q or %q", platform.SuspendSimulate, platform.SuspendRTC)
	}
	switch c.Display {
	case DisplaySnapshot, DisplayEPaper:
	default:
		return fmt.Errorf("display must be %q or %q", DisplaySnapshot, DisplayEPaper)
	}
	switch c.VoltageSensor {
	case power.KindNone, power.KindADC, power.KindPowerSupply:
	default:
		return fmt.Errorf("voltage sensor must be empty, %q or %q", power.KindADC, power.KindPowerSupply)
	}
	if c.VoltageSensor != power.KindNone && c.VoltagePath == "" {
		return fmt.Errorf("voltage-path is required with voltage sensor %q", c.VoltageSensor)
	}
	if err := c.Calibration().Validate(); err != nil {
		return err
	}

	return nil
}

// Calibration returns the ADC conversion settings.
func (c *Config) Calibration() power.Calibration {
	return power.Calibration{
		Reference: c.VoltageRef,
		MaxCount:  c.VoltageMax,
		Divider:   c.VoltageDivider,
		Trim:      c.VoltageTrim,
	}
}

// CycleConfig converts to the work cycle settings.
func (c *Config) CycleConfig() app.CycleConfig {
	cfg := app.DefaultCycleConfig()
	cfg.SuspendInterval = c.SuspendInterval
	cfg.BannerDuration = c.BannerDuration
	cfg.ConnectTimeout = c.ConnectTimeout
	cfg.FailureThreshold = c.FailureThreshold
	cfg.Partition = c.Partition
	return cfg
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setStringsFromString splits a comma-separated list.
func (s *configSetter) setStringsFromString(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Home           string `toml:"home"`
	StoreDir       string `toml:"store_dir"`
	StateDir       string `toml:"state_dir"`
	PartitionsFile string `toml:"partitions_file"`

	Endpoint    string `toml:"endpoint"`
	HTTPTimeout string `toml:"http_timeout"`
	NetworkUp   string `toml:"network_up"`
	NetworkDown string `toml:"network_down"`

	StoreQuota    int `toml:"store_quota"`
	StoreHeadroom int `toml:"store_headroom"`

	SuspendInterval  string `toml:"suspend_interval"`
	BannerDuration   string `toml:"banner_duration"`
	ConnectTimeout   string `toml:"connect_timeout"`
	FailureThreshold int    `toml:"failure_threshold"`
	SuspendMode      string `toml:"suspend_mode"`

	Display     string `toml:"display"`
	SnapshotDir string `toml:"snapshot_dir"`
	SPIPort     string `toml:"spi_port"`

	ResetInput     string   `toml:"reset_input"`
	SelectorInputs []string `toml:"selector_inputs"`

	Voltage VoltageFileConfig `toml:"voltage"`

	MetricsTextfile string `toml:"metrics_textfile"`

	RestartDelay string `toml:"restart_delay"`
	MaxBoots     int    `toml:"max_boots"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// VoltageFileConfig is the [voltage] table.
type VoltageFileConfig struct {
	Sensor    string  `toml:"sensor"`
	Path      string  `toml:"path"`
	Reference float64 `toml:"reference"`
	MaxCount  float64 `toml:"max_count"`
	Divider   float64 `toml:"divider"`
	Trim      float64 `toml:"trim"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.framecast/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".framecast", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("home", fc.Home, &cfg.Home)
	s.setString("store-dir", fc.StoreDir, &cfg.StoreDir)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("partitions", fc.PartitionsFile, &cfg.PartitionsFile)
	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)
	s.setString("network-up", fc.NetworkUp, &cfg.NetworkUp)
	s.setString("network-down", fc.NetworkDown, &cfg.NetworkDown)
	s.setString("suspend-mode", fc.SuspendMode, &cfg.SuspendMode)
	s.setString("display", fc.Display, &cfg.Display)
	s.setString("snapshot-dir", fc.SnapshotDir, &cfg.SnapshotDir)
	s.setString("spi-port", fc.SPIPort, &cfg.SPIPort)
	s.setString("reset-input", fc.ResetInput, &cfg.ResetInput)
	s.setStrings("selector-input", fc.SelectorInputs, &cfg.SelectorInputs)
	s.setString("voltage-sensor", fc.Voltage.Sensor, &cfg.VoltageSensor)
	s.setString("voltage-path", fc.Voltage.Path, &cfg.VoltagePath)
	s.setString("metrics-textfile", fc.MetricsTextfile, &cfg.MetricsTextfile)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)

	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("suspend", fc.SuspendInterval, &cfg.SuspendInterval); err != nil {
		return err
	}
	if err := s.setDuration("banner", fc.BannerDuration, &cfg.BannerDuration); err != nil {
		return err
	}
	if err := s.setDuration("connect-timeout", fc.ConnectTimeout, &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("restart-delay", fc.RestartDelay, &cfg.RestartDelay); err != nil {
		return err
	}

	s.setInt("store-quota", fc.StoreQuota, &cfg.StoreQuota)
	s.setInt("store-headroom", fc.StoreHeadroom, &cfg.StoreHeadroom)
	s.setInt("failure-threshold", fc.FailureThreshold, &cfg.FailureThreshold)
	s.setInt("max-boots", fc.MaxBoots, &cfg.MaxBoots)

	s.setFloat("voltage-ref", fc.Voltage.Reference, &cfg.VoltageRef)
	s.setFloat("voltage-max", fc.Voltage.MaxCount, &cfg.VoltageMax)
	s.setFloat("voltage-divider", fc.Voltage.Divider, &cfg.VoltageDivider)
	s.setFloat("voltage-trim", fc.Voltage.Trim, &cfg.VoltageTrim)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

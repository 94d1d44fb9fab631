package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// ServerConfig holds configuration for the frameserver command.
type ServerConfig struct {
	Listen    string
	FramesDir string
	DataDir   string
	Debounce  time.Duration

	LogLevel  string
	LogFormat string
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Listen:    ":8080",
		FramesDir: "frames",
		DataDir:   "data",
		Debounce:  200 * time.Millisecond,
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Validate checks the configuration for errors.
func (c *ServerConfig) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.FramesDir == "" {
		return fmt.Errorf("frames-dir is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data-dir is required")
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	return nil
}

// ServerFileConfig is the TOML form of ServerConfig.
type ServerFileConfig struct {
	Listen    string `toml:"listen"`
	FramesDir string `toml:"frames_dir"`
	DataDir   string `toml:"data_dir"`
	Debounce  string `toml:"debounce"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// LoadServerFileConfig reads and parses a TOML server config file.
func LoadServerFileConfig(path string) (ServerFileConfig, error) {
	var fc ServerFileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultServerConfigPath returns ~/.framecast/frameserver.toml.
func DefaultServerConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".framecast", "frameserver.toml")
	}
	return ""
}

// ApplyServerFileConfig applies file values not overridden by flags.
func ApplyServerFileConfig(cfg *ServerConfig, fc ServerFileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", fc.Listen, &cfg.Listen)
	s.setString("frames-dir", fc.FramesDir, &cfg.FramesDir)
	s.setString("data-dir", fc.DataDir, &cfg.DataDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)
	return s.setDuration("debounce", fc.Debounce, &cfg.Debounce)
}

// ApplyServerEnvConfig applies FRAMESERVER_* environment variables not
// overridden by flags.
func ApplyServerEnvConfig(cfg *ServerConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", os.Getenv("FRAMESERVER_LISTEN"), &cfg.Listen)
	s.setString("frames-dir", os.Getenv("FRAMESERVER_FRAMES_DIR"), &cfg.FramesDir)
	s.setString("data-dir", os.Getenv("FRAMESERVER_DATA_DIR"), &cfg.DataDir)
	s.setString("log-level", os.Getenv("FRAMESERVER_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("FRAMESERVER_LOG_FORMAT"), &cfg.LogFormat)
	return s.setDuration("debounce", os.Getenv("FRAMESERVER_DEBOUNCE"), &cfg.Debounce)
}

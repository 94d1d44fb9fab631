package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (FRAMECAST_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("home", os.Getenv("FRAMECAST_HOME"), &cfg.Home)
	s.setString("store-dir", os.Getenv("FRAMECAST_STORE_DIR"), &cfg.StoreDir)
	s.setString("state-dir", os.Getenv("FRAMECAST_STATE_DIR"), &cfg.StateDir)
	s.setString("partitions", os.Getenv("FRAMECAST_PARTITIONS_FILE"), &cfg.PartitionsFile)
	s.setString("endpoint", os.Getenv("FRAMECAST_ENDPOINT"), &cfg.Endpoint)
	s.setString("network-up", os.Getenv("FRAMECAST_NETWORK_UP"), &cfg.NetworkUp)
	s.setString("network-down", os.Getenv("FRAMECAST_NETWORK_DOWN"), &cfg.NetworkDown)
	s.setString("suspend-mode", os.Getenv("FRAMECAST_SUSPEND_MODE"), &cfg.SuspendMode)
	s.setString("display", os.Getenv("FRAMECAST_DISPLAY"), &cfg.Display)
	s.setString("snapshot-dir", os.Getenv("FRAMECAST_SNAPSHOT_DIR"), &cfg.SnapshotDir)
	s.setString("spi-port", os.Getenv("FRAMECAST_SPI_PORT"), &cfg.SPIPort)
	s.setString("reset-input", os.Getenv("FRAMECAST_RESET_INPUT"), &cfg.ResetInput)
	s.setStringsFromString("selector-input", os.Getenv("FRAMECAST_SELECTOR_INPUTS"), &cfg.SelectorInputs)
	s.setString("voltage-sensor", os.Getenv("FRAMECAST_VOLTAGE_SENSOR"), &cfg.VoltageSensor)
	s.setString("voltage-path", os.Getenv("FRAMECAST_VOLTAGE_PATH"), &cfg.VoltagePath)
	s.setString("metrics-textfile", os.Getenv("FRAMECAST_METRICS_TEXTFILE"), &cfg.MetricsTextfile)
	s.setString("log-level", os.Getenv("FRAMECAST_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("FRAMECAST_LOG_FORMAT"), &cfg.LogFormat)

	if err := s.setDuration("timeout", os.Getenv("FRAMECAST_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("suspend", os.Getenv("FRAMECAST_SUSPEND_INTERVAL"), &cfg.SuspendInterval); err != nil {
		return err
	}
	if err := s.setDuration("banner", os.Getenv("FRAMECAST_BANNER_DURATION"), &cfg.BannerDuration); err != nil {
		return err
	}
	if err := s.setDuration("connect-timeout", os.Getenv("FRAMECAST_CONNECT_TIMEOUT"), &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("restart-delay", os.Getenv("FRAMECAST_RESTART_DELAY"), &cfg.RestartDelay); err != nil {
		return err
	}

	if err := s.setIntFromString("store-quota", os.Getenv("FRAMECAST_STORE_QUOTA"), &cfg.StoreQuota); err != nil {
		return err
	}
	if err := s.setIntFromString("store-headroom", os.Getenv("FRAMECAST_STORE_HEADROOM"), &cfg.StoreHeadroom); err != nil {
		return err
	}
	if err := s.setIntFromString("failure-threshold", os.Getenv("FRAMECAST_FAILURE_THRESHOLD"), &cfg.FailureThreshold); err != nil {
		return err
	}
	if err := s.setIntFromString("max-boots", os.Getenv("FRAMECAST_MAX_BOOTS"), &cfg.MaxBoots); err != nil {
		return err
	}

	if err := s.setFloatFromString("voltage-ref", os.Getenv("FRAMECAST_VOLTAGE_REF"), &cfg.VoltageRef); err != nil {
		return err
	}
	if err := s.setFloatFromString("voltage-max", os.Getenv("FRAMECAST_VOLTAGE_MAX"), &cfg.VoltageMax); err != nil {
		return err
	}
	if err := s.setFloatFromString("voltage-divider", os.Getenv("FRAMECAST_VOLTAGE_DIVIDER"), &cfg.VoltageDivider); err != nil {
		return err
	}
	if err := s.setFloatFromString("voltage-trim", os.Getenv("FRAMECAST_VOLTAGE_TRIM"), &cfg.VoltageTrim); err != nil {
		return err
	}

	return nil
}

// Package power reads the supply voltage reported to the frame producer.
package power

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Sensor kinds accepted by New.
const (
	KindNone        = ""
	KindADC         = "adc"
	KindPowerSupply = "power_supply"
)

// Calibration converts raw ADC counts to volts:
// raw * Reference / MaxCount * Divider * Trim.
type Calibration struct {
	Reference float64 `toml:"reference"`
	MaxCount  float64 `toml:"max_count"`
	Divider   float64 `toml:"divider"`
	Trim      float64 `toml:"trim"`
}

// DefaultCalibration matches a 12-bit ADC behind a 1:2 resistor divider on a
// 3.3 V reference.
func DefaultCalibration() Calibration {
	return Calibration{
		Reference: 3.3,
		MaxCount:  4095,
		Divider:   2,
		Trim:      1.039,
	}
}

// Volts converts raw counts.
func (c Calibration) Volts(raw float64) float64 {
	return raw * c.Reference / c.MaxCount * c.Divider * c.Trim
}

// Validate checks that the conversion is well defined.
func (c Calibration) Validate() error {
	if c.MaxCount <= 0 {
		return fmt.Errorf("calibration max_count must be positive")
	}
	if c.Reference <= 0 || c.Divider <= 0 || c.Trim <= 0 {
		return fmt.Errorf("calibration reference, divider and trim must be positive")
	}
	return nil
}

// ADCSensor reads raw counts from an IIO channel such as
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
type ADCSensor struct {
	path string
	cal  Calibration
}

// NewADCSensor creates a sensor reading path.
func NewADCSensor(path string, cal Calibration) (*ADCSensor, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return &ADCSensor{path: path, cal: cal}, nil
}

// Voltage implements ports.VoltageSensor.
func (s *ADCSensor) Voltage() (float64, error) {
	raw, err := readNumber(s.path)
	if err != nil {
		return 0, err
	}
	return s.cal.Volts(raw), nil
}

// SupplySensor reads voltage_now (microvolts) from a power_supply class
// device such as /sys/class/power_supply/BAT0/voltage_now.
type SupplySensor struct {
	path string
}

// NewSupplySensor creates a sensor reading path.
func NewSupplySensor(path string) *SupplySensor {
	return &SupplySensor{path: path}
}

// Voltage implements ports.VoltageSensor.
func (s *SupplySensor) Voltage() (float64, error) {
	uv, err := readNumber(s.path)
	if err != nil {
		return 0, err
	}
	return uv / 1e6, nil
}

func readNumber(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

package power

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeValue(t *testing.T, value string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "value")
	if err := os.WriteFile(path, []byte(value), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestADCSensor_Voltage(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"0\n", 0},
		{"2048\n", 2048 * 3.3 / 4095 * 2 * 1.039},
		{"4095", 3.3 * 2 * 1.039},
	}

	for _, tt := range tests {
		s, err := NewADCSensor(writeValue(t, tt.raw), DefaultCalibration())
		if err != nil {
			t.Fatalf("NewADCSensor: %v", err)
		}
		got, err := s.Voltage()
		if err != nil {
			t.Fatalf("Voltage(%q): %v", tt.raw, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Voltage(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestSupplySensor_Voltage(t *testing.T) {
	s := NewSupplySensor(writeValue(t, "3912000\n"))
	got, err := s.Voltage()
	if err != nil {
		t.Fatalf("Voltage: %v", err)
	}
	if math.Abs(got-3.912) > 1e-9 {
		t.Errorf("Voltage() = %v, want 3.912", got)
	}
}

func TestSensor_Errors(t *testing.T) {
	if _, err := NewSupplySensor(filepath.Join(t.TempDir(), "missing")).Voltage(); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := NewSupplySensor(writeValue(t, "n/a")).Voltage(); err == nil {
		t.Error("expected error for non-numeric value")
	}

	cal := DefaultCalibration()
	cal.MaxCount = 0
	if _, err := NewADCSensor("unused", cal); err == nil {
		t.Error("expected error for zero max_count")
	}
}

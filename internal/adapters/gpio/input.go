// Package gpio provides the manual-reset and selector inputs.
package gpio

import (
	"fmt"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/bft-labs/framecast/internal/ports"
)

// Pin is a GPIO input with a configurable active level.
type Pin struct {
	pin       gpio.PinIn
	activeLow bool
}

// NewPin configures pin as an input. Active-low inputs get the internal
// pull-up so a released button reads as not asserted.
func NewPin(pin gpio.PinIn, activeLow bool) (*Pin, error) {
	pull := gpio.PullDown
	if activeLow {
		pull = gpio.PullUp
	}
	if err := pin.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio %s: configure input: %w", pin.Name(), err)
	}
	return &Pin{pin: pin, activeLow: activeLow}, nil
}

// OpenPin initialises the host drivers and opens the named pin (for example
// "GPIO2").
func OpenPin(name string, activeLow bool) (*Pin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %s not found", name)
	}
	return NewPin(p, activeLow)
}

// Asserted implements ports.DigitalInput.
func (p *Pin) Asserted() (bool, error) {
	level := p.pin.Read()
	if p.activeLow {
		return level == gpio.Low, nil
	}
	return level == gpio.High, nil
}

// Static is an input fixed at build or configuration time. Hosted
// deployments without GPIO use it for the selector and reset inputs.
type Static bool

// Asserted implements ports.DigitalInput.
func (s Static) Asserted() (bool, error) { return bool(s), nil }

// Open resolves an input spec:
//
//	""               never asserted
//	"static:true"    always asserted (any strconv.ParseBool value)
//	"GPIO2"          active-low pin with pull-up
//	"GPIO2:high"     active-high pin with pull-down
func Open(spec string) (ports.DigitalInput, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Static(false), nil
	}
	if v, ok := strings.CutPrefix(spec, "static:"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", spec, err)
		}
		return Static(b), nil
	}

	name, level, _ := strings.Cut(spec, ":")
	switch level {
	case "", "low":
		return OpenPin(name, true)
	case "high":
		return OpenPin(name, false)
	default:
		return nil, fmt.Errorf("input %q: unknown active level %q", spec, level)
	}
}

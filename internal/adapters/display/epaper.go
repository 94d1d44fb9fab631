package display

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
	"periph.io/x/host/v3"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// EPaper drives a Waveshare 2.13" v4 HAT. Frames are scaled to the panel.
type EPaper struct {
	port    spi.PortCloser
	dev     *waveshare2in13v4.Dev
	current *image.Gray
	asleep  bool
	logger  ports.Logger
}

// OpenEPaper initialises the host drivers, opens the SPI port (empty name
// selects the first one) and clears the panel.
func OpenEPaper(spiPort string, logger ports.Logger) (*EPaper, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	port, err := spireg.Open(spiPort)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", spiPort, err)
	}

	opts := waveshare2in13v4.EPD2in13v4
	dev, err := waveshare2in13v4.NewHat(port, &opts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("epaper: %w", err)
	}
	if err := dev.Init(); err != nil {
		port.Close()
		return nil, fmt.Errorf("epaper init: %w", err)
	}
	if err := dev.Clear(color.White); err != nil {
		port.Close()
		return nil, fmt.Errorf("epaper clear: %w", err)
	}

	logger.Debug("epaper ready", ports.String("bounds", dev.Bounds().String()))
	return &EPaper{port: port, dev: dev, logger: logger}, nil
}

// Render implements ports.DisplaySink.
func (e *EPaper) Render(ctx context.Context, frame domain.Frame) error {
	e.current = Decode(frame)
	return e.draw(e.current)
}

// ShowMessage implements ports.DisplaySink.
func (e *EPaper) ShowMessage(ctx context.Context, text string) error {
	return e.draw(WithBanner(e.base(), text))
}

// DismissMessage implements ports.DisplaySink.
func (e *EPaper) DismissMessage(ctx context.Context) error {
	return e.draw(e.base())
}

// PowerDown implements ports.DisplaySink. The panel keeps its image.
func (e *EPaper) PowerDown(ctx context.Context) error {
	if e.asleep {
		return nil
	}
	if err := e.dev.Sleep(); err != nil {
		return fmt.Errorf("epaper sleep: %w", err)
	}
	e.asleep = true
	return nil
}

// Close releases the SPI port.
func (e *EPaper) Close() error {
	return e.port.Close()
}

func (e *EPaper) base() *image.Gray {
	if e.current == nil {
		return Blank()
	}
	return e.current
}

func (e *EPaper) draw(src *image.Gray) error {
	if e.asleep {
		if err := e.dev.Init(); err != nil {
			return fmt.Errorf("epaper wake: %w", err)
		}
		e.asleep = false
	}

	bounds := e.dev.Bounds()
	img := image1bit.NewVerticalLSB(bounds)
	draw.Draw(img, bounds, Fit(src, bounds), bounds.Min, draw.Src)
	if err := e.dev.Draw(bounds, img, image.Point{}); err != nil {
		return fmt.Errorf("epaper draw: %w", err)
	}
	return nil
}

// Package display implements the DisplaySink: a Waveshare e-paper panel driven
// through periph.io, and a PNG snapshot sink for hosts without a panel.
package display

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/bft-labs/framecast/internal/domain"
)

const (
	bannerHeight = 24
	bannerInset  = 8
)

// Decode unpacks a frame into a grayscale image. Pixels are packed MSB first
// in row-major order; a set bit is white.
func Decode(frame domain.Frame) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, domain.FrameWidth, domain.FrameHeight))
	n := min(len(frame), domain.FrameSize)
	for i, b := range frame[:n] {
		for bit := 0; bit < 8; bit++ {
			if b&(0x80>>bit) != 0 {
				img.Pix[i*8+bit] = 0xFF
			}
		}
	}
	return img
}

// Blank returns an all-white canvas of frame size.
func Blank() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, domain.FrameWidth, domain.FrameHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

// WithBanner returns a copy of base with text on a white strip along the
// bottom edge. base is not modified.
func WithBanner(base *image.Gray, text string) *image.Gray {
	out := image.NewGray(base.Bounds())
	copy(out.Pix, base.Pix)

	b := out.Bounds()
	strip := image.Rect(b.Min.X, b.Max.Y-bannerHeight, b.Max.X, b.Max.Y)
	draw.Draw(out, strip, image.White, image.Point{}, draw.Src)
	for x := strip.Min.X; x < strip.Max.X; x++ {
		out.SetGray(x, strip.Min.Y, color.Gray{Y: 0})
	}

	d := font.Drawer{
		Dst:  out,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(strip.Min.X+bannerInset, strip.Max.Y-bannerInset),
	}
	d.DrawString(text)
	return out
}

// Fit scales src into bounds. A landscape source on a portrait panel is
// rotated a quarter turn clockwise first.
func Fit(src *image.Gray, bounds image.Rectangle) *image.Gray {
	var in image.Image = src
	sb := src.Bounds()
	if sb.Dx() > sb.Dy() && bounds.Dy() > bounds.Dx() {
		in = rotateClockwise(src)
	}
	dst := image.NewGray(bounds)
	draw.NearestNeighbor.Scale(dst, bounds, in, in.Bounds(), draw.Src, nil)
	return dst
}

func rotateClockwise(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetGray(b.Max.Y-1-y, x-b.Min.X, src.GrayAt(x, y))
		}
	}
	return dst
}

package domain

import "fmt"

// Display geometry shared by the producer and every device.
const (
	FrameWidth  = 800
	FrameHeight = 480

	// FrameSize is the payload size of every frame: one bit per pixel,
	// rows packed MSB first, a set bit is a white pixel.
	FrameSize = FrameWidth * FrameHeight / 8
)

// Frame is one opaque image payload. A valid frame is exactly FrameSize bytes.
type Frame []byte

// Validate reports ErrFrameSize when the payload length is not FrameSize.
func (f Frame) Validate() error {
	if len(f) != FrameSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(f), FrameSize)
	}
	return nil
}

// Entry is a resident queue entry.
type Entry struct {
	// Seq orders entries; the smallest resident Seq is dequeued first.
	Seq uint64

	Frame Frame
}

// Package capture connects the correction pipeline to cameras, screens,
// windows and frame folders.
package capture

import (
	"errors"
	"fmt"

	"projector-match/internal/frame"
)

// ErrDevice is wrapped by every failure to read from or write to a capture
// or display device.
var ErrDevice = errors.New("device error")

// FrameSource yields captured frames. NextFrame may block until the device
// produces one.
type FrameSource interface {
	NextFrame() (*frame.Image, error)
}

// Display presents an image, typically on the projector.
type Display interface {
	Show(img *frame.Image) error
}

// deviceError wraps err so that it matches ErrDevice.
func deviceError(device string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", device, ErrDevice)
	}
	return fmt.Errorf("%s: %w: %v", device, ErrDevice, err)
}

// Discard is a Display that drops every frame. Used for headless runs where
// the projector is driven elsewhere.
type Discard struct{}

// Show implements Display.
func (Discard) Show(*frame.Image) error { return nil }

// Still is a FrameSource that returns a copy of the same image on every
// call. Useful for dry runs against a saved capture.
type Still struct {
	Image *frame.Image
}

// NextFrame implements FrameSource.
func (s Still) NextFrame() (*frame.Image, error) {
	if s.Image == nil || s.Image.Empty() {
		return nil, deviceError("still", errors.New("no image"))
	}
	return s.Image.Clone(), nil
}

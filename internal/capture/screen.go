package capture

import (
	"image"

	"projector-match/internal/frame"

	"github.com/vova616/screenshot"
)

// Screen captures a rectangle of the desktop. It stands in for a camera when
// the "projection" is a window on a second monitor.
type Screen struct {
	Rect image.Rectangle // empty means the whole screen
}

// NextFrame implements FrameSource.
func (s Screen) NextFrame() (*frame.Image, error) {
	var (
		img *image.RGBA
		err error
	)
	if s.Rect.Empty() {
		img, err = screenshot.CaptureScreen()
	} else {
		img, err = screenshot.CaptureRect(s.Rect)
	}
	if err != nil {
		return nil, deviceError("screen", err)
	}
	return frame.FromImage(img), nil
}

// ScreenBounds returns the rectangle of the primary screen.
func ScreenBounds() (image.Rectangle, error) {
	r, err := screenshot.ScreenRect()
	if err != nil {
		return image.Rectangle{}, deviceError("screen", err)
	}
	return r, nil
}

package config

import (
	"image"

	"projector-match/internal/alignment"
	"projector-match/internal/capture"
)

// OpenSource opens the frame source the configuration selects: a desktop
// rectangle when screen capture is on, otherwise the webcam. The returned
// close function releases the device.
func (c Config) OpenSource() (capture.FrameSource, func() error, error) {
	if c.Screen.Capture {
		r := image.Rect(c.Screen.X, c.Screen.Y, c.Screen.X+c.Screen.Width, c.Screen.Y+c.Screen.Height)
		if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
			var err error
			if r, err = capture.ScreenBounds(); err != nil {
				return nil, nil, err
			}
		}
		return capture.Screen{Rect: r}, func() error { return nil }, nil
	}
	cam, err := capture.OpenWebcam(c.Camera.Device, c.Camera.Width, c.Camera.Height, c.Camera.Warmup)
	if err != nil {
		return nil, nil, err
	}
	return cam, cam.Close, nil
}

// OpenDisplay opens the projector window, or a discarding display when
// headless is set. The window is nil in the headless case.
func (c Config) OpenDisplay(headless bool) (capture.Display, *capture.Window) {
	if headless {
		return capture.Discard{}, nil
	}
	w := capture.NewWindow(c.Screen.Window, c.Screen.Fullscreen, 1)
	return w, w
}

// CornerSelector returns the calibrated corners when present, an ROI
// selector when manual is set, and the automatic detector otherwise.
func (c Config) CornerSelector(manual bool, win *capture.Window) alignment.CornerSelector {
	if q, ok := c.Quad(); ok {
		return alignment.FixedCorners(q)
	}
	if manual && win != nil {
		return capture.ROISelector{Window: win}
	}
	return &alignment.Detector{Options: c.DetectOptions()}
}

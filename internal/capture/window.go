package capture

import (
	"fmt"

	"projector-match/internal/frame"
	"projector-match/pkg/geometry"

	"gocv.io/x/gocv"
)

// Window shows frames in an OpenCV HighGUI window, usually placed full
// screen on the projector output.
type Window struct {
	win    *gocv.Window
	waitMS int
}

// NewWindow opens a named window. waitMillis is passed to WaitKey after
// every Show so the GUI gets a chance to repaint.
func NewWindow(name string, fullscreen bool, waitMillis int) *Window {
	w := gocv.NewWindow(name)
	if fullscreen {
		w.SetWindowProperty(gocv.WindowPropertyFullscreen, gocv.WindowFullscreen)
	}
	if waitMillis < 1 {
		waitMillis = 1
	}
	return &Window{win: w, waitMS: waitMillis}
}

// Show implements Display.
func (w *Window) Show(img *frame.Image) error {
	mat, err := frame.ToBGRMat(img)
	if err != nil {
		return deviceError("window", err)
	}
	defer mat.Close()
	w.win.IMShow(mat)
	w.win.WaitKey(w.waitMS)
	return nil
}

// WaitKey blocks up to delay milliseconds (0 means forever) for a key press.
func (w *Window) WaitKey(delay int) int {
	return w.win.WaitKey(delay)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

// ROISelector lets an operator drag a rectangle around the projected region.
// It satisfies alignment.CornerSelector.
type ROISelector struct {
	Window *Window
}

// SelectCorners shows img and returns the corners of the selected rectangle
// in canonical order.
func (s ROISelector) SelectCorners(img *frame.Image) (geometry.Quad, error) {
	mat, err := frame.ToBGRMat(img)
	if err != nil {
		return geometry.Quad{}, deviceError("roi", err)
	}
	defer mat.Close()

	r := s.Window.win.SelectROI(mat)
	if r.Empty() {
		return geometry.Quad{}, deviceError("roi", fmt.Errorf("selection cancelled"))
	}
	x0, y0 := float64(r.Min.X), float64(r.Min.Y)
	x1, y1 := float64(r.Max.X), float64(r.Max.Y)
	return geometry.Quad{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
	}, nil
}

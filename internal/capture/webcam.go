package capture

import (
	"fmt"
	"time"

	"projector-match/internal/frame"

	"gocv.io/x/gocv"
)

// Webcam reads frames from an OpenCV video capture device.
type Webcam struct {
	device int
	cap    *gocv.VideoCapture
	mat    gocv.Mat
}

// OpenWebcam opens device id, optionally requests a capture size (zero keeps
// the driver default) and waits warmup for exposure to settle.
func OpenWebcam(id, width, height int, warmup time.Duration) (*Webcam, error) {
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, deviceError(fmt.Sprintf("webcam %d", id), err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, deviceError(fmt.Sprintf("webcam %d", id), fmt.Errorf("not opened"))
	}
	if width > 0 && height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	if warmup > 0 {
		time.Sleep(warmup)
	}
	return &Webcam{device: id, cap: vc, mat: gocv.NewMat()}, nil
}

// NextFrame implements FrameSource. Frames are converted from the camera's
// BGR order to RGB.
func (w *Webcam) NextFrame() (*frame.Image, error) {
	if ok := w.cap.Read(&w.mat); !ok {
		return nil, deviceError(fmt.Sprintf("webcam %d", w.device), fmt.Errorf("cannot read device"))
	}
	if w.mat.Empty() {
		return nil, deviceError(fmt.Sprintf("webcam %d", w.device), fmt.Errorf("empty frame"))
	}
	img, err := frame.FromBGRMat(w.mat)
	if err != nil {
		return nil, deviceError(fmt.Sprintf("webcam %d", w.device), err)
	}
	return img, nil
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mat.Close()
	return w.cap.Close()
}

package frame

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ToMat copies the image into a new CV_8UC3 Mat. The Mat keeps RGB order;
// callers that hand it to OpenCV routines assuming BGR must convert.
// The caller owns the returned Mat and must Close it.
func ToMat(img *Image) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.Mat{}, fmt.Errorf("empty image")
	}
	view, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, img.Pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to wrap pixels: %w", err)
	}
	defer view.Close()

	// The view aliases Go memory; hand out an OpenCV-owned copy.
	return view.Clone(), nil
}

// FromMat copies a CV_8UC3 Mat holding RGB samples into a new Image.
func FromMat(mat gocv.Mat) (*Image, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty mat")
	}
	if mat.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("unsupported mat type %v", mat.Type())
	}
	src := mat
	if !mat.IsContinuous() {
		src = mat.Clone()
		defer src.Close()
	}
	pix := src.ToBytes()
	if len(pix) != mat.Rows()*mat.Cols()*Channels {
		return nil, fmt.Errorf("unexpected mat size %d for %dx%d", len(pix), mat.Cols(), mat.Rows())
	}
	return &Image{Width: mat.Cols(), Height: mat.Rows(), Pix: pix}, nil
}

// FromBGRMat converts a BGR Mat, as produced by OpenCV capture and decode
// routines, into an RGB Image.
func FromBGRMat(mat gocv.Mat) (*Image, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty mat")
	}
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB)
	return FromMat(rgb)
}

// ToBGRMat converts the image to a BGR Mat for OpenCV display and encode
// routines. The caller owns the returned Mat.
func ToBGRMat(img *Image) (gocv.Mat, error) {
	rgb, err := ToMat(img)
	if err != nil {
		return rgb, err
	}
	defer rgb.Close()
	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	return bgr, nil
}

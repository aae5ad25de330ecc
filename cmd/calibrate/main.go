// Command calibrate locates the projected region in a camera frame and
// stores its corners in the configuration file.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"time"

	"projector-match/internal/alignment"
	"projector-match/internal/capture"
	"projector-match/internal/config"
	"projector-match/internal/frame"
	"projector-match/internal/version"
	"projector-match/pkg/geometry"
)

func main() {
	configPath := flag.String("config", "projector.yaml", "Configuration file to read and update")
	imagePath := flag.String("i", "", "Calibrate from a saved capture instead of the camera")
	overlayPath := flag.String("overlay", "", "Write the frame with the detected quad drawn on it")
	manual := flag.Bool("manual", false, "Drag a rectangle around the projection instead of detecting it")
	write := flag.Bool("w", false, "Write the corners back to the configuration file")
	debug := flag.Bool("debug", false, "Print detector diagnostics")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("calibrate"))
		return
	}

	cfg, err := loadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Debug = cfg.Debug || *debug
	// Recalibrate from scratch rather than echo the stored corners.
	cfg.Corners = nil

	var img *frame.Image
	display, win := cfg.OpenDisplay(*imagePath != "" && !*manual)
	if win != nil {
		defer win.Close()
	}

	if *imagePath != "" {
		fmt.Printf("=== Loading capture: %s ===\n", *imagePath)
		if img, err = frame.Load(*imagePath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
			os.Exit(1)
		}
	} else {
		img, err = captureWhiteField(cfg, display)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to capture: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Frame: %dx%d\n", img.Width, img.Height)

	quad, err := cfg.CornerSelector(*manual, win).SelectCorners(img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Calibration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n=== Corners (TL, TR, BR, BL) ===\n")
	for i, p := range quad {
		fmt.Printf("  %d: (%.1f, %.1f)\n", i, p.X, p.Y)
	}
	printSize(quad, img.Width, img.Height)

	if *overlayPath != "" {
		overlay, err := alignment.DrawQuad(img, quad)
		if err == nil {
			err = frame.Save(*overlayPath, overlay)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write overlay: %v\n", err)
		} else {
			fmt.Printf("Wrote overlay %s\n", *overlayPath)
		}
	}

	if !*write {
		fmt.Println("\nRun with -w to store these corners.")
		return
	}
	cfg.SetQuad(quad)
	if err := cfg.Save(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved corners to %s\n", *configPath)
}

func loadOrDefault(path string) (config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

// captureWhiteField projects a full white frame, the easiest target for the
// detector, and returns one camera frame of it.
func captureWhiteField(cfg config.Config, display capture.Display) (*frame.Image, error) {
	source, closeSource, err := cfg.OpenSource()
	if err != nil {
		return nil, err
	}
	defer closeSource()

	w, h := cfg.Screen.Width, cfg.Screen.Height
	if w <= 0 || h <= 0 {
		w, h = 1280, 720
	}
	if err := display.Show(frame.NewUniform(w, h, color.RGBA{R: 255, G: 255, B: 255, A: 255})); err != nil {
		return nil, err
	}
	time.Sleep(max(cfg.Loop.Settle, 500*time.Millisecond))
	return source.NextFrame()
}

// printSize reports the apparent size of the projection, a quick check for
// a badly skewed camera.
func printSize(q geometry.Quad, width, height int) {
	top := q[0].Distance(q[1])
	bottom := q[3].Distance(q[2])
	left := q[0].Distance(q[3])
	right := q[1].Distance(q[2])
	fmt.Printf("Edges: top=%.1f bottom=%.1f left=%.1f right=%.1f\n", top, bottom, left, right)
	b := q.Bounds()
	fmt.Printf("Bounds: (%.0f, %.0f) %.0fx%.0f, area %.0f px\n", b.X, b.Y, b.Width, b.Height, q.SignedArea())
	for _, i := range cornersOutside(q, width, height) {
		fmt.Printf("Warning: corner %d (%.1f, %.1f) lies outside the %dx%d frame\n", i, q[i].X, q[i].Y, width, height)
	}
}

// cornersOutside returns the indices of corners that fall outside the
// captured frame, which happens when the projection spills past the camera
// view.
func cornersOutside(q geometry.Quad, width, height int) []int {
	frameRect := geometry.Rect{Width: float64(width), Height: float64(height)}
	var out []int
	for i, p := range q {
		if !frameRect.Contains(p) {
			out = append(out, i)
		}
	}
	return out
}

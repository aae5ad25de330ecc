// Command evaluate scores how closely recorded projections match their
// reference frames, with an optional open-loop correction applied.
//
// Offline mode pairs numbered files from -actual and -recorded. Live mode
// (no -recorded) projects each reference frame and captures it with the
// configured camera.
package main

import (
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"projector-match/internal/alignment"
	"projector-match/internal/capture"
	"projector-match/internal/config"
	"projector-match/internal/correction"
	"projector-match/internal/frame"
	"projector-match/internal/metrics"
	"projector-match/internal/smoothing"
	"projector-match/internal/version"
	"projector-match/pkg/geometry"
)

// Correction modes.
const (
	modeNone    = "none"
	modeStatic  = "static"  // one mean offset measured on the first frame
	modeLowPass = "lowpass" // running mean of recent per-pixel deltas
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration")
	actualDir := flag.String("actual", "", "Directory of reference frames")
	recordedDir := flag.String("recorded", "", "Directory of recorded frames (empty: capture live)")
	outDir := flag.String("out", "", "Directory for rectified recordings")
	diff := flag.Bool("diff", false, "Also write reference|recording and difference images to -out")
	mode := flag.String("mode", modeStatic, "Correction: none, static or lowpass")
	cropSpec := flag.String("crop", "", "Crop recordings to x,y,w,h before rectifying")
	limit := flag.Int("n", 0, "Stop after n frames (0 = all)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("evaluate"))
		return
	}
	if *actualDir == "" {
		fmt.Println("Usage: evaluate -actual <dir> [-recorded <dir>] [-mode none|static|lowpass] [-out <dir>]")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	crop, err := parseCrop(*cropSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -crop: %v\n", err)
		os.Exit(1)
	}

	ev, err := newEvaluator(*mode, cfg.Smoothing.History)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	actual, err := capture.OpenSequence(*actualDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open reference frames: %v\n", err)
		os.Exit(1)
	}

	var (
		recorded capture.FrameSource
		display  capture.Display = capture.Discard{}
	)
	if *recordedDir != "" {
		if recorded, err = capture.OpenSequence(*recordedDir); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open recordings: %v\n", err)
			os.Exit(1)
		}
	} else {
		source, closeSource, err := cfg.OpenSource()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open capture device: %v\n", err)
			os.Exit(1)
		}
		defer closeSource()
		recorded = source
		var win *capture.Window
		display, win = cfg.OpenDisplay(false)
		defer win.Close()
	}

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output dir: %v\n", err)
			os.Exit(1)
		}
	}

	var (
		rect    *alignment.Rectifier
		summary metrics.Report
		count   int
	)
	fmt.Printf("=== Evaluating %d frames (mode %s) ===\n", actual.Len(), *mode)

	for *limit == 0 || count < *limit {
		ref, err := actual.NextFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read reference: %v\n", err)
			os.Exit(1)
		}

		shown, err := ev.prepare(ref)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Frame %d: %v\n", count+1, err)
			os.Exit(1)
		}
		if err := display.Show(shown); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show frame: %v\n", err)
			os.Exit(1)
		}
		if *recordedDir == "" {
			time.Sleep(cfg.Loop.Settle)
		}

		rec, err := recorded.NextFrame()
		if err == io.EOF {
			fmt.Println("Ran out of recordings")
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read recording: %v\n", err)
			os.Exit(1)
		}
		if !crop.Empty() {
			if rec, err = frame.Crop(rec, crop); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to crop recording: %v\n", err)
				os.Exit(1)
			}
		}

		if rect == nil {
			quad, err := locate(cfg, rec)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to locate projection: %v\n", err)
				os.Exit(1)
			}
			if rect, err = alignment.NewRectifier(ref.Width, ref.Height, quad); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to build rectifier: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Corners: %v\n", quad)
		}

		trans, err := rect.Apply(rec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to rectify: %v\n", err)
			os.Exit(1)
		}
		if err := ev.observe(ref, trans); err != nil {
			fmt.Fprintf(os.Stderr, "Frame %d: %v\n", count+1, err)
			os.Exit(1)
		}

		report, err := metrics.Compare(ref, trans)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Frame %d: %v\n", count+1, err)
			os.Exit(1)
		}
		count++
		summary.Distance += report.Distance
		summary.DeltaE += report.DeltaE
		fmt.Printf("Frame %3d: %v\n", count, report)

		if *outDir != "" {
			path := filepath.Join(*outDir, fmt.Sprintf("trans_rec_%d.png", count))
			if err := frame.Save(path, trans); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to save %s: %v\n", path, err)
			}
			if *diff {
				writeComparison(*outDir, count, ref, trans)
			}
		}
	}

	if count == 0 {
		fmt.Println("No frames evaluated")
		return
	}
	summary.Distance /= float64(count)
	summary.DeltaE /= float64(count)
	fmt.Printf("\n=== Mean over %d frames: %v ===\n", count, summary)
}

// evaluator applies one open-loop correction strategy across a stream of
// reference/recording pairs.
type evaluator struct {
	mode   string
	static correction.StaticCorrector
	filter *smoothing.LowPassFilter
}

func newEvaluator(mode string, history int) (*evaluator, error) {
	ev := &evaluator{mode: mode}
	switch mode {
	case modeNone, modeStatic:
	case modeLowPass:
		f, err := smoothing.NewLowPassFilter(history)
		if err != nil {
			return nil, err
		}
		ev.filter = f
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	return ev, nil
}

// prepare returns the image to project for ref.
func (e *evaluator) prepare(ref *frame.Image) (*frame.Image, error) {
	switch e.mode {
	case modeStatic:
		return e.static.Apply(ref), nil
	case modeLowPass:
		return e.filter.Predict(ref)
	}
	return ref, nil
}

// observe feeds back the rectified recording of ref.
func (e *evaluator) observe(ref, rectified *frame.Image) error {
	switch e.mode {
	case modeStatic:
		e.static.Observe(ref, rectified)
	case modeLowPass:
		_, err := e.filter.Apply(ref, rectified)
		return err
	}
	return nil
}

// writeComparison saves the pair side by side and their difference image.
func writeComparison(dir string, n int, ref, trans *frame.Image) {
	pair := frame.SideBySide(ref, trans)
	if err := frame.Save(filepath.Join(dir, fmt.Sprintf("pair_%d.png", n)), pair); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save comparison: %v\n", err)
	}
	d, err := frame.Blend(ref, trans, frame.BlendDifference, 1)
	if err == nil {
		err = frame.Save(filepath.Join(dir, fmt.Sprintf("diff_%d.png", n)), d)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save difference: %v\n", err)
	}
}

func locate(cfg config.Config, rec *frame.Image) (geometry.Quad, error) {
	return cfg.CornerSelector(false, nil).SelectCorners(rec)
}

func parseCrop(s string) (image.Rectangle, error) {
	if s == "" {
		return image.Rectangle{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("want x,y,w,h, got %q", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("%q: %w", p, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("empty crop %q", s)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

// Package main runs the projector feedback loop: it projects a reference
// image, watches the projection with a camera and pre-distorts the image
// until the projection matches it.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"projector-match/internal/alignment"
	"projector-match/internal/config"
	"projector-match/internal/feedback"
	"projector-match/internal/frame"
	"projector-match/internal/version"
	"projector-match/pkg/geometry"
)

const appTitle = "projector-match"

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration")
	refPath := flag.String("ref", "", "Path to reference image")
	outPath := flag.String("out", "corrected.png", "Where to write the corrected image")
	overlayPath := flag.String("overlay", "", "Write the capture with the detected quad drawn on it")
	manual := flag.Bool("manual", false, "Select the projected region by hand instead of detecting it")
	headless := flag.Bool("headless", false, "Do not open a projector window")
	debug := flag.Bool("debug", false, "Verbose logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String(appTitle))
		return
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s", version.String(appTitle))

	if *refPath == "" {
		fmt.Println("Usage: projector-match -ref <image> [-config <yaml>] [-out <image>] [-manual] [-headless]")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Printf("Loaded configuration from %s", *configPath)
	}
	if *debug {
		cfg.Debug = true
	}

	ref, err := frame.Load(*refPath)
	if err != nil {
		log.Fatalf("Failed to load reference: %v", err)
	}
	log.Printf("Reference %s: %dx%d", *refPath, ref.Width, ref.Height)

	source, closeSource, err := cfg.OpenSource()
	if err != nil {
		log.Fatalf("Failed to open capture device: %v", err)
	}
	defer closeSource()

	display, win := cfg.OpenDisplay(*headless)
	if win != nil {
		defer win.Close()
	}

	// Establish the projected region once, with the reference on screen.
	if err := display.Show(ref); err != nil {
		log.Fatalf("Failed to show reference: %v", err)
	}
	time.Sleep(cfg.Loop.Settle)
	first, err := source.NextFrame()
	if err != nil {
		log.Fatalf("Failed to capture calibration frame: %v", err)
	}
	quad, err := cfg.CornerSelector(*manual, win).SelectCorners(first)
	if err != nil {
		log.Fatalf("Failed to locate projection: %v", err)
	}
	log.Printf("Projection corners: %v", quad)

	if *overlayPath != "" {
		writeOverlay(*overlayPath, first, quad)
	}

	opts := cfg.LoopOptions()
	opts.Logger = newLogger(cfg.Debug)
	loop, err := feedback.New(ref, quad, source, display, opts)
	if err != nil {
		log.Fatalf("Failed to start feedback loop: %v", err)
	}

	start := time.Now()
	res, err := loop.Run()
	if err != nil {
		log.Fatalf("Feedback loop failed after %d iterations: %v", loop.Iterations(), err)
	}
	log.Printf("Feedback %s after %d iterations in %v (score %.4f)",
		res.State, res.Iterations, time.Since(start).Round(time.Millisecond), res.Score)
	if res.State == feedback.Exhausted {
		log.Printf("Convergence not reached; writing best-effort image")
	}

	if err := frame.Save(*outPath, res.Image); err != nil {
		log.Fatalf("Failed to save result: %v", err)
	}
	log.Printf("Wrote %s", *outPath)

	if win != nil {
		if err := display.Show(res.Image); err != nil {
			log.Printf("Failed to show result: %v", err)
		}
		log.Println("Press any key in the projection window to exit")
		win.WaitKey(0)
	}
}

// writeOverlay saves img with quad drawn on it so a calibration can be
// checked by eye. Failures are logged, not fatal.
func writeOverlay(path string, img *frame.Image, quad geometry.Quad) {
	overlay, err := alignment.DrawQuad(img, quad)
	if err != nil {
		log.Printf("Failed to draw overlay: %v", err)
		return
	}
	if err := frame.Save(path, overlay); err != nil {
		log.Printf("Failed to save overlay: %v", err)
		return
	}
	log.Printf("Wrote overlay %s", path)
}

// newLogger returns the structured logger handed to the feedback loop.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

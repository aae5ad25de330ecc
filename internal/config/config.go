// Package config holds the YAML run configuration shared by the commands.
package config

import (
	"fmt"
	"os"
	"time"

	"projector-match/internal/alignment"
	"projector-match/internal/feedback"
	"projector-match/pkg/geometry"

	"gopkg.in/yaml.v2"
)

// CameraConfig selects the webcam.
type CameraConfig struct {
	Device int           `yaml:"device"`
	Width  int           `yaml:"width,omitempty"`
	Height int           `yaml:"height,omitempty"`
	Warmup time.Duration `yaml:"warmup"`
}

// ScreenConfig describes screen capture and the projector window.
type ScreenConfig struct {
	Capture    bool   `yaml:"capture"` // read frames from the desktop instead of a camera
	X          int    `yaml:"x"`
	Y          int    `yaml:"y"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Window     string `yaml:"window"`
	Fullscreen bool   `yaml:"fullscreen"`
}

// DetectionConfig mirrors alignment.DetectOptions.
type DetectionConfig struct {
	BlurSize      int     `yaml:"blur_size"`
	LowThreshold  float64 `yaml:"low_threshold,omitempty"`
	HighThreshold float64 `yaml:"high_threshold,omitempty"`
	LowRatio      float64 `yaml:"low_ratio"`
	HighRatio     float64 `yaml:"high_ratio"`
	DilateSize    int     `yaml:"dilate_size"`
	ErodeSize     int     `yaml:"erode_size"`
	ApproxRatio   float64 `yaml:"approx_ratio"`
}

// LoopConfig mirrors feedback.Options.
type LoopConfig struct {
	MaxIterations int           `yaml:"max_iterations"`
	Epsilon       float64       `yaml:"epsilon"`
	StepClamp     float64       `yaml:"step_clamp"`
	Settle        time.Duration `yaml:"settle"`
}

// SmoothingConfig sizes the low-pass filter.
type SmoothingConfig struct {
	History int `yaml:"history"`
}

// Config is the complete run configuration.
type Config struct {
	Camera    CameraConfig    `yaml:"camera"`
	Screen    ScreenConfig    `yaml:"screen"`
	Detection DetectionConfig `yaml:"detection"`

	// Corners of the projected region in camera pixels, from a previous
	// calibration. Empty means detect on startup.
	Corners []geometry.Point2D `yaml:"corners,omitempty"`

	Loop      LoopConfig      `yaml:"loop"`
	Smoothing SmoothingConfig `yaml:"smoothing"`
	Debug     bool            `yaml:"debug"`
}

// DefaultSettle is the pause between showing a frame and capturing it. A
// webcam returns a buffered frame from before the projector updated when
// captured sooner.
const DefaultSettle = 500 * time.Millisecond

// Default returns the configuration used when no file is given.
func Default() Config {
	d := alignment.DefaultDetectOptions()
	l := feedback.DefaultOptions()
	return Config{
		Camera: CameraConfig{Warmup: 2 * time.Second},
		Screen: ScreenConfig{Window: "projection", Fullscreen: true},
		Detection: DetectionConfig{
			BlurSize:    d.BlurSize,
			LowRatio:    d.LowRatio,
			HighRatio:   d.HighRatio,
			DilateSize:  d.DilateSize,
			ErodeSize:   d.ErodeSize,
			ApproxRatio: d.ApproxRatio,
		},
		Loop: LoopConfig{
			MaxIterations: l.MaxIterations,
			Epsilon:       l.Epsilon,
			StepClamp:     l.StepClamp,
			Settle:        DefaultSettle,
		},
		Smoothing: SmoothingConfig{History: 5},
	}
}

// Parse decodes YAML on top of the defaults, so a file only needs the
// fields it changes.
func Parse(b []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Load reads and finalizes a configuration file.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %w", path, err)
	}
	c, err := Parse(b)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Finalize(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Finalize validates the configuration and canonicalizes the corners.
func (c *Config) Finalize() error {
	if err := c.DetectOptions().Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if err := c.LoopOptions().Validate(); err != nil {
		return fmt.Errorf("loop: %w", err)
	}
	if c.Smoothing.History < 1 {
		return fmt.Errorf("smoothing: history must be at least 1, got %d", c.Smoothing.History)
	}
	if c.Screen.Capture && (c.Screen.Width < 0 || c.Screen.Height < 0) {
		return fmt.Errorf("screen: negative capture size")
	}
	if len(c.Corners) > 0 {
		q, ok := c.Quad()
		if !ok {
			return fmt.Errorf("corners: need 4 points, got %d", len(c.Corners))
		}
		if q.Degenerate() {
			return fmt.Errorf("corners %v: %w", q, alignment.ErrDegenerateGeometry)
		}
		c.SetQuad(alignment.OrderCorners(q))
	}
	return nil
}

// Quad returns the stored corners. ok is false unless exactly four are set.
func (c Config) Quad() (geometry.Quad, bool) {
	var q geometry.Quad
	if len(c.Corners) != len(q) {
		return q, false
	}
	copy(q[:], c.Corners)
	return q, true
}

// SetQuad stores calibrated corners.
func (c *Config) SetQuad(q geometry.Quad) {
	c.Corners = append(c.Corners[:0], q[:]...)
}

// DetectOptions converts the detection section.
func (c Config) DetectOptions() alignment.DetectOptions {
	return alignment.DetectOptions{
		BlurSize:      c.Detection.BlurSize,
		LowThreshold:  c.Detection.LowThreshold,
		HighThreshold: c.Detection.HighThreshold,
		LowRatio:      c.Detection.LowRatio,
		HighRatio:     c.Detection.HighRatio,
		DilateSize:    c.Detection.DilateSize,
		ErodeSize:     c.Detection.ErodeSize,
		ApproxRatio:   c.Detection.ApproxRatio,
		Debug:         c.Debug,
	}
}

// LoopOptions converts the loop section. The logger is left to the caller.
func (c Config) LoopOptions() feedback.Options {
	return feedback.Options{
		MaxIterations: c.Loop.MaxIterations,
		Epsilon:       c.Loop.Epsilon,
		StepClamp:     c.Loop.StepClamp,
		Settle:        c.Loop.Settle,
	}
}

// AsYAML renders the configuration.
func (c Config) AsYAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(b), nil
}

// Save writes the configuration to path.
func (c Config) Save(path string) error {
	s, err := c.AsYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return fmt.Errorf("config write %s: %w", path, err)
	}
	return nil
}

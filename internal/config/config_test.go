package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"projector-match/internal/alignment"
	"projector-match/pkg/geometry"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Finalize(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.Loop.MaxIterations != 10 || c.Loop.Epsilon != 0.01 || c.Loop.StepClamp != 2 {
		t.Errorf("loop defaults = %+v", c.Loop)
	}
	if c.Smoothing.History != 5 {
		t.Errorf("history = %d, want 5", c.Smoothing.History)
	}
	if c.Loop.Settle != 500*time.Millisecond {
		t.Errorf("settle = %v, want 500ms before each capture", c.Loop.Settle)
	}
	if _, ok := c.Quad(); ok {
		t.Error("default config should have no corners")
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
camera:
  device: 2
  warmup: 500ms
loop:
  epsilon: 0.02
corners:
  - {x: 0, y: 0}
  - {x: 0, y: 90}
  - {x: 120, y: 90}
  - {x: 120, y: 0}
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Camera.Device != 2 || c.Camera.Warmup != 500*time.Millisecond {
		t.Errorf("camera = %+v", c.Camera)
	}
	if c.Loop.Epsilon != 0.02 || c.Loop.MaxIterations != 10 {
		t.Errorf("loop = %+v", c.Loop)
	}
	if c.Detection.BlurSize != 5 {
		t.Errorf("untouched section lost its default: %+v", c.Detection)
	}

	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}
	q, ok := c.Quad()
	if !ok {
		t.Fatal("corners not loaded")
	}
	want := geometry.Quad{{X: 0, Y: 0}, {X: 120, Y: 0}, {X: 120, Y: 90}, {X: 0, Y: 90}}
	if q != want {
		t.Errorf("corners = %v, want canonical %v", q, want)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("loop:\n  epsilom: 0.1\n")); err == nil {
		t.Error("misspelled field accepted")
	}
}

func TestFinalizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		is     error
	}{
		{"even blur", func(c *Config) { c.Detection.BlurSize = 4 }, nil},
		{"erode too large", func(c *Config) { c.Detection.ErodeSize = 7 }, nil},
		{"no iterations", func(c *Config) { c.Loop.MaxIterations = 0 }, nil},
		{"no history", func(c *Config) { c.Smoothing.History = 0 }, nil},
		{"three corners", func(c *Config) { c.Corners = make([]geometry.Point2D, 3) }, nil},
		{
			"collinear corners",
			func(c *Config) {
				c.Corners = []geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 0, Y: 5}}
			},
			alignment.ErrDegenerateGeometry,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Finalize()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	c := Default()
	c.Debug = true
	c.Loop.Settle = 250 * time.Millisecond
	c.SetQuad(geometry.Quad{{X: 10, Y: 12}, {X: 300, Y: 8}, {X: 310, Y: 220}, {X: 4, Y: 230}})

	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Debug || got.Loop.Settle != 250*time.Millisecond {
		t.Errorf("loaded %+v", got)
	}
	gq, _ := got.Quad()
	cq, _ := c.Quad()
	if gq != cq {
		t.Errorf("corners = %v, want %v", gq, cq)
	}

	s, err := got.AsYAML()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(s, "max_iterations: 10") {
		t.Errorf("yaml missing loop section:\n%s", s)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestOptionConversion(t *testing.T) {
	c := Default()
	c.Detection.LowThreshold = 30
	c.Debug = true
	d := c.DetectOptions()
	if d.LowThreshold != 30 || !d.Debug || d.DilateSize != 5 {
		t.Errorf("detect options = %+v", d)
	}
	l := c.LoopOptions()
	if l.MaxIterations != c.Loop.MaxIterations || l.Settle != DefaultSettle || l.Logger != nil {
		t.Errorf("loop options = %+v", l)
	}
}

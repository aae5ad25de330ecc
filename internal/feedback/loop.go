// Package feedback runs the project, capture, measure, adjust cycle that
// pre-distorts a reference image until its projection matches it.
package feedback

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"projector-match/internal/alignment"
	"projector-match/internal/capture"
	"projector-match/internal/correction"
	"projector-match/internal/frame"
	"projector-match/internal/metrics"
	"projector-match/pkg/geometry"
)

// State is the position of a Loop in its life cycle.
type State int

const (
	Converging State = iota
	Converged
	Exhausted
)

func (s State) String() string {
	switch s {
	case Converging:
		return "converging"
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further steps will run.
func (s State) Terminal() bool {
	return s == Converged || s == Exhausted
}

// ErrFinished is returned by Step once the loop has reached a terminal
// state.
var ErrFinished = errors.New("feedback loop finished")

// Options controls convergence.
type Options struct {
	MaxIterations int           // iteration budget
	Epsilon       float64       // distance at or below which the loop converges
	StepClamp     float64       // per-sample limit on each correction
	Settle        time.Duration // pause between Show and capture

	Logger *slog.Logger // nil disables per-iteration logging
}

// DefaultOptions returns the settings used for projector runs.
func DefaultOptions() Options {
	return Options{
		MaxIterations: 10,
		Epsilon:       0.01,
		StepClamp:     2,
	}
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if o.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", o.MaxIterations)
	}
	if o.Epsilon < 0 || o.Epsilon > 1 {
		return fmt.Errorf("epsilon %g outside [0, 1]", o.Epsilon)
	}
	if o.StepClamp <= 0 {
		return fmt.Errorf("step clamp must be positive, got %g", o.StepClamp)
	}
	if o.Settle < 0 {
		return fmt.Errorf("negative settle time %v", o.Settle)
	}
	return nil
}

// Result is the outcome of a completed run. Exhausted is a normal outcome:
// Image then holds the best-effort working image.
type Result struct {
	State      State
	Iterations int
	Score      float64   // last measured distance
	Scores     []float64 // distance per iteration
	Image      *frame.Image
}

// Loop iteratively adjusts a working copy of the reference. The quad is
// fixed for the life of the loop. Not safe for concurrent use.
type Loop struct {
	reference *frame.Image
	rectifier *alignment.Rectifier
	source    capture.FrameSource
	display   capture.Display
	opts      Options
	log       *slog.Logger

	working    *frame.Buffer
	state      State
	iterations int
	scores     []float64
}

// New prepares a loop for reference, whose projection appears inside quad
// of every captured frame. Degenerate quads are rejected here.
func New(reference *frame.Image, quad geometry.Quad, source capture.FrameSource, display capture.Display, opts Options) (*Loop, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if reference == nil || reference.Empty() {
		return nil, fmt.Errorf("empty reference image")
	}
	if source == nil || display == nil {
		return nil, fmt.Errorf("feedback loop needs a frame source and a display")
	}
	r, err := alignment.NewRectifier(reference.Width, reference.Height, quad)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		reference: reference.Clone(),
		rectifier: r,
		source:    source,
		display:   display,
		opts:      opts,
		log:       log,
		working:   frame.BufferFrom(reference),
		state:     Converging,
	}, nil
}

// State returns the current state.
func (l *Loop) State() State { return l.state }

// Iterations returns the number of completed iterations.
func (l *Loop) Iterations() int { return l.iterations }

// Step runs one iteration and returns the resulting state. A device error
// leaves the loop in Converging without counting the iteration; the loop
// does not retry on its own.
func (l *Loop) Step() (State, error) {
	if l.state.Terminal() {
		return l.state, ErrFinished
	}

	shown := l.working.Image()
	if err := l.display.Show(shown); err != nil {
		return l.state, deviceError("show working image", err)
	}
	if l.opts.Settle > 0 {
		time.Sleep(l.opts.Settle)
	}
	captured, err := l.source.NextFrame()
	if err != nil {
		return l.state, deviceError("capture frame", err)
	}
	if captured.Empty() {
		return l.state, fmt.Errorf("capture frame: empty frame: %w", capture.ErrDevice)
	}

	rectified, err := l.rectifier.Apply(captured)
	if err != nil {
		return l.state, fmt.Errorf("rectify capture: %w", err)
	}
	corrected, err := correction.ColorCorrect(rectified, l.reference)
	if err != nil {
		return l.state, fmt.Errorf("color correct capture: %w", err)
	}
	score, err := metrics.Distance(corrected, l.reference)
	if err != nil {
		return l.state, fmt.Errorf("score capture: %w", err)
	}

	l.iterations++
	l.scores = append(l.scores, score)

	if score <= l.opts.Epsilon {
		l.state = Converged
		l.log.Info("feedback converged", "iteration", l.iterations, "score", score)
		return l.state, nil
	}

	delta, err := frame.Difference(l.reference, corrected)
	if err != nil {
		return l.state, err
	}
	delta.Clamp(-l.opts.StepClamp, l.opts.StepClamp)
	if err := l.working.Add(delta); err != nil {
		return l.state, err
	}
	l.working.Clip()

	if l.iterations >= l.opts.MaxIterations {
		l.state = Exhausted
		l.log.Warn("feedback budget exhausted", "iterations", l.iterations, "score", score)
		return l.state, nil
	}
	l.log.Debug("feedback iteration", "iteration", l.iterations, "score", score)
	return l.state, nil
}

// Run steps until the loop converges or exhausts its budget.
func (l *Loop) Run() (*Result, error) {
	for !l.state.Terminal() {
		if _, err := l.Step(); err != nil {
			return nil, err
		}
	}
	return l.Result(), nil
}

// Result snapshots the loop's progress.
func (l *Loop) Result() *Result {
	res := &Result{
		State:      l.state,
		Iterations: l.iterations,
		Scores:     append([]float64(nil), l.scores...),
		Image:      l.working.Image(),
	}
	if n := len(l.scores); n > 0 {
		res.Score = l.scores[n-1]
	}
	return res
}

func deviceError(op string, err error) error {
	if errors.Is(err, capture.ErrDevice) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, capture.ErrDevice, err)
}

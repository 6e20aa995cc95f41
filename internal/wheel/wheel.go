// Package wheel implements the color wheel state machine: rotation, momentum and segment selection.
package wheel

import (
	"math"
	"math/rand/v2"
	"time"
)

// Phase is the motion state of the wheel.
type Phase int

const (
	// Idle means the wheel is at rest.
	Idle Phase = iota
	// ManualDrag means a pinch is holding the wheel and moving it directly.
	ManualDrag
	// Momentum means the wheel coasts and decelerates without input.
	Momentum
)

// String returns a short lowercase name for the phase.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case ManualDrag:
		return "dragging"
	case Momentum:
		return "spinning"
	default:
		return "unknown"
	}
}

// PinchEvent is the per-frame input produced by the gesture detector.
type PinchEvent struct {
	IsPinching  bool
	AnchorAngle float64 // degrees, relative to the wheel center
	TimestampMs int64
}

// State is the complete wheel state. It is a value: Update returns a new one.
type State struct {
	Angle    float64 // degrees in [0, 360)
	Velocity float64 // degrees per millisecond
	Phase    Phase
	Selected int
	Segments int

	// previous frame's pinch input
	pinching bool
	anchor   float64
}

// IsSpinning reports whether the wheel is coasting on momentum.
func (s State) IsSpinning() bool {
	return s.Phase == Momentum
}

// Config holds the wheel tuning constants.
type Config struct {
	Segments        int
	MinSegments     int
	MaxSegments     int
	Deceleration    float64 // degrees/ms^2, linear
	MaxVelocity     float64 // degrees/ms
	VelocityEpsilon float64 // degrees/ms; slower than this counts as stopped
	SpinMin         float64 // degrees/ms
	SpinMax         float64 // degrees/ms
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Segments:        8,
		MinSegments:     3,
		MaxSegments:     20,
		Deceleration:    0.0005,
		MaxVelocity:     2.0,
		VelocityEpsilon: 0.001,
		SpinMin:         0.4,
		SpinMax:         0.9,
	}
}

// Wheel applies the transition rules to a State. It holds only immutable
// configuration and the random source used by Spin.
type Wheel struct {
	cfg Config
	rng *rand.Rand
}

// New creates a Wheel. A nil rng is replaced by a time-seeded source.
func New(cfg Config, rng *rand.Rand) *Wheel {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Wheel{cfg: cfg, rng: rng}
}

// Config returns the wheel configuration.
func (w *Wheel) Config() Config {
	return w.cfg
}

// Initial returns the at-rest state with the configured segment count.
func (w *Wheel) Initial() State {
	n := w.clampSegments(w.cfg.Segments)
	return State{
		Phase:    Idle,
		Segments: n,
		Selected: SegmentIndex(0, n),
	}
}

// Update advances the state by one frame.
//
// A pinch that starts grabs the wheel and cancels any momentum. A held pinch
// turns the wheel by the anchor's angular delta and records the drag velocity.
// Releasing with a velocity above epsilon launches momentum; otherwise the wheel
// comes to rest. While coasting, velocity shrinks linearly until it drops below
// epsilon. Calls with elapsedMs <= 0 return the state unchanged.
func (w *Wheel) Update(s State, elapsedMs float64, ev PinchEvent) State {
	if !(elapsedMs > 0) {
		return s
	}

	switch {
	case ev.IsPinching && !s.pinching:
		s.Phase = ManualDrag
		s.Velocity = 0

	case ev.IsPinching:
		delta := AngleDelta(s.anchor, ev.AnchorAngle)
		s.Angle = Normalize(s.Angle + delta)
		s.Velocity = w.clampVelocity(delta / elapsedMs)
		s.Phase = ManualDrag

	case s.pinching:
		if math.Abs(s.Velocity) >= w.cfg.VelocityEpsilon {
			s.Phase = Momentum
		} else {
			s.Velocity = 0
			s.Phase = Idle
		}

	case s.Phase == Momentum:
		s = w.coast(s, elapsedMs)
	}

	s.pinching = ev.IsPinching
	if ev.IsPinching {
		s.anchor = ev.AnchorAngle
	}
	s.Selected = SegmentIndex(s.Angle, s.Segments)
	return s
}

func (w *Wheel) coast(s State, elapsedMs float64) State {
	s.Angle = Normalize(s.Angle + s.Velocity*elapsedMs)

	speed := math.Abs(s.Velocity) - w.cfg.Deceleration*elapsedMs
	if speed < w.cfg.VelocityEpsilon {
		s.Velocity = 0
		s.Phase = Idle
		return s
	}
	s.Velocity = math.Copysign(speed, s.Velocity)
	return s
}

// Spin launches the wheel with a random speed in [SpinMin, SpinMax] and a random
// direction. A wheel that is already coasting is left alone.
func (w *Wheel) Spin(s State) State {
	if s.Phase == Momentum {
		return s
	}

	speed := w.cfg.SpinMin + w.rng.Float64()*(w.cfg.SpinMax-w.cfg.SpinMin)
	if w.rng.IntN(2) == 0 {
		speed = -speed
	}
	s.Velocity = w.clampVelocity(speed)
	s.Phase = Momentum
	return s
}

// SetSegments changes the segment count, clamped to the configured bounds.
func (w *Wheel) SetSegments(s State, n int) State {
	s.Segments = w.clampSegments(n)
	s.Selected = SegmentIndex(s.Angle, s.Segments)
	return s
}

func (w *Wheel) clampSegments(n int) int {
	return max(w.cfg.MinSegments, min(n, w.cfg.MaxSegments))
}

func (w *Wheel) clampVelocity(v float64) float64 {
	return max(-w.cfg.MaxVelocity, min(v, w.cfg.MaxVelocity))
}

// Normalize wraps an angle in degrees into [0, 360).
func Normalize(angle float64) float64 {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	// -1e-15 + 360 rounds to 360
	if a >= 360 {
		a = 0
	}
	return a
}

// AngleDelta returns the shortest signed rotation from one angle to another, in (-180, 180].
func AngleDelta(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// SegmentIndex returns the segment that contains angle for a wheel of n segments.
func SegmentIndex(angle float64, n int) int {
	if n <= 0 {
		return 0
	}
	span := 360 / float64(n)
	idx := int(math.Floor(Normalize(angle)/span)) % n
	if idx < 0 {
		idx += n
	}
	return idx
}

// Package gesture turns hand landmarks into per-frame pinch readings for the wheel.
package gesture

import (
	"math"

	"github.com/ayusman/pinchwheel/internal/detector"
	"github.com/ayusman/pinchwheel/internal/wheel"
)

// Config holds pinch thresholds and the wheel geometry the anchor is measured against.
type Config struct {
	// Enter and Exit are fingertip distances in normalized frame units.
	// A pinch starts below Enter and ends above Exit.
	Enter float64
	Exit  float64

	// Wheel center and near-wheel radius in frame pixels.
	CenterX    float64
	CenterY    float64
	NearRadius float64

	FrameWidth  int
	FrameHeight int
}

// Reading is what the pinch detector saw in one frame.
type Reading struct {
	wheel.PinchEvent

	HandPresent bool

	// X and Y are the pinch anchor (midpoint of thumb and index tips) in frame pixels.
	X, Y float64

	// Distance is the normalized thumb-index tip distance.
	Distance float64

	NearWheel bool

	// PinchStarted is set on the frame the pinch engaged.
	PinchStarted bool

	// Thumb and Index tip positions in frame pixels, for drawing.
	ThumbX, ThumbY float64
	IndexX, IndexY float64
}

// PinchDetector applies hysteresis to the thumb-index distance of the first
// valid hand in each frame.
type PinchDetector struct {
	config   Config
	pinching bool
}

// NewPinchDetector creates a detector with the given configuration.
func NewPinchDetector(config Config) *PinchDetector {
	return &PinchDetector{config: config}
}

// Detect produces the reading for one frame. Frames without a valid hand read
// as not pinching and reset the hysteresis.
func (p *PinchDetector) Detect(hands []detector.HandLandmarks, timestampMs int64) Reading {
	r := Reading{PinchEvent: wheel.PinchEvent{TimestampMs: timestampMs}}

	hand := firstValid(hands)
	if hand == nil {
		p.pinching = false
		return r
	}

	thumb := hand.Points[detector.ThumbTip]
	index := hand.Points[detector.IndexTip]
	r.HandPresent = true
	r.Distance = detector.Distance2D(thumb, index)

	was := p.pinching
	switch {
	case !p.pinching && r.Distance < p.config.Enter:
		p.pinching = true
	case p.pinching && r.Distance > p.config.Exit:
		p.pinching = false
	}
	r.IsPinching = p.pinching
	r.PinchStarted = p.pinching && !was

	w, h := float64(p.config.FrameWidth), float64(p.config.FrameHeight)
	mid := detector.Midpoint(thumb, index)
	r.X, r.Y = mid.X*w, mid.Y*h
	r.ThumbX, r.ThumbY = thumb.X*w, thumb.Y*h
	r.IndexX, r.IndexY = index.X*w, index.Y*h

	r.AnchorAngle = AnchorAngle(r.X, r.Y, p.config.CenterX, p.config.CenterY)
	r.NearWheel = math.Hypot(r.X-p.config.CenterX, r.Y-p.config.CenterY) < p.config.NearRadius

	return r
}

// Pinching reports the current hysteresis state.
func (p *PinchDetector) Pinching() bool {
	return p.pinching
}

// Reset forgets an engaged pinch.
func (p *PinchDetector) Reset() {
	p.pinching = false
}

// AnchorAngle returns the angle of (x, y) around (cx, cy) in degrees in [0, 360),
// measured in screen coordinates (y down).
func AnchorAngle(x, y, cx, cy float64) float64 {
	return wheel.Normalize(math.Atan2(y-cy, x-cx) * 180 / math.Pi)
}

func firstValid(hands []detector.HandLandmarks) *detector.HandLandmarks {
	for i := range hands {
		if hands[i].Valid() {
			return &hands[i]
		}
	}
	return nil
}
